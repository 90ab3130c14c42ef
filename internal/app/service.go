package app

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"turnover/api/internal/attach"
	"turnover/api/internal/auth"
	"turnover/api/internal/authpw"
	"turnover/api/internal/config"
	"turnover/api/internal/export"
	"turnover/api/internal/logbook"
	"turnover/api/internal/mirror"
	"turnover/api/internal/rbac"
	"turnover/api/internal/search"
	"turnover/api/internal/session"
	"turnover/api/internal/sheet"
	"turnover/api/internal/util"
)

// The two turnover logs. Each is a structurally identical table behind its
// own schema descriptor.
const (
	LogWorkOrders = "wo"
	LogRequests   = "rfm"
)

const inviteTTL = 7 * 24 * time.Hour

type Session struct {
	Token         string
	RememberToken string
	Name          string
	Role          string
	JTI           string
	ExpiresAt     time.Time
}

type Service struct {
	cfg       config.Config
	store     sheet.Store
	engines   map[string]*logbook.Engine
	files     attach.Store
	passwords *authpw.Service
	sessions  session.Store
	search    *search.Service
	export    *export.Service
	mirror    *mirror.Service

	// One parsed table snapshot per log, invalidated after every
	// successful write so a read after a write never sees a stale row.
	mu    sync.Mutex
	cache map[string]sheet.Table
}

// New wires the service. mirrorSvc is nil unless the CSV backend runs with
// the git mirror enabled.
func New(cfg config.Config, store sheet.Store, files attach.Store, sessions session.Store, mirrorSvc *mirror.Service) *Service {
	s := &Service{
		cfg:       cfg,
		store:     store,
		files:     files,
		passwords: authpw.NewService(cfg.PasswordHash),
		sessions:  sessions,
		export:    export.NewService(),
		mirror:    mirrorSvc,
		cache:     make(map[string]sheet.Table),
	}
	engineCfg := func(log string) logbook.EngineConfig {
		return logbook.EngineConfig{
			Locations:  cfg.Locations,
			Location:   cfg.Location(),
			CutoffHour: cfg.CutoffHour,
			OnWrite:    func() { s.invalidate(log) },
		}
	}
	s.engines = map[string]*logbook.Engine{
		LogWorkOrders: logbook.NewEngine(store, logbook.WorkOrders, engineCfg(LogWorkOrders)),
		LogRequests:   logbook.NewEngine(store, logbook.Requests, engineCfg(LogRequests)),
	}
	s.search = search.NewService(nil, s)
	return s
}

// SetSearch swaps in the Meilisearch-backed facade. The default facade set
// by New scans the sheets directly.
func (s *Service) SetSearch(svc *search.Service) {
	s.search = svc
}

func (s *Service) engineFor(log string) (*logbook.Engine, error) {
	engine, ok := s.engines[log]
	if !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "unknown log "+log, nil)
	}
	return engine, nil
}

func (s *Service) loadTable(ctx context.Context, engine *logbook.Engine, log string) (sheet.Table, error) {
	s.mu.Lock()
	if table, ok := s.cache[log]; ok {
		s.mu.Unlock()
		return table, nil
	}
	s.mu.Unlock()

	table, err := s.store.ReadAll(ctx, engine.Schema().Name)
	if err != nil {
		return sheet.Table{}, err
	}

	s.mu.Lock()
	s.cache[log] = table
	s.mu.Unlock()
	return table, nil
}

func (s *Service) invalidate(log string) {
	s.mu.Lock()
	delete(s.cache, log)
	s.mu.Unlock()
}

// ShiftDate is the current working date under the configured cutoff rules.
func (s *Service) ShiftDate() string {
	return logbook.ShiftDate(time.Now(), s.cfg.Location(), s.cfg.CutoffHour)
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// Ping reads the work order sheet to prove the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.store.ReadAll(ctx, logbook.WorkOrders.Name)
	return err
}

func (s *Service) ConfigProblems() []string {
	return s.cfg.Check()
}

// ── Sessions ──

func (s *Service) Login(ctx context.Context, password, name, role string, remember bool) (Session, error) {
	if err := s.passwords.Verify(password); err != nil {
		return Session{}, err
	}
	userName := strings.TrimSpace(name)
	if userName == "" {
		userName = "Crew"
	}
	// The shared password grants write access. Elevated roles come from the
	// login request or an invite link; anything unknown drops to viewer.
	if strings.TrimSpace(role) == "" {
		role = string(rbac.RoleTech)
	}
	return s.issueSession(ctx, userName, string(rbac.Normalize(role)), remember)
}

func (s *Service) Refresh(ctx context.Context, rememberToken string) (Session, error) {
	tokenHash := auth.HashToken(rememberToken)
	data, err := s.sessions.Lookup(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.Revoke(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, data.Name, data.Role, true)
}

func (s *Service) Logout(ctx context.Context, rememberToken string) error {
	if rememberToken == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, auth.HashToken(rememberToken))
}

func (s *Service) issueSession(ctx context.Context, name, role string, remember bool) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Kind: auth.KindAccess,
		Name: name,
		Role: role,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	sess := Session{
		Token:     token,
		Name:      name,
		Role:      role,
		JTI:       jti,
		ExpiresAt: expiresAt,
	}
	if remember {
		rememberToken := util.NewID("rmb") + util.NewID("")
		err := s.sessions.Save(ctx, auth.HashToken(rememberToken), session.Remembered{
			Name:      name,
			Role:      role,
			CreatedAt: now,
		}, now.Add(s.cfg.RememberTTL))
		if err != nil {
			return Session{}, err
		}
		sess.RememberToken = rememberToken
	}
	return sess, nil
}

func (s *Service) SessionFromToken(token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	if claims.Kind != auth.KindAccess {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{
		Token:     token,
		Name:      claims.Name,
		Role:      claims.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// Invite mints a role-scoped invite link token. Redeeming it starts a
// session without knowing the shared password.
func (s *Service) Invite(role string) (string, time.Time, error) {
	expiresAt := time.Now().Add(inviteTTL)
	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Kind: auth.KindInvite,
		Role: string(rbac.Normalize(role)),
		JTI:  util.NewID("inv"),
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (s *Service) Redeem(ctx context.Context, token, name string, remember bool) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	if claims.Kind != auth.KindInvite {
		return Session{}, auth.ErrInvalidToken
	}
	userName := strings.TrimSpace(name)
	if userName == "" {
		return Session{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	return s.issueSession(ctx, userName, claims.Role, remember)
}

// ── Log views ──

func matchesView(schema logbook.Schema, status, view string) bool {
	switch view {
	case "open":
		return !schema.IsTerminal(status) && !schema.IsWaiting(status)
	case "waiting":
		return schema.IsWaiting(status)
	case "closed":
		return schema.IsTerminal(status)
	case "all":
		return true
	default:
		return false
	}
}

func (s *Service) ListEntries(ctx context.Context, log, view, date string) (map[string]any, error) {
	engine, err := s.engineFor(log)
	if err != nil {
		return nil, err
	}
	if view == "" {
		view = "open"
	}
	switch view {
	case "open", "waiting", "closed", "all":
	default:
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "view must be open, waiting, closed, or all", nil)
	}

	table, err := s.loadTable(ctx, engine, log)
	if err != nil {
		return nil, err
	}

	schema := engine.Schema()
	entries := make([]logbook.Entry, 0)
	for _, entry := range logbook.LatestByKey(table.Rows) {
		if !matchesView(schema, entry.Status, view) {
			continue
		}
		if date != "" && entry.Date != date {
			continue
		}
		entries = append(entries, entry)
	}
	logbook.SortEntriesByKey(entries)

	payload := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, entryPayload(entry))
	}
	if date == "" {
		date = s.ShiftDate()
	}
	return map[string]any{
		"log":     log,
		"view":    view,
		"date":    date,
		"entries": payload,
	}, nil
}

func (s *Service) History(ctx context.Context, log, key string) (map[string]any, error) {
	engine, err := s.engineFor(log)
	if err != nil {
		return nil, err
	}
	table, err := s.loadTable(ctx, engine, log)
	if err != nil {
		return nil, err
	}

	entries := logbook.History(table.Rows, key)
	payload := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, entryPayload(entry))
	}

	result := map[string]any{
		"key":     key,
		"entries": payload,
	}
	// The edit path overwrites the row the latest-wins rule identifies, so
	// hand the caller that position alongside the history.
	if position, ok := logbook.FindRowPosition(table.Rows, key); ok {
		result["latestPosition"] = position
	}
	return result, nil
}

// ── Write paths ──

func (s *Service) AppendNote(ctx context.Context, log string, in logbook.NoteInput) (map[string]any, error) {
	engine, err := s.engineFor(log)
	if err != nil {
		return nil, err
	}
	entry, err := engine.AppendNote(ctx, in)
	if err != nil {
		return nil, err
	}
	s.indexEntry(log, entry)
	return map[string]any{"entry": entryPayload(entry)}, nil
}

func (s *Service) UpdateRow(ctx context.Context, log string, position int, in logbook.EditInput) (map[string]any, error) {
	engine, err := s.engineFor(log)
	if err != nil {
		return nil, err
	}
	in.Position = position
	entry, err := engine.UpdateRow(ctx, in)
	if err != nil {
		return nil, err
	}
	s.indexEntry(log, entry)
	return map[string]any{"entry": entryPayload(entry)}, nil
}

// ── Attachments ──

func attachKey(log, key string) string {
	return log + "-" + key
}

func (s *Service) ListAttachments(ctx context.Context, log, key string) (map[string]any, error) {
	if _, err := s.engineFor(log); err != nil {
		return nil, err
	}
	files, err := s.files.List(ctx, attachKey(log, key))
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []attach.File{}
	}
	return map[string]any{"key": key, "attachments": files}, nil
}

func (s *Service) SaveAttachment(ctx context.Context, log, key, filename string, r io.Reader, size int64) (map[string]any, error) {
	if _, err := s.engineFor(log); err != nil {
		return nil, err
	}
	if strings.TrimSpace(key) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "a non-blank key is required", nil)
	}
	file, err := s.files.Save(ctx, attachKey(log, key), filename, r, size)
	if err != nil {
		return nil, err
	}
	return map[string]any{"key": key, "attachment": file}, nil
}

// ── Search ──

// SearchRecords implements search.Loader: each log contributes its latest
// state per key, which is what the turnover search tab looks through.
func (s *Service) SearchRecords(ctx context.Context, log string) ([]search.Record, error) {
	logs := []string{LogWorkOrders, LogRequests}
	if log != "" {
		if _, err := s.engineFor(log); err != nil {
			return nil, err
		}
		logs = []string{log}
	}

	records := make([]search.Record, 0)
	for _, name := range logs {
		engine := s.engines[name]
		table, err := s.loadTable(ctx, engine, name)
		if err != nil {
			return nil, err
		}
		entries := make([]logbook.Entry, 0)
		for _, entry := range logbook.LatestByKey(table.Rows) {
			entries = append(entries, entry)
		}
		logbook.SortEntriesByKey(entries)
		for _, entry := range entries {
			records = append(records, searchRecord(name, entry))
		}
	}
	return records, nil
}

func (s *Service) Search(ctx context.Context, q search.Query) search.Response {
	return s.search.Search(ctx, q)
}

func (s *Service) ReindexAll(ctx context.Context) {
	s.search.ReindexAll(ctx)
}

func (s *Service) indexEntry(log string, entry logbook.Entry) {
	s.search.IndexRecord(searchRecord(log, entry))
}

func searchRecord(log string, entry logbook.Entry) search.Record {
	return search.Record{
		ID:       log + "-" + entry.EntryID,
		Log:      log,
		Key:      entry.Key,
		Title:    entry.Title,
		Body:     entry.Body,
		Date:     entry.Date,
		Status:   entry.Status,
		Location: entry.Location,
	}
}

// ── Export ──

func (s *Service) Export(ctx context.Context, log string, format export.Format, date string) (*export.Result, error) {
	engine, err := s.engineFor(log)
	if err != nil {
		return nil, err
	}
	if date == "" {
		date = s.ShiftDate()
	}

	table, err := s.loadTable(ctx, engine, log)
	if err != nil {
		return nil, err
	}

	schema := engine.Schema()
	entries := make([]logbook.Entry, 0)
	for _, entry := range logbook.LatestByKey(table.Rows) {
		if !matchesView(schema, entry.Status, "open") {
			continue
		}
		entries = append(entries, entry)
	}
	logbook.SortEntriesByKey(entries)

	items := make([]export.Item, 0, len(entries))
	for _, entry := range entries {
		items = append(items, export.Item{
			Key:      entry.Key,
			Title:    entry.Title,
			Body:     entry.Body,
			Date:     entry.Date,
			Status:   entry.Status,
			Location: entry.Location,
		})
	}
	return s.export.Export(export.Request{Log: log, Date: date, Format: format, Items: items})
}

// ── Snapshots ──

func (s *Service) Snapshots(limit int) (map[string]any, error) {
	if s.mirror == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "snapshot history requires the git-mirrored csv backend", nil)
	}
	snapshots, err := s.mirror.History(limit)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(snapshots))
	for _, snap := range snapshots {
		payload = append(payload, map[string]any{
			"hash":      snap.Hash,
			"message":   snap.Message,
			"author":    snap.Author,
			"createdAt": snap.CreatedAt.Format(time.RFC3339),
		})
	}
	return map[string]any{"snapshots": payload}, nil
}

func entryPayload(entry logbook.Entry) map[string]any {
	attachments := entry.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return map[string]any{
		"key":         entry.Key,
		"title":       entry.Title,
		"body":        entry.Body,
		"date":        entry.Date,
		"location":    entry.Location,
		"status":      entry.Status,
		"attachments": attachments,
		"entryId":     entry.EntryID,
		"createdAt":   entry.CreatedAt,
		"position":    entry.Position,
	}
}
