package logbook

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"turnover/api/internal/sheet"
)

// NoteInput is the append-note write path: key is required, note may be
// blank, everything else falls back to the entity's latest entry and then
// to hardcoded defaults.
type NoteInput struct {
	Key         string
	Title       string
	Note        string
	Status      string
	Location    string
	Date        string
	Attachments []string
}

// EditInput is the direct-edit write path: a complete field set overwriting
// one physical row. No defaulting happens here; the caller pre-populates
// from the currently loaded row.
type EditInput struct {
	Position    int
	Key         string
	Title       string
	Body        string
	Date        string
	Location    string
	Status      string
	Attachments []string
}

// EngineConfig carries the environment-dependent defaulting rules.
type EngineConfig struct {
	Locations  []string
	Location   *time.Location
	CutoffHour int
	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
	// OnWrite runs after every successful write so cached table views can
	// be invalidated.
	OnWrite func()
}

// Engine implements the two write paths for one table.
type Engine struct {
	store  sheet.Store
	schema Schema
	cfg    EngineConfig
}

func NewEngine(store sheet.Store, schema Schema, cfg EngineConfig) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Engine{store: store, schema: schema, cfg: cfg}
}

func (e *Engine) Schema() Schema {
	return e.schema
}

func (e *Engine) wrote() {
	if e.cfg.OnWrite != nil {
		e.cfg.OnWrite()
	}
}

func (e *Engine) defaultLocation() string {
	if len(e.cfg.Locations) == 0 {
		return ""
	}
	return e.cfg.Locations[0]
}

// AppendNote records an incremental progress note as a brand-new physical
// row. It never overwrites; duplicate keys are exactly how history
// accumulates.
func (e *Engine) AppendNote(ctx context.Context, in NoteInput) (Entry, error) {
	key := strings.TrimSpace(in.Key)
	if key == "" {
		return Entry{}, invalid(e.schema.KeyColumn, "a non-blank key is required")
	}
	if in.Status != "" && !e.schema.ValidStatus(in.Status) {
		return Entry{}, invalid("Status", "unknown status "+in.Status)
	}

	if err := e.store.EnsureHeader(ctx, e.schema.Name, e.schema.Header()); err != nil {
		return Entry{}, err
	}
	table, err := e.store.ReadAll(ctx, e.schema.Name)
	if err != nil {
		return Entry{}, err
	}
	previous := LatestByKey(table.Rows)[key]

	now := e.cfg.Now()
	entry := Entry{
		Key:         key,
		Title:       firstNonBlank(in.Title, previous.Title),
		Body:        in.Note,
		Date:        firstNonBlank(in.Date, ShiftDate(now, e.cfg.Location, e.cfg.CutoffHour)),
		Location:    firstNonBlank(in.Location, previous.Location, e.defaultLocation()),
		Status:      firstNonBlank(in.Status, previous.Status, e.schema.DefaultStatus),
		Attachments: in.Attachments,
		EntryID:     uuid.NewString(),
		CreatedAt:   now.In(e.cfg.Location).Format(createdAtLayout),
		Position:    table.Position(len(table.Rows)),
	}
	if err := e.store.Append(ctx, e.schema.Name, entry.Row()); err != nil {
		return Entry{}, err
	}
	e.wrote()
	return entry, nil
}

// UpdateRow rewrites one existing physical row in place. The original
// EntryID survives the overwrite; a row written before entry IDs existed
// gets one minted. CreatedAt is likewise preserved so the row keeps its
// place in the entity's history.
func (e *Engine) UpdateRow(ctx context.Context, in EditInput) (Entry, error) {
	key := strings.TrimSpace(in.Key)
	if key == "" {
		return Entry{}, invalid(e.schema.KeyColumn, "a non-blank key is required")
	}
	if strings.TrimSpace(in.Status) == "" {
		return Entry{}, invalid("Status", "the edit path requires every field; status is blank")
	}
	if !e.schema.ValidStatus(in.Status) {
		return Entry{}, invalid("Status", "unknown status "+in.Status)
	}
	if strings.TrimSpace(in.Date) == "" {
		return Entry{}, invalid("Date", "the edit path requires every field; date is blank")
	}
	if strings.TrimSpace(in.Location) == "" {
		return Entry{}, invalid("Location", "the edit path requires every field; location is blank")
	}
	if e.schema.requiresBody(in.Status) && strings.TrimSpace(in.Body) == "" {
		return Entry{}, invalid(e.schema.BodyColumn, in.Status+" requires a non-blank "+strings.ToLower(e.schema.BodyColumn))
	}

	table, err := e.store.ReadAll(ctx, e.schema.Name)
	if err != nil {
		return Entry{}, err
	}
	rowIndex := in.Position - 2
	if rowIndex < 0 || rowIndex >= len(table.Rows) {
		return Entry{}, ErrNotFound
	}
	existing := EntryFromRow(table.Rows[rowIndex], in.Position)

	entry := Entry{
		Key:         key,
		Title:       in.Title,
		Body:        in.Body,
		Date:        in.Date,
		Location:    in.Location,
		Status:      in.Status,
		Attachments: in.Attachments,
		EntryID:     firstNonBlank(existing.EntryID, uuid.NewString()),
		CreatedAt:   firstNonBlank(existing.CreatedAt, e.cfg.Now().In(e.cfg.Location).Format(createdAtLayout)),
		Position:    in.Position,
	}
	if err := e.store.Overwrite(ctx, e.schema.Name, in.Position, entry.Row()); err != nil {
		return Entry{}, err
	}
	e.wrote()
	return entry, nil
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
