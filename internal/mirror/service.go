// Package mirror keeps a git history of the CSV sheet files. Every write to
// the local sheet store lands as one commit, which gives the turnover log an
// audit trail and a way to recover a clobbered row.
package mirror

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type Snapshot struct {
	Hash      string
	Message   string
	Author    string
	CreatedAt time.Time
}

type Service struct {
	baseDir string
	author  string
	mu      sync.Mutex
}

// New opens (or initializes) the snapshot repository rooted at the sheet
// directory. author is the committer recorded on every snapshot.
func New(baseDir, author string) (*Service, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create mirror dir: %w", err)
	}
	if _, err := git.PlainOpen(baseDir); err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("open mirror repo: %w", err)
		}
		if _, err := git.PlainInit(baseDir, false); err != nil {
			return nil, fmt.Errorf("init mirror repo: %w", err)
		}
	}
	if strings.TrimSpace(author) == "" {
		author = "turnover"
	}
	return &Service{baseDir: baseDir, author: author}, nil
}

// Commit stages one sheet file and records a snapshot. A worktree with no
// changes (an overwrite that produced identical bytes) is not an error.
func (s *Service) Commit(relPath, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.baseDir)
	if err != nil {
		return fmt.Errorf("open mirror repo: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if _, err := worktree.Add(relPath); err != nil {
		return fmt.Errorf("stage %s: %w", relPath, err)
	}
	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}
	if status.IsClean() {
		return nil
	}
	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  s.author,
			Email: sanitizeEmail(s.author) + "@turnover.local",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit %s: %w", relPath, err)
	}
	return nil
}

// History lists the most recent snapshots, newest first.
func (s *Service) History(limit int) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("open mirror repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		// No commits yet.
		return []Snapshot{}, nil
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]Snapshot, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, Snapshot{
			Hash:      commitObj.Hash.String(),
			Message:   commitObj.Message,
			Author:    commitObj.Author.Name,
			CreatedAt: commitObj.Author.When,
		})
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

func sanitizeEmail(name string) string {
	cleaned := make([]rune, 0, len(name))
	for _, ch := range strings.ToLower(name) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			cleaned = append(cleaned, ch)
		}
	}
	if len(cleaned) == 0 {
		return "turnover"
	}
	return string(cleaned)
}
