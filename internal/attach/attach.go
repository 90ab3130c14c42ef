// Package attach stores file attachments keyed by entity identifier. Each
// saved file is namespaced by a millisecond epoch timestamp plus its
// original name, so concurrent writers to the same key never collide.
package attach

import (
	"context"
	"io"
	"time"
)

type File struct {
	Name    string    `json:"name"`
	URL     string    `json:"url"`
	Size    int64     `json:"size"`
	SavedAt time.Time `json:"savedAt"`
}

type Store interface {
	// Save writes one attachment under key and returns its stored form.
	Save(ctx context.Context, key, filename string, r io.Reader, size int64) (File, error)
	// List returns attachments for key, newest first. A key with no
	// attachments yields an empty list, not an error.
	List(ctx context.Context, key string) ([]File, error)
}
