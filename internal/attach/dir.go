package attach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"turnover/api/internal/util"
)

// DirStore keeps one directory per entity key under a base uploads folder.
type DirStore struct {
	baseDir string
	now     func() time.Time
}

func NewDirStore(baseDir string) (*DirStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DirStore{baseDir: baseDir, now: time.Now}, nil
}

func (s *DirStore) keyDir(key string) string {
	return filepath.Join(s.baseDir, util.SafeFileName(key))
}

func (s *DirStore) Save(ctx context.Context, key, filename string, r io.Reader, size int64) (File, error) {
	dir := s.keyDir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return File{}, fmt.Errorf("create attachment dir: %w", err)
	}
	now := s.now()
	name := strconv.FormatInt(now.UnixMilli(), 10) + "_" + util.SafeFileName(filename)
	path := filepath.Join(dir, name)

	file, err := os.Create(path)
	if err != nil {
		return File{}, fmt.Errorf("create attachment: %w", err)
	}
	written, err := io.Copy(file, r)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return File{}, fmt.Errorf("write attachment: %w", err)
	}
	return File{Name: name, URL: path, Size: written, SavedAt: now}, nil
}

func (s *DirStore) List(ctx context.Context, key string) ([]File, error) {
	entries, err := os.ReadDir(s.keyDir(key))
	if errors.Is(err, fs.ErrNotExist) {
		return []File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}

	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, File{
			Name:    entry.Name(),
			URL:     filepath.Join(s.keyDir(key), entry.Name()),
			Size:    info.Size(),
			SavedAt: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].SavedAt.After(files[j].SavedAt)
	})
	return files, nil
}
