package attach

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestDirStoreSaveNamesWithEpochPrefix(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}
	saved := time.Date(2024, 5, 17, 5, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return saved }

	file, err := store.Save(context.Background(), "wo-2002", "pump photo.jpg", strings.NewReader("jpegdata"), 8)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	wantPrefix := "1715923800000_"
	if !strings.HasPrefix(file.Name, wantPrefix) {
		t.Fatalf("name = %q, want prefix %q", file.Name, wantPrefix)
	}
	if file.Size != 8 {
		t.Fatalf("size = %d, want 8", file.Size)
	}
	data, err := os.ReadFile(file.URL)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != "jpegdata" {
		t.Fatalf("content = %q", data)
	}
}

func TestDirStoreListNewestFirst(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}
	base := time.Date(2024, 5, 17, 5, 30, 0, 0, time.UTC)
	clock := base
	store.now = func() time.Time { return clock }

	ctx := context.Background()
	first, err := store.Save(ctx, "wo-2002", "first.txt", strings.NewReader("a"), 1)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	clock = base.Add(time.Second)
	second, err := store.Save(ctx, "wo-2002", "second.txt", strings.NewReader("b"), 1)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := os.Chtimes(first.URL, base, base); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	if err := os.Chtimes(second.URL, clock, clock); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	files, err := store.List(ctx, "wo-2002")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if !strings.HasSuffix(files[0].Name, "second.txt") {
		t.Fatalf("expected newest first, got %v then %v", files[0].Name, files[1].Name)
	}
}

func TestDirStoreListMissingKeyIsEmpty(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}

	files, err := store.List(context.Background(), "never-uploaded")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if files == nil || len(files) != 0 {
		t.Fatalf("expected empty list, got %v", files)
	}
}

func TestDirStoreSanitizesKeyAndFilename(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirStore(dir)
	if err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}

	file, err := store.Save(context.Background(), "wo/2002", "../escape.txt", strings.NewReader("x"), 1)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if strings.Contains(file.Name, "/") || strings.Contains(file.Name, "\\") {
		t.Fatalf("name %q must not contain path separators", file.Name)
	}
	if !strings.HasPrefix(file.URL, dir) {
		t.Fatalf("file %q escaped the base dir %q", file.URL, dir)
	}
}
