package sheet

import (
	"context"
	"errors"
	"testing"
)

type recordingSnapshotter struct {
	commits []string
}

func (r *recordingSnapshotter) Commit(relPath, message string) error {
	r.commits = append(r.commits, message)
	return nil
}

var testHeader = []string{"WO", "Title", "Resolution", "Date", "Location", "Status", "Attachments", "EntryID", "CreatedAt"}

func testCSVStore(t *testing.T) (*CSVStore, *recordingSnapshotter) {
	t.Helper()
	mirror := &recordingSnapshotter{}
	store, err := NewCSVStore(t.TempDir(), mirror)
	if err != nil {
		t.Fatalf("NewCSVStore() error = %v", err)
	}
	return store, mirror
}

func TestCSVStoreMissingFileReadsEmpty(t *testing.T) {
	store, _ := testCSVStore(t)

	table, err := store.ReadAll(context.Background(), "work_orders")
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(table.Header) != 0 || len(table.Rows) != 0 {
		t.Fatalf("expected empty table, got %+v", table)
	}
}

func TestCSVStoreEnsureHeaderCreatesFile(t *testing.T) {
	store, mirror := testCSVStore(t)

	if err := store.EnsureHeader(context.Background(), "work_orders", testHeader); err != nil {
		t.Fatalf("EnsureHeader() error = %v", err)
	}

	table, err := store.ReadAll(context.Background(), "work_orders")
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !HeaderMatches(table.Header, testHeader) {
		t.Fatalf("header = %v, want %v", table.Header, testHeader)
	}
	if len(mirror.commits) != 1 {
		t.Fatalf("expected one snapshot, got %v", mirror.commits)
	}
}

func TestCSVStoreEnsureHeaderIsIdempotent(t *testing.T) {
	store, mirror := testCSVStore(t)
	ctx := context.Background()

	if err := store.EnsureHeader(ctx, "work_orders", testHeader); err != nil {
		t.Fatalf("EnsureHeader() error = %v", err)
	}
	if err := store.EnsureHeader(ctx, "work_orders", testHeader); err != nil {
		t.Fatalf("EnsureHeader() second call error = %v", err)
	}
	if len(mirror.commits) != 1 {
		t.Fatalf("a matching header must not rewrite, commits = %v", mirror.commits)
	}
}

func TestCSVStoreEnsureHeaderRewritesMismatchKeepingRows(t *testing.T) {
	store, _ := testCSVStore(t)
	ctx := context.Background()

	if err := store.EnsureHeader(ctx, "work_orders", []string{"Old", "Header"}); err != nil {
		t.Fatalf("EnsureHeader() error = %v", err)
	}
	if err := store.Append(ctx, "work_orders", []string{"2002", "Pump rebuild"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := store.EnsureHeader(ctx, "work_orders", testHeader); err != nil {
		t.Fatalf("EnsureHeader() rewrite error = %v", err)
	}

	table, err := store.ReadAll(ctx, "work_orders")
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !HeaderMatches(table.Header, testHeader) {
		t.Fatalf("header = %v, want rewritten %v", table.Header, testHeader)
	}
	if len(table.Rows) != 1 || table.Rows[0][0] != "2002" {
		t.Fatalf("rows must survive a header rewrite, got %v", table.Rows)
	}
}

func TestCSVStoreAppendPositions(t *testing.T) {
	store, _ := testCSVStore(t)
	ctx := context.Background()

	if err := store.EnsureHeader(ctx, "work_orders", testHeader); err != nil {
		t.Fatalf("EnsureHeader() error = %v", err)
	}
	if err := store.Append(ctx, "work_orders", []string{"2002"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(ctx, "work_orders", []string{"7"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	table, err := store.ReadAll(ctx, "work_orders")
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if got := table.Position(0); got != 2 {
		t.Fatalf("first data row position = %d, want 2", got)
	}
	if got := table.Position(1); got != 3 {
		t.Fatalf("second data row position = %d, want 3", got)
	}
}

func TestCSVStoreOverwriteReplacesWholeRow(t *testing.T) {
	store, _ := testCSVStore(t)
	ctx := context.Background()

	if err := store.EnsureHeader(ctx, "work_orders", testHeader); err != nil {
		t.Fatalf("EnsureHeader() error = %v", err)
	}
	if err := store.Append(ctx, "work_orders", []string{"2002", "old title"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := store.Overwrite(ctx, "work_orders", 2, []string{"2002", "new title"}); err != nil {
		t.Fatalf("Overwrite() error = %v", err)
	}

	table, err := store.ReadAll(ctx, "work_orders")
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if table.Rows[0][1] != "new title" {
		t.Fatalf("row = %v, want overwritten title", table.Rows[0])
	}
}

func TestCSVStoreOverwriteOutOfRange(t *testing.T) {
	store, _ := testCSVStore(t)
	ctx := context.Background()

	if err := store.EnsureHeader(ctx, "work_orders", testHeader); err != nil {
		t.Fatalf("EnsureHeader() error = %v", err)
	}

	err := store.Overwrite(ctx, "work_orders", 9, []string{"2002"})
	if !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("Overwrite() error = %v, want ErrWriteFailed", err)
	}
}

func TestHeaderMatchesTrimsAndOrders(t *testing.T) {
	if !HeaderMatches([]string{" WO ", "Title"}, []string{"WO", "Title"}) {
		t.Fatal("trimmed values must match")
	}
	if HeaderMatches([]string{"Title", "WO"}, []string{"WO", "Title"}) {
		t.Fatal("order matters")
	}
	if HeaderMatches([]string{"WO"}, []string{"WO", "Title"}) {
		t.Fatal("length matters")
	}
}
