package mirror

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSheet(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestCommitAndHistory(t *testing.T) {
	dir := t.TempDir()
	svc, err := New(dir, "turnover-api")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	writeSheet(t, dir, "work_orders.csv", "WO,Title\n2002,Pump rebuild\n")
	if err := svc.Commit("work_orders.csv", "append work_orders row"); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	writeSheet(t, dir, "work_orders.csv", "WO,Title\n2002,Pump rebuild\n2010,Belt swap\n")
	if err := svc.Commit("work_orders.csv", "append work_orders row"); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	snapshots, err := svc.History(10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
	if snapshots[0].Author != "turnover-api" {
		t.Fatalf("author = %q", snapshots[0].Author)
	}
	if snapshots[0].Hash == snapshots[1].Hash {
		t.Fatal("snapshots share a hash")
	}
}

func TestCommitIdenticalBytesIsNoop(t *testing.T) {
	dir := t.TempDir()
	svc, err := New(dir, "turnover-api")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	writeSheet(t, dir, "requests.csv", "RFM,Title\n7,Need gaskets\n")
	if err := svc.Commit("requests.csv", "append requests row"); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := svc.Commit("requests.csv", "append requests row"); err != nil {
		t.Fatalf("Commit() with no changes: error = %v", err)
	}

	snapshots, err := svc.History(10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}
}

func TestHistoryEmptyRepo(t *testing.T) {
	svc, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	snapshots, err := svc.History(10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(snapshots) != 0 {
		t.Fatalf("expected no snapshots, got %d", len(snapshots))
	}
}

func TestHistoryRespectsLimit(t *testing.T) {
	dir := t.TempDir()
	svc, err := New(dir, "turnover-api")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		writeSheet(t, dir, "work_orders.csv", "WO,Title\n"+string(rune('a'+i))+"\n")
		if err := svc.Commit("work_orders.csv", "append work_orders row"); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
	}

	snapshots, err := svc.History(2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
}
