package search

import (
	"context"
	"errors"
	"testing"
)

type fakeLoader struct {
	records []Record
	err     error
}

func (f *fakeLoader) SearchRecords(ctx context.Context, log string) ([]Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	if log == "" {
		return f.records, nil
	}
	out := make([]Record, 0)
	for _, r := range f.records {
		if r.Log == log {
			out = append(out, r)
		}
	}
	return out, nil
}

func testRecords() []Record {
	return []Record{
		{ID: "wo-1", Log: "wo", Key: "2002", Title: "Pump rebuild", Body: "seals replaced", Date: "2024-05-16"},
		{ID: "wo-2", Log: "wo", Key: "2010", Title: "Belt swap", Body: "waiting on PUMP coupling", Date: "2024-05-17"},
		{ID: "rfm-1", Log: "rfm", Key: "7", Title: "Need gaskets", Body: "for the acid line", Date: "2024-05-17"},
	}
}

func TestScanMatchesTitleAndBodyCaseInsensitive(t *testing.T) {
	scan := NewScan(&fakeLoader{records: testRecords()})

	results, total, err := scan.Search(context.Background(), Query{Text: "pump"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 2 || len(results) != 2 {
		t.Fatalf("got %d results (total %d), want 2", len(results), total)
	}
	if results[0].ID != "wo-1" || results[1].ID != "wo-2" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[0].Snippet != "seals replaced" {
		t.Fatalf("snippet = %q", results[0].Snippet)
	}
}

func TestScanFiltersByLogAndDate(t *testing.T) {
	scan := NewScan(&fakeLoader{records: testRecords()})

	results, total, err := scan.Search(context.Background(), Query{Log: "wo", Date: "2024-05-17"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 1 || len(results) != 1 || results[0].ID != "wo-2" {
		t.Fatalf("unexpected results: %+v (total %d)", results, total)
	}
}

func TestScanEmptyTextReturnsEverything(t *testing.T) {
	scan := NewScan(&fakeLoader{records: testRecords()})

	_, total, err := scan.Search(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
}

func TestScanPagination(t *testing.T) {
	scan := NewScan(&fakeLoader{records: testRecords()})

	results, total, err := scan.Search(context.Background(), Query{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if len(results) != 1 || results[0].ID != "wo-2" {
		t.Fatalf("unexpected page: %+v", results)
	}

	results, total, err = scan.Search(context.Background(), Query{Offset: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 3 || len(results) != 0 {
		t.Fatalf("offset past end: got %d results (total %d)", len(results), total)
	}
}

func TestScanPropagatesLoaderError(t *testing.T) {
	boom := errors.New("sheet offline")
	scan := NewScan(&fakeLoader{err: boom})

	if _, _, err := scan.Search(context.Background(), Query{Text: "pump"}); !errors.Is(err, boom) {
		t.Fatalf("Search() error = %v, want %v", err, boom)
	}
}
