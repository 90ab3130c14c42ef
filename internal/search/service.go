package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to a
// linear scan over the sheet rows.
type Service struct {
	meili  *Meili
	scan   *Scan
	loader Loader
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, loader Loader) *Service {
	return &Service{meili: meili, scan: NewScan(loader), loader: loader}
}

// Search tries Meilisearch if healthy, otherwise falls back to scanning.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to scan: %v", err)
	}

	results, total, err := s.scan.Search(ctx, q)
	if err != nil {
		log.Printf("search: scan error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexRecord indexes one log entry (fire-and-forget to Meilisearch).
func (s *Service) IndexRecord(record Record) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexRecord(record); err != nil {
			log.Printf("search: index entry %s: %v", record.ID, err)
		}
	}()
}

// ReindexAll reads every entry from the sheets and pushes them to Meilisearch.
// Called at startup when Meilisearch is healthy.
func (s *Service) ReindexAll(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	records, err := s.loader.SearchRecords(ctx, "")
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}
	if err := s.meili.IndexRecords(records); err != nil {
		log.Printf("search: reindex entries: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
