package search

import (
	"context"
	"strings"
)

// Scan is the dependency-free fallback. It does a case-insensitive
// substring match over title and body of the resolved records.
type Scan struct {
	loader Loader
}

func NewScan(loader Loader) *Scan {
	return &Scan{loader: loader}
}

func (s *Scan) Search(ctx context.Context, q Query) ([]Result, int, error) {
	records, err := s.loader.SearchRecords(ctx, q.Log)
	if err != nil {
		return nil, 0, err
	}

	needle := strings.ToLower(strings.TrimSpace(q.Text))
	matched := make([]Result, 0)
	for _, record := range records {
		if q.Date != "" && record.Date != q.Date {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(record.Title), needle) &&
			!strings.Contains(strings.ToLower(record.Body), needle) {
			continue
		}
		matched = append(matched, Result{Record: record, Snippet: record.Body})
	}

	total := len(matched)
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}
	if q.Offset >= len(matched) {
		return []Result{}, total, nil
	}
	matched = matched[q.Offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}
