// Package search finds turnover entries by title and body text. Meilisearch
// serves queries when it is reachable; otherwise a plain scan over the
// loaded tables answers, so search keeps working with zero infrastructure.
package search

import "context"

// Record is one indexed entry row.
type Record struct {
	ID       string `json:"id"`
	Log      string `json:"log"` // "wo" or "rfm"
	Key      string `json:"key"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Date     string `json:"date"`
	Status   string `json:"status"`
	Location string `json:"location"`
}

type Query struct {
	Text   string
	Log    string // restrict to one log; empty searches both
	Date   string // restrict to one working date; empty searches all
	Limit  int
	Offset int
}

type Result struct {
	Record
	Snippet string `json:"snippet"`
}

type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Loader supplies the full row set for the scan fallback and reindexing.
type Loader interface {
	SearchRecords(ctx context.Context, log string) ([]Record, error)
}
