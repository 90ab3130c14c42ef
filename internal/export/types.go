// Package export renders turnover sheets as copyable text, HTML, and PDF.
package export

import "errors"

// Format represents the export output format
type Format string

const (
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
)

// Item is one entity line on the rendered sheet, already resolved to its
// latest state.
type Item struct {
	Key      string
	Title    string
	Body     string
	Date     string
	Status   string
	Location string
}

// Request contains parameters for an export operation
type Request struct {
	Log    string // "wo" or "rfm"
	Date   string // YYYY-MM-DD heading for the sheet
	Format Format
	Items  []Item
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrUnsupportedFormat indicates the requested output format is not known.
	ErrUnsupportedFormat = errors.New("export format unsupported")
)
