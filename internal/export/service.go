package export

import (
	"fmt"
	"strings"
)

// Service renders turnover sheets in the requested format.
type Service struct{}

// NewService creates a new export service
func NewService() *Service {
	return &Service{}
}

// Export generates an export in the requested format.
func (s *Service) Export(req Request) (*Result, error) {
	title := sheetTitle(req.Log, req.Date)

	switch req.Format {
	case FormatText:
		text := RenderText(req)
		return &Result{
			Data:     []byte(text),
			Filename: sanitizeFilename(title) + ".txt",
			MimeType: "text/plain; charset=utf-8",
		}, nil
	case FormatPDF:
		html, err := RenderSheetHTML(req)
		if err != nil {
			return nil, fmt.Errorf("render template: %w", err)
		}
		return exportPDF(html, title)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}
}

// RenderText produces the copyable bullet list, one line per entity:
//
//	# 2024-05-17
//	- WO2002 — Pump rebuild | Seals replaced, waiting on alignment check
func RenderText(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", req.Date)
	prefix := keyPrefix(req.Log)
	for _, item := range req.Items {
		fmt.Fprintf(&b, "- %s%s — %s | %s\n", prefix, item.Key, item.Title, item.Body)
	}
	return b.String()
}

func keyPrefix(log string) string {
	if log == "rfm" {
		return "RFM"
	}
	return "WO"
}

func sheetTitle(log, date string) string {
	name := "Work Orders"
	if log == "rfm" {
		name = "Requests"
	}
	return fmt.Sprintf("Turnover %s %s", name, date)
}
