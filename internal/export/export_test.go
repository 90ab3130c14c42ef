package export

import (
	"errors"
	"strings"
	"testing"
)

func testRequest() Request {
	return Request{
		Log:    "wo",
		Date:   "2024-05-17",
		Format: FormatText,
		Items: []Item{
			{Key: "2002", Title: "Pump rebuild", Body: "Seals replaced", Status: "WIP", Location: "WCG"},
			{Key: "2010", Title: "Belt swap", Body: "Parts on order", Status: "WMATL", Location: "Shop"},
		},
	}
}

func TestRenderText(t *testing.T) {
	got := RenderText(testRequest())
	want := "# 2024-05-17\n" +
		"- WO2002 — Pump rebuild | Seals replaced\n" +
		"- WO2010 — Belt swap | Parts on order\n"
	if got != want {
		t.Fatalf("RenderText() = %q, want %q", got, want)
	}
}

func TestRenderTextRequestPrefix(t *testing.T) {
	req := testRequest()
	req.Log = "rfm"
	got := RenderText(req)
	if !strings.Contains(got, "- RFM2002 — ") {
		t.Fatalf("expected RFM prefix, got %q", got)
	}
}

func TestExportTextResult(t *testing.T) {
	svc := NewService()
	res, err := svc.Export(testRequest())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Filename != "Turnover-Work-Orders-2024-05-17.txt" {
		t.Fatalf("filename = %q", res.Filename)
	}
	if res.MimeType != "text/plain; charset=utf-8" {
		t.Fatalf("mime = %q", res.MimeType)
	}
	if !strings.HasPrefix(string(res.Data), "# 2024-05-17\n") {
		t.Fatalf("data = %q", res.Data)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	svc := NewService()
	req := testRequest()
	req.Format = Format("docx")
	if _, err := svc.Export(req); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Export() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRenderSheetHTML(t *testing.T) {
	html, err := RenderSheetHTML(testRequest())
	if err != nil {
		t.Fatalf("RenderSheetHTML() error = %v", err)
	}
	for _, want := range []string{"WO2002", "Pump rebuild", "WMATL", "Shop"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered sheet missing %q:\n%s", want, html)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Turnover Work Orders 2024-05-17": "Turnover-Work-Orders-2024-05-17",
		"a/b\\c":                          "abc",
		"":                                "turnover",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
