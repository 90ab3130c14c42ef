package export

import (
	"bytes"
	"html/template"
	"strings"
)

var sheetTemplate = template.Must(template.New("sheet").Funcs(template.FuncMap{
	"lower": strings.ToLower,
	"keyPrefix": func(log string) string {
		return keyPrefix(log)
	},
}).Parse(sheetTemplateText))

// RenderSheetHTML renders the printable turnover sheet.
func RenderSheetHTML(req Request) (string, error) {
	var buf bytes.Buffer
	if err := sheetTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const sheetTemplateText = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Turnover {{.Date}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.5; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    table { width: 100%; border-collapse: collapse; margin-top: 1rem; }
    th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #ccc; vertical-align: top; }
    th { background: #f5f5f5; }
    .key { white-space: nowrap; font-weight: bold; }
    .status { white-space: nowrap; }
  </style>
</head>
<body>
  <h1>Turnover {{.Date}}</h1>
  <table>
    <tr><th>Key</th><th>Title</th><th>Notes</th><th>Status</th><th>Location</th></tr>
    {{$prefix := keyPrefix .Log}}
    {{range .Items}}
    <tr>
      <td class="key">{{$prefix}}{{.Key}}</td>
      <td>{{.Title}}</td>
      <td>{{.Body}}</td>
      <td class="status">{{.Status}}</td>
      <td>{{.Location}}</td>
    </tr>
    {{end}}
  </table>
</body>
</html>`
