package report

import (
	"bytes"
	"html/template"
	"io"
	"os"

	"github.com/TFMV/salesreport/metrics"
)

// -----------------------------
// HTML Summary Generator
// -----------------------------

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Sales Report Run</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f4f4f4; }
        .status-pass { color: green; }
        .status-fail { color: red; }
    </style>
</head>
<body>
    <h1>Sales Report Run</h1>
    <p><strong>Backend:</strong> {{.Backend}}</p>
    <p><strong>Age range:</strong> {{.AgeRange}}</p>
    <p><strong>Started:</strong> {{.StartTime}}</p>

    <h2>Realizations</h2>
    <table>
        <tr><th>Engine</th><th>Rows</th><th>Output</th><th>Duration</th><th>Status</th></tr>
        {{range .Engines}}
        <tr>
            <td>{{.Engine}}</td>
            <td>{{.Rows}}</td>
            <td>{{.Output}}</td>
            <td>{{.Duration}}</td>
            <td class="{{if .Error}}status-fail{{else}}status-pass{{end}}">{{if .Error}}{{.Error}}{{else}}OK{{end}}</td>
        </tr>
        {{end}}
    </table>

    <h2>Comparison</h2>
    {{with .Comparison}}
    <p class="{{if .Identical}}status-pass{{else}}status-fail{{end}}">
        {{if .Identical}}IDENTICAL{{else}}DIFFERENT: {{.Mismatch}}{{end}}
        ({{.Left}} {{.LeftCount}} rows, {{.Right}} {{.RightCount}} rows)
    </p>
    {{else}}
    <p>Not compared.</p>
    {{end}}
</body>
</html>
`

var summaryTemplate = template.Must(template.New("summary").Parse(htmlTemplate))

// RenderHTML writes run as an HTML page.
func RenderHTML(w io.Writer, run metrics.RunSummary) error {
	return summaryTemplate.Execute(w, run)
}

// SaveHTML renders run into filePath.
func SaveHTML(run metrics.RunSummary, filePath string) error {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, run); err != nil {
		return err
	}
	return os.WriteFile(filePath, buf.Bytes(), 0o644)
}
