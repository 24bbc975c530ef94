package reporting

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed report.html.tmpl
var reportTemplate string

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"duration": formatDuration,
}).Parse(reportTemplate))

// WriteHTML renders the summary as a standalone HTML page.
func WriteHTML(w io.Writer, s *Summary) error {
	if err := htmlTemplate.Execute(w, s); err != nil {
		return fmt.Errorf("rendering html report: %w", err)
	}
	return nil
}
