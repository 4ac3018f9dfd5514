// Package alerting renders health check results into an HTML report and
// delivers it through configured notification services.
package alerting

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/plantwatch/plantwatch-go/internal/anomaly"
	"github.com/plantwatch/plantwatch-go/internal/errors"
)

const reportTemplate = `<h2>Plant health check — {{.GeneratedAt}}</h2>
<p>Recipients: {{.Recipients}}</p>
{{if .Missing}}<p><strong>Plants with no reading in the last {{.Window}}:</strong> {{.Missing}}</p>
{{else}}<p>All expected plants reported within the last {{.Window}}.</p>
{{end}}<h3>Soil moisture</h3>
{{if .SoilMoisture}}<table border="1">
<tr><th>Plant</th><th>Taken</th><th>Value</th><th>Mean</th><th>Std dev</th></tr>
{{range .SoilMoisture}}<tr><td>{{.PlantID}}</td><td>{{.Taken}}</td><td>{{.Value}}</td><td>{{.Mean}}</td><td>{{.StdDev}}</td></tr>
{{end}}</table>
{{else}}<p>No soil moisture anomalies found.</p>
{{end}}<h3>Temperature</h3>
{{if .Temperature}}<table border="1">
<tr><th>Plant</th><th>Taken</th><th>Value</th><th>Mean</th><th>Std dev</th></tr>
{{range .Temperature}}<tr><td>{{.PlantID}}</td><td>{{.Taken}}</td><td>{{.Value}}</td><td>{{.Mean}}</td><td>{{.StdDev}}</td></tr>
{{end}}</table>
{{else}}<p>No temperature anomalies found.</p>
{{end}}`

var reportTmpl = template.Must(template.New("report").Parse(reportTemplate))

type reportRow struct {
	PlantID int
	Taken   string
	Value   string
	Mean    string
	StdDev  string
}

type reportData struct {
	GeneratedAt  string
	Recipients   string
	Window       string
	Missing      string
	SoilMoisture []reportRow
	Temperature  []reportRow
}

// RenderReport produces the HTML report body for a health check result.
func RenderReport(result anomaly.Result, recipients []string, window time.Duration, generatedAt time.Time) (string, error) {
	data := reportData{
		GeneratedAt:  generatedAt.UTC().Format("2006-01-02 15:04 MST"),
		Recipients:   strings.Join(recipients, ", "),
		Window:       window.String(),
		Missing:      joinIDs(result.Missing),
		SoilMoisture: toRows(result.SoilMoisture),
		Temperature:  toRows(result.Temperature),
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return "", errors.New(err).
			Component("alerting").
			Category(errors.CategoryGeneric).
			Build()
	}
	return buf.String(), nil
}

func toRows(outliers []anomaly.Outlier) []reportRow {
	rows := make([]reportRow, 0, len(outliers))
	for _, o := range outliers {
		rows = append(rows, reportRow{
			PlantID: o.PlantID,
			Taken:   o.Taken.UTC().Format("2006-01-02 15:04:05"),
			Value:   fmt.Sprintf("%.2f", o.Value),
			Mean:    fmt.Sprintf("%.2f", o.Mean),
			StdDev:  fmt.Sprintf("%.2f", o.StdDev),
		})
	}
	return rows
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
