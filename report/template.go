package report

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"text/template"

	"bmfapprox/search"
)

func NewTemplate(name, content string) *template.Template {
	return template.Must(template.New(name).Funcs(template.FuncMap{
		"area":    formatArea,
		"label":   checkpointLabel,
		"joinInt": joinInt,
	}).Parse(content))
}

func Render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatArea(a float64) string { return strconv.FormatFloat(a, 'f', 2, 64) }

// percent prints a threshold as a percentage, 0.05 as "5%".
func percent(th float64) string {
	return strconv.FormatFloat(th*100, 'g', 6, 64) + "%"
}

func checkpointLabel(cp search.Checkpoint) string {
	if cp.Label == search.RestLabel || math.IsInf(cp.Threshold, 0) {
		return cp.Label
	}
	return percent(cp.Threshold)
}

func joinInt(s []int, sep string) string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}

var resultTemplate = NewTemplate("result", `
{{- if .RunID }}Run {{ .RunID }}: {{ .Design }}, metric {{ .Metric }}
{{ end -}}
Original chip area {{ area .Baseline.Area }}
{{ range .Checkpoints -}}
{{ label . }} error metric chip area {{ area .Area }} ({{ .Design }}, k = [{{ joinInt .KStream " " }}], error {{ printf "%.6f" .Error }}, {{ .Reason }})
{{ end -}}
`)
