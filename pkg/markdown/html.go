package markdown

import (
	"bytes"
	"html/template"
)

var htmlTemplate = template.Must(template.New("blocks").Parse(`
{{- define "spans"}}{{range .}}
{{- if eq .Kind "code"}}<code>{{.Text}}</code>
{{- else if eq .Kind "math"}}<span class="math">{{.Text}}</span>
{{- else if eq .Kind "bold"}}<strong>{{.Text}}</strong>
{{- else if eq .Kind "italic"}}<em>{{.Text}}</em>
{{- else}}{{.Text}}{{end}}
{{- end}}{{end -}}

{{- range .}}
{{- if eq .Kind "break"}}<br>
{{- else if eq .Kind "heading"}}
{{- if eq .Level 1}}<h1>{{template "spans" .Spans}}</h1>
{{- else if eq .Level 2}}<h2>{{template "spans" .Spans}}</h2>
{{- else}}<h3>{{template "spans" .Spans}}</h3>{{end}}
{{- else if eq .Kind "code"}}<pre><code{{if .Language}} data-language="{{.Language}}"{{end}}>{{.Code}}</code></pre>
{{- else if eq .Kind "blockquote"}}<blockquote><p>{{template "spans" .Spans}}</p></blockquote>
{{- else if eq .Kind "bullet_list"}}<ul>{{range .Items}}<li>{{template "spans" .}}</li>{{end}}</ul>
{{- else if eq .Kind "numbered_list"}}<ol>{{range .Items}}<li>{{template "spans" .}}</li>{{end}}</ol>
{{- else}}<p>{{template "spans" .Spans}}</p>{{end}}
{{- end}}`))

// RenderHTML writes blocks as escaped HTML fragments.
func RenderHTML(blocks []Block) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, blocks); err != nil {
		return "", err
	}
	return buf.String(), nil
}
