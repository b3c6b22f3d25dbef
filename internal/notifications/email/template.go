package email

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
	"time"

	"outagealert/internal/notifications/core"
)

const htmlLayout = `<!DOCTYPE html>
<html lang="{{.Locale}}">
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="font-family:Arial,sans-serif;color:#222;max-width:600px;margin:0 auto">
  <h2 style="color:{{.Accent}}">{{.Subject}}</h2>
  <p>{{.Text}}</p>
  {{- if .Outage}}
  <table cellpadding="6" style="border-collapse:collapse">
    <tr><td><strong>{{.Labels.Area}}</strong></td><td>{{.Outage.Area}}</td></tr>
    <tr><td><strong>{{.Labels.Start}}</strong></td><td>{{.Outage.Start}}</td></tr>
    <tr><td><strong>{{.Labels.End}}</strong></td><td>{{.Outage.End}}</td></tr>
    <tr><td><strong>{{.Labels.Reason}}</strong></td><td>{{.Outage.Reason}}</td></tr>
    {{- if .Outage.Provider}}
    <tr><td><strong>{{.Labels.Provider}}</strong></td><td>{{.Outage.Provider}}</td></tr>
    {{- end}}
  </table>
  {{- end}}
  <p style="font-size:12px;color:#777">{{.Labels.Footer}}</p>
</body>
</html>
`

const textLayout = `{{.Subject}}

{{.Text}}
{{- if .Outage}}

{{.Labels.Area}}: {{.Outage.Area}}
{{.Labels.Start}}: {{.Outage.Start}}
{{.Labels.End}}: {{.Outage.End}}
{{.Labels.Reason}}: {{.Outage.Reason}}
{{- if .Outage.Provider}}
{{.Labels.Provider}}: {{.Outage.Provider}}
{{- end}}
{{- end}}

{{.Labels.Footer}}
`

// RenderedEmail holds the content ready for transmission.
type RenderedEmail struct {
	Subject  string
	BodyHTML string
	BodyText string
}

type labels struct {
	Area, Start, End, Reason, Provider, Footer string
}

type templateData struct {
	Locale  string
	Subject string
	Text    string
	Accent  string
	Outage  *core.OutageView
	Labels  labels
}

// Templates renders messages into email bodies.
type Templates struct {
	content *core.Renderer
	html    *template.Template
	text    *texttemplate.Template
}

// NewTemplates parses the layouts.
func NewTemplates(content *core.Renderer) (*Templates, error) {
	h, err := template.New("email.html").Parse(htmlLayout)
	if err != nil {
		return nil, fmt.Errorf("email: parse html layout: %w", err)
	}
	t, err := texttemplate.New("email.txt").Parse(textLayout)
	if err != nil {
		return nil, fmt.Errorf("email: parse text layout: %w", err)
	}
	return &Templates{content: content, html: h, text: t}, nil
}

var accents = map[string]string{
	"CANCEL":  "#2e7d32",
	"RESTORE": "#2e7d32",
	"ADVANCE": "#ef6c00",
}

// Render lays out msg. A non-test message without an outage is malformed.
func (t *Templates) Render(msg core.Message, now time.Time) (RenderedEmail, error) {
	if msg.Outage == nil && !msg.Test {
		return RenderedEmail{}, ErrMalformedMessage
	}

	cat := t.content.Catalogue()
	locale := cat.Locale(msg.Language)
	data := templateData{
		Locale:  locale,
		Subject: msg.Subject,
		Text:    msg.Text,
		Accent:  "#c62828",
		Labels: labels{
			Area:     cat.GetMessage("label.area", locale),
			Start:    cat.GetMessage("label.start", locale),
			End:      cat.GetMessage("label.end", locale),
			Reason:   cat.GetMessage("label.reason", locale),
			Provider: cat.GetMessage("label.provider", locale),
			Footer:   cat.GetMessage("label.footer", locale),
		},
	}
	if a, ok := accents[string(msg.Kind)]; ok {
		data.Accent = a
	}
	if msg.Outage != nil {
		v := t.content.View(msg.Outage, locale, now)
		data.Outage = &v
	}

	var hb, tb bytes.Buffer
	if err := t.html.Execute(&hb, data); err != nil {
		return RenderedEmail{}, fmt.Errorf("email: render html: %w", err)
	}
	if err := t.text.Execute(&tb, data); err != nil {
		return RenderedEmail{}, fmt.Errorf("email: render text: %w", err)
	}
	return RenderedEmail{Subject: msg.Subject, BodyHTML: hb.String(), BodyText: tb.String()}, nil
}
