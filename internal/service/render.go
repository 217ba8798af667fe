package service

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// BodyRenderer converts user-submitted content bodies to safe HTML for
// display: markdown rendering followed by sanitization.
type BodyRenderer struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewBodyRenderer creates a BodyRenderer with the default markdown engine
// and the UGC sanitization policy.
func NewBodyRenderer() *BodyRenderer {
	return &BodyRenderer{
		md:        goldmark.New(),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Render converts a stored body to sanitized HTML. A markdown conversion
// failure falls back to the escaped plain text rather than surfacing an
// error to the page.
func (r *BodyRenderer) Render(body string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(body))
	}
	return template.HTML(r.sanitizer.SanitizeBytes(buf.Bytes()))
}
