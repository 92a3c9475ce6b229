package render

import (
	"html/template"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Page carries everything the page shell can show. Text must already be
// escaped with EscapeText; it is inserted verbatim inside the code block.
type Page struct {
	URL          string // submitted URL, echoed into the form
	Error        string
	Text         template.HTML
	ImageSrc     string
	FinalURL     string
	StatusCode   int
	ContentType  string
	DetectedType string
	Size         int64
	HasResult    bool
}

// Renderer renders the page shell.
type Renderer struct {
	tmpl      *template.Template
	sanitizer *bluemonday.Policy
}

// New parses the page template.
func New() (*Renderer, error) {
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		tmpl:      tmpl,
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

// Render writes the page for p.
func (r *Renderer) Render(w io.Writer, p Page) error {
	return r.tmpl.Execute(w, p)
}

// SanitizeLabel strips any markup from an attacker-controlled string (an
// upstream-declared content type, an error detail) before it is shown.
func (r *Renderer) SanitizeLabel(s string) string {
	return strings.TrimSpace(r.sanitizer.Sanitize(s))
}

// EscapeText HTML-escapes text content for embedding in markup. The
// ampersand is replaced first so entities produced by the other two
// substitutions are never double-escaped, while pre-existing entities in the
// input are escaped literally.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
