package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrPageRender indicates the page template failed to execute.
var ErrPageRender = errors.New("page template rendering failed")

// PageData fills the page template.
type PageData struct {
	Title string
	CSS   string
	Body  string
	// Mode is "window" or "container"; it selects which element scrolls.
	Mode string
}

// PageAssembler wraps a rendered fragment into a standalone document.
type PageAssembler interface {
	AssemblePage(ctx context.Context, data *PageData) (string, error)
}

// PageTemplate assembles pages from an html/template.
type PageTemplate struct {
	tmpl *template.Template
}

// NewPageTemplate parses tmplContent. The template sees Title, CSS, Body and
// Mode; CSS and Body are inserted without escaping.
func NewPageTemplate(tmplContent string) (*PageTemplate, error) {
	tmpl, err := template.New("page").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &PageTemplate{tmpl: tmpl}, nil
}

// AssemblePage executes the template.
func (p *PageTemplate) AssemblePage(ctx context.Context, data *PageData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mode := data.Mode
	if mode != "window" {
		mode = "container"
	}

	view := struct {
		Title string
		CSS   template.CSS
		Body  template.HTML
		Mode  string
	}{
		Title: data.Title,
		CSS:   template.CSS(sanitizeCSS(data.CSS)), // #nosec G203 -- sanitized, from trusted styles
		Body:  template.HTML(data.Body),            // #nosec G203 -- goldmark output without WithUnsafe
		Mode:  mode,
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return buf.String(), nil
}

// sanitizeCSS escapes sequences that could close the <style> element.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
