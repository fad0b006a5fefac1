package pipeline

import (
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightCSS returns the stylesheet for the chroma classes emitted in
// fenced code blocks. Unknown style names use chroma's fallback style.
func HighlightCSS(style string) (string, error) {
	var sb strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&sb, styles.Get(style)); err != nil {
		return "", fmt.Errorf("writing %s highlight CSS: %w", style, err)
	}
	return sb.String(), nil
}

// HighlightStyles lists the registered chroma style names.
func HighlightStyles() []string {
	return styles.Names()
}
