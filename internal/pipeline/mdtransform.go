package pipeline

import (
	"context"
	"regexp"
	"strings"
)

// Highlight placeholders use Unicode Private Use Area characters.
// They pass through goldmark unchanged (no WithUnsafe needed) and are turned
// into <mark> tags after HTML generation.
const (
	MarkStartPlaceholder = "\uE000"
	MarkEndPlaceholder   = "\uE001"
)

var (
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Highlight syntax ==text==, never spanning lines.
	highlightPattern = regexp.MustCompile(`==([^=\n]+?)==`)

	fenceOpen = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")
)

// MarkdownPreprocessor defines the contract for markdown preprocessing.
// Implementations must keep the number of lines unchanged, since block
// line ranges are computed on the preprocessed text.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) string
}

// CommonMarkPreprocessor applies line-preserving transformations before
// conversion.
type CommonMarkPreprocessor struct{}

// PreprocessMarkdown converts ==highlight== syntax outside fenced code.
// Line endings are expected to be normalized already.
func (p *CommonMarkPreprocessor) PreprocessMarkdown(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}
	return convertHighlights(content)
}

// NormalizeLineEndings converts \r\n and \r to \n. The line count is
// unchanged.
func NormalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// convertHighlights transforms ==text== to placeholder markers, leaving
// fenced code untouched.
func convertHighlights(content string) string {
	if !strings.Contains(content, "==") {
		return content
	}

	lines := strings.Split(content, "\n")
	fence := ""
	for i, line := range lines {
		if m := fenceOpen.FindStringSubmatch(line); m != nil {
			switch {
			case fence == "":
				fence = m[1]
				continue
			case m[1][0] == fence[0] && len(m[1]) >= len(fence) && strings.TrimSpace(line) == m[1]:
				fence = ""
				continue
			}
		}
		if fence != "" {
			continue
		}
		lines[i] = highlightPattern.ReplaceAllString(line, MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
	}
	return strings.Join(lines, "\n")
}

// ConvertMarkPlaceholders converts placeholder markers to <mark> tags.
func ConvertMarkPlaceholders(content string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(content, MarkStartPlaceholder, "<mark>"),
		MarkEndPlaceholder, "</mark>",
	)
}
