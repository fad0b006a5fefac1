package pipeline

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"

	"github.com/alnah/go-mdview/internal/yamlutil"
)

// FrontMatter is the metadata block found at the top of a document.
type FrontMatter struct {
	// Meta holds the decoded keys. Nil when the document has none.
	Meta map[string]any
	// Lines is the number of source lines the block occupies, delimiters
	// and leading blank lines included.
	Lines int
}

// Title returns the "title" key when it is a non-empty string.
func (f FrontMatter) Title() string {
	if s, ok := f.Meta["title"].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// frontMatterFormats accepts YAML (---) and TOML (+++) blocks. JSON front
// matter is left out: a leading "{" line is more often content.
var frontMatterFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yamlutil.UnmarshalOptional),
	frontmatter.NewFormat("---yaml", "---", yamlutil.UnmarshalOptional),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

// SplitFrontMatter separates front matter from the Markdown body.
// content must already have normalized line endings. A block that does not
// decode is treated as regular Markdown (a leading "---" is also a thematic
// break), so the error is returned alongside the untouched content.
func SplitFrontMatter(content string) (body string, fm FrontMatter, err error) {
	if !strings.HasPrefix(strings.TrimLeft(content, " \t\n"), "---") &&
		!strings.HasPrefix(strings.TrimLeft(content, " \t\n"), "+++") {
		return content, FrontMatter{}, nil
	}

	var meta map[string]any
	rest, parseErr := frontmatter.Parse(strings.NewReader(content), &meta, frontMatterFormats...)
	if parseErr != nil {
		return content, FrontMatter{}, fmt.Errorf("front matter: %w", parseErr)
	}
	if len(rest) == len(content) {
		return content, FrontMatter{}, nil
	}

	lines := strings.Count(content, "\n") - bytes.Count(rest, []byte("\n"))
	return string(rest), FrontMatter{Meta: meta, Lines: lines}, nil
}
