package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// rewrittenAttrs lists, per element, the attributes holding a resource path.
// The page is loaded from memory, so relative paths would otherwise resolve
// against about:blank.
var rewrittenAttrs = map[atom.Atom]string{
	atom.Img:    "src",
	atom.A:      "href",
	atom.Video:  "src",
	atom.Audio:  "src",
	atom.Source: "src",
}

// RewriteRelativePaths converts relative resource paths in an HTML fragment
// to absolute file:// URLs under sourceDir. Paths escaping sourceDir, URLs,
// anchors and absolute paths are left unchanged. An empty sourceDir returns
// the fragment unchanged.
func RewriteRelativePaths(fragment, sourceDir string) (string, error) {
	if sourceDir == "" {
		return fragment, nil
	}

	absSourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", err
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, n := range nodes {
		rewriteNode(n, absSourceDir)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func rewriteNode(n *html.Node, sourceDir string) {
	if n.Type == html.ElementNode {
		if key, ok := rewrittenAttrs[n.DataAtom]; ok {
			rewriteAttr(n, key, sourceDir)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, sourceDir)
	}
}

func rewriteAttr(n *html.Node, key, sourceDir string) {
	for i, attr := range n.Attr {
		if attr.Key != key || !isRelativePath(attr.Val) {
			continue
		}

		path, fragment, _ := strings.Cut(attr.Val, "#")
		absPath := filepath.Join(sourceDir, filepath.FromSlash(path))
		if !isPathUnderDir(absPath, sourceDir) {
			continue
		}

		u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath), Fragment: fragment}
		n.Attr[i].Val = u.String()
	}
}

// isRelativePath reports whether path is a relative filesystem path.
func isRelativePath(path string) bool {
	if path == "" || strings.HasPrefix(path, "#") || strings.HasPrefix(path, "//") {
		return false
	}
	if u, err := url.Parse(path); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return false // http:, https:, file:, data:, mailto: ...
	}
	return !filepath.IsAbs(path) && !strings.HasPrefix(path, "/")
}

// isPathUnderDir reports whether absPath lies inside dir.
func isPathUnderDir(absPath, dir string) bool {
	cleanDir := filepath.Clean(dir)
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(filepath.Clean(absPath)+string(filepath.Separator), cleanDir)
}
