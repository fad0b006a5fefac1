package pipeline

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	fast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Block is the source range of one top-level rendered block.
// Lines are 0-based; EndLine is exclusive.
type Block struct {
	ID        string
	Kind      string
	StartLine int
	EndLine   int
}

// Block wrapper attributes. The viewer queries blocks with
// "[data-block-id]" in document order.
const (
	AttrBlockID   = "data-block-id"
	AttrLineStart = "data-line-start"
	AttrLineEnd   = "data-line-end"
	BlockClass    = "md-block"
)

// blockTransformerPriority runs the wrapper after every other transformer
// so it sees the final top-level layout, including the footnote list
// appended at priority 999.
const blockTransformerPriority = 10000

var (
	lineOffsetKey = parser.NewContextKey()
	blocksKey     = parser.NewContextKey()
)

// KindSourceBlock is the node kind of block wrappers.
var KindSourceBlock = ast.NewNodeKind("SourceBlock")

// SourceBlock wraps one top-level block and records its source range.
type SourceBlock struct {
	ast.BaseBlock
	Block
}

// Kind implements ast.Node.
func (n *SourceBlock) Kind() ast.NodeKind {
	return KindSourceBlock
}

// Dump implements ast.Node.
func (n *SourceBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"ID":        n.ID,
		"Kind":      n.Block.Kind,
		"StartLine": strconv.Itoa(n.StartLine),
		"EndLine":   strconv.Itoa(n.EndLine),
	}, nil)
}

// blockTransformer wraps every top-level node of the document in a
// SourceBlock.
type blockTransformer struct{}

func (t *blockTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	lines := newLineIndex(source)

	offset := 0
	if v, ok := pc.Get(lineOffsetKey).(int); ok {
		offset = v
	}

	var blocks []Block
	prevEnd := 0
	for child := doc.FirstChild(); child != nil; {
		next := child.NextSibling()

		var start, end int
		if child.Kind() == fast.KindFootnoteList {
			start, end = footnoteSpan(child, source, lines, prevEnd)
		} else {
			start, end = blockSpan(child, source, lines, prevEnd)
		}
		prevEnd = end

		wrapper := &SourceBlock{Block: Block{
			ID:        "b" + strconv.Itoa(len(blocks)),
			Kind:      child.Kind().String(),
			StartLine: start + offset,
			EndLine:   end + offset,
		}}
		doc.ReplaceChild(doc, child, wrapper)
		wrapper.AppendChild(wrapper, child)
		blocks = append(blocks, wrapper.Block)

		child = next
	}

	pc.Set(blocksKey, blocks)
}

// blockSpan returns the [start, end) line range of a top-level node.
// prevEnd is the end line of the previous block.
func blockSpan(n ast.Node, source []byte, lines lineIndex, prevEnd int) (int, int) {
	first := lines.firstNonBlank(source, prevEnd)

	lo, hi, ok := segmentBounds(n)
	if !ok {
		// Thematic breaks and empty fences carry no segments.
		end := first + 1
		if _, isFence := n.(*ast.FencedCodeBlock); isFence {
			end = lines.closingFence(source, first+1)
		}
		return first, max(end, first+1)
	}

	start := lines.lineOf(lo)
	if first < start {
		start = first
	}
	end := lines.lineOf(hi-1) + 1
	switch n.(type) {
	case *ast.FencedCodeBlock:
		end = lines.closingFence(source, end)
	case *ast.Heading:
		end = lines.setextUnderline(source, start, end)
	}
	return start, max(end, start+1)
}

// footnoteSpan returns the line range of the footnote list, which goldmark
// appends after the last block. Definitions written above prevEnd already
// belong to the blocks that follow them, so the range starts at prevEnd at
// the earliest.
func footnoteSpan(n ast.Node, source []byte, lines lineIndex, prevEnd int) (int, int) {
	lo, hi, ok := segmentBounds(n)
	if !ok {
		first := lines.firstNonBlank(source, prevEnd)
		return first, first + 1
	}
	start := max(lines.lineOf(lo), prevEnd)
	return start, max(lines.lineOf(hi-1)+1, start+1)
}

// segmentBounds returns the lowest start and highest stop byte offsets of
// the segments under n.
func segmentBounds(n ast.Node) (lo, hi int, ok bool) {
	lo, hi = -1, -1
	widen := func(seg text.Segment) {
		if seg.Stop <= seg.Start {
			return
		}
		if lo < 0 || seg.Start < lo {
			lo = seg.Start
		}
		if seg.Stop > hi {
			hi = seg.Stop
		}
	}

	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			widen(v.Segment)
		case *ast.RawHTML:
			for i := 0; i < v.Segments.Len(); i++ {
				widen(v.Segments.At(i))
			}
		default:
			if c.Type() == ast.TypeBlock {
				segs := c.Lines()
				for i := 0; i < segs.Len(); i++ {
					widen(segs.At(i))
				}
			}
		}
		return ast.WalkContinue, nil
	})

	return lo, hi, lo >= 0
}

// lineIndex maps byte offsets to 0-based line numbers.
type lineIndex []int

func newLineIndex(source []byte) lineIndex {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' && i+1 < len(source) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (l lineIndex) lineOf(offset int) int {
	return sort.Search(len(l), func(i int) bool { return l[i] > offset }) - 1
}

func (l lineIndex) line(source []byte, i int) []byte {
	if i < 0 || i >= len(l) {
		return nil
	}
	end := len(source)
	if i+1 < len(l) {
		end = l[i+1]
	}
	return source[l[i]:end]
}

// firstNonBlank returns the first line at or after from with content.
func (l lineIndex) firstNonBlank(source []byte, from int) int {
	for i := from; i < len(l); i++ {
		if len(bytes.TrimSpace(l.line(source, i))) > 0 {
			return i
		}
	}
	return min(from, max(0, len(l)-1))
}

// closingFence returns the line after the closing fence of a fenced code
// block whose content ends before line from, or from when the fence was
// left open.
func (l lineIndex) closingFence(source []byte, from int) int {
	line := bytes.TrimSpace(l.line(source, from))
	if len(line) >= 3 && (bytes.HasPrefix(line, []byte("```")) || bytes.HasPrefix(line, []byte("~~~"))) {
		return from + 1
	}
	return from
}

// setextUnderline returns the line after the underline of a setext heading
// spanning [start, end), or end for ATX headings.
func (l lineIndex) setextUnderline(source []byte, start, end int) int {
	if bytes.HasPrefix(bytes.TrimSpace(l.line(source, start)), []byte("#")) {
		return end
	}
	line := bytes.TrimSpace(l.line(source, end))
	if len(line) > 0 && (len(bytes.Trim(line, "=")) == 0 || len(bytes.Trim(line, "-")) == 0) {
		return end + 1
	}
	return end
}

// blockRenderer writes SourceBlock wrappers.
type blockRenderer struct{}

func (r *blockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindSourceBlock, r.renderSourceBlock)
}

func (r *blockRenderer) renderSourceBlock(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</div>\n")
		return ast.WalkContinue, nil
	}
	b := n.(*SourceBlock)
	_, _ = fmt.Fprintf(w, `<div class="%s" %s="%s" %s="%d" %s="%d">`+"\n",
		BlockClass, AttrBlockID, b.ID, AttrLineStart, b.StartLine, AttrLineEnd, b.EndLine)
	return ast.WalkContinue, nil
}

// newBlockExtension registers the wrapper transformer and renderer.
func newBlockExtension() *blockExtension {
	return &blockExtension{}
}

type blockExtension struct{}

func (e *blockExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&blockTransformer{}, blockTransformerPriority),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&blockRenderer{}, 100),
	))
}
