package mdview

import (
	"math"
	"slices"
	"sort"
)

// SourceMap resolves source lines to rendered blocks and back.
//
// Block i covers the lines [StartLine_i, StartLine_i+1). The last block
// covers [StartLine, EndLine). Lines above the first block resolve to the
// top of the first block; lines at or past the end of the last block do not
// resolve, which is how a streamed document reports content that has not
// been rendered yet.
type SourceMap struct {
	blocks []Block
	index  map[string]int
}

var _ LineMapper = (*SourceMap)(nil)

// NewSourceMap builds a map over blocks in document order. Start lines that
// go backwards are raised to the previous start so the map stays monotonic.
func NewSourceMap(blocks []Block) *SourceMap {
	m := &SourceMap{
		blocks: slices.Clone(blocks),
		index:  make(map[string]int, len(blocks)),
	}
	for i := range m.blocks {
		if i > 0 && m.blocks[i].StartLine < m.blocks[i-1].StartLine {
			m.blocks[i].StartLine = m.blocks[i-1].StartLine
		}
		m.index[m.blocks[i].ID] = i
	}
	return m
}

// Len returns the number of blocks.
func (m *SourceMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.blocks)
}

// Blocks returns a copy of the mapped blocks.
func (m *SourceMap) Blocks() []Block {
	if m == nil {
		return nil
	}
	return slices.Clone(m.blocks)
}

// EndLine returns the first line past the last block, or 0 for an empty map.
func (m *SourceMap) EndLine() int {
	if m.Len() == 0 {
		return 0
	}
	_, end := m.span(len(m.blocks) - 1)
	return end
}

// BlockAt returns the block covering line.
func (m *SourceMap) BlockAt(line int) (Block, bool) {
	i, ok := m.find(line)
	if !ok {
		return Block{}, false
	}
	return m.blocks[i], true
}

// LineFromBlock implements LineMapper.
func (m *SourceMap) LineFromBlock(blockID string, progress float64) (int, bool) {
	if m == nil {
		return 0, false
	}
	i, ok := m.index[blockID]
	if !ok {
		return 0, false
	}

	start, end := m.span(i)
	line := int(math.Round(float64(start) + clampProgress(progress)*float64(end-start)))
	if i == len(m.blocks)-1 {
		line = min(line, end-1)
	}
	return line, true
}

// PositionFromLine implements LineMapper.
func (m *SourceMap) PositionFromLine(line int) (ScrollPosition, bool) {
	i, ok := m.find(line)
	if !ok {
		return ScrollPosition{}, false
	}

	start, end := m.span(i)
	progress := 0.0
	if line > start {
		progress = clampProgress(float64(line-start) / float64(end-start))
	}
	return ScrollPosition{BlockID: m.blocks[i].ID, Progress: progress}, true
}

// find returns the index of the block covering line.
func (m *SourceMap) find(line int) (int, bool) {
	if m.Len() == 0 {
		return 0, false
	}
	if line <= m.blocks[0].StartLine {
		return 0, true
	}

	i := sort.Search(len(m.blocks), func(i int) bool { return m.blocks[i].StartLine > line }) - 1
	if i == len(m.blocks)-1 {
		if _, end := m.span(i); line >= end {
			return 0, false
		}
	}
	return i, true
}

// span returns the half-open line range of block i. It is never empty.
func (m *SourceMap) span(i int) (start, end int) {
	start = m.blocks[i].StartLine
	if i+1 < len(m.blocks) {
		end = m.blocks[i+1].StartLine
	} else {
		end = m.blocks[i].EndLine
	}
	return start, max(end, start+1)
}
