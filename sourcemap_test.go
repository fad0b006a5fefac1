package mdview

import (
	"math"
	"testing"
)

func TestSourceMap_PositionFromLine(t *testing.T) {
	t.Parallel()

	m := NewSourceMap([]Block{
		{ID: "b0", StartLine: 2, EndLine: 5},
		{ID: "b1", StartLine: 10, EndLine: 20},
		{ID: "b2", StartLine: 25, EndLine: 40},
	})

	tests := []struct {
		name     string
		line     int
		wantID   string
		wantProg float64
		wantOK   bool
	}{
		{name: "negative line", line: -3, wantID: "b0", wantProg: 0, wantOK: true},
		{name: "before first block", line: 0, wantID: "b0", wantProg: 0, wantOK: true},
		{name: "first block start", line: 2, wantID: "b0", wantProg: 0, wantOK: true},
		{name: "gap belongs to previous block", line: 7, wantID: "b0", wantProg: 5.0 / 8, wantOK: true},
		{name: "block start", line: 10, wantID: "b1", wantProg: 0, wantOK: true},
		{name: "inside block", line: 12, wantID: "b1", wantProg: 2.0 / 15, wantOK: true},
		{name: "last line", line: 39, wantID: "b2", wantProg: 14.0 / 15, wantOK: true},
		{name: "past the end", line: 40, wantOK: false},
		{name: "far past the end", line: 1000, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pos, ok := m.PositionFromLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("PositionFromLine(%d) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if pos.BlockID != tt.wantID || math.Abs(pos.Progress-tt.wantProg) > 1e-9 {
				t.Errorf("PositionFromLine(%d) = %+v, want {%s %v}", tt.line, pos, tt.wantID, tt.wantProg)
			}
		})
	}
}

func TestSourceMap_LineFromBlock(t *testing.T) {
	t.Parallel()

	m := NewSourceMap([]Block{
		{ID: "b0", StartLine: 0, EndLine: 10},
		{ID: "b1", StartLine: 10, EndLine: 25},
		{ID: "b2", StartLine: 25, EndLine: 40},
	})

	tests := []struct {
		name     string
		id       string
		progress float64
		want     int
		wantOK   bool
	}{
		{name: "block top", id: "b1", progress: 0, want: 10, wantOK: true},
		{name: "fraction rounds", id: "b1", progress: 40.0 / 150, want: 14, wantOK: true},
		{name: "bottom of inner block is next start", id: "b0", progress: 1, want: 10, wantOK: true},
		{name: "bottom of last block stays inside", id: "b2", progress: 1, want: 39, wantOK: true},
		{name: "progress above one clamps", id: "b1", progress: 3, want: 25, wantOK: true},
		{name: "negative progress clamps", id: "b1", progress: -1, want: 10, wantOK: true},
		{name: "NaN progress is zero", id: "b2", progress: math.NaN(), want: 25, wantOK: true},
		{name: "unknown block", id: "b9", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := m.LineFromBlock(tt.id, tt.progress)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("LineFromBlock(%q, %v) = %d, %v; want %d, %v", tt.id, tt.progress, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSourceMap_RoundTrip(t *testing.T) {
	t.Parallel()

	m := NewSourceMap([]Block{
		{ID: "b0", StartLine: 1, EndLine: 3},
		{ID: "b1", StartLine: 4, EndLine: 9},
		{ID: "b2", StartLine: 9, EndLine: 10},
		{ID: "b3", StartLine: 12, EndLine: 30},
	})

	for line := 1; line < 30; line++ {
		pos, ok := m.PositionFromLine(line)
		if !ok {
			t.Fatalf("PositionFromLine(%d) not resolvable", line)
		}
		got, ok := m.LineFromBlock(pos.BlockID, pos.Progress)
		if !ok || got != line {
			t.Errorf("line %d -> %+v -> %d, %v", line, pos, got, ok)
		}
	}
}

func TestSourceMap_Degenerate(t *testing.T) {
	t.Parallel()

	t.Run("empty map", func(t *testing.T) {
		t.Parallel()

		m := NewSourceMap(nil)
		if _, ok := m.PositionFromLine(0); ok {
			t.Error("PositionFromLine resolved on an empty map")
		}
		if _, ok := m.LineFromBlock("b0", 0); ok {
			t.Error("LineFromBlock resolved on an empty map")
		}
		if m.EndLine() != 0 || m.Len() != 0 {
			t.Errorf("EndLine() = %d, Len() = %d", m.EndLine(), m.Len())
		}
	})

	t.Run("nil map", func(t *testing.T) {
		t.Parallel()

		var m *SourceMap
		if _, ok := m.PositionFromLine(3); ok {
			t.Error("nil map resolved a line")
		}
		if _, ok := m.LineFromBlock("b0", 0); ok {
			t.Error("nil map resolved a block")
		}
	})

	t.Run("empty last block spans one line", func(t *testing.T) {
		t.Parallel()

		m := NewSourceMap([]Block{{ID: "b0", StartLine: 4, EndLine: 4}})
		if pos, ok := m.PositionFromLine(4); !ok || pos.BlockID != "b0" {
			t.Errorf("PositionFromLine(4) = %+v, %v", pos, ok)
		}
		if _, ok := m.PositionFromLine(5); ok {
			t.Error("PositionFromLine(5) resolved past the block")
		}
		if m.EndLine() != 5 {
			t.Errorf("EndLine() = %d, want 5", m.EndLine())
		}
	})

	t.Run("decreasing starts are raised", func(t *testing.T) {
		t.Parallel()

		m := NewSourceMap([]Block{
			{ID: "b0", StartLine: 5, EndLine: 8},
			{ID: "b1", StartLine: 3, EndLine: 9},
		})
		if got := m.Blocks()[1].StartLine; got != 5 {
			t.Errorf("Blocks()[1].StartLine = %d, want 5", got)
		}
		if b, ok := m.BlockAt(6); !ok || b.ID != "b1" {
			t.Errorf("BlockAt(6) = %+v, %v; want b1", b, ok)
		}
	})
}

func TestSourceMap_BlocksIsCopy(t *testing.T) {
	t.Parallel()

	blocks := []Block{{ID: "b0", StartLine: 0, EndLine: 2}}
	m := NewSourceMap(blocks)
	blocks[0].StartLine = 9
	m.Blocks()[0].ID = "changed"

	if b, _ := m.BlockAt(0); b.ID != "b0" || b.StartLine != 0 {
		t.Errorf("BlockAt(0) = %+v, map was mutated", b)
	}
}
