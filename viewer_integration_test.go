//go:build integration

package mdview

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"
)

// longDocument returns n paragraphs of several lines each, so every block
// is taller than one line of text.
func longDocument(n int) string {
	var sb strings.Builder
	for i := range n {
		fmt.Fprintf(&sb, "## Section %d\n\n", i)
		for j := range 4 {
			fmt.Fprintf(&sb, "Paragraph %d line %d with enough words to wrap.\n", i, j)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func newTestViewer(t *testing.T, mode ScrollMode, opts ...ControllerOption) *Viewer {
	t.Helper()

	v, err := NewViewer(acquireBrowser(t), ViewerOptions{
		Mode:       mode,
		Width:      800,
		Height:     400,
		Controller: opts,
	})
	if err != nil {
		t.Fatalf("NewViewer() error = %v", err)
	}
	t.Cleanup(func() { _ = v.Close() })
	return v
}

func TestBrowserSurface_Geometry_Integration(t *testing.T) {
	t.Parallel()

	for _, mode := range []ScrollMode{ScrollContainer, ScrollWindow} {
		t.Run(mode.String(), func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
			defer cancel()

			v := newTestViewer(t, mode)
			if err := v.Load(ctx, longDocument(30)); err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			s := v.Surface()
			g, err := s.Geometry(ctx)
			if err != nil {
				t.Fatalf("Geometry() error = %v", err)
			}
			if len(g.Blocks) != len(v.Document().Blocks) {
				t.Fatalf("got %d measured blocks, want %d", len(g.Blocks), len(v.Document().Blocks))
			}
			if g.Viewport <= 0 || g.ScrollHeight <= g.Viewport {
				t.Fatalf("Geometry() = viewport %v, scrollHeight %v", g.Viewport, g.ScrollHeight)
			}
			for i := 1; i < len(g.Blocks); i++ {
				if g.Blocks[i].Top < g.Blocks[i-1].Top {
					t.Errorf("block %d top %v above block %d top %v", i, g.Blocks[i].Top, i-1, g.Blocks[i-1].Top)
				}
			}

			target := g.Blocks[10].Top
			s.ScrollTo(target)
			if got := s.ScrollOffset(); math.Abs(got-target) > 1 {
				t.Errorf("ScrollOffset() = %v, want %v", got, target)
			}
			if pos, ok := Locate(s); !ok || pos.BlockID != g.Blocks[10].ID {
				t.Errorf("Locate() = %+v, %v; want %s", pos, ok, g.Blocks[10].ID)
			}
		})
	}
}

func TestViewer_SetTargetLine_Integration(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	v := newTestViewer(t, ScrollContainer)
	if err := v.Load(ctx, longDocument(30)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	c := v.Controller()
	line := v.Document().Blocks[20].StartLine
	c.SetTargetLine(line)

	eventually(t, "controller to settle", func() bool { return c.State() == StateTracking })
	if got, ok := c.CurrentLine(); !ok || got != line {
		t.Errorf("CurrentLine() = %d, %v; want %d", got, ok, line)
	}
}

func TestViewer_UserScrollReports_Integration(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	var mu sync.Mutex
	var lines []int
	v := newTestViewer(t, ScrollContainer,
		WithUserScrollDebounce(20*time.Millisecond),
		WithUserScrollHandler(func(line int) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
		}),
	)
	if err := v.Load(ctx, longDocument(30)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	c := v.Controller()
	c.SetTargetLine(0)
	eventually(t, "controller to settle", func() bool { return c.State() == StateTracking })

	g, err := v.Surface().Geometry(ctx)
	if err != nil {
		t.Fatalf("Geometry() error = %v", err)
	}
	v.Surface().ScrollTo(g.Blocks[12].Top)

	want := v.Document().Blocks[12].StartLine
	eventually(t, "user scroll report", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lines) > 0 && lines[len(lines)-1] == want
	})
	if got := c.TargetLine(); got != want {
		t.Errorf("TargetLine() = %d, want %d", got, want)
	}
}

func TestViewer_StreamingRestore_Integration(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	full := longDocument(30)
	chunks := strings.SplitAfter(full, "\n\n## ")

	v := newTestViewer(t, ScrollContainer)
	if err := v.Update(ctx, chunks[0], false); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	c := v.Controller()
	target := strings.Count(full, "\n") - 6
	c.SetTargetLine(target)
	if got := c.State(); got != StateRestoring {
		t.Fatalf("State() = %v, want RESTORING", got)
	}

	var sb strings.Builder
	for i, chunk := range chunks {
		sb.WriteString(chunk)
		if err := v.Update(ctx, sb.String(), i == len(chunks)-1); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}

	eventually(t, "restore to complete", func() bool { return c.State() == StateTracking })
	if got := c.TargetLine(); got > target {
		t.Errorf("TargetLine() = %d, want at most %d", got, target)
	}
}

func TestViewer_LoadResets_Integration(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	v := newTestViewer(t, ScrollWindow)
	if err := v.Load(ctx, longDocument(20)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	c := v.Controller()
	c.SetTargetLine(v.Document().Blocks[15].StartLine)
	eventually(t, "controller to settle", func() bool { return c.State() == StateTracking })

	if err := v.Load(ctx, longDocument(5)); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if got := c.State(); got != StateInitial {
		t.Errorf("State() after Load = %v, want INITIAL", got)
	}
	if got := v.Surface().ScrollOffset(); got != 0 {
		t.Errorf("ScrollOffset() after Load = %v, want 0", got)
	}

	if err := v.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := v.Load(ctx, "x"); err != ErrViewerClosed {
		t.Errorf("Load() after Close error = %v, want %v", err, ErrViewerClosed)
	}
}

func TestBrowser_Version_Integration(t *testing.T) {
	t.Parallel()

	version, err := acquireBrowser(t).Version()
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if !strings.Contains(version, "Chrome") {
		t.Errorf("Version() = %q, want a Chrome product string", version)
	}
}
