package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"text/tabwriter"
	"time"

	mdview "github.com/alnah/go-mdview"
	"github.com/alnah/go-mdview/internal/hints"
)

// settleMargin is added to the lock duration when --settle is not given, so
// the controller has left LOCKED before it is inspected.
const settleMargin = 250 * time.Millisecond

// probeResult is the observed controller state for one file.
type probeResult struct {
	File        string  `json:"file"`
	Line        int     `json:"line"`
	State       string  `json:"state"`
	TargetLine  int     `json:"targetLine"`
	CurrentLine *int    `json:"currentLine"`
	Offset      float64 `json:"offset"`
	Blocks      int     `json:"blocks"`
	LastLine    int     `json:"lastLine"`
	Degraded    bool    `json:"degraded,omitempty"`
	Duration    string  `json:"duration"`
	Err         error   `json:"-"`
	Error       string  `json:"error,omitempty"`
}

// probeParams groups what every probe job shares.
type probeParams struct {
	settings *settings
	renderer *mdview.Renderer
	css      string
	line     int
	width    int
	height   int
	chunks   int
	settle   time.Duration
}

// runProbe opens each file in headless Chrome, scrolls to --line through a
// scroll controller and reports where the controller settled.
func runProbe(ctx context.Context, args []string, env *Environment) error {
	flags, files, err := parseProbeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return ErrNoInput
	}
	if flags.workers < 0 || flags.workers > maxWorkers {
		return fmt.Errorf("%w: %d (must be 0-%d)", ErrInvalidWorkerCount, flags.workers, maxWorkers)
	}
	if flags.line < 0 {
		return fmt.Errorf("%w: --line must not be negative", ErrUsage)
	}
	if flags.streamChunks < 1 {
		return fmt.Errorf("%w: --stream-chunks must be at least 1", ErrUsage)
	}

	s, err := loadSettings(&flags.common, env)
	if err != nil {
		return err
	}
	applyRenderFlags(&flags.render, s.cfg)

	params, err := newProbeParams(flags, s)
	if err != nil {
		return err
	}

	workers := flags.workers
	if workers == 0 {
		workers = s.cfg.Browser.Workers
	}
	pool := mdview.NewBrowserPool(min(mdview.ResolvePoolSize(workers), len(files)), s.timeout, s.browserOptions()...)
	defer func() { _ = pool.Close() }()

	s.log.Debug("probing", "files", len(files), "pool", pool.Size(), "line", flags.line)
	results := probeBatch(ctx, pool, files, params, env)

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		printProbeResults(env.Stdout, results)
	}

	return probeError(results)
}

func newProbeParams(flags *probeCmdFlags, s *settings) (*probeParams, error) {
	settle := s.lockDuration()
	if settle <= 0 {
		settle = mdview.DefaultLockDuration
	}
	settle += settleMargin
	if flags.settle != "" {
		d, err := time.ParseDuration(flags.settle)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: --settle %q", ErrUsage, flags.settle)
		}
		settle = d
	}

	renderer, err := s.newRenderer(s.scrollMode(flags.window))
	if err != nil {
		return nil, err
	}

	width, height := flags.width, flags.height
	if width == 0 {
		width = s.cfg.Browser.Width
	}
	if height == 0 {
		height = s.cfg.Browser.Height
	}

	return &probeParams{
		settings: s,
		renderer: renderer,
		css:      flags.render.css,
		line:     flags.line,
		width:    width,
		height:   height,
		chunks:   flags.streamChunks,
		settle:   settle,
	}, nil
}

// probeBatch probes files concurrently, one browser per worker.
func probeBatch(ctx context.Context, pool *mdview.BrowserPool, files []string, params *probeParams, env *Environment) []probeResult {
	results := make([]probeResult, len(files))
	jobs := make(chan int, len(files))
	for i := range files {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for range pool.Size() {
		wg.Add(1)
		go func() {
			defer wg.Done()

			browser, err := pool.Acquire(ctx)
			if err != nil {
				for idx := range jobs {
					results[idx] = failed(files[idx], params.line, err)
				}
				return
			}
			defer pool.Release(browser)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = failed(files[idx], params.line, ctx.Err())
					continue
				}
				results[idx] = probeFile(ctx, browser, files[idx], params, env)
			}
		}()
	}
	wg.Wait()
	return results
}

func failed(file string, line int, err error) probeResult {
	return probeResult{File: file, Line: line, State: "ERROR", Err: err, Error: err.Error()}
}

// probeFile runs one document through a Viewer.
func probeFile(ctx context.Context, browser *mdview.Browser, path string, p *probeParams, env *Environment) probeResult {
	start := time.Now()
	input, err := readInput(path, p.css, env)
	if err != nil {
		return failed(path, p.line, err)
	}

	var degraded atomic.Bool
	viewer, err := mdview.NewViewer(browser, mdview.ViewerOptions{
		Renderer:  p.renderer,
		Width:     p.width,
		Height:    p.height,
		SourceDir: input.SourceDir,
		Logger:    p.settings.log,
		Controller: append(p.settings.controllerOptions(),
			mdview.WithTargetDegradedHandler(func(requested, adopted int) {
				degraded.Store(true)
				p.settings.log.Info("target degraded", "file", path, "requested", requested, "adopted", adopted)
			}),
		),
	})
	if err != nil {
		return failed(path, p.line, err)
	}
	defer func() { _ = viewer.Close() }()

	if err := streamDocument(ctx, viewer, input.Markdown, p); err != nil {
		return failed(path, p.line, err)
	}

	select {
	case <-ctx.Done():
		return failed(path, p.line, ctx.Err())
	case <-time.After(p.settle):
	}

	ctrl := viewer.Controller()
	doc := viewer.Document()
	res := probeResult{
		File:       path,
		Line:       p.line,
		State:      ctrl.State().String(),
		TargetLine: ctrl.TargetLine(),
		Offset:     viewer.Surface().ScrollOffset(),
		Blocks:     len(doc.Blocks),
		LastLine:   doc.Map.EndLine() - 1,
		Degraded:   degraded.Load(),
		Duration:   time.Since(start).Round(time.Millisecond).String(),
	}
	if line, ok := ctrl.CurrentLine(); ok {
		res.CurrentLine = &line
	}
	if ctrl.State() == mdview.StateRestoring {
		res.Err = fmt.Errorf("%w: %s line %d%s", ErrTargetNotReached, path, p.line, hints.ForUnresolvedLine(p.line, res.LastLine))
		res.Error = res.Err.Error()
	}
	return res
}

// streamDocument delivers markdown in p.chunks line-aligned pieces and sets
// the target after the first one, the way an editor restores a position
// while a document is still loading.
func streamDocument(ctx context.Context, v *mdview.Viewer, markdown string, p *probeParams) error {
	chunks := splitChunks(markdown, p.chunks)
	if len(chunks) == 1 {
		if err := v.Load(ctx, markdown); err != nil {
			return err
		}
		v.Controller().SetTargetLine(p.line)
		return nil
	}

	var sb strings.Builder
	for i, chunk := range chunks {
		sb.WriteString(chunk)
		if err := v.Update(ctx, sb.String(), i == len(chunks)-1); err != nil {
			return err
		}
		if i == 0 {
			v.Controller().SetTargetLine(p.line)
		}
	}
	return nil
}

// splitChunks splits s into at most n pieces on line boundaries. Empty
// pieces are dropped, so fewer than n may be returned.
func splitChunks(s string, n int) []string {
	lines := strings.SplitAfter(s, "\n")
	if n <= 1 || len(lines) <= 1 {
		return []string{s}
	}
	size := (len(lines) + n - 1) / n

	var chunks []string
	for i := 0; i < len(lines); i += size {
		chunk := strings.Join(lines[i:min(i+size, len(lines))], "")
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func printProbeResults(w io.Writer, results []probeResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLINE\tSTATE\tTARGET\tCURRENT\tOFFSET\tTIME")
	for _, r := range results {
		current := "-"
		if r.CurrentLine != nil {
			current = fmt.Sprint(*r.CurrentLine)
		}
		target := fmt.Sprint(r.TargetLine)
		if r.Degraded {
			target += "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%.0f\t%s\n", r.File, r.Line, r.State, target, current, r.Offset, r.Duration)
	}
	_ = tw.Flush()

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s: %v\n", r.File, r.Err)
		}
	}
}

// probeError summarizes failures. The wrapped error is the first one that
// maps to a specific exit code, or the first failure.
func probeError(results []probeResult) error {
	var first, specific error
	failures := 0
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		failures++
		if first == nil {
			first = r.Err
		}
		if specific == nil && exitCodeFor(r.Err) != ExitGeneral {
			specific = r.Err
		}
	}
	if failures == 0 {
		return nil
	}
	if specific != nil {
		first = specific
	}
	return fmt.Errorf("%d of %d files failed: %w", failures, len(results), first)
}
