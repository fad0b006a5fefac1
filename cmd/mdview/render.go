package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	mdview "github.com/alnah/go-mdview"
	"github.com/alnah/go-mdview/internal/fileutil"
)

// filePermissions is rw-r--r--: owner read+write, others read.
const filePermissions = 0o644

// readInput reads a Markdown file and, when set, the extra CSS file.
func readInput(path, cssPath string, env *Environment) (mdview.Input, error) {
	if !fileutil.IsMarkdownFile(path) {
		return mdview.Input{}, fmt.Errorf("%w: %s", ErrInvalidExtension, path)
	}

	content, err := env.ReadFile(path)
	if err != nil {
		return mdview.Input{}, fmt.Errorf("%w: %w", ErrReadMarkdown, err)
	}

	input := mdview.Input{
		Markdown:  string(content),
		SourceDir: filepath.Dir(path),
	}
	if cssPath != "" {
		css, err := env.ReadFile(cssPath)
		if err != nil {
			return mdview.Input{}, fmt.Errorf("reading CSS: %w", err)
		}
		input.CSS = string(css)
	}
	return input, nil
}

// singleInput returns the only positional argument.
func singleInput(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", ErrNoInput
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("%w: expected one file, got %d", ErrUsage, len(args))
	}
}

// runRender writes the standalone page of one Markdown file.
func runRender(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	path, err := singleInput(positional)
	if err != nil {
		return err
	}

	s, err := loadSettings(&flags.common, env)
	if err != nil {
		return err
	}
	applyRenderFlags(&flags.render, s.cfg)

	renderer, err := s.newRenderer(s.scrollMode(flags.window))
	if err != nil {
		return err
	}
	input, err := readInput(path, flags.render.css, env)
	if err != nil {
		return err
	}
	doc, err := renderer.Render(ctx, input)
	if err != nil {
		return err
	}

	output := flags.output
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
	}
	if output == "-" {
		_, err := io.WriteString(env.Stdout, doc.HTML)
		return err
	}
	if err := os.WriteFile(output, []byte(doc.HTML), filePermissions); err != nil { // #nosec G306 -- rendered page is not secret
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stderr, "%s -> %s (%d blocks)\n", path, output, len(doc.Blocks))
	}
	return nil
}

// mapEntry is one row of the map command output.
type mapEntry struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// mapOutput is the JSON document printed by map --json.
type mapOutput struct {
	File      string     `json:"file"`
	Title     string     `json:"title,omitempty"`
	LineCount int        `json:"lineCount"`
	Blocks    []mapEntry `json:"blocks"`
}

// runMap prints the block to source line map of one Markdown file.
func runMap(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseMapFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	path, err := singleInput(positional)
	if err != nil {
		return err
	}

	s, err := loadSettings(&flags.common, env)
	if err != nil {
		return err
	}
	applyRenderFlags(&flags.render, s.cfg)

	renderer, err := s.newRenderer(s.scrollMode(false))
	if err != nil {
		return err
	}
	input, err := readInput(path, "", env)
	if err != nil {
		return err
	}
	doc, err := renderer.Render(ctx, input)
	if err != nil {
		return err
	}

	out := mapOutput{
		File:      path,
		Title:     doc.Title,
		LineCount: doc.LineCount,
		Blocks:    make([]mapEntry, len(doc.Blocks)),
	}
	for i, b := range doc.Blocks {
		out.Blocks[i] = mapEntry(b)
	}

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BLOCK\tKIND\tLINES")
	for _, b := range out.Blocks {
		fmt.Fprintf(tw, "%s\t%s\t%d-%d\n", b.ID, b.Kind, b.StartLine, b.EndLine-1)
	}
	return tw.Flush()
}
