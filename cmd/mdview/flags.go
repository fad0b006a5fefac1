package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logLevel  string
	logFormat string
	timeout   string
}

// renderFlags holds flags shared by commands that render Markdown.
type renderFlags struct {
	style          string
	highlightStyle string
	assetPath      string
	noHardWraps    bool
	css            string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console, json, pretty")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "render and page timeout (e.g., 30s, 2m)")
}

// addRenderFlags adds rendering flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVar(&f.style, "style", "", "style name, CSS file path or CSS content")
	fs.StringVar(&f.highlightStyle, "highlight-style", "", "code highlighting style")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.BoolVar(&f.noHardWraps, "no-hard-wraps", false, "keep single newlines inside paragraphs")
	fs.StringVar(&f.css, "css", "", "extra CSS file appended after the style")
}

// renderCmdFlags holds flags for the render command.
type renderCmdFlags struct {
	common commonFlags
	render renderFlags
	output string
	window bool
}

// mapCmdFlags holds flags for the map command.
type mapCmdFlags struct {
	common commonFlags
	render renderFlags
	json   bool
}

// probeCmdFlags holds flags for the probe command.
type probeCmdFlags struct {
	common       commonFlags
	render       renderFlags
	line         int
	window       bool
	width        int
	height       int
	streamChunks int
	settle       string
	workers      int
	json         bool
}

// doctorCmdFlags holds flags for the doctor command.
type doctorCmdFlags struct {
	json bool
}

func newFlagSet(name string, stderr io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// renderFlagSet defines the render command flags.
func renderFlagSet(stderr io.Writer) (*flag.FlagSet, *renderCmdFlags) {
	f := &renderCmdFlags{}
	fs := newFlagSet("render", stderr, printRenderUsage)
	fs.StringVarP(&f.output, "output", "o", "", "output file (\"-\" = stdout, default: input with .html)")
	fs.BoolVar(&f.window, "window", false, "scroll the window instead of the content container")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	return fs, f
}

// mapFlagSet defines the map command flags.
func mapFlagSet(stderr io.Writer) (*flag.FlagSet, *mapCmdFlags) {
	f := &mapCmdFlags{}
	fs := newFlagSet("map", stderr, printMapUsage)
	fs.BoolVar(&f.json, "json", false, "print the map as JSON")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	return fs, f
}

// probeFlagSet defines the probe command flags.
func probeFlagSet(stderr io.Writer) (*flag.FlagSet, *probeCmdFlags) {
	f := &probeCmdFlags{}
	fs := newFlagSet("probe", stderr, printProbeUsage)
	fs.IntVarP(&f.line, "line", "l", 0, "target source line (0-based)")
	fs.BoolVar(&f.window, "window", false, "scroll the window instead of the content container")
	fs.IntVar(&f.width, "width", 0, "viewport width in CSS pixels")
	fs.IntVar(&f.height, "height", 0, "viewport height in CSS pixels")
	fs.IntVar(&f.streamChunks, "stream-chunks", 1, "deliver each document in n chunks")
	fs.StringVar(&f.settle, "settle", "", "wait after the last update (default: lock duration + 250ms)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	fs.BoolVar(&f.json, "json", false, "print results as JSON")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	return fs, f
}

// doctorFlagSet defines the doctor command flags.
func doctorFlagSet(stderr io.Writer) (*flag.FlagSet, *doctorCmdFlags) {
	f := &doctorCmdFlags{}
	fs := newFlagSet("doctor", stderr, printDoctorUsage)
	fs.BoolVar(&f.json, "json", false, "print diagnostics as JSON")
	return fs, f
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string, stderr io.Writer) (*renderCmdFlags, []string, error) {
	fs, f := renderFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseMapFlags parses map command flags and returns positional args.
func parseMapFlags(args []string, stderr io.Writer) (*mapCmdFlags, []string, error) {
	fs, f := mapFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseProbeFlags parses probe command flags and returns positional args.
func parseProbeFlags(args []string, stderr io.Writer) (*probeCmdFlags, []string, error) {
	fs, f := probeFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, stderr io.Writer) (*doctorCmdFlags, error) {
	fs, f := doctorFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	return f, nil
}
