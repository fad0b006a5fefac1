package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdview <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Render Markdown to a scroll-synced HTML page")
	fmt.Fprintln(w, "  map        Print the line-to-block source map of a document")
	fmt.Fprintln(w, "  probe      Scroll documents to a source line in headless Chrome")
	fmt.Fprintln(w, "  doctor     Check the browser and environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdview help <command>' for details on a specific command.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -t, --timeout <d>         Render and page timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
	fmt.Fprintln(w, "      --log-level <s>       Log level: debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      Log format: console, json, pretty")
}

func printRenderFlagsUsage(w io.Writer) {
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "      --style <s>           Style name, CSS file path or CSS content")
	fmt.Fprintln(w, "      --highlight-style <s> Code highlighting style (chroma)")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory overriding embedded styles")
	fmt.Fprintln(w, "      --css <path>          Extra CSS file appended after the style")
	fmt.Fprintln(w, "      --no-hard-wraps       Keep single newlines inside paragraphs")
	fmt.Fprintln(w)
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdview render <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render a Markdown file to a standalone HTML page whose blocks carry")
	fmt.Fprintln(w, "their source line ranges.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (\"-\" = stdout, default: input with .html)")
	fmt.Fprintln(w, "      --window              Scroll the window instead of the content container")
	fmt.Fprintln(w)
	printRenderFlagsUsage(w)
	printCommonUsage(w)
}

// printMapUsage prints usage for the map command.
func printMapUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdview map <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the blocks of a Markdown file with their source line ranges.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "      --json                Print the map as JSON")
	fmt.Fprintln(w)
	printRenderFlagsUsage(w)
	printCommonUsage(w)
}

// printProbeUsage prints usage for the probe command.
func printProbeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdview probe <input>... --line <n> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Open each file in headless Chrome, request a target source line and")
	fmt.Fprintln(w, "report where the scroll controller settled.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Scrolling:")
	fmt.Fprintln(w, "  -l, --line <n>            Target source line (0-based)")
	fmt.Fprintln(w, "      --window              Scroll the window instead of the content container")
	fmt.Fprintln(w, "      --width <n>           Viewport width in CSS pixels")
	fmt.Fprintln(w, "      --height <n>          Viewport height in CSS pixels")
	fmt.Fprintln(w, "      --stream-chunks <n>   Deliver each document in n chunks")
	fmt.Fprintln(w, "      --settle <d>          Wait after the last update")
	fmt.Fprintln(w, "                            (default: lock duration + 250ms)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Execution:")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel browsers (0 = auto)")
	fmt.Fprintln(w, "      --json                Print results as JSON")
	fmt.Fprintln(w)
	printRenderFlagsUsage(w)
	printCommonUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdview doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome, the environment and the temp directory.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Print diagnostics as JSON")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "map":
		printMapUsage(env.Stdout)
	case "probe":
		printProbeUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mdview version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mdview help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
