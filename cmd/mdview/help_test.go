package main

// Notes:
// - print*Usage: we check that every flag the parsers define is documented,
//   by asking each FlagSet for its flags rather than keeping a second list.
// - runHelp: we test routing and the exit code for unknown commands.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"io"
	"strings"
	"testing"

	flag "github.com/spf13/pflag"
)

// ---------------------------------------------------------------------------
// TestPrintUsage - Main usage lists every command
// ---------------------------------------------------------------------------

func TestPrintUsage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printUsage(&buf)

	for _, cmd := range []string{"render", "map", "probe", "doctor", "version", "help"} {
		if !strings.Contains(buf.String(), "  "+cmd+" ") {
			t.Errorf("usage should list %q:\n%s", cmd, buf.String())
		}
	}
}

// ---------------------------------------------------------------------------
// TestCommandUsage_DocumentsAllFlags - Help text matches FlagSets
// ---------------------------------------------------------------------------

func TestCommandUsage_DocumentsAllFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		usage func(io.Writer)
		flags func(io.Writer) *flag.FlagSet
	}{
		{"render", printRenderUsage, func(w io.Writer) *flag.FlagSet { fs, _ := renderFlagSet(w); return fs }},
		{"map", printMapUsage, func(w io.Writer) *flag.FlagSet { fs, _ := mapFlagSet(w); return fs }},
		{"probe", printProbeUsage, func(w io.Writer) *flag.FlagSet { fs, _ := probeFlagSet(w); return fs }},
		{"doctor", printDoctorUsage, func(w io.Writer) *flag.FlagSet { fs, _ := doctorFlagSet(w); return fs }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.usage(&buf)
			fs := tt.flags(io.Discard)

			fs.VisitAll(func(f *flag.Flag) {
				if !strings.Contains(buf.String(), "--"+f.Name) {
					t.Errorf("%s usage does not document --%s", tt.name, f.Name)
				}
			})
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunHelp - Help routing
// ---------------------------------------------------------------------------

func TestRunHelp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no args", nil, ExitSuccess, "Usage: mdview <command>", ""},
		{"render", []string{"render"}, ExitSuccess, "Usage: mdview render", ""},
		{"map", []string{"map"}, ExitSuccess, "Usage: mdview map", ""},
		{"probe", []string{"probe"}, ExitSuccess, "Usage: mdview probe", ""},
		{"doctor", []string{"doctor"}, ExitSuccess, "Usage: mdview doctor", ""},
		{"version", []string{"version"}, ExitSuccess, "Usage: mdview version", ""},
		{"help", []string{"help"}, ExitSuccess, "Usage: mdview help", ""},
		{"unknown", []string{"convert"}, ExitUsage, "", "Unknown command: convert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			code := runHelp(tt.args, &Environment{Stdout: &stdout, Stderr: &stderr})

			if code != tt.wantCode {
				t.Errorf("runHelp() = %d, want %d", code, tt.wantCode)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want to contain %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}
