package logging

import (
	"context"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

func TestNewProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"json debug", Config{Level: "debug", Format: "json"}, false},
		{"pretty warning", Config{Level: "Warning", Format: "pretty"}, false},
		{"console with source", Config{Format: "console", AddSource: true}, false},
		{"unknown format", Config{Format: "xml"}, true},
		{"unknown level", Config{Level: "loud"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := NewProvider(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.GetLogger("sync") == nil {
				t.Fatal("expected logger, got nil")
			}
		})
	}
}

func TestGetLogger_NilProvider(t *testing.T) {
	t.Parallel()

	var p *Provider
	l := p.GetLogger("sync")
	if _, ok := l.(noop); !ok {
		t.Fatalf("expected noop logger, got %T", l)
	}
	l.Info("discarded")
}

func TestAdapterDelegates(t *testing.T) {
	t.Parallel()

	stub := &stubLogger{}
	l := wrap(stub)

	l.Debug("debug", "k", 1)
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	want := []string{"debug", "info", "warn", "error"}
	if len(stub.calls) != len(want) {
		t.Fatalf("got %d calls, want %d", len(stub.calls), len(want))
	}
	for i := range want {
		if stub.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, stub.calls[i], want[i])
		}
	}
}

func TestWithFieldsAndContext(t *testing.T) {
	t.Parallel()

	stub := &stubLogger{}
	l := wrap(stub)

	fields := map[string]any{"file": "a.md"}
	if WithFields(l, fields) == nil {
		t.Fatal("WithFields returned nil")
	}
	fields["file"] = "b.md"
	if len(stub.fields) != 1 || stub.fields[0]["file"] != "a.md" {
		t.Fatalf("fields not cloned: %v", stub.fields)
	}

	ctx := context.WithValue(context.Background(), struct{}{}, "v")
	WithContext(l, ctx)
	if len(stub.contexts) != 1 || stub.contexts[0] != ctx {
		t.Fatalf("context not propagated: %v", stub.contexts)
	}

	// Non-adapter loggers pass through untouched.
	if got := WithFields(NoOp(), fields); got != NoOp() {
		t.Errorf("WithFields(NoOp) = %T", got)
	}
}

type stubLogger struct {
	calls    []string
	fields   []map[string]any
	contexts []context.Context
}

var _ glog.Logger = (*stubLogger)(nil)
var _ glog.FieldsLogger = (*stubLogger)(nil)

func (s *stubLogger) Trace(string, ...any) { s.calls = append(s.calls, "trace") }
func (s *stubLogger) Debug(string, ...any) { s.calls = append(s.calls, "debug") }
func (s *stubLogger) Info(string, ...any)  { s.calls = append(s.calls, "info") }
func (s *stubLogger) Warn(string, ...any)  { s.calls = append(s.calls, "warn") }
func (s *stubLogger) Error(string, ...any) { s.calls = append(s.calls, "error") }
func (s *stubLogger) Fatal(string, ...any) { s.calls = append(s.calls, "fatal") }

func (s *stubLogger) WithContext(ctx context.Context) glog.Logger {
	s.contexts = append(s.contexts, ctx)
	return s
}

func (s *stubLogger) WithFields(fields map[string]any) glog.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	s.fields = append(s.fields, copied)
	return s
}
