// Package logging adapts github.com/goliatone/go-logger to the small leveled
// Logger contract used across mdview.
package logging

import (
	"context"
	"fmt"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// Logger is the leveled logger handed to library components.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config selects the go-logger backend settings.
type Config struct {
	Level     string // trace, debug, info, warn, error, fatal
	Format    string // json, console, pretty
	AddSource bool
}

// Provider hands out named loggers sharing one go-logger root.
type Provider struct {
	root *glog.BaseLogger
}

// NewProvider constructs a Provider backed by go-logger.
func NewProvider(cfg Config) (*Provider, error) {
	options := []glog.Option{}

	if level := normalizeLevel(cfg.Level); level != "" {
		options = append(options, glog.WithLevel(level))
	} else if strings.TrimSpace(cfg.Level) != "" {
		return nil, fmt.Errorf("logging: unsupported level %q", cfg.Level)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("logging: unsupported format %q", cfg.Format)
	}

	if cfg.AddSource {
		options = append(options, glog.WithAddSource(true))
	}

	return &Provider{root: glog.NewLogger(options...)}, nil
}

// GetLogger returns the logger for a component name such as "sync" or
// "browser". An empty name returns the root logger.
func (p *Provider) GetLogger(name string) Logger {
	if p == nil || p.root == nil {
		return NoOp()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return wrap(p.root)
	}
	return wrap(p.root.GetLogger(name))
}

// WithContext returns a logger carrying ctx when the underlying logger
// supports it.
func WithContext(l Logger, ctx context.Context) Logger {
	a, ok := l.(*adapter)
	if !ok || ctx == nil {
		return l
	}
	return wrap(a.inner.WithContext(ctx))
}

// WithFields attaches structured fields when the backend supports them.
func WithFields(l Logger, fields map[string]any) Logger {
	a, ok := l.(*adapter)
	if !ok || len(fields) == 0 {
		return l
	}
	with, ok := a.inner.(glog.FieldsLogger)
	if !ok {
		return l
	}
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return wrap(with.WithFields(copied))
}

func wrap(inner glog.Logger) Logger {
	if inner == nil {
		return NoOp()
	}
	return &adapter{inner: inner}
}

type adapter struct {
	inner glog.Logger
}

func (l *adapter) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// NoOp returns a logger that discards everything.
func NoOp() Logger {
	return noop{}
}

type noop struct{}

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return glog.Trace
	case "debug":
		return glog.Debug
	case "info":
		return glog.Info
	case "warn", "warning":
		return glog.Warn
	case "error":
		return glog.Error
	case "fatal":
		return glog.Fatal
	default:
		return ""
	}
}
