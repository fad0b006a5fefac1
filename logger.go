package mdview

// Logger is the leveled logging contract used by the library.
// It matches the method set of github.com/goliatone/go-logger loggers, so a
// glog logger (or the adapter in internal/logging) can be passed directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
