package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Level names accepted in configuration, case-insensitively.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Output encodings.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Options configures New.
type Options struct {
	// Path is the log file. Empty logs to stderr and ignores Rotation.
	Path     string
	Level    string
	Format   string
	Rotation RotationConfig
}

// Logger is the structured logger handed to every component. Loggers
// derived with With* share the root's output and level, so SetLevel on any
// of them applies to all.
type Logger struct {
	sl    *slog.Logger
	level *slog.LevelVar
	out   *output
}

type output struct {
	mu     sync.Mutex
	closer io.Closer
}

// New creates a Logger from opts.
func New(opts Options) (*Logger, error) {
	var w io.Writer = os.Stderr
	var closer io.Closer
	if opts.Path != "" {
		rw, err := NewRotatingWriter(opts.Path, opts.Rotation)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w, closer = rw, rw
	}
	return build(w, closer, opts.Level, opts.Format), nil
}

// NewWriterLogger creates a JSON Logger writing to w.
func NewWriterLogger(w io.Writer, level string) *Logger {
	return build(w, nil, level, FormatJSON)
}

// NopLogger returns a Logger that discards everything.
func NopLogger() *Logger {
	return build(io.Discard, nil, LevelError, FormatJSON)
}

func build(w io.Writer, closer io.Closer, level, format string) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(slogLevel(level))

	opts := &slog.HandlerOptions{Level: lv}
	var h slog.Handler
	if ParseFormat(format) == FormatText {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return &Logger{sl: slog.New(h), level: lv, out: &output{closer: closer}}
}

func (l *Logger) derive(sl *slog.Logger) *Logger {
	return &Logger{sl: sl, level: l.level, out: l.out}
}

// WithComponent tags entries with the component name.
func (l *Logger) WithComponent(component string) *Logger {
	return l.derive(l.sl.With(slog.String("component", component)))
}

// WithTick tags entries with a monitor tick id.
func (l *Logger) WithTick(tickID string) *Logger {
	return l.derive(l.sl.With(slog.String("tick_id", tickID)))
}

// With adds alternating key-value attributes. Pairs whose key is not a
// string are dropped.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	attrs := make([]any, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			attrs = append(attrs, slog.Any(key, args[i+1]))
		}
	}
	return l.derive(l.sl.With(attrs...))
}

func (l *Logger) Debug(msg string, args ...any) { l.sl.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.sl.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.sl.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.sl.Error(msg, args...) }

// SetLevel changes the minimum level at runtime. Unknown names mean INFO.
func (l *Logger) SetLevel(level string) {
	l.level.Set(slogLevel(level))
}

// Level returns the current minimum level name.
func (l *Logger) Level() string {
	switch l.level.Level() {
	case slog.LevelDebug:
		return LevelDebug
	case slog.LevelWarn:
		return LevelWarn
	case slog.LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// Close closes the log file. It is shared with derived loggers and safe to
// call more than once. Closing a stderr logger is a no-op.
func (l *Logger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.closer == nil {
		return nil
	}
	err := l.out.closer.Close()
	l.out.closer = nil
	return err
}

// ParseLevel normalizes a level name. Unknown names mean INFO.
func ParseLevel(level string) string {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "WARNING":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseFormat normalizes an output format name. Anything but "text" is JSON.
func ParseFormat(format string) string {
	if strings.EqualFold(strings.TrimSpace(format), FormatText) {
		return FormatText
	}
	return FormatJSON
}

func slogLevel(level string) slog.Level {
	switch ParseLevel(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
