// Package log wraps log/slog with a component attribute, typed field
// builders and HTTP middleware that carries a request-scoped logger.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats accepted by Config.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Logger is a slog.Logger tagged with the component that owns it.
type Logger struct {
	*slog.Logger
	// root has every attribute except the component, so WithComponent
	// replaces the tag instead of stacking a second one.
	root      *slog.Logger
	component string
}

// Config holds logger configuration. Handler, when set, wins over Output,
// Format and Level.
type Config struct {
	Level     slog.Level
	Format    string
	Output    io.Writer
	Component string
	Handler   slog.Handler
}

// DefaultConfig logs text at info level to stdout.
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Format:    FormatText,
		Component: ComponentApp,
	}
}

// Discard returns a logger that drops every record, for tests and quiet CLI runs.
func Discard() *Logger {
	return New(Config{
		Component: ComponentApp,
		Handler:   slog.NewTextHandler(io.Discard, nil),
	})
}

// New creates a logger from config.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		opts := &slog.HandlerOptions{Level: config.Level}
		if strings.EqualFold(config.Format, FormatJSON) {
			handler = slog.NewJSONHandler(out, opts)
		} else {
			handler = slog.NewTextHandler(out, opts)
		}
	}
	return newLogger(slog.New(handler), config.Component)
}

func newLogger(root *slog.Logger, component string) *Logger {
	l := root
	if component != "" {
		l = root.With(FieldComponent, component)
	}
	return &Logger{Logger: l, root: root, component: component}
}

// With returns a logger carrying extra attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		root:      l.root.With(args...),
		component: l.component,
	}
}

// WithComponent returns a logger tagged with a different component.
func (l *Logger) WithComponent(component string) *Logger {
	return newLogger(l.root, component)
}

// Component returns the logger's component name.
func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs logger as the slog default.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
