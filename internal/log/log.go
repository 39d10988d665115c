package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type options struct {
	level  slog.Level
	source bool
	text   bool
	output io.Writer
}

// Option configures the logger built by New.
type Option func(*options)

// WithLevel - set the minimal level: debug, info, warn or error. Unknown values mean info.
func WithLevel(level string) Option {
	return func(o *options) {
		switch strings.ToLower(strings.TrimSpace(level)) {
		case "debug", "trace":
			o.level = slog.LevelDebug
		case "warn", "warning":
			o.level = slog.LevelWarn
		case "error":
			o.level = slog.LevelError
		default:
			o.level = slog.LevelInfo
		}
	}
}

// WithSource - add the source file and line to every record.
func WithSource() Option {
	return func(o *options) {
		o.source = true
	}
}

// WithFormat - "text" for human readable output, anything else is JSON.
func WithFormat(format string) Option {
	return func(o *options) {
		o.text = strings.EqualFold(format, "text")
	}
}

// WithOutput - redirect the output, stdout by default.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// New creates a new slog logger.
func New(opts ...Option) *slog.Logger {
	o := &options{
		level:  slog.LevelInfo,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}

	handlerOptions := &slog.HandlerOptions{
		AddSource: o.source,
		Level:     o.level,
	}

	var handler slog.Handler
	if o.text {
		handler = slog.NewTextHandler(o.output, handlerOptions)
	} else {
		handler = slog.NewJSONHandler(o.output, handlerOptions)
	}

	return slog.New(handler)
}

// Discard - logger for tests.
func Discard() *slog.Logger {
	return New(WithOutput(io.Discard))
}
