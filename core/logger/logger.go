package logger

import (
	"io"
	"log/slog"
	"os"
)

// Option configures the logger created by New.
type Option func(*options)

type options struct {
	level   slog.Leveler
	json    bool
	output  io.Writer
	attrs   []slog.Attr
	handler *slog.HandlerOptions
}

// New creates a *slog.Logger from the given options.
// Without options it produces a text logger at info level writing to stdout.
func New(opts ...Option) *slog.Logger {
	o := &options{
		level:  slog.LevelInfo,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}

	ho := o.handler
	if ho == nil {
		ho = &slog.HandlerOptions{Level: o.level}
	} else if ho.Level == nil {
		ho.Level = o.level
	}

	var h slog.Handler
	if o.json {
		h = slog.NewJSONHandler(o.output, ho)
	} else {
		h = slog.NewTextHandler(o.output, ho)
	}

	if len(o.attrs) > 0 {
		h = h.WithAttrs(o.attrs)
	}

	return slog.New(h)
}

// SetAsDefault installs the logger as the process-wide slog default.
func SetAsDefault(log *slog.Logger) {
	if log != nil {
		slog.SetDefault(log)
	}
}

// WithDevelopment configures a human-readable text logger at debug level,
// tagged with the application name.
func WithDevelopment(app string) Option {
	return func(o *options) {
		o.json = false
		o.level = slog.LevelDebug
		if app != "" {
			o.attrs = append(o.attrs, slog.String("app", app))
		}
	}
}

// WithProduction configures a JSON logger at info level,
// tagged with the application name.
func WithProduction(app string) Option {
	return func(o *options) {
		o.json = true
		o.level = slog.LevelInfo
		if app != "" {
			o.attrs = append(o.attrs, slog.String("app", app))
		}
	}
}

// WithStaging configures the same JSON info-level output as WithProduction.
func WithStaging(app string) Option {
	return WithProduction(app)
}

// WithLevel overrides the minimum log level.
func WithLevel(level slog.Leveler) Option {
	return func(o *options) {
		if level != nil {
			o.level = level
		}
	}
}

// WithJSONFormatter switches output to JSON regardless of environment preset.
func WithJSONFormatter() Option {
	return func(o *options) {
		o.json = true
	}
}

// WithTextFormatter switches output to the text handler.
func WithTextFormatter() Option {
	return func(o *options) {
		o.json = false
	}
}

// WithOutput redirects log output, typically to a buffer in tests.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithAttr attaches static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(o *options) {
		o.attrs = append(o.attrs, attrs...)
	}
}

// WithHandlerOptions supplies raw slog handler options for fine tuning.
// A nil Level inside falls back to the level set by other options.
func WithHandlerOptions(ho *slog.HandlerOptions) Option {
	return func(o *options) {
		if ho != nil {
			o.handler = ho
		}
	}
}
