package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Format selects the logger output encoding.
type Format string

const (
	// FormatJSON emits structured records for log aggregation.
	FormatJSON Format = "json"
	// FormatText emits human-readable records for local development.
	FormatText Format = "text"
)

// Option configures logger creation.
type Option func(*config)

func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithFormat sets the output format. Invalid formats panic so that a
// misconfigured service fails at startup instead of at first log call.
func WithFormat(f Format) Option {
	return func(c *config) {
		switch f {
		case FormatJSON, FormatText:
			c.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

// WithOutput sets a custom output destination. Nil writers are ignored.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithAttr attaches static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) {
		if len(attrs) > 0 {
			c.attrs = append(c.attrs, attrs...)
		}
	}
}

// WithContextExtractors registers functions that pull request-scoped
// attributes out of the context at log time. Nil extractors are dropped.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		for _, ex := range extractors {
			if ex != nil {
				c.extractors = append(c.extractors, ex)
			}
		}
	}
}

// WithDevelopment configures text output at debug level tagged with the
// service name.
func WithDevelopment(service string) Option {
	return func(c *config) {
		if service == "" {
			return
		}
		c.level = slog.LevelDebug
		c.format = FormatText
		c.attrs = append(c.attrs,
			slog.String("service", service),
			slog.String("env", "development"),
		)
	}
}

// WithProduction configures JSON output at info level tagged with the
// service name.
func WithProduction(service string) Option {
	return func(c *config) {
		if service == "" {
			return
		}
		c.level = slog.LevelInfo
		c.format = FormatJSON
		c.attrs = append(c.attrs,
			slog.String("service", service),
			slog.String("env", "production"),
		)
	}
}

// WithEnvironment picks production or development defaults from an
// environment name.
func WithEnvironment(env, service string) Option {
	return func(c *config) {
		switch env {
		case "production", "prod":
			WithProduction(service)(c)
		default:
			WithDevelopment(service)(c)
		}
	}
}

type config struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

func defaultConfig() *config {
	return &config{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
	}
}

// New creates a configured slog.Logger. The returned logger injects
// context attributes registered via WithContextExtractors on every record.
func New(opts ...Option) *slog.Logger {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}

	var handler slog.Handler
	if cfg.format == FormatText {
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	}

	if len(cfg.attrs) > 0 {
		handler = handler.WithAttrs(cfg.attrs)
	}

	return slog.New(newContextHandler(handler, cfg.extractors...))
}
