package webresource

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/albertocavalcante/go-webresource/catalog"
	"github.com/albertocavalcante/go-webresource/label"
)

// Option configures a Manager or DependencyResolver.
type Option func(*config) error

// SuperBatchConfig describes the always-included global batch.
type SuperBatchConfig struct {
	// Enabled turns the super-batch on.
	Enabled bool

	// Modules are the root keys whose closure forms the super-batch.
	Modules []label.Key

	// Version returns the externally owned version token. The memoized
	// closure is recomputed whenever the returned value changes.
	Version func() string
}

// config holds all configuration.
type config struct {
	superBatch  SuperBatchConfig
	baseURL     string
	devMode     bool
	batchParams []string
	registerer  prometheus.Registerer

	// logger is the structured logger for debug/info output.
	// If nil, logging is disabled (silent mode).
	logger *slog.Logger
}

// WithSuperBatch enables the super-batch.
func WithSuperBatch(modules []label.Key, version func() string) Option {
	return func(c *config) error {
		c.superBatch = SuperBatchConfig{
			Enabled: true,
			Modules: slices.Clone(modules),
			Version: version,
		}
		return nil
	}
}

// WithBaseURL sets the base URL used for absolute and relative URLs, e.g.
// "https://example.com/jira" or "/jira".
func WithBaseURL(baseURL string) Option {
	return func(c *config) error {
		c.baseURL = baseURL
		return nil
	}
}

// WithDevMode disables hash-based cache busting in generated URLs.
func WithDevMode(dev bool) Option {
	return func(c *config) error {
		c.devMode = dev
		return nil
	}
}

// WithBatchParams replaces the set of discriminating batch parameters.
// The default is catalog.BatchParams.
func WithBatchParams(names ...string) Option {
	return func(c *config) error {
		if len(names) == 0 {
			return errors.New("batch params cannot be empty")
		}
		c.batchParams = slices.Clone(names)
		return nil
	}
}

// WithMetrics registers Prometheus collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) error {
		c.registerer = reg
		return nil
	}
}

// WithLogger sets a structured logger for resolution diagnostics.
// If not set, logging is disabled (silent mode).
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("component", "webresource")
//	m, err := webresource.New(cat, webresource.WithLogger(logger))
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

// validate checks the configuration for logical consistency.
func (c *config) validate() error {
	if c.superBatch.Enabled {
		if len(c.superBatch.Modules) == 0 {
			return errors.New("super-batch requires at least one module")
		}
		if c.superBatch.Version == nil {
			return errors.New("super-batch requires a version function")
		}
	}
	return nil
}

// log returns the configured logger, or a no-op logger if none was set.
func (c *config) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(discardHandler{})
}

// discardHandler is a slog.Handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// newConfig applies the given options and validates the result.
func newConfig(opts ...Option) (*config, error) {
	c := &config{batchParams: catalog.BatchParams}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}
