package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/modelkit/factory"
	"github.com/kbukum/modelkit/logger"
	"github.com/kbukum/modelkit/observability"
)

// Option configures the App during creation.
// Options are non-generic so they can be used with any config type.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	registry        *factory.Registry
	metrics         *observability.Metrics
	summaryOut      io.Writer
	gracefulTimeout *time.Duration
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is initialized from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithRegistry makes the application install its models into reg. Without
// it NewApp creates a new registry wired to the application logger and
// metrics; DefaultRegistry is never used implicitly.
func WithRegistry(reg *factory.Registry) Option {
	return func(o *appOptions) {
		o.registry = reg
	}
}

// WithMetrics sets the metric instruments handed to a registry created by
// the application. It has no effect together with WithRegistry.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *appOptions) {
		o.metrics = m
	}
}

// WithSummaryOutput redirects the startup summary. Pass io.Discard to
// silence it.
func WithSummaryOutput(w io.Writer) Option {
	return func(o *appOptions) {
		o.summaryOut = w
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}
