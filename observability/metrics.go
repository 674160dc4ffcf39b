package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/modelkit/logger"
)

// Metric instrument names.
const (
	MetricFamiliesRegistered = "modelkit.family.registered"
	MetricProviderInstalls   = "modelkit.provider.installs"
	MetricProviderResolves   = "modelkit.provider.resolutions"
	MetricForcedInit         = "modelkit.family.forced_init"
	MetricRegistryErrors     = "modelkit.registry.errors"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows insecure connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by a model registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registered metric.Int64Counter
	installs   metric.Int64Counter
	resolves   metric.Int64Counter
	forcedInit metric.Int64Counter
	errors     metric.Int64Counter
}

// NewMetrics creates registry instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	registered, err := meter.Int64Counter(MetricFamiliesRegistered,
		metric.WithDescription("Family states created"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricFamiliesRegistered, err)
	}

	installs, err := meter.Int64Counter(MetricProviderInstalls,
		metric.WithDescription("Active provider replacements"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricProviderInstalls, err)
	}

	resolves, err := meter.Int64Counter(MetricProviderResolves,
		metric.WithDescription("Active provider reads served to creation calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricProviderResolves, err)
	}

	forcedInit, err := meter.Int64Counter(MetricForcedInit,
		metric.WithDescription("Lookups that had to run the family initializer"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricForcedInit, err)
	}

	errorsTotal, err := meter.Int64Counter(MetricRegistryErrors,
		metric.WithDescription("Registry errors by code and family"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRegistryErrors, err)
	}

	return &Metrics{
		registered: registered,
		installs:   installs,
		resolves:   resolves,
		forcedInit: forcedInit,
		errors:     errorsTotal,
	}, nil
}

// RecordFamilyRegistered records the creation of a family state.
func (m *Metrics) RecordFamilyRegistered(ctx context.Context, family string) {
	if m == nil {
		return
	}
	m.registered.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrFamily, family)))
}

// RecordInstall records an active provider replacement.
func (m *Metrics) RecordInstall(ctx context.Context, family, concreteType string) {
	if m == nil {
		return
	}
	m.installs.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrFamily, family),
		attribute.String(AttrConcreteType, concreteType),
	))
}

// RecordResolve records one active provider read.
func (m *Metrics) RecordResolve(ctx context.Context, family string) {
	if m == nil {
		return
	}
	m.resolves.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrFamily, family)))
}

// RecordForcedInit records a lookup miss that ran the family initializer.
func (m *Metrics) RecordForcedInit(ctx context.Context, family string, found bool) {
	if m == nil {
		return
	}
	outcome := "resolved"
	if !found {
		outcome = "missing"
	}
	m.forcedInit.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrFamily, family),
		attribute.String(AttrOutcome, outcome),
	))
}

// RecordError records a registry error by code.
func (m *Metrics) RecordError(ctx context.Context, code, family string) {
	if m == nil {
		return
	}
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrErrorCode, code),
		attribute.String(AttrFamily, family),
	))
}
