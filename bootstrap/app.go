package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/modelkit/config"
	"github.com/kbukum/modelkit/errors"
	"github.com/kbukum/modelkit/factory"
	"github.com/kbukum/modelkit/logger"
	"github.com/kbukum/modelkit/model"
	"github.com/kbukum/modelkit/observability"
	"github.com/kbukum/modelkit/validation"
)

const instrumentationName = "github.com/kbukum/modelkit"

var (
	defaultRegistry     *factory.Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry, creating it on first use.
// Library code should accept a *factory.Registry instead of calling this.
func DefaultRegistry() *factory.Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = factory.NewRegistry()
	})
	return defaultRegistry
}

// App owns the model registry of an application and its lifecycle.
// The type parameter C is the config type; any struct embedding
// config.ServiceConfig satisfies Config.
//
//	app, err := bootstrap.NewApp(&myConfig)
//	app.OnStart(installProviders)
//	err = app.Run(ctx)
type App[C Config] struct {
	Name     string
	Version  string
	Cfg      C
	Registry *factory.Registry
	// Models is set once Start has installed the model families.
	Models  *model.Models
	Logger  *logger.Logger
	Summary *Summary

	gracefulTimeout time.Duration

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp creates an application from a typed config. It applies defaults,
// validates the config and initializes the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	if err := validation.ValidateAny(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
	}

	o := resolveOptions(opts)
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	if o.registry != nil {
		app.Registry = o.registry
	} else {
		metrics := o.metrics
		if metrics == nil {
			m, err := observability.NewMetrics(observability.Meter(instrumentationName))
			if err != nil {
				return nil, fmt.Errorf("registry metrics: %w", err)
			}
			metrics = m
		}
		app.Registry = factory.NewRegistry(
			factory.WithLogger(app.Logger.WithComponent("factory")),
			factory.WithMetrics(metrics),
		)
	}

	app.Summary = NewSummary(base.Name, base.Version)
	if o.summaryOut != nil {
		app.Summary.SetOutput(o.summaryOut)
	}
	return app, nil
}

// Run executes the lifecycle of a long-running service: Start, block on a
// shutdown signal, then Shutdown.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop()
}

// RunTask executes a finite task with the full lifecycle. The task context
// is canceled on SIGINT or SIGTERM. The task error takes precedence over a
// shutdown error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("Received signal, canceling task", map[string]interface{}{
				"signal": sig.String(),
			})
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.stop(); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}
	return taskErr
}

// Start brings the registry up: telemetry, model families, OnStart hooks,
// configured overrides, OnReady hooks. Use it directly when managing your
// own lifecycle, paired with Shutdown.
func (a *App[C]) Start(ctx context.Context) error {
	start := time.Now()

	a.Logger.Info("Starting application", map[string]interface{}{
		"name":    a.Name,
		"version": a.Version,
	})

	if err := a.initTelemetry(ctx); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	if err := a.installModels(ctx); err != nil {
		return fmt.Errorf("install models: %w", err)
	}

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	if err := a.applyOverrides(ctx); err != nil {
		return fmt.Errorf("apply overrides: %w", err)
	}

	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.DisplaySummary()
	return nil
}

// DisplaySummary prints the startup summary for the registry's families.
func (a *App[C]) DisplaySummary() {
	a.Summary.DisplaySummary(a.Registry.Families(), a.Logger)
}

func (a *App[C]) initTelemetry(ctx context.Context) error {
	base := a.Cfg.GetServiceConfig()
	tc := base.Telemetry
	if !tc.Enabled {
		return nil
	}

	tracerCfg := observability.DefaultTracerConfig(base.Name)
	tracerCfg.ServiceVersion = base.Version
	tracerCfg.Environment = base.Environment
	tracerCfg.Endpoint = tc.Endpoint
	tracerCfg.Insecure = tc.Insecure
	tracerCfg.SampleRate = tc.SampleRate
	tp, err := observability.InitTracer(ctx, &tracerCfg)
	if err != nil {
		return err
	}
	a.tracerProvider = tp

	meterCfg := observability.DefaultMeterConfig(base.Name)
	meterCfg.ServiceVersion = base.Version
	meterCfg.Environment = base.Environment
	meterCfg.Endpoint = tc.Endpoint
	meterCfg.Insecure = tc.Insecure
	meterCfg.Interval = tc.Interval
	mp, err := observability.InitMeter(ctx, &meterCfg)
	if err != nil {
		return err
	}
	a.meterProvider = mp
	return nil
}

func (a *App[C]) installModels(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanInstallModels)
	defer span.End()

	if err := model.Install(a.Registry); err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	models, err := model.Open(a.Registry)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	a.Models = models

	a.Logger.Info("Model families installed", map[string]interface{}{
		"count": len(model.Keys()),
	})
	return nil
}

func (a *App[C]) applyOverrides(ctx context.Context) error {
	mc := a.Cfg.GetServiceConfig().Models
	if len(mc.Overrides) == 0 {
		return nil
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanApplyOverrides)
	defer span.End()

	for _, o := range mc.Overrides {
		err := a.Registry.Activate(factory.Key(o.Family), o.Alternative)
		if err == nil {
			a.Summary.TrackOverride(o, "")
			continue
		}
		if mc.Strict || !isUnknownTarget(err) {
			observability.SetSpanError(ctx, err)
			return err
		}
		a.Logger.WithFamily(o.Family).
			WithError(err).
			Warn("Skipping model override", logger.Fields(logger.FieldAlternative, o.Alternative))
		a.Summary.TrackOverride(o, string(errorCode(err)))
	}
	return nil
}

// isUnknownTarget reports whether err means the override names a family or
// alternative that does not exist. Only those are skippable.
func isUnknownTarget(err error) bool {
	return errors.IsCode(err, errors.ErrCodeFamilyNotFound) ||
		errors.IsCode(err, errors.ErrCodeAlternativeNotFound)
}

func errorCode(err error) errors.ErrorCode {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Code
	}
	return errors.ErrCodeInternal
}

// WaitForSignal blocks until SIGINT, SIGTERM or context cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal, graceful shutdown starting", map[string]interface{}{
			"signal": sig.String(),
		})
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown runs the OnStop hooks and flushes telemetry.
func (a *App[C]) Shutdown(ctx context.Context) error {
	return a.stop()
}

func (a *App[C]) stop() error {
	a.Logger.Info("Shutting down application", map[string]interface{}{
		"timeout": a.gracefulTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error

	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", logger.ErrorFields("on_stop", err))
		shutdownErr = err
	}

	if a.meterProvider != nil {
		if err := a.meterProvider.Shutdown(ctx); err != nil {
			a.Logger.Error("Meter provider shutdown error", logger.ErrorFields("meter_shutdown", err))
			if shutdownErr == nil {
				shutdownErr = err
			}
		}
		a.meterProvider = nil
	}
	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			a.Logger.Error("Tracer provider shutdown error", logger.ErrorFields("tracer_shutdown", err))
			if shutdownErr == nil {
				shutdownErr = err
			}
		}
		a.tracerProvider = nil
	}

	a.Logger.Info("Application shutdown complete")
	return shutdownErr
}

// ServiceConfig is a convenience for the embedded base config.
func (a *App[C]) ServiceConfig() *config.ServiceConfig {
	return a.Cfg.GetServiceConfig()
}
