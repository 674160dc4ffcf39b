package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/modelkit/config"
	"github.com/kbukum/modelkit/errors"
	"github.com/kbukum/modelkit/factory"
	"github.com/kbukum/modelkit/logger"
	"github.com/kbukum/modelkit/model"
)

// testConfig is a minimal config that satisfies the Config interface.
type testConfig struct {
	config.ServiceConfig
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

func newTestApp(t *testing.T, cfg *testConfig, opts ...Option) (*App[*testConfig], *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{
		WithLogger(logger.NewNop()),
		WithRegistry(factory.NewRegistry(factory.WithLogger(logger.NewNop()))),
		WithSummaryOutput(&out),
	}, opts...)
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app, &out
}

func TestNewApp(t *testing.T) {
	cfg := newTestConfig("test-svc", "1.0.0")
	app, err := NewApp(cfg, WithSummaryOutput(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Name != "test-svc" {
		t.Errorf("expected name 'test-svc', got %q", app.Name)
	}
	if app.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", app.Version)
	}
	if app.Registry == nil {
		t.Error("expected non-nil registry")
	}
	if app.Registry == DefaultRegistry() {
		t.Error("expected an application registry, not the process-wide one")
	}
	if app.Logger == nil {
		t.Error("expected non-nil logger")
	}
	if app.Models != nil {
		t.Error("models should not be set before Start")
	}
	if app.Cfg.Name != "test-svc" {
		t.Errorf("expected cfg.Name 'test-svc', got %q", app.Cfg.Name)
	}
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("expected default graceful timeout, got %s", app.gracefulTimeout)
	}
}

func TestNewAppAppliesDefaults(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "svc"}}
	app, _ := newTestApp(t, cfg)
	if app.Cfg.Environment != "development" {
		t.Errorf("expected default environment, got %q", app.Cfg.Environment)
	}
	if app.Cfg.Logging.Level == "" {
		t.Error("expected logging defaults to be applied")
	}
}

func TestNewAppValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*testConfig)
		errMsg string
	}{
		{"missing name", func(c *testConfig) { c.Name = "" }, "config.name is required"},
		{"bad environment", func(c *testConfig) { c.Environment = "qa" }, "config.environment"},
		{"bad override", func(c *testConfig) {
			c.Models.Overrides = []config.Override{{Family: "model.RecordID"}}
		}, "config.models"},
		{"bad sample rate", func(c *testConfig) {
			c.Telemetry = config.TelemetryConfig{Enabled: true, SampleRate: 2}
		}, "sample_rate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := newTestConfig("svc", "1.0.0")
			tc.modify(cfg)
			_, err := NewApp(cfg, WithLogger(logger.NewNop()))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
			}
		})
	}
}

func TestNewAppOptions(t *testing.T) {
	reg := factory.NewRegistry(factory.WithLogger(logger.NewNop()))
	l := logger.NewNop()
	app, err := NewApp(newTestConfig("svc", "1.0.0"),
		WithRegistry(reg),
		WithLogger(l),
		WithGracefulTimeout(3*time.Second),
	)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Registry != reg {
		t.Error("expected the supplied registry")
	}
	if app.Logger != l {
		t.Error("expected the supplied logger")
	}
	if app.gracefulTimeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", app.gracefulTimeout)
	}
}

func TestNewAppCreatesOwnRegistry(t *testing.T) {
	a, err := NewApp(newTestConfig("svc", "1.0.0"), WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	b, err := NewApp(newTestConfig("svc", "1.0.0"), WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if a.Registry == nil || a.Registry == DefaultRegistry() {
		t.Error("expected a registry separate from DefaultRegistry")
	}
	if a.Registry == b.Registry {
		t.Error("expected each application to get its own registry")
	}
}

func TestStartInstallsModels(t *testing.T) {
	app, out := newTestApp(t, newTestConfig("catalog", "2.0.0"))
	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if app.Models == nil {
		t.Fatal("expected models after Start")
	}
	keys := app.Registry.Keys()
	for _, k := range model.Keys() {
		if !slices.Contains(keys, k) {
			t.Errorf("expected family %s in registry, got %v", k, keys)
		}
	}

	id := app.Models.RecordIDs.Create(" customers ", "1001")
	if id.DataSourceCode() != "CUSTOMERS" {
		t.Errorf("expected default provider, got %q", id.DataSourceCode())
	}

	s := out.String()
	for _, want := range []string{"catalog v2.0.0", "model.RecordID", "alternatives: verbatim"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestStartAppliesOverrides(t *testing.T) {
	cfg := newTestConfig("svc", "1.0.0")
	cfg.Models.Overrides = []config.Override{{Family: string(model.RecordIDKey), Alternative: model.AltVerbatim}}
	app, out := newTestApp(t, cfg)

	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	id := app.Models.RecordIDs.Create("customers", "1001")
	if id.DataSourceCode() != "customers" {
		t.Errorf("expected verbatim data source, got %q", id.DataSourceCode())
	}

	overrides := app.Summary.Overrides()
	if len(overrides) != 1 || !overrides[0].Applied {
		t.Fatalf("expected one applied override, got %+v", overrides)
	}
	for _, info := range app.Registry.Families() {
		if info.Key == model.RecordIDKey && !info.Overridden {
			t.Error("expected RecordID family to report an override")
		}
	}
	if !strings.Contains(out.String(), "model.RecordID = verbatim") {
		t.Errorf("summary missing applied override:\n%s", out.String())
	}
}

func TestStartOverrideErrors(t *testing.T) {
	tests := []struct {
		name     string
		override config.Override
		strict   bool
		wantCode errors.ErrorCode
	}{
		{"unknown family skipped", config.Override{Family: "model.Missing", Alternative: "x"}, false, errors.ErrCodeFamilyNotFound},
		{"unknown alternative skipped", config.Override{Family: string(model.RecordIDKey), Alternative: "nope"}, false, errors.ErrCodeAlternativeNotFound},
		{"unknown family strict", config.Override{Family: "model.Missing", Alternative: "x"}, true, errors.ErrCodeFamilyNotFound},
		{"unknown alternative strict", config.Override{Family: string(model.DataSourceKey), Alternative: "nope"}, true, errors.ErrCodeAlternativeNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := newTestConfig("svc", "1.0.0")
			cfg.Models.Strict = tc.strict
			cfg.Models.Overrides = []config.Override{tc.override}
			var logs bytes.Buffer
			app, out := newTestApp(t, cfg,
				WithLogger(logger.NewWithWriter(&logs, &logger.Config{Format: "json"}, "svc")))

			err := app.Start(context.Background())
			if tc.strict {
				if !errors.IsCode(err, tc.wantCode) {
					t.Fatalf("expected %s, got %v", tc.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected override to be skipped, got %v", err)
			}
			overrides := app.Summary.Overrides()
			if len(overrides) != 1 || overrides[0].Applied {
				t.Fatalf("expected one skipped override, got %+v", overrides)
			}
			if overrides[0].Reason != string(tc.wantCode) {
				t.Errorf("expected reason %s, got %s", tc.wantCode, overrides[0].Reason)
			}
			if !strings.Contains(out.String(), "skipped") {
				t.Errorf("summary missing skipped override:\n%s", out.String())
			}
			for _, want := range []string{
				`"message":"Skipping model override"`,
				`"family":"` + tc.override.Family + `"`,
				`"alternative":"` + tc.override.Alternative + `"`,
			} {
				if !strings.Contains(logs.String(), want) {
					t.Errorf("expected %s in log output:\n%s", want, logs.String())
				}
			}
		})
	}
}

func TestStartHookOrder(t *testing.T) {
	cfg := newTestConfig("svc", "1.0.0")
	cfg.Models.Overrides = []config.Override{{Family: string(model.RecordIDKey), Alternative: model.AltVerbatim}}
	app, _ := newTestApp(t, cfg)

	var order []string
	app.OnStart(func(ctx context.Context) error {
		if app.Models == nil {
			t.Error("models should be installed before OnStart")
		}
		// Overrides have not run yet.
		if app.Models.RecordIDs.Family().Overridden() {
			t.Error("override applied before OnStart")
		}
		order = append(order, "start")
		return nil
	})
	app.OnReady(func(ctx context.Context) error {
		if !app.Models.RecordIDs.Family().Overridden() {
			t.Error("override not applied before OnReady")
		}
		order = append(order, "ready")
		return nil
	})
	app.OnStop(func(ctx context.Context) error {
		order = append(order, "stop")
		return nil
	})

	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !slices.Equal(order, []string{"start", "ready", "stop"}) {
		t.Errorf("unexpected hook order %v", order)
	}
}

func TestStartHookInstallsProvider(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("svc", "1.0.0"))
	app.OnStart(func(ctx context.Context) error {
		return app.Models.RecordIDs.Family().Install(model.VerbatimRecordIDProvider())
	})
	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := app.Models.RecordIDs.Create("mixed", "1").DataSourceCode(); got != "mixed" {
		t.Errorf("expected installed provider to be active, got %q", got)
	}
}

func TestStartHookErrors(t *testing.T) {
	boom := fmt.Errorf("boom")
	tests := []struct {
		name   string
		setup  func(*App[*testConfig])
		errMsg string
	}{
		{"onStart", func(a *App[*testConfig]) {
			a.OnStart(func(context.Context) error { return boom })
		}, "onStart hook failed"},
		{"onReady", func(a *App[*testConfig]) {
			a.OnReady(func(context.Context) error { return boom })
		}, "onReady hook failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app, _ := newTestApp(t, newTestConfig("svc", "1.0.0"))
			tc.setup(app)
			err := app.Start(context.Background())
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Fatalf("expected %q error, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestRunTask(t *testing.T) {
	t.Run("runs task then stops", func(t *testing.T) {
		app, _ := newTestApp(t, newTestConfig("svc", "1.0.0"))
		stopped := false
		app.OnStop(func(context.Context) error {
			stopped = true
			return nil
		})

		var created model.RecordID
		err := app.RunTask(context.Background(), func(ctx context.Context) error {
			created = app.Models.RecordIDs.Create("src", "1")
			return nil
		})
		if err != nil {
			t.Fatalf("RunTask failed: %v", err)
		}
		if created == nil || created.ID() != "1" {
			t.Errorf("task did not run against installed models: %v", created)
		}
		if !stopped {
			t.Error("expected OnStop hook to run")
		}
	})

	t.Run("task error wins over stop error", func(t *testing.T) {
		app, _ := newTestApp(t, newTestConfig("svc", "1.0.0"))
		app.OnStop(func(context.Context) error { return fmt.Errorf("stop failed") })

		taskErr := fmt.Errorf("task failed")
		err := app.RunTask(context.Background(), func(context.Context) error { return taskErr })
		if err != taskErr {
			t.Errorf("expected task error, got %v", err)
		}
	})

	t.Run("stop error returned when task succeeds", func(t *testing.T) {
		app, _ := newTestApp(t, newTestConfig("svc", "1.0.0"))
		app.OnStop(func(context.Context) error { return fmt.Errorf("stop failed") })

		err := app.RunTask(context.Background(), func(context.Context) error { return nil })
		if err == nil || !strings.Contains(err.Error(), "stop failed") {
			t.Errorf("expected stop error, got %v", err)
		}
	})

	t.Run("start failure skips task", func(t *testing.T) {
		cfg := newTestConfig("svc", "1.0.0")
		cfg.Models.Strict = true
		cfg.Models.Overrides = []config.Override{{Family: "model.Missing", Alternative: "x"}}
		app, _ := newTestApp(t, cfg)

		ran := false
		err := app.RunTask(context.Background(), func(context.Context) error {
			ran = true
			return nil
		})
		if err == nil {
			t.Fatal("expected start error")
		}
		if ran {
			t.Error("task must not run when start fails")
		}
	})
}

func TestRunStopsOnContextCancel(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("svc", "1.0.0"))
	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error {
		cancel()
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestDefaultRegistry(t *testing.T) {
	a := DefaultRegistry()
	b := DefaultRegistry()
	if a == nil || a != b {
		t.Fatal("expected one process-wide registry")
	}
}

func TestSummaryNoFamilies(t *testing.T) {
	var buf bytes.Buffer
	s := NewSummary("svc", "0.1.0")
	s.SetOutput(&buf)
	s.SetStartupDuration(1500 * time.Millisecond)
	s.DisplaySummary(nil, nil)

	out := buf.String()
	if !strings.Contains(out, "svc v0.1.0 started in 1.50s") {
		t.Errorf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "No families registered") {
		t.Errorf("expected empty family note:\n%s", out)
	}
	if strings.Contains(out, "Overrides") {
		t.Errorf("no overrides section expected:\n%s", out)
	}
}

func TestSummaryTrackOverride(t *testing.T) {
	s := NewSummary("svc", "1")
	s.TrackOverride(config.Override{Family: "a.B", Alternative: "x"}, "")
	s.TrackOverride(config.Override{Family: "c.D", Alternative: "y"}, "FAMILY_NOT_FOUND")

	got := s.Overrides()
	if len(got) != 2 {
		t.Fatalf("expected 2 overrides, got %d", len(got))
	}
	if !got[0].Applied || got[1].Applied || got[1].Reason != "FAMILY_NOT_FOUND" {
		t.Errorf("unexpected overrides %+v", got)
	}

	got[0].Family = "mutated"
	if s.Overrides()[0].Family != "a.B" {
		t.Error("Overrides must return a copy")
	}
}
