package testutil

import (
	"testing"

	"github.com/kbukum/modelkit/factory"
	"github.com/kbukum/modelkit/logger"
)

// NewRegistry returns a registry that logs nothing and ignores the global
// catalog of declared initializers. Extra options are applied after those
// defaults.
func NewRegistry(tb testing.TB, opts ...factory.Option) *factory.Registry {
	tb.Helper()
	base := []factory.Option{
		factory.WithLogger(logger.NewNop()),
		factory.WithIsolation(),
	}
	return factory.NewRegistry(append(base, opts...)...)
}

// Swap installs p as the active provider of f and reinstalls the
// previously active provider when the test finishes.
func Swap[P factory.Provider](tb testing.TB, f *factory.Family[P], p P) {
	tb.Helper()
	prev := f.Provider()
	if err := f.Install(p); err != nil {
		tb.Fatalf("testutil: install into %s: %v", f.Key(), err)
	}
	tb.Cleanup(func() {
		if err := f.Install(prev); err != nil {
			tb.Errorf("testutil: restore %s: %v", f.Key(), err)
		}
	})
}

// Activate selects the named alternative of key for the duration of the
// test and restores the previously active provider afterwards.
func Activate[P factory.Provider](tb testing.TB, f *factory.Family[P], reg *factory.Registry, name string) {
	tb.Helper()
	prev := f.Provider()
	if err := reg.Activate(f.Key(), name); err != nil {
		tb.Fatalf("testutil: activate %s on %s: %v", name, f.Key(), err)
	}
	tb.Cleanup(func() {
		if err := f.Install(prev); err != nil {
			tb.Errorf("testutil: restore %s: %v", f.Key(), err)
		}
	})
}
