package factory

import (
	"strings"
	"testing"

	"github.com/kbukum/modelkit/logger"
)

const widgetKey Key = "factory_test.Widget"

type Widget interface {
	Kind() string
}

type WidgetV1 struct {
	Name string `json:"name" yaml:"name" validate:"required"`
}

func (w *WidgetV1) Kind() string { return "v1" }

func (w *WidgetV1) Normalize() { w.Name = strings.TrimSpace(w.Name) }

type WidgetV2 struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

func (w *WidgetV2) Kind() string { return "v2" }

type Gadget interface {
	Spin() int
}

type GadgetV1 struct{}

func (GadgetV1) Spin() int { return 1 }

// WidgetProvider is the provider contract for the Widget family.
type WidgetProvider interface {
	Provider
	Create(name string) Widget
}

type widgetV1Provider struct{ Types }

func newWidgetV1() widgetV1Provider {
	return widgetV1Provider{TypesFor[Widget, *WidgetV1]()}
}

func (widgetV1Provider) Create(name string) Widget { return &WidgetV1{Name: name} }

type widgetV2Provider struct {
	Types
	color string
}

func newWidgetV2(color string) widgetV2Provider {
	return widgetV2Provider{Types: TypesFor[Widget, *WidgetV2](), color: color}
}

func (p widgetV2Provider) Create(name string) Widget { return &WidgetV2{Name: name, Color: p.color} }

// mislabeledProvider satisfies the Go contract but declares the Gadget family.
type mislabeledProvider struct{ Types }

func newMislabeled() mislabeledProvider {
	return mislabeledProvider{TypesFor[Gadget, GadgetV1]()}
}

func (mislabeledProvider) Create(name string) Widget { return &WidgetV1{Name: name} }

func newTestRegistry(opts ...Option) *Registry {
	opts = append([]Option{WithIsolation(), WithLogger(logger.NewNop())}, opts...)
	return NewRegistry(opts...)
}

func newWidgetFamily(t *testing.T, opts ...Option) (*Registry, *Family[WidgetProvider]) {
	t.Helper()
	reg := newTestRegistry(opts...)
	f, err := Register[WidgetProvider](reg, widgetKey, newWidgetV1())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return reg, f
}
