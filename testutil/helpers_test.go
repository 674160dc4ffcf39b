package testutil

import (
	"testing"

	"github.com/kbukum/modelkit/errors"
	"github.com/kbukum/modelkit/factory"
)

type Shape interface{ Sides() int }

type square struct{}

func (square) Sides() int { return 4 }

type triangle struct{}

func (triangle) Sides() int { return 3 }

type shapeProvider struct {
	factory.Types
	newShape func() Shape
}

func squares() *shapeProvider {
	return &shapeProvider{factory.TypesFor[Shape, square](), func() Shape { return square{} }}
}

func triangles() *shapeProvider {
	return &shapeProvider{factory.TypesFor[Shape, triangle](), func() Shape { return triangle{} }}
}

const shapeKey factory.Key = "test.Shape"

func TestNewRegistryIsolated(t *testing.T) {
	factory.Declare("test.DeclaredOnly", func(reg *factory.Registry) error {
		_, err := factory.Register(reg, "test.DeclaredOnly", squares())
		return err
	})
	reg := NewRegistry(t)
	if _, err := reg.State("test.DeclaredOnly"); !errors.IsCode(err, errors.ErrCodeFamilyNotFound) {
		t.Fatalf("expected FAMILY_NOT_FOUND from isolated registry, got %v", err)
	}
}

func TestSwapRestores(t *testing.T) {
	reg := NewRegistry(t)
	f := factory.MustRegister(reg, shapeKey, squares())

	t.Run("swapped", func(t *testing.T) {
		Swap(t, f, triangles())
		if got := f.Provider().newShape().Sides(); got != 3 {
			t.Errorf("expected swapped provider, got %d sides", got)
		}
	})

	if got := f.Provider().newShape().Sides(); got != 4 {
		t.Errorf("expected default provider restored, got %d sides", got)
	}
}

func TestActivateRestores(t *testing.T) {
	reg := NewRegistry(t)
	f := factory.MustRegister(reg, shapeKey, squares())
	if err := f.Offer("triangles", triangles()); err != nil {
		t.Fatalf("Offer failed: %v", err)
	}

	t.Run("activated", func(t *testing.T) {
		Activate(t, f, reg, "triangles")
		if !f.Overridden() {
			t.Error("expected alternative to be active")
		}
	})

	if f.Overridden() {
		t.Error("expected default provider restored")
	}
}
