package factory

import (
	"context"
	"fmt"
	"reflect"
)

// Family is a typed handle on one family state. Handles are cheap and hold
// nothing but the state pointer, so every handle for a key observes the same
// active provider.
type Family[P Provider] struct {
	state *State
}

// Register returns a handle for key, creating the family with def as its
// default provider if it does not exist yet.
func Register[P Provider](reg *Registry, key Key, def P) (*Family[P], error) {
	s, err := reg.GetOrCreateState(key, def)
	if err != nil {
		return nil, err
	}
	return bindFamily[P](reg, s)
}

// Lookup returns a handle for an existing family, running the family's
// declared initializer once if it has not been registered yet.
func Lookup[P Provider](reg *Registry, key Key) (*Family[P], error) {
	s, err := reg.State(key)
	if err != nil {
		return nil, err
	}
	return bindFamily[P](reg, s)
}

// MustRegister is like Register but panics on error.
func MustRegister[P Provider](reg *Registry, key Key, def P) *Family[P] {
	f, err := Register(reg, key, def)
	if err != nil {
		panic(fmt.Sprintf("factory: register %s: %v", key, err))
	}
	return f
}

// MustLookup is like Lookup but panics on error.
func MustLookup[P Provider](reg *Registry, key Key) *Family[P] {
	f, err := Lookup[P](reg, key)
	if err != nil {
		panic(fmt.Sprintf("factory: lookup %s: %v", key, err))
	}
	return f
}

func bindFamily[P Provider](reg *Registry, s *State) (*Family[P], error) {
	if err := s.bind(reflect.TypeOf((*P)(nil)).Elem()); err != nil {
		reg.recordError(err, s.key)
		return nil, err
	}
	return &Family[P]{state: s}, nil
}

// Key returns the family key.
func (f *Family[P]) Key() Key { return f.state.key }

// StateID returns the identifier of the shared state.
func (f *Family[P]) StateID() string { return f.state.id.String() }

// State returns the shared state behind the handle.
func (f *Family[P]) State() *State { return f.state }

// InterfaceType returns the family's abstract model type.
func (f *Family[P]) InterfaceType() reflect.Type { return f.state.interfaceType }

// ConcreteType returns the concrete type produced by the active provider.
func (f *Family[P]) ConcreteType() reflect.Type { return f.state.ConcreteType() }

// Provider returns the active provider. Callers create objects with the
// returned value, so a concurrent Install affects only later calls.
func (f *Family[P]) Provider() P {
	p := f.state.ActiveProvider()
	f.state.reg.metrics.RecordResolve(context.Background(), string(f.state.key))
	return p.(P)
}

// Default returns the provider the family was registered with.
func (f *Family[P]) Default() P {
	return f.state.defaultProvider.(P)
}

// Install makes p the active provider for every handle of the family. The
// provider must serve the family's abstract type; its concrete type may
// differ from the default. Objects created earlier are not affected.
func (f *Family[P]) Install(p P) error {
	_, err := f.state.install(p)
	return err
}

// Reset reinstalls the default provider.
func (f *Family[P]) Reset() error {
	_, err := f.state.install(f.state.defaultProvider)
	return err
}

// Overridden reports whether a provider other than the default is active.
func (f *Family[P]) Overridden() bool {
	return !sameProvider(f.state.ActiveProvider(), f.state.defaultProvider)
}

// Offer registers p as a named alternative that Registry.Activate can
// install later, typically from configuration.
func (f *Family[P]) Offer(name string, p P) error {
	return f.state.offer(name, p)
}

// Alternatives returns the sorted names of the offered alternatives.
func (f *Family[P]) Alternatives() []string {
	return f.state.alternativeNames()
}

// Info returns a diagnostic snapshot of the family.
func (f *Family[P]) Info() FamilyInfo {
	return f.state.Info()
}
