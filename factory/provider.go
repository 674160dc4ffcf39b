package factory

import (
	"fmt"
	"reflect"

	"github.com/kbukum/modelkit/errors"
)

// Key identifies a family. It is chosen once per family, usually the
// qualified name of the model interface ("model.RecordID").
type Key string

// String returns the key as a plain string.
func (k Key) String() string { return string(k) }

// Provider constructs instances of one abstract model type. Each family
// declares its own provider interface embedding Provider and adding the
// Create methods its callers need.
type Provider interface {
	// InterfaceType is the abstract model type every created object satisfies.
	InterfaceType() reflect.Type
	// ConcreteType is the type of the objects this provider creates.
	ConcreteType() reflect.Type
}

// Types is an embeddable Provider implementation carrying the abstract and
// concrete type descriptors.
//
//	type widgetProvider struct{ factory.Types }
//	p := widgetProvider{factory.TypesFor[Widget, *WidgetV1]()}
type Types struct {
	iface    reflect.Type
	concrete reflect.Type
}

// TypesFor returns the descriptors for abstract type I and concrete type C.
func TypesFor[I, C any]() Types {
	return Types{iface: reflect.TypeOf((*I)(nil)).Elem(), concrete: reflect.TypeOf((*C)(nil)).Elem()}
}

// InterfaceType implements Provider.
func (t Types) InterfaceType() reflect.Type { return t.iface }

// ConcreteType implements Provider.
func (t Types) ConcreteType() reflect.Type { return t.concrete }

// typeName renders a type descriptor for messages and diagnostics.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// validateProvider reads the provider's declared types and checks that they
// describe a usable family: an interface abstract type and a concrete type
// implementing it.
func validateProvider(key Key, p Provider) (iface, concrete reflect.Type, err error) {
	if isNil(p) {
		return nil, nil, errors.InvalidProvider(string(key), "provider is nil")
	}
	iface = p.InterfaceType()
	concrete = p.ConcreteType()
	switch {
	case iface == nil:
		return nil, nil, errors.InvalidProvider(string(key), "interface type is nil")
	case concrete == nil:
		return nil, nil, errors.InvalidProvider(string(key), "concrete type is nil")
	case iface.Kind() != reflect.Interface:
		return nil, nil, errors.InvalidProvider(string(key),
			fmt.Sprintf("%s is not an interface type", iface))
	case !concrete.Implements(iface):
		return nil, nil, errors.InvalidProvider(string(key),
			fmt.Sprintf("%s does not implement %s", concrete, iface))
	}
	return iface, concrete, nil
}

func isNil(p Provider) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// sameProvider reports whether a and b are the same provider value.
// Providers whose dynamic type is not comparable are never the same.
func sameProvider(a, b Provider) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if !reflect.ValueOf(a).Comparable() {
		return false
	}
	return a == b
}
