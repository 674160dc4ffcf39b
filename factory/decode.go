package factory

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/modelkit/errors"
	"github.com/kbukum/modelkit/validation"
)

// Payload formats accepted by the decode helpers.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Normalizer is implemented by concrete types that canonicalise their
// fields after decoding. Normalize runs before validation.
type Normalizer interface {
	Normalize()
}

// DecodeJSON decodes data into a new value of the active concrete type,
// normalizes and validates it. The result satisfies the family's abstract type.
func (f *Family[P]) DecodeJSON(data []byte) (any, error) {
	return f.decode(FormatJSON, data, func(target any) error {
		dec := json.NewDecoder(bytes.NewReader(data))
		return dec.Decode(target)
	})
}

// DecodeYAML is DecodeJSON for YAML payloads.
func (f *Family[P]) DecodeYAML(data []byte) (any, error) {
	return f.decode(FormatYAML, data, func(target any) error {
		return yaml.Unmarshal(data, target)
	})
}

func (f *Family[P]) decode(format string, data []byte, unmarshal func(any) error) (any, error) {
	key := string(f.state.key)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.DecodeFailed(key, format, errors.InvalidInput("data", "payload is empty"))
	}

	concrete := f.ConcreteType()
	target, result := newTarget(concrete)
	if target == nil {
		return nil, errors.DecodeFailed(key, format,
			errors.InvalidInput("type", concrete.String()+" cannot be decoded"))
	}
	if err := unmarshal(target); err != nil {
		return nil, errors.DecodeFailed(key, format, err)
	}
	if n, ok := target.(Normalizer); ok {
		n.Normalize()
	}
	if err := validation.ValidateAny(target); err != nil {
		return nil, errors.DecodeFailed(key, format, err)
	}
	return result(), nil
}

// newTarget allocates a value of type t to decode into. It returns the
// pointer to pass to the decoder and a func yielding the value as t.
func newTarget(t reflect.Type) (any, func() any) {
	switch t.Kind() {
	case reflect.Pointer:
		v := reflect.New(t.Elem())
		return v.Interface(), v.Interface
	case reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, nil
	default:
		v := reflect.New(t)
		return v.Interface(), func() any { return v.Elem().Interface() }
	}
}

// KnownProperties returns the JSON property names of the active concrete
// type in declaration order. Embedded structs contribute their fields.
func (f *Family[P]) KnownProperties() []string {
	return jsonProperties(f.ConcreteType())
}

func jsonProperties(t reflect.Type) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var names []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("json")
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			continue
		}
		if field.Anonymous && name == "" {
			names = append(names, jsonProperties(field.Type)...)
			continue
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		names = append(names, name)
	}
	return names
}
