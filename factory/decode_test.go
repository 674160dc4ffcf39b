package factory

import (
	"reflect"
	"testing"

	"github.com/kbukum/modelkit/errors"
)

func TestDecodeJSONUsesActiveConcreteType(t *testing.T) {
	_, f := newWidgetFamily(t)

	v, err := f.DecodeJSON([]byte(`{"name":"first"}`))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	w1, ok := v.(*WidgetV1)
	if !ok || w1.Name != "first" {
		t.Fatalf("expected *WidgetV1{first}, got %#v", v)
	}

	if err := f.Install(newWidgetV2("")); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	v, err = f.DecodeJSON([]byte(`{"name":"second","color":"teal"}`))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	w2, ok := v.(*WidgetV2)
	if !ok || w2.Color != "teal" {
		t.Fatalf("expected *WidgetV2 with color, got %#v", v)
	}
	if _, ok := v.(Widget); !ok {
		t.Error("decoded value must satisfy the abstract type")
	}
}

func TestDecodeNormalizesBeforeValidation(t *testing.T) {
	_, f := newWidgetFamily(t)
	tests := []struct {
		name string
		json bool
		data string
	}{
		{"json", true, `{"name":"  padded  "}`},
		{"yaml", false, "name: '  padded  '\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var v any
			var err error
			if tc.json {
				v, err = f.DecodeJSON([]byte(tc.data))
			} else {
				v, err = f.DecodeYAML([]byte(tc.data))
			}
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if got := v.(*WidgetV1).Name; got != "padded" {
				t.Errorf("expected normalized name, got %q", got)
			}
		})
	}
}

func TestDecodeYAML(t *testing.T) {
	_, f := newWidgetFamily(t)
	if err := f.Install(newWidgetV2("")); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	v, err := f.DecodeYAML([]byte("name: yaml-widget\ncolor: amber\n"))
	if err != nil {
		t.Fatalf("DecodeYAML failed: %v", err)
	}
	w := v.(*WidgetV2)
	if w.Name != "yaml-widget" || w.Color != "amber" {
		t.Errorf("unexpected decode result %+v", w)
	}
}

func TestDecodeFailures(t *testing.T) {
	_, f := newWidgetFamily(t)
	tests := []struct {
		name string
		data string
		yaml bool
	}{
		{"empty", "  ", false},
		{"malformed json", `{"name":`, false},
		{"wrong type", `{"name":42}`, false},
		{"fails validation", `{}`, false},
		{"blank after normalize", `{"name":"   "}`, false},
		{"malformed yaml", "name: [unclosed", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			if tc.yaml {
				_, err = f.DecodeYAML([]byte(tc.data))
			} else {
				_, err = f.DecodeJSON([]byte(tc.data))
			}
			if !errors.IsCode(err, errors.ErrCodeDecodeFailed) {
				t.Fatalf("expected DECODE_FAILED, got %v", err)
			}
			appErr, _ := errors.AsAppError(err)
			if appErr.Details["family"] != string(widgetKey) {
				t.Errorf("expected family detail, got %v", appErr.Details)
			}
		})
	}
}

func TestKnownProperties(t *testing.T) {
	_, f := newWidgetFamily(t)
	if got := f.KnownProperties(); !reflect.DeepEqual(got, []string{"name"}) {
		t.Errorf("expected [name], got %v", got)
	}
	if err := f.Install(newWidgetV2("")); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if got := f.KnownProperties(); !reflect.DeepEqual(got, []string{"name", "color"}) {
		t.Errorf("expected [name color], got %v", got)
	}
}

type embeddedBase struct {
	Source string `json:"src"`
}

type withEmbedded struct {
	embeddedBase
	ID      string `json:"id"`
	Skipped string `json:"-"`
	Plain   int
	hidden  bool
}

func TestJSONProperties(t *testing.T) {
	got := jsonProperties(reflect.TypeOf((**withEmbedded)(nil)).Elem())
	want := []string{"src", "id", "Plain"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("jsonProperties = %v, want %v", got, want)
	}
	if jsonProperties(reflect.TypeOf((*string)(nil)).Elem()) != nil {
		t.Error("expected nil for non-struct types")
	}
}
