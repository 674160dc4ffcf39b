package model

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/kbukum/modelkit/errors"
	"github.com/kbukum/modelkit/factory"
	"github.com/kbukum/modelkit/validation"
)

// RecordIDKey identifies the RecordID family.
const RecordIDKey factory.Key = "model.RecordID"

// AltVerbatim names the RecordID alternative that keeps the data source
// code exactly as given instead of upper-casing it.
const AltVerbatim = "verbatim"

// RecordID identifies a record by its data source code and record ID.
type RecordID interface {
	DataSourceCode() string
	ID() string
	String() string
}

// RecordIDProvider builds RecordID values.
type RecordIDProvider interface {
	factory.Provider
	Create(dataSource, recordID string) RecordID
}

// SimpleRecordID is the default RecordID.
type SimpleRecordID struct {
	DataSource string `json:"src" yaml:"src" validate:"required"`
	RecordID   string `json:"id" yaml:"id" validate:"required"`
}

// DataSourceCode returns the data source code.
func (r *SimpleRecordID) DataSourceCode() string { return r.DataSource }

// ID returns the record ID within the data source.
func (r *SimpleRecordID) ID() string { return r.RecordID }

// Normalize trims both fields of a decoded record ID and upper-cases the
// data source code.
func (r *SimpleRecordID) Normalize() {
	r.DataSource = strings.ToUpper(strings.TrimSpace(r.DataSource))
	r.RecordID = strings.TrimSpace(r.RecordID)
}

// String renders the record ID as {"src":...,"id":...}.
func (r *SimpleRecordID) String() string {
	b, _ := json.Marshal(r)
	return string(b)
}

type recordIDProvider struct {
	factory.Types
	verbatim bool
}

// DefaultRecordIDProvider returns the provider that creates *SimpleRecordID
// with an upper-cased, trimmed data source code and a trimmed record ID.
func DefaultRecordIDProvider() RecordIDProvider {
	return recordIDProvider{Types: factory.TypesFor[RecordID, *SimpleRecordID]()}
}

// VerbatimRecordIDProvider returns a provider that trims but does not
// upper-case the data source code.
func VerbatimRecordIDProvider() RecordIDProvider {
	return recordIDProvider{Types: factory.TypesFor[RecordID, *SimpleRecordID](), verbatim: true}
}

func (p recordIDProvider) Create(dataSource, recordID string) RecordID {
	dataSource = strings.TrimSpace(dataSource)
	if !p.verbatim {
		dataSource = strings.ToUpper(dataSource)
	}
	return &SimpleRecordID{
		DataSource: dataSource,
		RecordID:   strings.TrimSpace(recordID),
	}
}

func registerRecordID(reg *factory.Registry) error {
	f, err := factory.Register(reg, RecordIDKey, DefaultRecordIDProvider())
	if err != nil {
		return err
	}
	return f.Offer(AltVerbatim, VerbatimRecordIDProvider())
}

// RecordIDFactory creates RecordID values with the family's active provider.
type RecordIDFactory struct {
	family *factory.Family[RecordIDProvider]
}

// RecordIDs returns the RecordID factory bound to reg.
func RecordIDs(reg *factory.Registry) (*RecordIDFactory, error) {
	f, err := factory.Lookup[RecordIDProvider](reg, RecordIDKey)
	if err != nil {
		return nil, err
	}
	return &RecordIDFactory{family: f}, nil
}

// Family returns the underlying family handle.
func (f *RecordIDFactory) Family() *factory.Family[RecordIDProvider] { return f.family }

// Create builds a RecordID.
func (f *RecordIDFactory) Create(dataSource, recordID string) RecordID {
	return f.family.Provider().Create(dataSource, recordID)
}

// DecodeJSON decodes a RecordID into the active concrete type.
func (f *RecordIDFactory) DecodeJSON(data []byte) (RecordID, error) {
	v, err := f.family.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return v.(RecordID), nil
}

// Parse reads a record ID from text. Two forms are accepted:
//
//	{"src":"CUSTOMERS","id":"1001"}
//	:CUSTOMERS:1001
//
// In the delimited form the first character is the separator; the data
// source runs up to its next occurrence and the record ID is the remainder.
// JSON objects may also use dataSourceCode/DATA_SOURCE and recordId/RECORD_ID.
func (f *RecordIDFactory) Parse(text string) (RecordID, error) {
	text = strings.TrimSpace(text)
	n := len(text)

	var jsonErr error
	if n > 2 && text[0] == '{' && text[n-1] == '}' {
		src, id, err := recordIDFields([]byte(text))
		if err == nil {
			return f.Create(src, id), nil
		}
		jsonErr = err
	}

	if n > 2 {
		sep, width := utf8.DecodeRuneInString(text)
		rest := text[width:]
		idx := strings.IndexRune(rest, sep)
		if sep != utf8.RuneError && idx >= 0 && idx+width < len(rest) {
			return f.Create(rest[:idx], rest[idx+width:]), nil
		}
	}

	appErr := errors.InvalidInput("record_id", "invalid record ID: "+text)
	if jsonErr != nil {
		appErr.WithCause(jsonErr)
	}
	return nil, appErr
}

func recordIDFields(data []byte) (src, id string, err error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", "", err
	}
	src = firstString(raw, "src", "dataSourceCode", "DATA_SOURCE")
	id = firstString(raw, "id", "recordId", "RECORD_ID")

	v := validation.New().Required("src", src).Required("id", id)
	if appErr := v.Validate(); appErr != nil {
		return "", "", appErr
	}
	return src, id, nil
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok {
			return s
		}
	}
	return ""
}
