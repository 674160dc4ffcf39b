package model

import (
	"encoding/json"
	"strings"

	"github.com/kbukum/modelkit/factory"
)

// DataSourceKey identifies the DataSource family.
const DataSourceKey factory.Key = "model.DataSource"

// DataSource describes a data source by code and optional numeric ID.
type DataSource interface {
	Code() string
	SetCode(code string)
	// ID returns the numeric ID and whether one is set.
	ID() (int, bool)
	SetID(id int)
}

// DataSourceProvider builds DataSource values.
type DataSourceProvider interface {
	factory.Provider
	Create() DataSource
	CreateWithCode(code string) DataSource
	CreateWithID(code string, id int) DataSource
}

// SimpleDataSource is the default DataSource.
type SimpleDataSource struct {
	DataSourceCode string `json:"dataSourceCode" yaml:"dataSourceCode" validate:"required,code"`
	DataSourceID   *int   `json:"dataSourceId,omitempty" yaml:"dataSourceId,omitempty"`
}

// Code returns the data source code.
func (d *SimpleDataSource) Code() string { return d.DataSourceCode }

// SetCode sets the code, upper-cased and trimmed.
func (d *SimpleDataSource) SetCode(code string) { d.DataSourceCode = normalizeCode(code) }

// ID returns the numeric ID and whether one is set.
func (d *SimpleDataSource) ID() (int, bool) {
	if d.DataSourceID == nil {
		return 0, false
	}
	return *d.DataSourceID, true
}

// SetID sets the numeric ID.
func (d *SimpleDataSource) SetID(id int) { d.DataSourceID = &id }

// Normalize upper-cases and trims a decoded code.
func (d *SimpleDataSource) Normalize() { d.DataSourceCode = normalizeCode(d.DataSourceCode) }

// String renders the data source as JSON.
func (d *SimpleDataSource) String() string {
	b, _ := json.Marshal(d)
	return string(b)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type dataSourceProvider struct{ factory.Types }

// DefaultDataSourceProvider returns the provider that creates *SimpleDataSource.
func DefaultDataSourceProvider() DataSourceProvider {
	return dataSourceProvider{factory.TypesFor[DataSource, *SimpleDataSource]()}
}

func (dataSourceProvider) Create() DataSource { return &SimpleDataSource{} }

func (dataSourceProvider) CreateWithCode(code string) DataSource {
	return &SimpleDataSource{DataSourceCode: normalizeCode(code)}
}

func (dataSourceProvider) CreateWithID(code string, id int) DataSource {
	return &SimpleDataSource{DataSourceCode: normalizeCode(code), DataSourceID: &id}
}

func registerDataSource(reg *factory.Registry) error {
	_, err := factory.Register(reg, DataSourceKey, DefaultDataSourceProvider())
	return err
}

// DataSourceFactory creates DataSource values with the family's active provider.
type DataSourceFactory struct {
	family *factory.Family[DataSourceProvider]
}

// DataSources returns the DataSource factory bound to reg.
func DataSources(reg *factory.Registry) (*DataSourceFactory, error) {
	f, err := factory.Lookup[DataSourceProvider](reg, DataSourceKey)
	if err != nil {
		return nil, err
	}
	return &DataSourceFactory{family: f}, nil
}

// Family returns the underlying family handle.
func (f *DataSourceFactory) Family() *factory.Family[DataSourceProvider] { return f.family }

// Create builds an empty DataSource.
func (f *DataSourceFactory) Create() DataSource {
	return f.family.Provider().Create()
}

// CreateWithCode builds a DataSource with a code and no ID.
func (f *DataSourceFactory) CreateWithCode(code string) DataSource {
	return f.family.Provider().CreateWithCode(code)
}

// CreateWithID builds a DataSource with a code and ID.
func (f *DataSourceFactory) CreateWithID(code string, id int) DataSource {
	return f.family.Provider().CreateWithID(code, id)
}

// DecodeJSON decodes a DataSource into the active concrete type.
func (f *DataSourceFactory) DecodeJSON(data []byte) (DataSource, error) {
	v, err := f.family.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return v.(DataSource), nil
}
