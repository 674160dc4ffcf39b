package model

import (
	"fmt"

	"github.com/kbukum/modelkit/factory"
)

var initializers = []struct {
	key factory.Key
	fn  factory.Initializer
}{
	{RecordIDKey, registerRecordID},
	{DataSourceKey, registerDataSource},
	{ErrorInfoKey, registerErrorInfo},
}

func init() {
	for _, i := range initializers {
		factory.Declare(i.key, i.fn)
	}
}

// Keys returns the keys of the model families in this package.
func Keys() []factory.Key {
	keys := make([]factory.Key, len(initializers))
	for i, entry := range initializers {
		keys[i] = entry.key
	}
	return keys
}

// Install registers every model family with reg. It is idempotent.
func Install(reg *factory.Registry) error {
	for _, i := range initializers {
		if err := i.fn(reg); err != nil {
			return fmt.Errorf("install %s: %w", i.key, err)
		}
	}
	return nil
}

// Models bundles the factories of every model family.
type Models struct {
	RecordIDs   *RecordIDFactory
	DataSources *DataSourceFactory
	Errors      *ErrorInfoFactory
}

// Open returns the model factories bound to reg. Families that have not been
// installed yet are brought up by their declared initializers.
func Open(reg *factory.Registry) (*Models, error) {
	ids, err := RecordIDs(reg)
	if err != nil {
		return nil, err
	}
	sources, err := DataSources(reg)
	if err != nil {
		return nil, err
	}
	errs, err := ErrorInfos(reg)
	if err != nil {
		return nil, err
	}
	return &Models{RecordIDs: ids, DataSources: sources, Errors: errs}, nil
}
