// Package factory implements the model construction registry.
//
// Abstract model types are grouped into families, each identified by a Key.
// A family has one shared State holding the abstract type, the default
// provider it was registered with, and the currently active provider. Any
// number of Family handles may point at that state; installing a provider on
// one handle changes what every handle creates from then on.
//
// # Registering a family
//
// A model package defines the abstract type, a provider contract embedding
// Provider, and a default provider. It declares an initializer from init()
// so that lookups succeed even before the package has registered anything:
//
//	func init() {
//	    factory.Declare(RecordIDKey, func(r *factory.Registry) error {
//	        _, err := factory.Register[RecordIDProvider](r, RecordIDKey, defaultRecordIDProvider())
//	        return err
//	    })
//	}
//
// # Overriding a provider
//
//	ids := factory.MustLookup[model.RecordIDProvider](reg, model.RecordIDKey)
//	err := ids.Install(myProvider)
//
// Install rejects providers for another abstract type (INCOMPATIBLE_PROVIDER)
// but accepts any concrete type implementing the family's abstract type.
// Objects created before an install are never touched.
//
// # Concurrency
//
// The registry map is guarded by one mutex held only for lookup and insert.
// Each state guards its active provider with its own RWMutex. Provider code
// never runs under either lock.
package factory
