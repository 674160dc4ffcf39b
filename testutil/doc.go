// Package testutil provides test helpers for code built on the factory
// registry.
//
//	func TestExport(t *testing.T) {
//	    reg := testutil.NewRegistry(t)
//	    ids := factory.MustRegister(reg, model.RecordIDKey, model.DefaultRecordIDProvider())
//	    testutil.Swap(t, ids, model.VerbatimRecordIDProvider())
//	    // the previous provider is reinstalled when the test ends
//	}
package testutil
