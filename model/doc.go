// Package model defines the model families built through the factory
// registry: RecordID, DataSource and ErrorInfo.
//
// Each family has an abstract interface, a provider contract, a default
// provider and a thin factory wrapper. The package declares every family's
// initializer on load, so any registry that honours the process-wide catalog
// can look the families up without calling Install first:
//
//	models, err := model.Open(reg)
//	id, err := models.RecordIDs.Parse(":CUSTOMERS:1001")
//
// Embedding applications replace a family's provider through its handle:
//
//	err := models.RecordIDs.Family().Install(myProvider)
package model
