// Package validation provides input validation for modelkit configuration
// and decoded model payloads.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Both return
// *errors.AppError with per-field details.
//
// # Struct Tag Validation
//
//	type DataSource struct {
//	    Code string `json:"code" validate:"required,code"`
//	}
//	err := validation.Validate(ds)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Identifier("family", key).MaxLength("family", key, 128)
//	if appErr := v.Validate(); appErr != nil { ... }
package validation
