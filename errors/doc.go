// Package errors provides the structured error type shared by modelkit
// packages. Every error carries a machine-readable code; registry wiring
// mistakes (conflicting defaults, incompatible providers, unknown families)
// have dedicated codes and constructors.
package errors
