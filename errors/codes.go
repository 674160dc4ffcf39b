package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Registry wiring errors. All of them are programmer errors: the registry
// never retries them and callers are not expected to recover.
const (
	// ErrCodeFamilyConflict indicates two competing default registrations for one family.
	ErrCodeFamilyConflict ErrorCode = "FAMILY_CONFLICT"
	// ErrCodeIncompatibleProvider indicates a provider built for another abstract type.
	ErrCodeIncompatibleProvider ErrorCode = "INCOMPATIBLE_PROVIDER"
	// ErrCodeFamilyNotFound indicates a family that never registered a default provider.
	ErrCodeFamilyNotFound ErrorCode = "FAMILY_NOT_FOUND"
	// ErrCodeInvalidProvider indicates a provider whose declared types are unusable.
	ErrCodeInvalidProvider ErrorCode = "INVALID_PROVIDER"
	// ErrCodeAlternativeNotFound indicates an unknown named alternative provider.
	ErrCodeAlternativeNotFound ErrorCode = "ALTERNATIVE_NOT_FOUND"
)

// Payload errors
const (
	// ErrCodeDecodeFailed indicates a payload could not be decoded into a model.
	ErrCodeDecodeFailed ErrorCode = "DECODE_FAILED"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// ErrCodeInternal indicates an unexpected internal failure.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

var wiringCodes = map[ErrorCode]bool{
	ErrCodeFamilyConflict:       true,
	ErrCodeIncompatibleProvider: true,
	ErrCodeFamilyNotFound:       true,
	ErrCodeInvalidProvider:      true,
	ErrCodeAlternativeNotFound:  true,
}

// IsWiringCode returns true if the code reports a registry wiring mistake
// rather than bad runtime input.
func IsWiringCode(code ErrorCode) bool {
	return wiringCodes[code]
}
