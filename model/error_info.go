package model

import (
	"fmt"

	"github.com/kbukum/modelkit/errors"
	"github.com/kbukum/modelkit/factory"
)

// ErrorInfoKey identifies the ErrorInfo family.
const ErrorInfoKey factory.Key = "model.ErrorInfo"

// ErrorInfo is an error reported to clients: an optional code and a message.
type ErrorInfo interface {
	Code() string
	Message() string
}

// ErrorInfoProvider builds ErrorInfo values.
type ErrorInfoProvider interface {
	factory.Provider
	Create(code, message string) ErrorInfo
	FromError(err error) ErrorInfo
}

// SimpleError is the default ErrorInfo.
type SimpleError struct {
	ErrCode string `json:"code,omitempty" yaml:"code,omitempty"`
	Msg     string `json:"message" yaml:"message" validate:"required"`
}

// Code returns the error code, empty if none.
func (e *SimpleError) Code() string { return e.ErrCode }

// Message returns the error message.
func (e *SimpleError) Message() string { return e.Msg }

// Error implements error.
func (e *SimpleError) Error() string {
	if e.ErrCode == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.ErrCode, e.Msg)
}

type errorInfoProvider struct{ factory.Types }

// DefaultErrorInfoProvider returns the provider that creates *SimpleError.
func DefaultErrorInfoProvider() ErrorInfoProvider {
	return errorInfoProvider{factory.TypesFor[ErrorInfo, *SimpleError]()}
}

func (errorInfoProvider) Create(code, message string) ErrorInfo {
	return &SimpleError{ErrCode: code, Msg: message}
}

// FromError keeps the code and message of an AppError; any other error
// becomes a message without a code. A nil error yields nil.
func (errorInfoProvider) FromError(err error) ErrorInfo {
	if err == nil {
		return nil
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return &SimpleError{ErrCode: string(appErr.Code), Msg: appErr.Message}
	}
	return &SimpleError{Msg: err.Error()}
}

func registerErrorInfo(reg *factory.Registry) error {
	_, err := factory.Register(reg, ErrorInfoKey, DefaultErrorInfoProvider())
	return err
}

// ErrorInfoFactory creates ErrorInfo values with the family's active provider.
type ErrorInfoFactory struct {
	family *factory.Family[ErrorInfoProvider]
}

// ErrorInfos returns the ErrorInfo factory bound to reg.
func ErrorInfos(reg *factory.Registry) (*ErrorInfoFactory, error) {
	f, err := factory.Lookup[ErrorInfoProvider](reg, ErrorInfoKey)
	if err != nil {
		return nil, err
	}
	return &ErrorInfoFactory{family: f}, nil
}

// Family returns the underlying family handle.
func (f *ErrorInfoFactory) Family() *factory.Family[ErrorInfoProvider] { return f.family }

// Create builds an ErrorInfo.
func (f *ErrorInfoFactory) Create(code, message string) ErrorInfo {
	return f.family.Provider().Create(code, message)
}

// FromError converts err to an ErrorInfo.
func (f *ErrorInfoFactory) FromError(err error) ErrorInfo {
	return f.family.Provider().FromError(err)
}
