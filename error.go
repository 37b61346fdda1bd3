package odinmcp

import "fmt"

// Error is the JSON-RPC error object. It implements the error interface so
// handlers can return protocol errors directly; any other error raised by a
// handler is surfaced as code 0 with the error text as message.
type Error struct {
	// The error type that occurred.
	Code int `json:"code" yaml:"code" mapstructure:"code"`

	// Additional information about the error. The value of this member is defined by
	// the sender (e.g. detailed error information, nested errors etc.).
	Data interface{} `json:"data,omitempty" yaml:"data,omitempty" mapstructure:"data,omitempty"`

	// A short description of the error. The message SHOULD be limited to a concise
	// single sentence.
	Message string `json:"message" yaml:"message" mapstructure:"message"`
}

// Error returns the error message
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("code: %d, message: %s, data: %v", e.Code, e.Message, e.Data)
}

// NewError creates a new Error with the supplied code, message and data.
func NewError(code int, message string, data interface{}) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

// NewParsingError creates a new parsing error
func NewParsingError(message string, data []byte) *Error {
	return NewError(ParseError, message, data)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, data []byte) *Error {
	return NewError(InternalError, message, data)
}

// NewInvalidRequest creates a new invalid request error
func NewInvalidRequest(message string, data []byte) *Error {
	return NewError(InvalidRequest, message, data)
}

// NewInvalidParamsError creates a new invalid params error
func NewInvalidParamsError(message string, data []byte) *Error {
	return NewError(InvalidParams, message, data)
}

// NewMethodNotFound creates a new method not found error
func NewMethodNotFound(message string, data []byte) *Error {
	return NewError(MethodNotFound, message, data)
}

// AsError coerces an arbitrary handler failure into a protocol Error.
// A *Error passes through unchanged; anything else becomes code 0.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if protocolErr, ok := err.(*Error); ok {
		return protocolErr
	}
	return &Error{Code: 0, Message: err.Error()}
}
