// Package errors defines the structured error taxonomy returned by the esign client.
// Every failure surfaced to a caller implements ESignError; application-level failures
// reported inside a response envelope are additionally *DomainError values.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/turtacn/esign/pkg/constants"
)

// ================================================================================
// Base Error Interface
// ================================================================================

// ESignError represents a structured error with additional metadata
type ESignError interface {
	error

	// Code returns the error classification
	Code() constants.ErrorCode

	// HTTPStatus returns the HTTP status of the response that produced the error, or 0
	HTTPStatus() int

	// Description returns a human-readable description of the error class
	Description() string

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause adds a cause error to the error chain
	WithCause(cause error) ESignError

	// WithMetadata adds additional context metadata
	WithMetadata(key string, value interface{}) ESignError

	// Metadata returns all metadata
	Metadata() map[string]interface{}
}

// ================================================================================
// Base Error Implementation
// ================================================================================

type baseError struct {
	code        constants.ErrorCode
	httpStatus  int
	description string
	message     string
	cause       error
	metadata    map[string]interface{}
}

func (e *baseError) Error() string {
	msg := e.message
	if msg == "" {
		msg = e.description
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *baseError) Code() constants.ErrorCode { return e.code }

func (e *baseError) HTTPStatus() int { return e.httpStatus }

func (e *baseError) Description() string { return e.description }

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) WithCause(cause error) ESignError {
	e.cause = cause
	return e
}

func (e *baseError) WithMetadata(key string, value interface{}) ESignError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

func (e *baseError) Metadata() map[string]interface{} {
	return e.metadata
}

// NewError creates a new ESignError with the specified parameters
func NewError(code constants.ErrorCode, httpStatus int, description string, message string) ESignError {
	return &baseError{
		code:        code,
		httpStatus:  httpStatus,
		description: description,
		message:     message,
		metadata:    make(map[string]interface{}),
	}
}

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// ErrTransport reports a network or connection failure. It is never retried by the pipeline.
func ErrTransport(method, url string, cause error) ESignError {
	return NewError(
		constants.ErrCodeTransport,
		0,
		"The request could not be delivered to the remote service.",
		fmt.Sprintf("transport failure on %s %s", method, url),
	).WithCause(cause).
		WithMetadata("method", method).
		WithMetadata("url", url)
}

// ErrEncoding reports a request body that could not be serialized or signed.
func ErrEncoding(reason string, cause error) ESignError {
	return NewError(
		constants.ErrCodeEncoding,
		0,
		"The request body could not be encoded for signing.",
		fmt.Sprintf("encoding failed: %s", reason),
	).WithCause(cause)
}

// ErrDecode reports a non-empty response body that is not a JSON envelope.
func ErrDecode(httpStatus int, cause error) ESignError {
	return NewError(
		constants.ErrCodeDecode,
		httpStatus,
		"The response body is not a valid JSON envelope.",
		"failed to decode response envelope",
	).WithCause(cause)
}

// ErrToken reports a failure to obtain or refresh an access token.
func ErrToken(appID string, cause error) ESignError {
	return NewError(
		constants.ErrCodeToken,
		0,
		"An access token could not be obtained.",
		fmt.Sprintf("token refresh failed for app %s", appID),
	).WithCause(cause).
		WithMetadata("app_id", appID)
}

// ErrSecret reports a failure to resolve the app secret.
func ErrSecret(appID string, cause error) ESignError {
	return NewError(
		constants.ErrCodeSecret,
		0,
		"The application secret could not be resolved.",
		fmt.Sprintf("secret lookup failed for app %s", appID),
	).WithCause(cause).
		WithMetadata("app_id", appID)
}

// ErrConfig reports invalid or missing configuration.
func ErrConfig(message string) ESignError {
	return NewError(
		constants.ErrCodeConfig,
		0,
		"The client configuration is invalid.",
		message,
	)
}

// ErrInvalidRequest reports a logical call that cannot be built.
func ErrInvalidRequest(message string) ESignError {
	return NewError(
		constants.ErrCodeInvalidRequest,
		http.StatusBadRequest,
		"The request is missing a required parameter or includes an invalid value.",
		message,
	)
}

// ================================================================================
// Domain Error
// ================================================================================

// DomainError is an application-level failure reported by a nonzero envelope code.
type DomainError struct {
	baseError
	responseCode int
}

// NewDomainError builds a DomainError. An empty message becomes "Unknown".
func NewDomainError(message string, code int, httpStatus int) *DomainError {
	if message == "" {
		message = constants.UnknownErrorMessage
	}
	return &DomainError{
		baseError: baseError{
			code:        constants.ErrCodeDomain,
			httpStatus:  httpStatus,
			description: "The remote service rejected the request.",
			message:     message,
			metadata:    map[string]interface{}{"response_code": code},
		},
		responseCode: code,
	}
}

// Error keeps the remote message verbatim so callers can match on it.
func (e *DomainError) Error() string {
	return fmt.Sprintf("esign: %s (code %d)", e.message, e.responseCode)
}

// Message returns the remote message.
func (e *DomainError) Message() string { return e.message }

// ResponseCode returns the envelope code.
func (e *DomainError) ResponseCode() int { return e.responseCode }

// ================================================================================
// Error Validation Utilities
// ================================================================================

// AsESignError finds the first ESignError in err's chain
func AsESignError(err error) (ESignError, bool) {
	var e ESignError
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// AsDomainError finds the first *DomainError in err's chain
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsDomainError reports whether err carries a remote envelope failure
func IsDomainError(err error) bool {
	_, ok := AsDomainError(err)
	return ok
}

// HasCode reports whether err is an ESignError of the given class
func HasCode(err error, code constants.ErrorCode) bool {
	e, ok := AsESignError(err)
	return ok && e.Code() == code
}

// IsTransportError checks if an error is a delivery failure
func IsTransportError(err error) bool {
	return HasCode(err, constants.ErrCodeTransport)
}

// IsEncodingError checks if an error is a body encoding failure
func IsEncodingError(err error) bool {
	return HasCode(err, constants.ErrCodeEncoding)
}

// IsTokenError checks if an error is a token acquisition failure
func IsTokenError(err error) bool {
	return HasCode(err, constants.ErrCodeToken)
}
