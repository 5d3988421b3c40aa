package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes carried by AppError. The HTTP API maps them onto statuses.
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeNotFetched      = "NOT_FETCHED"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"

	// codeUnknown is reported for errors that carry no code at all
	codeUnknown = "UNKNOWN"
)

// AppError is an error with a stable code and an optional cause
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError without a cause
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap adds context to err. The code of an AppError anywhere in err's chain
// is kept; anything else becomes INTERNAL_ERROR.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	code := CodeInternalError
	if appErr, ok := As(err); ok {
		code = appErr.Code
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf is Wrap with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode replaces the code of err, keeping its message and cause
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{Code: code, Message: appErr.Message, Cause: appErr.Cause}
	}
	return &AppError{Code: code, Message: err.Error(), Cause: err}
}

// As finds the outermost AppError in err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsAppError reports whether err's chain holds an AppError
func IsAppError(err error) bool {
	_, ok := As(err)
	return ok
}

// GetCode returns the code of the outermost AppError in err's chain, or UNKNOWN
func GetCode(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return codeUnknown
}

// ConfigInvalid reports a configuration that cannot be used
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

// InvalidInput reports a malformed request, query or input file
func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// NotFetched is returned when records are converted before they were retrieved
func NotFetched(cause error) *AppError {
	return &AppError{
		Code:    CodeNotFetched,
		Message: "fetch bioactivities before converting them to a table",
		Cause:   cause,
	}
}

// ExternalServiceError reports a failing record source such as the ChEMBL API
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("%s service error", service),
		Cause:   cause,
	}
}
