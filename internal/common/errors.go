package common

import (
	"errors"
	"fmt"
)

// ErrorKind is the failure class callers can branch on.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInputMalformed
	KindExternalServiceRejected
	KindExternalServiceTransient
	KindStorageFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindInputMalformed:
		return "input_malformed"
	case KindExternalServiceRejected:
		return "external_service_rejected"
	case KindExternalServiceTransient:
		return "external_service_transient"
	case KindStorageFailure:
		return "storage_failure"
	default:
		return "unknown"
	}
}

// AppError represents application-specific errors
type AppError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrMissingConfig = errors.New("missing required configuration")
	ErrInvalidInput  = errors.New("invalid input")
	ErrJobFailed     = errors.New("job did not succeed")
	ErrPollExhausted = errors.New("job still in progress")
)

// Error constructors
func NewAppError(kind ErrorKind, message string, cause error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

func Errorf(kind ErrorKind, cause error, format string, args ...any) *AppError {
	return NewAppError(kind, fmt.Sprintf(format, args...), cause)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// KindOf returns the kind of the outermost AppError in err's chain.
func KindOf(err error) ErrorKind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}
