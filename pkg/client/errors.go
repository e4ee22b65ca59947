package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrTransport matches every failure to obtain a usable response:
	// network errors, error statuses and budget blocks.
	ErrTransport = errors.New("transport failure")

	// ErrMalformedPayload matches responses whose body is not a valid room record.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrBudgetExhausted is returned when the request budget tracker blocks a request.
	ErrBudgetExhausted = errors.New("request budget exhausted")
)

// TourError is a classified room client error.
type TourError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *TourError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tour %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("tour %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TourError) Unwrap() error {
	return e.Err
}

// Is maps the error class onto ErrTransport and ErrMalformedPayload.
func (e *TourError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.ErrorClass.IsTransport()
	case ErrMalformedPayload:
		return e.ErrorClass == ErrorClassPayload
	}
	return false
}

// IsTransport reports whether the class describes a failed exchange rather
// than an unusable body.
func (c ErrorClass) IsTransport() bool {
	switch c {
	case ErrorClassClient, ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx: the same request fails the same way
		return false
	case ErrorClassServer:
		return true
	case ErrorClassRateLimit:
		return true
	case ErrorClassNetwork:
		return true
	case ErrorClassPayload:
		return false
	default:
		return false
	}
}
