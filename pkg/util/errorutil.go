package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Taxonomy codes for verification pipeline failures.
const (
	CodeMissingInput         = "MISSING_INPUT"
	CodeEventMismatch        = "EVENT_MISMATCH"
	CodeVerifyRejected       = "VERIFY_REJECTED"
	CodeWatermarkReplayed    = "WATERMARK_REPLAYED"
	CodeNotVerified          = "NOT_VERIFIED"
	CodeRateLimited          = "RATE_LIMITED"
	CodeStoreFailure         = "STORE_FAILURE"
	CodeSigningConfigMissing = "SIGNING_CONFIG_MISSING"
	CodeInternal             = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status}
}

func NewMissingInput(message string) error {
	return NewDomainError(CodeMissingInput, message, http.StatusBadRequest)
}

func NewEventMismatch(message string) error {
	return NewDomainError(CodeEventMismatch, message, http.StatusBadRequest)
}

// NewVerifyRejected reports a proof that failed both verification paths. The
// message carries the primary path's failure reason.
func NewVerifyRejected(message string) error {
	return NewDomainError(CodeVerifyRejected, message, http.StatusBadRequest)
}

func NewWatermarkReplayed(message string) error {
	return NewDomainError(CodeWatermarkReplayed, message, http.StatusBadRequest)
}

func NewNotVerified(message string) error {
	return NewDomainError(CodeNotVerified, message, http.StatusForbidden)
}

func NewRateLimited(message string) error {
	return NewDomainError(CodeRateLimited, message, http.StatusTooManyRequests)
}

// NewStoreFailure wraps a persistence error. The wrapped cause is logged
// server-side only; the message is what the caller sees.
func NewStoreFailure(err error) error {
	return &DomainError{
		Code:       CodeStoreFailure,
		Message:    "storage failure",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewSigningConfigMissing() error {
	return NewDomainError(CodeSigningConfigMissing, "token signing key not configured", http.StatusInternalServerError)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
