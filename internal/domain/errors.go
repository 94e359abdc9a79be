package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrValidation   ErrorCode = "VALIDATION_ERROR"
	ErrConflict     ErrorCode = "CONFLICT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrAccessDenied ErrorCode = "ACCESS_DENIED"
	ErrUpstream     ErrorCode = "UPSTREAM_SERVICE_ERROR"
	ErrPersistence  ErrorCode = "PERSISTENCE_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Context map[string]any `json:"-"`
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

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Details: e.Context,
	})
}

// WithContext attaches a key/value detail that is surfaced to clients.
func (e *DomainError) WithContext(key string, value any) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewValidationError(message string) *DomainError {
	return NewError(ErrValidation, message, nil)
}

func NewConflictError(message string) *DomainError {
	return NewError(ErrConflict, message, nil)
}

func NewNotFoundError(message string) *DomainError {
	return NewError(ErrNotFound, message, nil)
}

func NewSessionNotFoundError(sessionID string) *DomainError {
	return NewNotFoundError(fmt.Sprintf("quiz session not found: %s", sessionID)).
		WithContext("sessionId", sessionID)
}

func NewAccessDeniedError(message string) *DomainError {
	return NewError(ErrAccessDenied, message, nil)
}

func NewPersistenceError(message string, err error) *DomainError {
	return NewError(ErrPersistence, message, err)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(ErrInternal, message, err)
}

// NewUpstreamServiceError wraps an UpstreamError so that both the
// domain code and the failure details are reachable through errors.As.
func NewUpstreamServiceError(upstream *UpstreamError) *DomainError {
	msg := fmt.Sprintf("%s service %s", upstream.Service, upstream.Kind)
	return NewError(ErrUpstream, msg, upstream)
}

// CodeOf returns the code of the first DomainError in err's chain,
// or ErrInternal when there is none.
func CodeOf(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ErrInternal
}

// UpstreamService names an external collaborator.
type UpstreamService string

const (
	UpstreamGeneration UpstreamService = "generation"
	UpstreamAnalysis   UpstreamService = "analysis"
)

// UpstreamErrorKind classifies how an external call failed.
type UpstreamErrorKind string

const (
	UpstreamUnavailable UpstreamErrorKind = "unavailable"
	UpstreamTimeout     UpstreamErrorKind = "timeout"
	UpstreamRejected    UpstreamErrorKind = "rejected"
	UpstreamMalformed   UpstreamErrorKind = "malformed"
)

// UpstreamError carries a failed generation or analysis call.
// Code, Message, Details and RetryAfter are only populated for
// UpstreamRejected, where the service answered with a structured envelope.
type UpstreamError struct {
	Service    UpstreamService
	Kind       UpstreamErrorKind
	Code       string
	Message    string
	Details    string
	RetryAfter time.Duration
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Kind == UpstreamRejected:
		return fmt.Sprintf("%s service rejected request: %s: %s", e.Service, e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s service %s: %v", e.Service, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s service %s", e.Service, e.Kind)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// AsUpstreamError extracts the UpstreamError from err's chain.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream, true
	}
	return nil, false
}
