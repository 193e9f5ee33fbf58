package contract

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrModelInvoke    = errors.New("model invoke failed")
	ErrUnknownIntent  = errors.New("intent has no schema")
	ErrPromptMissing  = errors.New("required prompt is missing")
	ErrNoDataService  = errors.New("no data service for intent")
	ErrStateCorrupted = errors.New("conversation state is corrupted")
)

// ServiceErrorKind is the closed set of provider-agnostic failure categories
// a data service may report. Only these reach the user, each through a fixed
// template; raw provider detail stays in logs.
type ServiceErrorKind string

const (
	ServiceNotFound          ServiceErrorKind = "not_found"
	ServiceRateLimited       ServiceErrorKind = "rate_limited"
	ServiceUnsupportedRegion ServiceErrorKind = "unsupported_region"
	ServiceTimeout           ServiceErrorKind = "timeout"
	ServiceUnknown           ServiceErrorKind = "unknown"
)

// ServiceError is the typed failure returned by data services. Detail is for
// logging only and must never be rendered to the user.
type ServiceError struct {
	Kind   ServiceErrorKind
	Detail string
}

func (e *ServiceError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("service error: %s", e.Kind)
	}
	return fmt.Sprintf("service error: %s: %s", e.Kind, e.Detail)
}

// NewServiceError builds a typed service failure.
func NewServiceError(kind ServiceErrorKind, format string, args ...any) *ServiceError {
	return &ServiceError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// ServiceErrorKindOf extracts the failure kind from an error chain, defaulting
// to ServiceUnknown for untyped errors.
func ServiceErrorKindOf(err error) ServiceErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ServiceUnknown
}
