package errors

import "net/http"

// Code is the machine readable error class returned to API clients.
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeUnavailable       Code = "UNAVAILABLE"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeIdempotency       Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit         Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeDependency        Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is surfaced over HTTP.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	// MessagePublic reports whether the error's own message may be shown to clients.
	MessagePublic bool
}

type surfaceOption func(*Metadata)

func withDetails(m *Metadata) { m.DetailsAllowed = true }
func retryable(m *Metadata)   { m.Retryable = true }
func opaque(m *Metadata)      { m.MessagePublic = false }

// surface builds the metadata for a code. Messages are public unless the
// code is marked opaque.
func surface(status int, public string, opts ...surfaceOption) Metadata {
	m := Metadata{HTTPStatus: status, PublicMessage: public, MessagePublic: true}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:        surface(http.StatusBadRequest, "validation failed", withDetails),
	CodeUnauthorized:      surface(http.StatusUnauthorized, "authentication required"),
	CodeForbidden:         surface(http.StatusForbidden, "access denied"),
	CodeNotFound:          surface(http.StatusNotFound, "resource not found"),
	CodeConflict:          surface(http.StatusConflict, "conflict detected"),
	CodeUnavailable:       surface(http.StatusBadRequest, "requested inventory unavailable", withDetails),
	CodeInvalidTransition: surface(http.StatusBadRequest, "state transition disallowed", withDetails),
	CodeIdempotency:       surface(http.StatusConflict, "idempotency key reused", withDetails),
	CodeRateLimit:         surface(http.StatusTooManyRequests, "rate limit exceeded", opaque),
	CodeInternal:          surface(http.StatusInternalServerError, "internal server error", opaque, retryable),
	CodeDependency:        surface(http.StatusServiceUnavailable, "dependency unavailable", opaque, retryable, withDetails),
}

// MetadataFor returns the surface of code; unknown codes are treated as
// internal errors.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}
