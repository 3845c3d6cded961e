package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataSurface(t *testing.T) {
	cases := map[Code]Metadata{
		CodeValidation:  {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true, MessagePublic: true},
		CodeNotFound:    {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found", MessagePublic: true},
		CodeUnavailable: {HTTPStatus: http.StatusBadRequest, PublicMessage: "requested inventory unavailable", DetailsAllowed: true, MessagePublic: true},
		CodeRateLimit:   {HTTPStatus: http.StatusTooManyRequests, PublicMessage: "rate limit exceeded"},
		CodeInternal:    {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error", Retryable: true},
		CodeDependency:  {HTTPStatus: http.StatusServiceUnavailable, PublicMessage: "dependency unavailable", Retryable: true, DetailsAllowed: true},
	}
	for code, want := range cases {
		require.Equal(t, want, MetadataFor(code), code)
	}
	require.Equal(t, MetadataFor(CodeInternal), MetadataFor("SOMETHING_UNKNOWN"))
}

func TestEveryCodeHasMetadata(t *testing.T) {
	for _, code := range []Code{
		CodeValidation, CodeUnauthorized, CodeForbidden, CodeNotFound, CodeConflict, CodeUnavailable,
		CodeInvalidTransition, CodeIdempotency, CodeRateLimit, CodeInternal, CodeDependency,
	} {
		_, ok := metadataByCode[code]
		require.True(t, ok, code)
	}
}

func TestConstructorsAndRendering(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	require.Nil(t, base.Details())
	require.Equal(t, map[string]any{"field": "foo"}, base.WithDetails(map[string]any{"field": "foo"}).Details())

	require.Equal(t, "Product with ID abc not found", Newf(CodeNotFound, "Product with ID %s not found", "abc").Message())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "ctx")
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, "DEPENDENCY_ERROR: ctx: boom", wrapped.Error())
	require.Equal(t, "NOT_FOUND: gone", New(CodeNotFound, "gone").Error())

	var nilErr *Error
	require.Equal(t, CodeInternal, nilErr.Code())
	require.Empty(t, nilErr.Error())
}

func TestLookupHelpers(t *testing.T) {
	typed := New(CodeUnavailable, "out of stock")
	outer := fmt.Errorf("place order: %w", typed)

	require.Same(t, typed, As(outer))
	require.Nil(t, As(nil))
	require.True(t, IsCode(outer, CodeUnavailable))
	require.False(t, IsCode(stdErrors.New("plain"), CodeUnavailable))

	require.Same(t, typed, Passthrough(typed, CodeDependency, "wrapped"))
	require.True(t, IsCode(Passthrough(stdErrors.New("db down"), CodeDependency, "load order"), CodeDependency))
	require.NoError(t, Passthrough(nil, CodeDependency, "x"))
}
