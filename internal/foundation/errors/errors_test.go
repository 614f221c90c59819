package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	err := NewError(CategoryValidation, "bad input").Build()
	assert.Equal(t, CategoryValidation, err.Category())
	assert.Equal(t, SeverityError, err.Severity())
	assert.Equal(t, RetryNever, err.RetryStrategy())
	assert.False(t, err.CanRetry())
}

func TestWrapErrorPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(cause, CategoryDatabase, "put document failed").Build()

	require.ErrorIs(t, errors.Unwrap(err), cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, err.IsTransient(), "database errors default to backoff retry")
}

func TestWrapErrorCategoryDefaults(t *testing.T) {
	cause := errors.New("dial tcp: timeout")

	assert.True(t, WrapError(cause, CategoryNetwork, "dial failed").Build().IsTransient())
	assert.True(t, WrapError(cause, CategoryNLP, "extract failed").Build().IsTransient())
	assert.False(t, WrapError(cause, CategoryValidation, "bad input").Build().IsTransient())
	assert.Equal(t, SeverityFatal, WrapError(cause, CategoryInternal, "boom").Build().Severity())
}

func TestWithContextIsCopyOnWrite(t *testing.T) {
	base := DatabaseError("query failed").WithContext("op", "query").Build()
	derived := base.WithContext("status", 500)

	assert.NotContains(t, base.Context(), "status")
	assert.Equal(t, 500, derived.Context()["status"])
	assert.Equal(t, "query", derived.Context()["op"])
}

func TestCategoryHelpers(t *testing.T) {
	err := NotFoundError("document missing").Build()
	assert.True(t, HasCategory(err, CategoryNotFound))
	assert.Equal(t, CategoryNotFound, GetCategory(err))
	assert.Equal(t, CategoryInternal, GetCategory(fmt.Errorf("plain")))
	assert.False(t, IsTransient(fmt.Errorf("plain")))
}

func TestStatusCodeMapping(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)
	cases := []struct {
		err  error
		want int
	}{
		{ValidationError("v").Build(), 400},
		{AuthError("a").Build(), 401},
		{NotFoundError("n").Build(), 404},
		{AlreadyExistsError("e").Build(), 409},
		{DatabaseError("d").Build(), 503},
		{NLPError("n").Build(), 502},
		{NetworkError("n").Build(), 502},
		{InternalError("i").Build(), 500},
		{errors.New("plain"), 500},
		{nil, 200},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, adapter.StatusCodeFor(tc.err))
	}
}

func TestFormatErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)
	err := AlreadyExistsError("document 'a.xml' already exists").
		WithContext("collection", "manuscripts").
		Build()

	resp := adapter.FormatErrorResponse(err)
	assert.Equal(t, "document 'a.xml' already exists", resp.Error)
	assert.Equal(t, "already_exists", resp.Code)
	assert.Equal(t, "manuscripts", resp.Details["collection"])
	assert.False(t, resp.Retryable)

	retryResp := adapter.FormatErrorResponse(DatabaseError("down").Build())
	assert.True(t, retryResp.Retryable)
}
