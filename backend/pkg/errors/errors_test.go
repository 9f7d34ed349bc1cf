package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsErrorType_TypedAndWrapped(t *testing.T) {
	err := NewInvalidInput("species", "unsupported value \"fish\"")
	assert.True(t, IsErrorType(err, ErrorTypeInput))
	assert.False(t, IsErrorType(err, ErrorTypeGraph))

	wrapped := fmt.Errorf("continuous analysis: %w", err)
	assert.True(t, IsErrorType(wrapped, ErrorTypeInput))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(wrapped))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NewNotFound("prefix chebi")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(NewGraphQueryFailed("MATCH (n) RETURN n", fmt.Errorf("boom"))))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewGraphConnectionFailed("bolt://localhost:7687", fmt.Errorf("refused"))))
	assert.True(t, IsRetryable(NewCacheReadFailed("go", fmt.Errorf("eof"))))
	assert.False(t, IsRetryable(NewContextCancelled("collect go", fmt.Errorf("canceled"))))
	assert.False(t, IsRetryable(NewInvalidInput("alpha", "must be in (0, 1)")))
}

func TestBaseError_Message(t *testing.T) {
	err := NewCacheWriteFailed("reactome", fmt.Errorf("disk full"))
	assert.Equal(t, "[cache] failed to write cache entry: reactome: disk full", err.Error())
}
