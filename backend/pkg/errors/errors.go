package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeCache represents gene set cache errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypeEnrichment represents statistical analysis errors
	ErrorTypeEnrichment ErrorType = "enrichment"
	// ErrorTypeCuration represents curation store errors
	ErrorTypeCuration ErrorType = "curation"
	// ErrorTypeInput represents invalid caller input
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeNotFound represents a missing resource
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, "query failed", err),
		Query:     query,
	}
}

// ErrGraphMalformedRow is returned when a query row does not have the expected shape
type ErrGraphMalformedRow struct {
	*BaseError
	Index int
}

func NewGraphMalformedRow(index int, reason string) *ErrGraphMalformedRow {
	return &ErrGraphMalformedRow{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("malformed row %d: %s", index, reason), nil),
		Index:     index,
	}
}

// Cache Errors

// ErrCacheReadFailed is returned when a cached gene set cannot be read or decoded
type ErrCacheReadFailed struct {
	*BaseError
	Key string
}

func NewCacheReadFailed(key string, err error) *ErrCacheReadFailed {
	return &ErrCacheReadFailed{
		BaseError: NewBaseError(ErrorTypeCache, fmt.Sprintf("failed to read cache entry: %s", key), err),
		Key:       key,
	}
}

// ErrCacheWriteFailed is returned when a gene set cannot be persisted
type ErrCacheWriteFailed struct {
	*BaseError
	Key string
}

func NewCacheWriteFailed(key string, err error) *ErrCacheWriteFailed {
	return &ErrCacheWriteFailed{
		BaseError: NewBaseError(ErrorTypeCache, fmt.Sprintf("failed to write cache entry: %s", key), err),
		Key:       key,
	}
}

// Enrichment Errors

// ErrUnknownSource is returned when a gene set source name is not registered
type ErrUnknownSource struct {
	*BaseError
	Source string
}

func NewUnknownSource(source string) *ErrUnknownSource {
	return &ErrUnknownSource{
		BaseError: NewBaseError(ErrorTypeInput, fmt.Sprintf("unknown gene set source: %s", source), nil),
		Source:    source,
	}
}

// ErrAnalysisFailed wraps a failure inside one analysis of a fan-out
type ErrAnalysisFailed struct {
	*BaseError
	Analysis string
}

func NewAnalysisFailed(analysis string, err error) *ErrAnalysisFailed {
	return &ErrAnalysisFailed{
		BaseError: NewBaseError(ErrorTypeEnrichment, fmt.Sprintf("analysis failed: %s", analysis), err),
		Analysis:  analysis,
	}
}

// Input Errors

// ErrInvalidInput is returned when caller-provided data cannot be used
type ErrInvalidInput struct {
	*BaseError
	Field  string
	Reason string
}

func NewInvalidInput(field, reason string) *ErrInvalidInput {
	return &ErrInvalidInput{
		BaseError: NewBaseError(ErrorTypeInput, fmt.Sprintf("invalid %s: %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrNotFound is returned when a requested resource does not exist
type ErrNotFound struct {
	*BaseError
	Resource string
}

func NewNotFound(resource string) *ErrNotFound {
	return &ErrNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("not found: %s", resource), nil),
		Resource:  resource,
	}
}

// Curation Errors

// ErrCurationStoreFailed is returned when the curation database fails
type ErrCurationStoreFailed struct {
	*BaseError
	Operation string
}

func NewCurationStoreFailed(operation string, err error) *ErrCurationStoreFailed {
	return &ErrCurationStoreFailed{
		BaseError: NewBaseError(ErrorTypeCuration, fmt.Sprintf("curation store %s failed", operation), err),
		Operation: operation,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// ErrConfigInvalid is returned when a config value is set but unusable
type ErrConfigInvalid struct {
	*BaseError
	Field string
}

func NewConfigInvalid(field, reason string) *ErrConfigInvalid {
	return &ErrConfigInvalid{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("invalid config %s: %s", field, reason), nil),
		Field:     field,
	}
}

// Helper functions

// baseOf finds the first BaseError in err's chain, including BaseErrors embedded
// in the typed wrappers above.
func baseOf(err error) *BaseError {
	for err != nil {
		switch e := err.(type) {
		case *BaseError:
			return e
		case interface{ base() *BaseError }:
			return e.base()
		}
		err = stderrors.Unwrap(err)
	}
	return nil
}

func (e *BaseError) base() *BaseError { return e }

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if b := baseOf(err); b != nil {
		return b.Type == errType
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Context errors are not retryable
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	// Graph and cache errors are usually transient
	return IsErrorType(err, ErrorTypeGraph) || IsErrorType(err, ErrorTypeCache)
}

// HTTPStatus maps an error to the status code the API should answer with
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsErrorType(err, ErrorTypeInput):
		return http.StatusBadRequest
	case IsErrorType(err, ErrorTypeNotFound):
		return http.StatusNotFound
	case IsErrorType(err, ErrorTypeContext):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
