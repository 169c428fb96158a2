package models

import "fmt"

// ValidationError reports bad caller input. Surfaced immediately, never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "validation: " + e.Msg }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ProviderNotConfiguredError means no usable LLM provider is available.
type ProviderNotConfiguredError struct {
	Provider string
}

func (e *ProviderNotConfiguredError) Error() string {
	if e.Provider == "" {
		return "no LLM provider configured"
	}
	return fmt.Sprintf("LLM provider %q not configured", e.Provider)
}

// AuthenticationError is a provider rejecting credentials. Propagated unwrapped.
type AuthenticationError struct {
	Provider string
	Err      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("provider %s: authentication failed: %v", e.Provider, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// RateLimitError is a provider refusing work due to rate limits. Propagated
// unwrapped so callers can back off.
type RateLimitError struct {
	Provider string
	Err      error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("provider %s: rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// CollectionNotFoundError reports a query against a missing collection.
type CollectionNotFoundError struct {
	Collection string
}

func (e *CollectionNotFoundError) Error() string {
	return fmt.Sprintf("collection %q not found", e.Collection)
}

// QueryParsingError wraps an unexpected failure during intent parsing.
type QueryParsingError struct {
	Question string
	Err      error
}

func (e *QueryParsingError) Error() string {
	return fmt.Sprintf("failed to parse query %q: %v", e.Question, e.Err)
}

func (e *QueryParsingError) Unwrap() error { return e.Err }

// SearchOperationError wraps an unexpected failure during query execution.
type SearchOperationError struct {
	Op  string
	Err error
}

func (e *SearchOperationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *SearchOperationError) Unwrap() error { return e.Err }
