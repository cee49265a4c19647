// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bureau-foundation/bitbucket-mcp/lib/bitbucket"
	"github.com/bureau-foundation/bitbucket-mcp/lib/review"
)

// ErrorCategory classifies tool errors so that MCP clients can make
// programmatic decisions (retry, fix input, escalate) without parsing
// error message text.
type ErrorCategory string

const (
	// CategoryValidation indicates the caller provided invalid input:
	// a missing required argument, an unknown enum value, no resolvable
	// workspace. The caller should fix the input and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound indicates a referenced repository, pull request,
	// comment, or pipeline does not exist (or is invisible to the
	// configured credentials).
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryForbidden indicates Bitbucket rejected the credentials or
	// they lack permission for the operation.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryConflict indicates the operation conflicts with the
	// current state of the resource (already merged, merge conflicts).
	CategoryConflict ErrorCategory = "conflict"

	// CategoryTransient indicates a temporary failure: network error,
	// timeout, rate limit, 5xx. The caller should back off and retry.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal indicates an unexpected error. The caller should
	// report the error rather than retry.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error returned by tool handlers. The MCP
// server inspects the Category to produce structured error metadata
// alongside the human-readable error text.
//
// ToolError wraps an inner error, preserving the full error chain
// while adding category metadata. Use the category-specific
// constructors rather than constructing ToolError directly.
type ToolError struct {
	// Category classifies the error for programmatic handling.
	Category ErrorCategory

	// Err is the underlying error with the human-readable message.
	Err error
}

// Error returns the underlying error message. The category travels
// separately in the MCP result metadata.
func (e *ToolError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error { return e.Err }

// Retryable reports whether the same call may succeed later.
func (e *ToolError) Retryable() bool { return e.Category == CategoryTransient }

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Forbidden creates a forbidden error.
func Forbidden(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryForbidden, Err: fmt.Errorf(format, args...)}
}

// Conflict creates a conflict error.
func Conflict(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryConflict, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// Classify converts any handler error into a ToolError. Errors that
// are already categorized pass through; Bitbucket API errors are
// categorized by status code with the upstream message preserved.
func Classify(err error) *ToolError {
	if err == nil {
		return nil
	}

	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}

	if errors.Is(err, review.ErrMissingWorkspace) || errors.Is(err, review.ErrMissingUser) {
		return &ToolError{Category: CategoryValidation, Err: err}
	}
	if errors.Is(err, bitbucket.ErrMissingCommit) {
		return &ToolError{Category: CategoryNotFound, Err: err}
	}

	var apiErr *bitbucket.APIError
	if errors.As(err, &apiErr) {
		return &ToolError{Category: categoryForStatus(apiErr.StatusCode), Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ToolError{Category: CategoryTransient, Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &ToolError{Category: CategoryInternal, Err: err}
	}

	// What remains came from the HTTP transport: DNS, TLS, connection
	// reset.
	return &ToolError{Category: CategoryTransient, Err: err}
}

// categoryForStatus maps an upstream HTTP status to an error category.
func categoryForStatus(statusCode int) ErrorCategory {
	switch {
	case statusCode == http.StatusBadRequest, statusCode == http.StatusUnprocessableEntity:
		return CategoryValidation
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return CategoryForbidden
	case statusCode == http.StatusNotFound, statusCode == http.StatusGone:
		return CategoryNotFound
	case statusCode == http.StatusConflict:
		return CategoryConflict
	case statusCode == http.StatusTooManyRequests, statusCode >= 500:
		return CategoryTransient
	default:
		return CategoryInternal
	}
}
