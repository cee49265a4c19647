// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bitbucket

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrMissingCommit is returned by GetPullRequestDiff when the pull
// request exists but does not report a source or destination commit
// hash (for example, when its source branch has been deleted).
var ErrMissingCommit = errors.New("bitbucket: pull request has no source or destination commit hash")

// APIError represents a non-2xx response from the Bitbucket REST API.
// Bitbucket wraps errors as {"type": "error", "error": {"message": ...,
// "detail": ...}}; bodies that do not parse that way are kept verbatim
// in Message.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Message is the top-level error description from Bitbucket.
	Message string

	// Detail is Bitbucket's optional longer explanation. It may be a
	// string or, for validation failures, a JSON object; either way it
	// is kept as text.
	Detail string
}

func (err *APIError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "bitbucket: HTTP %d", err.StatusCode)
	if err.Message != "" {
		fmt.Fprintf(&builder, ": %s", err.Message)
	}
	if err.Detail != "" {
		fmt.Fprintf(&builder, " (%s)", err.Detail)
	}
	return builder.String()
}

// IsNotFound reports whether err is a Bitbucket API 404 response.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is a Bitbucket API 401 response:
// the credentials were missing, wrong, or expired.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden reports whether err is a Bitbucket API 403 response.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// IsConflict reports whether err is a Bitbucket API 409 response.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

func hasStatus(err error, statusCode int) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == statusCode
}

// parseAPIErrorFromBody parses a Bitbucket API error from a status code
// and response body.
func parseAPIErrorFromBody(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var wireError struct {
		Type  string `json:"type"`
		Error struct {
			Message string          `json:"message"`
			Detail  json.RawMessage `json:"detail"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Error.Message != "" {
		apiError.Message = wireError.Error.Message
		apiError.Detail = detailText(wireError.Error.Detail)
		return apiError
	}

	apiError.Message = strings.TrimSpace(string(body))
	if apiError.Message == "" {
		apiError.Message = http.StatusText(statusCode)
	}
	return apiError
}

// detailText renders Bitbucket's detail field, which is a plain string
// for most errors and an object of field messages for 400 validation
// failures.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return text
	}
	return string(raw)
}
