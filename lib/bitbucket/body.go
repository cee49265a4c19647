// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bitbucket

import (
	"errors"
	"fmt"
	"io"
)

// Response size bounds. They stop a misbehaving server from exhausting
// memory and should never trigger in normal operation.
const (
	// maxResponseSize bounds JSON bodies: 64 MB.
	maxResponseSize int64 = 64 << 20

	// maxTextSize bounds diffs and step logs: 256 MB.
	maxTextSize int64 = 256 << 20
)

// errBodyTooLarge is returned when a body exceeds its bound.
var errBodyTooLarge = errors.New("bitbucket: response body exceeds size limit")

// readBody reads body up to limit bytes. A body longer than limit is
// an error rather than a silently truncated result.
func readBody(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", errBodyTooLarge, limit)
	}
	return data, nil
}
