// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// exitCoder is implemented by errors that carry their own exit status.
type exitCoder interface {
	ExitCode() int
}

// Fatal writes "error: err" to stderr and exits. The exit status is 1
// unless err carries its own via an ExitCode() method. Use it in main()
// for errors from run(), where the structured logger may not exist.
func Fatal(err error) {
	os.Exit(Report(os.Stderr, err))
}

// Report writes err to writer in the Fatal format and returns the exit
// status Fatal would use.
func Report(writer io.Writer, err error) int {
	fmt.Fprintf(writer, "error: %v\n", err)
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}
