// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// newLogger creates the process logger on stderr. Text when stderr is
// a terminal, JSON when it is piped (which is the usual case: MCP
// clients launch the server and capture its stderr).
func newLogger(stderr *os.File, level slog.Leveler) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(stderr.Fd())) {
		handler = slog.NewTextHandler(stderr, options)
	} else {
		handler = slog.NewJSONHandler(stderr, options)
	}
	return slog.New(handler).With("service", serverName)
}
