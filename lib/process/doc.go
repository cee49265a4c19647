// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the binary entrypoint error handler. It is
// the one place outside lib/version that writes raw text to stderr:
// errors from run() may arrive before the structured logger exists, and
// stdout is reserved for the MCP transport.
package process
