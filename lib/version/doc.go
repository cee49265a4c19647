// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the
// bitbucket-mcp binary.
//
// Version information is injected at build time via -ldflags, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/bitbucket-mcp/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Without -ldflags the variables keep their development defaults and
// [Commit] falls back to the VCS revision stamped by the toolchain.
package version
