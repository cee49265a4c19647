// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bitbucket provides a Go client for the Bitbucket Cloud REST
// API (v2).
//
// The client authenticates with either a bearer token (repository,
// project, or workspace access token) or a username and app password.
// Credentials are attached to each request individually rather than to
// the transport, so redirects that leave the API host (large diffs and
// step logs are served from object storage) never carry them.
//
// Operations that feed internal logic (pull request listing for the
// pending-review aggregator, comment listing for pending-comment
// publication, single pull request lookup for diffs) decode into typed
// structs. Everything else returns the upstream JSON verbatim as a
// [json.RawMessage] so that no field Bitbucket adds is silently
// dropped on the way to the caller.
//
// All requests are made over HTTPS. The client refuses non-HTTPS base
// URLs. There is no retry, rate-limit handling, or pagination beyond
// the first page: callers ask for a page length and get one page.
package bitbucket
