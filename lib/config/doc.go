// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the bitbucket-mcp server configuration.
//
// [Load] is the single entry point. It layers, later winning:
//
//   - [Default] -- the public Bitbucket Cloud API and log level info
//   - the config file named by --config or BITBUCKET_MCP_CONFIG, YAML
//     or (for .json and .jsonc) JSON with comments
//   - the process environment, after a dotenv file has been merged into
//     it without overriding variables that are already set
//   - an explicit --log-level
//
// The result is validated with every problem reported together, and is
// not consulted again through the environment: callers pass the
// [Config] (or values derived from it) to the components that need it.
package config
