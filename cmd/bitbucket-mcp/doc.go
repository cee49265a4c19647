// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Bitbucket-mcp is a Model Context Protocol server for Bitbucket Cloud.
// It speaks MCP over stdin/stdout and exposes repositories, pull
// requests, comments, branching models, and pipelines as tools, plus a
// cross-repository view of pull requests awaiting the configured user's
// review.
//
// Configuration comes from a YAML or JSONC file (--config or
// BITBUCKET_MCP_CONFIG), a dotenv file (--env-file, default .env), and
// BITBUCKET_* environment variables. Authenticate with BITBUCKET_TOKEN,
// an OAuth consumer (BITBUCKET_OAUTH_CLIENT_ID and
// BITBUCKET_OAUTH_CLIENT_SECRET), or BITBUCKET_USERNAME and
// BITBUCKET_PASSWORD (an app password).
// Logs are written to stderr.
package main
