// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcpserver exposes a tool catalog over the Model Context
// Protocol. Protocol framing, the initialize handshake, tools/list,
// and transport handling belong to the MCP SDK; this package registers
// each tool with its schema and annotations and turns tool output and
// errors into MCP results.
//
// Tool failures are not protocol errors. A failing call returns a
// result with isError set, the error text as content, and
// _meta.errorInfo carrying the error category and whether a retry may
// help. Unknown tool names are rejected by the SDK as JSON-RPC errors.
package mcpserver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bureau-foundation/bitbucket-mcp/lib/tools"
)

// Config holds the server's identity and catalog.
type Config struct {
	// Name and Version are reported to clients during initialization.
	Name    string
	Version string

	// Tools is the catalog to expose.
	Tools []tools.Tool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server is an MCP server exposing a tool catalog.
type Server struct {
	server *mcp.Server
	logger *slog.Logger
}

// errorInfo is the structured error metadata attached to failed tool
// results under _meta.errorInfo.
type errorInfo struct {
	Category  string `json:"category"`
	Retryable bool   `json:"retryable"`
}

// New creates a server and registers every tool in config.Tools.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    config.Name,
		Version: config.Version,
	}, nil)

	for _, tool := range config.Tools {
		server.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
			Annotations: resolveAnnotations(tool.Annotations),
		}, toolHandler(tool))
	}

	logger.Debug("registered tools", "count", len(config.Tools))
	return &Server{server: server, logger: logger}
}

// Serve runs the server over stdin/stdout until the client disconnects
// or ctx is cancelled. A client closing stdin is a normal shutdown.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	err := s.server.Run(ctx, &mcp.StdioTransport{})
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Connect starts a session on an arbitrary transport. Serve uses stdio;
// tests use in-memory transports.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

// toolHandler adapts a catalog tool to the SDK's raw handler. The
// handler never returns a Go error: tool failures travel in the result.
func toolHandler(tool tools.Tool) mcp.ToolHandler {
	return func(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		output, err := tool.Call(ctx, request.Params.Arguments)
		return buildToolResult(output, err), nil
	}
}

// buildToolResult assembles a CallToolResult from tool output and an
// optional error.
func buildToolResult(output string, callErr error) *mcp.CallToolResult {
	result := &mcp.CallToolResult{}
	if output != "" {
		result.Content = append(result.Content, &mcp.TextContent{Text: output})
	}
	if callErr != nil {
		result.IsError = true
		result.Content = append(result.Content, &mcp.TextContent{Text: callErr.Error()})
		result.Meta = mcp.Meta{"errorInfo": classifyError(callErr)}
	}
	// MCP requires at least one content block in the result.
	if len(result.Content) == 0 {
		result.Content = []mcp.Content{&mcp.TextContent{Text: ""}}
	}
	return result
}

// classifyError extracts structured error metadata from an error.
func classifyError(err error) errorInfo {
	toolErr := tools.Classify(err)
	return errorInfo{
		Category:  string(toolErr.Category),
		Retryable: toolErr.Retryable(),
	}
}

// resolveAnnotations translates catalog annotations into MCP hints.
// Returns nil when the tool declares none, letting clients apply the
// protocol defaults.
func resolveAnnotations(annotations *tools.Annotations) *mcp.ToolAnnotations {
	if annotations == nil {
		return nil
	}
	resolved := &mcp.ToolAnnotations{
		DestructiveHint: annotations.Destructive,
		OpenWorldHint:   annotations.OpenWorld,
	}
	if annotations.ReadOnly != nil {
		resolved.ReadOnlyHint = *annotations.ReadOnly
	}
	if annotations.Idempotent != nil {
		resolved.IdempotentHint = *annotations.Idempotent
	}
	return resolved
}
