// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool is one entry of the catalog: its external name and contract
// plus the handler bound at declaration. Tools are created only through
// define, so a Tool without a handler cannot exist.
type Tool struct {
	// Name is the tool name exposed over MCP.
	Name string

	// Description is shown to agents when they list tools.
	Description string

	// Annotations carries the behavioral hints for the tool.
	Annotations *Annotations

	// InputSchema is generated from the tool's parameter struct.
	InputSchema *jsonschema.Schema

	call   func(ctx context.Context, arguments json.RawMessage) (any, []any, error)
	logger *slog.Logger
}

// Call decodes the arguments, runs the handler, and renders its output
// as text: strings verbatim, JSON pretty-printed. Errors are always
// *ToolError and are logged with the call's workspace, repository, and
// pull request context.
func (tool Tool) Call(ctx context.Context, arguments json.RawMessage) (string, error) {
	value, attrs, err := tool.call(ctx, arguments)
	if err != nil {
		toolErr := Classify(err)
		tool.logger.Warn("tool call failed",
			append([]any{"tool", tool.Name, "category", string(toolErr.Category), "error", err}, attrs...)...,
		)
		return "", toolErr
	}

	output, err := render(value)
	if err != nil {
		return "", Internal("rendering %s output: %w", tool.Name, err)
	}
	tool.logger.Debug("tool call succeeded", append([]any{"tool", tool.Name}, attrs...)...)
	return output, nil
}

// Handler is the typed implementation of a tool. params has been
// decoded, defaulted, and validated, and its workspace resolved.
type Handler[P any] func(ctx context.Context, params *P) (any, error)

// define declares a tool. The input schema is derived from P and
// resolved once; arguments are validated against it on every call. A P
// that cannot be described as a schema is a programming error and
// panics at catalog construction.
func define[P any](set *Toolset, name, description string, annotations *Annotations, handler Handler[P]) Tool {
	schema, err := ParamsSchema(reflect.TypeFor[P]())
	if err != nil {
		panic(fmt.Sprintf("tools.define(%q): %v", name, err))
	}
	decoder, err := newArgumentDecoder(schema)
	if err != nil {
		panic(fmt.Sprintf("tools.define(%q): resolving schema: %v", name, err))
	}

	return Tool{
		Name:        name,
		Description: description,
		Annotations: annotations,
		InputSchema: schema,
		logger:      set.logger,
		call: func(ctx context.Context, arguments json.RawMessage) (any, []any, error) {
			var params P
			if err := decoder.decode(arguments, &params); err != nil {
				return nil, nil, err
			}
			if resolver, ok := any(&params).(workspaceResolver); ok {
				if err := resolver.resolveWorkspace(set.workspace); err != nil {
					return nil, nil, err
				}
			}
			var attrs []any
			if contextual, ok := any(&params).(logContexter); ok {
				attrs = contextual.logContext()
			}
			value, err := handler(ctx, &params)
			return value, attrs, err
		},
	}
}

// render converts a handler's return value to the text sent to the
// client.
func render(value any) (string, error) {
	switch typed := value.(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	case json.RawMessage:
		if len(typed) == 0 {
			return "", nil
		}
		var buffer bytes.Buffer
		if err := json.Indent(&buffer, typed, "", "  "); err != nil {
			// Not JSON after all; hand it back untouched.
			return string(typed), nil
		}
		return buffer.String(), nil
	default:
		encoded, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}
