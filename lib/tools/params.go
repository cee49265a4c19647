// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// argumentDecoder turns raw tool call arguments into a params struct
// using the same schema that is published to clients. Every failure is
// a validation error and happens before any Bitbucket request.
type argumentDecoder struct {
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
}

// newArgumentDecoder resolves schema once. Defaults are checked against
// their own property schemas at resolution.
func newArgumentDecoder(schema *jsonschema.Schema) (*argumentDecoder, error) {
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
	if err != nil {
		return nil, err
	}
	return &argumentDecoder{schema: schema, resolved: resolved}, nil
}

// decode fills params (a pointer to a struct) from arguments. Nulls are
// dropped, numeric strings are accepted for integer and number
// properties, schema defaults are applied, and the result is validated
// before it is decoded into params.
func (decoder *argumentDecoder) decode(arguments json.RawMessage, params any) error {
	instance := map[string]any{}
	if len(arguments) > 0 && string(arguments) != "null" {
		if err := json.Unmarshal(arguments, &instance); err != nil {
			return Validation("invalid arguments: %w", err)
		}
		if instance == nil {
			instance = map[string]any{}
		}
	}

	normalize(decoder.schema, instance)
	if err := decoder.resolved.ApplyDefaults(&instance); err != nil {
		return Internal("applying defaults: %w", err)
	}
	if err := checkRequired(decoder.schema, instance, ""); err != nil {
		return err
	}
	if err := decoder.resolved.Validate(instance); err != nil {
		return Validation("invalid arguments: %w", err)
	}

	encoded, err := json.Marshal(instance)
	if err != nil {
		return Internal("re-encoding arguments: %w", err)
	}
	if err := json.Unmarshal(encoded, params); err != nil {
		return Validation("invalid arguments: %w", err)
	}
	return nil
}

// normalize drops null members of object, so an explicit null means
// "not supplied", and converts numeric strings to numbers where the
// property schema asks for one. Nested objects and arrays of objects
// are normalized against their own schemas.
func normalize(schema *jsonschema.Schema, object map[string]any) {
	for name, value := range object {
		if value == nil {
			delete(object, name)
			continue
		}
		property := schema.Properties[name]
		if property == nil {
			continue
		}
		switch typed := value.(type) {
		case string:
			if number, ok := parseNumber(property.Type, typed); ok {
				object[name] = number
			}
		case map[string]any:
			normalize(property, typed)
		case []any:
			if property.Items == nil {
				continue
			}
			for _, element := range typed {
				if nested, ok := element.(map[string]any); ok {
					normalize(property.Items, nested)
				}
			}
		}
	}
}

// parseNumber converts text to the JSON number encoding/json would have
// produced, when schemaType is numeric and text parses as one.
func parseNumber(schemaType, text string) (float64, bool) {
	text = strings.TrimSpace(text)
	switch schemaType {
	case "integer":
		number, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return 0, false
		}
		return float64(number), true
	case "number":
		number, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, false
		}
		return number, true
	}
	return 0, false
}

// checkRequired reports required properties that are absent, blank
// strings, or empty arrays. The path in the error is dotted for nested
// objects and indexed for array elements (inline.path,
// branch_types[0].kind).
func checkRequired(schema *jsonschema.Schema, object map[string]any, prefix string) error {
	for _, name := range schema.Required {
		if isBlank(object[name]) {
			return Validation("missing required argument %q", joinPath(prefix, name))
		}
	}
	for name, value := range object {
		property := schema.Properties[name]
		if property == nil {
			continue
		}
		path := joinPath(prefix, name)
		switch typed := value.(type) {
		case map[string]any:
			if err := checkRequired(property, typed, path); err != nil {
				return err
			}
		case []any:
			if property.Items == nil {
				continue
			}
			for index, element := range typed {
				nested, ok := element.(map[string]any)
				if !ok {
					continue
				}
				if err := checkRequired(property.Items, nested, fmt.Sprintf("%s[%d]", path, index)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func isBlank(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case []any:
		return len(typed) == 0
	}
	return false
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
