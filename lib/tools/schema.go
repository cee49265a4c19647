// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// ParamsSchema generates the JSON Schema describing a tool's input from
// its parameter struct type. Property names come from json tags,
// descriptions from desc tags, defaults from default tags, and allowed
// values from enum tags (comma-separated). A field is required when it
// has required:"true" and no default.
//
// Embedded structs are flattened into the parent, matching how
// encoding/json decodes them. Named struct and slice-of-struct fields
// produce nested object schemas with their own required lists.
func ParamsSchema(paramsType reflect.Type) (*jsonschema.Schema, error) {
	if paramsType.Kind() == reflect.Ptr {
		paramsType = paramsType.Elem()
	}
	if paramsType.Kind() != reflect.Struct {
		return nil, Internal("params must be a struct type, got %s", paramsType.Kind())
	}
	return buildObjectSchema(paramsType)
}

// buildObjectSchema constructs an object schema from a struct type.
// Properties are always present (possibly empty): MCP clients expect
// an object schema with a properties map.
func buildObjectSchema(structType reflect.Type) (*jsonschema.Schema, error) {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema),
	}

	for i := range structType.NumField() {
		field := structType.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			embedded, err := buildObjectSchema(field.Type)
			if err != nil {
				return nil, Internal("embedded %s: %w", field.Name, err)
			}
			for name, property := range embedded.Properties {
				schema.Properties[name] = property
			}
			schema.Required = append(schema.Required, embedded.Required...)
			continue
		}

		if !field.IsExported() {
			continue
		}

		propertyName := jsonPropertyName(field)
		if propertyName == "" || propertyName == "-" {
			continue
		}

		property, err := fieldSchema(field)
		if err != nil {
			return nil, Internal("field %s: %w", field.Name, err)
		}
		schema.Properties[propertyName] = property

		if isRequired(field) {
			schema.Required = append(schema.Required, propertyName)
		}
	}

	return schema, nil
}

// jsonPropertyName extracts the JSON property name from a struct field's
// json tag. Returns "" if no json tag, or "-" if the field is excluded.
func jsonPropertyName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}

func isRequired(field reflect.StructField) bool {
	return field.Tag.Get("required") == "true" && field.Tag.Get("default") == ""
}

// enumValues splits an enum tag into its allowed values.
func enumValues(field reflect.StructField) []string {
	tag := field.Tag.Get("enum")
	if tag == "" {
		return nil
	}
	return strings.Split(tag, ",")
}

// fieldSchema builds the schema of a single struct field from its Go
// type and tags.
func fieldSchema(field reflect.StructField) (*jsonschema.Schema, error) {
	schema, err := schemaForType(field.Type)
	if err != nil {
		return nil, err
	}
	schema.Description = field.Tag.Get("desc")

	if values := enumValues(field); len(values) > 0 {
		for _, value := range values {
			schema.Enum = append(schema.Enum, value)
		}
	}

	if defaultString := field.Tag.Get("default"); defaultString != "" {
		defaultValue, err := parseDefault(field.Type, defaultString)
		if err != nil {
			return nil, Internal("default: %w", err)
		}
		encoded, err := json.Marshal(defaultValue)
		if err != nil {
			return nil, Internal("default: %w", err)
		}
		schema.Default = encoded
	}
	return schema, nil
}

// schemaForType generates a schema from a Go type. Pointers are
// dereferenced; optionality is expressed through the parent's required
// list, not through the type.
func schemaForType(typ reflect.Type) (*jsonschema.Schema, error) {
	switch typ.Kind() {
	case reflect.Ptr:
		return schemaForType(typ.Elem())
	case reflect.Struct:
		return buildObjectSchema(typ)
	case reflect.Slice, reflect.Array:
		items, err := schemaForType(typ.Elem())
		if err != nil {
			return nil, Internal("array element: %w", err)
		}
		return &jsonschema.Schema{Type: "array", Items: items}, nil
	case reflect.String:
		return &jsonschema.Schema{Type: "string"}, nil
	case reflect.Bool:
		return &jsonschema.Schema{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &jsonschema.Schema{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &jsonschema.Schema{Type: "number"}, nil
	default:
		return nil, Internal("unsupported type %s (%s)", typ, typ.Kind())
	}
}

// parseDefault parses a default tag into a value of the field's type
// so it marshals to the correct JSON type.
func parseDefault(fieldType reflect.Type, value string) (any, error) {
	if fieldType.Kind() == reflect.Ptr {
		fieldType = fieldType.Elem()
	}
	switch fieldType.Kind() {
	case reflect.String:
		return value, nil
	case reflect.Bool:
		return strconv.ParseBool(value)
	case reflect.Int, reflect.Int64:
		return strconv.ParseInt(value, 10, 64)
	case reflect.Float64:
		return strconv.ParseFloat(value, 64)
	default:
		return nil, Internal("unsupported default for type %s", fieldType)
	}
}
