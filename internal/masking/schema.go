// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package masking implements schema-driven redaction of secret-bearing
// plugin configuration.  Which properties are secret is not known to the
// core: every plugin type publishes a json schema annotating its properties
// with "sensitive" (the whole value is secret) or "sensitive-uri" (the value
// is a connection uri whose embedded password is secret).  Masking walks the
// schema, never a fixed field list.
package masking

import (
	"context"
	"encoding/json"
	"fmt"
)

// Property describes one property of a plugin configuration schema.
type Property struct {
	// Type is the json-schema type of the property ("string", "object", ...).
	Type string `json:"type,omitempty"`

	// Sensitive marks the whole property value as secret.
	Sensitive bool `json:"sensitive,omitempty"`

	// SensitiveURI marks the property as a connection uri whose password
	// segment is secret.
	SensitiveURI bool `json:"sensitive-uri,omitempty"`

	// Properties holds nested properties when Type == "object".
	Properties map[string]*Property `json:"properties,omitempty"`
}

// Schema is a plugin type's configuration schema.  It keeps the raw schema
// document so callers can also run full json-schema validation against it.
type Schema struct {
	// Type is the json-schema type of the document root, normally "object".
	Type string `json:"type,omitempty"`

	// Properties are the root properties of the configuration.
	Properties map[string]*Property `json:"properties,omitempty"`

	raw json.RawMessage
}

// ParseSchema parses a raw json schema document.
func ParseSchema(raw []byte) (*Schema, error) {
	const op = "masking.ParseSchema"
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: missing raw schema: %w", op, ErrInvalidParameter)
	}
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%s: unable to parse schema: %w", op, err)
	}
	s.raw = append([]byte(nil), raw...)
	return &s, nil
}

// Raw returns the schema's raw json document.
func (s *Schema) Raw() []byte {
	if s == nil {
		return nil
	}
	return s.raw
}

// A SchemaRepository resolves a plugin type to its configuration schema.  It
// returns (nil, nil) when the plugin type is unknown or retired; callers must
// fail closed in that case and treat the whole configuration as
// unrepresentable.
type SchemaRepository interface {
	Schema(ctx context.Context, pluginType string) (*Schema, error)
}
