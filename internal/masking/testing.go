// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package masking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSchemaRepository is an in-memory SchemaRepository for tests.  Unknown
// plugin types resolve to (nil, nil) like a production repository would.
type TestSchemaRepository struct {
	schemas map[string]*Schema

	// Err, when set, is returned by every Schema call.
	Err error
}

// NewTestSchemaRepository creates an empty TestSchemaRepository.
func NewTestSchemaRepository() *TestSchemaRepository {
	return &TestSchemaRepository{schemas: map[string]*Schema{}}
}

// Set registers a schema document for a plugin type, parsing it first.
func (r *TestSchemaRepository) Set(t testing.TB, pluginType string, raw string) *Schema {
	t.Helper()
	require := require.New(t)
	s, err := ParseSchema([]byte(raw))
	require.NoError(err)
	r.schemas[pluginType] = s
	return s
}

// Schema implements SchemaRepository.
func (r *TestSchemaRepository) Schema(_ context.Context, pluginType string) (*Schema, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.schemas[pluginType], nil
}

// TestSchema parses a schema document, failing the test on error.
func TestSchema(t testing.TB, raw string) *Schema {
	t.Helper()
	require := require.New(t)
	s, err := ParseSchema([]byte(raw))
	require.NoError(err)
	return s
}
