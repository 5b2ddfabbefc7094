// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors

// Errors returned from this package may be tested against these errors with
// errors.Is.
var (
	// ErrInvalidParameter is returned when an attribute contains illegal or
	// invalid values.
	ErrInvalidParameter error = &Err{Code: InvalidParameter}

	// ErrRecordNotFound is returned when a record was not found in the
	// configuration store.  Callers that treat an absent record as a normal
	// empty result should not see this error at all.
	ErrRecordNotFound error = &Err{Code: RecordNotFound}

	// ErrSchemaNotFound is returned when there is no configuration schema
	// registered for a plugin type.  Because masking is schema driven, this
	// is a hard error on any path that would otherwise surface configuration
	// data.
	ErrSchemaNotFound error = &Err{Code: PluginSchemaNotFound}

	// ErrBuildFailed is returned when the plugin factory could not produce a
	// provider from a plugin record.
	ErrBuildFailed error = &Err{Code: PluginBuildFailed}
)
