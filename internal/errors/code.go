// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors

// Code specifies a code for the error.
type Code uint32

// String will return the Code's Info.Message
func (c Code) String() string {
	return c.Info().Message
}

// Info will look up the Code's Info.  If the Info is not found, it will return
// Info for an Unknown Code.
func (c Code) Info() Info {
	if info, ok := errorCodeInfo[c]; ok {
		return info
	}
	return errorCodeInfo[Unknown]
}

const (
	Unknown Code = 0 // Unknown will be equal to a zero value for Codes

	// General function errors are reserved Codes 100-999
	InvalidParameter Code = 100 // InvalidParameter represents an invalid parameter for an operation.
	Io               Code = 101 // Io represents an error during an io operation.
	Internal         Code = 102 // Internal represents an internal error.
	Encode           Code = 103 // Encode represents an error occurred during encoding.
	Decode           Code = 104 // Decode represents an error occurred during decoding.

	// Store errors are reserved Codes from 1000-1999
	RecordNotFound  Code = 1100 // RecordNotFound represents that a record was not found matching the criteria
	MultipleRecords Code = 1101 // MultipleRecords represents that multiple records were found matching the criteria

	// Plugin lifecycle errors are reserved Codes from 2000-2999
	PluginSchemaNotFound Code = 2000 // PluginSchemaNotFound represents an unknown or retired plugin type with no configuration schema
	PluginBuildFailed    Code = 2001 // PluginBuildFailed represents a plugin factory failure while building a provider
	InvalidConfiguration Code = 2002 // InvalidConfiguration represents a plugin configuration that failed schema validation
	ExternalPlugin       Code = 2003 // ExternalPlugin represents an error returned by a running provider instance

	// Registry state errors are reserved Codes from 3000-3999
	RegistryNotStarted Code = 3000 // RegistryNotStarted represents an operation against a registry that was never started
	RegistryClosed     Code = 3001 // RegistryClosed represents an operation against a registry that has been shut down
)
