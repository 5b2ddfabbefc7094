// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors

// Info contains details of the specific error code
type Info struct {
	// Kind specifies the kind of error (unknown, parameter, integrity, etc).
	Kind Kind

	// Message provides a default message for the error code
	Message string
}

// errorCodeInfo provides a map of unique Codes (IDs) to their
// corresponding Kind and a default Message.
var errorCodeInfo = map[Code]Info{
	Unknown: {
		Message: "unknown",
		Kind:    Other,
	},
	InvalidParameter: {
		Message: "invalid parameter",
		Kind:    Parameter,
	},
	Io: {
		Message: "error during io operation",
		Kind:    Integrity,
	},
	Internal: {
		Message: "internal error",
		Kind:    Other,
	},
	Encode: {
		Message: "error occurred during encode",
		Kind:    Encoding,
	},
	Decode: {
		Message: "error occurred during decode",
		Kind:    Encoding,
	},
	RecordNotFound: {
		Message: "record not found",
		Kind:    Search,
	},
	MultipleRecords: {
		Message: "multiple records",
		Kind:    Search,
	},
	PluginSchemaNotFound: {
		Message: "no configuration schema for plugin type",
		Kind:    Configuration,
	},
	PluginBuildFailed: {
		Message: "unable to build provider from plugin configuration",
		Kind:    External,
	},
	InvalidConfiguration: {
		Message: "invalid configuration",
		Kind:    Configuration,
	},
	ExternalPlugin: {
		Message: "plugin error",
		Kind:    External,
	},
	RegistryNotStarted: {
		Message: "registry not started",
		Kind:    State,
	},
	RegistryClosed: {
		Message: "registry closed",
		Kind:    State,
	},
}
