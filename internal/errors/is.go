// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors

import "errors"

// IsNotFoundError returns a boolean indicating whether the error is known to
// report a record not found.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var domainErr *Err
	if errors.As(err, &domainErr) {
		if domainErr.Code == RecordNotFound {
			return true
		}
	}

	return false
}

// IsSchemaNotFoundError returns a boolean indicating whether the error is
// known to report a missing configuration schema for a plugin type.
func IsSchemaNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var domainErr *Err
	if errors.As(err, &domainErr) {
		if domainErr.Code == PluginSchemaNotFound {
			return true
		}
	}

	return false
}

// IsInvalidConfigurationError returns a boolean indicating whether the error
// is known to report a plugin configuration that failed validation.
func IsInvalidConfigurationError(err error) bool {
	if err == nil {
		return false
	}

	var domainErr *Err
	if errors.As(err, &domainErr) {
		if domainErr.Code == InvalidConfiguration {
			return true
		}
	}

	return false
}
