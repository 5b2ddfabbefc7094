// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import "errors"

// The event package uses its own error sentinels rather than the domain
// errors package.  The domain errors package emits error events when errors
// are created, so importing it here would create a cycle.
var (
	// ErrInvalidParameter defines a value for invalid parameter errors
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrMaxRetries defines a value for max retries errors
	ErrMaxRetries = errors.New("too many retries")

	// ErrIo defines a value for errors that happen during io operations
	ErrIo = errors.New("error during io operation")

	// ErrInvalidOperation defines a value for operations that are invalid for
	// the eventer's current state
	ErrInvalidOperation = errors.New("invalid operation")
)
