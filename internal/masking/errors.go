// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package masking

import "errors"

var (
	// ErrInvalidParameter is returned for invalid arguments; this package
	// keeps its own sentinel so it stays import-free of the domain errors
	// package and usable from any layer.
	ErrInvalidParameter = errors.New("invalid parameter")
)
