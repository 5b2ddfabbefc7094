// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package plugin

import "errors"

// ErrInvalidParameter is used by the model's validations; the richer domain
// errors package wraps it with codes and ops at the call sites that have a
// context.
var ErrInvalidParameter = errors.New("invalid parameter")
