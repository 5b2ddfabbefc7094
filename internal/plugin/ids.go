// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package plugin

import (
	"fmt"

	"github.com/hashicorp/go-secure-stdlib/base62"
)

// Public id prefixes for the resources in the plugin package.
const (
	RecordPrefix = "plg"
)

// NewRecordId generates a public id for a plugin record.
func NewRecordId() (string, error) {
	const op = "plugin.NewRecordId"
	id, err := base62.Random(10)
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate id: %w", op, err)
	}
	return fmt.Sprintf("%s_%s", RecordPrefix, id), nil
}
