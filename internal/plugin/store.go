// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package plugin

import "context"

// Store is the narrow read interface the core uses against the configuration
// store.  The store itself (its engine, transactions, CRUD surface) is an
// external collaborator.
type Store interface {
	// FindRecord returns the record with the given id, or (nil, nil) when no
	// such record exists.  An absent record is a normal empty result, not an
	// error.
	FindRecord(ctx context.Context, publicId string) (*Record, error)

	// ListRecords streams every record, invoking cb once per record.
	// Returning an error from cb stops the iteration and is returned to the
	// caller.
	ListRecords(ctx context.Context, cb func(*Record) error) error
}

// Listener receives lifecycle events from the Bus.
type Listener interface {
	OnEvent(ctx context.Context, e Event)
}

// Bus is the narrow subscription interface the core uses against the event
// bus.  Every process subscribes independently; there is no distributed
// coordination.
type Bus interface {
	Subscribe(ctx context.Context, l Listener) error
}
