// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package services contains the administrative service surface for
// plugin-backed entities.  The concrete CRUD services live with the
// configuration store; this package supplies the decorator every
// administrative UI talks to, which masks secrets on the way out and emits
// audit records for every mutation.
package services

import (
	"context"

	"github.com/gatehouse-id/gatehouse/internal/plugin"
)

// PluginEntityService is the CRUD surface of one plugin-backed entity kind
// (certificates, identity providers, reporters, ...).  Lookups return
// (nil, nil) when no record exists; mutation results always carry the
// persisted record state.
type PluginEntityService interface {
	// FindById returns the record with the given id, or (nil, nil) when
	// absent.
	FindById(ctx context.Context, publicId string) (*plugin.Record, error)

	// FindByReference returns every record owned by the given reference.
	FindByReference(ctx context.Context, ref plugin.Reference) ([]*plugin.Record, error)

	// Create persists a new record and returns it with its assigned id.
	Create(ctx context.Context, r *plugin.Record) (*plugin.Record, error)

	// Update persists changes to an existing record and returns the updated
	// state.
	Update(ctx context.Context, r *plugin.Record) (*plugin.Record, error)

	// Delete removes the record with the given id.
	Delete(ctx context.Context, publicId string) error
}
