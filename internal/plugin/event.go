// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package plugin

import "fmt"

// EventKind is the kind of a lifecycle event.
type EventKind string

const (
	DeployEvent   EventKind = "deploy"
	CreateEvent   EventKind = "create"
	UpdateEvent   EventKind = "update"
	RenewEvent    EventKind = "renew"
	UndeployEvent EventKind = "undeploy"
	DeleteEvent   EventKind = "delete"
)

// IsDeployment reports whether the kind results in a (re)built provider.
func (k EventKind) IsDeployment() bool {
	switch k {
	case DeployEvent, CreateEvent, UpdateEvent, RenewEvent:
		return true
	default:
		return false
	}
}

// IsRemoval reports whether the kind removes a provider.
func (k EventKind) IsRemoval() bool {
	switch k {
	case UndeployEvent, DeleteEvent:
		return true
	default:
		return false
	}
}

// An Event is a transient lifecycle notification delivered by the event bus
// after the configuration store persisted an administrative mutation.
type Event struct {
	Kind      EventKind
	EntityId  string
	Reference Reference
}

func (e Event) Validate() error {
	const op = "plugin.(Event).Validate"
	if e.EntityId == "" {
		return fmt.Errorf("%s: missing entity id: %w", op, ErrInvalidParameter)
	}
	return nil
}
