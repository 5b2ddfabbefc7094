// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package expiry

import (
	"context"
	"time"

	"github.com/gatehouse-id/gatehouse/internal/plugin"
)

// Category is the notification category every expiration reminder and
// acknowledgement is filed under.  Registration and cleanup address the
// notification service by (subject id, category) so other notification kinds
// for the same subject are untouched.
const Category = "expiration-reminder"

// A Reminder is one scheduled expiration notification.
type Reminder struct {
	// SubjectId is the id of the expiring entity.
	SubjectId string

	// Category files the reminder; always Category for this package.
	Category string

	// FireAt is when the notification should be delivered.
	FireAt time.Time

	// ExpiresAt is the expiry the reminder warns about.
	ExpiresAt time.Time

	// Recipients are the resolved recipient ids.
	Recipients []string
}

// Notifier is the narrow interface the scheduler uses against the
// notification service.  All three operations are idempotent: registering an
// already registered reminder and unregistering an absent one both succeed.
type Notifier interface {
	// Register schedules a reminder.
	Register(ctx context.Context, r Reminder) error

	// UnregisterAll cancels every reminder filed under (subjectId,
	// category).
	UnregisterAll(ctx context.Context, subjectId, category string) error

	// DeleteAcknowledgement removes any acknowledgement record filed under
	// (subjectId, category) so a re-registered reminder is not silenced by
	// an acknowledgement of the previous expiry.
	DeleteAcknowledgement(ctx context.Context, subjectId, category string) error
}

// A RecipientResolver resolves the owning reference of a record to the
// recipient ids reminders are addressed to, typically the owners of the
// record's security domain.
type RecipientResolver interface {
	ResolveRecipients(ctx context.Context, ref plugin.Reference) ([]string, error)
}
