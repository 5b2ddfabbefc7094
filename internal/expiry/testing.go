// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package expiry

import (
	"context"
	"sync"
)

// TestNotifier is an in-memory Notifier for tests.  It records registered
// reminders and deleted acknowledgements and can be made to fail any of the
// three operations.
type TestNotifier struct {
	mu        sync.Mutex
	reminders map[string][]Reminder
	acks      map[string]bool

	// RegisterErr, UnregisterErr and DeleteAckErr, when set, are returned
	// by the corresponding operation.
	RegisterErr   error
	UnregisterErr error
	DeleteAckErr  error

	unregisterCalls int
	deleteAckCalls  int
}

// NewTestNotifier creates an empty TestNotifier with every subject's
// acknowledgement initially present once set via Acknowledge.
func NewTestNotifier() *TestNotifier {
	return &TestNotifier{
		reminders: map[string][]Reminder{},
		acks:      map[string]bool{},
	}
}

// Register implements Notifier.
func (n *TestNotifier) Register(_ context.Context, r Reminder) error {
	if n.RegisterErr != nil {
		return n.RegisterErr
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminders[r.SubjectId] = append(n.reminders[r.SubjectId], r)
	return nil
}

// UnregisterAll implements Notifier.
func (n *TestNotifier) UnregisterAll(_ context.Context, subjectId, _ string) error {
	n.mu.Lock()
	n.unregisterCalls++
	n.mu.Unlock()
	if n.UnregisterErr != nil {
		return n.UnregisterErr
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.reminders, subjectId)
	return nil
}

// DeleteAcknowledgement implements Notifier.
func (n *TestNotifier) DeleteAcknowledgement(_ context.Context, subjectId, _ string) error {
	n.mu.Lock()
	n.deleteAckCalls++
	n.mu.Unlock()
	if n.DeleteAckErr != nil {
		return n.DeleteAckErr
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.acks, subjectId)
	return nil
}

// Acknowledge marks a subject's reminder as acknowledged.
func (n *TestNotifier) Acknowledge(subjectId string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.acks[subjectId] = true
}

// Acknowledged reports whether a subject's acknowledgement is still present.
func (n *TestNotifier) Acknowledged(subjectId string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.acks[subjectId]
}

// Reminders returns the reminders currently registered for a subject.
func (n *TestNotifier) Reminders(subjectId string) []Reminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Reminder(nil), n.reminders[subjectId]...)
}

// UnregisterCalls returns how often UnregisterAll was invoked.
func (n *TestNotifier) UnregisterCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.unregisterCalls
}

// DeleteAckCalls returns how often DeleteAcknowledgement was invoked.
func (n *TestNotifier) DeleteAckCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.deleteAckCalls
}
