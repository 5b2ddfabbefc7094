// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package expiry

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/gatehouse-id/gatehouse/internal/errors"
	"github.com/gatehouse-id/gatehouse/internal/event"
	"github.com/gatehouse-id/gatehouse/internal/plugin"
)

// Scheduler keeps expiration reminders registered for watched entities.  It
// is driven entirely by the lifecycle registry: Watch on every successful
// (re)build, Unwatch on every removal.  All methods are safe for concurrent
// use; the registry already serializes calls per entity id, so the scheduler
// only guards its own bookkeeping.
type Scheduler struct {
	notifier   Notifier
	thresholds []time.Duration
	resolver   RecipientResolver

	// watched maps entity id to the expiry its reminders were registered
	// for, so an unchanged expiry on redeploy is a no-op.
	watched sync.Map

	// set by tests
	now func() time.Time
}

// New creates a Scheduler registering reminders through n.  Supported
// options: WithThresholds, WithRecipientResolver.
func New(ctx context.Context, n Notifier, opt ...Option) (*Scheduler, error) {
	const op = "expiry.New"
	if n == nil {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing notifier")
	}
	opts := getOpts(opt...)
	return &Scheduler{
		notifier:   n,
		thresholds: opts.withThresholds,
		resolver:   opts.withResolver,
		now:        time.Now,
	}, nil
}

// WarningThreshold returns the widest configured threshold; it is the window
// Status uses to classify entities as WILL_EXPIRE.
func (s *Scheduler) WarningThreshold() time.Duration {
	var max time.Duration
	for _, t := range s.thresholds {
		if t > max {
			max = t
		}
	}
	return max
}

// Status classifies an entity's validity against the scheduler's widest
// threshold.
func (s *Scheduler) Status(expiresAt *time.Time, renewed bool) Status {
	return classifyAt(s.now(), expiresAt, renewed, s.WarningThreshold())
}

// Watch reconciles the reminder schedule for a freshly built provider.  A
// provider without an expiry clears any reminders left over from a previous
// expiring build.  An expiry unchanged since the last Watch is a no-op; a
// changed one drops the old reminders and their acknowledgement and
// registers reminders at every configured threshold still in the future.
func (s *Scheduler) Watch(ctx context.Context, r *plugin.Record, p plugin.Provider) error {
	const op = "expiry.(Scheduler).Watch"
	if err := r.Validate(); err != nil {
		return errors.Wrap(ctx, err, op)
	}
	if p == nil {
		return errors.New(ctx, errors.InvalidParameter, op, "missing provider")
	}

	exp, ok := expirationOf(p)
	if !ok {
		if _, loaded := s.watched.LoadAndDelete(r.PublicId); loaded {
			if err := s.cleanup(ctx, r.PublicId); err != nil {
				return errors.Wrap(ctx, err, op)
			}
		}
		return nil
	}

	if prev, loaded := s.watched.Load(r.PublicId); loaded && prev.(time.Time).Equal(exp) {
		return nil
	}
	if err := s.cleanup(ctx, r.PublicId); err != nil {
		return errors.Wrap(ctx, err, op)
	}

	var recipients []string
	if s.resolver != nil {
		var err error
		recipients, err = s.resolver.ResolveRecipients(ctx, r.Reference)
		if err != nil {
			return errors.Wrap(ctx, err, op, errors.WithMsg("unable to resolve reminder recipients"))
		}
	}

	now := s.now()
	registered := 0
	for _, threshold := range s.thresholds {
		fireAt := exp.Add(-threshold)
		if fireAt.Before(now) {
			continue
		}
		reminder := Reminder{
			SubjectId:  r.PublicId,
			Category:   Category,
			FireAt:     fireAt,
			ExpiresAt:  exp,
			Recipients: recipients,
		}
		if err := s.notifier.Register(ctx, reminder); err != nil {
			return errors.Wrap(ctx, err, op, errors.WithMsg("unable to register reminder"))
		}
		registered++
	}
	s.watched.Store(r.PublicId, exp)
	event.WriteObservation(ctx, op,
		event.WithHeader(
			"msg", "expiration reminders reconciled",
			"subject_id", r.PublicId,
			"expires_at", exp.Format(time.RFC3339),
			"registered", registered,
		),
	)
	return nil
}

// Unwatch drops every reminder and acknowledgement for an entity.  It is
// called for every removal event, cached provider or not, so stray reminders
// from failed deploys are cleared too; an entity with nothing registered is
// a successful no-op.
func (s *Scheduler) Unwatch(ctx context.Context, subjectId string) error {
	const op = "expiry.(Scheduler).Unwatch"
	if subjectId == "" {
		return errors.New(ctx, errors.InvalidParameter, op, "missing subject id")
	}
	s.watched.Delete(subjectId)
	if err := s.cleanup(ctx, subjectId); err != nil {
		return errors.Wrap(ctx, err, op)
	}
	return nil
}

// cleanup unregisters reminders and deletes the acknowledgement for a
// subject.  Both calls are always attempted; a failure in one does not skip
// the other.
func (s *Scheduler) cleanup(ctx context.Context, subjectId string) error {
	return stderrors.Join(
		s.notifier.UnregisterAll(ctx, subjectId, Category),
		s.notifier.DeleteAcknowledgement(ctx, subjectId, Category),
	)
}

// expirationOf reports the expiry of a provider, when it has one.
func expirationOf(p plugin.Provider) (time.Time, bool) {
	e, ok := p.(plugin.Expirer)
	if !ok {
		return time.Time{}, false
	}
	return e.Expiration()
}
