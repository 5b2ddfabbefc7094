// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import (
	"fmt"
	"time"
)

// auditVersion defines the version of audit events
const auditVersion = "v0.1"

// Outcome defines the final outcome of an audited administrative action.
type Outcome string

const (
	SuccessOutcome Outcome = "SUCCESS"
	FailureOutcome Outcome = "FAILURE"
)

func (o Outcome) Validate() error {
	const op = "event.(Outcome).Validate"
	switch o {
	case SuccessOutcome, FailureOutcome:
		return nil
	default:
		return fmt.Errorf("%s: '%s' is not a valid outcome: %w", op, o, ErrInvalidParameter)
	}
}

// An AuditRecord describes a single mutating administrative action and its
// outcome.  Records are write-only: they are emitted to the configured audit
// sinks and never read back by the core.
type AuditRecord struct {
	// Action names the administrative action, e.g. "certificate.update"
	Action string `json:"action"`

	// Outcome is the action's final outcome (success or failure)
	Outcome Outcome `json:"outcome"`

	// ReferenceType scopes the action to a domain, organization, application
	// or protected resource
	ReferenceType string `json:"reference_type,omitempty"`

	// ReferenceId is the id of the owning reference
	ReferenceId string `json:"reference_id,omitempty"`

	// ActorId is the administrator who performed the action
	ActorId string `json:"actor_id,omitempty"`

	// TargetId is the id of the entity acted on, when one exists (e.g. the id
	// of a newly created certificate)
	TargetId string `json:"target_id,omitempty"`

	// Message is a human readable description of the action
	Message string `json:"message,omitempty"`
}

func (r *AuditRecord) validate() error {
	const op = "event.(AuditRecord).validate"
	if r == nil {
		return fmt.Errorf("%s: missing audit record: %w", op, ErrInvalidParameter)
	}
	if r.Action == "" {
		return fmt.Errorf("%s: missing action: %w", op, ErrInvalidParameter)
	}
	if err := r.Outcome.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// audit defines the data of audit events
type audit struct {
	Id          Id           `json:"id"`
	Version     string       `json:"version"`
	Timestamp   time.Time    `json:"timestamp"`
	Record      *AuditRecord `json:"record"`
	RequestInfo *RequestInfo `json:"request_info,omitempty"`
	Flush       bool         `json:"-"`
}

func newAudit(fromOperation Op, r *AuditRecord, opt ...Option) (*audit, error) {
	const op = "event.newAudit"
	if fromOperation == "" {
		return nil, fmt.Errorf("%s: missing from operation: %w", op, ErrInvalidParameter)
	}
	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	opts := getOpts(opt...)
	if opts.withId == "" {
		var err error
		opts.withId, err = NewId(string(AuditType))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	var dtm time.Time
	switch opts.withNow.IsZero() {
	case false:
		dtm = opts.withNow
	default:
		dtm = time.Now()
	}

	// the record's actor defaults to the request info's actor when one wasn't
	// set explicitly.
	if r.ActorId == "" && opts.withRequestInfo != nil {
		r.ActorId = opts.withRequestInfo.ActorId
	}

	a := &audit{
		Id:          Id(opts.withId),
		Version:     auditVersion,
		Timestamp:   dtm,
		Record:      r,
		RequestInfo: opts.withRequestInfo,
		Flush:       opts.withFlush,
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// EventType is required for all event types by the eventlogger broker
func (a *audit) EventType() string { return string(AuditType) }

func (a *audit) validate() error {
	const op = "event.(audit).validate"
	if a.Id == "" {
		return fmt.Errorf("%s: missing id: %w", op, ErrInvalidParameter)
	}
	if a.Record == nil {
		return fmt.Errorf("%s: missing record: %w", op, ErrInvalidParameter)
	}
	return nil
}
