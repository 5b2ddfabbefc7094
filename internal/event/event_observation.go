// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import (
	"fmt"
	"time"
)

// observationVersion defines the version of observation events
const observationVersion = "v0.1"

// observation events capture non-error telemetry about a unit of work, e.g.
// the duration and result counts of a registry start.
type observation struct {
	Id          Id             `json:"id,omitempty"`
	Version     string         `json:"version"`
	Op          Op             `json:"op,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	RequestInfo *RequestInfo   `json:"request_info,omitempty"`
	Header      map[string]any `json:"header,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

func newObservation(fromOperation Op, opt ...Option) (*observation, error) {
	const op = "event.newObservation"
	if fromOperation == "" {
		return nil, fmt.Errorf("%s: missing operation: %w", op, ErrInvalidParameter)
	}
	opts := getOpts(opt...)
	if opts.withId == "" {
		var err error
		opts.withId, err = NewId(string(ObservationType))
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
	i := &observation{
		Id:          Id(opts.withId),
		Op:          fromOperation,
		Version:     observationVersion,
		CreatedAt:   dtm,
		RequestInfo: opts.withRequestInfo,
		Header:      opts.withHeader,
		Details:     opts.withDetails,
	}
	if err := i.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return i, nil
}

// EventType is required for all event types by the eventlogger broker
func (i *observation) EventType() string { return string(ObservationType) }

func (i *observation) validate() error {
	const op = "event.(observation).validate"
	if i.Id == "" {
		return fmt.Errorf("%s: missing id: %w", op, ErrInvalidParameter)
	}
	if i.Op == "" {
		return fmt.Errorf("%s: missing operation: %w", op, ErrInvalidParameter)
	}
	return nil
}
