// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import (
	"fmt"
	"io"
	"time"
)

type SinkType string // SinkType defines the type of sink in a config stanza (file, stderr, writer)

const (
	StderrSink SinkType = "stderr" // StderrSink is written to stderr
	FileSink   SinkType = "file"   // FileSink is written to a file
	WriterSink SinkType = "writer" // WriterSink is written to an io.Writer
)

func (t SinkType) Validate() error {
	const op = "event.(SinkType).Validate"
	switch t {
	case StderrSink, FileSink, WriterSink:
		return nil
	default:
		return fmt.Errorf("%s: '%s' is not a valid sink type: %w", op, t, ErrInvalidParameter)
	}
}

// SinkFormat defines the formatting done by the sink.
type SinkFormat string

const (
	CloudEventsJsonFormat SinkFormat = "cloudevents-json" // CloudEventsJsonFormat means the event is formatted as a cloudevents event in json
	TextHclogSinkFormat   SinkFormat = "hclog-text"       // TextHclogSinkFormat means the event is formatted as an hclog text entry
	JSONHclogSinkFormat   SinkFormat = "hclog-json"       // JSONHclogSinkFormat means the event is formatted as an hclog json entry
)

func (f SinkFormat) Validate() error {
	const op = "event.(SinkFormat).Validate"
	switch f {
	case CloudEventsJsonFormat, TextHclogSinkFormat, JSONHclogSinkFormat:
		return nil
	default:
		return fmt.Errorf("%s: '%s' is not a valid sink format: %w", op, f, ErrInvalidParameter)
	}
}

// DeliveryGuarantee defines the guarantees around delivery of an event type
// within config.
type DeliveryGuarantee string

const (
	DefaultDeliveryGuarantee DeliveryGuarantee = ""            // DefaultDeliveryGuarantee will be either BestEffort or Enforced depending on the event type
	Enforced                 DeliveryGuarantee = "enforced"    // Enforced means that a delivery failure is surfaced to the caller
	BestEffort               DeliveryGuarantee = "best-effort" // BestEffort means that a delivery failure is only logged
)

func (g DeliveryGuarantee) Validate() error {
	const op = "event.(DeliveryGuarantee).Validate"
	switch g {
	case DefaultDeliveryGuarantee, BestEffort, Enforced:
		return nil
	default:
		return fmt.Errorf("%s: '%s' is not a valid delivery guarantee: %w", op, g, ErrInvalidParameter)
	}
}

// SinkConfig defines the configuration for an Eventer sink
type SinkConfig struct {
	// Name defines a name for the sink.
	Name string

	// EventTypes defines a list of event types that will be sent to the sink.
	// EveryType is supported.
	EventTypes []Type

	// Format defines the format for the sink (cloudevents-json, hclog-text,
	// hclog-json).
	Format SinkFormat

	// Type defines the type of sink (stderr, file, writer).
	Type SinkType

	// Path defines the file path for the sink, when Type == FileSink.
	Path string

	// FileName defines the file name for the sink, when Type == FileSink.
	FileName string

	// RotateBytes defines the number of bytes that should trigger rotation of
	// a FileSink.
	RotateBytes int

	// RotateDuration defines how often a FileSink should be rotated.
	RotateDuration time.Duration

	// RotateMaxFiles defines how many historical rotated files should be kept
	// for a FileSink.
	RotateMaxFiles int

	// Writer is the io.Writer used when Type == WriterSink.
	Writer io.Writer
}

func (sc *SinkConfig) Validate() error {
	const op = "event.(SinkConfig).Validate"
	if sc == nil {
		return fmt.Errorf("%s: missing sink config: %w", op, ErrInvalidParameter)
	}
	if err := sc.Type.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := sc.Format.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if sc.Type == FileSink && sc.FileName == "" {
		return fmt.Errorf("%s: missing sink file name: %w", op, ErrInvalidParameter)
	}
	if sc.Type == WriterSink && sc.Writer == nil {
		return fmt.Errorf("%s: missing sink writer: %w", op, ErrInvalidParameter)
	}
	if sc.Name == "" {
		return fmt.Errorf("%s: missing sink name: %w", op, ErrInvalidParameter)
	}
	if len(sc.EventTypes) == 0 {
		return fmt.Errorf("%s: missing event types: %w", op, ErrInvalidParameter)
	}
	for _, et := range sc.EventTypes {
		if err := et.Validate(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

// EventerConfig supplies all the configuration needed to create/config an
// Eventer.
type EventerConfig struct {
	// AuditDelivery specifies the delivery guarantees for audit events
	// (enforced or best-effort).  Audit events default to enforced.
	AuditDelivery DeliveryGuarantee

	// ErrorDelivery specifies the delivery guarantees for error events
	// (enforced or best-effort).  Error events default to best-effort.
	ErrorDelivery DeliveryGuarantee

	// AuditEnabled specifies if audit events should be emitted.
	AuditEnabled bool

	// ObservationsEnabled specifies if observation events should be emitted.
	ObservationsEnabled bool

	// SysEventsEnabled specifies if sysevents should be emitted.
	SysEventsEnabled bool

	// Sinks are all the configured sinks.
	Sinks []*SinkConfig
}

func (c *EventerConfig) Validate() error {
	const op = "event.(EventerConfig).Validate"
	if c == nil {
		return fmt.Errorf("%s: missing config: %w", op, ErrInvalidParameter)
	}
	for i, sc := range c.Sinks {
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("%s: sink %d is invalid: %w", op, i, err)
		}
	}
	if err := c.AuditDelivery.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.ErrorDelivery.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DefaultEventerConfig returns a steady state config for the Eventer: audit
// and sysevents enabled, everything going to a single stderr sink formatted as
// hclog text.
func DefaultEventerConfig() *EventerConfig {
	return &EventerConfig{
		AuditEnabled:        true,
		ObservationsEnabled: true,
		SysEventsEnabled:    true,
		Sinks:               []*SinkConfig{DefaultSink()},
	}
}

// DefaultSink returns a sink config for every event type going to stderr as
// hclog text.
func DefaultSink() *SinkConfig {
	return &SinkConfig{
		Name:       "default",
		EventTypes: []Type{EveryType},
		Format:     TextHclogSinkFormat,
		Type:       StderrSink,
	}
}
