// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/eventlogger"
	"github.com/hashicorp/eventlogger/formatter_filters/cloudevents"
	"github.com/hashicorp/eventlogger/sinks/writer"
	"github.com/hashicorp/go-hclog"
)

const (
	cancelledSendTimeout = 3 * time.Second

	// eventSource is the source used for cloudevents formatted events
	eventSource = "https://github.com/gatehouse-id/gatehouse"
)

// broker defines an interface for an eventlogger Broker... which will allow
// us to substitute our testing broker when needed to write tests for things
// like event send retrying.
type broker interface {
	Send(ctx context.Context, t eventlogger.EventType, payload any) (eventlogger.Status, error)
	Reopen(ctx context.Context) error
	RegisterPipeline(def eventlogger.Pipeline, opt ...eventlogger.Option) error
	RegisterNode(id eventlogger.NodeID, node eventlogger.Node, opt ...eventlogger.Option) error
	SetSuccessThreshold(t eventlogger.EventType, successThreshold int) error
}

var _ broker = (*eventlogger.Broker)(nil)

// Eventer provides a method to send events to pipelines of sinks
type Eventer struct {
	broker broker
	conf   EventerConfig
	logger hclog.Logger

	// pipelineCount tracks how many pipelines are registered per event type,
	// so writes for types with no sink can short circuit.
	pipelineCount map[Type]int
}

var (
	sysEventer     *Eventer
	sysEventerLock sync.RWMutex

	fallback     hclog.Logger
	fallbackOnce sync.Once
)

func fallbackLogger() hclog.Logger {
	fallbackOnce.Do(func() {
		fallback = hclog.New(&hclog.LoggerOptions{
			Name: "gatehouse-fallback",
		})
	})
	return fallback
}

// InitSysEventer provides a mechanism to initialize a "system wide" eventer
// singleton for events written with no eventer in their context.  The eventer
// is only initialized once; subsequent calls overwrite it.
func InitSysEventer(log hclog.Logger, c *EventerConfig) error {
	const op = "event.InitSysEventer"
	if log == nil {
		return fmt.Errorf("%s: missing logger: %w", op, ErrInvalidParameter)
	}
	e, err := NewEventer(log, c)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	sysEventerLock.Lock()
	defer sysEventerLock.Unlock()
	sysEventer = e
	return nil
}

// SysEventer returns the "system wide" eventer if one's been initialized,
// otherwise it returns nil.
func SysEventer() *Eventer {
	sysEventerLock.RLock()
	defer sysEventerLock.RUnlock()
	return sysEventer
}

// NewEventer creates a new Eventer using the config.  When the config has no
// sinks, a default stderr hclog-text sink for every event type is used.
func NewEventer(log hclog.Logger, c *EventerConfig, opt ...Option) (*Eventer, error) {
	const op = "event.NewEventer"
	if log == nil {
		return nil, fmt.Errorf("%s: missing logger: %w", op, ErrInvalidParameter)
	}
	if c == nil {
		c = DefaultEventerConfig()
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []*SinkConfig{DefaultSink()}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	b, err := eventlogger.NewBroker()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e := &Eventer{
		broker:        b,
		conf:          *c,
		logger:        log,
		pipelineCount: make(map[Type]int),
	}
	if err := e.registerPipelines(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

func (e *Eventer) registerPipelines() error {
	const op = "event.(Eventer).registerPipelines"
	for _, sc := range e.conf.Sinks {
		fmtId, fmtNode, err := newFormatterNode(sc)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := e.broker.RegisterNode(fmtId, fmtNode); err != nil {
			return fmt.Errorf("%s: unable to register formatter node %s: %w", op, fmtId, err)
		}
		sinkId, sinkNode, err := newSinkNode(sc)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := e.broker.RegisterNode(sinkId, sinkNode); err != nil {
			return fmt.Errorf("%s: unable to register sink node %s: %w", op, sinkId, err)
		}
		for _, et := range expandTypes(sc.EventTypes) {
			pipeId, err := NewId("pipeline")
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			err = e.broker.RegisterPipeline(eventlogger.Pipeline{
				EventType:  eventlogger.EventType(et),
				PipelineID: eventlogger.PipelineID(pipeId),
				NodeIDs:    []eventlogger.NodeID{fmtId, sinkId},
			})
			if err != nil {
				return fmt.Errorf("%s: failed to register pipeline for %s sink %s: %w", op, et, sc.Name, err)
			}
			e.pipelineCount[et]++
		}
	}
	// at least one sink must deliver for a send to be considered a success.
	for _, et := range []Type{ObservationType, AuditType, ErrorType, SystemType} {
		if e.pipelineCount[et] == 0 {
			continue
		}
		if err := e.broker.SetSuccessThreshold(eventlogger.EventType(et), 1); err != nil {
			return fmt.Errorf("%s: unable to set success threshold for %s events: %w", op, et, err)
		}
	}
	return nil
}

func expandTypes(types []Type) []Type {
	for _, t := range types {
		if t == EveryType {
			return []Type{ObservationType, AuditType, ErrorType, SystemType}
		}
	}
	return types
}

func newFormatterNode(sc *SinkConfig) (eventlogger.NodeID, eventlogger.Node, error) {
	const op = "event.newFormatterNode"
	id := eventlogger.NodeID(fmt.Sprintf("%s-%s-format", sc.Name, sc.Format))
	switch sc.Format {
	case CloudEventsJsonFormat:
		source, err := url.Parse(eventSource)
		if err != nil {
			return "", nil, fmt.Errorf("%s: invalid event source: %w", op, err)
		}
		return id, &cloudevents.FormatterFilter{
			Source: source,
			Format: cloudevents.FormatJSON,
		}, nil
	case TextHclogSinkFormat:
		n, err := newHclogFormatterFilter(false)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
		return id, n, nil
	case JSONHclogSinkFormat:
		n, err := newHclogFormatterFilter(true)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
		return id, n, nil
	default:
		return "", nil, fmt.Errorf("%s: unsupported sink format %s: %w", op, sc.Format, ErrInvalidParameter)
	}
}

func newSinkNode(sc *SinkConfig) (eventlogger.NodeID, eventlogger.Node, error) {
	const op = "event.newSinkNode"
	id := eventlogger.NodeID(fmt.Sprintf("%s-sink", sc.Name))
	switch sc.Type {
	case StderrSink:
		return id, &writer.Sink{
			Format: string(sc.Format),
			Writer: os.Stderr,
		}, nil
	case WriterSink:
		return id, &writer.Sink{
			Format: string(sc.Format),
			Writer: sc.Writer,
		}, nil
	case FileSink:
		return id, &eventlogger.FileSink{
			Format:      string(sc.Format),
			Path:        sc.Path,
			FileName:    sc.FileName,
			MaxBytes:    sc.RotateBytes,
			MaxDuration: sc.RotateDuration,
			MaxFiles:    sc.RotateMaxFiles,
		}, nil
	default:
		return "", nil, fmt.Errorf("%s: unsupported sink type %s: %w", op, sc.Type, ErrInvalidParameter)
	}
}

// writeObservation writes/sends an Observation event.
func (e *Eventer) writeObservation(ctx context.Context, event *observation) error {
	const op = "event.(Eventer).writeObservation"
	if !e.conf.ObservationsEnabled {
		return nil
	}
	if e.pipelineCount[ObservationType] == 0 {
		return nil
	}
	err := e.retrySend(ctx, stdRetryCount, expBackoff{}, func() (eventlogger.Status, error) {
		return e.broker.Send(ctx, eventlogger.EventType(ObservationType), event)
	})
	if err != nil {
		e.logger.Error("encountered an error sending an observation event", "error:", err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// writeError writes/sends an Err event.  Errors are by default best-effort:
// failures to deliver are only logged.
func (e *Eventer) writeError(ctx context.Context, event *err) error {
	const op = "event.(Eventer).writeError"
	if e.pipelineCount[ErrorType] == 0 {
		return nil
	}
	sendErr := e.retrySend(ctx, stdRetryCount, expBackoff{}, func() (eventlogger.Status, error) {
		return e.broker.Send(ctx, eventlogger.EventType(ErrorType), event)
	})
	if sendErr != nil {
		e.logger.Error("encountered an error sending an error event", "error:", sendErr.Error())
		if e.conf.ErrorDelivery == Enforced {
			return fmt.Errorf("%s: %w", op, sendErr)
		}
	}
	return nil
}

// writeSysEvent writes/sends a sysEvent.
func (e *Eventer) writeSysEvent(ctx context.Context, event *sysEvent) error {
	const op = "event.(Eventer).writeSysEvent"
	if !e.conf.SysEventsEnabled {
		return nil
	}
	if e.pipelineCount[SystemType] == 0 {
		return nil
	}
	err := e.retrySend(ctx, stdRetryCount, expBackoff{}, func() (eventlogger.Status, error) {
		return e.broker.Send(ctx, eventlogger.EventType(SystemType), event)
	})
	if err != nil {
		e.logger.Error("encountered an error sending a system event", "error:", err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// writeAudit writes/sends an audit event.  Audit delivery is enforced by
// default: a failure to deliver is surfaced to the caller.
func (e *Eventer) writeAudit(ctx context.Context, event *audit) error {
	const op = "event.(Eventer).writeAudit"
	if !e.conf.AuditEnabled {
		return nil
	}
	if e.pipelineCount[AuditType] == 0 {
		return fmt.Errorf("%s: audit events are enabled but there are no audit pipelines: %w", op, ErrInvalidOperation)
	}
	sendErr := e.retrySend(ctx, stdRetryCount, expBackoff{}, func() (eventlogger.Status, error) {
		return e.broker.Send(ctx, eventlogger.EventType(AuditType), event)
	})
	if sendErr != nil {
		e.logger.Error("encountered an error sending an audit event", "error:", sendErr.Error())
		if e.conf.AuditDelivery == BestEffort {
			return nil
		}
		return fmt.Errorf("%s: %w", op, sendErr)
	}
	return nil
}

// Reopen can used during a SIGHUP to reopen all the underlying sink files.
func (e *Eventer) Reopen(ctx context.Context) error {
	const op = "event.(Eventer).Reopen"
	if e.broker == nil {
		return nil
	}
	if err := e.broker.Reopen(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
