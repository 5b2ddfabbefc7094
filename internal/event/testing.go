// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import (
	"context"
	"sync"
	"testing"

	"github.com/hashicorp/eventlogger"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

// TestSink is an in-memory eventlogger sink which captures every event sent
// through it, so tests can assert on emitted events without parsing sink
// files.
type TestSink struct {
	mu     sync.Mutex
	events []*eventlogger.Event
}

// Process stores a copy of the event reference and returns it unchanged.
func (s *TestSink) Process(_ context.Context, e *eventlogger.Event) (*eventlogger.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return e, nil
}

// Reopen is a no op
func (s *TestSink) Reopen() error { return nil }

// Type describes the type of the node as a Sink.
func (s *TestSink) Type() eventlogger.NodeType { return eventlogger.NodeTypeSink }

// Events returns all captured events.
func (s *TestSink) Events() []*eventlogger.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]*eventlogger.Event, len(s.events))
	copy(cp, s.events)
	return cp
}

// AuditRecords returns the AuditRecords of every captured audit event, in
// order of arrival.
func (s *TestSink) AuditRecords() []*AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var got []*AuditRecord
	for _, e := range s.events {
		if Type(e.Type) != AuditType {
			continue
		}
		if a, ok := e.Payload.(*audit); ok {
			got = append(got, a.Record)
		}
	}
	return got
}

// ErrorEvents returns every captured error event payload.
func (s *TestSink) ErrorEvents() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var got []error
	for _, e := range s.events {
		if Type(e.Type) != ErrorType {
			continue
		}
		if p, ok := e.Payload.(*err); ok {
			got = append(got, p.ErrorFields)
		}
	}
	return got
}

// Clear drops all captured events.
func (s *TestSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// TestEventer creates an Eventer which delivers every event type to a
// TestSink.
func TestEventer(t testing.TB) (*Eventer, *TestSink) {
	t.Helper()
	require := require.New(t)
	b, err := eventlogger.NewBroker()
	require.NoError(err)
	e := &Eventer{
		broker: b,
		conf: EventerConfig{
			AuditEnabled:        true,
			ObservationsEnabled: true,
			SysEventsEnabled:    true,
		},
		logger:        hclog.NewNullLogger(),
		pipelineCount: make(map[Type]int),
	}
	sink := &TestSink{}
	// the broker requires a non-sink root node ahead of the sink in every
	// pipeline
	fmtNode, err := newHclogFormatterFilter(false)
	require.NoError(err)
	require.NoError(b.RegisterNode("test-fmt", fmtNode))
	require.NoError(b.RegisterNode("test-sink", sink))
	for _, et := range []Type{ObservationType, AuditType, ErrorType, SystemType} {
		id, err := NewId("pipeline")
		require.NoError(err)
		require.NoError(b.RegisterPipeline(eventlogger.Pipeline{
			EventType:  eventlogger.EventType(et),
			PipelineID: eventlogger.PipelineID(id),
			NodeIDs:    []eventlogger.NodeID{"test-fmt", "test-sink"},
		}))
		e.pipelineCount[et]++
		require.NoError(b.SetSuccessThreshold(eventlogger.EventType(et), 1))
	}
	return e, sink
}

// TestEventerContext returns a context carrying an Eventer wired to a
// TestSink.
func TestEventerContext(t testing.TB) (context.Context, *TestSink) {
	t.Helper()
	e, sink := TestEventer(t)
	ctx, err := NewEventerContext(context.Background(), e)
	require.NoError(t, err)
	return ctx, sink
}

// TestRequestInfoContext returns the provided context with RequestInfo for
// the provided actor added to it.
func TestRequestInfoContext(t testing.TB, ctx context.Context, actorId string) context.Context {
	t.Helper()
	id, err := NewId("r")
	require.NoError(t, err)
	ctx, err = NewRequestInfoContext(ctx, &RequestInfo{Id: id, ActorId: actorId})
	require.NoError(t, err)
	return ctx
}
