// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventer(t *testing.T) {
	tests := []struct {
		name    string
		config  *EventerConfig
		wantErr bool
	}{
		{
			name:   "nil-config-gets-defaults",
			config: nil,
		},
		{
			name: "writer-sink",
			config: &EventerConfig{
				Sinks: []*SinkConfig{
					{
						Name:       "test",
						EventTypes: []Type{EveryType},
						Format:     JSONHclogSinkFormat,
						Type:       WriterSink,
						Writer:     &bytes.Buffer{},
					},
				},
			},
		},
		{
			name: "invalid-sink-type",
			config: &EventerConfig{
				Sinks: []*SinkConfig{
					{
						Name:       "bad",
						EventTypes: []Type{EveryType},
						Format:     TextHclogSinkFormat,
						Type:       SinkType("syslog"),
					},
				},
			},
			wantErr: true,
		},
		{
			name: "file-sink-missing-file-name",
			config: &EventerConfig{
				Sinks: []*SinkConfig{
					{
						Name:       "bad",
						EventTypes: []Type{ErrorType},
						Format:     CloudEventsJsonFormat,
						Type:       FileSink,
					},
				},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEventer(hclog.NewNullLogger(), tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, e)
		})
	}
}

func TestWriteAudit(t *testing.T) {
	t.Run("delivers-exactly-one-record", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, sink := TestEventerContext(t)
		err := WriteAudit(ctx, "services.create", &AuditRecord{
			Action:        "certificate.create",
			Outcome:       SuccessOutcome,
			ReferenceType: "domain",
			ReferenceId:   "dom-1",
			TargetId:      "cert-123",
		})
		require.NoError(err)
		got := sink.AuditRecords()
		require.Len(got, 1)
		assert.Equal("certificate.create", got[0].Action)
		assert.Equal(SuccessOutcome, got[0].Outcome)
		assert.Equal("cert-123", got[0].TargetId)
	})
	t.Run("actor-from-request-info", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, sink := TestEventerContext(t)
		ctx = TestRequestInfoContext(t, ctx, "admin-42")
		require.NoError(WriteAudit(ctx, "services.delete", &AuditRecord{
			Action:  "reporter.delete",
			Outcome: FailureOutcome,
		}))
		got := sink.AuditRecords()
		require.Len(got, 1)
		assert.Equal("admin-42", got[0].ActorId)
	})
	t.Run("missing-action", func(t *testing.T) {
		ctx, _ := TestEventerContext(t)
		err := WriteAudit(ctx, "services.create", &AuditRecord{Outcome: SuccessOutcome})
		require.Error(t, err)
	})
	t.Run("invalid-outcome", func(t *testing.T) {
		ctx, _ := TestEventerContext(t)
		err := WriteAudit(ctx, "services.create", &AuditRecord{Action: "x.create", Outcome: "MAYBE"})
		require.Error(t, err)
	})
}

func TestWriteError(t *testing.T) {
	t.Run("delivers", func(t *testing.T) {
		ctx, sink := TestEventerContext(t)
		WriteError(ctx, "registry.build", stderrors.New("factory exploded"))
		require.Len(t, sink.ErrorEvents(), 1)
	})
	t.Run("no-eventer-is-a-no-op", func(t *testing.T) {
		WriteError(context.Background(), "registry.build", stderrors.New("nowhere to go"))
	})
}

func TestWriteSysEvent(t *testing.T) {
	ctx, sink := TestEventerContext(t)
	WriteSysEvent(ctx, "registry.start", "registry started", "loaded", 3, "failed", 1)
	events := sink.Events()
	require.Len(t, events, 1)
	payload, ok := events[0].Payload.(*sysEvent)
	require.True(t, ok)
	assert.Equal(t, "registry started", payload.Data[msgField])
	assert.Equal(t, 3, payload.Data["loaded"])
}

func TestConvertArgs(t *testing.T) {
	tests := []struct {
		name string
		args []any
		want map[string]any
	}{
		{
			name: "nil-args",
			args: nil,
			want: nil,
		},
		{
			name: "odd-number-of-args",
			args: []any{"key", "value", "dangling"},
			want: map[string]any{"key": "value", MissingKey: "dangling"},
		},
		{
			name: "non-string-key",
			args: []any{42, "value"},
			want: map[string]any{"42": "value"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvertArgs(tt.args...))
		})
	}
}
