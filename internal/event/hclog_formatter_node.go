// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/fatih/structs"
	"github.com/hashicorp/eventlogger"
	"github.com/hashicorp/go-hclog"
)

const (
	infoField        = "Info"
	errorFields      = "ErrorFields"
	requestInfoField = "RequestInfo"
	hclogNodeName    = "hclog-formatter-filter"
)

// hclogFormatterFilter will format an event as an hclog entry.
type hclogFormatterFilter struct {
	// jsonFormat allows you to specify that the hclog entry should be in JSON
	// fmt.
	jsonFormat bool
}

func newHclogFormatterFilter(jsonFormat bool) (*hclogFormatterFilter, error) {
	return &hclogFormatterFilter{
		jsonFormat: jsonFormat,
	}, nil
}

// Reopen is a no op
func (*hclogFormatterFilter) Reopen() error { return nil }

// Type describes the type of the node as a Formatter.
func (*hclogFormatterFilter) Type() eventlogger.NodeType {
	return eventlogger.NodeTypeFormatter
}

// Name returns a representation of the formatter's name
func (*hclogFormatterFilter) Name() string {
	return hclogNodeName
}

// Process formats the event as an hclog entry and stores that formatted data
// in Event.Formatted with a key of either "hclog-text" (TextHclogSinkFormat)
// or "hclog-json" (JSONHclogSinkFormat) based on the formatter's jsonFormat
// value.
func (f *hclogFormatterFilter) Process(ctx context.Context, e *eventlogger.Event) (*eventlogger.Event, error) {
	const op = "event.(hclogFormatterFilter).Process"
	if e == nil {
		return nil, errors.New("event is nil")
	}

	var m map[string]any
	switch Type(e.Type) {
	case ErrorType, AuditType, SystemType, ObservationType:
		s := structs.New(e.Payload)
		s.TagName = "json"
		m = s.Map()
	default:
		return nil, fmt.Errorf("%s: unknown event type %s", op, e.Type)
	}

	args := make([]any, 0, len(m))
	for k, v := range m {
		if k == requestInfoField && v == nil {
			continue
		}
		if !f.jsonFormat && v != nil {
			var underlyingPtr bool
			valueKind := reflect.TypeOf(v).Kind()
			if valueKind == reflect.Ptr {
				underlyingPtr = true
				valueKind = reflect.TypeOf(v).Elem().Kind()
			}
			switch {
			case valueKind == reflect.Map:
				for sk, sv := range v.(map[string]any) {
					args = append(args, k+":"+sk, sv)
				}
				continue
			case valueKind == reflect.Struct:
				if underlyingPtr && reflect.ValueOf(v).IsNil() {
					continue
				}
				for sk, sv := range structs.Map(v) {
					args = append(args, k+":"+sk, sv)
				}
				continue
			}
		}
		if Type(e.Type) == ErrorType {
			switch {
			case k == errorFields && v == nil:
				continue
			case k == infoField && v == nil:
				continue
			}
		}
		args = append(args, k, v)
	}

	buf, err := hclogBytes(e.Type, f.jsonFormat, args)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to format: %w", op, err)
	}
	switch f.jsonFormat {
	case true:
		e.FormattedAs(string(JSONHclogSinkFormat), buf.Bytes())
	case false:
		e.FormattedAs(string(TextHclogSinkFormat), buf.Bytes())
	}

	return e, nil
}

func hclogBytes(eventType eventlogger.EventType, jsonFormat bool, args []any) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{
		Output:     &buf,
		Level:      hclog.Trace,
		JSONFormat: jsonFormat,
	})
	const eventMarker = " event"
	switch Type(eventType) {
	case ErrorType:
		logger.Error(string(eventType)+eventMarker, args...)
	case ObservationType, SystemType, AuditType:
		logger.Info(string(eventType)+eventMarker, args...)
	default:
		// we should never hit this, since we should be specific about the
		// event type we're processing, but adding this default to just be
		// sure we haven't missed anything.
		logger.Trace(string(eventType)+eventMarker, args...)
	}
	return &buf, nil
}
