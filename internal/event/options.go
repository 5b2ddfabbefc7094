// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import "time"

// getOpts - iterate the inbound Options and return a struct.
func getOpts(opt ...Option) options {
	opts := getDefaultOptions()
	for _, o := range opt {
		if o != nil {
			o(&opts)
		}
	}
	return opts
}

// Option - how Options are passed as arguments.
type Option func(*options)

// options = how options are represented
type options struct {
	withId          string
	withNow         time.Time
	withRequestInfo *RequestInfo
	withFlush       bool
	withInfo        map[string]any
	withInfoMsg     string
	withHeader      map[string]any
	withDetails     map[string]any
}

func getDefaultOptions() options {
	return options{}
}

// WithId allows an optional Id
func WithId(id string) Option {
	return func(o *options) {
		o.withId = id
	}
}

// WithNow allows an option to use the provided time as the event's time
func WithNow(now time.Time) Option {
	return func(o *options) {
		o.withNow = now
	}
}

// WithRequestInfo allows an optional RequestInfo
func WithRequestInfo(i *RequestInfo) Option {
	return func(o *options) {
		o.withRequestInfo = i
	}
}

// WithFlush allows an optional flush option, which will flush the event's sink
// immediately after the event is sent.
func WithFlush() Option {
	return func(o *options) {
		o.withFlush = true
	}
}

// WithInfo allows an optional map of info fields for an error event, supplied
// as key/value pairs.
func WithInfo(args ...any) Option {
	return func(o *options) {
		o.withInfo = ConvertArgs(args...)
	}
}

// WithInfoMsg allows an optional msg plus optional key/value pairs of info
// fields for an error event.
func WithInfoMsg(msg string, args ...any) Option {
	return func(o *options) {
		o.withInfoMsg = msg
		o.withInfo = ConvertArgs(args...)
	}
}

// WithHeader allows an optional header for an observation event, supplied as
// key/value pairs.
func WithHeader(args ...any) Option {
	return func(o *options) {
		o.withHeader = ConvertArgs(args...)
	}
}

// WithDetails allows optional details for an observation event, supplied as
// key/value pairs.
func WithDetails(args ...any) Option {
	return func(o *options) {
		o.withDetails = ConvertArgs(args...)
	}
}
