// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package expiry

import "time"

var defaultThresholds = []time.Duration{
	20 * 24 * time.Hour,
	15 * 24 * time.Hour,
}

// getOpts - iterate the inbound Options and return a struct
func getOpts(opt ...Option) options {
	opts := getDefaultOptions()
	for _, o := range opt {
		o(&opts)
	}
	return opts
}

// Option - how Options are passed as arguments
type Option func(*options)

// options = how options are represented
type options struct {
	withThresholds []time.Duration
	withResolver   RecipientResolver
}

func getDefaultOptions() options {
	return options{
		withThresholds: defaultThresholds,
	}
}

// WithThresholds provides an option to set the warning thresholds reminders
// are scheduled at, as durations before expiry.  If no thresholds are given
// the defaults of 20 and 15 days are used.
func WithThresholds(t ...time.Duration) Option {
	return func(o *options) {
		o.withThresholds = t
		if len(o.withThresholds) == 0 {
			o.withThresholds = defaultThresholds
		}
	}
}

// WithRecipientResolver provides an option to set the resolver used to
// address reminders to a record's owners.  Without it reminders carry no
// recipients and the notification service falls back to its own routing.
func WithRecipientResolver(r RecipientResolver) Option {
	return func(o *options) {
		o.withResolver = r
	}
}
