// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package registry

import (
	"github.com/gatehouse-id/gatehouse/internal/expiry"
	"github.com/gatehouse-id/gatehouse/internal/masking"
)

const (
	defaultStopWorkers     = 4
	defaultLoadConcurrency = 8
)

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
	withSchemaRepository    masking.SchemaRepository
	withExpirationScheduler *expiry.Scheduler
	withStopWorkers         int
	withLoadConcurrency     int
}

func getDefaultOptions() options {
	return options{
		withStopWorkers:     defaultStopWorkers,
		withLoadConcurrency: defaultLoadConcurrency,
	}
}

// WithSchemaRepository provides an option to validate record configurations
// against their plugin type's schema before building.  Without it records
// are handed to the factory unvalidated.
func WithSchemaRepository(r masking.SchemaRepository) Option {
	return func(o *options) {
		o.withSchemaRepository = r
	}
}

// WithExpirationScheduler provides an option to keep expiration reminders
// reconciled as providers are built and removed.
func WithExpirationScheduler(s *expiry.Scheduler) Option {
	return func(o *options) {
		o.withExpirationScheduler = s
	}
}

// WithStopWorkers provides an option to set the number of goroutines tearing
// down displaced providers.  If WithStopWorkers == 0, then the default of 4
// is used.
func WithStopWorkers(n int) Option {
	return func(o *options) {
		o.withStopWorkers = n
		if o.withStopWorkers == 0 {
			o.withStopWorkers = defaultStopWorkers
		}
	}
}

// WithLoadConcurrency provides an option to set how many providers are built
// in parallel during the initial cache load.  If WithLoadConcurrency == 0,
// then the default of 8 is used.
func WithLoadConcurrency(n int) Option {
	return func(o *options) {
		o.withLoadConcurrency = n
		if o.withLoadConcurrency == 0 {
			o.withLoadConcurrency = defaultLoadConcurrency
		}
	}
}
