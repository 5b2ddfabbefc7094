// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package registry maintains the per-process cache of live provider
// instances built from plugin records.  The cache is loaded from the
// configuration store at startup and kept current by lifecycle events from
// the event bus; every process runs its own registry and subscribes
// independently.
package registry

import (
	"context"
	"sync"

	"github.com/gatehouse-id/gatehouse/internal/errors"
	"github.com/gatehouse-id/gatehouse/internal/event"
	"github.com/gatehouse-id/gatehouse/internal/expiry"
	"github.com/gatehouse-id/gatehouse/internal/masking"
	"github.com/gatehouse-id/gatehouse/internal/plugin"
	ua "go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// Registry is the provider lifecycle cache.  Events for different entity ids
// are processed concurrently; events for the same id are serialized through a
// per-id lock, so a DELETE observed after a DEPLOY for the same id always
// wins.  Old providers are swapped out of the cache before they are stopped
// and torn down asynchronously on a small worker pool.
type Registry struct {
	store   plugin.Store
	factory plugin.Factory
	schemas masking.SchemaRepository
	expiry  *expiry.Scheduler

	stopWorkers     int
	loadConcurrency int

	started *ua.Bool
	closed  *ua.Bool

	// lifecycleMu is held shared by every event and read, and exclusively
	// by Shutdown, so teardown never races an in-flight event.
	lifecycleMu sync.RWMutex

	cacheMu sync.RWMutex
	cache   map[string]plugin.Provider

	// locks holds one *sync.Mutex per entity id.
	locks sync.Map

	stopCh   chan stopJob
	workerWg sync.WaitGroup

	// baseCtx carries the eventer for teardown running after the
	// triggering event's context is gone.
	baseCtx context.Context
}

type stopJob struct {
	entityId string
	provider plugin.Provider
}

// New creates a Registry over the given configuration store and plugin
// factory.  Supported options: WithSchemaRepository, WithExpirationScheduler,
// WithStopWorkers, WithLoadConcurrency.  The registry serves nothing until
// Start has loaded the cache and subscribed to the event bus.
func New(ctx context.Context, store plugin.Store, factory plugin.Factory, opt ...Option) (*Registry, error) {
	const op = "registry.New"
	switch {
	case store == nil:
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing store")
	case factory == nil:
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing factory")
	}
	opts := getOpts(opt...)
	return &Registry{
		store:           store,
		factory:         factory,
		schemas:         opts.withSchemaRepository,
		expiry:          opts.withExpirationScheduler,
		stopWorkers:     opts.withStopWorkers,
		loadConcurrency: opts.withLoadConcurrency,
		started:         ua.NewBool(false),
		closed:          ua.NewBool(false),
		cache:           map[string]plugin.Provider{},
		stopCh:          make(chan stopJob, 16),
	}, nil
}

// Start loads every record from the configuration store, builds its provider
// and subscribes to the event bus.  Records whose build fails are reported
// and skipped; a partially loaded cache is expected and the subscription is
// made regardless, since later events can repair failed entries.  Start may
// be called once.
func (r *Registry) Start(ctx context.Context, bus plugin.Bus) error {
	const op = "registry.(Registry).Start"
	if bus == nil {
		return errors.New(ctx, errors.InvalidParameter, op, "missing bus")
	}
	if !r.started.CompareAndSwap(false, true) {
		return errors.New(ctx, errors.InvalidParameter, op, "registry already started")
	}
	r.baseCtx = ctx

	for i := 0; i < r.stopWorkers; i++ {
		r.workerWg.Add(1)
		go r.stopWorker()
	}

	var records []*plugin.Record
	if err := r.store.ListRecords(ctx, func(rec *plugin.Record) error {
		records = append(records, rec.Clone())
		return nil
	}); err != nil {
		return errors.Wrap(ctx, err, op, errors.WithMsg("unable to list records"))
	}

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(r.loadConcurrency)
	loaded := ua.NewInt64(0)
	for _, rec := range records {
		rec := rec
		grp.Go(func() error {
			l := r.lockFor(rec.PublicId)
			l.Lock()
			defer l.Unlock()
			if err := r.build(grpCtx, rec); err != nil {
				event.WriteError(grpCtx, op, err, event.WithInfo("entity_id", rec.PublicId))
				return nil
			}
			loaded.Inc()
			return nil
		})
	}
	_ = grp.Wait()

	if err := bus.Subscribe(ctx, r); err != nil {
		return errors.Wrap(ctx, err, op, errors.WithMsg("unable to subscribe to lifecycle events"))
	}
	event.WriteSysEvent(ctx, op, "provider registry started",
		"records", len(records), "loaded", loaded.Load())
	return nil
}

// Provider returns the live provider for an entity id.  On a cache miss it
// makes a single attempt to rebuild from the configuration store before
// answering; an id with no record returns (nil, nil).
func (r *Registry) Provider(ctx context.Context, entityId string) (plugin.Provider, error) {
	const op = "registry.(Registry).Provider"
	if entityId == "" {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing entity id")
	}
	if !r.started.Load() {
		return nil, errors.New(ctx, errors.RegistryNotStarted, op, "registry not started")
	}
	if r.closed.Load() {
		return nil, errors.New(ctx, errors.RegistryClosed, op, "registry closed")
	}
	if p, ok := r.cached(entityId); ok {
		return p, nil
	}

	r.lifecycleMu.RLock()
	defer r.lifecycleMu.RUnlock()
	if r.closed.Load() {
		return nil, errors.New(ctx, errors.RegistryClosed, op, "registry closed")
	}
	l := r.lockFor(entityId)
	l.Lock()
	defer l.Unlock()
	if p, ok := r.cached(entityId); ok {
		return p, nil
	}
	rec, err := r.store.FindRecord(ctx, entityId)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	if rec == nil {
		return nil, nil
	}
	if err := r.build(ctx, rec); err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	p, _ := r.cached(entityId)
	return p, nil
}

// Shutdown stops accepting events and reads, waits for in-flight events,
// tears down every cached provider and waits for the teardown workers to
// drain.  It is idempotent.
func (r *Registry) Shutdown(ctx context.Context) error {
	const op = "registry.(Registry).Shutdown"
	if !r.started.Load() {
		return errors.New(ctx, errors.RegistryNotStarted, op, "registry not started")
	}
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	r.cacheMu.Lock()
	remaining := r.cache
	r.cache = map[string]plugin.Provider{}
	r.cacheMu.Unlock()

	for id, p := range remaining {
		r.stopCh <- stopJob{entityId: id, provider: p}
	}
	close(r.stopCh)
	r.workerWg.Wait()
	event.WriteSysEvent(ctx, op, "provider registry shut down", "stopped", len(remaining))
	return nil
}

// cached returns the cached provider for an id.
func (r *Registry) cached(entityId string) (plugin.Provider, bool) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	p, ok := r.cache[entityId]
	return p, ok
}

// lockFor returns the serialization lock for an entity id.
func (r *Registry) lockFor(entityId string) *sync.Mutex {
	l, _ := r.locks.LoadOrStore(entityId, new(sync.Mutex))
	return l.(*sync.Mutex)
}
