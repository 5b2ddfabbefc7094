// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package registry

import (
	"context"
	"strings"

	"github.com/gatehouse-id/gatehouse/internal/errors"
	"github.com/gatehouse-id/gatehouse/internal/event"
	"github.com/gatehouse-id/gatehouse/internal/plugin"
	"github.com/xeipuuv/gojsonschema"
)

// OnEvent implements plugin.Listener.  It never returns an error to the bus:
// failures leave the cache in its previous valid state and are reported
// through the eventer.
func (r *Registry) OnEvent(ctx context.Context, e plugin.Event) {
	const op = "registry.(Registry).OnEvent"
	if !r.started.Load() || r.closed.Load() {
		return
	}
	if err := e.Validate(); err != nil {
		event.WriteError(ctx, op, err)
		return
	}

	r.lifecycleMu.RLock()
	defer r.lifecycleMu.RUnlock()
	if r.closed.Load() {
		return
	}
	l := r.lockFor(e.EntityId)
	l.Lock()
	defer l.Unlock()

	switch {
	case e.Kind.IsDeployment():
		r.deploy(ctx, e)
	case e.Kind.IsRemoval():
		r.remove(ctx, e)
	default:
		event.WriteError(ctx, op,
			errors.New(ctx, errors.InvalidParameter, op, "unknown event kind", errors.WithoutEvent()),
			event.WithInfo("kind", string(e.Kind), "entity_id", e.EntityId))
	}
}

// deploy handles DEPLOY, CREATE, UPDATE and RENEW.  The caller holds the
// entity's serialization lock.
func (r *Registry) deploy(ctx context.Context, e plugin.Event) {
	const op = "registry.(Registry).deploy"
	rec, err := r.store.FindRecord(ctx, e.EntityId)
	if err != nil {
		event.WriteError(ctx, op, errors.Wrap(ctx, err, op, errors.WithoutEvent()),
			event.WithInfo("entity_id", e.EntityId))
		return
	}
	if rec == nil {
		// deleted concurrently, nothing to deploy
		return
	}
	if err := r.build(ctx, rec); err != nil {
		event.WriteError(ctx, op, err, event.WithInfo("entity_id", e.EntityId, "kind", string(e.Kind)))
		return
	}
	event.WriteObservation(ctx, op,
		event.WithHeader("msg", "provider deployed", "entity_id", e.EntityId, "kind", string(e.Kind)))
}

// remove handles UNDEPLOY and DELETE.  Expiration cleanup runs whether or not
// a provider was cached, so entities that never deployed successfully still
// lose their stray reminders.  The caller holds the entity's serialization
// lock.
func (r *Registry) remove(ctx context.Context, e plugin.Event) {
	const op = "registry.(Registry).remove"
	r.cacheMu.Lock()
	old, had := r.cache[e.EntityId]
	delete(r.cache, e.EntityId)
	r.cacheMu.Unlock()
	if had {
		r.asyncStop(e.EntityId, old)
	}
	if r.expiry != nil {
		if err := r.expiry.Unwatch(ctx, e.EntityId); err != nil {
			event.WriteError(ctx, op, err, event.WithInfo("entity_id", e.EntityId))
		}
	}
	event.WriteObservation(ctx, op,
		event.WithHeader("msg", "provider removed", "entity_id", e.EntityId, "kind", string(e.Kind), "was_cached", had))
}

// build validates a record's configuration, constructs its provider and
// swaps it into the cache before the displaced provider is stopped, so
// readers never observe a gap.  On any failure the cache keeps its previous
// state.  The caller holds the entity's serialization lock.
func (r *Registry) build(ctx context.Context, rec *plugin.Record) error {
	const op = "registry.(Registry).build"
	if err := r.validateConfiguration(ctx, rec); err != nil {
		return errors.Wrap(ctx, err, op, errors.WithoutEvent())
	}
	p, err := r.factory.NewProvider(ctx, rec.Type, rec.Configuration)
	if err != nil {
		// a factory reporting a coded domain error keeps its code; anything
		// else is a build failure
		if converted := errors.Convert(err); converted.Code != errors.Unknown {
			return errors.Wrap(ctx, converted, op, errors.WithoutEvent())
		}
		return errors.New(ctx, errors.PluginBuildFailed, op, "unable to build provider", errors.WithWrap(err), errors.WithoutEvent())
	}
	if p == nil {
		return errors.New(ctx, errors.PluginBuildFailed, op, "factory returned no provider", errors.WithoutEvent())
	}

	r.cacheMu.Lock()
	old, had := r.cache[rec.PublicId]
	r.cache[rec.PublicId] = p
	r.cacheMu.Unlock()
	if had {
		r.asyncStop(rec.PublicId, old)
	}

	if r.expiry != nil {
		if err := r.expiry.Watch(ctx, rec, p); err != nil {
			event.WriteError(ctx, op, err, event.WithInfo("entity_id", rec.PublicId))
		}
	}
	return nil
}

// validateConfiguration checks the record's configuration against its plugin
// type's json schema when a schema repository is configured.  An unknown
// plugin type is not an error here; the factory decides whether it can build
// the type.
func (r *Registry) validateConfiguration(ctx context.Context, rec *plugin.Record) error {
	const op = "registry.(Registry).validateConfiguration"
	if r.schemas == nil {
		return nil
	}
	schema, err := r.schemas.Schema(ctx, rec.Type)
	if err != nil {
		return errors.Wrap(ctx, err, op, errors.WithMsg("unable to resolve schema"), errors.WithoutEvent())
	}
	if schema == nil || len(schema.Raw()) == 0 {
		return nil
	}
	cfg := rec.Configuration
	if cfg == "" {
		cfg = "{}"
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema.Raw()),
		gojsonschema.NewStringLoader(cfg),
	)
	if err != nil {
		return errors.New(ctx, errors.InvalidConfiguration, op, "unable to validate configuration", errors.WithWrap(err), errors.WithoutEvent())
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.New(ctx, errors.InvalidConfiguration, op, strings.Join(msgs, "; "), errors.WithoutEvent())
	}
	return nil
}

// asyncStop hands a displaced provider to the teardown workers.  The cache
// has already moved on; teardown failures are reported, never propagated.
func (r *Registry) asyncStop(entityId string, p plugin.Provider) {
	r.stopCh <- stopJob{entityId: entityId, provider: p}
}

func (r *Registry) stopWorker() {
	const op = "registry.(Registry).stopWorker"
	defer r.workerWg.Done()
	for job := range r.stopCh {
		if err := job.provider.Stop(r.baseCtx); err != nil {
			event.WriteError(r.baseCtx, op, err, event.WithInfo("entity_id", job.entityId))
		}
	}
}
