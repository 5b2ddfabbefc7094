// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package registry

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/gatehouse-id/gatehouse/internal/errors"
	"github.com/gatehouse-id/gatehouse/internal/event"
	"github.com/gatehouse-id/gatehouse/internal/expiry"
	"github.com/gatehouse-id/gatehouse/internal/masking"
	"github.com/gatehouse-id/gatehouse/internal/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tests := []struct {
		name    string
		store   plugin.Store
		factory plugin.Factory
		wantErr bool
	}{
		{
			name:    "valid",
			store:   plugin.NewTestStore(),
			factory: &plugin.TestFactory{},
		},
		{
			name:    "missing-store",
			factory: &plugin.TestFactory{},
			wantErr: true,
		},
		{
			name:    "missing-factory",
			store:   plugin.NewTestStore(),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := New(ctx, tt.store, tt.factory)
			if tt.wantErr {
				require.Error(err)
				assert.Nil(got)
				return
			}
			require.NoError(err)
			assert.NotNil(got)
		})
	}
}

func TestRegistry_Start(t *testing.T) {
	t.Parallel()

	t.Run("loads-all-records", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, _ := event.TestEventerContext(t)
		store := plugin.NewTestStore()
		r1 := plugin.TestRecord(t, "one", `{"name":"one"}`)
		r2 := plugin.TestRecord(t, "two", `{"name":"two"}`)
		store.Put(r1)
		store.Put(r2)
		factory := &plugin.TestFactory{}
		bus := &plugin.TestBus{}

		r, err := New(ctx, store, factory)
		require.NoError(err)
		require.NoError(r.Start(ctx, bus))
		t.Cleanup(func() { _ = r.Shutdown(ctx) })

		assert.Equal(1, bus.ListenerCount())
		assert.Equal(2, factory.BuildCount())
		for _, rec := range []*plugin.Record{r1, r2} {
			p, err := r.Provider(ctx, rec.PublicId)
			require.NoError(err)
			assert.NotNil(p)
		}
	})

	t.Run("build-failure-skips-record-and-still-subscribes", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, sink := event.TestEventerContext(t)
		store := plugin.NewTestStore()
		good := plugin.TestRecord(t, "good", `{"name":"good"}`)
		bad := plugin.TestRecord(t, "bad", `{"name":"bad","fail":true}`)
		store.Put(good)
		store.Put(bad)
		bus := &plugin.TestBus{}

		r, err := New(ctx, store, &plugin.TestFactory{})
		require.NoError(err)
		require.NoError(r.Start(ctx, bus))
		t.Cleanup(func() { _ = r.Shutdown(ctx) })

		assert.Equal(1, bus.ListenerCount())
		p, err := r.Provider(ctx, good.PublicId)
		require.NoError(err)
		assert.NotNil(p)
		assert.NotEmpty(sink.ErrorEvents())
	})

	t.Run("already-started", func(t *testing.T) {
		require := require.New(t)
		ctx, _ := event.TestEventerContext(t)
		r, err := New(ctx, plugin.NewTestStore(), &plugin.TestFactory{})
		require.NoError(err)
		require.NoError(r.Start(ctx, &plugin.TestBus{}))
		t.Cleanup(func() { _ = r.Shutdown(ctx) })
		require.Error(r.Start(ctx, &plugin.TestBus{}))
	})

	t.Run("missing-bus", func(t *testing.T) {
		require := require.New(t)
		ctx, _ := event.TestEventerContext(t)
		r, err := New(ctx, plugin.NewTestStore(), &plugin.TestFactory{})
		require.NoError(err)
		require.Error(r.Start(ctx, nil))
	})
}

func TestRegistry_Provider(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (context.Context, *Registry, *plugin.TestStore, *plugin.TestFactory) {
		t.Helper()
		ctx, _ := event.TestEventerContext(t)
		store := plugin.NewTestStore()
		factory := &plugin.TestFactory{}
		r, err := New(ctx, store, factory)
		require.NoError(t, err)
		require.NoError(t, r.Start(ctx, &plugin.TestBus{}))
		t.Cleanup(func() { _ = r.Shutdown(ctx) })
		return ctx, r, store, factory
	}

	t.Run("not-started", func(t *testing.T) {
		require := require.New(t)
		ctx, _ := event.TestEventerContext(t)
		r, err := New(ctx, plugin.NewTestStore(), &plugin.TestFactory{})
		require.NoError(err)
		_, err = r.Provider(ctx, "plg_123")
		require.Error(err)
	})

	t.Run("missing-entity-id", func(t *testing.T) {
		require := require.New(t)
		ctx, r, _, _ := setup(t)
		_, err := r.Provider(ctx, "")
		require.Error(err)
	})

	t.Run("unknown-id-is-empty-result", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, r, _, _ := setup(t)
		p, err := r.Provider(ctx, "plg_unknown")
		require.NoError(err)
		assert.Nil(p)
	})

	t.Run("cache-miss-rebuilds-once", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, r, store, factory := setup(t)
		rec := plugin.TestRecord(t, "late", `{"name":"late"}`)
		store.Put(rec)

		p, err := r.Provider(ctx, rec.PublicId)
		require.NoError(err)
		require.NotNil(p)
		assert.Equal(1, factory.BuildCount())

		// served from cache now
		again, err := r.Provider(ctx, rec.PublicId)
		require.NoError(err)
		assert.Same(p, again)
		assert.Equal(1, factory.BuildCount())
	})

	t.Run("rebuild-failure-propagates", func(t *testing.T) {
		require := require.New(t)
		ctx, r, store, _ := setup(t)
		rec := plugin.TestRecord(t, "broken", `{"name":"broken","fail":true}`)
		store.Put(rec)

		_, err := r.Provider(ctx, rec.PublicId)
		require.Error(err)
		require.True(stderrors.Is(err, errors.ErrBuildFailed))
	})

	t.Run("rebuild-failure-keeps-factory-error-code", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, r, store, factory := setup(t)
		rec := plugin.TestRecord(t, "badcfg", `{"name":"badcfg"}`)
		store.Put(rec)
		factory.BuildErr = errors.New(ctx, errors.InvalidConfiguration,
			"plugin.(TestFactory).NewProvider", "tls block is malformed", errors.WithoutEvent())

		_, err := r.Provider(ctx, rec.PublicId)
		require.Error(err)
		var domainErr *errors.Err
		require.True(stderrors.As(err, &domainErr))
		assert.Equal(errors.InvalidConfiguration, domainErr.Code)
	})

	t.Run("store-failure-propagates", func(t *testing.T) {
		require := require.New(t)
		ctx, r, store, _ := setup(t)
		store.FindErr = stderrors.New("store down")
		_, err := r.Provider(ctx, "plg_123")
		require.Error(err)
	})
}

func TestRegistry_Shutdown(t *testing.T) {
	t.Parallel()

	t.Run("stops-cached-providers-and-closes", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, _ := event.TestEventerContext(t)
		store := plugin.NewTestStore()
		rec := plugin.TestRecord(t, "one", `{"name":"one"}`)
		store.Put(rec)
		r, err := New(ctx, store, &plugin.TestFactory{})
		require.NoError(err)
		require.NoError(r.Start(ctx, &plugin.TestBus{}))

		p, err := r.Provider(ctx, rec.PublicId)
		require.NoError(err)
		tp := p.(*plugin.TestProvider)

		require.NoError(r.Shutdown(ctx))
		assert.True(tp.Stopped())

		_, err = r.Provider(ctx, rec.PublicId)
		require.Error(err)
	})

	t.Run("idempotent", func(t *testing.T) {
		require := require.New(t)
		ctx, _ := event.TestEventerContext(t)
		r, err := New(ctx, plugin.NewTestStore(), &plugin.TestFactory{})
		require.NoError(err)
		require.NoError(r.Start(ctx, &plugin.TestBus{}))
		require.NoError(r.Shutdown(ctx))
		require.NoError(r.Shutdown(ctx))
	})

	t.Run("not-started", func(t *testing.T) {
		require := require.New(t)
		ctx, _ := event.TestEventerContext(t)
		r, err := New(ctx, plugin.NewTestStore(), &plugin.TestFactory{})
		require.NoError(err)
		require.Error(r.Shutdown(ctx))
	})
}

func TestRegistry_WithSchemaRepository(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx, _ := event.TestEventerContext(t)

	schemas := masking.NewTestSchemaRepository()
	schemas.Set(t, plugin.TestPluginType, `{
		"type": "object",
		"properties": {
			"name": {"type": "string"}
		},
		"required": ["name"]
	}`)

	store := plugin.NewTestStore()
	factory := &plugin.TestFactory{}
	r, err := New(ctx, store, factory, WithSchemaRepository(schemas))
	require.NoError(err)
	require.NoError(r.Start(ctx, &plugin.TestBus{}))
	t.Cleanup(func() { _ = r.Shutdown(ctx) })

	valid := plugin.TestRecord(t, "ok", `{"name":"ok"}`)
	store.Put(valid)
	p, err := r.Provider(ctx, valid.PublicId)
	require.NoError(err)
	assert.NotNil(p)

	invalid := plugin.TestRecord(t, "bad", `{"name":123}`)
	store.Put(invalid)
	_, err = r.Provider(ctx, invalid.PublicId)
	require.Error(err)
	// the factory was never asked to build the invalid record
	assert.Equal(1, factory.BuildCount())
}

func TestRegistry_StopFailureDoesNotBlock(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx, _ := event.TestEventerContext(t)
	store := plugin.NewTestStore()
	rec := plugin.TestRecord(t, "grumpy", `{"name":"grumpy","stop_fails":true}`)
	store.Put(rec)
	bus := &plugin.TestBus{}
	r, err := New(ctx, store, &plugin.TestFactory{})
	require.NoError(err)
	require.NoError(r.Start(ctx, bus))
	t.Cleanup(func() { _ = r.Shutdown(ctx) })

	old, err := r.Provider(ctx, rec.PublicId)
	require.NoError(err)
	oldTp := old.(*plugin.TestProvider)

	// redeploy displaces the provider whose Stop errors
	store.Put(rec)
	bus.Publish(ctx, plugin.Event{Kind: plugin.UpdateEvent, EntityId: rec.PublicId, Reference: rec.Reference})
	oldTp.WaitStopped(t, 2*time.Second)

	// the registry keeps serving the replacement
	p, err := r.Provider(ctx, rec.PublicId)
	require.NoError(err)
	assert.NotNil(p)
	assert.NotSame(old, p)
}

func TestRegistry_ExpirationCleanupOnShutdownlessRemove(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx, _ := event.TestEventerContext(t)
	notifier := expiry.NewTestNotifier()
	sched, err := expiry.New(ctx, notifier)
	require.NoError(err)

	store := plugin.NewTestStore()
	bus := &plugin.TestBus{}
	r, err := New(ctx, store, &plugin.TestFactory{}, WithExpirationScheduler(sched))
	require.NoError(err)
	require.NoError(r.Start(ctx, bus))
	t.Cleanup(func() { _ = r.Shutdown(ctx) })

	// delete for an entity that never deployed still clears stray reminders
	bus.Publish(ctx, plugin.Event{Kind: plugin.DeleteEvent, EntityId: "plg_never_deployed"})
	assert.Equal(1, notifier.UnregisterCalls())
	assert.Equal(1, notifier.DeleteAckCalls())
}
