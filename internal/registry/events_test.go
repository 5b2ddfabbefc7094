// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gatehouse-id/gatehouse/internal/event"
	"github.com/gatehouse-id/gatehouse/internal/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T, opt ...Option) (context.Context, *Registry, *plugin.TestStore, *plugin.TestBus, *event.TestSink) {
	t.Helper()
	ctx, sink := event.TestEventerContext(t)
	store := plugin.NewTestStore()
	bus := &plugin.TestBus{}
	r, err := New(ctx, store, &plugin.TestFactory{}, opt...)
	require.NoError(t, err)
	require.NoError(t, r.Start(ctx, bus))
	t.Cleanup(func() { _ = r.Shutdown(ctx) })
	return ctx, r, store, bus, sink
}

func TestRegistry_OnEvent_Deploy(t *testing.T) {
	t.Parallel()

	t.Run("create-builds-provider", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, r, store, bus, _ := testRegistry(t)
		rec := plugin.TestRecord(t, "fresh", `{"name":"fresh"}`)
		store.Put(rec)

		bus.Publish(ctx, plugin.Event{Kind: plugin.CreateEvent, EntityId: rec.PublicId, Reference: rec.Reference})

		p, err := r.Provider(ctx, rec.PublicId)
		require.NoError(err)
		require.NotNil(p)
		assert.Equal("fresh", p.(*plugin.TestProvider).ProviderName())
	})

	t.Run("record-absent-is-noop", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, r, _, bus, sink := testRegistry(t)

		bus.Publish(ctx, plugin.Event{Kind: plugin.DeployEvent, EntityId: "plg_gone"})

		p, err := r.Provider(ctx, "plg_gone")
		require.NoError(err)
		assert.Nil(p)
		assert.Empty(sink.ErrorEvents())
	})

	t.Run("update-swaps-before-stopping-old", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, r, store, bus, _ := testRegistry(t)
		rec := plugin.TestRecord(t, "v1", `{"name":"v1"}`)
		store.Put(rec)
		bus.Publish(ctx, plugin.Event{Kind: plugin.DeployEvent, EntityId: rec.PublicId, Reference: rec.Reference})
		old, err := r.Provider(ctx, rec.PublicId)
		require.NoError(err)

		rec.Configuration = `{"name":"v2"}`
		store.Put(rec)
		bus.Publish(ctx, plugin.Event{Kind: plugin.UpdateEvent, EntityId: rec.PublicId, Reference: rec.Reference})

		// the replacement is served as soon as the event returns
		p, err := r.Provider(ctx, rec.PublicId)
		require.NoError(err)
		assert.Equal("v2", p.(*plugin.TestProvider).ProviderName())

		// and the displaced provider is torn down asynchronously
		old.(*plugin.TestProvider).WaitStopped(t, 2*time.Second)
	})

	t.Run("build-failure-keeps-previous-provider", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, r, store, bus, sink := testRegistry(t)
		rec := plugin.TestRecord(t, "v1", `{"name":"v1"}`)
		store.Put(rec)
		bus.Publish(ctx, plugin.Event{Kind: plugin.DeployEvent, EntityId: rec.PublicId, Reference: rec.Reference})
		old, err := r.Provider(ctx, rec.PublicId)
		require.NoError(err)

		rec.Configuration = `{"name":"v2","fail":true}`
		store.Put(rec)
		bus.Publish(ctx, plugin.Event{Kind: plugin.UpdateEvent, EntityId: rec.PublicId, Reference: rec.Reference})

		p, err := r.Provider(ctx, rec.PublicId)
		require.NoError(err)
		assert.Same(old, p)
		assert.False(old.(*plugin.TestProvider).Stopped())
		assert.NotEmpty(sink.ErrorEvents())
	})

	t.Run("first-deploy-failure-leaves-cache-empty", func(t *testing.T) {
		assert := assert.New(t)
		ctx, r, store, bus, sink := testRegistry(t)
		rec := plugin.TestRecord(t, "bad", `{"name":"bad","fail":true}`)
		store.Put(rec)

		bus.Publish(ctx, plugin.Event{Kind: plugin.DeployEvent, EntityId: rec.PublicId, Reference: rec.Reference})

		assert.NotEmpty(sink.ErrorEvents())
		_, ok := r.cached(rec.PublicId)
		assert.False(ok)
	})
}

func TestRegistry_OnEvent_Remove(t *testing.T) {
	t.Parallel()

	t.Run("delete-stops-and-evicts", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, r, store, bus, _ := testRegistry(t)
		rec := plugin.TestRecord(t, "doomed", `{"name":"doomed"}`)
		store.Put(rec)
		bus.Publish(ctx, plugin.Event{Kind: plugin.DeployEvent, EntityId: rec.PublicId, Reference: rec.Reference})
		p, err := r.Provider(ctx, rec.PublicId)
		require.NoError(err)

		store.Remove(rec.PublicId)
		bus.Publish(ctx, plugin.Event{Kind: plugin.DeleteEvent, EntityId: rec.PublicId, Reference: rec.Reference})

		p.(*plugin.TestProvider).WaitStopped(t, 2*time.Second)
		got, err := r.Provider(ctx, rec.PublicId)
		require.NoError(err)
		assert.Nil(got)
	})

	t.Run("undeploy-keeps-record-but-evicts", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, r, store, bus, _ := testRegistry(t)
		rec := plugin.TestRecord(t, "parked", `{"name":"parked"}`)
		store.Put(rec)
		bus.Publish(ctx, plugin.Event{Kind: plugin.DeployEvent, EntityId: rec.PublicId, Reference: rec.Reference})
		p, err := r.Provider(ctx, rec.PublicId)
		require.NoError(err)

		bus.Publish(ctx, plugin.Event{Kind: plugin.UndeployEvent, EntityId: rec.PublicId, Reference: rec.Reference})
		p.(*plugin.TestProvider).WaitStopped(t, 2*time.Second)
		_, ok := r.cached(rec.PublicId)
		assert.False(ok)
	})

	t.Run("delete-observed-after-deploy-wins", func(t *testing.T) {
		assert := assert.New(t)
		ctx, r, store, bus, _ := testRegistry(t)
		rec := plugin.TestRecord(t, "racer", `{"name":"racer"}`)
		store.Put(rec)

		bus.Publish(ctx, plugin.Event{Kind: plugin.DeployEvent, EntityId: rec.PublicId, Reference: rec.Reference})
		store.Remove(rec.PublicId)
		bus.Publish(ctx, plugin.Event{Kind: plugin.DeleteEvent, EntityId: rec.PublicId, Reference: rec.Reference})

		_, ok := r.cached(rec.PublicId)
		assert.False(ok)
	})
}

func TestRegistry_OnEvent_Validation(t *testing.T) {
	t.Parallel()

	t.Run("missing-entity-id", func(t *testing.T) {
		assert := assert.New(t)
		ctx, _, _, bus, sink := testRegistry(t)
		bus.Publish(ctx, plugin.Event{Kind: plugin.DeployEvent})
		assert.NotEmpty(sink.ErrorEvents())
	})

	t.Run("unknown-kind", func(t *testing.T) {
		assert := assert.New(t)
		ctx, _, _, bus, sink := testRegistry(t)
		bus.Publish(ctx, plugin.Event{Kind: "reticulate", EntityId: "plg_123"})
		assert.NotEmpty(sink.ErrorEvents())
	})

	t.Run("ignored-after-shutdown", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ctx, sink := event.TestEventerContext(t)
		store := plugin.NewTestStore()
		rec := plugin.TestRecord(t, "late", `{"name":"late"}`)
		store.Put(rec)
		bus := &plugin.TestBus{}
		r, err := New(ctx, store, &plugin.TestFactory{})
		require.NoError(err)
		require.NoError(r.Start(ctx, bus))
		require.NoError(r.Shutdown(ctx))
		sink.Clear()

		bus.Publish(ctx, plugin.Event{Kind: plugin.DeployEvent, EntityId: rec.PublicId})
		_, ok := r.cached(rec.PublicId)
		assert.False(ok)
	})
}

func TestRegistry_ReadsDuringRedeploy(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	ctx, r, store, bus, _ := testRegistry(t)
	rec := plugin.TestRecord(t, "v1", `{"name":"v1"}`)
	store.Put(rec)
	bus.Publish(ctx, plugin.Event{Kind: plugin.DeployEvent, EntityId: rec.PublicId, Reference: rec.Reference})
	old, err := r.Provider(ctx, rec.PublicId)
	require.NoError(err)

	rec.Configuration = `{"name":"v2"}`
	store.Put(rec)

	// every read issued while the update is in flight observes either the
	// old or the new handle, never an error and never a gap
	var wg sync.WaitGroup
	results := make([]plugin.Provider, 50)
	errs := make([]error, 50)
	start := make(chan struct{})
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results[i], errs[i] = r.Provider(ctx, rec.PublicId)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		bus.Publish(ctx, plugin.Event{Kind: plugin.UpdateEvent, EntityId: rec.PublicId, Reference: rec.Reference})
	}()
	close(start)
	wg.Wait()

	for i := 0; i < 50; i++ {
		require.NoError(errs[i])
		require.NotNil(results[i])
		name := results[i].(*plugin.TestProvider).ProviderName()
		require.Contains([]string{"v1", "v2"}, name)
	}
	final, err := r.Provider(ctx, rec.PublicId)
	require.NoError(err)
	require.Equal("v2", final.(*plugin.TestProvider).ProviderName())
	old.(*plugin.TestProvider).WaitStopped(t, 2*time.Second)
}

func TestRegistry_ConcurrentEvents(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	ctx, r, store, bus, _ := testRegistry(t)

	const n = 20
	records := make([]*plugin.Record, 0, n)
	for i := 0; i < n; i++ {
		rec := plugin.TestRecord(t, fmt.Sprintf("p%d", i), fmt.Sprintf(`{"name":"p%d"}`, i))
		store.Put(rec)
		records = append(records, rec)
	}

	var wg sync.WaitGroup
	for _, rec := range records {
		rec := rec
		for j := 0; j < 3; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				bus.Publish(ctx, plugin.Event{Kind: plugin.UpdateEvent, EntityId: rec.PublicId, Reference: rec.Reference})
			}()
		}
	}
	wg.Wait()

	// exactly one live provider per id regardless of redeploy interleaving
	for _, rec := range records {
		p, err := r.Provider(ctx, rec.PublicId)
		require.NoError(err)
		require.NotNil(p)
		assert.False(p.(*plugin.TestProvider).Stopped())
	}
}
