// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/require"
)

// TestPluginType is the plugin type understood by the TestFactory.
const TestPluginType = "test-provider"

// testProviderConfig is the configuration shape the TestFactory decodes.
type testProviderConfig struct {
	// Name identifies the built provider instance.
	Name string `mapstructure:"name"`

	// ExpiresAt, when set, makes the built provider an Expirer (RFC 3339).
	ExpiresAt string `mapstructure:"expires_at"`

	// Fail makes the build fail.
	Fail bool `mapstructure:"fail"`

	// StopFails makes the built provider's Stop return an error.
	StopFails bool `mapstructure:"stop_fails"`
}

// TestProvider is a fake provider handle with observable teardown.
type TestProvider struct {
	name      string
	expiresAt *time.Time
	stopErr   error

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
}

// NewTestProvider returns a named TestProvider without expiry.
func NewTestProvider(name string) *TestProvider {
	return &TestProvider{name: name, stopCh: make(chan struct{})}
}

// NewTestExpiringProvider returns a named TestProvider expiring at exp.
func NewTestExpiringProvider(name string, exp time.Time) *TestProvider {
	p := NewTestProvider(name)
	p.expiresAt = &exp
	return p
}

func (p *TestProvider) ProviderName() string { return p.name }

func (p *TestProvider) Expiration() (time.Time, bool) {
	if p.expiresAt == nil {
		return time.Time{}, false
	}
	return *p.expiresAt, true
}

func (p *TestProvider) Stop(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.stopped {
		p.stopped = true
		close(p.stopCh)
	}
	return p.stopErr
}

// Stopped reports whether Stop has been called.
func (p *TestProvider) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// WaitStopped blocks until Stop is called or the timeout elapses.
func (p *TestProvider) WaitStopped(t testing.TB, timeout time.Duration) {
	t.Helper()
	select {
	case <-p.stopCh:
	case <-time.After(timeout):
		t.Fatalf("provider %q was not stopped within %s", p.name, timeout)
	}
}

// TestFactory builds TestProviders from json configuration blobs, decoding
// them the way real plugin factories decode their typed configs.
type TestFactory struct {
	mu         sync.Mutex
	buildCount int

	// BuildErr, when set, makes every build fail.
	BuildErr error
}

func (f *TestFactory) NewProvider(_ context.Context, pluginType, configuration string) (Provider, error) {
	const op = "plugin.(TestFactory).NewProvider"
	f.mu.Lock()
	f.buildCount++
	f.mu.Unlock()
	if f.BuildErr != nil {
		return nil, f.BuildErr
	}
	if pluginType != TestPluginType {
		return nil, fmt.Errorf("%s: unrecognized plugin type %q", op, pluginType)
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(configuration), &raw); err != nil {
		return nil, fmt.Errorf("%s: invalid configuration: %w", op, err)
	}
	var cfg testProviderConfig
	if err := mapstructure.Decode(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%s: unable to decode configuration: %w", op, err)
	}
	if cfg.Fail {
		return nil, fmt.Errorf("%s: configuration requested a build failure", op)
	}
	p := NewTestProvider(cfg.Name)
	if cfg.StopFails {
		p.stopErr = errors.New("teardown failed")
	}
	if cfg.ExpiresAt != "" {
		exp, err := time.Parse(time.RFC3339, cfg.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid expires_at: %w", op, err)
		}
		p.expiresAt = &exp
	}
	return p, nil
}

// BuildCount returns how many times NewProvider has been called.
func (f *TestFactory) BuildCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buildCount
}

// TestStore is an in-memory configuration store.
type TestStore struct {
	mu      sync.RWMutex
	records map[string]*Record

	// FindErr, when set, makes FindRecord fail.
	FindErr error
}

func NewTestStore() *TestStore {
	return &TestStore{records: make(map[string]*Record)}
}

func (s *TestStore) Put(r *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.PublicId] = r.Clone()
}

func (s *TestStore) Remove(publicId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, publicId)
}

func (s *TestStore) FindRecord(_ context.Context, publicId string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	return s.records[publicId].Clone(), nil
}

func (s *TestStore) ListRecords(_ context.Context, cb func(*Record) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if err := cb(r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

// TestBus is a synchronous in-memory event bus.
type TestBus struct {
	mu        sync.RWMutex
	listeners []Listener
}

func (b *TestBus) Subscribe(_ context.Context, l Listener) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
	return nil
}

// Publish delivers the event synchronously to every subscribed listener.
func (b *TestBus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()
	for _, l := range listeners {
		l.OnEvent(ctx, e)
	}
}

// ListenerCount returns the number of subscribed listeners.
func (b *TestBus) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// TestRecord creates a Record of the TestFactory's plugin type with the
// provided configuration.
func TestRecord(t testing.TB, name, configuration string) *Record {
	t.Helper()
	id, err := NewRecordId()
	require.NoError(t, err)
	now := time.Now()
	return &Record{
		PublicId:      id,
		Name:          name,
		Type:          TestPluginType,
		Configuration: configuration,
		Reference:     Reference{Type: DomainReference, Id: "dom_test"},
		CreateTime:    now,
		UpdateTime:    now,
	}
}
