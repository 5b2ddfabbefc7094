// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package services

import (
	"context"
	"sync"
	"time"

	"github.com/gatehouse-id/gatehouse/internal/plugin"
)

// TestEntityService is an in-memory PluginEntityService for tests.  Any of
// its operations can be made to fail via the corresponding Err field.
type TestEntityService struct {
	mu      sync.RWMutex
	records map[string]*plugin.Record

	FindErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// UpdateConfiguration, when set, overrides the configuration Update
	// returns, simulating a store that rewrites the blob on persist.
	UpdateConfiguration string
}

// NewTestEntityService creates an empty TestEntityService.
func NewTestEntityService() *TestEntityService {
	return &TestEntityService{records: map[string]*plugin.Record{}}
}

// Put seeds a record directly, bypassing Create.
func (s *TestEntityService) Put(r *plugin.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.PublicId] = r.Clone()
}

// FindById implements PluginEntityService.
func (s *TestEntityService) FindById(_ context.Context, publicId string) (*plugin.Record, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[publicId].Clone(), nil
}

// FindByReference implements PluginEntityService.
func (s *TestEntityService) FindByReference(_ context.Context, ref plugin.Reference) ([]*plugin.Record, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*plugin.Record
	for _, r := range s.records {
		if r.Reference == ref {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// Create implements PluginEntityService, assigning the record a fresh id.
func (s *TestEntityService) Create(_ context.Context, r *plugin.Record) (*plugin.Record, error) {
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	created := r.Clone()
	if created.PublicId == "" {
		id, err := plugin.NewRecordId()
		if err != nil {
			return nil, err
		}
		created.PublicId = id
	}
	now := time.Now()
	created.CreateTime = now
	created.UpdateTime = now
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[created.PublicId] = created.Clone()
	return created, nil
}

// Update implements PluginEntityService.
func (s *TestEntityService) Update(_ context.Context, r *plugin.Record) (*plugin.Record, error) {
	if s.UpdateErr != nil {
		return nil, s.UpdateErr
	}
	updated := r.Clone()
	if s.UpdateConfiguration != "" {
		updated.Configuration = s.UpdateConfiguration
	}
	updated.UpdateTime = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[updated.PublicId] = updated.Clone()
	return updated, nil
}

// Delete implements PluginEntityService.
func (s *TestEntityService) Delete(_ context.Context, publicId string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, publicId)
	return nil
}

// Stored returns the raw stored record, unmasked.
func (s *TestEntityService) Stored(publicId string) *plugin.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[publicId].Clone()
}
