// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package services

import (
	"context"
	"fmt"

	"github.com/gatehouse-id/gatehouse/internal/errors"
	"github.com/gatehouse-id/gatehouse/internal/event"
	"github.com/gatehouse-id/gatehouse/internal/masking"
	"github.com/gatehouse-id/gatehouse/internal/plugin"
)

// AuditedService decorates a PluginEntityService with secret masking on
// every read and audit emission on every mutation.  Each mutating call emits
// exactly one audit record reflecting its final outcome, whether the failure
// happened in schema resolution, masking or the wrapped service; the only
// unaudited failures are the ones that never reached the domain (invalid
// arguments, record not found on update or delete).
type AuditedService struct {
	entityType string
	wrapped    PluginEntityService
	schemas    masking.SchemaRepository
}

// NewAuditedService wraps a concrete entity service.  entityType names the
// entity kind in audit actions, e.g. "certificate" yields actions like
// "certificate.create".
func NewAuditedService(ctx context.Context, entityType string, wrapped PluginEntityService, schemas masking.SchemaRepository) (*AuditedService, error) {
	const op = "services.NewAuditedService"
	switch {
	case entityType == "":
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing entity type")
	case wrapped == nil:
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing wrapped service")
	case schemas == nil:
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing schema repository")
	}
	return &AuditedService{
		entityType: entityType,
		wrapped:    wrapped,
		schemas:    schemas,
	}, nil
}

// FindById returns the record with its configuration masked.  An absent
// record is (nil, nil); an unknown plugin type masks the whole configuration
// down to an empty object.
func (s *AuditedService) FindById(ctx context.Context, publicId string) (*plugin.Record, error) {
	const op = "services.(AuditedService).FindById"
	if publicId == "" {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing public id")
	}
	rec, err := s.wrapped.FindById(ctx, publicId)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	if rec == nil {
		return nil, nil
	}
	masked, err := s.masked(ctx, rec)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	return masked, nil
}

// FindByReference returns every record owned by ref, each with its
// configuration masked.
func (s *AuditedService) FindByReference(ctx context.Context, ref plugin.Reference) ([]*plugin.Record, error) {
	const op = "services.(AuditedService).FindByReference"
	if err := ref.Type.Validate(); err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	recs, err := s.wrapped.FindByReference(ctx, ref)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	out := make([]*plugin.Record, 0, len(recs))
	for _, rec := range recs {
		masked, err := s.masked(ctx, rec)
		if err != nil {
			return nil, errors.Wrap(ctx, err, op)
		}
		out = append(out, masked)
	}
	return out, nil
}

// Create delegates to the wrapped service and audits the outcome.  When the
// created record's plugin type has no schema the creation has already
// happened downstream but its configuration cannot be safely surfaced: the
// audit records a failure and a schema-not-found error is returned.
func (s *AuditedService) Create(ctx context.Context, r *plugin.Record) (*plugin.Record, error) {
	const op = "services.(AuditedService).Create"
	if r == nil {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing record")
	}
	if r.Type == "" {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing type")
	}

	created, err := s.wrapped.Create(ctx, r)
	if err != nil {
		s.audit(ctx, op, "create", r.Reference, "", event.FailureOutcome, err.Error())
		return nil, errors.Wrap(ctx, err, op)
	}

	schema, err := s.schema(ctx, created.Type)
	if err != nil {
		s.audit(ctx, op, "create", created.Reference, created.PublicId, event.FailureOutcome, err.Error())
		return nil, errors.Wrap(ctx, err, op)
	}

	maskedCfg, err := masking.MaskConfiguration(schema, created.Configuration)
	if err != nil {
		s.audit(ctx, op, "create", created.Reference, created.PublicId, event.FailureOutcome, err.Error())
		return nil, errors.Wrap(ctx, err, op)
	}

	s.audit(ctx, op, "create", created.Reference, created.PublicId, event.SuccessOutcome,
		fmt.Sprintf("created %s %q", s.entityType, created.Name))
	out := created.Clone()
	out.Configuration = maskedCfg
	return out, nil
}

// Update resolves the secret-preserving configuration against the stored
// record, delegates, and audits the outcome.  A record that does not exist
// fails without an audit since the operation never reached the domain.
func (s *AuditedService) Update(ctx context.Context, r *plugin.Record) (*plugin.Record, error) {
	const op = "services.(AuditedService).Update"
	if r == nil {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing record")
	}
	if r.PublicId == "" {
		return nil, errors.New(ctx, errors.InvalidParameter, op, "missing public id")
	}

	existing, err := s.wrapped.FindById(ctx, r.PublicId)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	if existing == nil {
		return nil, errors.New(ctx, errors.RecordNotFound, op, fmt.Sprintf("record %q not found", r.PublicId))
	}

	schema, err := s.schema(ctx, existing.Type)
	if err != nil {
		s.audit(ctx, op, "update", existing.Reference, existing.PublicId, event.FailureOutcome, err.Error())
		return nil, errors.Wrap(ctx, err, op)
	}

	resolvedCfg, err := masking.MergeConfiguration(schema, existing.Configuration, r.Configuration)
	if err != nil {
		s.audit(ctx, op, "update", existing.Reference, existing.PublicId, event.FailureOutcome, err.Error())
		return nil, errors.Wrap(ctx, err, op)
	}

	resolved := r.Clone()
	resolved.Configuration = resolvedCfg
	updated, err := s.wrapped.Update(ctx, resolved)
	if err != nil {
		s.audit(ctx, op, "update", existing.Reference, existing.PublicId, event.FailureOutcome, err.Error())
		return nil, errors.Wrap(ctx, err, op)
	}

	// mask before auditing: an update that cannot be safely surfaced is a
	// failed update from the caller's point of view, and the single audit
	// record has to say so
	maskedCfg, err := masking.MaskConfiguration(schema, updated.Configuration)
	if err != nil {
		s.audit(ctx, op, "update", existing.Reference, existing.PublicId, event.FailureOutcome, err.Error())
		return nil, errors.Wrap(ctx, err, op)
	}

	msg := fmt.Sprintf("updated %s %q", s.entityType, updated.Name)
	if existing.Name != updated.Name {
		msg = fmt.Sprintf("updated %s %q to %q", s.entityType, existing.Name, updated.Name)
	}
	s.audit(ctx, op, "update", updated.Reference, updated.PublicId, event.SuccessOutcome, msg)

	out := updated.Clone()
	out.Configuration = maskedCfg
	return out, nil
}

// Delete loads the record first to learn its owning reference, delegates,
// and audits the outcome.  An absent record fails without an audit.
func (s *AuditedService) Delete(ctx context.Context, publicId string) error {
	const op = "services.(AuditedService).Delete"
	if publicId == "" {
		return errors.New(ctx, errors.InvalidParameter, op, "missing public id")
	}
	existing, err := s.wrapped.FindById(ctx, publicId)
	if err != nil {
		return errors.Wrap(ctx, err, op)
	}
	if existing == nil {
		return errors.New(ctx, errors.RecordNotFound, op, fmt.Sprintf("record %q not found", publicId))
	}

	if err := s.wrapped.Delete(ctx, publicId); err != nil {
		s.audit(ctx, op, "delete", existing.Reference, existing.PublicId, event.FailureOutcome, err.Error())
		return errors.Wrap(ctx, err, op)
	}
	s.audit(ctx, op, "delete", existing.Reference, existing.PublicId, event.SuccessOutcome,
		fmt.Sprintf("deleted %s %q", s.entityType, existing.Name))
	return nil
}

// masked returns a clone of rec with its configuration masked per its plugin
// type's schema.  An unknown schema on a read path is not an error; the
// configuration collapses to an empty object.
func (s *AuditedService) masked(ctx context.Context, rec *plugin.Record) (*plugin.Record, error) {
	const op = "services.(AuditedService).masked"
	schema, err := s.schemas.Schema(ctx, rec.Type)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithMsg("unable to resolve schema"))
	}
	maskedCfg, err := masking.MaskConfiguration(schema, rec.Configuration)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op)
	}
	out := rec.Clone()
	out.Configuration = maskedCfg
	return out, nil
}

// schema resolves a plugin type's schema for a write path, where an unknown
// type is a hard error.
func (s *AuditedService) schema(ctx context.Context, pluginType string) (*masking.Schema, error) {
	const op = "services.(AuditedService).schema"
	schema, err := s.schemas.Schema(ctx, pluginType)
	if err != nil {
		return nil, errors.Wrap(ctx, err, op, errors.WithMsg("unable to resolve schema"))
	}
	if schema == nil {
		return nil, errors.New(ctx, errors.PluginSchemaNotFound, op, fmt.Sprintf("no schema for plugin type %q", pluginType))
	}
	return schema, nil
}

// audit emits exactly one audit record for a mutating call.  Emission
// failures are reported as error events; the administrative action itself
// already has its outcome and must not fail retroactively.
func (s *AuditedService) audit(ctx context.Context, caller string, action string, ref plugin.Reference, targetId string, outcome event.Outcome, msg string) {
	r := &event.AuditRecord{
		Action:        s.entityType + "." + action,
		Outcome:       outcome,
		ReferenceType: string(ref.Type),
		ReferenceId:   ref.Id,
		TargetId:      targetId,
		Message:       msg,
	}
	if err := event.WriteAudit(ctx, event.Op(caller), r); err != nil {
		event.WriteError(ctx, event.Op(caller), err)
	}
}
