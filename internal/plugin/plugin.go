// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package plugin contains the domain model shared by the provider lifecycle
// registry, the masking engine and the audited services: persisted plugin
// records, the lifecycle events that announce changes to them, and the live
// provider handles built from them.
package plugin

import (
	"context"
	"fmt"
	"time"
)

// ReferenceType scopes a plugin record to its owner.
type ReferenceType string

const (
	DomainReference            ReferenceType = "domain"
	OrganizationReference      ReferenceType = "organization"
	ApplicationReference       ReferenceType = "application"
	ProtectedResourceReference ReferenceType = "protected-resource"
)

func (t ReferenceType) Validate() error {
	const op = "plugin.(ReferenceType).Validate"
	switch t {
	case DomainReference, OrganizationReference, ApplicationReference, ProtectedResourceReference:
		return nil
	default:
		return fmt.Errorf("%s: '%s' is not a valid reference type: %w", op, t, ErrInvalidParameter)
	}
}

// Reference identifies the owner of a plugin record: a security domain, an
// organization, an application or a protected resource.
type Reference struct {
	Type ReferenceType `json:"type"`
	Id   string        `json:"id"`
}

// A Record is the persisted configuration of one plugin-backed entity
// (certificate, identity provider, authorization engine, reporter, ...).
// Records are owned by the configuration store; the core only reads them.
type Record struct {
	// PublicId is the record's opaque id.
	PublicId string

	// Name is the record's human readable name, optional.
	Name string

	// Type names the plugin implementation that interprets Configuration,
	// e.g. "ldap-am-idp" or "javakeystore-am-certificate".
	Type string

	// Configuration is the plugin's configuration as an opaque string,
	// typically JSON.  Its shape is described by the plugin type's
	// configuration schema.
	Configuration string

	// Reference scopes the record to its owner.
	Reference Reference

	CreateTime time.Time
	UpdateTime time.Time
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

func (r *Record) Validate() error {
	const op = "plugin.(Record).Validate"
	switch {
	case r == nil:
		return fmt.Errorf("%s: missing record: %w", op, ErrInvalidParameter)
	case r.PublicId == "":
		return fmt.Errorf("%s: missing public id: %w", op, ErrInvalidParameter)
	case r.Type == "":
		return fmt.Errorf("%s: missing type: %w", op, ErrInvalidParameter)
	}
	return nil
}

// Provider is a live, callable instance of a plugin implementation built from
// a Record's configuration.  A cached provider is exclusively owned by the
// registry; handles returned to callers are shared and must not be assumed to
// outlive the next redeploy.
type Provider interface {
	// Stop tears the provider down and releases any resources it holds.
	// Stop is called at most once, asynchronously to the registry's own
	// state transitions.
	Stop(ctx context.Context) error
}

// Expirer is implemented by providers with a bounded validity, e.g. a
// certificate provider whose keypair expires.
type Expirer interface {
	// Expiration reports the provider's expiry time.  ok is false when the
	// provider has no expiry (it never expires).
	Expiration() (exp time.Time, ok bool)
}

// Named is implemented by providers that can describe themselves; the audited
// services use it for message texture and tests use it to identify handles.
type Named interface {
	ProviderName() string
}

// Factory builds providers from plugin configuration.  Implementations must
// be safe to call repeatedly and rapidly during redeploy storms.
type Factory interface {
	// NewProvider instantiates a provider of the given plugin type from the
	// configuration blob.  It returns an error when the type is unrecognized
	// or the configuration cannot produce a working provider.
	NewProvider(ctx context.Context, pluginType string, configuration string) (Provider, error)
}
