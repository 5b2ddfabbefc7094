// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/gatehouse-id/gatehouse/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tests := []struct {
		name    string
		code    errors.Code
		op      errors.Op
		msg     string
		opt     []errors.Option
		want    error
		wantStr string
	}{
		{
			name: "all-options",
			code: errors.RecordNotFound,
			op:   "registry.lookup",
			msg:  "certificate cert-123 not found",
			opt: []errors.Option{
				errors.WithWrap(errors.ErrRecordNotFound),
			},
			want: &errors.Err{
				Op:      "registry.lookup",
				Wrapped: errors.ErrRecordNotFound,
				Msg:     "certificate cert-123 not found",
				Code:    errors.RecordNotFound,
			},
			wantStr: "registry.lookup: certificate cert-123 not found: record not found, search issue: error #1100",
		},
		{
			name:    "no-msg",
			code:    errors.PluginSchemaNotFound,
			op:      "services.read",
			want:    &errors.Err{Op: "services.read", Code: errors.PluginSchemaNotFound},
			wantStr: "services.read: no configuration schema for plugin type, configuration issue: error #2000",
		},
		{
			name:    "unknown-code",
			msg:     "test msg",
			want:    &errors.Err{Msg: "test msg"},
			wantStr: "test msg: unknown: error #0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			err := errors.New(ctx, tt.code, tt.op, tt.msg, tt.opt...)
			require.Error(err)
			assert.Equal(tt.want, err)
			assert.Equal(tt.wantStr, err.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	t.Run("inherits-code", func(t *testing.T) {
		assert := assert.New(t)
		inner := errors.New(ctx, errors.RecordNotFound, "store.find", "no record")
		err := errors.Wrap(ctx, inner, "registry.deploy")
		var domainErr *errors.Err
		assert.True(stderrors.As(err, &domainErr))
		assert.Equal(errors.RecordNotFound, domainErr.Code)
		assert.True(errors.IsNotFoundError(err))
	})
	t.Run("override-code", func(t *testing.T) {
		assert := assert.New(t)
		inner := stderrors.New("boom")
		err := errors.Wrap(ctx, inner, "registry.deploy", errors.WithCode(errors.PluginBuildFailed))
		var domainErr *errors.Err
		assert.True(stderrors.As(err, &domainErr))
		assert.Equal(errors.PluginBuildFailed, domainErr.Code)
		assert.True(stderrors.Is(err, inner))
	})
}

func TestErr_Is(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	err := errors.New(ctx, errors.PluginSchemaNotFound, "services.update", "no schema for type ldap")
	assert.True(t, stderrors.Is(err, errors.ErrSchemaNotFound))
	assert.False(t, stderrors.Is(err, errors.ErrRecordNotFound))
	assert.True(t, errors.IsSchemaNotFoundError(err))
}

func TestConvert(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	assert.Nil(errors.Convert(nil))

	e := stderrors.New("not a domain error")
	converted := errors.Convert(e)
	assert.Equal(errors.Unknown, converted.Code)
	assert.Equal("not a domain error", converted.Msg)

	domain := errors.New(context.Background(), errors.Io, "test.op", "io failed", errors.WithoutEvent())
	var domainErr *errors.Err
	require.True(t, stderrors.As(domain, &domainErr))
	assert.Same(domainErr, errors.Convert(domain))
}
