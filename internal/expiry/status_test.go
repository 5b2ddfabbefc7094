// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	threshold := 5 * 24 * time.Hour
	ptr := func(t time.Time) *time.Time { return &t }
	tests := []struct {
		name      string
		expiresAt *time.Time
		renewed   bool
		want      Status
	}{
		{
			name:      "nil-expiry-valid",
			expiresAt: nil,
			want:      StatusValid,
		},
		{
			name:      "nil-expiry-renewed-still-valid",
			expiresAt: nil,
			renewed:   true,
			want:      StatusValid,
		},
		{
			name:      "far-future-valid",
			expiresAt: ptr(now.Add(30 * 24 * time.Hour)),
			want:      StatusValid,
		},
		{
			name:      "within-threshold-will-expire",
			expiresAt: ptr(now.Add(2 * 24 * time.Hour)),
			want:      StatusWillExpire,
		},
		{
			name:      "exactly-at-threshold-will-expire",
			expiresAt: ptr(now.Add(threshold)),
			want:      StatusWillExpire,
		},
		{
			name:      "past-expired",
			expiresAt: ptr(now.Add(-time.Hour)),
			want:      StatusExpired,
		},
		{
			name:      "renewed-beats-will-expire",
			expiresAt: ptr(now.Add(2 * 24 * time.Hour)),
			renewed:   true,
			want:      StatusRenewed,
		},
		{
			name:      "renewed-beats-expired",
			expiresAt: ptr(now.Add(-time.Hour)),
			renewed:   true,
			want:      StatusRenewed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyAt(now, tt.expiresAt, tt.renewed, threshold))
		})
	}
}
