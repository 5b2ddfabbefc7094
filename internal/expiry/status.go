// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package expiry tracks the time-bounded validity of plugin-backed entities
// (certificates, client secrets).  The lifecycle registry hands it every
// provider it builds or removes; for providers reporting an expiration the
// package keeps reminder notifications registered with the notification
// service and classifies validity for read surfaces.
package expiry

import "time"

// Status classifies the validity of an expiring entity.
type Status string

const (
	// StatusValid means the entity is valid and not near expiry, including
	// entities with no expiry at all.
	StatusValid Status = "VALID"

	// StatusWillExpire means the entity expires within the warning
	// threshold.
	StatusWillExpire Status = "WILL_EXPIRE"

	// StatusExpired means the expiry time is in the past.
	StatusExpired Status = "EXPIRED"

	// StatusRenewed means the entity has been replaced or renewed; it
	// outranks every date-derived status.
	StatusRenewed Status = "RENEWED"
)

// Classify derives a Status from an expiry time and a renewed flag.  A nil
// expiresAt always classifies as StatusValid since there is nothing to renew
// or outlive.  Precedence for entities with an expiry is renewed, then
// expired, then within-threshold, then valid.
func Classify(expiresAt *time.Time, renewed bool, threshold time.Duration) Status {
	return classifyAt(time.Now(), expiresAt, renewed, threshold)
}

func classifyAt(now time.Time, expiresAt *time.Time, renewed bool, threshold time.Duration) Status {
	if expiresAt == nil {
		return StatusValid
	}
	switch {
	case renewed:
		return StatusRenewed
	case expiresAt.Before(now):
		return StatusExpired
	case expiresAt.Sub(now) <= threshold:
		return StatusWillExpire
	default:
		return StatusValid
	}
}
