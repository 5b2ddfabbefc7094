// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import "fmt"

// RequestInfo defines the administrative request information available to all
// events emitted while handling that request.  The management glue layer
// (which routes and validates administrative calls) is expected to put one of
// these into the context before calling into the core.
type RequestInfo struct {
	// Id of the administrative request
	Id string `json:"id,omitempty"`

	// ActorId is the id of the administrator making the request
	ActorId string `json:"actor_id,omitempty"`

	// ClientIp of the administrative request
	ClientIp string `json:"client_ip,omitempty"`
}

func (i *RequestInfo) validate() error {
	const op = "event.(RequestInfo).validate"
	if i == nil {
		return fmt.Errorf("%s: missing request info: %w", op, ErrInvalidParameter)
	}
	if i.Id == "" {
		return fmt.Errorf("%s: missing id: %w", op, ErrInvalidParameter)
	}
	return nil
}
