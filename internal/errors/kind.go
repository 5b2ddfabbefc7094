// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors

// Kind specifies the kind of error (unknown, parameter, integrity, etc.).
type Kind uint32

const (
	Other Kind = iota
	Parameter
	Integrity
	Search
	State
	External
	Configuration
	Encoding
)

func (e Kind) String() string {
	switch e {
	case Parameter:
		return "parameter violation"
	case Integrity:
		return "integrity violation"
	case Search:
		return "search issue"
	case State:
		return "state issue"
	case External:
		return "external system issue"
	case Configuration:
		return "configuration issue"
	case Encoding:
		return "encoding issue"
	default:
		return "unknown"
	}
}
