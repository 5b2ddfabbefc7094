// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gatehouse-id/gatehouse/internal/event"
)

// Op represents an operation (package.function).
// For example iam.CreateRole
type Op string

// Err provides the ability to specify a Msg, Op, Code and Wrapped error.
// We've chosen Err over Error for the identifier to support the easy embedding of Errs.
// Errs can be wrapped, when used with other errors implementing the Wrapper
// interface.
type Err struct {
	// Code is the error's code, which can be used to get the error's
	// errorCodeInfo, which contains the error's Kind and Message
	Code Code

	// Msg for the error
	Msg string

	// Op represents the operation raising/propagating an error and is optional
	Op Op

	// Wrapped is the error which this Err wraps and will be nil if there's no
	// error to wrap.
	Wrapped error
}

// E creates a new Err with provided code and supports the options of:
//
// * WithOp() - allows you to specify an optional Op (operation).
//
// * WithMsg() - allows you to specify an optional error msg, if the default
// msg for the error Code is not sufficient.
//
// * WithWrap() - allows you to specify an error to wrap
//
// * WithoutEvent - allows you to specify that no error event should be emitted.
//
// The "ctx" parameter is only used when an error event is emitted.
func E(ctx context.Context, opt ...Option) error {
	opts := GetOpts(opt...)
	err := &Err{
		Code:    opts.withCode,
		Op:      opts.withOp,
		Wrapped: opts.withErrWrapped,
		Msg:     opts.withErrMsg,
	}
	if !opts.withoutEvent {
		event.WriteError(ctx, event.Op(opts.withOp), err)
	}
	return err
}

// New creates a new Err with provided code, op and msg.  It supports the
// options of:
//
// * WithWrap() - allows you to specify an error to wrap
//
// * WithoutEvent - allows you to specify that no error event should be emitted.
func New(ctx context.Context, c Code, op Op, msg string, opt ...Option) error {
	opt = append(opt, WithOp(op), WithCode(c), WithMsg(msg))
	return E(ctx, opt...)
}

// Wrap creates a new Err from the provided err and op,  preserving the code
// from the originating error.  It supports the options of:
//
// * WithMsg() - allows you to specify an optional error msg
//
// * WithCode() - allows you to override the code inherited from the wrapped
// error.
//
// * WithoutEvent - allows you to specify that no error event should be emitted.
func Wrap(ctx context.Context, e error, op Op, opt ...Option) error {
	opts := GetOpts(opt...)
	if opts.withCode == Unknown {
		var err *Err
		if errors.As(e, &err) {
			opts.withCode = err.Code
		}
	}
	opt = append(opt, WithOp(op), WithCode(opts.withCode), WithWrap(e))
	return E(ctx, opt...)
}

// Convert converts the error to an Err if it's not already one, capturing its
// message.  A nil error remains nil.
func Convert(e error) *Err {
	if e == nil {
		return nil
	}
	var err *Err
	if errors.As(e, &err) {
		return err
	}
	return &Err{
		Code:    Unknown,
		Msg:     e.Error(),
		Wrapped: e,
	}
}

// Info about the Err
func (e *Err) Info() Info {
	if e == nil {
		return errorCodeInfo[Unknown]
	}
	return e.Code.Info()
}

// Error satisfies the error interface and returns a string representation of
// the Err
func (e *Err) Error() string {
	if e == nil {
		return ""
	}
	var s strings.Builder
	if e.Op != "" {
		join(&s, ": ", string(e.Op))
	}
	if e.Msg != "" {
		join(&s, ": ", e.Msg)
	}

	var skipInfo bool
	var wrapped *Err
	if errors.As(e.Wrapped, &wrapped) {
		// if wrapped error code is the same as this error, don't print redundant info
		skipInfo = wrapped.Code == e.Code
	}

	if info, ok := errorCodeInfo[e.Code]; ok && !skipInfo {
		if e.Msg == "" {
			join(&s, ": ", info.Message) // provide a default.
			join(&s, ", ", info.Kind.String())
		} else {
			join(&s, ": ", info.Kind.String())
		}
		join(&s, ": ", fmt.Sprintf("error #%d", e.Code))
	}

	if e.Wrapped != nil {
		join(&s, ": ", e.Wrapped.Error())
	}
	return s.String()
}

func join(str *strings.Builder, delim string, s string) {
	if str.Len() == 0 {
		_, _ = str.WriteString(s)
		return
	}
	_, _ = str.WriteString(delim + s)
}

// Unwrap implements the errors.Unwrap interface and allows callers to use the
// errors.Is() and errors.As() functions effectively for any wrapped errors.
func (e *Err) Unwrap() error {
	return e.Wrapped
}

// Is the receiver the same error as the target? Errs are equivalent if their
// Codes match, which lets callers test against the package sentinels with
// stdlib errors.Is.
func (e *Err) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	var t *Err
	if !errors.As(target, &t) {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	if t.Msg != "" && t.Msg != e.Msg {
		return false
	}
	return true
}
