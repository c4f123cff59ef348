// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

// Package rpc is the runtime used by generated Go bindings.
//
// A call is a Message whose Method is "<Service>.<Method>" and whose Arg is
// the encoded parameter. Clients hand messages to a Transport; servers route
// them through a Dispatcher.
package rpc

import (
	"context"
	"errors"
	"fmt"
)

const (
	MaxMessageSize uint32 = 0x7FF00000
)

var (
	ErrMessageTooLarge = errors.New("rpc: message too large")

	// ErrNoReply is returned by clients when a Transport yields neither a
	// reply nor an error for a method that has a result.
	ErrNoReply = errors.New("rpc: transport returned no reply")
)

type Message struct {
	Method string `json:"method" bson:"method"`
	Arg    []byte `json:"arg,omitempty" bson:"arg,omitempty"`
}

func (msg *Message) String() string {
	return fmt.Sprintf("%s (%d bytes)", msg.Method, len(msg.Arg))
}

func (msg *Message) checkSize() error {
	if uint64(len(msg.Arg)) > uint64(MaxMessageSize) {
		return fmt.Errorf("%w: %s", ErrMessageTooLarge, msg)
	}
	return nil
}

// Transport sends a request and waits for the reply.
type Transport interface {
	Send(ctx context.Context, msg *Message) (*Message, error)
}

// Dispatcher handles one incoming request.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *Message) (*Message, error)
}

type DispatcherFunc func(ctx context.Context, msg *Message) (*Message, error)

func (f DispatcherFunc) Dispatch(ctx context.Context, msg *Message) (*Message, error) {
	return f(ctx, msg)
}

// NotHandledError is returned by a Dispatcher that does not recognize the
// requested method.
type NotHandledError struct {
	Method string
}

func (err *NotHandledError) Error() string {
	return fmt.Sprintf("rpc: method not handled: %s", err.Method)
}

// NotHandled returns a *NotHandledError for the qualified method name.
func NotHandled(method string) error {
	return &NotHandledError{Method: method}
}

func IsNotHandled(err error) bool {
	var nh *NotHandledError
	return errors.As(err, &nh)
}
