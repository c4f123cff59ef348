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

package rpc

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Mux routes "<Service>.<Method>" requests to the dispatcher registered for
// the service.
type Mux struct {
	mu       sync.RWMutex
	services map[string]Dispatcher
}

func NewMux() *Mux {
	return &Mux{services: make(map[string]Dispatcher)}
}

func (m *Mux) Handle(service string, d Dispatcher) error {
	if service == "" || strings.Contains(service, ".") {
		return fmt.Errorf("rpc: invalid service name %q", service)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.services[service]; dup {
		return fmt.Errorf("rpc: service %q is already registered", service)
	}
	m.services[service] = d
	return nil
}

// Services returns the registered service names in sorted order.
func (m *Mux) Services() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.services))
	for name := range m.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Mux) Dispatch(ctx context.Context, msg *Message) (*Message, error) {
	service, _, ok := strings.Cut(msg.Method, ".")
	if !ok {
		return nil, NotHandled(msg.Method)
	}
	m.mu.RLock()
	d := m.services[service]
	m.mu.RUnlock()
	if d == nil {
		return nil, NotHandled(msg.Method)
	}
	return d.Dispatch(ctx, msg)
}

// Loopback is a Transport that delivers requests to a Dispatcher in the same
// process. Payloads are copied in both directions.
type Loopback struct {
	dispatcher Dispatcher
}

func NewLoopback(d Dispatcher) *Loopback {
	return &Loopback{dispatcher: d}
}

func (l *Loopback) Send(ctx context.Context, msg *Message) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := msg.checkSize(); err != nil {
		return nil, err
	}
	req := &Message{Method: msg.Method, Arg: bytes.Clone(msg.Arg)}
	resp, err := l.dispatcher.Dispatch(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &Message{Method: msg.Method}, nil
	}
	if err := resp.checkSize(); err != nil {
		return nil, err
	}
	return &Message{Method: resp.Method, Arg: bytes.Clone(resp.Arg)}, nil
}
