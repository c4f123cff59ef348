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

package codegen

import (
	"fmt"
	"strings"
)

// Error is a code generation failure. Codes are in the 5000-5999 range.
type Error struct {
	code    uint32
	message string
	backend string
	entity  string
	cause   error
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

// Backend is the name of the backend that failed.
func (err *Error) Backend() string {
	return err.backend
}

// Entity names the schema entity or template involved, if any.
func (err *Error) Entity() string {
	return err.entity
}

func (err *Error) Unwrap() error {
	return err.cause
}

func errUnknownBackend(name string, available []string) *Error {
	return &Error{
		code: 5000,
		message: fmt.Sprintf(
			"Unknown code generation backend '%s' (available: %s)",
			name, strings.Join(available, ", "),
		),
		backend: name,
	}
}

func errUnmappableType(backend, entity, typeName string) *Error {
	return &Error{
		code: 5001,
		message: fmt.Sprintf(
			"Type '%s' of '%s' has no %s equivalent",
			typeName, entity, backend,
		),
		backend: backend,
		entity:  entity,
	}
}

func errRender(backend, template string, cause error) *Error {
	return &Error{
		code:    5002,
		message: fmt.Sprintf("Failed to render %s template '%s': %v", backend, template, cause),
		backend: backend,
		entity:  template,
		cause:   cause,
	}
}

func errInvalidOutput(backend, path, reason string) *Error {
	return &Error{
		code:    5002,
		message: fmt.Sprintf("Failed to render %s output '%s': %s", backend, path, reason),
		backend: backend,
		entity:  path,
	}
}

func errNameCollision(backend, entity, name, prev string) *Error {
	return &Error{
		code: 5003,
		message: fmt.Sprintf(
			"Generated %s name '%s' for '%s' collides with '%s'",
			backend, name, entity, prev,
		),
		backend: backend,
		entity:  entity,
	}
}

func errFormat(backend, path string, cause error) *Error {
	return &Error{
		code:    5004,
		message: fmt.Sprintf("Failed to format %s output '%s': %v", backend, path, cause),
		backend: backend,
		entity:  path,
		cause:   cause,
	}
}

// PluginError reports a failure inside an out-of-process backend.
func PluginError(backend string, cause error) *Error {
	return &Error{
		code:    5005,
		message: fmt.Sprintf("Plugin for %s failed: %v", backend, cause),
		backend: backend,
		cause:   cause,
	}
}

func errInvalidOption(backend, key, reason string) *Error {
	return &Error{
		code:    5006,
		message: fmt.Sprintf("Invalid %s option '%s': %s", backend, key, reason),
		backend: backend,
		entity:  key,
	}
}
