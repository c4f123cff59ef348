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

package compiler

import (
	"fmt"

	"github.com/frodobuf/frodobuf/syntax"
)

// Error is a semantic error in an otherwise well-formed file. It names the
// offending entity and the scope it was declared in.
type Error struct {
	code    uint32
	message string
	span    syntax.Span
	pos     syntax.Pos
	entity  string
	scope   string
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

func (err *Error) Span() syntax.Span {
	return err.span
}

func (err *Error) Pos() syntax.Pos {
	return err.pos
}

// Entity is the name of the declaration the error is about.
func (err *Error) Entity() string {
	return err.entity
}

// Scope is the name of the enclosing declaration, or the package name for
// top-level declarations.
func (err *Error) Scope() string {
	return err.scope
}

func newError(code uint32, node syntax.Node, scope, entity, message string) *Error {
	return &Error{
		code:    code,
		message: message,
		span:    node.Span(),
		pos:     node.Pos(),
		entity:  entity,
		scope:   scope,
	}
}

func errDuplicateDecl(kind string, pkg string, name *syntax.Ident) *Error {
	return newError(3000, name, pkg, name.Get(), fmt.Sprintf(
		"Duplicate declaration of %s '%s' in package %q",
		kind, name.Get(), pkg,
	))
}

func errDeclKindConflict(kind, prevKind string, pkg string, name *syntax.Ident) *Error {
	return newError(3001, name, pkg, name.Get(), fmt.Sprintf(
		"Declaration of %s '%s' conflicts with earlier declaration of %s '%s'",
		kind, name.Get(), prevKind, name.Get(),
	))
}

func errDuplicateField(msg string, name *syntax.Ident) *Error {
	return newError(3002, name, msg, name.Get(), fmt.Sprintf(
		"Duplicate field '%s' in message '%s'",
		name.Get(), msg,
	))
}

func errDuplicateFieldNumber(msg, field, prevField string, number uint32, node syntax.Node) *Error {
	return newError(3003, node, msg, field, fmt.Sprintf(
		"Field '%s' in message '%s' reuses number %d of field '%s'",
		field, msg, number, prevField,
	))
}

func errAutoNumberCollision(msg, field, explicitField string, number uint32, node syntax.Node) *Error {
	return newError(3004, node, msg, field, fmt.Sprintf(
		"Automatic number %d of field '%s' in message '%s' collides with explicit number of field '%s'",
		number, field, msg, explicitField,
	))
}

func errFieldNumberOutOfRange(msg, field string, number *syntax.IntLit) *Error {
	return newError(3005, number, msg, field, fmt.Sprintf(
		"Number %s of field '%s' in message '%s' is out of range [1, %d]",
		number.Raw(), field, msg, maxFieldNumber,
	))
}

func errUnresolvedType(scope, entity string, typeRef *syntax.TypeRef) *Error {
	name := typeRef.Name().String()
	return newError(3006, typeRef, scope, entity, fmt.Sprintf(
		"Type '%s' (used by '%s' in '%s') is not a builtin type or a message in this file",
		name, entity, scope,
	))
}

func errDuplicateMethod(svc string, name *syntax.Ident) *Error {
	return newError(3007, name, svc, name.Get(), fmt.Sprintf(
		"Duplicate method '%s' in service '%s'",
		name.Get(), svc,
	))
}

func errInvalidAnnotationTarget(ann *syntax.Annotation, target, scope, entity string) *Error {
	name := ann.Name().String()
	return newError(3008, ann, scope, entity, fmt.Sprintf(
		"Annotation '@%s' is not allowed on %s '%s'",
		name, target, entity,
	))
}

func errMalformedAnnotation(ann *syntax.Annotation, scope, entity, reason string) *Error {
	name := ann.Name().String()
	return newError(3009, ann, scope, entity, fmt.Sprintf(
		"Malformed annotation '@%s' on '%s': %s",
		name, entity, reason,
	))
}

func errMalformedOption(opt *syntax.Option, pkg, reason string) *Error {
	name := opt.Name().String()
	return newError(3009, opt, pkg, name, fmt.Sprintf(
		"Malformed option '%s': %s",
		name, reason,
	))
}

func errInvalidPackage(pkg *syntax.Package) *Error {
	name := pkg.Name().String()
	return newError(3010, pkg.Name(), "", name, fmt.Sprintf(
		"Invalid package name %q: components must start with a letter",
		name,
	))
}
