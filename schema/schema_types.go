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

package schema

import (
	"fmt"
)

type Kind uint8

const (
	KindBool Kind = iota + 1
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindMessage
)

var kindNames = map[Kind]string{
	KindBool:    "bool",
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindUint8:   "uint8",
	KindUint16:  "uint16",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindString:  "string",
	KindBytes:   "bytes",
	KindMessage: "message",
}

var builtinKinds = map[string]Kind{
	"bool":    KindBool,
	"int8":    KindInt8,
	"int16":   KindInt16,
	"int32":   KindInt32,
	"int64":   KindInt64,
	"uint8":   KindUint8,
	"uint16":  KindUint16,
	"uint32":  KindUint32,
	"uint64":  KindUint64,
	"float32": KindFloat32,
	"float64": KindFloat64,
	"string":  KindString,
	"bytes":   KindBytes,

	// protobuf spellings
	"float":  KindFloat32,
	"double": KindFloat64,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsScalar reports whether values of this kind are fixed-size and cheap to
// copy.
func (k Kind) IsScalar() bool {
	return k >= KindBool && k <= KindFloat64
}

func (k Kind) IsInteger() bool {
	return k >= KindInt8 && k <= KindUint64
}

// BuiltinKind resolves a builtin type name. `float` and `double` are accepted
// as aliases for `float32` and `float64`.
func BuiltinKind(name string) (Kind, bool) {
	kind, ok := builtinKinds[name]
	return kind, ok
}

// Type is either a builtin scalar or a reference to a message declared in the
// same schema.
type Type struct {
	Kind Kind

	// Message is set only for KindMessage.
	Message string
}

func Builtin(kind Kind) *Type {
	return &Type{Kind: kind}
}

func MessageRef(name string) *Type {
	return &Type{Kind: KindMessage, Message: name}
}

func (t *Type) String() string {
	if t == nil {
		return "void"
	}
	if t.Kind == KindMessage {
		return t.Message
	}
	return t.Kind.String()
}

func (t *Type) IsMessage() bool {
	return t != nil && t.Kind == KindMessage
}

func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	return *t == *other
}
