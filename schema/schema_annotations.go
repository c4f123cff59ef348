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
	"math"
	"strconv"
	"strings"
)

// Annotation names with defined meaning. All others are preserved without
// interpretation.
const (
	AnnotationDoc     = "doc"
	AnnotationOption  = "option"
	AnnotationDefault = "default"
	AnnotationCodegen = "codegen"
	AnnotationSource  = "_source"
)

// Annotation is a name plus either nothing, a single value, or a mapping of
// keys to values. At most one of Value and Pairs is set.
type Annotation struct {
	Name  string
	Value *Value
	Pairs []*Pair
}

type Pair struct {
	Key   string
	Value *Value
}

// Get returns the value for key, or nil.
func (a *Annotation) Get(key string) *Value {
	for _, pair := range a.Pairs {
		if pair.Key == key {
			return pair.Value
		}
	}
	return nil
}

func (a *Annotation) String() string {
	var buf strings.Builder
	buf.WriteString("@")
	buf.WriteString(a.Name)
	switch {
	case a.Value != nil:
		buf.WriteString("(")
		buf.WriteString(a.Value.String())
		buf.WriteString(")")
	case len(a.Pairs) > 0:
		buf.WriteString("(")
		for ii, pair := range a.Pairs {
			if ii > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(pair.Key)
			buf.WriteString(" = ")
			buf.WriteString(pair.Value.String())
		}
		buf.WriteString(")")
	}
	return buf.String()
}

// FindAnnotations returns every annotation with the given name, in
// declaration order.
func FindAnnotations(annotations []*Annotation, name string) []*Annotation {
	var out []*Annotation
	for _, ann := range annotations {
		if ann.Name == name {
			out = append(out, ann)
		}
	}
	return out
}

type ValueKind uint8

const (
	ValueInt ValueKind = iota + 1
	ValueUint
	ValueFloat
	ValueBool
	ValueString
	ValueIdent
)

func (k ValueKind) String() string {
	switch k {
	case ValueInt:
		return "int"
	case ValueUint:
		return "uint"
	case ValueFloat:
		return "float"
	case ValueBool:
		return "bool"
	case ValueString:
		return "string"
	case ValueIdent:
		return "ident"
	}
	return fmt.Sprintf("ValueKind(%d)", uint8(k))
}

// Value is a tagged scalar. ValueUint is used only for integers that don't
// fit in an int64. Identifiers refer to named constants and are kept
// unresolved.
type Value struct {
	Kind  ValueKind
	Int   int64
	Uint  uint64
	Float float64
	Bool  bool
	Text  string
	Ident string
}

func IntValue(v int64) *Value {
	return &Value{Kind: ValueInt, Int: v}
}

func UintValue(v uint64) *Value {
	if v <= math.MaxInt64 {
		return IntValue(int64(v))
	}
	return &Value{Kind: ValueUint, Uint: v}
}

func FloatValue(v float64) *Value {
	return &Value{Kind: ValueFloat, Float: v}
}

func BoolValue(v bool) *Value {
	return &Value{Kind: ValueBool, Bool: v}
}

func TextValue(v string) *Value {
	return &Value{Kind: ValueString, Text: v}
}

func IdentValue(v string) *Value {
	return &Value{Kind: ValueIdent, Ident: v}
}

// String renders the value in MIDL source syntax.
func (v *Value) String() string {
	switch v.Kind {
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueUint:
		return strconv.FormatUint(v.Uint, 10)
	case ValueFloat:
		return FormatFloat(v.Float)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueString:
		return strconv.Quote(v.Text)
	case ValueIdent:
		return v.Ident
	}
	return "<invalid>"
}

// FormatFloat renders a float in its shortest round-tripping form, with
// `inf`, `-inf` and `nan` for the non-finite values.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// AsUint returns the value as an unsigned integer, if it is one.
func (v *Value) AsUint() (uint64, bool) {
	switch v.Kind {
	case ValueInt:
		if v.Int < 0 {
			return 0, false
		}
		return uint64(v.Int), true
	case ValueUint:
		return v.Uint, true
	}
	return 0, false
}

func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.Kind == ValueFloat && other.Kind == ValueFloat {
		return v.Float == other.Float || (math.IsNaN(v.Float) && math.IsNaN(other.Float))
	}
	return *v == *other
}
