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

package syntax

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

type Span struct {
	start, len uint32
}

func NewSpan(start, len uint32) Span {
	return Span{start, len}
}

func (s Span) Start() uint32 {
	return s.start
}

func (s Span) End() uint32 {
	return s.start + s.len
}

func (s Span) Len() uint32 {
	return s.len
}

// Pos is a 1-based line and column. Columns count runes, not bytes.
type Pos struct {
	Line uint32
	Col  uint32
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

func PosOf(src []byte, offset uint32) Pos {
	if int(offset) > len(src) {
		offset = uint32(len(src))
	}
	pos := Pos{Line: 1, Col: 1}
	lineStart := 0
	for ii := 0; ii < int(offset); ii++ {
		if src[ii] == '\n' {
			pos.Line += 1
			lineStart = ii + 1
		}
	}
	pos.Col += uint32(utf8.RuneCount(src[lineStart:offset]))
	return pos
}

type Node interface {
	Span() Span
	Pos() Pos
}

type nodeBase struct {
	span Span
	pos  Pos
}

func (n *nodeBase) Span() Span {
	return n.span
}

func (n *nodeBase) Pos() Pos {
	return n.pos
}

// File is a parsed MIDL source file.
type File struct {
	nodeBase
	syntax   *TextLit
	pkg      *Package
	options  []*Option
	messages []*Message
	services []*Service
	decls    []Node
}

// Syntax returns the value of the `syntax = "...";` statement, or nil.
func (n *File) Syntax() *TextLit {
	return n.syntax
}

func (n *File) Package() *Package {
	return n.pkg
}

func (n *File) Options() []*Option {
	return n.options
}

func (n *File) Messages() []*Message {
	return n.messages
}

func (n *File) Services() []*Service {
	return n.services
}

// Decls returns messages and services in source order.
func (n *File) Decls() []Node {
	return n.decls
}

type Package struct {
	nodeBase
	name *Path
}

func (n *Package) Name() *Path {
	return n.name
}

// Path is a dotted name. Components separated by `::` are normalized to `.`.
type Path struct {
	nodeBase
	parts []*Ident
}

func (n *Path) Parts() []*Ident {
	return n.parts
}

func (n *Path) String() string {
	var buf strings.Builder
	for ii, part := range n.parts {
		if ii > 0 {
			buf.WriteByte('.')
		}
		buf.WriteString(part.Get())
	}
	return buf.String()
}

type Ident struct {
	nodeBase
	raw string
}

func (n *Ident) Get() string {
	return n.raw
}

type Keyword struct {
	nodeBase
	raw string
}

func (n *Keyword) Get() string {
	return n.raw
}

type Option struct {
	nodeBase
	name  *Path
	value *Value
}

func (n *Option) Name() *Path {
	return n.name
}

func (n *Option) Value() *Value {
	return n.value
}

type Annotation struct {
	nodeBase
	name    *Path
	hasArgs bool
	args    []*AnnotationArg
}

func (n *Annotation) Name() *Path {
	return n.name
}

// HasArgs reports whether the annotation was written with parentheses.
func (n *Annotation) HasArgs() bool {
	return n.hasArgs
}

func (n *Annotation) Args() []*AnnotationArg {
	return n.args
}

// AnnotationArg is one item between the parentheses of an annotation: a
// positional value, a bare key, or a key = value pair.
type AnnotationArg struct {
	nodeBase
	key   *Ident
	value *Value
}

// Key is nil for positional values.
func (n *AnnotationArg) Key() *Ident {
	return n.key
}

// Value is nil for a bare key.
func (n *AnnotationArg) Value() *Value {
	return n.value
}

type annotated struct {
	annotations []*Annotation
}

func (n *annotated) Annotations() []*Annotation {
	return n.annotations
}

type Message struct {
	nodeBase
	annotated
	name   *Ident
	fields []*Field
}

func (n *Message) Name() *Ident {
	return n.name
}

func (n *Message) Fields() []*Field {
	return n.fields
}

type Field struct {
	nodeBase
	annotated
	label     *Keyword
	fieldType *TypeRef
	name      *Ident
	question  bool
	number    *IntLit
}

// Label is the `optional` or `required` keyword, or nil.
func (n *Field) Label() *Keyword {
	return n.label
}

func (n *Field) FieldType() *TypeRef {
	return n.fieldType
}

func (n *Field) Name() *Ident {
	return n.name
}

// Optional reports whether the field was written with `optional` or a
// trailing `?`.
func (n *Field) Optional() bool {
	return n.question || (n.label != nil && n.label.Get() == "optional")
}

// Number is the explicit field number, or nil if it was omitted.
func (n *Field) Number() *IntLit {
	return n.number
}

type TypeRef struct {
	nodeBase
	name *Path
}

func (n *TypeRef) Name() *Path {
	return n.name
}

type Service struct {
	nodeBase
	annotated
	name    *Ident
	methods []*Method
}

func (n *Service) Name() *Ident {
	return n.name
}

func (n *Service) Methods() []*Method {
	return n.methods
}

type Method struct {
	nodeBase
	annotated
	name   *Ident
	input  *TypeRef
	output *TypeRef
}

func (n *Method) Name() *Ident {
	return n.name
}

// Input is nil when the method takes no parameters.
func (n *Method) Input() *TypeRef {
	return n.input
}

// Output is nil when the method returns nothing.
func (n *Method) Output() *TypeRef {
	return n.output
}

type ValueKind uint8

const (
	ValueInt ValueKind = iota + 1
	ValueFloat
	ValueBool
	ValueText
	ValueIdent
)

// Value is a constant: a numeric, boolean, or text literal, or a (possibly
// dotted) identifier referring to a named constant.
type Value struct {
	nodeBase
	kind  ValueKind
	intV  *IntLit
	float float64
	b     bool
	text  *TextLit
	ident *Path
}

func (n *Value) Kind() ValueKind {
	return n.kind
}

func (n *Value) Int() *IntLit {
	return n.intV
}

func (n *Value) Float() float64 {
	return n.float
}

func (n *Value) Bool() bool {
	return n.b
}

func (n *Value) Text() *TextLit {
	return n.text
}

func (n *Value) Ident() *Path {
	return n.ident
}

type IntLit struct {
	nodeBase
	raw      string
	negative bool
	u64      uint64
}

func newIntLit(token string, kind TokenKind) (*IntLit, bool) {
	digits := token
	neg := false
	if strings.HasPrefix(digits, "-") {
		neg = true
		digits = digits[1:]
	}
	base := 10
	switch kind {
	case T_HEX_INT_LIT:
		base = 16
		digits = digits[2:]
	case T_OCT_INT_LIT:
		base = 8
		digits = digits[1:]
	}
	value, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return nil, false
	}
	if neg && value > uint64(math.MaxInt64)+1 {
		return nil, false
	}
	return &IntLit{
		raw:      token,
		negative: neg && value != 0,
		u64:      value,
	}, true
}

func (n *IntLit) Raw() string {
	return n.raw
}

func (n *IntLit) IsNegative() bool {
	return n.negative
}

func (n *IntLit) GetUint64() (uint64, bool) {
	if n.negative {
		return 0, false
	}
	return n.u64, true
}

func (n *IntLit) GetUint32() (uint32, bool) {
	if n.negative || n.u64 > math.MaxUint32 {
		return 0, false
	}
	return uint32(n.u64), true
}

func (n *IntLit) GetInt64() (int64, bool) {
	if n.negative {
		return -int64(n.u64-1) - 1, true
	}
	if n.u64 > math.MaxInt64 {
		return 0, false
	}
	return int64(n.u64), true
}

type TextLit struct {
	nodeBase
	raw   string
	value string
}

func (n *TextLit) Get() string {
	return n.value
}

func (n *TextLit) Raw() string {
	return n.raw
}

// newTextLit decodes a quoted literal. The returned error offset is relative
// to the start of the token.
func newTextLit(token string, flags uint8) (*TextLit, int, string) {
	inner := token[1 : len(token)-1]
	if flags&tokenFlagTextHasEscapes == 0 {
		return &TextLit{raw: token, value: inner}, 0, ""
	}

	var buf strings.Builder
	for ii := 0; ii < len(inner); {
		c := inner[ii]
		if c != '\\' {
			buf.WriteByte(c)
			ii += 1
			continue
		}
		if ii+1 >= len(inner) {
			return nil, ii + 1, inner[ii:]
		}
		esc := inner[ii+1]
		switch esc {
		case 'a':
			buf.WriteByte('\a')
		case 'b':
			buf.WriteByte('\b')
		case 'f':
			buf.WriteByte('\f')
		case 'n':
			buf.WriteByte('\n')
		case 'r':
			buf.WriteByte('\r')
		case 't':
			buf.WriteByte('\t')
		case 'v':
			buf.WriteByte('\v')
		case '\\', '\'', '"', '?':
			buf.WriteByte(esc)
		case 'x', 'X':
			n := scanWhile([]byte(inner[ii+2:min(ii+4, len(inner))]), isHexDigit)
			if n == 0 {
				return nil, ii + 1, inner[ii:min(ii+2, len(inner))]
			}
			v, _ := strconv.ParseUint(inner[ii+2:ii+2+n], 16, 8)
			buf.WriteByte(byte(v))
			ii += 2 + n
			continue
		case '0', '1', '2', '3', '4', '5', '6', '7':
			n := scanWhile([]byte(inner[ii+1:min(ii+4, len(inner))]), isOctDigit)
			v, _ := strconv.ParseUint(inner[ii+1:ii+1+n], 8, 16)
			if v > math.MaxUint8 {
				return nil, ii + 1, inner[ii : ii+1+n]
			}
			buf.WriteByte(byte(v))
			ii += 1 + n
			continue
		default:
			return nil, ii + 1, inner[ii : ii+2]
		}
		ii += 2
	}
	return &TextLit{raw: token, value: buf.String()}, 0, ""
}
