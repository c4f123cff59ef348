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
	"unicode/utf8"
)

type ErrorKind uint8

const (
	LexError ErrorKind = iota + 1
	ParseError
)

func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "LexError"
	case ParseError:
		return "ParseError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// Error is a lexer or parser failure. Codes 1000-1999 are lexical, codes
// 2000 and above are grammatical.
type Error struct {
	code     uint32
	message  string
	span     Span
	pos      Pos
	expected string
	found    string
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Kind() ErrorKind {
	if err.code < 2000 {
		return LexError
	}
	return ParseError
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Span() Span {
	return err.span
}

// Pos is the line and column of the first byte of Span().
func (err *Error) Pos() Pos {
	return err.pos
}

// Expected describes what the parser was looking for, if known.
func (err *Error) Expected() string {
	return err.expected
}

// Found is the offending token text or the name of a rejected construct.
func (err *Error) Found() string {
	return err.found
}

func (err *Error) locate(src []byte) *Error {
	err.pos = PosOf(src, err.span.start)
	return err
}

func clampLen(n int) uint32 {
	if uint64(n) < math.MaxUint32 {
		return uint32(n)
	}
	return math.MaxUint32
}

func errSourceTooLong(srcLen int) *Error {
	return &Error{
		code: 1000,
		message: fmt.Sprintf(
			"Source file size (%d bytes) exceeds maximum (%d bytes)",
			srcLen, maxSrcLen,
		),
		span: Span{0, clampLen(srcLen)},
		pos:  Pos{1, 1},
	}
}

func errInvalidUtf8(src []byte) *Error {
	var off uint32
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		if r == utf8.RuneError {
			break
		}
		off += uint32(size)
		src = src[size:]
	}
	return &Error{
		code:    1001,
		message: "Source file contains invalid UTF-8",
		span:    Span{off, 1},
	}
}

func errUnexpectedCharacter(start uint32, r rune) *Error {
	return &Error{
		code:    1002,
		message: fmt.Sprintf("Unexpected character '%s' (U+%04X)", string(r), r),
		span:    Span{start, uint32(utf8.RuneLen(r))},
		found:   string(r),
	}
}

func errForbiddenControlCharacter(start uint32, c byte) *Error {
	return &Error{
		code:    1003,
		message: fmt.Sprintf("Forbidden control character U+%04X", c),
		span:    Span{start, 1},
	}
}

func errTokenTooLong(start uint32, tokenLen int) *Error {
	return &Error{
		code: 1004,
		message: fmt.Sprintf(
			"Token size (%d bytes) exceeds maximum (%d bytes)",
			tokenLen, maxTokenLen,
		),
		span: Span{start, clampLen(tokenLen)},
	}
}

func errNumLitInvalid(start uint32, token []byte) *Error {
	return &Error{
		code:    1005,
		message: fmt.Sprintf("Invalid numeric literal %q", token),
		span:    Span{start, clampLen(len(token))},
		found:   string(token),
	}
}

func errTextLitUnterminated(start, tokenLen uint32) *Error {
	return &Error{
		code:    1006,
		message: "Unterminated text literal",
		span:    Span{start, tokenLen},
	}
}

func errTextLitContainsNewline(start, newlineLen uint32) *Error {
	return &Error{
		code:    1007,
		message: "Text literal contains unescaped newline",
		span:    Span{start, newlineLen},
	}
}

func errTextLitInvalidEscape(start uint32, escape string) *Error {
	return &Error{
		code:    1008,
		message: fmt.Sprintf("Invalid escape sequence %q in text literal", escape),
		span:    Span{start, clampLen(len(escape))},
		found:   escape,
	}
}

func errBlockCommentUnterminated(start, tokenLen uint32) *Error {
	return &Error{
		code:    1009,
		message: "Unterminated block comment",
		span:    Span{start, tokenLen},
	}
}

func errAnnotationSpansLines(start, tokenLen uint32) *Error {
	return &Error{
		code:    1010,
		message: "Annotation must end on the line where it starts",
		span:    Span{start, tokenLen},
		found:   "multi-line annotation",
	}
}

var expectedSigils = map[TokenKind]struct {
	code uint32
	text string
}{
	T_AT:          {2000, "@"},
	T_DOT:         {2001, "."},
	T_EQ:          {2002, "="},
	T_COMMA:       {2003, ","},
	T_SEMICOLON:   {2004, ";"},
	T_OPEN_CURL:   {2005, "{"},
	T_CLOSE_CURL:  {2006, "}"},
	T_OPEN_PAREN:  {2007, "("},
	T_CLOSE_PAREN: {2008, ")"},
	T_GT:          {2009, ">"},
}

func errExpectedSigil(
	wantKind TokenKind,
	gotKind TokenKind,
	gotToken string,
	span Span,
) *Error {
	want, ok := expectedSigils[wantKind]
	if !ok {
		panic("unreachable")
	}
	return &Error{
		code:     want.code,
		message:  fmt.Sprintf("Expected sigil '%s', got (%s %q)", want.text, gotKind, gotToken),
		span:     span,
		expected: want.text,
		found:    gotToken,
	}
}

func errExpectedIdent(gotKind TokenKind, gotToken string, span Span) *Error {
	return &Error{
		code:     2020,
		message:  fmt.Sprintf("Expected identifier, got (%s %q)", gotKind, gotToken),
		span:     span,
		expected: "identifier",
		found:    gotToken,
	}
}

func errExpectedTextLit(gotKind TokenKind, gotToken string, span Span) *Error {
	return &Error{
		code:     2021,
		message:  fmt.Sprintf("Expected text literal, got (%s %q)", gotKind, gotToken),
		span:     span,
		expected: "text literal",
		found:    gotToken,
	}
}

func errExpectedIntLit(gotKind TokenKind, gotToken string, span Span) *Error {
	return &Error{
		code:     2022,
		message:  fmt.Sprintf("Expected integer literal, got (%s %q)", gotKind, gotToken),
		span:     span,
		expected: "integer literal",
		found:    gotToken,
	}
}

func errExpectedValue(gotKind TokenKind, gotToken string, span Span) *Error {
	return &Error{
		code:     2023,
		message:  fmt.Sprintf("Expected constant value, got (%s %q)", gotKind, gotToken),
		span:     span,
		expected: "constant",
		found:    gotToken,
	}
}

func errExpectedDeclaration(gotKind TokenKind, gotToken string, span Span) *Error {
	return &Error{
		code: 2024,
		message: fmt.Sprintf(
			"Expected 'package', 'message', or 'service', got (%s %q)",
			gotKind, gotToken,
		),
		span:     span,
		expected: "declaration",
		found:    gotToken,
	}
}

func errExpectedType(gotKind TokenKind, gotToken string, span Span) *Error {
	return &Error{
		code:     2025,
		message:  fmt.Sprintf("Expected type name, got (%s %q)", gotKind, gotToken),
		span:     span,
		expected: "type",
		found:    gotToken,
	}
}

func errMissingPackage(span Span) *Error {
	return &Error{
		code:     2026,
		message:  "Missing required 'package' statement",
		span:     span,
		expected: "package",
		found:    "EOF",
	}
}

func errDuplicatePackage(span Span) *Error {
	return &Error{
		code:     2027,
		message:  "Only one 'package' statement is allowed per file",
		span:     span,
		expected: "declaration",
		found:    "package",
	}
}

func errDanglingAnnotations(span Span) *Error {
	return &Error{
		code:     2028,
		message:  "Annotations must be followed by a message, field, service, or rpc",
		span:     span,
		expected: "declaration",
		found:    "annotation",
	}
}

func errExpectedMember(container string, gotKind TokenKind, gotToken string, span Span) *Error {
	return &Error{
		code: 2029,
		message: fmt.Sprintf(
			"Expected %s member or '}', got (%s %q)",
			container, gotKind, gotToken,
		),
		span:     span,
		expected: container + " member",
		found:    gotToken,
	}
}

func errIntLitOutOfRange(token string, span Span) *Error {
	return &Error{
		code:     2030,
		message:  fmt.Sprintf("Integer literal %s is out of range", token),
		span:     span,
		expected: "integer literal",
		found:    token,
	}
}

func errUnsupportedSyntax(version string, span Span) *Error {
	return &Error{
		code:     2031,
		message:  fmt.Sprintf("Unsupported syntax %q (only \"proto3\" is accepted)", version),
		span:     span,
		expected: "proto3",
		found:    version,
	}
}

// Constructs that are valid protobuf but deliberately rejected.
type unsupported struct {
	code    uint32
	feature string
}

var (
	unsupportedImport       = unsupported{2100, "import"}
	unsupportedOneof        = unsupported{2101, "oneof"}
	unsupportedFixed        = unsupported{2102, "fixed-width types"}
	unsupportedSint         = unsupported{2103, "zigzag (sint) types"}
	unsupportedFieldOptions = unsupported{2104, "field options"}
	unsupportedReserved     = unsupported{2105, "reserved"}
	unsupportedExtend       = unsupported{2106, "extend"}
	unsupportedNestedOption = unsupported{2107, "nested option"}
	unsupportedEnum         = unsupported{2108, "enum"}
	unsupportedRepeated     = unsupported{2109, "repeated"}
	unsupportedMap          = unsupported{2110, "map"}
	unsupportedNestedMsg    = unsupported{2111, "nested message"}
	unsupportedStream       = unsupported{2112, "stream"}
	unsupportedArray        = unsupported{2113, "array type"}
	unsupportedExtensions   = unsupported{2114, "extensions"}
)

func errUnsupported(u unsupported, token string, span Span) *Error {
	return &Error{
		code:    u.code,
		message: fmt.Sprintf("Unsupported feature: %s (%q is not allowed in MIDL)", u.feature, token),
		span:    span,
		found:   u.feature,
	}
}
