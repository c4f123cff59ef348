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
	"bytes"
	"fmt"
	"math"
	"unicode/utf8"
)

const (
	maxSrcLen   = 0x7FFFFFFF // (2**31)-1
	maxTokenLen = int(math.MaxUint16)

	tokenFlagTextHasEscapes   uint8 = 0x01
	tokenFlagTextSingleQuoted uint8 = 0x02
	tokenFlagCommentMultiline uint8 = 0x04
)

type Token struct {
	Len   uint16
	Kind  TokenKind
	flags uint8
}

type TokenKind uint8

const (
	T_EOF TokenKind = iota

	T_SPACE
	T_NEWLINE
	T_COMMENT
	T_BLOCK_COMMENT

	T_AT
	T_DOT
	T_DOUBLE_COLON
	T_EQ
	T_COMMA
	T_SEMICOLON
	T_QUESTION
	T_ARROW
	T_LT
	T_GT

	T_OPEN_CURL
	T_CLOSE_CURL
	T_OPEN_PAREN
	T_CLOSE_PAREN
	T_OPEN_SQUARE
	T_CLOSE_SQUARE

	T_INT_LIT
	T_OCT_INT_LIT
	T_HEX_INT_LIT
	T_FLOAT_LIT

	T_TEXT_LIT

	T_IDENT
)

var tokenKindNames = [...]string{
	T_EOF:           "EOF",
	T_SPACE:         "SPACE",
	T_NEWLINE:       "NEWLINE",
	T_COMMENT:       "COMMENT",
	T_BLOCK_COMMENT: "BLOCK_COMMENT",
	T_AT:            "AT",
	T_DOT:           "DOT",
	T_DOUBLE_COLON:  "DOUBLE_COLON",
	T_EQ:            "EQ",
	T_COMMA:         "COMMA",
	T_SEMICOLON:     "SEMICOLON",
	T_QUESTION:      "QUESTION",
	T_ARROW:         "ARROW",
	T_LT:            "LT",
	T_GT:            "GT",
	T_OPEN_CURL:     "OPEN_CURL",
	T_CLOSE_CURL:    "CLOSE_CURL",
	T_OPEN_PAREN:    "OPEN_PAREN",
	T_CLOSE_PAREN:   "CLOSE_PAREN",
	T_OPEN_SQUARE:   "OPEN_SQUARE",
	T_CLOSE_SQUARE:  "CLOSE_SQUARE",
	T_INT_LIT:       "INT_LIT",
	T_OCT_INT_LIT:   "OCT_INT_LIT",
	T_HEX_INT_LIT:   "HEX_INT_LIT",
	T_FLOAT_LIT:     "FLOAT_LIT",
	T_TEXT_LIT:      "TEXT_LIT",
	T_IDENT:         "IDENT",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", uint8(k))
}

// Single-byte tokens. T_EOF marks bytes that start something longer.
var sigils = [256]TokenKind{
	'\n': T_NEWLINE,
	'@':  T_AT,
	'.':  T_DOT,
	'=':  T_EQ,
	',':  T_COMMA,
	';':  T_SEMICOLON,
	'?':  T_QUESTION,
	'<':  T_LT,
	'>':  T_GT,
	'{':  T_OPEN_CURL,
	'}':  T_CLOSE_CURL,
	'(':  T_OPEN_PAREN,
	')':  T_CLOSE_PAREN,
	'[':  T_OPEN_SQUARE,
	']':  T_CLOSE_SQUARE,
}

func (k TokenKind) isTrivia() bool {
	switch k {
	case T_SPACE, T_NEWLINE, T_COMMENT, T_BLOCK_COMMENT:
		return true
	}
	return false
}

// Annotations are lexed with a small state machine so that an annotation
// whose argument list crosses a line boundary is rejected here rather than
// silently accepted by the parser.
type annotationState uint8

const (
	annNone annotationState = iota
	annName
	annArgs
	annEnded
)

type Tokens struct {
	full   []byte
	src    []byte
	offset uint32

	ann      annotationState
	annDepth int
}

func NewTokens(src []byte) (*Tokens, error) {
	if len(src) > maxSrcLen {
		return nil, errSourceTooLong(len(src))
	}
	if !utf8.Valid(src) {
		return nil, errInvalidUtf8(src).locate(src)
	}
	return &Tokens{
		full: src,
		src:  src,
	}, nil
}

func (t *Tokens) Next(token *Token) error {
	start := t.offset
	if err := t.next(token); err != nil {
		return err.(*Error).locate(t.full)
	}
	if err := t.trackAnnotation(token, start); err != nil {
		return err.(*Error).locate(t.full)
	}
	return nil
}

func (t *Tokens) trackAnnotation(token *Token, start uint32) error {
	switch t.ann {
	case annNone:
		if token.Kind == T_AT {
			t.ann = annName
		}
	case annName:
		switch token.Kind {
		case T_IDENT, T_DOT, T_DOUBLE_COLON, T_SPACE:
		case T_OPEN_PAREN:
			t.ann = annArgs
			t.annDepth = 1
		case T_NEWLINE, T_COMMENT:
			t.ann = annEnded
		case T_BLOCK_COMMENT:
			if token.flags&tokenFlagCommentMultiline != 0 {
				t.ann = annEnded
			}
		case T_AT:
		default:
			t.ann = annNone
		}
	case annArgs:
		switch token.Kind {
		case T_OPEN_PAREN:
			t.annDepth += 1
		case T_CLOSE_PAREN:
			t.annDepth -= 1
			if t.annDepth == 0 {
				t.ann = annNone
			}
		case T_NEWLINE:
			return errAnnotationSpansLines(start, uint32(token.Len))
		case T_BLOCK_COMMENT:
			if token.flags&tokenFlagCommentMultiline != 0 {
				return errAnnotationSpansLines(start, uint32(token.Len))
			}
		}
	case annEnded:
		switch token.Kind {
		case T_SPACE, T_NEWLINE, T_COMMENT, T_BLOCK_COMMENT:
		case T_OPEN_PAREN:
			return errAnnotationSpansLines(start, 1)
		case T_AT:
			t.ann = annName
		default:
			t.ann = annNone
		}
	}
	return nil
}

func (t *Tokens) next(token *Token) error {
	if len(t.src) == 0 {
		*token = Token{Kind: T_EOF}
		return nil
	}

	c := t.src[0]
	if kind := sigils[c]; kind != T_EOF {
		return t.emit(token, kind, 1, 0)
	}
	var peek byte
	if len(t.src) > 1 {
		peek = t.src[1]
	}
	switch {
	case c == ' ' || c == '\t':
		return t.nextSpace(token)
	case c == ':' && peek == ':':
		return t.emit(token, T_DOUBLE_COLON, 2, 0)
	case c == '-' && peek == '>':
		return t.emit(token, T_ARROW, 2, 0)
	case c == '\r' && peek == '\n':
		return t.emit(token, T_NEWLINE, 2, 0)
	case c == '/' && peek == '/':
		return t.nextComment(token)
	case c == '/' && peek == '*':
		return t.nextBlockComment(token)
	case c == '"' || c == '\'':
		return t.nextTextLit(token)
	case c == '-' || isDecDigit(c):
		return t.nextNumLit(token)
	case c == '_' || (c|0x20 >= 'a' && c|0x20 <= 'z'):
		return t.nextIdent(token)
	}

	r, _ := utf8.DecodeRune(t.src)
	switch {
	case r == '\u00A0' || r == '\uFEFF':
		return t.nextSpace(token)
	case r < 0x20 || r == 0x7F:
		return errForbiddenControlCharacter(t.offset, c)
	}
	return errUnexpectedCharacter(t.offset, r)
}

func (t *Tokens) nextSpace(token *Token) error {
	src := t.src
	for {
		if src[0] == ' ' || src[0] == '\t' {
			src = src[1:]
		} else if r, runeLen := utf8.DecodeRune(src); r == '\u00A0' || r == '\uFEFF' {
			src = src[runeLen:]
		} else {
			break
		}
		if len(src) == 0 {
			break
		}
	}
	return t.emit(token, T_SPACE, len(t.src)-len(src), 0)
}

func (t *Tokens) nextComment(token *Token) error {
	tokenLen := len(t.src)
	for ii, c := range t.src {
		if c == '\n' || c == '\r' {
			tokenLen = ii
			break
		}
	}
	return t.emit(token, T_COMMENT, tokenLen, 0)
}

func (t *Tokens) nextBlockComment(token *Token) error {
	end := bytes.Index(t.src[2:], []byte("*/"))
	if end < 0 {
		return errBlockCommentUnterminated(t.offset, uint32(len(t.src)))
	}
	tokenLen := end + 4
	var flags uint8
	if bytes.IndexByte(t.src[:tokenLen], '\n') >= 0 {
		flags |= tokenFlagCommentMultiline
	}
	return t.emit(token, T_BLOCK_COMMENT, tokenLen, flags)
}

func (t *Tokens) nextNumLit(token *Token) error {
	numSrc := t.src
	tokenLen := 0
	if numSrc[0] == '-' {
		if len(numSrc) == 1 || numSrc[1] < '0' || numSrc[1] > '9' {
			return errNumLitInvalid(t.offset, t.src[:1])
		}
		tokenLen += 1
		numSrc = numSrc[1:]
	}

	kind := T_INT_LIT
	digits := isDecDigit
	switch {
	case len(numSrc) > 1 && numSrc[0] == '0' && (numSrc[1] == 'x' || numSrc[1] == 'X'):
		kind = T_HEX_INT_LIT
		digits = isHexDigit
		tokenLen += 2
		numSrc = numSrc[2:]
	case len(numSrc) > 1 && numSrc[0] == '0' && isDecDigit(numSrc[1]):
		kind = T_OCT_INT_LIT
		digits = isOctDigit
		tokenLen += 1
		numSrc = numSrc[1:]
	}

	n := scanWhile(numSrc, digits)
	invalid := n == 0
	tokenLen += n
	numSrc = numSrc[n:]

	if kind == T_INT_LIT && len(numSrc) > 0 {
		if numSrc[0] == '.' && len(numSrc) > 1 && isDecDigit(numSrc[1]) {
			kind = T_FLOAT_LIT
			frac := 1 + scanWhile(numSrc[1:], isDecDigit)
			tokenLen += frac
			numSrc = numSrc[frac:]
		}
		if len(numSrc) > 0 && (numSrc[0] == 'e' || numSrc[0] == 'E') {
			kind = T_FLOAT_LIT
			exp := 1
			if len(numSrc) > 1 && (numSrc[1] == '+' || numSrc[1] == '-') {
				exp += 1
			}
			expDigits := scanWhile(numSrc[exp:], isDecDigit)
			if expDigits == 0 {
				invalid = true
			}
			exp += expDigits
			tokenLen += exp
			numSrc = numSrc[exp:]
		}
	}

	// Trailing identifier characters are part of the bad literal.
	if trailing := scanWhile(numSrc, isIdentChar); trailing > 0 {
		invalid = true
		tokenLen += trailing
	}
	if invalid {
		return errNumLitInvalid(t.offset, t.src[:tokenLen])
	}
	return t.emit(token, kind, tokenLen, 0)
}

func (t *Tokens) nextTextLit(token *Token) error {
	quote := t.src[0]
	var flags uint8
	if quote == '\'' {
		flags |= tokenFlagTextSingleQuoted
	}
	escaped := false
	for ii, c := range t.src {
		if ii == 0 {
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		if c == quote {
			return t.emit(token, T_TEXT_LIT, ii+1, flags)
		}
		if (c <= 0x1F || c == 0x7F) && c != 0x09 {
			off := t.offset + uint32(ii)
			if c == 0x0A {
				return errTextLitContainsNewline(off, 1)
			}
			if c == 0x0D && ii+1 < len(t.src) && t.src[ii+1] == 0x0A {
				return errTextLitContainsNewline(off, 2)
			}
			return errForbiddenControlCharacter(off, c)
		}
		if c == '\\' {
			escaped = true
			flags |= tokenFlagTextHasEscapes
		}
	}
	return errTextLitUnterminated(t.offset, uint32(len(t.src)))
}

func (t *Tokens) nextIdent(token *Token) error {
	return t.emit(token, T_IDENT, scanWhile(t.src, isIdentChar), 0)
}

func (t *Tokens) emit(token *Token, kind TokenKind, tokenLen int, flags uint8) error {
	if tokenLen > maxTokenLen {
		return errTokenTooLong(t.offset, tokenLen)
	}
	*token = Token{
		Kind:  kind,
		Len:   uint16(tokenLen),
		flags: flags,
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
	return nil
}

func scanWhile(src []byte, pred func(byte) bool) int {
	for ii, c := range src {
		if !pred(c) {
			return ii
		}
	}
	return len(src)
}

func isDecDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isOctDigit(c byte) bool {
	return c >= '0' && c <= '7'
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func isIdentChar(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_'
}
