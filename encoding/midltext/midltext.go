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

// Package midltext renders a Schema as indented, human-readable text.
package midltext

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/frodobuf/frodobuf/schema"
)

type EncodeOption interface {
	apply(*encoder)
}

type encodeOption func(*encoder)

func (f encodeOption) apply(e *encoder) { f(e) }

// WithoutIdentity omits schema and service identifiers.
func WithoutIdentity() EncodeOption {
	return encodeOption(func(e *encoder) {
		e.noIdentity = true
	})
}

// WithoutProvenance omits the parser version, source path, and source
// positions.
func WithoutProvenance() EncodeOption {
	return encodeOption(func(e *encoder) {
		e.noProvenance = true
	})
}

func Encode(s *schema.Schema, opts ...EncodeOption) string {
	var buf strings.Builder
	_ = EncodeTo(s, &buf, opts...)
	return buf.String()
}

// EncodeTo writes the text form of s to w. Write errors are reported once,
// after the whole schema has been visited.
func EncodeTo(s *schema.Schema, w io.Writer, opts ...EncodeOption) error {
	e := encoder{out: bufio.NewWriter(w)}
	for _, opt := range opts {
		opt.apply(&e)
	}
	e.visitSchema(s)
	return e.out.Flush()
}

type encoder struct {
	out   *bufio.Writer
	depth int

	noIdentity   bool
	noProvenance bool
}

// bufio.Writer keeps the first write error and drops everything after it.
func (e *encoder) line(text string) {
	for range e.depth {
		e.out.WriteByte('\t')
	}
	e.out.WriteString(text)
	e.out.WriteByte('\n')
}

func (e *encoder) linef(format string, a ...any) {
	e.line(fmt.Sprintf(format, a...))
}

func (e *encoder) block(header string, body func()) {
	e.line(header + " {")
	e.depth += 1
	body()
	e.depth -= 1
	e.line("}")
}

func (e *encoder) visitSchema(s *schema.Schema) {
	e.linef("package = %s", quote(s.Package))
	if !e.noProvenance {
		e.linef("parser_version = %s", quote(s.ParserVersion))
		if s.SourcePath != "" {
			e.linef("source_path = %s", quote(s.SourcePath))
		}
	}
	if !e.noIdentity {
		e.linef("id = %s", quote(s.ID.String()))
	}
	e.visitAnnotations(s.Annotations)
	for _, msg := range s.Messages {
		e.block("message "+msg.Name, func() {
			e.visitCommon(msg.Docs, msg.Annotations, msg.Source)
			for _, field := range msg.Fields {
				e.visitField(field)
			}
		})
	}
	for _, svc := range s.Services {
		e.block("service "+svc.Name, func() {
			if !e.noIdentity {
				e.linef("id = %s", quote(svc.ID.String()))
			}
			e.visitCommon(svc.Docs, svc.Annotations, svc.Source)
			e.linef("client = %s", fmtBool(svc.GenerateClient))
			e.linef("server = %s", fmtBool(svc.GenerateServer))
			for _, method := range svc.Methods {
				e.block("method "+method.Name, func() {
					e.visitCommon(method.Docs, method.Annotations, method.Source)
					e.line("input = " + method.Input.String())
					e.line("output = " + method.Output.String())
				})
			}
		})
	}
}

func (e *encoder) visitField(field *schema.Field) {
	e.block("field "+field.Name, func() {
		e.visitCommon(field.Docs, field.Annotations, field.Source)
		e.line("type = " + field.Type.String())
		e.linef("number = %d", field.Number)
		e.linef("optional = %s", fmtBool(field.Optional))
	})
}

func (e *encoder) visitCommon(docs []string, annotations []*schema.Annotation, source schema.Pos) {
	if !e.noProvenance && !source.IsZero() {
		e.linef("source = %s", source)
	}
	for _, doc := range docs {
		e.linef("doc = %s", quote(doc))
	}
	e.visitAnnotations(annotations)
}

func (e *encoder) visitAnnotations(annotations []*schema.Annotation) {
	for _, ann := range annotations {
		e.linef("annotation = %s", ann)
	}
}

func fmtBool(b bool) string {
	if b {
		return ".true"
	}
	return ".false"
}

func quote(text string) string {
	var buf strings.Builder
	buf.Grow(len(text) + 2)
	buf.WriteByte('"')
	for _, c := range text {
		switch {
		case c == '\\' || c == '"':
			buf.WriteByte('\\')
			buf.WriteRune(c)
		case c == '\t':
			buf.WriteString(`\t`)
		case c == '\n':
			buf.WriteString(`\n`)
		case c < 0x20 || c == 0x7F:
			fmt.Fprintf(&buf, `\x%02X`, c)
		default:
			buf.WriteRune(c)
		}
	}
	buf.WriteByte('"')
	return buf.String()
}
