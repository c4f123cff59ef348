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

// Package canonical produces the deterministic byte encoding of a schema that
// identifiers are computed from.
//
// The encoding is compact JSON with a fixed key order. Declaration order of
// messages, fields, services, and methods is preserved. Key/value pairs
// within one annotation are sorted by key. Source positions, the source path,
// the parser version, and previously computed identifiers are never encoded,
// so they cannot influence an identifier.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/frodobuf/frodobuf/schema"
)

// Schema encodes the whole schema.
func Schema(s *schema.Schema) []byte {
	var e encoder
	e.open('{')
	e.key("package")
	e.str(s.Package)
	e.annotations(s.Annotations)
	e.key("messages")
	e.messages(s.Messages)
	e.key("services")
	e.open('[')
	for ii, svc := range s.Services {
		e.item(ii)
		e.service(svc)
	}
	e.close(']')
	e.close('}')
	return e.buf.Bytes()
}

// Types encodes the parts of a schema that any service may depend on: the
// package, its top-level annotations, and every message.
func Types(s *schema.Schema) []byte {
	var e encoder
	e.open('{')
	e.key("package")
	e.str(s.Package)
	e.annotations(s.Annotations)
	e.key("messages")
	e.messages(s.Messages)
	e.close('}')
	return e.buf.Bytes()
}

// Service encodes a single service.
func Service(svc *schema.Service) []byte {
	var e encoder
	e.service(svc)
	return e.buf.Bytes()
}

// ServiceIdentity is SHA-256(Service(svc) || SHA-256(Types(s))).
func ServiceIdentity(s *schema.Schema, svc *schema.Service) schema.Identifier {
	return serviceIdentity(Types(s), Service(svc))
}

func serviceIdentity(types, service []byte) schema.Identifier {
	typesHash := sha256.Sum256(types)
	h := sha256.New()
	h.Write(service)
	h.Write(typesHash[:])
	var id schema.Identifier
	h.Sum(id[:0])
	return id
}

// SchemaIdentity is SHA-256(Schema(s)).
func SchemaIdentity(s *schema.Schema) schema.Identifier {
	return schema.Identifier(sha256.Sum256(Schema(s)))
}

// Identify fills in the identifier and canonical encoding of every service,
// and the identifier of the schema itself. The types encoding is computed
// once and shared between services.
func Identify(s *schema.Schema) {
	types := Types(s)
	for _, svc := range s.Services {
		svc.Canonical = Service(svc)
		svc.ID = serviceIdentity(types, svc.Canonical)
	}
	s.ID = SchemaIdentity(s)
}

type encoder struct {
	buf   bytes.Buffer
	first bool
}

func (e *encoder) open(c byte) {
	e.buf.WriteByte(c)
	e.first = true
}

func (e *encoder) close(c byte) {
	e.buf.WriteByte(c)
	e.first = false
}

func (e *encoder) key(k string) {
	if !e.first {
		e.buf.WriteByte(',')
	}
	e.first = false
	e.str(k)
	e.buf.WriteByte(':')
}

func (e *encoder) item(ii int) {
	if ii > 0 {
		e.buf.WriteByte(',')
	}
}

func (e *encoder) str(s string) {
	quoted, _ := json.Marshal(s)
	e.buf.Write(quoted)
}

func (e *encoder) strs(ss []string) {
	e.open('[')
	for ii, s := range ss {
		e.item(ii)
		e.str(s)
	}
	e.close(']')
}

func (e *encoder) docs(docs []string) {
	if len(docs) == 0 {
		return
	}
	e.key("docs")
	e.strs(docs)
}

func (e *encoder) annotations(annotations []*schema.Annotation) {
	var kept []*schema.Annotation
	for _, ann := range annotations {
		if ann.Name != schema.AnnotationSource {
			kept = append(kept, ann)
		}
	}
	if len(kept) == 0 {
		return
	}
	e.key("annotations")
	e.open('[')
	for ii, ann := range kept {
		e.item(ii)
		e.annotation(ann)
	}
	e.close(']')
}

func (e *encoder) annotation(ann *schema.Annotation) {
	e.open('{')
	e.key("name")
	e.str(ann.Name)
	if ann.Value != nil {
		e.key("value")
		e.value(ann.Value)
	}
	if len(ann.Pairs) > 0 {
		pairs := slices.Clone(ann.Pairs)
		slices.SortStableFunc(pairs, func(a, b *schema.Pair) int {
			return strings.Compare(a.Key, b.Key)
		})
		e.key("pairs")
		e.open('[')
		for ii, pair := range pairs {
			e.item(ii)
			e.open('[')
			e.str(pair.Key)
			e.buf.WriteByte(',')
			e.value(pair.Value)
			e.close(']')
		}
		e.close(']')
	}
	e.close('}')
}

// Values are encoded as a [kind, text] pair so that, for example, the
// string "1" and the integer 1 never collide.
func (e *encoder) value(v *schema.Value) {
	var text string
	switch v.Kind {
	case schema.ValueInt:
		text = strconv.FormatInt(v.Int, 10)
	case schema.ValueUint:
		text = strconv.FormatUint(v.Uint, 10)
	case schema.ValueFloat:
		text = schema.FormatFloat(v.Float)
	case schema.ValueBool:
		text = strconv.FormatBool(v.Bool)
	case schema.ValueString:
		text = v.Text
	case schema.ValueIdent:
		text = v.Ident
	}
	e.open('[')
	e.str(v.Kind.String())
	e.buf.WriteByte(',')
	e.str(text)
	e.close(']')
}

func (e *encoder) typ(t *schema.Type) {
	if t == nil {
		e.buf.WriteString("null")
		return
	}
	if t.Kind == schema.KindMessage {
		e.open('{')
		e.key("message")
		e.str(t.Message)
		e.close('}')
		return
	}
	e.str(t.Kind.String())
}

func (e *encoder) messages(messages []*schema.Message) {
	e.open('[')
	for ii, msg := range messages {
		e.item(ii)
		e.message(msg)
	}
	e.close(']')
}

func (e *encoder) message(msg *schema.Message) {
	e.open('{')
	e.key("name")
	e.str(msg.Name)
	e.docs(msg.Docs)
	e.annotations(msg.Annotations)
	e.key("fields")
	e.open('[')
	for ii, field := range msg.Fields {
		e.item(ii)
		e.field(field)
	}
	e.close(']')
	e.close('}')
}

func (e *encoder) field(field *schema.Field) {
	e.open('{')
	e.key("name")
	e.str(field.Name)
	e.key("type")
	e.typ(field.Type)
	e.key("optional")
	e.buf.WriteString(strconv.FormatBool(field.Optional))
	e.key("number")
	e.buf.WriteString(strconv.FormatUint(uint64(field.Number), 10))
	e.docs(field.Docs)
	e.annotations(field.Annotations)
	e.close('}')
}

func (e *encoder) service(svc *schema.Service) {
	e.open('{')
	e.key("name")
	e.str(svc.Name)
	e.docs(svc.Docs)
	e.annotations(svc.Annotations)
	e.key("methods")
	e.open('[')
	for ii, method := range svc.Methods {
		e.item(ii)
		e.method(method)
	}
	e.close(']')
	e.close('}')
}

func (e *encoder) method(method *schema.Method) {
	e.open('{')
	e.key("name")
	e.str(method.Name)
	e.key("input")
	e.typ(method.Input)
	e.key("output")
	e.typ(method.Output)
	e.docs(method.Docs)
	e.annotations(method.Annotations)
	e.close('}')
}
