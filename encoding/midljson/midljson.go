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

// Package midljson converts a Schema to and from its export document.
//
// The document carries the same information as the schema, including the
// identifiers. Decoding recomputes the identifiers and rejects a document
// whose recorded identifier does not match its content.
package midljson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/pkg/errors"

	"github.com/frodobuf/frodobuf/canonical"
	"github.com/frodobuf/frodobuf/schema"
)

type Document struct {
	Package       string        `json:"package" yaml:"package"`
	ID            string        `json:"id,omitempty" yaml:"id,omitempty"`
	ParserVersion string        `json:"parser_version,omitempty" yaml:"parser_version,omitempty"`
	SourcePath    string        `json:"source_path,omitempty" yaml:"source_path,omitempty"`
	Annotations   []*Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Messages      []*Message    `json:"messages" yaml:"messages"`
	Services      []*Service    `json:"services" yaml:"services"`
}

type Message struct {
	Name        string        `json:"name" yaml:"name"`
	Docs        []string      `json:"docs,omitempty" yaml:"docs,omitempty"`
	Annotations []*Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Source      string        `json:"source,omitempty" yaml:"source,omitempty"`
	Fields      []*Field      `json:"fields" yaml:"fields"`
}

type Field struct {
	Name        string        `json:"name" yaml:"name"`
	Type        *Type         `json:"type" yaml:"type"`
	Optional    bool          `json:"optional,omitempty" yaml:"optional,omitempty"`
	Number      uint32        `json:"number" yaml:"number"`
	Docs        []string      `json:"docs,omitempty" yaml:"docs,omitempty"`
	Annotations []*Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Source      string        `json:"source,omitempty" yaml:"source,omitempty"`
}

type Service struct {
	Name        string        `json:"name" yaml:"name"`
	ID          string        `json:"id,omitempty" yaml:"id,omitempty"`
	Docs        []string      `json:"docs,omitempty" yaml:"docs,omitempty"`
	Annotations []*Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Source      string        `json:"source,omitempty" yaml:"source,omitempty"`
	Client      bool          `json:"client" yaml:"client"`
	Server      bool          `json:"server" yaml:"server"`
	Methods     []*Method     `json:"methods" yaml:"methods"`
}

type Method struct {
	Name        string        `json:"name" yaml:"name"`
	Input       *Type         `json:"input" yaml:"input"`
	Output      *Type         `json:"output" yaml:"output"`
	Docs        []string      `json:"docs,omitempty" yaml:"docs,omitempty"`
	Annotations []*Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Source      string        `json:"source,omitempty" yaml:"source,omitempty"`
}

// Type is either a builtin scalar or a message reference. A nil *Type
// means no value.
type Type struct {
	Scalar  string `json:"scalar,omitempty" yaml:"scalar,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

type Annotation struct {
	Name  string  `json:"name" yaml:"name"`
	Value *Value  `json:"value,omitempty" yaml:"value,omitempty"`
	Pairs []*Pair `json:"pairs,omitempty" yaml:"pairs,omitempty"`
}

type Pair struct {
	Key   string `json:"key" yaml:"key"`
	Value *Value `json:"value" yaml:"value"`
}

// Value is a tagged scalar. The value is kept as text so that integers
// outside the float64 range and non-finite floats survive a round trip.
type Value struct {
	Kind string `json:"kind" yaml:"kind"`
	Text string `json:"text" yaml:"text"`
}

func Encode(s *schema.Schema) ([]byte, error) {
	return json.Marshal(FromSchema(s))
}

func EncodePretty(s *schema.Schema) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(FromSchema(s)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Decode(data []byte) (*schema.Schema, error) {
	var doc Document
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "midljson: invalid document")
	}
	return doc.Schema()
}

func FromSchema(s *schema.Schema) *Document {
	doc := &Document{
		Package:       s.Package,
		ParserVersion: s.ParserVersion,
		SourcePath:    s.SourcePath,
		Annotations:   fromAnnotations(s.Annotations),
		Messages:      []*Message{},
		Services:      []*Service{},
	}
	if !s.ID.IsZero() {
		doc.ID = s.ID.String()
	}
	for _, msg := range s.Messages {
		out := &Message{
			Name:        msg.Name,
			Docs:        msg.Docs,
			Annotations: fromAnnotations(msg.Annotations),
			Source:      fromPos(msg.Source),
			Fields:      []*Field{},
		}
		for _, field := range msg.Fields {
			out.Fields = append(out.Fields, &Field{
				Name:        field.Name,
				Type:        fromType(field.Type),
				Optional:    field.Optional,
				Number:      field.Number,
				Docs:        field.Docs,
				Annotations: fromAnnotations(field.Annotations),
				Source:      fromPos(field.Source),
			})
		}
		doc.Messages = append(doc.Messages, out)
	}
	for _, svc := range s.Services {
		out := &Service{
			Name:        svc.Name,
			Docs:        svc.Docs,
			Annotations: fromAnnotations(svc.Annotations),
			Source:      fromPos(svc.Source),
			Client:      svc.GenerateClient,
			Server:      svc.GenerateServer,
			Methods:     []*Method{},
		}
		if !svc.ID.IsZero() {
			out.ID = svc.ID.String()
		}
		for _, method := range svc.Methods {
			out.Methods = append(out.Methods, &Method{
				Name:        method.Name,
				Input:       fromType(method.Input),
				Output:      fromType(method.Output),
				Docs:        method.Docs,
				Annotations: fromAnnotations(method.Annotations),
				Source:      fromPos(method.Source),
			})
		}
		doc.Services = append(doc.Services, out)
	}
	return doc
}

func fromPos(pos schema.Pos) string {
	if pos.IsZero() {
		return ""
	}
	return pos.String()
}

func fromType(t *schema.Type) *Type {
	if t == nil {
		return nil
	}
	if t.Kind == schema.KindMessage {
		return &Type{Message: t.Message}
	}
	return &Type{Scalar: t.Kind.String()}
}

func fromAnnotations(annotations []*schema.Annotation) []*Annotation {
	var out []*Annotation
	for _, ann := range annotations {
		item := &Annotation{Name: ann.Name}
		if ann.Value != nil {
			item.Value = fromValue(ann.Value)
		}
		for _, pair := range ann.Pairs {
			item.Pairs = append(item.Pairs, &Pair{
				Key:   pair.Key,
				Value: fromValue(pair.Value),
			})
		}
		out = append(out, item)
	}
	return out
}

func fromValue(v *schema.Value) *Value {
	out := &Value{Kind: v.Kind.String()}
	switch v.Kind {
	case schema.ValueInt:
		out.Text = strconv.FormatInt(v.Int, 10)
	case schema.ValueUint:
		out.Text = strconv.FormatUint(v.Uint, 10)
	case schema.ValueFloat:
		out.Text = schema.FormatFloat(v.Float)
	case schema.ValueBool:
		out.Text = strconv.FormatBool(v.Bool)
	case schema.ValueString:
		out.Text = v.Text
	case schema.ValueIdent:
		out.Text = v.Ident
	}
	return out
}

// Schema converts the document back to a Schema and recomputes its
// identifiers. If the document records identifiers, they must match.
func (doc *Document) Schema() (*schema.Schema, error) {
	d := decoder{}
	s := &schema.Schema{
		Package:       doc.Package,
		ParserVersion: doc.ParserVersion,
		SourcePath:    doc.SourcePath,
		Annotations:   d.annotations(doc.Annotations),
	}
	for _, msg := range doc.Messages {
		out := &schema.Message{
			Name:        msg.Name,
			Docs:        msg.Docs,
			Annotations: d.annotations(msg.Annotations),
			Source:      d.pos(msg.Source),
		}
		for _, field := range msg.Fields {
			fieldType := d.typ(field.Type)
			if fieldType == nil && d.err == nil {
				d.err = fmt.Errorf("field %s.%s has no type", msg.Name, field.Name)
			}
			out.Fields = append(out.Fields, &schema.Field{
				Name:        field.Name,
				Type:        fieldType,
				Optional:    field.Optional,
				Number:      field.Number,
				Docs:        field.Docs,
				Annotations: d.annotations(field.Annotations),
				Source:      d.pos(field.Source),
			})
		}
		s.Messages = append(s.Messages, out)
	}
	for _, svc := range doc.Services {
		out := &schema.Service{
			Name:           svc.Name,
			Docs:           svc.Docs,
			Annotations:    d.annotations(svc.Annotations),
			Source:         d.pos(svc.Source),
			GenerateClient: svc.Client,
			GenerateServer: svc.Server,
		}
		for _, method := range svc.Methods {
			out.Methods = append(out.Methods, &schema.Method{
				Name:        method.Name,
				Input:       d.typ(method.Input),
				Output:      d.typ(method.Output),
				Docs:        method.Docs,
				Annotations: d.annotations(method.Annotations),
				Source:      d.pos(method.Source),
			})
		}
		s.Services = append(s.Services, out)
	}
	if d.err != nil {
		return nil, errors.Wrap(d.err, "midljson: invalid document")
	}

	canonical.Identify(s)
	if doc.ID != "" && doc.ID != s.ID.String() {
		return nil, errors.Errorf("midljson: schema identifier mismatch: document has %s, content hashes to %s", doc.ID, s.ID)
	}
	for ii, svc := range doc.Services {
		if svc.ID != "" && svc.ID != s.Services[ii].ID.String() {
			return nil, errors.Errorf(
				"midljson: identifier mismatch for service %s: document has %s, content hashes to %s",
				svc.Name, svc.ID, s.Services[ii].ID,
			)
		}
	}
	return s, nil
}

// decoder keeps the first error so that conversion code can stay linear.
type decoder struct {
	err error
}

func (d *decoder) pos(text string) schema.Pos {
	var pos schema.Pos
	if text == "" || d.err != nil {
		return pos
	}
	if _, err := fmt.Sscanf(text, "%d:%d", &pos.Line, &pos.Col); err != nil {
		d.err = fmt.Errorf("invalid source position %q", text)
	}
	return pos
}

func (d *decoder) typ(t *Type) *schema.Type {
	if t == nil || d.err != nil {
		return nil
	}
	switch {
	case t.Message != "" && t.Scalar == "":
		return schema.MessageRef(t.Message)
	case t.Scalar != "" && t.Message == "":
		kind, ok := schema.BuiltinKind(t.Scalar)
		if !ok {
			d.err = fmt.Errorf("unknown scalar type %q", t.Scalar)
			return nil
		}
		return schema.Builtin(kind)
	}
	d.err = fmt.Errorf("type must set exactly one of scalar and message")
	return nil
}

func (d *decoder) annotations(annotations []*Annotation) []*schema.Annotation {
	var out []*schema.Annotation
	for _, ann := range annotations {
		item := &schema.Annotation{Name: ann.Name}
		if ann.Value != nil {
			item.Value = d.value(ann.Value)
		}
		for _, pair := range ann.Pairs {
			item.Pairs = append(item.Pairs, &schema.Pair{
				Key:   pair.Key,
				Value: d.value(pair.Value),
			})
		}
		out = append(out, item)
	}
	return out
}

func (d *decoder) value(v *Value) *schema.Value {
	if d.err != nil {
		return nil
	}
	if v == nil {
		d.err = fmt.Errorf("missing annotation value")
		return nil
	}
	var err error
	var out *schema.Value
	switch v.Kind {
	case "int":
		var n int64
		n, err = strconv.ParseInt(v.Text, 10, 64)
		out = schema.IntValue(n)
	case "uint":
		var n uint64
		n, err = strconv.ParseUint(v.Text, 10, 64)
		out = &schema.Value{Kind: schema.ValueUint, Uint: n}
	case "float":
		out = schema.FloatValue(parseFloat(v.Text, &err))
	case "bool":
		var b bool
		b, err = strconv.ParseBool(v.Text)
		out = schema.BoolValue(b)
	case "string":
		out = schema.TextValue(v.Text)
	case "ident":
		out = schema.IdentValue(v.Text)
	default:
		err = fmt.Errorf("unknown value kind %q", v.Kind)
	}
	if err != nil {
		d.err = err
		return nil
	}
	return out
}

func parseFloat(text string, errp *error) float64 {
	switch text {
	case "inf":
		return math.Inf(1)
	case "-inf":
		return math.Inf(-1)
	case "nan":
		return math.NaN()
	}
	f, err := strconv.ParseFloat(text, 64)
	*errp = err
	return f
}
