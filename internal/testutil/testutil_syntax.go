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

package testutil

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/frodobuf/frodobuf/syntax"
)

type outlineFile struct {
	Syntax  string        `json:"syntax,omitempty"`
	Package string        `json:"package"`
	Options []string      `json:"options,omitempty"`
	Decls   []outlineDecl `json:"decls,omitempty"`
}

type outlineDecl struct {
	Message     string          `json:"message,omitempty"`
	Service     string          `json:"service,omitempty"`
	Pos         string          `json:"pos"`
	Annotations []string        `json:"annotations,omitempty"`
	Fields      []outlineField  `json:"fields,omitempty"`
	Methods     []outlineMethod `json:"methods,omitempty"`
}

type outlineField struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Label       string   `json:"label,omitempty"`
	Optional    bool     `json:"optional,omitempty"`
	Number      string   `json:"number,omitempty"`
	Pos         string   `json:"pos"`
	Annotations []string `json:"annotations,omitempty"`
}

type outlineMethod struct {
	Name        string   `json:"name"`
	Input       string   `json:"input,omitempty"`
	Output      string   `json:"output,omitempty"`
	Pos         string   `json:"pos"`
	Annotations []string `json:"annotations,omitempty"`
}

// DumpOutline renders the declarations of a parsed file as indented JSON,
// for comparison against golden files.
func DumpOutline(file *syntax.File) []byte {
	out := outlineFile{}
	if file.Syntax() != nil {
		out.Syntax = file.Syntax().Get()
	}
	if file.Package() != nil {
		out.Package = file.Package().Name().String()
	}
	for _, opt := range file.Options() {
		out.Options = append(out.Options, opt.Name().String()+" = "+FormatValue(opt.Value()))
	}
	for _, decl := range file.Decls() {
		switch decl := decl.(type) {
		case *syntax.Message:
			msg := outlineDecl{
				Message:     decl.Name().Get(),
				Pos:         decl.Pos().String(),
				Annotations: formatAnnotations(decl.Annotations()),
			}
			for _, field := range decl.Fields() {
				f := outlineField{
					Name:        field.Name().Get(),
					Type:        field.FieldType().Name().String(),
					Optional:    field.Optional(),
					Pos:         field.Pos().String(),
					Annotations: formatAnnotations(field.Annotations()),
				}
				if label := field.Label(); label != nil {
					f.Label = label.Get()
				}
				if num := field.Number(); num != nil {
					f.Number = num.Raw()
				}
				msg.Fields = append(msg.Fields, f)
			}
			out.Decls = append(out.Decls, msg)
		case *syntax.Service:
			svc := outlineDecl{
				Service:     decl.Name().Get(),
				Pos:         decl.Pos().String(),
				Annotations: formatAnnotations(decl.Annotations()),
			}
			for _, method := range decl.Methods() {
				m := outlineMethod{
					Name:        method.Name().Get(),
					Pos:         method.Pos().String(),
					Annotations: formatAnnotations(method.Annotations()),
				}
				if input := method.Input(); input != nil {
					m.Input = input.Name().String()
				}
				if output := method.Output(); output != nil {
					m.Output = output.Name().String()
				}
				svc.Methods = append(svc.Methods, m)
			}
			out.Decls = append(out.Decls, svc)
		}
	}
	buf, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		panic(err)
	}
	return buf
}

func formatAnnotations(annotations []*syntax.Annotation) []string {
	var out []string
	for _, ann := range annotations {
		out = append(out, FormatAnnotation(ann))
	}
	return out
}

// FormatAnnotation renders an annotation in a normalized source form, such
// as `@codegen(client = false)`.
func FormatAnnotation(ann *syntax.Annotation) string {
	var buf strings.Builder
	buf.WriteString("@")
	buf.WriteString(ann.Name().String())
	if !ann.HasArgs() {
		return buf.String()
	}
	buf.WriteString("(")
	for ii, arg := range ann.Args() {
		if ii > 0 {
			buf.WriteString(", ")
		}
		if key := arg.Key(); key != nil {
			buf.WriteString(key.Get())
			if arg.Value() != nil {
				buf.WriteString(" = ")
			}
		}
		if value := arg.Value(); value != nil {
			buf.WriteString(FormatValue(value))
		}
	}
	buf.WriteString(")")
	return buf.String()
}

func FormatValue(value *syntax.Value) string {
	switch value.Kind() {
	case syntax.ValueInt:
		return value.Int().Raw()
	case syntax.ValueFloat:
		return strconv.FormatFloat(value.Float(), 'g', -1, 64)
	case syntax.ValueBool:
		return strconv.FormatBool(value.Bool())
	case syntax.ValueText:
		return strconv.Quote(value.Text().Get())
	case syntax.ValueIdent:
		return value.Ident().String()
	}
	return "?"
}
