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

package codegen

import (
	"encoding/base64"
	"strings"

	"github.com/frodobuf/frodobuf/schema"
)

const rustOptionRuntime = "runtime"

// RustBackend renders one Rust module per schema. Services become
// async_trait traits with a Receiver for dispatch and a Sender client.
//
// Options: "runtime" names the crate providing Message, Transport, and the
// serialization helpers (default "frodobuf").
type RustBackend struct{}

var Rust = RustBackend{}

var rustKeywords = map[string]bool{
	"as": true, "async": true, "await": true, "break": true, "const": true,
	"continue": true, "dyn": true, "else": true, "enum": true, "extern": true,
	"false": true, "fn": true, "for": true, "if": true, "impl": true,
	"in": true, "let": true, "loop": true, "match": true, "mod": true,
	"move": true, "mut": true, "pub": true, "ref": true, "return": true,
	"static": true, "struct": true, "trait": true, "true": true, "type": true,
	"unsafe": true, "use": true, "where": true, "while": true,
	"abstract": true, "become": true, "box": true, "do": true, "final": true,
	"macro": true, "override": true, "priv": true, "try": true,
	"typeof": true, "unsized": true, "virtual": true, "yield": true,
}

// These cannot be raw identifiers.
var rustReserved = map[string]bool{
	"self": true, "Self": true, "super": true, "crate": true,
}

func (RustBackend) Name() string {
	return "rust"
}

// Ident escapes a snake_case identifier that is a Rust keyword.
func (RustBackend) Ident(name string) string {
	switch {
	case rustReserved[name]:
		return name + "_"
	case rustKeywords[name]:
		return "r#" + name
	}
	return name
}

// TypeName returns the owned Rust type for t.
func (RustBackend) TypeName(s *schema.Schema, entity string, t *schema.Type) (string, error) {
	switch t.Kind {
	case schema.KindBool:
		return "bool", nil
	case schema.KindInt8:
		return "i8", nil
	case schema.KindInt16:
		return "i16", nil
	case schema.KindInt32:
		return "i32", nil
	case schema.KindInt64:
		return "i64", nil
	case schema.KindUint8:
		return "u8", nil
	case schema.KindUint16:
		return "u16", nil
	case schema.KindUint32:
		return "u32", nil
	case schema.KindUint64:
		return "u64", nil
	case schema.KindFloat32:
		return "f32", nil
	case schema.KindFloat64:
		return "f64", nil
	case schema.KindString:
		return "String", nil
	case schema.KindBytes:
		return "Vec<u8>", nil
	case schema.KindMessage:
		if s.Message(t.Message) != nil {
			return PascalCase(t.Message), nil
		}
	}
	return "", errUnmappableType("rust", entity, t.String())
}

// ArgType is the parameter type for t. Scalars are passed by value and
// everything else by reference.
func (b RustBackend) ArgType(s *schema.Schema, entity string, t *schema.Type) (string, error) {
	owned, err := b.TypeName(s, entity, t)
	if err != nil {
		return "", err
	}
	switch t.Kind {
	case schema.KindString:
		return "&str", nil
	case schema.KindBytes:
		return "&[u8]", nil
	case schema.KindMessage:
		return "&" + owned, nil
	}
	return owned, nil
}

// FileName is the output path for s.
func (RustBackend) FileName(s *schema.Schema) string {
	if s.Package == "" {
		return "schema.rs"
	}
	return SnakeCase(strings.ReplaceAll(s.Package, ".", "_")) + ".rs"
}

func (b RustBackend) Render(s *schema.Schema, opts *Options) (Files, error) {
	if err := opts.checkKeys("rust", rustOptionRuntime); err != nil {
		return nil, err
	}
	view, err := b.view(s, opts)
	if err != nil {
		return nil, err
	}
	tmpl, err := loadTemplates("rust", opts)
	if err != nil {
		return nil, err
	}
	src, err := execute("rust", tmpl, "file.rs.tmpl", view)
	if err != nil {
		return nil, err
	}
	return Files{{Path: b.FileName(s), Content: src}}, nil
}

type rustFile struct {
	Source   string
	Runtime  string
	Messages []*rustMessage
	Services []*rustService
}

type rustMessage struct {
	Name   string
	Docs   []string
	Fields []*rustField
}

type rustField struct {
	Name  string
	Type  string
	Serde []string
	Docs  []string
}

type rustService struct {
	Name      string
	Module    string
	Docs      []string
	ID        string
	Canonical string
	Client    bool
	Server    bool
	Methods   []*rustMethod
}

type rustMethod struct {
	Name string
	Fn   string
	Wire string
	Docs []string

	HasInput bool
	InType   string
	InParam  string
	InByRef  bool

	HasOutput bool
	OutType   string
}

func (b RustBackend) view(s *schema.Schema, opts *Options) (*rustFile, error) {
	runtime := "frodobuf"
	if v, ok := opts.Value(rustOptionRuntime); ok {
		if v == "" || strings.ContainsAny(v, " -.") {
			return nil, errInvalidOption("rust", rustOptionRuntime, "not a crate name")
		}
		runtime = v
	}
	view := &rustFile{Source: s.Package, Runtime: runtime}
	types := newNamespace("rust")
	modules := newNamespace("rust")
	for _, msg := range s.Messages {
		m, err := b.message(s, msg, types)
		if err != nil {
			return nil, err
		}
		view.Messages = append(view.Messages, m)
	}
	for _, svc := range s.Services {
		v, err := b.service(s, svc, types, modules)
		if err != nil {
			return nil, err
		}
		view.Services = append(view.Services, v)
	}
	return view, nil
}

func (b RustBackend) message(s *schema.Schema, msg *schema.Message, types *namespace) (*rustMessage, error) {
	name := PascalCase(msg.Name)
	if err := types.claim(msg.Name, name); err != nil {
		return nil, err
	}
	out := &rustMessage{Name: name, Docs: msg.Docs}
	fields := newNamespace("rust")
	for _, f := range msg.Fields {
		entity := msg.Name + "." + f.Name
		snake := SnakeCase(f.Name)
		if err := fields.claim(entity, snake); err != nil {
			return nil, err
		}
		typeName, err := b.TypeName(s, entity, f.Type)
		if err != nil {
			return nil, err
		}
		ident := b.Ident(snake)
		var serde []string
		if strings.TrimPrefix(ident, "r#") != f.Name {
			serde = append(serde, `rename = "`+f.Name+`"`)
		}
		if f.Type.Kind == schema.KindBytes {
			if f.Optional {
				serde = append(serde, `with = "serde_bytes"`, "default")
			} else {
				serde = append(serde, `with = "serde_bytes"`)
			}
		}
		if f.Type.IsMessage() {
			typeName = "Box<" + typeName + ">"
		}
		if f.Optional {
			typeName = "Option<" + typeName + ">"
			serde = append(serde, `skip_serializing_if = "Option::is_none"`)
			if f.Type.Kind != schema.KindBytes {
				serde = append(serde, "default")
			}
		}
		out.Fields = append(out.Fields, &rustField{
			Name:  ident,
			Type:  typeName,
			Serde: serde,
			Docs:  f.Docs,
		})
	}
	return out, nil
}

func (b RustBackend) service(s *schema.Schema, svc *schema.Service, types, modules *namespace) (*rustService, error) {
	name := PascalCase(svc.Name)
	generated := []string{name}
	if svc.GenerateServer {
		generated = append(generated, name+"Receiver")
	}
	if svc.GenerateClient {
		generated = append(generated, name+"Sender")
	}
	for _, g := range generated {
		if err := types.claim(svc.Name, g); err != nil {
			return nil, err
		}
	}
	module := SnakeCase(svc.Name)
	if err := modules.claim(svc.Name, module); err != nil {
		return nil, err
	}
	out := &rustService{
		Name:      name,
		Module:    b.Ident(module),
		Docs:      svc.Docs,
		ID:        svc.ID.String(),
		Canonical: base64.StdEncoding.EncodeToString(svc.Canonical),
		Client:    svc.GenerateClient,
		Server:    svc.GenerateServer,
	}
	methods := newNamespace("rust")
	for _, method := range svc.Methods {
		entity := svc.Name + "." + method.Name
		pascal := PascalCase(method.Name)
		if err := methods.claim(entity, pascal); err != nil {
			return nil, err
		}
		m := &rustMethod{
			Name: pascal,
			Fn:   b.Ident(SnakeCase(method.Name)),
			Wire: name + "." + pascal,
			Docs: method.Docs,
		}
		if method.Input != nil {
			owned, err := b.TypeName(s, entity, method.Input)
			if err != nil {
				return nil, err
			}
			param, err := b.ArgType(s, entity, method.Input)
			if err != nil {
				return nil, err
			}
			m.HasInput = true
			m.InType = owned
			m.InParam = param
			m.InByRef = strings.HasPrefix(param, "&")
		}
		if method.Output != nil {
			owned, err := b.TypeName(s, entity, method.Output)
			if err != nil {
				return nil, err
			}
			m.HasOutput = true
			m.OutType = owned
		}
		out.Methods = append(out.Methods, m)
	}
	return out, nil
}
