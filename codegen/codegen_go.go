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
	"fmt"
	"go/token"
	"path"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/frodobuf/frodobuf/schema"
)

const (
	defaultRPCImport = "github.com/frodobuf/frodobuf/rpc"

	goOptionPackage   = "package"
	goOptionRPCImport = "rpc_import"
)

// GoBackend renders one Go source file per schema.
//
// Options: "package" overrides the Go package name, and "rpc_import" sets the
// import path of the runtime package.
type GoBackend struct{}

var Go = GoBackend{}

func (GoBackend) Name() string {
	return "go"
}

// TypeName returns the Go type of a field or parameter, without any pointer
// added for optional fields.
func (GoBackend) TypeName(s *schema.Schema, entity string, t *schema.Type) (string, error) {
	switch t.Kind {
	case schema.KindBool:
		return "bool", nil
	case schema.KindInt8:
		return "int8", nil
	case schema.KindInt16:
		return "int16", nil
	case schema.KindInt32:
		return "int32", nil
	case schema.KindInt64:
		return "int64", nil
	case schema.KindUint8:
		return "uint8", nil
	case schema.KindUint16:
		return "uint16", nil
	case schema.KindUint32:
		return "uint32", nil
	case schema.KindUint64:
		return "uint64", nil
	case schema.KindFloat32:
		return "float32", nil
	case schema.KindFloat64:
		return "float64", nil
	case schema.KindString:
		return "string", nil
	case schema.KindBytes:
		return "[]byte", nil
	case schema.KindMessage:
		if s.Message(t.Message) != nil {
			return PascalCase(t.Message), nil
		}
	}
	return "", errUnmappableType("go", entity, t.String())
}

func (GoBackend) zeroValue(t *schema.Type) string {
	switch t.Kind {
	case schema.KindBool:
		return "false"
	case schema.KindString:
		return `""`
	case schema.KindBytes, schema.KindMessage:
		return "nil"
	}
	return "0"
}

// PackageName is the Go package clause for s: the "package" option, else
// the name part of `option go_package`, else the last component of the
// schema package.
func (GoBackend) PackageName(s *schema.Schema, opts *Options) (string, error) {
	if name, ok := opts.Value(goOptionPackage); ok {
		if !token.IsIdentifier(name) {
			return "", errInvalidOption("go", goOptionPackage, fmt.Sprintf("%q is not a Go identifier", name))
		}
		return name, nil
	}
	if v := s.Option("go_package"); v != nil && v.Kind == schema.ValueString {
		importPath, name, found := strings.Cut(v.Text, ";")
		if !found {
			name = path.Base(importPath)
		}
		name = strings.ReplaceAll(name, "-", "_")
		if !token.IsIdentifier(name) {
			return "", errInvalidOption("go", "go_package", fmt.Sprintf("%q is not a Go identifier", name))
		}
		return name, nil
	}
	pkg := s.Package
	if idx := strings.LastIndexByte(pkg, '.'); idx >= 0 {
		pkg = pkg[idx+1:]
	}
	name := strings.ToLower(SnakeCase(pkg))
	if name == "" {
		name = "midl"
	}
	if token.IsKeyword(name) {
		name += "_midl"
	}
	return name, nil
}

// FileName is the output path for s.
func (GoBackend) FileName(s *schema.Schema) string {
	if s.Package == "" {
		return "schema.go"
	}
	return SnakeCase(strings.ReplaceAll(s.Package, ".", "_")) + ".go"
}

func (b GoBackend) Render(s *schema.Schema, opts *Options) (Files, error) {
	if err := opts.checkKeys("go", goOptionPackage, goOptionRPCImport); err != nil {
		return nil, err
	}
	view, err := b.view(s, opts)
	if err != nil {
		return nil, err
	}
	tmpl, err := loadTemplates("go", opts)
	if err != nil {
		return nil, err
	}
	src, err := execute("go", tmpl, "file.go.tmpl", view)
	if err != nil {
		return nil, err
	}
	name := b.FileName(s)
	formatted, err := imports.Process(name, src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, errFormat("go", name, err)
	}
	return Files{{Path: name, Content: formatted}}, nil
}

type goFile struct {
	Package   string
	Source    string
	RPCImport string
	Messages  []*goMessage
	Services  []*goService

	UsesStrings bool
	UsesRPC     bool
}

type goMessage struct {
	Name   string
	Docs   []string
	Fields []*goField
}

type goField struct {
	Name string
	Type string
	Tag  string
	Docs []string
}

type goService struct {
	Name      string
	Docs      []string
	ID        string
	Canonical string
	Client    bool
	Server    bool
	UsesCodec bool
	Methods   []*goMethod
}

type goMethod struct {
	Name string
	Wire string
	Docs []string

	HasInput    bool
	InType      string
	InParam     string
	InIsMessage bool

	HasOutput    bool
	OutType      string
	OutParam     string
	OutZero      string
	OutIsMessage bool
}

func (m *goMethod) UsesCodec() bool {
	return m.HasInput || m.HasOutput
}

func (b GoBackend) view(s *schema.Schema, opts *Options) (*goFile, error) {
	pkg, err := b.PackageName(s, opts)
	if err != nil {
		return nil, err
	}
	rpcImport := defaultRPCImport
	if v, ok := opts.Value(goOptionRPCImport); ok {
		if v == "" {
			return nil, errInvalidOption("go", goOptionRPCImport, "empty import path")
		}
		rpcImport = v
	}
	view := &goFile{
		Package:   pkg,
		Source:    s.Package,
		RPCImport: rpcImport,
	}

	top := newNamespace("go")
	for _, msg := range s.Messages {
		m, err := b.message(s, msg, top)
		if err != nil {
			return nil, err
		}
		view.Messages = append(view.Messages, m)
	}
	for _, svc := range s.Services {
		v, err := b.service(s, svc, top)
		if err != nil {
			return nil, err
		}
		view.UsesStrings = view.UsesStrings || v.Server
		view.UsesRPC = view.UsesRPC || v.Server || v.Client
		view.Services = append(view.Services, v)
	}
	return view, nil
}

func (b GoBackend) message(s *schema.Schema, msg *schema.Message, top *namespace) (*goMessage, error) {
	name := PascalCase(msg.Name)
	if err := top.claim(msg.Name, name); err != nil {
		return nil, err
	}
	out := &goMessage{Name: name, Docs: msg.Docs}
	fields := newNamespace("go")
	for _, f := range msg.Fields {
		entity := msg.Name + "." + f.Name
		fieldName := PascalCase(f.Name)
		if err := fields.claim(entity, fieldName); err != nil {
			return nil, err
		}
		typeName, err := b.TypeName(s, entity, f.Type)
		if err != nil {
			return nil, err
		}
		tag := f.Name
		if f.Optional || f.Type.IsMessage() {
			tag += ",omitempty"
		}
		if f.Type.IsMessage() || (f.Optional && f.Type.Kind != schema.KindBytes) {
			typeName = "*" + typeName
		}
		out.Fields = append(out.Fields, &goField{
			Name: fieldName,
			Type: typeName,
			Tag:  fmt.Sprintf(`json:"%s" bson:"%s"`, tag, tag),
			Docs: f.Docs,
		})
	}
	return out, nil
}

func (b GoBackend) service(s *schema.Schema, svc *schema.Service, top *namespace) (*goService, error) {
	name := PascalCase(svc.Name)
	generated := []string{name, name + "SchemaID", name + "Schema"}
	if svc.GenerateServer {
		generated = append(generated, name+"Receiver", "New"+name+"Receiver")
	}
	if svc.GenerateClient {
		generated = append(generated, name+"Client", "New"+name+"Client")
	}
	for _, g := range generated {
		if err := top.claim(svc.Name, g); err != nil {
			return nil, err
		}
	}
	out := &goService{
		Name:      name,
		Docs:      svc.Docs,
		ID:        svc.ID.String(),
		Canonical: base64.StdEncoding.EncodeToString(svc.Canonical),
		Client:    svc.GenerateClient,
		Server:    svc.GenerateServer,
	}
	// Client methods share a method set with the struct's own fields.
	methods := newNamespace("go")
	if svc.GenerateClient {
		for _, field := range []string{"Transport", "Codec"} {
			if err := methods.claim(name+"Client."+field, field); err != nil {
				return nil, err
			}
		}
	}
	for _, method := range svc.Methods {
		entity := svc.Name + "." + method.Name
		methodName := PascalCase(method.Name)
		if err := methods.claim(entity, methodName); err != nil {
			return nil, err
		}
		m := &goMethod{
			Name: methodName,
			Wire: name + "." + methodName,
			Docs: method.Docs,
		}
		if method.Input != nil {
			typeName, err := b.TypeName(s, entity, method.Input)
			if err != nil {
				return nil, err
			}
			m.HasInput = true
			m.InType = typeName
			m.InParam = typeName
			if method.Input.IsMessage() {
				m.InIsMessage = true
				m.InParam = "*" + typeName
			}
		}
		if method.Output != nil {
			typeName, err := b.TypeName(s, entity, method.Output)
			if err != nil {
				return nil, err
			}
			m.HasOutput = true
			m.OutType = typeName
			m.OutParam = typeName
			m.OutZero = b.zeroValue(method.Output)
			if method.Output.IsMessage() {
				m.OutIsMessage = true
				m.OutParam = "*" + typeName
			}
		}
		out.UsesCodec = out.UsesCodec || m.UsesCodec()
		out.Methods = append(out.Methods, m)
	}
	return out, nil
}
