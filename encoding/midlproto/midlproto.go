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

// Package midlproto lowers a Schema to protobuf descriptors and `.proto`
// source.
//
// MIDL types without a protobuf equivalent are widened: 8- and 16-bit
// integers become 32-bit. Methods whose input or output is not a message use
// the well-known wrapper types, and a missing input or output becomes
// google.protobuf.Empty.
package midlproto

import (
	"bytes"
	"io"
	"slices"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoprint"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/frodobuf/frodobuf/schema"
)

const (
	emptyFile    = "google/protobuf/empty.proto"
	wrappersFile = "google/protobuf/wrappers.proto"
)

// Source code info paths, from descriptor.proto.
const (
	pathFileMessage   = 4
	pathFileService   = 6
	pathMessageField  = 2
	pathServiceMethod = 2
)

var scalarTypes = map[schema.Kind]descriptorpb.FieldDescriptorProto_Type{
	schema.KindBool:    descriptorpb.FieldDescriptorProto_TYPE_BOOL,
	schema.KindInt8:    descriptorpb.FieldDescriptorProto_TYPE_INT32,
	schema.KindInt16:   descriptorpb.FieldDescriptorProto_TYPE_INT32,
	schema.KindInt32:   descriptorpb.FieldDescriptorProto_TYPE_INT32,
	schema.KindInt64:   descriptorpb.FieldDescriptorProto_TYPE_INT64,
	schema.KindUint8:   descriptorpb.FieldDescriptorProto_TYPE_UINT32,
	schema.KindUint16:  descriptorpb.FieldDescriptorProto_TYPE_UINT32,
	schema.KindUint32:  descriptorpb.FieldDescriptorProto_TYPE_UINT32,
	schema.KindUint64:  descriptorpb.FieldDescriptorProto_TYPE_UINT64,
	schema.KindFloat32: descriptorpb.FieldDescriptorProto_TYPE_FLOAT,
	schema.KindFloat64: descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
	schema.KindString:  descriptorpb.FieldDescriptorProto_TYPE_STRING,
	schema.KindBytes:   descriptorpb.FieldDescriptorProto_TYPE_BYTES,
}

var wrapperTypes = map[schema.Kind]protoreflect.FullName{
	schema.KindBool:    (&wrapperspb.BoolValue{}).ProtoReflect().Descriptor().FullName(),
	schema.KindInt8:    (&wrapperspb.Int32Value{}).ProtoReflect().Descriptor().FullName(),
	schema.KindInt16:   (&wrapperspb.Int32Value{}).ProtoReflect().Descriptor().FullName(),
	schema.KindInt32:   (&wrapperspb.Int32Value{}).ProtoReflect().Descriptor().FullName(),
	schema.KindInt64:   (&wrapperspb.Int64Value{}).ProtoReflect().Descriptor().FullName(),
	schema.KindUint8:   (&wrapperspb.UInt32Value{}).ProtoReflect().Descriptor().FullName(),
	schema.KindUint16:  (&wrapperspb.UInt32Value{}).ProtoReflect().Descriptor().FullName(),
	schema.KindUint32:  (&wrapperspb.UInt32Value{}).ProtoReflect().Descriptor().FullName(),
	schema.KindUint64:  (&wrapperspb.UInt64Value{}).ProtoReflect().Descriptor().FullName(),
	schema.KindFloat32: (&wrapperspb.FloatValue{}).ProtoReflect().Descriptor().FullName(),
	schema.KindFloat64: (&wrapperspb.DoubleValue{}).ProtoReflect().Descriptor().FullName(),
	schema.KindString:  (&wrapperspb.StringValue{}).ProtoReflect().Descriptor().FullName(),
	schema.KindBytes:   (&wrapperspb.BytesValue{}).ProtoReflect().Descriptor().FullName(),
}

var emptyType = (&emptypb.Empty{}).ProtoReflect().Descriptor().FullName()

// FileName is the name given to the lowered file: the package with dots
// replaced by slashes, or "schema.proto" for a schema without a package.
func FileName(s *schema.Schema) string {
	if s.Package == "" {
		return "schema.proto"
	}
	return strings.ReplaceAll(s.Package, ".", "/") + ".proto"
}

// File lowers s and checks the result with protodesc.
func File(s *schema.Schema) (*descriptorpb.FileDescriptorProto, error) {
	l := lowering{schema: s}
	fdp := l.file()
	if _, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles); err != nil {
		return nil, errors.Wrapf(err, "midlproto: invalid descriptor for %s", fdp.GetName())
	}
	return fdp, nil
}

// FileSet returns the lowered file preceded by any well-known files it
// imports.
func FileSet(s *schema.Schema) (*descriptorpb.FileDescriptorSet, error) {
	fdp, err := File(s)
	if err != nil {
		return nil, err
	}
	set := &descriptorpb.FileDescriptorSet{}
	for _, dep := range fdp.GetDependency() {
		depFile, err := protoregistry.GlobalFiles.FindFileByPath(dep)
		if err != nil {
			return nil, errors.Wrapf(err, "midlproto: missing dependency %s", dep)
		}
		set.File = append(set.File, protodesc.ToFileDescriptorProto(depFile))
	}
	set.File = append(set.File, fdp)
	return set, nil
}

// Descriptor returns the deterministic wire encoding of FileSet(s).
func Descriptor(s *schema.Schema) ([]byte, error) {
	set, err := FileSet(s)
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(set)
}

// Print writes s as `.proto` source.
func Print(s *schema.Schema, w io.Writer) error {
	fdp, err := File(s)
	if err != nil {
		return err
	}
	var deps []*desc.FileDescriptor
	for _, dep := range fdp.GetDependency() {
		depFile, err := desc.LoadFileDescriptor(dep)
		if err != nil {
			return errors.Wrapf(err, "midlproto: missing dependency %s", dep)
		}
		deps = append(deps, depFile)
	}
	fd, err := desc.CreateFileDescriptor(fdp, deps...)
	if err != nil {
		return errors.Wrap(err, "midlproto: failed to build file descriptor")
	}
	p := &protoprint.Printer{
		Indent: "    ",
	}
	return errors.Wrap(p.PrintProtoFile(fd, w), "midlproto: failed to print")
}

func PrintString(s *schema.Schema) (string, error) {
	var buf bytes.Buffer
	if err := Print(s, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type lowering struct {
	schema    *schema.Schema
	deps      []string
	locations []*descriptorpb.SourceCodeInfo_Location
}

func (l *lowering) file() *descriptorpb.FileDescriptorProto {
	fdp := &descriptorpb.FileDescriptorProto{
		Name:   proto.String(FileName(l.schema)),
		Syntax: proto.String("proto3"),
	}
	if l.schema.Package != "" {
		fdp.Package = proto.String(l.schema.Package)
	}
	if goPackage := l.schema.Option("go_package"); goPackage != nil && goPackage.Kind == schema.ValueString {
		fdp.Options = &descriptorpb.FileOptions{GoPackage: proto.String(goPackage.Text)}
	}
	for ii, msg := range l.schema.Messages {
		l.doc(msg.Docs, pathFileMessage, int32(ii))
		fdp.MessageType = append(fdp.MessageType, l.message(msg, int32(ii)))
	}
	for ii, svc := range l.schema.Services {
		l.doc(svc.Docs, pathFileService, int32(ii))
		fdp.Service = append(fdp.Service, l.service(svc, int32(ii)))
	}
	fdp.Dependency = l.deps
	if len(l.locations) > 0 {
		fdp.SourceCodeInfo = &descriptorpb.SourceCodeInfo{Location: l.locations}
	}
	return fdp
}

func (l *lowering) message(msg *schema.Message, index int32) *descriptorpb.DescriptorProto {
	out := &descriptorpb.DescriptorProto{Name: proto.String(msg.Name)}
	for ii, field := range msg.Fields {
		l.doc(field.Docs, pathFileMessage, index, pathMessageField, int32(ii))
		fdp := &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(field.Name),
			JsonName: proto.String(protoJSONName(field.Name)),
			Number:   proto.Int32(int32(field.Number)),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		}
		if field.Type.IsMessage() {
			fdp.Type = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum()
			fdp.TypeName = proto.String(l.messageName(field.Type.Message))
		} else {
			fdp.Type = scalarTypes[field.Type.Kind].Enum()
		}
		out.Field = append(out.Field, fdp)
	}

	// Optional fields use proto3 explicit presence, which needs one
	// synthetic oneof per field, declared after all real oneofs.
	for ii, field := range msg.Fields {
		if !field.Optional {
			continue
		}
		out.Field[ii].Proto3Optional = proto.Bool(true)
		out.Field[ii].OneofIndex = proto.Int32(int32(len(out.OneofDecl)))
		out.OneofDecl = append(out.OneofDecl, &descriptorpb.OneofDescriptorProto{
			Name: proto.String("_" + field.Name),
		})
	}
	return out
}

func (l *lowering) service(svc *schema.Service, index int32) *descriptorpb.ServiceDescriptorProto {
	out := &descriptorpb.ServiceDescriptorProto{Name: proto.String(svc.Name)}
	for ii, method := range svc.Methods {
		l.doc(method.Docs, pathFileService, index, pathServiceMethod, int32(ii))
		out.Method = append(out.Method, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(method.Name),
			InputType:  proto.String(l.methodType(method.Input)),
			OutputType: proto.String(l.methodType(method.Output)),
		})
	}
	return out
}

func (l *lowering) methodType(t *schema.Type) string {
	switch {
	case t == nil:
		l.depend(emptyFile)
		return "." + string(emptyType)
	case t.IsMessage():
		return l.messageName(t.Message)
	}
	l.depend(wrappersFile)
	return "." + string(wrapperTypes[t.Kind])
}

func (l *lowering) messageName(name string) string {
	if l.schema.Package == "" {
		return "." + name
	}
	return "." + l.schema.Package + "." + name
}

func (l *lowering) depend(file string) {
	if !slices.Contains(l.deps, file) {
		l.deps = append(l.deps, file)
		slices.Sort(l.deps)
	}
}

func (l *lowering) doc(docs []string, path ...int32) {
	if len(docs) == 0 {
		return
	}
	var buf strings.Builder
	for _, doc := range docs {
		buf.WriteString(" ")
		buf.WriteString(doc)
		buf.WriteString("\n")
	}
	l.locations = append(l.locations, &descriptorpb.SourceCodeInfo_Location{
		Path:            slices.Clone(path),
		Span:            []int32{0, 0, 0},
		LeadingComments: proto.String(buf.String()),
	})
}

// protoJSONName matches protoc: underscores are dropped and the following
// letter is upper-cased.
func protoJSONName(name string) string {
	var buf strings.Builder
	upper := false
	for _, c := range name {
		if c == '_' {
			upper = true
			continue
		}
		if upper && 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		buf.WriteRune(c)
	}
	return buf.String()
}
