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

// Package compiler lowers a parsed MIDL file into a validated Schema.
package compiler

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/frodobuf/frodobuf/canonical"
	"github.com/frodobuf/frodobuf/schema"
	"github.com/frodobuf/frodobuf/syntax"
)

// Version is recorded in every compiled schema as its ParserVersion.
const Version = "0.4.0"

const maxFieldNumber = 1<<29 - 1

type CompileOption interface {
	apply(*CompileOptions)
}

type compileOption func(*CompileOptions)

func (f compileOption) apply(opts *CompileOptions) { f(opts) }

type CompileOptions struct {
	sourcePath string
	parseOpts  []syntax.ParseOption
}

// WithSourcePath records where the schema was loaded from. The path is
// informational and does not affect any identifier.
func WithSourcePath(sourcePath string) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.sourcePath = sourcePath
	})
}

// WithParseOptions is used by CompileSource when parsing.
func WithParseOptions(parseOpts ...syntax.ParseOption) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.parseOpts = append(opts.parseOpts, parseOpts...)
	})
}

type CompileResult struct {
	// Schema is nil if there are any errors.
	Schema *schema.Schema

	Errors   []*Error
	Warnings []*Warning
}

// Err returns nil if compilation succeeded, or an error aggregating every
// entry in r.Errors.
func (r CompileResult) Err() error {
	var merr *multierror.Error
	for _, err := range r.Errors {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

func Compile(file *syntax.File, opts ...CompileOption) CompileResult {
	return NewCompileOptions(opts...).Compile(file)
}

// CompileSource parses src and compiles it. Lexer and parser failures are
// returned as a *syntax.Error; semantic failures are reported in the result.
func CompileSource(src []byte, opts ...CompileOption) (CompileResult, error) {
	return NewCompileOptions(opts...).CompileSource(src)
}

func NewCompileOptions(opts ...CompileOption) *CompileOptions {
	compileOptions := &CompileOptions{}
	for _, opt := range opts {
		opt.apply(compileOptions)
	}
	return compileOptions
}

func (opts *CompileOptions) CompileSource(src []byte) (CompileResult, error) {
	file, err := syntax.Parse(src, opts.parseOpts...)
	if err != nil {
		return CompileResult{}, err
	}
	return opts.Compile(file), nil
}

func (opts *CompileOptions) Compile(file *syntax.File) CompileResult {
	c := compiler{
		opts: opts,
		file: file,
		schema: &schema.Schema{
			ParserVersion: Version,
			SourcePath:    opts.sourcePath,
		},
		decls: make(map[string]string),
	}
	c.compileFile()

	sortBySpan(c.errors, (*Error).Span, (*Error).Code)
	sortBySpan(c.warnings, (*Warning).Span, (*Warning).Code)
	if len(c.errors) > 0 {
		return CompileResult{
			Errors:   c.errors,
			Warnings: c.warnings,
		}
	}
	canonical.Identify(c.schema)
	return CompileResult{
		Schema:   c.schema,
		Warnings: c.warnings,
	}
}

func sortBySpan[T any](items []T, span func(T) syntax.Span, code func(T) uint32) {
	slices.SortStableFunc(items, func(a, b T) int {
		if c := cmp.Compare(span(a).Start(), span(b).Start()); c != 0 {
			return c
		}
		return cmp.Compare(code(a), code(b))
	})
}

type compiler struct {
	opts     *CompileOptions
	file     *syntax.File
	schema   *schema.Schema
	errors   []*Error
	warnings []*Warning

	// Declared top-level names, mapped to "message" or "service".
	decls map[string]string
}

func (c *compiler) err(err *Error) {
	c.errors = append(c.errors, err)
}

func (c *compiler) warn(warning *Warning) {
	c.warnings = append(c.warnings, warning)
}

func (c *compiler) compileFile() {
	pkg := c.file.Package()
	if pkg != nil {
		c.schema.Package = pkg.Name().String()
		if !validPackage(pkg.Name()) {
			c.err(errInvalidPackage(pkg))
		}
	}
	c.compileOptions()

	for _, decl := range c.file.Decls() {
		switch decl := decl.(type) {
		case *syntax.Message:
			c.declare("message", decl.Name())
		case *syntax.Service:
			c.declare("service", decl.Name())
		}
	}
	for _, msg := range c.file.Messages() {
		c.schema.Messages = append(c.schema.Messages, c.compileMessage(msg))
	}
	for _, svc := range c.file.Services() {
		c.schema.Services = append(c.schema.Services, c.compileService(svc))
	}
}

func validPackage(path *syntax.Path) bool {
	for _, part := range path.Parts() {
		name := part.Get()
		if name == "" {
			return false
		}
		if c := name[0]; !('a' <= c && c <= 'z') && !('A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}

func (c *compiler) declare(kind string, name *syntax.Ident) {
	prev, ok := c.decls[name.Get()]
	if !ok {
		c.decls[name.Get()] = kind
		return
	}
	if prev == kind {
		c.err(errDuplicateDecl(kind, c.schema.Package, name))
	} else {
		c.err(errDeclKindConflict(kind, prev, c.schema.Package, name))
	}
}

func (c *compiler) compileOptions() {
	seen := make(map[string]bool)
	for _, opt := range c.file.Options() {
		name := opt.Name().String()
		if seen[name] {
			c.err(errMalformedOption(opt, c.schema.Package, "option is set more than once"))
			continue
		}
		seen[name] = true
		c.schema.Annotations = append(c.schema.Annotations, &schema.Annotation{
			Name: schema.AnnotationOption,
			Pairs: []*schema.Pair{
				{Key: name, Value: lowerValue(opt.Value())},
			},
		})
	}
}

func (c *compiler) compileMessage(node *syntax.Message) *schema.Message {
	name := node.Name().Get()
	msg := &schema.Message{
		Name:   name,
		Source: sourcePos(node),
	}
	anns := c.compileAnnotations(node.Annotations(), targetMessage, c.schema.Package, name)
	msg.Docs, msg.Annotations = anns.docs, anns.annotations
	if anns.source != nil {
		msg.Source = *anns.source
	}

	seen := make(map[string]bool)
	for _, fieldNode := range node.Fields() {
		fieldName := fieldNode.Name().Get()
		if seen[fieldName] {
			c.err(errDuplicateField(name, fieldNode.Name()))
		}
		seen[fieldName] = true
		msg.Fields = append(msg.Fields, c.compileField(name, fieldNode))
	}
	c.numberFields(node, msg)
	return msg
}

func (c *compiler) compileField(msgName string, node *syntax.Field) *schema.Field {
	name := node.Name().Get()
	field := &schema.Field{
		Name:     name,
		Type:     c.resolveType(msgName, name, node.FieldType()),
		Optional: node.Optional(),
		Source:   sourcePos(node),
	}
	if label := node.Label(); label != nil && label.Get() == "required" {
		c.warn(warnRequiredHasNoEffect(label))
	}
	anns := c.compileAnnotations(node.Annotations(), targetField, msgName, name)
	field.Docs, field.Annotations = anns.docs, anns.annotations
	if anns.source != nil {
		field.Source = *anns.source
	}
	return field
}

// numberFields assigns field numbers. A field without an explicit number
// gets its 1-based position in the message. Explicit and automatic numbers
// share one space, so any collision is an error.
func (c *compiler) numberFields(node *syntax.Message, msg *schema.Message) {
	msgName := msg.Name
	explicit := make(map[uint32]string)
	var haveExplicit, haveAuto, collided bool

	for ii, fieldNode := range node.Fields() {
		lit := fieldNode.Number()
		if lit == nil {
			continue
		}
		haveExplicit = true
		field := msg.Fields[ii]
		number, ok := lit.GetUint32()
		if !ok || number == 0 || number > maxFieldNumber {
			c.err(errFieldNumberOutOfRange(msgName, field.Name, lit))
			collided = true
			continue
		}
		if prev, dup := explicit[number]; dup {
			c.err(errDuplicateFieldNumber(msgName, field.Name, prev, number, lit))
			collided = true
			continue
		}
		explicit[number] = field.Name
		field.Number = number
	}

	for ii, fieldNode := range node.Fields() {
		if fieldNode.Number() != nil {
			continue
		}
		haveAuto = true
		field := msg.Fields[ii]
		number := uint32(ii + 1)
		if owner, taken := explicit[number]; taken {
			c.err(errAutoNumberCollision(msgName, field.Name, owner, number, fieldNode.Name()))
			collided = true
			continue
		}
		field.Number = number
	}

	if haveExplicit && haveAuto && !collided {
		c.warn(warnMixedNumbering(node))
	}
}

func (c *compiler) compileService(node *syntax.Service) *schema.Service {
	name := node.Name().Get()
	svc := &schema.Service{
		Name:           name,
		Source:         sourcePos(node),
		GenerateClient: true,
		GenerateServer: true,
	}
	anns := c.compileAnnotations(node.Annotations(), targetService, c.schema.Package, name)
	svc.Docs, svc.Annotations = anns.docs, anns.annotations
	if anns.source != nil {
		svc.Source = *anns.source
	}
	if anns.client != nil {
		svc.GenerateClient = *anns.client
	}
	if anns.server != nil {
		svc.GenerateServer = *anns.server
	}

	if len(node.Methods()) == 0 {
		c.warn(warnEmptyService(node))
	}
	seen := make(map[string]bool)
	for _, methodNode := range node.Methods() {
		methodName := methodNode.Name().Get()
		if seen[methodName] {
			c.err(errDuplicateMethod(name, methodNode.Name()))
		}
		seen[methodName] = true
		svc.Methods = append(svc.Methods, c.compileMethod(name, methodNode))
	}
	return svc
}

func (c *compiler) compileMethod(svcName string, node *syntax.Method) *schema.Method {
	name := node.Name().Get()
	entity := svcName + "." + name
	method := &schema.Method{
		Name:   name,
		Source: sourcePos(node),
	}
	if input := node.Input(); input != nil {
		method.Input = c.resolveType(svcName, entity, input)
	}
	if output := node.Output(); output != nil {
		method.Output = c.resolveType(svcName, entity, output)
	}
	anns := c.compileAnnotations(node.Annotations(), targetMethod, svcName, name)
	method.Docs, method.Annotations = anns.docs, anns.annotations
	if anns.source != nil {
		method.Source = *anns.source
	}
	return method
}

// resolveType maps a type reference to a builtin kind or to a message
// declared in this file. Message names may be qualified with the package.
func (c *compiler) resolveType(scope, entity string, ref *syntax.TypeRef) *schema.Type {
	parts := ref.Name().Parts()
	if len(parts) == 1 {
		if kind, ok := schema.BuiltinKind(parts[0].Get()); ok {
			return schema.Builtin(kind)
		}
	}
	name := ref.Name().String()
	if pkg := c.schema.Package; pkg != "" {
		name = strings.TrimPrefix(name, pkg+".")
	}
	if c.decls[name] == "message" {
		return schema.MessageRef(name)
	}
	c.err(errUnresolvedType(scope, entity, ref))
	return nil
}

func sourcePos(node syntax.Node) schema.Pos {
	pos := node.Pos()
	return schema.Pos{Line: pos.Line, Col: pos.Col}
}

func lowerValue(v *syntax.Value) *schema.Value {
	switch v.Kind() {
	case syntax.ValueInt:
		lit := v.Int()
		if lit.IsNegative() {
			n, _ := lit.GetInt64()
			return schema.IntValue(n)
		}
		n, _ := lit.GetUint64()
		return schema.UintValue(n)
	case syntax.ValueFloat:
		return schema.FloatValue(v.Float())
	case syntax.ValueBool:
		return schema.BoolValue(v.Bool())
	case syntax.ValueText:
		return schema.TextValue(v.Text().Get())
	case syntax.ValueIdent:
		return schema.IdentValue(v.Ident().String())
	}
	panic(fmt.Sprintf("unknown value kind %d", v.Kind()))
}
