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
	"sort"
	"strconv"
	"unicode/utf8"
)

type ParseOption interface {
	apply(*ParseOptions)
}

type parseOptionFunc func(*ParseOptions)

func (f parseOptionFunc) apply(opts *ParseOptions) {
	f(opts)
}

// AllowMissingPackage disables the check for a `package` statement. It is
// used when parsing fragments of a schema.
func AllowMissingPackage() ParseOption {
	return parseOptionFunc(func(opts *ParseOptions) {
		opts.requirePackage = false
	})
}

func Parse(src []byte, opts ...ParseOption) (*File, error) {
	return NewParseOptions(opts...).ParseFile(src)
}

type ParseOptions struct {
	requirePackage bool
}

func NewParseOptions(opts ...ParseOption) *ParseOptions {
	parseOpts := &ParseOptions{
		requirePackage: true,
	}
	for _, opt := range opts {
		opt.apply(parseOpts)
	}
	return parseOpts
}

func (opts *ParseOptions) ParseFile(src []byte) (*File, error) {
	ctx, err := newParseCtx[File](opts, src)
	if err != nil {
		return nil, err
	}
	return parseFile(ctx)
}

func (opts *ParseOptions) ParseMessage(src []byte) (*Message, error) {
	ctx, err := newParseCtx[Message](opts, src)
	if err != nil {
		return nil, err
	}
	return parseMessage(ctx)
}

func (opts *ParseOptions) ParseService(src []byte) (*Service, error) {
	ctx, err := newParseCtx[Service](opts, src)
	if err != nil {
		return nil, err
	}
	return parseService(ctx)
}

type parseCtx[T any] struct {
	src       []byte
	lines     []uint32
	opts      *ParseOptions
	tokens    *Tokens
	haveToken bool
	token     Token
	err       error

	// offset of the current token
	offset uint32

	// number of non-trivia tokens consumed by this context
	consumed uint32
	start    uint32
	end      uint32
}

func newParseCtx[T any](opts *ParseOptions, src []byte) (*parseCtx[T], error) {
	tokens, err := NewTokens(src)
	if err != nil {
		return nil, err
	}
	lines := []uint32{0}
	for ii, c := range src {
		if c == '\n' {
			lines = append(lines, uint32(ii+1))
		}
	}
	return &parseCtx[T]{
		src:    src,
		lines:  lines,
		opts:   opts,
		tokens: tokens,
	}, nil
}

func (ctx *parseCtx[T]) posOf(offset uint32) Pos {
	line := sort.Search(len(ctx.lines), func(ii int) bool {
		return ctx.lines[ii] > offset
	}) - 1
	lineStart := ctx.lines[line]
	return Pos{
		Line: uint32(line + 1),
		Col:  1 + uint32(utf8.RuneCount(ctx.src[lineStart:offset])),
	}
}

func (ctx *parseCtx[T]) fail(err *Error) {
	if ctx.err == nil {
		ctx.err = err.locate(ctx.src)
	}
}

// ensureToken loads the next significant token, skipping whitespace and
// comments.
func (ctx *parseCtx[T]) ensureToken() error {
	if ctx.err != nil {
		return ctx.err
	}
	if ctx.haveToken {
		return nil
	}
	for {
		offset := ctx.tokens.offset
		if err := ctx.tokens.Next(&ctx.token); err != nil {
			ctx.err = err
			return ctx.err
		}
		if ctx.token.Kind.isTrivia() {
			continue
		}
		ctx.offset = offset
		ctx.haveToken = true
		return nil
	}
}

func (ctx *parseCtx[T]) readToken() string {
	return string(ctx.src[ctx.offset : ctx.offset+uint32(ctx.token.Len)])
}

func (ctx *parseCtx[T]) tokenSpan() Span {
	return Span{
		start: ctx.offset,
		len:   uint32(ctx.token.Len),
	}
}

func (ctx *parseCtx[T]) tokenBase() nodeBase {
	return nodeBase{
		span: ctx.tokenSpan(),
		pos:  ctx.posOf(ctx.offset),
	}
}

func (ctx *parseCtx[T]) consumeToken() {
	if ctx.consumed == 0 {
		ctx.start = ctx.offset
	}
	ctx.consumed += 1
	ctx.end = ctx.offset + uint32(ctx.token.Len)
	ctx.haveToken = false
}

func (ctx *parseCtx[T]) loop(yield func(struct{}) bool) {
	if ctx.err != nil {
		return
	}
	for {
		consumed := ctx.consumed
		if !yield(struct{}{}) {
			return
		}
		if ctx.err != nil {
			return
		}
		if consumed == ctx.consumed {
			return
		}
	}
}

func (ctx *parseCtx[T]) peek(kind TokenKind) bool {
	if err := ctx.ensureToken(); err != nil {
		return false
	}
	return ctx.token.Kind == kind
}

// peekKeyword returns the text of the current token if it is an identifier.
func (ctx *parseCtx[T]) peekKeyword() string {
	if err := ctx.ensureToken(); err != nil {
		return ""
	}
	if ctx.token.Kind != T_IDENT {
		return ""
	}
	return ctx.readToken()
}

func (ctx *parseCtx[T]) sigil(kind TokenKind) {
	if err := ctx.ensureToken(); err != nil {
		return
	}
	if ctx.token.Kind != kind {
		ctx.fail(errExpectedSigil(
			kind,
			ctx.token.Kind,
			ctx.readToken(),
			ctx.tokenSpan(),
		))
		return
	}
	ctx.consumeToken()
}

func (ctx *parseCtx[T]) trySigil(kind TokenKind) bool {
	if !ctx.peek(kind) {
		return false
	}
	ctx.consumeToken()
	return true
}

func (ctx *parseCtx[T]) tryKeyword(keyword string) *Keyword {
	if ctx.peekKeyword() != keyword {
		return nil
	}
	node := &Keyword{
		nodeBase: ctx.tokenBase(),
		raw:      keyword,
	}
	ctx.consumeToken()
	return node
}

func (ctx *parseCtx[T]) ident() *Ident {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	token := ctx.readToken()
	if ctx.token.Kind != T_IDENT {
		ctx.fail(errExpectedIdent(ctx.token.Kind, token, ctx.tokenSpan()))
		return nil
	}
	ident := &Ident{
		nodeBase: ctx.tokenBase(),
		raw:      token,
	}
	ctx.consumeToken()
	return ident
}

func (ctx *parseCtx[T]) int() *IntLit {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	token := ctx.readToken()

	switch ctx.token.Kind {
	case T_INT_LIT, T_OCT_INT_LIT, T_HEX_INT_LIT:
	default:
		ctx.fail(errExpectedIntLit(ctx.token.Kind, token, ctx.tokenSpan()))
		return nil
	}

	intNode, ok := newIntLit(token, ctx.token.Kind)
	if !ok {
		ctx.fail(errIntLitOutOfRange(token, ctx.tokenSpan()))
		return nil
	}
	intNode.nodeBase = ctx.tokenBase()
	ctx.consumeToken()
	return intNode
}

func (ctx *parseCtx[T]) text() *TextLit {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	token := ctx.readToken()

	if ctx.token.Kind != T_TEXT_LIT {
		ctx.fail(errExpectedTextLit(ctx.token.Kind, token, ctx.tokenSpan()))
		return nil
	}
	textNode, errOffset, escape := newTextLit(token, ctx.token.flags)
	if textNode == nil {
		ctx.fail(errTextLitInvalidEscape(ctx.offset+uint32(errOffset), escape))
		return nil
	}
	textNode.nodeBase = ctx.tokenBase()
	ctx.consumeToken()
	return textNode
}

func (ctx *parseCtx[T]) unsupported(u unsupported) {
	if err := ctx.ensureToken(); err != nil {
		return
	}
	ctx.fail(errUnsupported(u, ctx.readToken(), ctx.tokenSpan()))
}

func (ctx *parseCtx[T]) finish(build func(base nodeBase) *T) (*T, error) {
	if ctx.err != nil {
		return nil, ctx.err
	}
	base := nodeBase{
		span: Span{
			start: ctx.start,
			len:   ctx.end - ctx.start,
		},
		pos: ctx.posOf(ctx.start),
	}
	return build(base), nil
}

func parseChild[P any, C any](
	ctx *parseCtx[P],
	parseChildFn func(*parseCtx[C]) (*C, error),
) (*C, bool) {
	if ctx.err != nil {
		return nil, false
	}
	childCtx := &parseCtx[C]{
		src:       ctx.src,
		lines:     ctx.lines,
		opts:      ctx.opts,
		tokens:    ctx.tokens,
		haveToken: ctx.haveToken,
		token:     ctx.token,
		offset:    ctx.offset,
	}
	child, err := parseChildFn(childCtx)

	ctx.haveToken = childCtx.haveToken
	ctx.token = childCtx.token
	ctx.offset = childCtx.offset

	if err != nil {
		ctx.err = err
		return nil, false
	}
	if child == nil || childCtx.consumed == 0 {
		return nil, false
	}
	if ctx.consumed == 0 {
		ctx.start = childCtx.start
	}
	ctx.consumed += childCtx.consumed
	ctx.end = childCtx.end
	return child, true
}

func parseFile(ctx *parseCtx[File]) (*File, error) {
	file := &File{}
	var pending []*Annotation

	for range ctx.loop {
		if err := ctx.ensureToken(); err != nil {
			break
		}
		if ctx.token.Kind == T_EOF {
			break
		}
		if annotation, ok := parseChild(ctx, parseAnnotation); ok {
			pending = append(pending, annotation)
			continue
		}
		if ctx.peek(T_SEMICOLON) {
			ctx.consumeToken()
			continue
		}

		keyword := ctx.peekKeyword()
		switch keyword {
		case "message", "service":
		default:
			if len(pending) > 0 {
				ctx.fail(errDanglingAnnotations(pending[0].Span()))
				return nil, ctx.err
			}
		}

		switch keyword {
		case "package":
			span := ctx.tokenSpan()
			pkg, _ := parseChild(ctx, parsePackage)
			if pkg != nil && file.pkg != nil {
				ctx.fail(errDuplicatePackage(span))
			}
			file.pkg = pkg
		case "syntax":
			file.syntax = parseSyntax(ctx)
		case "option":
			if option, ok := parseChild(ctx, parseOption); ok {
				file.options = append(file.options, option)
			}
		case "message":
			if msg, ok := parseChild(ctx, parseMessage); ok {
				msg.annotations = pending
				file.messages = append(file.messages, msg)
				file.decls = append(file.decls, msg)
			}
			pending = nil
		case "service":
			if svc, ok := parseChild(ctx, parseService); ok {
				svc.annotations = pending
				file.services = append(file.services, svc)
				file.decls = append(file.decls, svc)
			}
			pending = nil
		case "import":
			ctx.unsupported(unsupportedImport)
		case "extend":
			ctx.unsupported(unsupportedExtend)
		case "enum":
			ctx.unsupported(unsupportedEnum)
		default:
			ctx.fail(errExpectedDeclaration(
				ctx.token.Kind,
				ctx.readToken(),
				ctx.tokenSpan(),
			))
		}
	}
	if ctx.err != nil {
		return nil, ctx.err
	}
	if len(pending) > 0 {
		ctx.fail(errDanglingAnnotations(pending[0].Span()))
		return nil, ctx.err
	}
	if file.pkg == nil && ctx.opts.requirePackage {
		ctx.fail(errMissingPackage(Span{start: uint32(len(ctx.src))}))
		return nil, ctx.err
	}

	return ctx.finish(func(base nodeBase) *File {
		file.nodeBase = base
		return file
	})
}

func parseSyntax(ctx *parseCtx[File]) *TextLit {
	ctx.tryKeyword("syntax")
	ctx.sigil(T_EQ)
	version := ctx.text()
	ctx.sigil(T_SEMICOLON)
	if version != nil && version.Get() != "proto3" {
		ctx.fail(errUnsupportedSyntax(version.Get(), version.Span()))
	}
	return version
}

func parsePackage(ctx *parseCtx[Package]) (*Package, error) {
	if ctx.tryKeyword("package") == nil {
		return nil, nil
	}
	name, _ := parseChild(ctx, parsePath)
	ctx.sigil(T_SEMICOLON)

	return ctx.finish(func(base nodeBase) *Package {
		return &Package{
			nodeBase: base,
			name:     name,
		}
	})
}

func parsePath(ctx *parseCtx[Path]) (*Path, error) {
	var parts []*Ident
	parts = append(parts, ctx.ident())
	for range ctx.loop {
		if !ctx.trySigil(T_DOT) && !ctx.trySigil(T_DOUBLE_COLON) {
			break
		}
		parts = append(parts, ctx.ident())
	}
	return ctx.finish(func(base nodeBase) *Path {
		return &Path{
			nodeBase: base,
			parts:    parts,
		}
	})
}

func parseOption(ctx *parseCtx[Option]) (*Option, error) {
	if ctx.tryKeyword("option") == nil {
		return nil, nil
	}
	if ctx.peek(T_OPEN_PAREN) {
		ctx.fail(errExpectedIdent(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan()))
		return nil, ctx.err
	}
	name, _ := parseChild(ctx, parsePath)
	ctx.sigil(T_EQ)
	value := parseConstValue(ctx)
	ctx.sigil(T_SEMICOLON)

	return ctx.finish(func(base nodeBase) *Option {
		return &Option{
			nodeBase: base,
			name:     name,
			value:    value,
		}
	})
}

func parseAnnotation(ctx *parseCtx[Annotation]) (*Annotation, error) {
	if !ctx.trySigil(T_AT) {
		return nil, nil
	}
	name, _ := parseChild(ctx, parsePath)

	var hasArgs bool
	var args []*AnnotationArg
	if ctx.trySigil(T_OPEN_PAREN) {
		hasArgs = true
		for range ctx.loop {
			if ctx.trySigil(T_CLOSE_PAREN) {
				break
			}
			arg, ok := parseChild(ctx, parseAnnotationArg)
			if !ok {
				if ctx.err == nil {
					ctx.sigil(T_CLOSE_PAREN)
				}
				break
			}
			args = append(args, arg)
			if !ctx.trySigil(T_COMMA) {
				ctx.sigil(T_CLOSE_PAREN)
				break
			}
		}
	}
	ctx.trySigil(T_SEMICOLON)

	return ctx.finish(func(base nodeBase) *Annotation {
		return &Annotation{
			nodeBase: base,
			name:     name,
			hasArgs:  hasArgs,
			args:     args,
		}
	})
}

func parseAnnotationArg(ctx *parseCtx[AnnotationArg]) (*AnnotationArg, error) {
	if err := ctx.ensureToken(); err != nil {
		return nil, err
	}

	var key *Ident
	var value *Value
	switch keyword := ctx.peekKeyword(); keyword {
	case "":
		value, _ = parseChild(ctx, parseValue)
	case "true", "false", "inf", "nan":
		value, _ = parseChild(ctx, parseValue)
	default:
		key = ctx.ident()
		if ctx.trySigil(T_EQ) {
			value = parseConstValue(ctx)
		}
	}
	return ctx.finish(func(base nodeBase) *AnnotationArg {
		return &AnnotationArg{
			nodeBase: base,
			key:      key,
			value:    value,
		}
	})
}

func parseConstValue[T any](ctx *parseCtx[T]) *Value {
	value, ok := parseChild(ctx, parseValue)
	if !ok && ctx.err == nil {
		ctx.fail(errExpectedValue(
			ctx.token.Kind,
			ctx.readToken(),
			ctx.tokenSpan(),
		))
	}
	return value
}

func parseValue(ctx *parseCtx[Value]) (*Value, error) {
	if err := ctx.ensureToken(); err != nil {
		return nil, err
	}
	value := &Value{}
	switch ctx.token.Kind {
	case T_INT_LIT, T_OCT_INT_LIT, T_HEX_INT_LIT:
		value.kind = ValueInt
		value.intV = ctx.int()
	case T_FLOAT_LIT:
		token := ctx.readToken()
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			ctx.fail(errNumLitInvalid(ctx.offset, []byte(token)))
			break
		}
		value.kind = ValueFloat
		value.float = f
		ctx.consumeToken()
	case T_TEXT_LIT:
		value.kind = ValueText
		value.text = ctx.text()
	case T_IDENT:
		switch ctx.readToken() {
		case "true", "false":
			value.kind = ValueBool
			value.b = ctx.readToken() == "true"
			ctx.consumeToken()
		case "inf", "nan":
			f, _ := strconv.ParseFloat(ctx.readToken(), 64)
			value.kind = ValueFloat
			value.float = f
			ctx.consumeToken()
		default:
			value.kind = ValueIdent
			value.ident, _ = parseChild(ctx, parsePath)
		}
	default:
		return nil, nil
	}
	return ctx.finish(func(base nodeBase) *Value {
		value.nodeBase = base
		return value
	})
}

func parseMessage(ctx *parseCtx[Message]) (*Message, error) {
	if ctx.tryKeyword("message") == nil {
		return nil, nil
	}
	name := ctx.ident()
	ctx.sigil(T_OPEN_CURL)

	var fields []*Field
	var pending []*Annotation
	for range ctx.loop {
		if err := ctx.ensureToken(); err != nil {
			break
		}
		if ctx.token.Kind == T_CLOSE_CURL {
			if len(pending) > 0 {
				ctx.fail(errDanglingAnnotations(pending[0].Span()))
				break
			}
			ctx.consumeToken()
			break
		}
		if annotation, ok := parseChild(ctx, parseAnnotation); ok {
			pending = append(pending, annotation)
			continue
		}
		if ctx.trySigil(T_SEMICOLON) {
			continue
		}
		switch ctx.token.Kind {
		case T_IDENT:
		case T_OPEN_SQUARE:
			ctx.unsupported(unsupportedArray)
			continue
		default:
			ctx.fail(errExpectedMember(
				"message",
				ctx.token.Kind,
				ctx.readToken(),
				ctx.tokenSpan(),
			))
			continue
		}
		switch ctx.readToken() {
		case "message":
			ctx.unsupported(unsupportedNestedMsg)
		case "enum":
			ctx.unsupported(unsupportedEnum)
		case "oneof":
			ctx.unsupported(unsupportedOneof)
		case "reserved":
			ctx.unsupported(unsupportedReserved)
		case "option":
			ctx.unsupported(unsupportedNestedOption)
		case "extensions":
			ctx.unsupported(unsupportedExtensions)
		case "extend":
			ctx.unsupported(unsupportedExtend)
		case "repeated":
			ctx.unsupported(unsupportedRepeated)
		default:
			if field, ok := parseChild(ctx, parseField); ok {
				field.annotations = pending
				fields = append(fields, field)
			}
			pending = nil
		}
	}

	return ctx.finish(func(base nodeBase) *Message {
		return &Message{
			nodeBase: base,
			name:     name,
			fields:   fields,
		}
	})
}

func parseField(ctx *parseCtx[Field]) (*Field, error) {
	label := ctx.tryKeyword("optional")
	if label == nil {
		label = ctx.tryKeyword("required")
	}
	if ctx.peekKeyword() == "repeated" {
		ctx.unsupported(unsupportedRepeated)
		return nil, ctx.err
	}
	fieldType, _ := parseChild(ctx, parseTypeRef)
	name := ctx.ident()
	question := ctx.trySigil(T_QUESTION)

	var number *IntLit
	if ctx.trySigil(T_EQ) {
		number = ctx.int()
	}
	if ctx.peek(T_OPEN_SQUARE) {
		ctx.unsupported(unsupportedFieldOptions)
	}
	ctx.sigil(T_SEMICOLON)

	return ctx.finish(func(base nodeBase) *Field {
		return &Field{
			nodeBase:  base,
			label:     label,
			fieldType: fieldType,
			name:      name,
			question:  question,
			number:    number,
		}
	})
}

func parseTypeRef(ctx *parseCtx[TypeRef]) (*TypeRef, error) {
	if err := ctx.ensureToken(); err != nil {
		return nil, err
	}
	switch ctx.token.Kind {
	case T_IDENT:
	case T_OPEN_SQUARE:
		ctx.unsupported(unsupportedArray)
		return nil, ctx.err
	default:
		ctx.fail(errExpectedType(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan()))
		return nil, ctx.err
	}

	switch ctx.readToken() {
	case "fixed32", "fixed64", "sfixed32", "sfixed64":
		ctx.unsupported(unsupportedFixed)
		return nil, ctx.err
	case "sint32", "sint64":
		ctx.unsupported(unsupportedSint)
		return nil, ctx.err
	case "stream":
		ctx.unsupported(unsupportedStream)
		return nil, ctx.err
	}

	mapSpan := ctx.tokenSpan()
	name, _ := parseChild(ctx, parsePath)
	if name != nil && name.String() == "map" && ctx.peek(T_LT) {
		ctx.fail(errUnsupported(unsupportedMap, "map", mapSpan))
		return nil, ctx.err
	}
	if ctx.peek(T_OPEN_SQUARE) {
		ctx.unsupported(unsupportedArray)
		return nil, ctx.err
	}

	return ctx.finish(func(base nodeBase) *TypeRef {
		return &TypeRef{
			nodeBase: base,
			name:     name,
		}
	})
}

func parseService(ctx *parseCtx[Service]) (*Service, error) {
	if ctx.tryKeyword("service") == nil {
		return nil, nil
	}
	name := ctx.ident()
	ctx.sigil(T_OPEN_CURL)

	var methods []*Method
	var pending []*Annotation
	for range ctx.loop {
		if err := ctx.ensureToken(); err != nil {
			break
		}
		if ctx.token.Kind == T_CLOSE_CURL {
			if len(pending) > 0 {
				ctx.fail(errDanglingAnnotations(pending[0].Span()))
				break
			}
			ctx.consumeToken()
			break
		}
		if annotation, ok := parseChild(ctx, parseAnnotation); ok {
			pending = append(pending, annotation)
			continue
		}
		if ctx.trySigil(T_SEMICOLON) {
			continue
		}
		switch ctx.peekKeyword() {
		case "rpc":
			if method, ok := parseChild(ctx, parseMethod); ok {
				method.annotations = pending
				methods = append(methods, method)
			}
			pending = nil
		case "option":
			ctx.unsupported(unsupportedNestedOption)
		case "stream":
			ctx.unsupported(unsupportedStream)
		default:
			ctx.fail(errExpectedMember(
				"service",
				ctx.token.Kind,
				ctx.readToken(),
				ctx.tokenSpan(),
			))
		}
	}

	return ctx.finish(func(base nodeBase) *Service {
		return &Service{
			nodeBase: base,
			name:     name,
			methods:  methods,
		}
	})
}

func parseMethod(ctx *parseCtx[Method]) (*Method, error) {
	if ctx.tryKeyword("rpc") == nil {
		return nil, nil
	}
	name := ctx.ident()

	var input, output *TypeRef
	if ctx.trySigil(T_OPEN_PAREN) {
		input = parseMethodParam(ctx)
	} else if kw := ctx.peekKeyword(); kw != "" && kw != "returns" {
		input, _ = parseChild(ctx, parseTypeRef)
	}

	if ctx.tryKeyword("returns") != nil || ctx.trySigil(T_ARROW) {
		if ctx.trySigil(T_OPEN_PAREN) {
			output = parseMethodParam(ctx)
		} else {
			output, _ = parseChild(ctx, parseTypeRef)
			if output == nil && ctx.err == nil {
				ctx.fail(errExpectedType(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan()))
			}
		}
	}

	if ctx.trySigil(T_OPEN_CURL) {
		for range ctx.loop {
			if ctx.trySigil(T_SEMICOLON) {
				continue
			}
			if ctx.peekKeyword() == "option" {
				ctx.unsupported(unsupportedNestedOption)
				break
			}
			ctx.sigil(T_CLOSE_CURL)
			break
		}
	} else {
		ctx.sigil(T_SEMICOLON)
	}

	return ctx.finish(func(base nodeBase) *Method {
		return &Method{
			nodeBase: base,
			name:     name,
			input:    input,
			output:   output,
		}
	})
}

// parseMethodParam parses the remainder of a parenthesized parameter list,
// which holds at most one type.
func parseMethodParam(ctx *parseCtx[Method]) *TypeRef {
	if ctx.trySigil(T_CLOSE_PAREN) {
		return nil
	}
	param, _ := parseChild(ctx, parseTypeRef)
	ctx.sigil(T_CLOSE_PAREN)
	return param
}
