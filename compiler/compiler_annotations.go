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

package compiler

import (
	"fmt"
	"math"

	"github.com/frodobuf/frodobuf/schema"
	"github.com/frodobuf/frodobuf/syntax"
)

type target uint8

const (
	targetMessage target = iota + 1
	targetField
	targetService
	targetMethod
)

func (t target) String() string {
	switch t {
	case targetMessage:
		return "message"
	case targetField:
		return "field"
	case targetService:
		return "service"
	case targetMethod:
		return "method"
	}
	return fmt.Sprintf("target(%d)", uint8(t))
}

// lowered holds the annotations of one entity after the reserved names
// have been interpreted.
type lowered struct {
	docs        []string
	annotations []*schema.Annotation
	source      *schema.Pos
	client      *bool
	server      *bool
}

func (c *compiler) compileAnnotations(
	nodes []*syntax.Annotation,
	tgt target,
	scope string,
	entity string,
) lowered {
	var out lowered
	for _, node := range nodes {
		ann, reason := lowerAnnotation(node)
		if reason != "" {
			c.err(errMalformedAnnotation(node, scope, entity, reason))
			continue
		}
		switch ann.Name {
		case schema.AnnotationDoc:
			if ann.Value == nil || ann.Value.Kind != schema.ValueString {
				c.err(errMalformedAnnotation(node, scope, entity, "expected one text argument"))
				continue
			}
			out.docs = append(out.docs, ann.Value.Text)
		case schema.AnnotationSource:
			pos, reason := sourceAnnotation(ann)
			if reason != "" {
				c.err(errMalformedAnnotation(node, scope, entity, reason))
				continue
			}
			out.source = &pos
		case schema.AnnotationCodegen:
			if tgt != targetService {
				c.err(errInvalidAnnotationTarget(node, tgt.String(), scope, entity))
				continue
			}
			if reason := codegenAnnotation(ann, &out); reason != "" {
				c.err(errMalformedAnnotation(node, scope, entity, reason))
				continue
			}
			out.annotations = append(out.annotations, ann)
		case schema.AnnotationDefault:
			if tgt != targetField {
				c.err(errInvalidAnnotationTarget(node, tgt.String(), scope, entity))
				continue
			}
			if ann.Value == nil && (len(ann.Pairs) != 1 || ann.Pairs[0].Key != "value") {
				c.err(errMalformedAnnotation(node, scope, entity, "expected a value"))
				continue
			}
			out.annotations = append(out.annotations, ann)
		default:
			out.annotations = append(out.annotations, ann)
		}
	}
	return out
}

// lowerAnnotation converts the argument list. A non-empty reason means the
// arguments are malformed.
func lowerAnnotation(node *syntax.Annotation) (*schema.Annotation, string) {
	ann := &schema.Annotation{Name: node.Name().String()}
	var positional []*syntax.AnnotationArg
	seen := make(map[string]bool)
	for _, arg := range node.Args() {
		key := arg.Key()
		if key == nil {
			positional = append(positional, arg)
			continue
		}
		if seen[key.Get()] {
			return nil, fmt.Sprintf("duplicate key '%s'", key.Get())
		}
		seen[key.Get()] = true
		value := schema.BoolValue(true)
		if arg.Value() != nil {
			value = lowerValue(arg.Value())
		}
		ann.Pairs = append(ann.Pairs, &schema.Pair{Key: key.Get(), Value: value})
	}
	switch {
	case len(positional) > 0 && len(ann.Pairs) > 0:
		return nil, "mixes positional and named arguments"
	case len(positional) > 1:
		return nil, "takes at most one positional argument"
	case len(positional) == 1:
		ann.Value = lowerValue(positional[0].Value())
	}
	return ann, ""
}

func sourceAnnotation(ann *schema.Annotation) (schema.Pos, string) {
	var pos schema.Pos
	if len(ann.Pairs) == 0 {
		return pos, "expected 'line' and 'col'"
	}
	for _, pair := range ann.Pairs {
		n, ok := pair.Value.AsUint()
		if !ok || n > math.MaxUint32 {
			return pos, fmt.Sprintf("'%s' must be a non-negative integer", pair.Key)
		}
		switch pair.Key {
		case "line":
			pos.Line = uint32(n)
		case "col":
			pos.Col = uint32(n)
		default:
			return pos, fmt.Sprintf("unknown key '%s'", pair.Key)
		}
	}
	return pos, ""
}

func codegenAnnotation(ann *schema.Annotation, out *lowered) string {
	if len(ann.Pairs) == 0 {
		return "expected 'client' or 'server'"
	}
	for _, pair := range ann.Pairs {
		if pair.Value.Kind != schema.ValueBool {
			return fmt.Sprintf("'%s' must be true or false", pair.Key)
		}
		enabled := pair.Value.Bool
		switch pair.Key {
		case "client":
			out.client = &enabled
		case "server":
			out.server = &enabled
		default:
			return fmt.Sprintf("unknown key '%s'", pair.Key)
		}
	}
	return ""
}
