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

package schema_test

import (
	"crypto/sha256"
	"math"
	"strings"
	"testing"

	"github.com/frodobuf/frodobuf/internal/testutil"
	"github.com/frodobuf/frodobuf/schema"
)

func TestIdentifierText(t *testing.T) {
	t.Parallel()

	id := schema.Identifier(sha256.Sum256([]byte("midl")))
	text := id.String()
	testutil.ExpectEq(t, 43, len(text))
	testutil.ExpectFalse(t, strings.HasSuffix(text, "="))

	parsed, err := schema.ParseIdentifier(text)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, id, parsed)

	_, err = schema.ParseIdentifier("AAAA")
	testutil.AssertError(t, err)

	testutil.ExpectTrue(t, schema.Identifier{}.IsZero())
	testutil.ExpectFalse(t, id.IsZero())
}

func TestBuiltinKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want schema.Kind
	}{
		{"bool", schema.KindBool},
		{"int8", schema.KindInt8},
		{"uint8", schema.KindUint8},
		{"float", schema.KindFloat32},
		{"float32", schema.KindFloat32},
		{"double", schema.KindFloat64},
		{"float64", schema.KindFloat64},
		{"bytes", schema.KindBytes},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := schema.BuiltinKind(test.name)
			testutil.ExpectTrue(t, ok)
			testutil.ExpectEq(t, test.want, got)
		})
	}

	_, ok := schema.BuiltinKind("sint32")
	testutil.ExpectFalse(t, ok)
	_, ok = schema.BuiltinKind("message")
	testutil.ExpectFalse(t, ok)
}

func TestKindPredicates(t *testing.T) {
	t.Parallel()

	testutil.ExpectTrue(t, schema.KindInt32.IsScalar())
	testutil.ExpectTrue(t, schema.KindFloat64.IsScalar())
	testutil.ExpectFalse(t, schema.KindString.IsScalar())
	testutil.ExpectFalse(t, schema.KindMessage.IsScalar())
	testutil.ExpectTrue(t, schema.KindUint64.IsInteger())
	testutil.ExpectFalse(t, schema.KindBool.IsInteger())
	testutil.ExpectEq(t, "Kind(99)", schema.Kind(99).String())
}

func TestTypeString(t *testing.T) {
	t.Parallel()

	var void *schema.Type
	testutil.ExpectEq(t, "void", void.String())
	testutil.ExpectEq(t, "int16", schema.Builtin(schema.KindInt16).String())
	testutil.ExpectEq(t, "Foo", schema.MessageRef("Foo").String())
	testutil.ExpectTrue(t, schema.MessageRef("Foo").Equal(schema.MessageRef("Foo")))
	testutil.ExpectFalse(t, schema.MessageRef("Foo").Equal(nil))
}

func TestAnnotationString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ann  *schema.Annotation
		want string
	}{
		{&schema.Annotation{Name: "deprecated"}, "@deprecated"},
		{&schema.Annotation{Name: "doc", Value: schema.TextValue("hi \"there\"")}, `@doc("hi \"there\"")`},
		{&schema.Annotation{
			Name: "codegen",
			Pairs: []*schema.Pair{
				{Key: "client", Value: schema.BoolValue(false)},
				{Key: "retries", Value: schema.IntValue(-3)},
			},
		}, "@codegen(client = false, retries = -3)"},
		{&schema.Annotation{Name: "max", Value: schema.UintValue(math.MaxUint64)}, "@max(18446744073709551615)"},
		{&schema.Annotation{Name: "ratio", Value: schema.FloatValue(math.Inf(-1))}, "@ratio(-inf)"},
		{&schema.Annotation{Name: "ref", Value: schema.IdentValue("a.b")}, "@ref(a.b)"},
	}
	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			testutil.ExpectEq(t, test.want, test.ann.String())
		})
	}
}

func TestUintValue(t *testing.T) {
	t.Parallel()

	small := schema.UintValue(5)
	testutil.ExpectEq(t, schema.ValueInt, small.Kind)
	big := schema.UintValue(math.MaxUint64)
	testutil.ExpectEq(t, schema.ValueUint, big.Kind)

	n, ok := big.AsUint()
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, uint64(math.MaxUint64), n)

	_, ok = schema.IntValue(-1).AsUint()
	testutil.ExpectFalse(t, ok)

	testutil.ExpectTrue(t, schema.FloatValue(math.NaN()).Equal(schema.FloatValue(math.NaN())))
}

func TestLookups(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{
		Package: "p",
		Messages: []*schema.Message{
			{Name: "Foo", Fields: []*schema.Field{{Name: "a", Number: 1}}},
		},
		Services: []*schema.Service{
			{Name: "Bar", Methods: []*schema.Method{{Name: "baz"}}},
		},
		Annotations: []*schema.Annotation{
			{Name: schema.AnnotationOption, Pairs: []*schema.Pair{
				{Key: "go_package", Value: schema.TextValue("example.com/p")},
			}},
		},
	}
	testutil.ExpectTrue(t, s.Message("Foo") != nil)
	testutil.ExpectTrue(t, s.Message("Bar") == nil)
	testutil.ExpectEq(t, uint32(1), s.Message("Foo").Field("a").Number)
	testutil.ExpectTrue(t, s.Service("Bar").Method("baz") != nil)
	testutil.ExpectEq(t, "example.com/p", s.Option("go_package").Text)
	testutil.ExpectTrue(t, s.Option("missing") == nil)
}
