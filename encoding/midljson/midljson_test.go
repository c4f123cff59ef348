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

package midljson_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/frodobuf/frodobuf/compiler"
	"github.com/frodobuf/frodobuf/encoding/midljson"
	"github.com/frodobuf/frodobuf/internal/testutil"
	"github.com/frodobuf/frodobuf/schema"
)

const src = `package demo.v1;

option go_package = "example.com/demo";

@doc("A greeting.")
message Hello {
    string name;
    @custom(big = 18446744073709551615, ratio = -2.5, id = some::Const)
    uint64 count? = 7;
    Hello reply?;
}

@codegen(client = false)
service Greeter {
    rpc greet(Hello) -> Hello;
    rpc ping;
}
`

func compile(t *testing.T) *schema.Schema {
	t.Helper()
	result, err := compiler.CompileSource([]byte(src), compiler.WithSourcePath("demo.midl"))
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, result.Err())
	return result.Schema
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	want := compile(t)
	for name, encode := range map[string]func(*schema.Schema) ([]byte, error){
		"compact": midljson.Encode,
		"pretty":  midljson.EncodePretty,
	} {
		t.Run(name, func(t *testing.T) {
			data, err := encode(want)
			testutil.AssertNoError(t, err)

			got, err := midljson.Decode(data)
			testutil.AssertNoError(t, err)
			testutil.ExpectDeepEq(t, want, got, cmpopts.EquateEmpty())
			testutil.ExpectEq(t, want.ID, got.ID)
		})
	}
}

func TestDocumentShape(t *testing.T) {
	t.Parallel()

	s := compile(t)
	doc := midljson.FromSchema(s)
	testutil.ExpectEq(t, "demo.v1", doc.Package)
	testutil.ExpectEq(t, s.ID.String(), doc.ID)
	testutil.ExpectEq(t, "demo.midl", doc.SourcePath)
	testutil.ExpectEq(t, "6:1", doc.Messages[0].Source)

	count := doc.Messages[0].Fields[1]
	testutil.ExpectEq(t, "uint64", count.Type.Scalar)
	testutil.ExpectEq(t, uint32(7), count.Number)
	testutil.ExpectTrue(t, count.Optional)
	testutil.ExpectEq(t, "uint", count.Annotations[0].Pairs[0].Value.Kind)
	testutil.ExpectEq(t, "18446744073709551615", count.Annotations[0].Pairs[0].Value.Text)
	testutil.ExpectEq(t, "-2.5", count.Annotations[0].Pairs[1].Value.Text)
	testutil.ExpectEq(t, "some.Const", count.Annotations[0].Pairs[2].Value.Text)

	reply := doc.Messages[0].Fields[2]
	testutil.ExpectEq(t, "Hello", reply.Type.Message)

	ping := doc.Services[0].Methods[1]
	testutil.ExpectTrue(t, ping.Input == nil)
	testutil.ExpectTrue(t, ping.Output == nil)
	testutil.ExpectFalse(t, doc.Services[0].Client)
	testutil.ExpectTrue(t, doc.Services[0].Server)
}

func TestPrettyIsIndented(t *testing.T) {
	t.Parallel()

	data, err := midljson.EncodePretty(compile(t))
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, bytes.HasPrefix(data, []byte("{\n  \"package\": \"demo.v1\",\n")))
	testutil.ExpectTrue(t, bytes.HasSuffix(data, []byte("}\n")))
}

func TestRejectsTamperedDocument(t *testing.T) {
	t.Parallel()

	data, err := midljson.Encode(compile(t))
	testutil.AssertNoError(t, err)

	tampered := bytes.Replace(data, []byte(`"name":"name"`), []byte(`"name":"nom"`), 1)
	testutil.ExpectFalse(t, bytes.Equal(data, tampered))
	_, err = midljson.Decode(tampered)
	testutil.AssertError(t, err)
	testutil.ExpectTrue(t, strings.Contains(err.Error(), "identifier mismatch"))
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"syntax":        `{"package":`,
		"unknown field": `{"package":"p","messages":[],"services":[],"extra":1}`,
		"unknown scalar": `{"package":"p","messages":[{"name":"M","fields":[
			{"name":"a","type":{"scalar":"int128"},"number":1}]}],"services":[]}`,
		"ambiguous type": `{"package":"p","messages":[{"name":"M","fields":[
			{"name":"a","type":{"scalar":"bool","message":"M"},"number":1}]}],"services":[]}`,
		"missing type": `{"package":"p","messages":[{"name":"M","fields":[
			{"name":"a","number":1}]}],"services":[]}`,
		"bad value": `{"package":"p","annotations":[{"name":"x","value":{"kind":"int","text":"one"}}],
			"messages":[],"services":[]}`,
		"bad position": `{"package":"p","messages":[{"name":"M","source":"here","fields":[]}],"services":[]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := midljson.Decode([]byte(doc))
			testutil.AssertError(t, err)
			testutil.ExpectTrue(t, strings.HasPrefix(err.Error(), "midljson: invalid document"))
		})
	}
}

func TestNonFiniteFloats(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{
		Package: "p",
		Annotations: []*schema.Annotation{{
			Name:  "limits",
			Pairs: []*schema.Pair{{Key: "nan", Value: schema.FloatValue(math.NaN())}},
		}},
	}
	data, err := midljson.Encode(s)
	testutil.AssertNoError(t, err)
	got, err := midljson.Decode(data)
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, got.Annotations[0].Pairs[0].Value.Equal(schema.FloatValue(math.NaN())))
}
