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

package canonical_test

import (
	"bytes"
	"testing"

	"github.com/frodobuf/frodobuf/canonical"
	"github.com/frodobuf/frodobuf/compiler"
	"github.com/frodobuf/frodobuf/internal/testutil"
	"github.com/frodobuf/frodobuf/schema"
)

const exampleSrc = `package p;

message Foo {
    string a;
    int32 b;
}

service Bar {
    rpc baz(Foo) returns (Foo);
}
`

func compile(t *testing.T, src string) *schema.Schema {
	t.Helper()
	result, err := compiler.CompileSource([]byte(src))
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, result.Err())
	return result.Schema
}

func TestEncoding(t *testing.T) {
	t.Parallel()

	s := compile(t, exampleSrc)
	testutil.ExpectEq(t,
		`{"package":"p","messages":[{"name":"Foo","fields":[`+
			`{"name":"a","type":"string","optional":false,"number":1},`+
			`{"name":"b","type":"int32","optional":false,"number":2}]}]}`,
		string(canonical.Types(s)),
	)
	testutil.ExpectEq(t,
		`{"name":"Bar","methods":[{"name":"baz","input":{"message":"Foo"},"output":{"message":"Foo"}}]}`,
		string(canonical.Service(s.Services[0])),
	)
}

func TestKnownIdentifiers(t *testing.T) {
	t.Parallel()

	s := compile(t, exampleSrc)
	svc := s.Service("Bar")
	testutil.ExpectEq(t, "XDiw4FDqj+G46CiP3EYA7zvHWg2ybdDpSipzcec3Xk4", svc.ID.String())
	testutil.ExpectEq(t, "gGTSkBNfAbMSgc7xHbOG8cdy3NXzfVA2aRf/QYka8Zg", s.ID.String())
	testutil.ExpectEq(t, 43, len(svc.ID.String()))
	testutil.ExpectEq(t, canonical.ServiceIdentity(s, svc), svc.ID)
	testutil.ExpectEq(t, canonical.SchemaIdentity(s), s.ID)
	testutil.ExpectBytesEq(t, canonical.Service(svc), svc.Canonical)
}

func TestDeterminism(t *testing.T) {
	t.Parallel()

	a := compile(t, exampleSrc)
	b := compile(t, exampleSrc)
	testutil.ExpectBytesEq(t, canonical.Schema(a), canonical.Schema(b))
	testutil.ExpectEq(t, a.ID, b.ID)
	testutil.ExpectEq(t, a.Services[0].ID, b.Services[0].ID)
}

func TestIdentityInsensitive(t *testing.T) {
	t.Parallel()

	base := compile(t, `package p;
@doc("A foo.")
message Foo { string a; }
service Bar { rpc baz(Foo) returns (Foo); }
`)
	tests := map[string]string{
		"whitespace": `package   p ;


@doc("A foo.")
message Foo
{
	string a ;
}
service Bar {
	rpc baz ( Foo ) returns ( Foo ) ;
}
`,
		"comments": `// header comment
package p; /* block */
@doc("A foo.")
message Foo { string a; } // trailing
service Bar {
    // about baz
    rpc baz(Foo) returns (Foo);
}
`,
		"source location": `package p;
@doc("A foo.")
@_source(line = 999, col = 7)
message Foo { string a; }
service Bar { rpc baz(Foo) returns (Foo); }
`,
		"arrow": `package p;
@doc("A foo.")
message Foo { string a; }
service Bar { rpc baz(Foo) -> Foo; }
`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			s := compile(t, src)
			testutil.ExpectEq(t, base.ID, s.ID)
			testutil.ExpectEq(t, base.Services[0].ID, s.Services[0].ID)
		})
	}
}

func TestIdentitySensitive(t *testing.T) {
	t.Parallel()

	base := compile(t, `package p;
@doc("A foo.")
message Foo { string a; }
service Bar { rpc baz(Foo) returns (Foo); }
`)
	tests := map[string]string{
		"doc text": `package p;
@doc("A Foo.")
message Foo { string a; }
service Bar { rpc baz(Foo) returns (Foo); }
`,
		"field name": `package p;
@doc("A foo.")
message Foo { string b; }
service Bar { rpc baz(Foo) returns (Foo); }
`,
		"method name": `package p;
@doc("A foo.")
message Foo { string a; }
service Bar { rpc qux(Foo) returns (Foo); }
`,
		"optional": `package p;
@doc("A foo.")
message Foo { string a?; }
service Bar { rpc baz(Foo) returns (Foo); }
`,
		"field number": `package p;
@doc("A foo.")
message Foo { string a = 2; }
service Bar { rpc baz(Foo) returns (Foo); }
`,
		"package": `package q;
@doc("A foo.")
message Foo { string a; }
service Bar { rpc baz(Foo) returns (Foo); }
`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			s := compile(t, src)
			testutil.ExpectNotEq(t, base.ID, s.ID)
			testutil.ExpectNotEq(t, base.Services[0].ID, s.Services[0].ID)
		})
	}
}

func TestAnnotationPairOrder(t *testing.T) {
	t.Parallel()

	a := compile(t, `package p;
@custom(x = 1, y = "two")
service S { rpc f; }
`)
	b := compile(t, `package p;
@custom(y = "two", x = 1)
service S { rpc f; }
`)
	testutil.ExpectBytesEq(t, canonical.Service(a.Services[0]), canonical.Service(b.Services[0]))
	testutil.ExpectEq(t, a.Services[0].ID, b.Services[0].ID)
}

func TestValueKindsDoNotCollide(t *testing.T) {
	t.Parallel()

	a := compile(t, `package p; @custom(v = 1) service S { rpc f; }`)
	b := compile(t, `package p; @custom(v = "1") service S { rpc f; }`)
	testutil.ExpectNotEq(t, a.Services[0].ID, b.Services[0].ID)
}

func TestDeclarationOrderMatters(t *testing.T) {
	t.Parallel()

	a := compile(t, `package p; message M { string a; string b; }`)
	b := compile(t, `package p; message M { string b; string a; }`)
	testutil.ExpectNotEq(t, a.ID, b.ID)
}

func TestServiceIdentityDependsOnTypes(t *testing.T) {
	t.Parallel()

	a := compile(t, `package p; message Unused { string a; } service S { rpc f; }`)
	b := compile(t, `package p; message Unused { string b; } service S { rpc f; }`)
	testutil.ExpectBytesEq(t, canonical.Service(a.Services[0]), canonical.Service(b.Services[0]))
	testutil.ExpectNotEq(t, a.Services[0].ID, b.Services[0].ID)
}

func TestSourceAnnotationExcluded(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{
		Package: "p",
		Messages: []*schema.Message{{
			Name: "M",
			Annotations: []*schema.Annotation{{
				Name: schema.AnnotationSource,
				Pairs: []*schema.Pair{
					{Key: "line", Value: schema.IntValue(3)},
				},
			}},
		}},
		ParserVersion: "x",
		SourcePath:    "y",
	}
	got := canonical.Schema(s)
	testutil.ExpectFalse(t, bytes.Contains(got, []byte("_source")))
	testutil.ExpectFalse(t, bytes.Contains(got, []byte(`"x"`)))
	testutil.ExpectEq(t, `{"package":"p","messages":[{"name":"M","fields":[]}],"services":[]}`, string(got))
}
