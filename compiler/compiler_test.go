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

package compiler_test

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"

	"github.com/frodobuf/frodobuf/compiler"
	"github.com/frodobuf/frodobuf/encoding/midltext"
	"github.com/frodobuf/frodobuf/internal/testutil"
	"github.com/frodobuf/frodobuf/schema"
	"github.com/frodobuf/frodobuf/syntax"
)

var (
	testdata       fs.FS
	schemaErrors   map[string]*testutil.SchemaError
	schemaWarnings map[string]*testutil.SchemaWarning
)

func init() {
	var err error
	testdata, err = testutil.TestdataFS()
	if err != nil {
		panic(err)
	}
	schemaErrors, err = testutil.LoadSchemaErrors(testdata)
	if err != nil {
		panic(err)
	}
	schemaWarnings, err = testutil.LoadSchemaWarnings(testdata)
	if err != nil {
		panic(err)
	}
}

func runSchemaCase(t *testing.T, name string) {
	t.Parallel()

	dir := "schema/" + name
	result := compileTestInput(t, name)

	if _, err := fs.Stat(testdata, dir+"/expect_err.json"); err == nil {
		want := testutil.LoadExpectedErrors(t, schemaErrors, testdata, dir+"/expect_err.json")
		if len(want) == 0 {
			t.Fatalf("%s/expect_err.json lists no errors", dir)
		}
		if result.Schema != nil {
			t.Errorf("expected nil schema when compilation fails")
		}
		testutil.ExpectDiagnostics(t, result.Errors, want)
		return
	}

	for _, err := range result.Errors {
		testutil.ExpectNoError(t, err)
	}
	if t.Failed() {
		t.FailNow()
	}

	var wantWarnings []*testutil.ExpectedWarning
	if _, err := fs.Stat(testdata, dir+"/expect_warn.json"); err == nil {
		wantWarnings = testutil.LoadExpectedWarnings(t, schemaWarnings, testdata, dir+"/expect_warn.json")
	}
	testutil.ExpectDiagnostics(t, result.Warnings, wantWarnings)

	golden, err := fs.ReadFile(testdata, dir+"/expect_ok.txt")
	testutil.AssertNoError(t, err)
	got := midltext.Encode(result.Schema, midltext.WithoutIdentity(), midltext.WithoutProvenance())
	testutil.ExpectNoDiff(t, string(golden), got)
}

func compileTestInput(t *testing.T, testName string) compiler.CompileResult {
	srcPath := fmt.Sprintf("schema/%s/%s.midl", testName, testName)
	src, err := fs.ReadFile(testdata, srcPath)
	testutil.AssertNoError(t, err)

	file, err := syntax.Parse(src)
	testutil.AssertNoError(t, err)
	return compiler.Compile(file, compiler.WithSourcePath(srcPath))
}

func TestSchema(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(testdata, "schema")
	testutil.AssertNoError(t, err)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		t.Run(entry.Name(), func(t *testing.T) {
			runSchemaCase(t, entry.Name())
		})
	}
}

func mustCompile(t *testing.T, src string, opts ...compiler.CompileOption) *schema.Schema {
	t.Helper()
	result, err := compiler.CompileSource([]byte(src), opts...)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, result.Err())
	return result.Schema
}

func TestEndToEndExample(t *testing.T) {
	t.Parallel()

	s := mustCompile(t, `
package p;
message Foo { string a; int32 b; }
service Bar { rpc baz(Foo) returns (Foo); }
`)
	testutil.ExpectEq(t, "p", s.Package)
	testutil.ExpectEq(t, 1, len(s.Messages))

	foo := s.Message("Foo")
	testutil.ExpectEq(t, 2, len(foo.Fields))
	testutil.ExpectEq(t, "a", foo.Fields[0].Name)
	testutil.ExpectEq(t, uint32(1), foo.Fields[0].Number)
	testutil.ExpectEq(t, schema.KindString, foo.Fields[0].Type.Kind)
	testutil.ExpectEq(t, "b", foo.Fields[1].Name)
	testutil.ExpectEq(t, uint32(2), foo.Fields[1].Number)
	testutil.ExpectEq(t, schema.KindInt32, foo.Fields[1].Type.Kind)

	bar := s.Service("Bar")
	testutil.ExpectEq(t, 1, len(bar.Methods))
	baz := bar.Method("baz")
	testutil.ExpectTrue(t, baz.Input.Equal(schema.MessageRef("Foo")))
	testutil.ExpectTrue(t, baz.Output.Equal(schema.MessageRef("Foo")))
	testutil.ExpectFalse(t, bar.ID.IsZero())
	testutil.ExpectFalse(t, s.ID.IsZero())
	testutil.ExpectTrue(t, len(bar.Canonical) > 0)
}

func TestEquivalentSyntax(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
	}{
		{
			"optional keyword and question mark",
			"package p; message M { optional string s; }",
			"package p; message M { string s?; }",
		},
		{
			"empty returns and no returns",
			"package p; service S { rpc echo(string) returns (); }",
			"package p; service S { rpc echo(string); }",
		},
		{
			"returns and arrow",
			"package p; message M {} service S { rpc f(M) returns (M); }",
			"package p; message M {} service S { rpc f(M) -> M; }",
		},
		{
			"explicit and automatic numbers",
			"package p; message M { string a = 1; string b = 2; }",
			"package p; message M { string a; string b; }",
		},
		{
			"float aliases",
			"package p; message M { float a; double b; }",
			"package p; message M { float32 a; float64 b; }",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			a := mustCompile(t, test.a)
			b := mustCompile(t, test.b)
			testutil.ExpectNoDiff(t,
				midltext.Encode(a, midltext.WithoutProvenance()),
				midltext.Encode(b, midltext.WithoutProvenance()),
			)
			testutil.ExpectEq(t, a.ID, b.ID)
		})
	}
}

func TestProvenance(t *testing.T) {
	t.Parallel()

	s := mustCompile(t, "package p;\n\nmessage A {\n  string x;\n}\n\n@_source(line = 40, col = 3)\nmessage B {}\n",
		compiler.WithSourcePath("dir/p.midl"),
	)
	testutil.ExpectEq(t, compiler.Version, s.ParserVersion)
	testutil.ExpectEq(t, "dir/p.midl", s.SourcePath)
	testutil.ExpectEq(t, schema.Pos{Line: 3, Col: 1}, s.Message("A").Source)
	testutil.ExpectEq(t, schema.Pos{Line: 4, Col: 3}, s.Message("A").Fields[0].Source)
	testutil.ExpectEq(t, schema.Pos{Line: 40, Col: 3}, s.Message("B").Source)
	testutil.ExpectEq(t, 0, len(s.Message("B").Annotations))
}

func TestSourcePathDoesNotAffectIdentity(t *testing.T) {
	t.Parallel()

	src := "package p; service S { rpc f; }"
	a := mustCompile(t, src, compiler.WithSourcePath("a.midl"))
	b := mustCompile(t, src, compiler.WithSourcePath("b.midl"))
	testutil.ExpectEq(t, a.ID, b.ID)
	testutil.ExpectEq(t, a.Service("S").ID, b.Service("S").ID)
}

func TestCodegenFlags(t *testing.T) {
	t.Parallel()

	s := mustCompile(t, `
package p;
@codegen(client = false)
service A { rpc f; }
service B { rpc f; }
`)
	testutil.ExpectFalse(t, s.Service("A").GenerateClient)
	testutil.ExpectTrue(t, s.Service("A").GenerateServer)
	testutil.ExpectTrue(t, s.Service("B").GenerateClient)
	testutil.ExpectTrue(t, s.Service("B").GenerateServer)
}

func TestOpaqueAnnotations(t *testing.T) {
	t.Parallel()

	s := mustCompile(t, `
package p;
message M {
    @vendor.hint(weight = 18446744073709551615, scale = -3, ratio = inf)
    string a;
}
`)
	anns := s.Message("M").Fields[0].Annotations
	testutil.ExpectEq(t, 1, len(anns))
	testutil.ExpectEq(t, "vendor.hint", anns[0].Name)
	testutil.ExpectEq(t, schema.ValueUint, anns[0].Get("weight").Kind)
	testutil.ExpectEq(t, int64(-3), anns[0].Get("scale").Int)
	testutil.ExpectEq(t, "inf", anns[0].Get("ratio").String())
}

func TestTopLevelOptions(t *testing.T) {
	t.Parallel()

	s := mustCompile(t, `
package p;
option go_package = "example.com/p";
option optimize_for = SPEED;
`)
	testutil.ExpectEq(t, "example.com/p", s.Option("go_package").Text)
	testutil.ExpectEq(t, "SPEED", s.Option("optimize_for").Ident)
	testutil.ExpectTrue(t, s.Option("missing") == nil)
}

func TestCompileSourceParseError(t *testing.T) {
	t.Parallel()

	result, err := compiler.CompileSource([]byte("package p; message M { sint32 a; }"))
	testutil.AssertError(t, err)
	testutil.ExpectTrue(t, result.Schema == nil)

	syntaxErr := testutil.AssertErrorAs[*syntax.Error](t, err)
	testutil.ExpectEq(t, syntax.ParseError, syntaxErr.Kind())
	testutil.ExpectCode(t, 2103, syntaxErr)
}

func TestCompileSourceAllowMissingPackage(t *testing.T) {
	t.Parallel()

	result, err := compiler.CompileSource(
		[]byte("message M {}"),
		compiler.WithParseOptions(syntax.AllowMissingPackage()),
	)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, result.Err())
	testutil.ExpectEq(t, "", result.Schema.Package)
}

func TestErrAggregatesErrors(t *testing.T) {
	t.Parallel()

	result, err := compiler.CompileSource([]byte(`
package p;
message A { Missing x; }
message A {}
`))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 2, len(result.Errors))

	aggregate := result.Err()
	testutil.AssertError(t, aggregate)

	var merr *multierror.Error
	testutil.ExpectTrue(t, errors.As(aggregate, &merr))
	testutil.ExpectEq(t, 2, len(merr.Errors))

	testutil.AssertErrorAs[*compiler.Error](t, aggregate)
	testutil.ExpectTrue(t, strings.HasPrefix(aggregate.Error(), "2 errors occurred"))
}

func TestErrorDetails(t *testing.T) {
	t.Parallel()

	result, err := compiler.CompileSource([]byte("package p;\nmessage M {\n  string a;\n  string a;\n}\n"))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 1, len(result.Errors))

	dup := result.Errors[0]
	testutil.ExpectEq(t, uint32(3002), dup.Code())
	testutil.ExpectEq(t, "a", dup.Entity())
	testutil.ExpectEq(t, "M", dup.Scope())
	testutil.ExpectEq(t, syntax.Pos{Line: 4, Col: 10}, dup.Pos())
	testutil.ExpectEq(t, "E3002: Duplicate field 'a' in message 'M'", dup.Error())
}

func TestWarningString(t *testing.T) {
	t.Parallel()

	result, err := compiler.CompileSource([]byte("package p; service S {}"))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 1, len(result.Warnings))
	testutil.ExpectEq(t, "W4002: Service 'S' declares no methods", result.Warnings[0].String())
}

func TestCompileIsReentrant(t *testing.T) {
	t.Parallel()

	src := []byte("package p; message M { string a; } service S { rpc f(M) -> M; }")
	file, err := syntax.Parse(src)
	testutil.AssertNoError(t, err)

	want := compiler.Compile(file).Schema.ID
	done := make(chan schema.Identifier, 8)
	for range 8 {
		go func() {
			done <- compiler.Compile(file).Schema.ID
		}()
	}
	for range 8 {
		testutil.ExpectEq(t, want, <-done)
	}
}
