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

package syntax_test

import (
	"bytes"
	"io/fs"
	"testing"

	"github.com/frodobuf/frodobuf/internal/testutil"
	"github.com/frodobuf/frodobuf/syntax"
)

func runSyntaxCase(t *testing.T, name string) {
	t.Parallel()

	dir := "syntax/" + name
	src, err := fs.ReadFile(testdata, dir+"/"+name+".midl")
	testutil.AssertNoError(t, err)
	file, err := syntax.Parse(src)

	if _, statErr := fs.Stat(testdata, dir+"/expect_err.json"); statErr == nil {
		want := testutil.LoadExpectedSyntaxError(t, syntaxErrors, testdata, dir+"/expect_err.json")
		parseErr := testutil.AssertErrorAs[*syntax.Error](t, err)
		testutil.ExpectDiagnostics(t, []*syntax.Error{parseErr}, []*testutil.Expected{want})
		testutil.ExpectEq(t, syntax.PosOf(src, want.Span.Start()), parseErr.Pos())
		return
	}

	testutil.AssertNoError(t, err)
	golden, err := fs.ReadFile(testdata, dir+"/expect_ok.json")
	testutil.AssertNoError(t, err)
	testutil.ExpectNoDiff(t, string(bytes.Trim(golden, "\n")), string(testutil.DumpOutline(file)))
}

func TestSyntax(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(testdata, "syntax")
	testutil.AssertNoError(t, err)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		t.Run(entry.Name(), func(t *testing.T) {
			runSyntaxCase(t, entry.Name())
		})
	}
}

func TestUnsupportedNamesFeature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src   string
		code  uint32
		found string
	}{
		{"package p; message M { oneof x { int32 a = 1; } }", 2101, "oneof"},
		{"package p; message M { sint32 a; }", 2103, "zigzag (sint) types"},
		{"package p; message M { reserved 1; }", 2105, "reserved"},
		{"package p; import \"x.proto\";", 2100, "import"},
		{"package p; message M { option x = 1; }", 2107, "nested option"},
		{"package p; service S { option x = 1; }", 2107, "nested option"},
	}
	for _, test := range tests {
		t.Run(test.found, func(t *testing.T) {
			_, err := syntax.Parse([]byte(test.src))
			parseErr := testutil.AssertErrorAs[*syntax.Error](t, err)
			testutil.ExpectCode(t, test.code, parseErr)
			testutil.ExpectEq(t, syntax.ParseError, parseErr.Kind())
			testutil.ExpectEq(t, test.found, parseErr.Found())
		})
	}
}

func TestExpectedFound(t *testing.T) {
	t.Parallel()

	_, err := syntax.Parse([]byte("package p;\nmessage M {\n  string a = x;\n}\n"))
	parseErr := testutil.AssertErrorAs[*syntax.Error](t, err)
	testutil.ExpectEq(t, "integer literal", parseErr.Expected())
	testutil.ExpectEq(t, "x", parseErr.Found())
	testutil.ExpectEq(t, syntax.Pos{Line: 3, Col: 14}, parseErr.Pos())
}

func TestOptionalForms(t *testing.T) {
	t.Parallel()

	msg, err := syntax.NewParseOptions().ParseMessage([]byte(
		"message M { optional string a; string b?; required string c; string d; }",
	))
	testutil.AssertNoError(t, err)

	var got []bool
	for _, field := range msg.Fields() {
		got = append(got, field.Optional())
	}
	testutil.ExpectSliceEq(t, []bool{true, true, false, false}, got)
}

func TestParseFragments(t *testing.T) {
	t.Parallel()

	svc, err := syntax.NewParseOptions().ParseService([]byte(
		"service S { rpc a(string) -> (string); rpc b; }",
	))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "S", svc.Name().Get())
	testutil.ExpectEq(t, 2, len(svc.Methods()))
	testutil.ExpectEq(t, syntax.NewSpan(0, 47), svc.Span())

	file, err := syntax.Parse([]byte("message M {}"), syntax.AllowMissingPackage())
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, file.Package() == nil)
	testutil.ExpectEq(t, 1, len(file.Messages()))
}

func TestTextEscapes(t *testing.T) {
	t.Parallel()

	file, err := syntax.Parse([]byte(`package p; option s = "a\tb\x41\101\\\"'";`))
	testutil.AssertNoError(t, err)
	value := file.Options()[0].Value()
	testutil.ExpectEq(t, syntax.ValueText, value.Kind())
	testutil.ExpectEq(t, "a\tbAA\\\"'", value.Text().Get())
}

func TestIntLitValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want int64
	}{
		{"0", 0},
		{"42", 42},
		{"-42", -42},
		{"0x2A", 42},
		{"052", 42},
		{"-9223372036854775808", -9223372036854775808},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			file, err := syntax.Parse([]byte("package p; option n = " + test.src + ";"))
			testutil.AssertNoError(t, err)
			got, ok := file.Options()[0].Value().Int().GetInt64()
			testutil.ExpectTrue(t, ok)
			testutil.ExpectEq(t, test.want, got)
		})
	}
}
