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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"go.uber.org/goleak"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/frodobuf/frodobuf/encoding/midljson"
	"github.com/frodobuf/frodobuf/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const exampleSrc = `package p;

/// A thing.
message Foo {
    string a;
    int32 b;
}

service Bar {
    rpc baz(Foo) returns (Foo);
}
`

type result struct {
	code   int
	stdout string
	stderr string
}

// midl runs the CLI with an isolated config file.
func midl(t *testing.T, config string, args ...string) result {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "midl.toml")
	testutil.AssertNoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	code := a.execute(context.Background(), append(args, "--config="+configPath))
	return result{code, stdout.String(), stderr.String()}
}

func writeSchema(t *testing.T, dir, src string) string {
	t.Helper()
	path := filepath.Join(dir, "schema.midl")
	testutil.AssertNoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func expectExists(t *testing.T, path string) []byte {
	t.Helper()
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
	return buf
}

func TestUsage(t *testing.T) {
	t.Parallel()

	res := midl(t, "")
	testutil.ExpectEq(t, 1, res.code)
	testutil.ExpectMatch(t, "Usage:", res.stderr)

	res = midl(t, "", "frobnicate")
	testutil.ExpectEq(t, 1, res.code)
	testutil.ExpectMatch(t, "unknown command", res.stderr)
}

func TestExportJSON(t *testing.T) {
	t.Parallel()

	input := writeSchema(t, t.TempDir(), exampleSrc)
	for _, name := range []string{"export", "json", "schema"} {
		res := midl(t, "", name, "-i", input)
		testutil.ExpectEq(t, 0, res.code)
		testutil.ExpectEq(t, "", res.stderr)
		s, err := midljson.Decode([]byte(res.stdout))
		testutil.AssertNoError(t, err)
		testutil.ExpectEq(t, "p", s.Package)
		testutil.ExpectEq(t, 1, strings.Count(res.stdout, "\n"))
	}

	res := midl(t, "", "export", "--pretty", input)
	testutil.ExpectEq(t, 0, res.code)
	testutil.ExpectMatch(t, `(?m)^  "package": "p",$`, res.stdout)
}

func TestExportFormats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSchema(t, dir, exampleSrc)

	yamlPath := filepath.Join(dir, "out.yaml")
	testutil.ExpectEq(t, 0, midl(t, "", "export", "-i", input, "-o", yamlPath).code)
	testutil.ExpectMatch(t, `(?m)^package: p$`, string(expectExists(t, yamlPath)))

	res := midl(t, "", "export", "-i", input, "--format=text")
	testutil.ExpectEq(t, 0, res.code)
	testutil.ExpectMatch(t, `Foo`, res.stdout)

	res = midl(t, "", "export", "-i", input, "--format=proto")
	testutil.ExpectEq(t, 0, res.code)
	testutil.ExpectMatch(t, `(?m)^syntax = "proto3";$`, res.stdout)
	testutil.ExpectMatch(t, `(?m)^message Foo \{$`, res.stdout)

	pbPath := filepath.Join(dir, "out.pb")
	testutil.ExpectEq(t, 0, midl(t, "", "export", "-i", input, "-o", pbPath).code)
	var set descriptorpb.FileDescriptorSet
	testutil.AssertNoError(t, proto.Unmarshal(expectExists(t, pbPath), &set))
	testutil.ExpectEq(t, "p", set.GetFile()[len(set.GetFile())-1].GetPackage())

	res = midl(t, "", "export", "-i", input, "--format=xml")
	testutil.ExpectEq(t, 1, res.code)
	testutil.ExpectMatch(t, `unsupported output format "xml"`, res.stderr)
}

func TestExportFormatGuess(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ format, path, want string }{
		{"", "", "json"},
		{"", "out.json", "json"},
		{"", "out.YML", "yaml"},
		{"", "out.txt", "text"},
		{"", "out.proto", "proto"},
		{"", "out.binpb", "descriptor"},
		{"yaml", "out.json", "yaml"},
		{"midltext", "", "text"},
	} {
		got, err := exportFormat(tc.format, tc.path)
		testutil.AssertNoError(t, err)
		if got != tc.want {
			t.Errorf("exportFormat(%q, %q) = %q, want %q", tc.format, tc.path, got, tc.want)
		}
	}
}

func TestDiagnostics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	input := writeSchema(t, dir, "package p;\nmessage Foo { oneof x {} }\n")
	res := midl(t, "", "export", input)
	testutil.ExpectEq(t, 1, res.code)
	testutil.ExpectEq(t, "", res.stdout)
	testutil.ExpectMatch(t, "^"+regexp.QuoteMeta(input)+`:2:\d+: error E2101: `, res.stderr)

	input = writeSchema(t, dir, "package p;\nmessage Foo {}\nmessage Foo {}\n")
	res = midl(t, "", "export", input)
	testutil.ExpectEq(t, 1, res.code)
	testutil.ExpectMatch(t, regexp.QuoteMeta(input)+`:3:\d+: error E3000: `, res.stderr)

	input = writeSchema(t, dir, "package p;\nservice Empty {}\n")
	res = midl(t, "", "export", input)
	testutil.ExpectEq(t, 0, res.code)
	testutil.ExpectMatch(t, regexp.QuoteMeta(input)+`:2:\d+: warning W4002: `, res.stderr)

	res = midl(t, "", "export", filepath.Join(dir, "missing.midl"))
	testutil.ExpectEq(t, 1, res.code)
	testutil.ExpectMatch(t, `^error: read schema: `, res.stderr)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	input := writeSchema(t, t.TempDir(), exampleSrc)
	res := midl(t, "", "describe", "--messages", input)
	testutil.ExpectEq(t, 0, res.code)
	testutil.ExpectMatch(t, `(?m)^package:   p$`, res.stdout)
	testutil.ExpectMatch(t, `SERVICE`, res.stdout)
	testutil.ExpectMatch(t, `\bBar\b.*\bbaz\b.*\bFoo\b.*\bFoo\b`, res.stdout)
	testutil.ExpectMatch(t, `\bFoo\b.*\bb\b.*\b2\b.*\bint32\b`, res.stdout)
}

func TestCreate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSchema(t, dir, exampleSrc)
	project := filepath.Join(dir, "project")

	res := midl(t, "", "create", "-i", input, "-l", "go,rust", "-o", project, "--edition=2021")
	testutil.ExpectEq(t, 0, res.code)
	testutil.ExpectEq(t, "", res.stderr)

	goSrc := expectExists(t, filepath.Join(project, "go", "p.go"))
	testutil.ExpectMatch(t, `(?m)^package p$`, string(goSrc))
	expectExists(t, filepath.Join(project, "rust", "src", "p.rs"))
	lib := expectExists(t, filepath.Join(project, "rust", "src", "lib.rs"))
	testutil.ExpectMatch(t, `(?m)^mod p;$`, string(lib))

	var cargo cargoManifest
	_, err := toml.DecodeFile(filepath.Join(project, "rust", "Cargo.toml"), &cargo)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "p", cargo.Package.Name)
	testutil.ExpectEq(t, "2021", cargo.Package.Edition)
	testutil.ExpectTrue(t, cargo.Dependencies["frodobuf"] != nil)

	m, err := readManifest(project)
	testutil.AssertNoError(t, err)
	testutil.ExpectDeepEq(t, &manifest{
		Package:   "p",
		Interface: "../schema.midl",
		Languages: []string{"go", "rust"},
		Edition:   "2021",
		Files:     []string{"go/p.go", "rust/src/p.rs"},
	}, m)

	res = midl(t, "", "create", "-i", input, "-l", "go", "-o", project)
	testutil.ExpectEq(t, 1, res.code)
	testutil.ExpectMatch(t, "is not empty", res.stderr)

	res = midl(t, "", "create", "-i", input, "-l", "go", "-o", filepath.Join(dir, "x"), "--edition=2015")
	testutil.ExpectEq(t, 1, res.code)
	testutil.ExpectMatch(t, `unsupported Rust edition "2015"`, res.stderr)
}

func TestCreateFailureWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSchema(t, dir, exampleSrc)
	project := filepath.Join(dir, "project")

	res := midl(t, "", "create", "-i", input, "-l", "go,cobol", "-o", project)
	testutil.ExpectEq(t, 1, res.code)
	testutil.ExpectMatch(t, `E5000: Unknown code generation backend 'cobol'`, res.stderr)
	_, err := os.Stat(project)
	testutil.ExpectTrue(t, os.IsNotExist(err))
}

func TestCreateLanguagesFromConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSchema(t, dir, exampleSrc)
	project := filepath.Join(dir, "project")

	config := "[codegen]\nlanguages = [\"go\"]\n"
	res := midl(t, config, "create", input, "-o", project)
	testutil.ExpectEq(t, 0, res.code)
	expectExists(t, filepath.Join(project, "go", "p.go"))
	_, err := os.Stat(filepath.Join(project, "rust"))
	testutil.ExpectTrue(t, os.IsNotExist(err))
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSchema(t, dir, exampleSrc)
	project := filepath.Join(dir, "project")
	testutil.ExpectEq(t, 0, midl(t, "", "create", "-i", input, "-l", "go,rust", "-o", project).code)

	writeSchema(t, dir, exampleSrc+"\nmessage Added {\n    bool flag;\n}\n")
	res := midl(t, "", "update", "-o", project)
	testutil.ExpectEq(t, 0, res.code)
	testutil.ExpectEq(t, "", res.stderr)
	goSrc := expectExists(t, filepath.Join(project, "go", "p.go"))
	testutil.ExpectMatch(t, `type Added struct`, string(goSrc))
	rustSrc := expectExists(t, filepath.Join(project, "rust", "src", "p.rs"))
	testutil.ExpectMatch(t, `pub struct Added`, string(rustSrc))

	// Dropping a language removes its generated files but not the scaffold.
	res = midl(t, "", "update", "-o", project, "-l", "go")
	testutil.ExpectEq(t, 0, res.code)
	_, err := os.Stat(filepath.Join(project, "rust", "src", "p.rs"))
	testutil.ExpectTrue(t, os.IsNotExist(err))
	expectExists(t, filepath.Join(project, "rust", "Cargo.toml"))

	m, err := readManifest(project)
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []string{"go"}, m.Languages)
	testutil.ExpectSliceEq(t, []string{"go/p.go"}, m.Files)

	res = midl(t, "", "update", "-o", filepath.Join(dir, "missing"))
	testutil.ExpectEq(t, 1, res.code)
	testutil.ExpectMatch(t, "must be an existing directory", res.stderr)
}

func TestCodegenPluginErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSchema(t, dir, exampleSrc)
	pluginDir := filepath.Join(dir, "plugins")
	testutil.AssertNoError(t, os.Mkdir(pluginDir, 0o755))
	out := filepath.Join(dir, "out")

	res := midl(t, "", "codegen", "-l", "go", "-o", out, "--plugin-path", pluginDir, input)
	testutil.ExpectEq(t, 1, res.code)
	testutil.ExpectMatch(t, `midl-codegen-go\.wasm not found`, res.stderr)

	pluginPath := filepath.Join(pluginDir, "midl-codegen-go.wasm")
	testutil.AssertNoError(t, os.WriteFile(pluginPath, []byte("\x00asm\x01\x00\x00\x00"), 0o644))
	res = midl(t, "", "codegen", "-l", "go", "-o", out, "--plugin-path", pluginDir, input)
	testutil.ExpectEq(t, 1, res.code)
	testutil.ExpectMatch(t, `E5005: Plugin for go failed: `, res.stderr)
	_, err := os.Stat(out)
	testutil.ExpectTrue(t, os.IsNotExist(err))

	res = midl(t, "", "codegen", "-l", "go", "--plugin-path", pluginDir, input)
	testutil.ExpectEq(t, 1, res.code)
	testutil.ExpectMatch(t, `no output directory`, res.stderr)
}

func TestInputPath(t *testing.T) {
	t.Parallel()

	got, err := inputPath("a.midl", nil)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "a.midl", got)
	got, err = inputPath("", []string{"b.midl"})
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "b.midl", got)

	_, err = inputPath("a.midl", []string{"b.midl"})
	testutil.AssertError(t, err)
	_, err = inputPath("", []string{"a", "b"})
	testutil.AssertError(t, err)
	_, err = inputPath("", nil)
	testutil.AssertError(t, err)
}
