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

package testutil

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/frodobuf/frodobuf/syntax"
)

// TestdataFS returns the repository's top-level testdata directory.
func TestdataFS() (fs.FS, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("testutil: unable to locate source directory")
	}
	dir := filepath.Join(filepath.Dir(file), "..", "..", "testdata")
	if _, err := os.Stat(filepath.Join(dir, "diagnostics")); err != nil {
		return nil, err
	}
	return os.DirFS(dir), nil
}

// ReadTestdata reads a file from TestdataFS, failing the test on error.
func ReadTestdata(t *testing.T, path string) []byte {
	t.Helper()
	testdata, err := TestdataFS()
	AssertNoError(t, err)
	data, err := fs.ReadFile(testdata, path)
	AssertNoError(t, err)
	return data
}

// SpanOrDie decodes an `{"start": N, "len": N}` object.
func SpanOrDie(t *testing.T, raw any) syntax.Span {
	t.Helper()
	obj, ok := raw.(map[string]any)
	if !ok {
		t.Fatalf("expected span object, got %#v", raw)
	}
	return syntax.NewSpan(uint32OrDie(t, obj["start"]), uint32OrDie(t, obj["len"]))
}

func uint32OrDie(t *testing.T, raw any) uint32 {
	t.Helper()
	switch n := raw.(type) {
	case json.Number:
		v, err := n.Int64()
		if err != nil || v < 0 {
			t.Fatalf("expected unsigned integer, got %q", n)
		}
		return uint32(v)
	case float64:
		return uint32(n)
	}
	t.Fatalf("expected unsigned integer, got %#v", raw)
	return 0
}
