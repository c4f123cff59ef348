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
	"cmp"
	"encoding/json"
	"io/fs"
	"slices"
	"testing"

	"github.com/frodobuf/frodobuf/syntax"
)

type rawSpan struct {
	Start uint32 `json:"start"`
	Len   uint32 `json:"len"`
}

// Expected is a catalog diagnostic that a test case expects at Span.
type Expected struct {
	*Diagnostic
	Span syntax.Span
}

type (
	ExpectedError   = Expected
	ExpectedWarning = Expected
)

// LoadExpectedErrors reads `{"errors": [{"error": NAME, "error_span": ...}]}`
// and returns the entries ordered by span start, then code.
func LoadExpectedErrors(
	t *testing.T,
	catalog map[string]*SchemaError,
	testdata fs.FS,
	jsonPath string,
) []*ExpectedError {
	t.Helper()

	var raw struct {
		Errors []struct {
			Error string  `json:"error"`
			Span  rawSpan `json:"error_span"`
		} `json:"errors"`
	}
	readJSON(t, testdata, jsonPath, &raw)

	var out []*ExpectedError
	for _, item := range raw.Errors {
		diag, ok := catalog[item.Error]
		if !ok {
			t.Fatalf("unknown schema error name %q", item.Error)
		}
		out = append(out, &ExpectedError{
			Diagnostic: diag,
			Span:       syntax.NewSpan(item.Span.Start, item.Span.Len),
		})
	}
	sortExpected(out)
	return out
}

// LoadExpectedSyntaxError reads `{"error": NAME, "error_span": ...}`.
func LoadExpectedSyntaxError(
	t *testing.T,
	catalog map[string]*SyntaxError,
	testdata fs.FS,
	jsonPath string,
) *Expected {
	t.Helper()

	var raw struct {
		Error string  `json:"error"`
		Span  rawSpan `json:"error_span"`
	}
	readJSON(t, testdata, jsonPath, &raw)
	diag, ok := catalog[raw.Error]
	if !ok {
		t.Fatalf("unknown syntax error name %q", raw.Error)
	}
	return &Expected{
		Diagnostic: diag,
		Span:       syntax.NewSpan(raw.Span.Start, raw.Span.Len),
	}
}

func LoadExpectedWarnings(
	t *testing.T,
	catalog map[string]*SchemaWarning,
	testdata fs.FS,
	jsonPath string,
) []*ExpectedWarning {
	t.Helper()

	var raw struct {
		Warnings []struct {
			Warning string  `json:"warning"`
			Span    rawSpan `json:"warning_span"`
		} `json:"warnings"`
	}
	readJSON(t, testdata, jsonPath, &raw)

	var out []*ExpectedWarning
	for _, item := range raw.Warnings {
		diag, ok := catalog[item.Warning]
		if !ok {
			t.Fatalf("unknown schema warning name %q", item.Warning)
		}
		out = append(out, &ExpectedWarning{
			Diagnostic: diag,
			Span:       syntax.NewSpan(item.Span.Start, item.Span.Len),
		})
	}
	sortExpected(out)
	return out
}

// Reported is a diagnostic produced by the parser or compiler.
type Reported interface {
	Code() uint32
	Message() string
	Span() syntax.Span
}

// ExpectDiagnostics pairs got with want in order and reports every
// mismatch, missing entry, and surplus entry.
func ExpectDiagnostics[D Reported](t *testing.T, got []D, want []*Expected) {
	t.Helper()
	for ii := range max(len(got), len(want)) {
		switch {
		case ii >= len(got):
			t.Errorf("missing diagnostic %q (code %d)", want[ii].Key(), want[ii].Code())
		case ii >= len(want):
			t.Errorf("unexpected diagnostic %q (code %d)", got[ii].Message(), got[ii].Code())
		default:
			expectDiagnostic(t, want[ii], got[ii])
		}
	}
}

func expectDiagnostic(t *testing.T, want *Expected, got Reported) {
	t.Helper()
	ExpectEq(t, want.Code(), got.Code())
	if pattern := want.MessagePattern(); pattern != nil {
		ExpectMatch(t, pattern, got.Message())
	} else if message := want.Message(); message != "" {
		ExpectEq(t, message, got.Message())
	}
	ExpectEq(t, want.Span, got.Span())
}

func readJSON(t *testing.T, testdata fs.FS, path string, v any) {
	t.Helper()
	jsonData, err := fs.ReadFile(testdata, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(jsonData, v); err != nil {
		t.Fatal(err)
	}
}

func sortExpected(out []*Expected) {
	slices.SortFunc(out, func(a, b *Expected) int {
		if x := cmp.Compare(a.Span.Start(), b.Span.Start()); x != 0 {
			return x
		}
		return cmp.Compare(a.Code(), b.Code())
	})
}
