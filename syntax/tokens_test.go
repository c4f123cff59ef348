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
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frodobuf/frodobuf/internal/testutil"
	"github.com/frodobuf/frodobuf/syntax"
)

var (
	testdata     fs.FS
	syntaxErrors map[string]*testutil.SyntaxError
)

func init() {
	var err error
	testdata, err = testutil.TestdataFS()
	if err != nil {
		panic(err)
	}
	syntaxErrors, err = testutil.LoadSyntaxErrors(testdata)
	if err != nil {
		panic(err)
	}
}

type strToken struct {
	kind    string
	content string
}

// tokenCases is the layout of testdata/tokens/*.json. Each token is a
// [kind, content] pair.
type tokenCases struct {
	ExpectOK []struct {
		Source string      `json:"source"`
		Tokens [][2]string `json:"tokens"`
	} `json:"expect_ok"`
	ExpectErr []struct {
		Source    string         `json:"source"`
		Error     string         `json:"error"`
		ErrorSpan map[string]any `json:"error_span"`
	} `json:"expect_err"`
}

// lexAll tokenizes src up to EOF or the first error.
func lexAll(src string) ([]strToken, error) {
	tokens, err := syntax.NewTokens([]byte(src))
	if err != nil {
		return nil, err
	}
	var out []strToken
	for rest := src; ; {
		var token syntax.Token
		if err := tokens.Next(&token); err != nil {
			return out, err
		}
		if token.Kind == syntax.T_EOF {
			return out, nil
		}
		out = append(out, strToken{token.Kind.String(), rest[:token.Len]})
		rest = rest[token.Len:]
	}
}

func TestTokens(t *testing.T) {
	t.Parallel()

	paths, err := fs.Glob(testdata, "tokens/*.json")
	testutil.AssertNoError(t, err)
	if len(paths) == 0 {
		t.Fatal("no token test files found")
	}

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		buf, err := fs.ReadFile(testdata, path)
		testutil.AssertNoError(t, err)
		var cases tokenCases
		decoder := json.NewDecoder(bytes.NewReader(buf))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cases); err != nil {
			t.Fatalf("%s: %v", path, err)
		}

		for ii, tc := range cases.ExpectOK {
			t.Run(fmt.Sprintf("%s/ok/%d", name, ii), func(t *testing.T) {
				t.Logf("source: %q", tc.Source)
				want := make([]strToken, 0, len(tc.Tokens))
				for _, pair := range tc.Tokens {
					want = append(want, strToken{pair[0], pair[1]})
				}
				got, err := lexAll(tc.Source)
				testutil.AssertNoError(t, err)
				testutil.ExpectSliceEq(t, want, got)
			})
		}

		for ii, tc := range cases.ExpectErr {
			t.Run(fmt.Sprintf("%s/err/%d", name, ii), func(t *testing.T) {
				t.Logf("source: %q", tc.Source)
				want, ok := syntaxErrors[tc.Error]
				if !ok {
					t.Fatalf("unknown syntax error name %q", tc.Error)
				}
				_, err := lexAll(tc.Source)
				var lexErr *syntax.Error
				if !errors.As(err, &lexErr) {
					t.Fatalf("expected *syntax.Error, got %T: %v", err, err)
				}
				testutil.ExpectEq(t, want.Code(), lexErr.Code())
				testutil.ExpectEq(t, syntax.LexError, lexErr.Kind())
				if pattern := want.MessagePattern(); pattern != nil {
					testutil.ExpectMatch(t, pattern, lexErr.Message())
				} else if message := want.Message(); message != "" {
					testutil.ExpectEq(t, message, lexErr.Message())
				}
				testutil.ExpectEq(t, testutil.SpanOrDie(t, tc.ErrorSpan), lexErr.Span())
			})
		}
	}
}

func TestInvalidUtf8(t *testing.T) {
	t.Parallel()

	_, err := syntax.NewTokens([]byte("package \xff;"))
	parseErr := testutil.AssertErrorAs[*syntax.Error](t, err)
	testutil.ExpectEq(t, syntaxErrors["invalid_utf8"].Code(), parseErr.Code())
	testutil.ExpectEq(t, syntax.NewSpan(8, 1), parseErr.Span())
	testutil.ExpectEq(t, syntax.Pos{Line: 1, Col: 9}, parseErr.Pos())
}

func TestTokenTooLong(t *testing.T) {
	t.Parallel()

	src := strings.Repeat("a", 70000)
	tokens, err := syntax.NewTokens([]byte(src))
	testutil.AssertNoError(t, err)

	var token syntax.Token
	err = tokens.Next(&token)
	parseErr := testutil.AssertErrorAs[*syntax.Error](t, err)
	testutil.ExpectCode(t, syntaxErrors["token_too_long"].Code(), parseErr)
	testutil.ExpectMatch(t, syntaxErrors["token_too_long"].MessagePattern(), parseErr.Message())
}

func TestErrorPosition(t *testing.T) {
	t.Parallel()

	tokens, err := syntax.NewTokens([]byte("a\n  é b $"))
	testutil.AssertNoError(t, err)

	for {
		var token syntax.Token
		err = tokens.Next(&token)
		if err != nil || token.Kind == syntax.T_EOF {
			break
		}
	}
	parseErr := testutil.AssertErrorAs[*syntax.Error](t, err)
	testutil.ExpectCode(t, 1002, parseErr)
	testutil.ExpectEq(t, syntax.Pos{Line: 2, Col: 3}, parseErr.Pos())
}

func TestTokenKindStrings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind syntax.TokenKind
		want string
	}{
		{syntax.T_EOF, "EOF"},
		{syntax.T_SPACE, "SPACE"},
		{syntax.T_NEWLINE, "NEWLINE"},
		{syntax.T_COMMENT, "COMMENT"},
		{syntax.T_BLOCK_COMMENT, "BLOCK_COMMENT"},
		{syntax.T_AT, "AT"},
		{syntax.T_DOT, "DOT"},
		{syntax.T_DOUBLE_COLON, "DOUBLE_COLON"},
		{syntax.T_EQ, "EQ"},
		{syntax.T_COMMA, "COMMA"},
		{syntax.T_SEMICOLON, "SEMICOLON"},
		{syntax.T_QUESTION, "QUESTION"},
		{syntax.T_ARROW, "ARROW"},
		{syntax.T_LT, "LT"},
		{syntax.T_GT, "GT"},
		{syntax.T_OPEN_CURL, "OPEN_CURL"},
		{syntax.T_CLOSE_CURL, "CLOSE_CURL"},
		{syntax.T_OPEN_PAREN, "OPEN_PAREN"},
		{syntax.T_CLOSE_PAREN, "CLOSE_PAREN"},
		{syntax.T_OPEN_SQUARE, "OPEN_SQUARE"},
		{syntax.T_CLOSE_SQUARE, "CLOSE_SQUARE"},
		{syntax.T_INT_LIT, "INT_LIT"},
		{syntax.T_OCT_INT_LIT, "OCT_INT_LIT"},
		{syntax.T_HEX_INT_LIT, "HEX_INT_LIT"},
		{syntax.T_FLOAT_LIT, "FLOAT_LIT"},
		{syntax.T_TEXT_LIT, "TEXT_LIT"},
		{syntax.T_IDENT, "IDENT"},
		{syntax.TokenKind(255), "TokenKind(255)"},
	}
	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			testutil.ExpectEq(t, test.want, test.kind.String())
		})
	}
}
