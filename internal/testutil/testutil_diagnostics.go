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
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"regexp"
)

// Diagnostic is one entry of a diagnostics catalog under
// testdata/diagnostics. Entries are keyed by a stable name so that test cases
// don't hardcode numeric codes.
type Diagnostic struct {
	key     string
	code    uint32
	message string
	pattern *regexp.Regexp
}

func (d *Diagnostic) Key() string {
	return d.key
}

func (d *Diagnostic) Code() uint32 {
	return d.code
}

func (d *Diagnostic) Message() string {
	return d.message
}

func (d *Diagnostic) MessagePattern() *regexp.Regexp {
	return d.pattern
}

type (
	SyntaxError   = Diagnostic
	SchemaError   = Diagnostic
	SchemaWarning = Diagnostic
	GenError      = Diagnostic
)

func LoadSyntaxErrors(testdata fs.FS) (map[string]*SyntaxError, error) {
	return loadDiagnostics(testdata, "diagnostics/syntax_errors.json", "syntax error")
}

func LoadSchemaErrors(testdata fs.FS) (map[string]*SchemaError, error) {
	return loadDiagnostics(testdata, "diagnostics/schema_errors.json", "schema error")
}

func LoadSchemaWarnings(testdata fs.FS) (map[string]*SchemaWarning, error) {
	return loadDiagnostics(testdata, "diagnostics/schema_warnings.json", "schema warning")
}

func LoadGenErrors(testdata fs.FS) (map[string]*GenError, error) {
	return loadDiagnostics(testdata, "diagnostics/codegen_errors.json", "codegen error")
}

func loadDiagnostics(testdata fs.FS, path, what string) (map[string]*Diagnostic, error) {
	type raw struct {
		Code    uint32 `json:"code"`
		Message string `json:"message"`
		Pattern string `json:"message_pattern"`
	}

	jsonData, err := fs.ReadFile(testdata, path)
	if err != nil {
		return nil, err
	}

	var rawDiags map[string]raw
	decoder := json.NewDecoder(bytes.NewReader(jsonData))
	decoder.UseNumber()
	if err := decoder.Decode(&rawDiags); err != nil {
		return nil, err
	}

	out := make(map[string]*Diagnostic, len(rawDiags))
	codes := make(map[uint32]struct{}, len(rawDiags))
	for key, raw := range rawDiags {
		if key[0] == '_' {
			if raw.Code != 0 {
				if _, conflict := codes[raw.Code]; conflict {
					return nil, fmt.Errorf("duplicate %s code %d", what, raw.Code)
				}
				codes[raw.Code] = struct{}{}
			}
			continue
		}

		if raw.Code == 0 {
			return nil, fmt.Errorf("%s %q has no error code", what, key)
		}
		if _, conflict := codes[raw.Code]; conflict {
			return nil, fmt.Errorf("duplicate %s code %d", what, raw.Code)
		}
		codes[raw.Code] = struct{}{}

		var pattern *regexp.Regexp
		if raw.Pattern != "" {
			pattern, err = regexp.Compile("(?i)" + raw.Pattern)
			if err != nil {
				return nil, err
			}
		}
		out[key] = &Diagnostic{
			key:     key,
			code:    raw.Code,
			message: raw.Message,
			pattern: pattern,
		}
	}

	return out, nil
}
