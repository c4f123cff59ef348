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

// Package wasmplugin runs code generation backends compiled to WebAssembly.
//
// A plugin exports three functions:
//
//	midl_codegen_allocate(len u32) -> ptr
//	midl_codegen_deallocate(ptr)
//	midl_codegen_generate(request_ptr, response_ptr_ptr) -> rc u8
//
// Requests and responses are JSON documents prefixed with their length as a
// little-endian uint32. The host writes the request into a buffer obtained
// from midl_codegen_allocate, and the plugin stores a pointer to the framed
// response at response_ptr_ptr. A non-zero rc means the response carries an
// error message instead of output files.
package wasmplugin

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/frodobuf/frodobuf/codegen"
	"github.com/frodobuf/frodobuf/encoding/midljson"
)

const (
	ExportAllocate   = "midl_codegen_allocate"
	ExportDeallocate = "midl_codegen_deallocate"
	ExportGenerate   = "midl_codegen_generate"
)

type Request struct {
	Language string             `json:"language"`
	Options  map[string]string  `json:"options,omitempty"`
	Schema   *midljson.Document `json:"schema"`
}

type Response struct {
	Files []*OutputFile `json:"files,omitempty"`
	Error string        `json:"error,omitempty"`
}

// OutputFile is one generated file. Path holds the components of a path
// relative to the output directory.
type OutputFile struct {
	Path    []string `json:"path"`
	Content []byte   `json:"content"`
}

// Frame prefixes payload with its length.
func Frame(payload []byte) ([]byte, error) {
	if uint64(len(payload)) > math.MaxInt32 {
		return nil, errors.Errorf("payload size (%d bytes) exceeds maximum", len(payload))
	}
	buf := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	return buf, nil
}

// Unframe returns the payload of a framed buffer. Trailing bytes after the
// payload are ignored.
func Unframe(buf []byte) ([]byte, error) {
	if len(buf) < 4 {
		return nil, errors.Errorf("framed buffer too short (%d bytes)", len(buf))
	}
	n := binary.LittleEndian.Uint32(buf)
	if uint64(n) > uint64(len(buf)-4) {
		return nil, errors.Errorf("frame length %d exceeds buffer (%d bytes)", n, len(buf)-4)
	}
	return buf[4 : 4+n], nil
}

// Handle serves one request with the backends built into this binary and
// returns the response payload along with its status code.
func Handle(payload []byte) ([]byte, uint8) {
	resp, rc := handle(payload)
	out, err := json.Marshal(resp)
	if err != nil {
		out, _ = json.Marshal(&Response{Error: err.Error()})
		rc = 1
	}
	return out, rc
}

func handle(payload []byte) (*Response, uint8) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return &Response{Error: fmt.Sprintf("invalid request: %v", err)}, 1
	}
	if req.Schema == nil {
		return &Response{Error: "invalid request: missing schema"}, 1
	}
	s, err := req.Schema.Schema()
	if err != nil {
		return &Response{Error: err.Error()}, 1
	}

	keys := make([]string, 0, len(req.Options))
	for key := range req.Options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	opts := make([]codegen.Option, 0, len(keys))
	for _, key := range keys {
		opts = append(opts, codegen.WithOption(key, req.Options[key]))
	}

	files, err := codegen.Generate(s, req.Language, opts...)
	if err != nil {
		return &Response{Error: err.Error()}, 1
	}
	resp := &Response{}
	for _, file := range files {
		resp.Files = append(resp.Files, &OutputFile{
			Path:    strings.Split(file.Path, "/"),
			Content: file.Content,
		})
	}
	return resp, 0
}

// OutputPath validates the components of a plugin output path and joins
// them with '/'.
func OutputPath(parts []string) (string, error) {
	if len(parts) == 0 {
		return "", errors.Errorf("Invalid output path %#v: empty", parts)
	}
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", errors.Errorf("Invalid output path %#v: bad path component %q", parts, part)
		}
		if part[0] == '/' || filepath.IsAbs(part) {
			return "", errors.Errorf("Invalid output path %#v: absolute path component %q", parts, part)
		}
		if strings.ContainsAny(part, `/\`) {
			return "", errors.Errorf("Invalid output path %#v: component %q contains a path separator", parts, part)
		}
	}
	return strings.Join(parts, "/"), nil
}

// sanitize replaces control characters in a plugin's error message and trims
// surrounding whitespace.
func sanitize(msg string) string {
	msg = strings.TrimSpace(msg)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7F {
			return '\uFFFD'
		}
		return r
	}, msg)
}
