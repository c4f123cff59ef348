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
	"math"
	"unsafe"

	"github.com/frodobuf/frodobuf/codegen/wasmplugin"
)

//go:generate go run ../../internal/build/tinygo_build.go -output=midl-codegen-go.wasm -chdir=. .
//go:generate go run ../../internal/build/tinygo_build.go -output=midl-codegen-rust.wasm -chdir=. .

// Buffers handed to the host. Keeping them here stops the collector from
// reclaiming memory the host is still reading or writing.
var buffers = make(map[*uint8][]uint8)

//go:export midl_codegen_allocate
func midlCodegenAllocate(len uint32) *uint8 {
	if len > math.MaxInt32 {
		return nil
	}
	buf := make([]uint8, int(len))
	if len == 0 {
		buf = make([]uint8, 1)
	}
	ptr := unsafe.SliceData(buf)
	buffers[ptr] = buf
	return ptr
}

//go:export midl_codegen_deallocate
func midlCodegenDeallocate(ptr *uint8) {
	delete(buffers, ptr)
}

//go:export midl_codegen_generate
func midlCodegenGenerate(requestPtr *uint8, responsePtrPtr **uint8) uint8 {
	request, ok := buffers[requestPtr]
	if !ok {
		return respond(responsePtrPtr, []byte(`{"error":"request buffer was not allocated by the plugin"}`), 1)
	}
	payload, err := wasmplugin.Unframe(request)
	if err != nil {
		return respond(responsePtrPtr, []byte(`{"error":"malformed request frame"}`), 1)
	}
	response, rc := wasmplugin.Handle(payload)
	return respond(responsePtrPtr, response, rc)
}

func respond(responsePtrPtr **uint8, payload []byte, rc uint8) uint8 {
	framed, err := wasmplugin.Frame(payload)
	if err != nil {
		framed, _ = wasmplugin.Frame([]byte(`{"error":"response too large"}`))
		rc = 1
	}
	responsePtr := unsafe.SliceData(framed)
	buffers[responsePtr] = framed
	*responsePtrPtr = responsePtr
	return rc
}
