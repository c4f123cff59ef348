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

package codegen

import (
	"unicode"
	"unicode/utf8"

	"github.com/huandu/xstrings"
)

// PascalCase converts an identifier to upper camel case: "get_user" and
// "getUser" both become "GetUser".
func PascalCase(name string) string {
	return xstrings.ToCamelCase(xstrings.ToSnakeCase(name))
}

// CamelCase is PascalCase with a lower case first letter.
func CamelCase(name string) string {
	pascal := PascalCase(name)
	r, size := utf8.DecodeRuneInString(pascal)
	if size == 0 {
		return ""
	}
	return string(unicode.ToLower(r)) + pascal[size:]
}

// SnakeCase converts an identifier to lower case words separated by
// underscores.
func SnakeCase(name string) string {
	return xstrings.ToSnakeCase(name)
}

// namespace detects distinct entities that map to the same generated name.
type namespace struct {
	backend string
	owners  map[string]string
}

func newNamespace(backend string) *namespace {
	return &namespace{
		backend: backend,
		owners:  make(map[string]string),
	}
}

func (ns *namespace) claim(entity, name string) error {
	if prev, ok := ns.owners[name]; ok && prev != entity {
		return errNameCollision(ns.backend, entity, name, prev)
	}
	ns.owners[name] = entity
	return nil
}
