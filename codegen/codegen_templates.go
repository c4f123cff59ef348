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
	"bytes"
	"embed"
	"io/fs"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates
var builtinTemplates embed.FS

// TemplateNames returns the built-in template file names for a backend.
func TemplateNames(backend string) ([]string, error) {
	return fs.Glob(builtinTemplates, "templates/"+backend+"/*.tmpl")
}

func templateFuncs() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["pascal"] = PascalCase
	funcs["camel"] = CamelCase
	funcs["snake"] = SnakeCase
	funcs["comment"] = comment
	return funcs
}

// comment renders doc lines with a line comment prefix, one per output line.
func comment(prefix string, indent string, docs []string) string {
	var buf strings.Builder
	for _, doc := range docs {
		for _, line := range strings.Split(doc, "\n") {
			buf.WriteString(indent)
			buf.WriteString(strings.TrimRight(prefix+" "+line, " "))
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// loadTemplates parses the built-in set for backend, then any overrides from
// the "<backend>/*.tmpl" files of opts.Templates().
func loadTemplates(backend string, opts *Options) (*template.Template, error) {
	tmpl := template.New(backend).Funcs(templateFuncs())
	tmpl, err := tmpl.ParseFS(builtinTemplates, "templates/"+backend+"/*.tmpl")
	if err != nil {
		return nil, errRender(backend, backend, err)
	}
	overlay := opts.Templates()
	if overlay == nil {
		return tmpl, nil
	}
	matches, err := fs.Glob(overlay, backend+"/*.tmpl")
	if err != nil {
		return nil, errRender(backend, backend, err)
	}
	if len(matches) == 0 {
		return tmpl, nil
	}
	if tmpl, err = tmpl.ParseFS(overlay, matches...); err != nil {
		return nil, errRender(backend, backend, err)
	}
	return tmpl, nil
}

func execute(backend string, tmpl *template.Template, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, errRender(backend, name, err)
	}
	return buf.Bytes(), nil
}
