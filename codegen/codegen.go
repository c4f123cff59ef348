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

// Package codegen renders source bindings for a compiled schema.
//
// Each target language is a Backend. The built-in backends ("go" and "rust")
// render from text/template sets embedded in this package; any template in
// the set may be replaced with WithTemplates.
package codegen

import (
	"errors"
	"io/fs"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/frodobuf/frodobuf/schema"
)

// File is one generated output. Path is slash-separated and relative to the
// output directory.
type File struct {
	Path    string
	Content []byte
}

type Files []*File

// Get returns the file with the given path, or nil.
func (files Files) Get(path string) *File {
	for _, f := range files {
		if f.Path == path {
			return f
		}
	}
	return nil
}

// Paths returns the path of every file in order.
func (files Files) Paths() []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

type Backend interface {
	Name() string
	Render(s *schema.Schema, opts *Options) (Files, error)
}

type Option interface {
	apply(*Options)
}

type option func(*Options)

func (f option) apply(opts *Options) { f(opts) }

type Options struct {
	templates fs.FS
	values    map[string]string
}

// WithTemplates overlays templates from fsys on top of the built-in set.
// Templates for a backend are read from "<backend>/*.tmpl".
func WithTemplates(fsys fs.FS) Option {
	return option(func(opts *Options) {
		opts.templates = fsys
	})
}

// WithOption sets a backend-specific key. Backends reject keys they do not
// understand.
func WithOption(key, value string) Option {
	return option(func(opts *Options) {
		if opts.values == nil {
			opts.values = make(map[string]string)
		}
		opts.values[key] = value
	})
}

func NewOptions(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt.apply(options)
	}
	return options
}

// Templates returns the template overlay, or nil.
func (opts *Options) Templates() fs.FS {
	return opts.templates
}

func (opts *Options) Value(key string) (string, bool) {
	v, ok := opts.values[key]
	return v, ok
}

// Values returns a copy of every option set with WithOption.
func (opts *Options) Values() map[string]string {
	return maps.Clone(opts.values)
}

// Keys returns the option keys in sorted order.
func (opts *Options) Keys() []string {
	return slices.Sorted(maps.Keys(opts.values))
}

func (opts *Options) checkKeys(backend string, known ...string) error {
	for _, key := range opts.Keys() {
		if !slices.Contains(known, key) {
			return errInvalidOption(backend, key, "unknown option")
		}
	}
	return nil
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Backend)
)

// Register makes a backend available to Generate. It panics if a backend
// with the same name is already registered.
func Register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	name := b.Name()
	if _, dup := registry[name]; dup {
		panic("codegen: Register called twice for backend " + name)
	}
	registry[name] = b
}

func Lookup(name string) (Backend, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := registry[name]
	return b, ok
}

// Backends returns the names of all registered backends, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}

func init() {
	Register(Go)
	Register(Rust)
}

// Generate renders s with the named backend. No files are returned if any
// error occurs.
func Generate(s *schema.Schema, backend string, opts ...Option) (Files, error) {
	b, ok := Lookup(backend)
	if !ok {
		return nil, errUnknownBackend(backend, Backends())
	}
	return GenerateWith(s, b, opts...)
}

// GenerateWith renders s with a backend that need not be registered.
func GenerateWith(s *schema.Schema, b Backend, opts ...Option) (Files, error) {
	files, err := b.Render(s, NewOptions(opts...))
	if err != nil {
		var genErr *Error
		if errors.As(err, &genErr) {
			return nil, err
		}
		return nil, errRender(b.Name(), "", err)
	}
	files = slices.Clone(files)
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	for ii, f := range files {
		if f.Path == "" || strings.HasPrefix(f.Path, "/") {
			return nil, errInvalidOutput(b.Name(), f.Path, "path must be relative")
		}
		if ii > 0 && files[ii-1].Path == f.Path {
			return nil, errInvalidOutput(b.Name(), f.Path, "rendered more than once")
		}
	}
	return files, nil
}
