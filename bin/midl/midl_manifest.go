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
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/frodobuf/frodobuf/codegen"
)

const manifestName = "midl-package.toml"

// manifest records how a generated project was created so that `midl
// update` can regenerate it.
type manifest struct {
	Package   string   `toml:"package"`
	Interface string   `toml:"interface"`
	Languages []string `toml:"languages"`
	Edition   string   `toml:"edition,omitempty"`

	// Generated files, relative to the project directory.
	Files []string `toml:"files"`
}

// readManifest returns nil without an error if dir has no manifest.
func readManifest(dir string) (*manifest, error) {
	var m manifest
	_, err := toml.DecodeFile(filepath.Join(dir, manifestName), &m)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", manifestName)
	}
	return &m, nil
}

func (m *manifest) write(dir string) error {
	var buf bytes.Buffer
	buf.WriteString("# Written by `midl create`; updated by `midl update`.\n")
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return errors.Wrapf(err, "encode %s", manifestName)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", manifestName)
	}
	return nil
}

// interfacePath resolves the recorded schema path against the project dir.
func (m *manifest) interfacePath(dir string) string {
	p := filepath.FromSlash(m.Interface)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// relInterface records input relative to dir where possible.
func relInterface(dir, input string) string {
	absDir, err1 := filepath.Abs(dir)
	absInput, err2 := filepath.Abs(input)
	if err1 != nil || err2 != nil {
		return filepath.ToSlash(input)
	}
	rel, err := filepath.Rel(absDir, absInput)
	if err != nil {
		return filepath.ToSlash(absInput)
	}
	return filepath.ToSlash(rel)
}

// sourceDir is where generated sources for a language live in a project.
func sourceDir(language string) string {
	if language == "rust" {
		return "rust/src"
	}
	return language
}

// placeFiles moves each language's files under its source directory and
// flattens the result.
func placeFiles(languages []string, rendered []codegen.Files) codegen.Files {
	var out codegen.Files
	for ii, language := range languages {
		for _, file := range rendered[ii] {
			out = append(out, &codegen.File{
				Path:    path.Join(sourceDir(language), file.Path),
				Content: file.Content,
			})
		}
	}
	return out
}

// staleFiles lists files in prev that are not in next.
func staleFiles(prev []string, next codegen.Files) []string {
	paths := next.Paths()
	var out []string
	for _, p := range prev {
		if !slices.Contains(paths, p) {
			out = append(out, p)
		}
	}
	return out
}

type cargoManifest struct {
	Package      cargoPackage   `toml:"package"`
	Dependencies map[string]any `toml:"dependencies"`
}

type cargoPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Edition string `toml:"edition"`
}

type cargoDependency struct {
	Version  string   `toml:"version"`
	Features []string `toml:"features,omitempty"`
}

// rustScaffold returns the crate files that surround the generated sources.
// They are written once by `midl create` and left alone by `midl update`.
func rustScaffold(pkg, edition, runtime string, generated codegen.Files) (codegen.Files, error) {
	cargo := cargoManifest{
		Package: cargoPackage{
			Name:    strings.NewReplacer(".", "-", "_", "-").Replace(pkg),
			Version: "0.1.0",
			Edition: edition,
		},
		Dependencies: map[string]any{
			runtime:       "0.1",
			"async-trait": "0.1",
			"serde":       cargoDependency{Version: "1.0", Features: []string{"derive"}},
			"serde_bytes": "0.11",
		},
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cargo); err != nil {
		return nil, errors.Wrap(err, "encode Cargo.toml")
	}

	var lib strings.Builder
	lib.WriteString("// Generated by midl create.\n\n")
	for _, file := range generated {
		mod := strings.TrimSuffix(path.Base(file.Path), ".rs")
		if mod == "lib" {
			continue
		}
		lib.WriteString("mod " + mod + ";\npub use " + mod + "::*;\n")
	}
	return codegen.Files{
		{Path: "rust/Cargo.toml", Content: buf.Bytes()},
		{Path: "rust/src/lib.rs", Content: []byte(lib.String())},
	}, nil
}
