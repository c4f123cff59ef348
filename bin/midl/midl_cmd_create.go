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
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/frodobuf/frodobuf/codegen"
)

type cmdCreate struct {
	*app
	input     string
	languages []string
	outDir    string
	pkg       string
	edition   string
	templates string
	options   map[string]string
}

func (*cmdCreate) help() *commandHelp {
	return &commandHelp{
		usage:   "create [options] [SCHEMA]",
		summary: "Create a new project with code generated from a MIDL file",
	}
}

func (cmd *cmdCreate) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.input, "input", "i", "", "MIDL file to compile")
	flags.StringSliceVarP(&cmd.languages, "language", "l", nil, "output languages, comma-separated or repeated (default: codegen.languages)")
	flags.StringVarP(&cmd.outDir, "output", "o", "", "project directory; must be empty or missing (default: output, then .)")
	flags.StringVar(&cmd.pkg, "package", "", "project package name (default: the schema package)")
	flags.StringVar(&cmd.edition, "edition", "2018", "Rust edition: 2018 or 2021")
	flags.StringVar(&cmd.templates, "templates", "", "directory of templates overriding the built-in set")
	flags.StringToStringVarP(&cmd.options, "option", "O", nil, "backend option as key=value")
}

func (cmd *cmdCreate) run(ctx context.Context, argv []string) int {
	input, err := inputPath(cmd.input, argv)
	if err != nil {
		return cmd.fail(err)
	}
	if cmd.edition != "2018" && cmd.edition != "2021" {
		return cmd.fail(errors.Errorf("unsupported Rust edition %q (choose 2018 or 2021)", cmd.edition))
	}
	outDir := cmd.outDir
	if outDir == "" {
		outDir = cmd.config.GetString(keyOutput)
	}
	if outDir == "" {
		outDir = "."
	}
	if err := checkEmptyDir(outDir); err != nil {
		return cmd.fail(err)
	}
	languages, err := cmd.app.languages(cmd.languages)
	if err != nil {
		return cmd.fail(err)
	}

	s, err := cmd.loadSchema(input)
	if err != nil {
		return cmd.fail(err)
	}
	opts, err := cmd.codegenOptions(cmd.templates, cmd.options)
	if err != nil {
		return cmd.fail(err)
	}
	rendered, err := cmd.renderAll(ctx, languages, builtinRenderer(s, opts))
	if err != nil {
		return cmd.fail(err)
	}

	generated := placeFiles(languages, rendered)
	pkg := cmd.pkg
	if pkg == "" {
		pkg = s.Package
	}
	var scaffold codegen.Files
	for ii, language := range languages {
		if language != "rust" {
			continue
		}
		runtime := cmd.options["runtime"]
		if runtime == "" {
			runtime = "frodobuf"
		}
		files, err := rustScaffold(pkg, cmd.edition, runtime, rendered[ii])
		if err != nil {
			return cmd.fail(err)
		}
		scaffold = append(scaffold, files...)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return cmd.fail(errors.Wrap(err, "create output directory"))
	}
	if err := cmd.writeFiles(outDir, append(scaffold, generated...)); err != nil {
		return cmd.fail(err)
	}
	m := &manifest{
		Package:   pkg,
		Interface: relInterface(outDir, input),
		Languages: languages,
		Edition:   cmd.edition,
		Files:     generated.Paths(),
	}
	if err := m.write(outDir); err != nil {
		return cmd.fail(err)
	}
	return 0
}

// checkEmptyDir accepts a missing directory or an empty one.
func checkEmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "output directory")
	}
	if len(entries) > 0 {
		return errors.Errorf("output directory %s is not empty", dir)
	}
	return nil
}
