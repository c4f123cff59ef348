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
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/frodobuf/frodobuf/codegen/wasmplugin"
)

type cmdUpdate struct {
	*app
	input     string
	languages []string
	outDir    string
	templates string
	options   map[string]string
}

func (*cmdUpdate) help() *commandHelp {
	return &commandHelp{
		usage:   "update [options] [SCHEMA]",
		summary: "Regenerate the sources of a project after its MIDL file changed",
	}
}

func (cmd *cmdUpdate) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.input, "input", "i", "", "MIDL file to compile (default: from "+manifestName+")")
	flags.StringSliceVarP(&cmd.languages, "language", "l", nil, "output languages (default: from "+manifestName+")")
	flags.StringVarP(&cmd.outDir, "output", "o", "", "existing project directory (default: output, then .)")
	flags.StringVar(&cmd.templates, "templates", "", "directory of templates overriding the built-in set")
	flags.StringToStringVarP(&cmd.options, "option", "O", nil, "backend option as key=value")
}

func (cmd *cmdUpdate) run(ctx context.Context, argv []string) int {
	outDir := cmd.outDir
	if outDir == "" {
		outDir = cmd.config.GetString(keyOutput)
	}
	if outDir == "" {
		outDir = "."
	}
	if info, err := os.Stat(outDir); err != nil || !info.IsDir() {
		return cmd.fail(errors.Errorf("output directory %s must be an existing directory", outDir))
	}

	m, err := readManifest(outDir)
	if err != nil {
		return cmd.fail(err)
	}

	input := cmd.input
	if input == "" && len(argv) == 0 && m != nil && m.Interface != "" {
		input = m.interfacePath(outDir)
	} else if input, err = inputPath(cmd.input, argv); err != nil {
		return cmd.fail(err)
	}

	names := cmd.languages
	if len(names) == 0 && m != nil {
		names = m.Languages
	}
	languages, err := cmd.app.languages(names)
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
	if err := cmd.writeFiles(outDir, generated); err != nil {
		return cmd.fail(err)
	}

	if m == nil {
		m = &manifest{Package: s.Package}
	} else {
		for _, stale := range staleFiles(m.Files, generated) {
			if _, err := wasmplugin.OutputPath(strings.Split(stale, "/")); err != nil {
				cmd.log.Warn().Err(err).Msg("ignoring manifest entry")
				continue
			}
			stalePath := filepath.Join(outDir, filepath.FromSlash(stale))
			if err := os.Remove(stalePath); err != nil && !errors.Is(err, os.ErrNotExist) {
				return cmd.fail(errors.Wrap(err, "remove stale output"))
			}
			cmd.log.Info().Str("path", stalePath).Msg("removed stale output")
		}
	}
	m.Interface = relInterface(outDir, input)
	m.Languages = languages
	m.Files = generated.Paths()
	if err := m.write(outDir); err != nil {
		return cmd.fail(err)
	}
	return 0
}
