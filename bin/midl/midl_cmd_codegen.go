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
	"github.com/frodobuf/frodobuf/codegen/wasmplugin"
)

type cmdCodegen struct {
	*app
	input      string
	languages  []string
	outDir     string
	pluginPath string
	options    map[string]string
}

func (*cmdCodegen) help() *commandHelp {
	return &commandHelp{
		usage:   "codegen [options] [SCHEMA]",
		summary: "Generate code with WebAssembly codegen plugins",
	}
}

func (cmd *cmdCodegen) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.input, "input", "i", "", "MIDL file to compile")
	flags.StringSliceVarP(&cmd.languages, "language", "l", nil, "plugin languages (default: codegen.languages)")
	flags.StringVarP(&cmd.outDir, "output", "o", "", "output directory (default: output)")
	flags.StringVar(&cmd.pluginPath, "plugin-path", "", "directories to search for midl-codegen-LANG.wasm (default: $"+wasmplugin.PluginPathEnv+")")
	flags.StringToStringVarP(&cmd.options, "option", "O", nil, "plugin option as key=value")
}

func (cmd *cmdCodegen) run(ctx context.Context, argv []string) int {
	input, err := inputPath(cmd.input, argv)
	if err != nil {
		return cmd.fail(err)
	}
	outDir := cmd.outDir
	if outDir == "" {
		outDir = cmd.config.GetString(keyOutput)
	}
	if outDir == "" {
		return cmd.fail(errors.New("no output directory specified (set --output=)"))
	}
	languages, err := cmd.app.languages(cmd.languages)
	if err != nil {
		return cmd.fail(err)
	}
	pluginPath := cmd.pluginPath
	if pluginPath == "" {
		if pluginPath, err = cmd.pathSetting(keyCodegenPluginPath); err != nil {
			return cmd.fail(err)
		}
	}

	plugins := make(map[string]*wasmplugin.Plugin, len(languages))
	for _, language := range languages {
		path, err := wasmplugin.Locate(language, pluginPath)
		if err != nil {
			return cmd.fail(err)
		}
		plugin, err := wasmplugin.Load(language, path, wasmplugin.WithStderr(cmd.stderr))
		if err != nil {
			return cmd.fail(err)
		}
		cmd.log.Debug().Str("language", language).Str("path", path).Msg("found plugin")
		plugins[language] = plugin
	}

	s, err := cmd.loadSchema(input)
	if err != nil {
		return cmd.fail(err)
	}
	var opts []codegen.Option
	for key, value := range cmd.options {
		opts = append(opts, codegen.WithOption(key, value))
	}

	ctx = cmd.log.WithContext(ctx)
	rendered, err := cmd.renderAll(ctx, languages, func(ctx context.Context, language string) (codegen.Files, error) {
		return codegen.GenerateWith(s, plugins[language].Backend(ctx), opts...)
	})
	if err != nil {
		return cmd.fail(err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return cmd.fail(errors.Wrap(err, "create output directory"))
	}
	for _, files := range rendered {
		if err := cmd.writeFiles(outDir, files); err != nil {
			return cmd.fail(err)
		}
	}
	return 0
}
