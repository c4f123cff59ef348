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

// Command midl-codegen-wasm is the code generation plugin. Built with
// TinyGo it is loaded by `midl codegen`; built natively it renders a single
// MIDL file to stdout, which is useful when debugging templates.
package main

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/frodobuf/frodobuf/codegen"
	"github.com/frodobuf/frodobuf/compiler"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}})

	flags := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	language := flags.StringP("lang", "l", "go", "backend to render with")
	options := flags.StringToStringP("option", "O", nil, "backend option as key=value (repeatable)")
	flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) != 1 {
		log.Fatal().Msgf("usage: %s [--lang=LANG] MIDL_SCHEMA", os.Args[0])
	}
	schemaPath := args[0]

	src, err := os.ReadFile(schemaPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", schemaPath).Msg("read schema")
	}

	var compileOpts []compiler.CompileOption
	if !filepath.IsAbs(schemaPath) {
		compileOpts = append(compileOpts, compiler.WithSourcePath(filepath.ToSlash(schemaPath)))
	}
	result, err := compiler.CompileSource(src, compileOpts...)
	if err != nil {
		log.Fatal().Err(err).Str("path", schemaPath).Msg("parse")
	}
	for _, warning := range result.Warnings {
		log.Warn().Msg(warning.String())
	}
	if len(result.Errors) > 0 {
		for _, err := range result.Errors {
			log.Error().Msg(err.Error())
		}
		os.Exit(1)
	}

	var genOpts []codegen.Option
	for key, value := range *options {
		genOpts = append(genOpts, codegen.WithOption(key, value))
	}
	files, err := codegen.Generate(result.Schema, *language, genOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("codegen")
	}
	for _, file := range files {
		if len(files) > 1 {
			os.Stdout.WriteString("// " + file.Path + "\n")
		}
		if _, err := os.Stdout.Write(file.Content); err != nil {
			log.Fatal().Err(err).Msg("write output")
		}
	}
}
