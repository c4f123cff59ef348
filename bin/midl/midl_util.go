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
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/frodobuf/frodobuf/codegen"
	"github.com/frodobuf/frodobuf/codegen/wasmplugin"
	"github.com/frodobuf/frodobuf/compiler"
	"github.com/frodobuf/frodobuf/schema"
	"github.com/frodobuf/frodobuf/syntax"
)

// errReported means the failure has already been printed as diagnostics.
var errReported = errors.New("errors reported")

type severity string

const (
	severityError   severity = "error"
	severityWarning severity = "warning"
)

func (a *app) paint(c *color.Color) *color.Color {
	if a.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// diagnostic prints "path:line:col: severity text".
func (a *app) diagnostic(path string, sev severity, pos syntax.Pos, text string) {
	label := a.paint(color.New(color.FgRed, color.Bold))
	if sev == severityWarning {
		label = a.paint(color.New(color.FgYellow, color.Bold))
	}
	location := a.paint(color.New(color.Bold))
	fmt.Fprintf(a.diag, "%s %s %s\n",
		location.Sprintf("%s:%d:%d:", path, pos.Line, pos.Col),
		label.Sprint(string(sev)),
		text,
	)
}

// fail prints err unless it was already reported and returns exit code 1.
func (a *app) fail(err error) int {
	if !errors.Is(err, errReported) {
		label := a.paint(color.New(color.FgRed, color.Bold))
		fmt.Fprintf(a.diag, "%s %v\n", label.Sprint("error:"), err)
	}
	return 1
}

// loadSchema reads and compiles a MIDL file, printing any diagnostics.
func (a *app) loadSchema(path string) (*schema.Schema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read schema")
	}

	var opts []compiler.CompileOption
	if !filepath.IsAbs(path) {
		opts = append(opts, compiler.WithSourcePath(filepath.ToSlash(path)))
	}
	result, err := compiler.CompileSource(src, opts...)
	if err != nil {
		var syntaxErr *syntax.Error
		if errors.As(err, &syntaxErr) {
			a.diagnostic(path, severityError, syntaxErr.Pos(), syntaxErr.Error())
			return nil, errReported
		}
		return nil, errors.Wrapf(err, "compile %s", path)
	}

	// Interleave by position.
	type entry struct {
		sev  severity
		pos  syntax.Pos
		text string
	}
	var entries []entry
	for _, warn := range result.Warnings {
		entries = append(entries, entry{severityWarning, warn.Pos(), warn.String()})
	}
	for _, err := range result.Errors {
		entries = append(entries, entry{severityError, err.Pos(), err.Error()})
	}
	slices.SortStableFunc(entries, func(x, y entry) int {
		if x.pos.Line != y.pos.Line {
			return int(x.pos.Line) - int(y.pos.Line)
		}
		return int(x.pos.Col) - int(y.pos.Col)
	})
	for _, e := range entries {
		a.diagnostic(path, e.sev, e.pos, e.text)
	}
	if len(result.Errors) > 0 {
		return nil, errReported
	}

	a.log.Debug().
		Str("path", path).
		Str("package", result.Schema.Package).
		Stringer("id", result.Schema.ID).
		Msg("compiled schema")
	return result.Schema, nil
}

// languages normalizes a list of backend names. An empty list falls back to
// codegen.languages from the config.
func (a *app) languages(names []string) ([]string, error) {
	if len(names) == 0 {
		names = a.config.GetStringSlice(keyCodegenLanguages)
	}
	var out []string
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no output language selected (use --language=)")
	}
	return out, nil
}

// codegenOptions builds the options shared by every built-in backend run.
func (a *app) codegenOptions(templates string, values map[string]string) ([]codegen.Option, error) {
	if templates == "" {
		var err error
		if templates, err = a.pathSetting(keyCodegenTemplates); err != nil {
			return nil, err
		}
	}
	var opts []codegen.Option
	if templates != "" {
		info, err := os.Stat(templates)
		if err != nil {
			return nil, errors.Wrap(err, "templates")
		}
		if !info.IsDir() {
			return nil, errors.Errorf("templates: %s is not a directory", templates)
		}
		opts = append(opts, codegen.WithTemplates(os.DirFS(templates)))
	}
	for key, value := range values {
		opts = append(opts, codegen.WithOption(key, value))
	}
	return opts, nil
}

type renderFunc func(ctx context.Context, language string) (codegen.Files, error)

// renderAll renders every language concurrently. Nothing is returned unless
// all of them succeed.
func (a *app) renderAll(ctx context.Context, languages []string, render renderFunc) ([]codegen.Files, error) {
	out := make([]codegen.Files, len(languages))
	g, ctx := errgroup.WithContext(ctx)
	for ii, language := range languages {
		g.Go(func() error {
			files, err := render(ctx, language)
			if err != nil {
				return err
			}
			a.log.Debug().Str("language", language).Strs("files", files.Paths()).Msg("rendered")
			out[ii] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func builtinRenderer(s *schema.Schema, opts []codegen.Option) renderFunc {
	return func(_ context.Context, language string) (codegen.Files, error) {
		return codegen.Generate(s, language, opts...)
	}
}

// writeFiles writes files under dir, creating parent directories.
func (a *app) writeFiles(dir string, files codegen.Files) error {
	for _, file := range files {
		rel, err := wasmplugin.OutputPath(strings.Split(file.Path, "/"))
		if err != nil {
			return err
		}
		outPath := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
		if err := os.WriteFile(outPath, file.Content, 0o644); err != nil {
			return errors.Wrap(err, "write output")
		}
		a.log.Info().Str("path", outPath).Int("bytes", len(file.Content)).Msg("wrote")
	}
	return nil
}

// writeOutput writes to path, or to stdout when path is "" or "-".
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := a.stdout.Write(data)
		return err
	}
	openFlags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	fp, err := os.OpenFile(path, openFlags, 0o666)
	if err != nil {
		return errors.Wrap(err, "open output")
	}
	_, writeErr := fp.Write(data)
	closeErr := fp.Close()
	if writeErr != nil {
		return errors.Wrap(writeErr, "write output")
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, "write output")
	}
	return nil
}

// inputPath takes the schema path from --input or the first argument.
func inputPath(flag string, argv []string) (string, error) {
	switch {
	case flag != "" && len(argv) > 0:
		return "", errors.New("schema given both as --input and as an argument")
	case flag != "":
		return flag, nil
	case len(argv) == 1:
		return argv[0], nil
	case len(argv) > 1:
		return "", errors.Errorf("expected one schema file, got %d", len(argv))
	}
	return "", errors.New("no schema file given (use --input=)")
}
