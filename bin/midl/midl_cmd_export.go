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
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/frodobuf/frodobuf/encoding/midljson"
	"github.com/frodobuf/frodobuf/encoding/midlproto"
	"github.com/frodobuf/frodobuf/encoding/midltext"
	"github.com/frodobuf/frodobuf/encoding/midlyaml"
	"github.com/frodobuf/frodobuf/schema"
)

type cmdExport struct {
	*app
	input   string
	outPath string
	format  string
	pretty  bool
}

func (*cmdExport) help() *commandHelp {
	return &commandHelp{
		usage:   "export [options] [SCHEMA]",
		summary: "Compile a MIDL file and write the schema as JSON, YAML, text, or protobuf",
		aliases: []string{"json", "schema"},
	}
}

func (cmd *cmdExport) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.input, "input", "i", "", "MIDL file to compile")
	flags.StringVarP(&cmd.outPath, "output", "o", "", "output file (default: stdout)")
	flags.StringVarP(&cmd.format, "format", "f", "", "json, yaml, text, proto, or descriptor (default: from the output extension, else json)")
	flags.BoolVar(&cmd.pretty, "pretty", false, "indent JSON output")
}

type exporter func(s *schema.Schema, pretty bool) ([]byte, error)

var exporters = map[string]exporter{
	"json": func(s *schema.Schema, pretty bool) ([]byte, error) {
		if pretty {
			return midljson.EncodePretty(s)
		}
		buf, err := midljson.Encode(s)
		if err != nil {
			return nil, err
		}
		return append(buf, '\n'), nil
	},
	"yaml": func(s *schema.Schema, _ bool) ([]byte, error) {
		return midlyaml.Encode(s)
	},
	"text": func(s *schema.Schema, _ bool) ([]byte, error) {
		return []byte(midltext.Encode(s)), nil
	},
	"proto": func(s *schema.Schema, _ bool) ([]byte, error) {
		out, err := midlproto.PrintString(s)
		return []byte(out), err
	},
	"descriptor": func(s *schema.Schema, _ bool) ([]byte, error) {
		return midlproto.Descriptor(s)
	},
}

// exportFormat picks a format from the flag or the output extension.
func exportFormat(format, outPath string) (string, error) {
	switch strings.ToLower(format) {
	case "json", "schema":
		return "json", nil
	case "yaml", "yml":
		return "yaml", nil
	case "text", "txt", "midltext":
		return "text", nil
	case "proto":
		return "proto", nil
	case "descriptor", "pb", "binpb":
		return "descriptor", nil
	case "":
	default:
		return "", errors.Errorf("unsupported output format %q", format)
	}
	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".txt":
		return "text", nil
	case ".proto":
		return "proto", nil
	case ".pb", ".binpb", ".desc":
		return "descriptor", nil
	}
	return "json", nil
}

func (cmd *cmdExport) run(ctx context.Context, argv []string) int {
	input, err := inputPath(cmd.input, argv)
	if err != nil {
		return cmd.fail(err)
	}
	format, err := exportFormat(cmd.format, cmd.outPath)
	if err != nil {
		return cmd.fail(err)
	}
	s, err := cmd.loadSchema(input)
	if err != nil {
		return cmd.fail(err)
	}
	output, err := exporters[format](s, cmd.pretty)
	if err != nil {
		return cmd.fail(errors.Wrapf(err, "export %s", format))
	}
	if err := cmd.writeOutput(cmd.outPath, output); err != nil {
		return cmd.fail(err)
	}
	return 0
}
