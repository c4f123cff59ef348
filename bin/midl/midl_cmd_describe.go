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
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"

	"github.com/frodobuf/frodobuf/schema"
)

type cmdDescribe struct {
	*app
	input    string
	messages bool
}

func (*cmdDescribe) help() *commandHelp {
	return &commandHelp{
		usage:   "describe [options] [SCHEMA]",
		summary: "Print the services, methods, and identifiers of a MIDL file",
	}
}

func (cmd *cmdDescribe) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.input, "input", "i", "", "MIDL file to compile")
	flags.BoolVar(&cmd.messages, "messages", false, "also list message fields")
}

func (cmd *cmdDescribe) run(ctx context.Context, argv []string) int {
	input, err := inputPath(cmd.input, argv)
	if err != nil {
		return cmd.fail(err)
	}
	s, err := cmd.loadSchema(input)
	if err != nil {
		return cmd.fail(err)
	}
	describe(cmd.stdout, s, cmd.messages)
	return 0
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	return table
}

func describe(w io.Writer, s *schema.Schema, messages bool) {
	fmt.Fprintf(w, "package:   %s\n", s.Package)
	fmt.Fprintf(w, "schema id: %s\n", s.ID)

	if len(s.Services) > 0 {
		fmt.Fprintln(w)
		services := newTable(w, "service", "id", "client", "server")
		for _, svc := range s.Services {
			services.Append([]string{
				svc.Name,
				svc.ID.String(),
				strconv.FormatBool(svc.GenerateClient),
				strconv.FormatBool(svc.GenerateServer),
			})
		}
		services.Render()

		fmt.Fprintln(w)
		methods := newTable(w, "service", "method", "input", "output")
		for _, svc := range s.Services {
			for _, method := range svc.Methods {
				methods.Append([]string{
					svc.Name,
					method.Name,
					method.Input.String(),
					method.Output.String(),
				})
			}
		}
		methods.Render()
	}

	if messages && len(s.Messages) > 0 {
		fmt.Fprintln(w)
		fields := newTable(w, "message", "field", "number", "type", "optional")
		for _, msg := range s.Messages {
			for _, field := range msg.Fields {
				fields.Append([]string{
					msg.Name,
					field.Name,
					strconv.FormatUint(uint64(field.Number), 10),
					field.Type.String(),
					strconv.FormatBool(field.Optional),
				})
			}
		}
		fields.Render()
	}
}
