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

// Command midl compiles MIDL interface definitions and generates code
// from them.
package main

import (
	"context"
	stdflag "flag"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type command interface {
	help() *commandHelp
	flags(flags *pflag.FlagSet)
	run(ctx context.Context, argv []string) int
}

type commandHelp struct {
	usage   string
	summary string
	aliases []string
}

func main() {
	a := newApp(os.Stdout, os.Stderr)
	os.Exit(a.execute(context.Background(), os.Args[1:]))
}

func (a *app) commands() []command {
	return []command{
		&cmdCreate{app: a},
		&cmdUpdate{app: a},
		&cmdExport{app: a},
		&cmdDescribe{app: a},
		&cmdCodegen{app: a},
	}
}

// execute runs the command named by args and returns the process exit code.
func (a *app) execute(ctx context.Context, args []string) int {
	exitCode := 0
	midlCmd := &cobra.Command{
		Use:           "midl [options] COMMAND",
		Short:         "Compile MIDL interface definitions and generate code",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	midlCmd.SetOut(a.stdout)
	midlCmd.SetErr(a.stderr)
	midlCmd.SetArgs(args)
	midlCmd.RunE = func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(a.stderr, midlCmd.UsageString())
		exitCode = 1
		return nil
	}

	persistent := midlCmd.PersistentFlags()
	persistent.StringVar(&a.configPath, "config", "", "path to midl.toml (default: ./midl.toml, then $XDG_CONFIG_HOME/midl/midl.toml)")
	persistent.StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (default: warn)")
	persistent.BoolVar(&a.noColor, "no-color", false, "disable colored diagnostics")
	midlCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return a.setup()
	}

	for _, cmd := range a.commands() {
		help := cmd.help()
		cobraCmd := &cobra.Command{
			Use:     help.usage,
			Short:   help.summary,
			Aliases: help.aliases,
			RunE: func(_ *cobra.Command, args []string) error {
				exitCode = cmd.run(ctx, args)
				return nil
			},
		}
		midlCmd.AddCommand(cobraCmd)
		cmd.flags(cobraCmd.Flags())
	}

	midlCmd.Flags().AddGoFlagSet(stdflag.CommandLine)
	if _, err := midlCmd.ExecuteC(); err != nil {
		fmt.Fprintf(a.stderr, "%v\n", err)
		return 1
	}
	return exitCode
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}
