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

// tinygo_build compiles a package to a WebAssembly codegen plugin. It is
// run by go:generate from the plugin's directory.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

var (
	tinygo   = flag.String("tinygo", "", "path to the tinygo binary (default: search $PATH)")
	output   = flag.String("output", "", "path of the .wasm file to write")
	chdir    = flag.String("chdir", ".", "directory to build in")
	target   = flag.String("target", "wasip1", "tinygo target")
	goSdkBin = flag.String("go-sdk-bin", "", "directory containing the go binary (default: inherit $PATH)")
	wasmOpt  = flag.String("wasm-opt", "", "path to wasm-opt (default: tinygo's choice)")
)

func main() {
	flag.Parse()
	if *output == "" {
		fmt.Fprintln(os.Stderr, "No output file specified (set -output=)")
		os.Exit(1)
	}
	pwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	abs := func(path string) string {
		if filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(pwd, path)
	}

	tinygoBin := *tinygo
	if tinygoBin == "" {
		if tinygoBin, err = exec.LookPath("tinygo"); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	} else {
		tinygoBin = abs(tinygoBin)
	}

	tinygoArgs := []string{
		"build",
		"-o=" + abs(*output),
		"-target=" + *target,
		"-buildmode=c-shared",
		"-no-debug",
	}
	tinygoArgs = append(tinygoArgs, flag.Args()...)

	cmd := exec.Command(tinygoBin, tinygoArgs...)
	cmd.Env = []string{
		"HOME=" + filepath.Join(os.TempDir(), "tinygo-home"),
	}
	if *goSdkBin != "" {
		cmd.Env = append(cmd.Env, "PATH="+abs(*goSdkBin))
	} else {
		cmd.Env = append(cmd.Env, "PATH="+os.Getenv("PATH"))
	}
	if *wasmOpt != "" {
		cmd.Env = append(cmd.Env, "WASMOPT="+abs(*wasmOpt))
	}
	cmd.Dir = abs(*chdir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
