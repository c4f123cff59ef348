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

package wasmplugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	wasm "github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/zchee/go-xdgbasedir"

	"github.com/frodobuf/frodobuf/codegen"
	"github.com/frodobuf/frodobuf/encoding/midljson"
	"github.com/frodobuf/frodobuf/schema"
)

// PluginPathEnv names the environment variable consulted by Locate when no
// search path is given.
const PluginPathEnv = "MIDL_CODEGEN_PLUGIN_PATH"

// 1 GiB of 64 KiB pages.
const defaultMemoryLimitPages = 16384

// Plugin is a codegen.Backend implemented by a WebAssembly module. Each call
// to Generate runs in a fresh runtime.
type Plugin struct {
	language         string
	path             string
	module           []byte
	memoryLimitPages uint32
	stderr           io.Writer
}

var _ codegen.Backend = (*Plugin)(nil)

type Option func(*Plugin)

func WithMemoryLimitPages(pages uint32) Option {
	return func(p *Plugin) { p.memoryLimitPages = pages }
}

// WithStderr sets where the plugin's standard error goes. It is discarded
// by default.
func WithStderr(w io.Writer) Option {
	return func(p *Plugin) { p.stderr = w }
}

func New(language string, module []byte, opts ...Option) *Plugin {
	p := &Plugin{
		language:         language,
		path:             fmt.Sprintf("<%s plugin>", language),
		module:           module,
		memoryLimitPages: defaultMemoryLimitPages,
		stderr:           io.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func Load(language, path string, opts ...Option) (*Plugin, error) {
	module, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s plugin", language)
	}
	p := New(language, module, opts...)
	p.path = path
	return p, nil
}

// Basename is the file name of the plugin for a language.
func Basename(language string) string {
	return fmt.Sprintf("midl-codegen-%s.wasm", language)
}

// Locate searches a list of directories for the plugin of a language. The
// list uses the OS path list separator. If searchPath is empty, it is taken
// from $MIDL_CODEGEN_PLUGIN_PATH, then the midl/plugins directory under the
// XDG data home.
func Locate(language, searchPath string) (string, error) {
	if searchPath == "" {
		searchPath = os.Getenv(PluginPathEnv)
	}
	if searchPath == "" {
		searchPath = filepath.Join(xdgbasedir.DataHome(), "midl", "plugins")
	}
	basename := Basename(language)
	for _, dir := range filepath.SplitList(searchPath) {
		if dir == "" {
			continue
		}
		expanded, err := homedir.Expand(dir)
		if err != nil {
			return "", errors.Wrapf(err, "plugin path entry %q", dir)
		}
		pluginPath := filepath.Join(expanded, basename)
		if info, err := os.Stat(pluginPath); err == nil && info.Mode().IsRegular() {
			return pluginPath, nil
		}
	}
	return "", errors.Errorf(
		"MIDL codegen plugin %s not found in plugin path (set --plugin-path= or $%s)",
		basename, PluginPathEnv,
	)
}

func (p *Plugin) Name() string {
	return p.language
}

func (p *Plugin) Path() string {
	return p.path
}

func (p *Plugin) Render(s *schema.Schema, opts *codegen.Options) (codegen.Files, error) {
	return p.Generate(context.Background(), s, opts)
}

// Backend returns a codegen.Backend that renders with ctx.
func (p *Plugin) Backend(ctx context.Context) codegen.Backend {
	return &boundPlugin{p, ctx}
}

type boundPlugin struct {
	*Plugin
	ctx context.Context
}

func (b *boundPlugin) Render(s *schema.Schema, opts *codegen.Options) (codegen.Files, error) {
	return b.Generate(b.ctx, s, opts)
}

// Generate runs the plugin on a schema. Every failure is reported as a
// codegen error with code 5005.
func (p *Plugin) Generate(ctx context.Context, s *schema.Schema, opts *codegen.Options) (codegen.Files, error) {
	files, err := p.generate(ctx, s, opts)
	if err != nil {
		return nil, codegen.PluginError(p.language, err)
	}
	return files, nil
}

func (p *Plugin) generate(ctx context.Context, s *schema.Schema, opts *codegen.Options) (codegen.Files, error) {
	if opts == nil {
		opts = codegen.NewOptions()
	}
	if opts.Templates() != nil {
		return nil, errors.New("template overrides are not supported by plugins")
	}
	payload, err := json.Marshal(&Request{
		Language: p.language,
		Options:  opts.Values(),
		Schema:   midljson.FromSchema(s),
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}
	request, err := Frame(payload)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("plugin", p.path).Logger()
	logger.Debug().Int("request_bytes", len(request)).Msg("running codegen plugin")

	runtimeConfig := wasm.NewRuntimeConfigInterpreter()
	runtimeConfig = runtimeConfig.WithMemoryLimitPages(p.memoryLimitPages)
	runtimeConfig = runtimeConfig.WithCloseOnContextDone(true)
	runtime := wasm.NewRuntimeWithConfig(ctx, runtimeConfig)
	defer runtime.Close(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		return nil, errors.Wrap(err, "instantiate WASI")
	}
	compiled, err := runtime.CompileModule(ctx, p.module)
	if err != nil {
		return nil, errors.Wrap(err, "compile plugin")
	}
	moduleConfig := wasm.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize").
		WithStderr(p.stderr)
	plugin, err := runtime.InstantiateModule(ctx, compiled, moduleConfig)
	if err != nil {
		return nil, errors.Wrap(err, "instantiate plugin")
	}

	mem := plugin.Memory()
	allocate := plugin.ExportedFunction(ExportAllocate)
	deallocate := plugin.ExportedFunction(ExportDeallocate)
	generate := plugin.ExportedFunction(ExportGenerate)
	if mem == nil || allocate == nil || generate == nil {
		return nil, errors.Errorf(
			"%s does not export memory, %s, and %s",
			p.path, ExportAllocate, ExportGenerate,
		)
	}
	free := func(ptr uint32) {
		if deallocate != nil && ptr != 0 {
			_, _ = deallocate.Call(ctx, uint64(ptr))
		}
	}

	requestPtr, err := callPtr(ctx, allocate, uint64(len(request)))
	if err != nil {
		return nil, err
	}
	defer free(requestPtr)
	if !mem.Write(requestPtr, request) {
		return nil, errors.New("failed to write request into plugin memory")
	}
	responsePtrPtr, err := callPtr(ctx, allocate, 4)
	if err != nil {
		return nil, err
	}
	defer free(responsePtrPtr)

	results, err := generate.Call(ctx, uint64(requestPtr), uint64(responsePtrPtr))
	if err != nil {
		return nil, errors.Wrap(err, ExportGenerate)
	}
	if len(results) != 1 {
		return nil, errors.Errorf("%s returned %d results", ExportGenerate, len(results))
	}
	rc := uint8(results[0])

	responsePtr, ok := mem.ReadUint32Le(responsePtrPtr)
	if !ok || responsePtr == 0 {
		return nil, errors.New("failed to read response pointer")
	}
	defer free(responsePtr)
	responseLen, ok := mem.ReadUint32Le(responsePtr)
	if !ok {
		return nil, errors.New("failed to read response message length")
	}
	responseBuf, ok := mem.Read(responsePtr+4, responseLen)
	if !ok {
		return nil, errors.New("failed to read response message")
	}
	// mem.Read returns a view of plugin memory, which is gone once the
	// runtime closes.
	responseBuf = bytes.Clone(responseBuf)
	logger.Debug().Uint8("rc", rc).Int("response_bytes", len(responseBuf)).Msg("codegen plugin finished")

	return decodeResponse(responseBuf, rc)
}

func callPtr(ctx context.Context, fn api.Function, size uint64) (uint32, error) {
	results, err := fn.Call(ctx, size)
	if err != nil {
		return 0, errors.Wrap(err, ExportAllocate)
	}
	if len(results) != 1 || uint32(results[0]) == 0 {
		return 0, errors.Errorf("%s failed to allocate %d bytes", ExportAllocate, size)
	}
	return uint32(results[0]), nil
}

func decodeResponse(payload []byte, rc uint8) (codegen.Files, error) {
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	if rc != 0 || resp.Error != "" {
		msg := sanitize(resp.Error)
		if msg == "" {
			msg = fmt.Sprintf("plugin exited with status %d", rc)
		}
		return nil, errors.New(msg)
	}
	if len(resp.Files) == 0 {
		return nil, errors.New("plugin did not generate any output files")
	}
	files := make(codegen.Files, 0, len(resp.Files))
	for _, file := range resp.Files {
		if file == nil {
			return nil, errors.New("response contains a null output file")
		}
		path, err := OutputPath(file.Path)
		if err != nil {
			return nil, err
		}
		files = append(files, &codegen.File{Path: path, Content: file.Content})
	}
	return files, nil
}
