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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/zchee/go-xdgbasedir"
)

// Config keys.
const (
	keyLogLevel          = "log.level"
	keyColor             = "color"
	keyOutput            = "output"
	keyCodegenLanguages  = "codegen.languages"
	keyCodegenPluginPath = "codegen.plugin_path"
	keyCodegenTemplates  = "codegen.templates"
)

type app struct {
	stdout io.Writer
	stderr io.Writer

	// Global flags.
	configPath string
	logLevel   string
	noColor    bool

	config *viper.Viper
	log    zerolog.Logger
	color  bool
	diag   io.Writer
}

func (a *app) setup() error {
	config, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.config = config

	levelName := a.logLevel
	if levelName == "" {
		levelName = config.GetString(keyLogLevel)
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", levelName)
	}

	a.color = !a.noColor && config.GetBool(keyColor) && isTerminal(a.stderr)
	if f, ok := a.stderr.(*os.File); ok && a.color {
		a.diag = colorable.NewColorable(f)
	} else {
		a.diag = colorable.NewNonColorable(a.stderr)
	}

	a.log = zerolog.New(zerolog.ConsoleWriter{
		Out:     a.diag,
		NoColor: !a.color,
		PartsExclude: []string{
			zerolog.TimestampFieldName,
		},
	}).Level(level).With().Timestamp().Logger()
	if path := config.ConfigFileUsed(); path != "" {
		a.log.Debug().Str("path", path).Msg("loaded config")
	}
	return nil
}

func loadConfig(path string) (*viper.Viper, error) {
	config := viper.New()
	config.SetDefault(keyLogLevel, "warn")
	config.SetDefault(keyColor, true)
	config.SetDefault(keyCodegenLanguages, []string{"rust"})
	config.SetEnvPrefix("MIDL")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, errors.Wrapf(err, "config path %q", path)
		}
		config.SetConfigFile(expanded)
		if err := config.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", expanded)
		}
		return config, nil
	}

	config.SetConfigName("midl")
	config.SetConfigType("toml")
	config.AddConfigPath(".")
	config.AddConfigPath(filepath.Join(xdgbasedir.ConfigHome(), "midl"))
	if err := config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}
	return config, nil
}

// pathSetting returns a path-valued config key with "~" expanded.
func (a *app) pathSetting(key string) (string, error) {
	path := a.config.GetString(key)
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", errors.Wrapf(err, "config key %s", key)
	}
	return expanded, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
