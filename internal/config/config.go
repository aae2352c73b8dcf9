// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

// Package config loads tlformat settings from defaults, an optional config
// file and TLFORMAT_ environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/doug-101/TreeLine-sub000/fieldformat"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. TLFORMAT_LOG_LEVEL.
	EnvPrefix = "TLFORMAT"
	// ConfigName is the file searched for in the home and working
	// directories when no path is given.
	ConfigName = ".tlformat"
	// DefaultLogLevel applies when log.level is unset.
	DefaultLogLevel = "warn"
)

// Config is the resolved tool configuration.
type Config struct {
	Log      LogConfig            `mapstructure:"log"`
	Settings fieldformat.Settings `mapstructure:"settings"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// LogConfig selects the log output.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Level parses the configured level name.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}

// Load reads the configuration through fsys. An explicit path must exist;
// without one, ~/.tlformat.* and ./.tlformat.* are tried and a missing file
// is not an error.
func Load(fsys afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fsys)

	defaults := fieldformat.DefaultSettings()
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("settings.zero_blanks", defaults.ZeroBlanks)
	v.SetDefault("settings.date_editor_format", defaults.DateEditorFormat)
	v.SetDefault("settings.time_editor_format", defaults.TimeEditorFormat)
	v.SetDefault("settings.datetime_editor_format", defaults.DateTimeEditorFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path: %w", err)
		}
		v.SetConfigFile(expanded)
	} else {
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(ConfigName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{File: v.ConfigFileUsed()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return cfg, nil
}
