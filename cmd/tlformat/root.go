// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/doug-101/TreeLine-sub000/fieldformat"
	"github.com/doug-101/TreeLine-sub000/internal/config"
)

// app holds the state shared by all subcommands.
type app struct {
	fs       afero.Fs
	cfgFile  string
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(fsys afero.Fs) *cobra.Command {
	a := &app{fs: fsys}
	root := &cobra.Command{
		Use:   "tlformat",
		Short: "Format, parse and compute TreeLine field values",
		Long: `tlformat exercises the TreeLine field formatting core from the command line.
It converts values between stored, editor and output text for any field type,
evaluates equations, and validates node format definition files.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is $HOME/.tlformat.yaml or ./.tlformat.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		a.formatCmd(),
		a.editCmd(),
		a.storeCmd(),
		a.calcCmd(),
		a.checkCmd(),
	)
	return root
}

// init loads the configuration and installs the logger. The --log-level
// flag wins over the config file and environment.
func (a *app) init(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.fs, a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
	if cfg.File != "" {
		a.logger.Debug("using config file", "path", cfg.File)
	}
	return nil
}

func (a *app) env() *fieldformat.Env {
	return &fieldformat.Env{Settings: a.cfg.Settings}
}
