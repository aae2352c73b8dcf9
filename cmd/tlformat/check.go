// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/doug-101/TreeLine-sub000/fieldformat"
)

func (a *app) checkCmd() *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Validate a node format definition file",
		Long: `Parse a YAML or JSON node format definition file, validate every field
definition and check the math fields for circular references.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := afero.ReadFile(a.fs, args[0])
			if err != nil {
				return fmt.Errorf("failed to read formats: %w", err)
			}
			fs, err := fieldformat.ParseFormats(data)
			if err != nil {
				a.logger.Warn("invalid format file", "path", args[0], "error", err)
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if dump {
				normalized, err := fs.Marshal()
				if err != nil {
					return err
				}
				_, err = out.Write(normalized)
				return err
			}
			for _, nf := range fs.Formats {
				line := fmt.Sprintf("%s: %d fields", nf.Name, len(nf.Fields))
				if n := len(nf.MathFields()); n > 0 {
					line += fmt.Sprintf(", %d math", n)
				}
				if nf.GenericType != "" {
					line += ", derived from " + nf.GenericType
				}
				fmt.Fprintln(out, line)
			}
			a.logger.Info("formats valid", "path", args[0], "formats", len(fs.Formats))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print the normalized definitions as YAML")
	return cmd
}
