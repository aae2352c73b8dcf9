// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doug-101/TreeLine-sub000/fieldformat"
)

// fieldFlags describe the single field a conversion command works on.
type fieldFlags struct {
	typ          string
	format       string
	editorFormat string
	prefix       string
	suffix       string
}

func (ff *fieldFlags) register(cmd *cobra.Command) {
	names := make([]string, 0, len(fieldformat.FieldTypes()))
	for _, t := range fieldformat.FieldTypes() {
		names = append(names, string(t))
	}
	cmd.Flags().StringVarP(&ff.typ, "type", "t", string(fieldformat.TypeText), "field type: "+strings.Join(names, ", "))
	cmd.Flags().StringVarP(&ff.format, "format", "f", "", "output format pattern (default depends on the type)")
	cmd.Flags().StringVar(&ff.editorFormat, "editor-format", "", "editor format for date and time types")
	cmd.Flags().StringVar(&ff.prefix, "prefix", "", "text placed before non-blank output")
	cmd.Flags().StringVar(&ff.suffix, "suffix", "", "text placed after non-blank output")
}

func (ff *fieldFlags) field() (*fieldformat.FieldDefinition, error) {
	typ, err := fieldformat.ParseFieldType(ff.typ)
	if err != nil {
		return nil, err
	}
	f, err := fieldformat.NewField("Value", typ)
	if err != nil {
		return nil, err
	}
	if ff.format != "" {
		if err := f.SetFormat(ff.format); err != nil {
			return nil, err
		}
	}
	if ff.editorFormat != "" {
		if err := f.SetEditorFormat(ff.editorFormat); err != nil {
			return nil, err
		}
	}
	f.Prefix, f.Suffix = ff.prefix, ff.suffix
	return f, nil
}

func (a *app) formatCmd() *cobra.Command {
	var ff fieldFlags
	var plain, title bool
	cmd := &cobra.Command{
		Use:   "format STORED",
		Short: "Render a stored value as output text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ff.field()
			if err != nil {
				return err
			}
			out := f.FormatOutput(args[0], fieldformat.OutputOptions{
				AllowMarkup: !plain,
				TitleMode:   title,
				Env:         a.env(),
			})
			if strings.Contains(out, fieldformat.ErrorMarker) {
				a.logger.Warn("value does not match its format", "type", f.Type, "value", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().BoolVar(&plain, "plain", false, "strip markup and decode entities")
	cmd.Flags().BoolVar(&title, "title", false, "plain text limited to the first line")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var ff fieldFlags
	cmd := &cobra.Command{
		Use:   "edit STORED",
		Short: "Render a stored value as editor text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ff.field()
			if err != nil {
				return err
			}
			text, err := f.EditorText(args[0], a.env())
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	ff.register(cmd)
	return cmd
}

func (a *app) storeCmd() *cobra.Command {
	var ff fieldFlags
	cmd := &cobra.Command{
		Use:   "store TEXT",
		Short: "Convert editor text to its stored value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ff.field()
			if err != nil {
				return err
			}
			stored, err := f.StoredText(args[0], a.env())
			if err != nil {
				return fmt.Errorf("cannot store %q as %s: %w", args[0], f.Type, err)
			}
			a.logger.Debug("stored value", "type", f.Type, "editor", args[0], "stored", stored)
			fmt.Fprintln(cmd.OutOrStdout(), stored)
			return nil
		},
	}
	ff.register(cmd)
	return cmd
}
