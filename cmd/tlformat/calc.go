// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/doug-101/TreeLine-sub000/equation"
	"github.com/doug-101/TreeLine-sub000/fieldformat"
)

func (a *app) calcCmd() *cobra.Command {
	var (
		result string
		format string
		stored bool
		vars   map[string]string
	)
	cmd := &cobra.Command{
		Use:   "calc EQUATION",
		Short: "Evaluate an equation",
		Long: `Evaluate an equation and print its formatted result.

Field references of the form {*Name*} read their value from --var Name=VALUE;
values that parse as numbers are numbers, anything else is text. A reference
with no value is blank.`,
		Example: `  tlformat calc "round(2 / 3, 2)"
  tlformat calc --var Price=12.5 --var Qty=4 "{*Price*} * {*Qty*}"
  tlformat calc --result date "today() + 30"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fieldformat.NewField("Result", fieldformat.TypeMath)
			if err != nil {
				return err
			}
			if err := f.SetResultType(result); err != nil {
				return err
			}
			if format != "" {
				if err := f.SetFormat(format); err != nil {
					return err
				}
			}
			if err := f.SetEquation(args[0]); err != nil {
				return err
			}

			zero := a.cfg.Settings.ZeroBlanks
			val, err := f.CompiledEquation().Eval(varResolver(vars), equation.EvalOptions{ZeroBlanks: zero, Placeholder: f.ResultType.Placeholder()})
			if errors.Is(err, equation.ErrBlank) {
				a.logger.Debug("blank result", "equation", args[0])
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}
			if err != nil {
				return err
			}
			text, err := f.ResultType.Store(val)
			if err != nil {
				return err
			}
			if !stored {
				text = f.FormatOutput(text, fieldformat.OutputOptions{Env: a.env()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&result, "result", "r", string(equation.ResultNumber), "result type: number, date, time, boolean or text")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format for the result type")
	cmd.Flags().BoolVar(&stored, "stored", false, "print the stored form instead of the formatted output")
	cmd.Flags().StringToStringVar(&vars, "var", nil, "field value as Name=VALUE (repeatable)")
	return cmd
}

// varResolver serves field references from command-line values. Only
// references to the evaluated node itself can be given.
func varResolver(vars map[string]string) equation.Resolver {
	return equation.ResolverFunc(func(ref equation.Ref, _ bool) (equation.Value, error) {
		if ref.Rel != equation.RelSelf {
			return equation.Blank, fmt.Errorf("%s: only {*name*} references can be set", ref)
		}
		v, ok := vars[ref.Field]
		if !ok || v == "" {
			return equation.Blank, nil
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return equation.NumberValue(n), nil
		}
		return equation.TextValue(v), nil
	})
}
