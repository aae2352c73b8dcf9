// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package equation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/doug-101/TreeLine-sub000/codec"
)

type function struct {
	minArgs, maxArgs int // maxArgs < 0 means variadic
	call             func(c *evalContext, args []Value) (Value, error)
}

func (f *function) arity() string {
	switch {
	case f.maxArgs < 0:
		return fmt.Sprintf("at least %d arguments", f.minArgs)
	case f.minArgs == f.maxArgs && f.minArgs == 1:
		return "1 argument"
	case f.minArgs == f.maxArgs:
		return fmt.Sprintf("%d arguments", f.minArgs)
	}
	return fmt.Sprintf("%d to %d arguments", f.minArgs, f.maxArgs)
}

var functions map[string]*function

func init() {
	functions = map[string]*function{
		"sum":  {1, -1, aggregate(sumValues)},
		"min":  {1, -1, aggregate(extremum(-1))},
		"max":  {1, -1, aggregate(extremum(1))},
		"mean": {1, -1, aggregate(meanValues)},

		"abs":       unary(math.Abs),
		"sqrt":      unaryChecked(math.Sqrt),
		"exp":       unaryChecked(math.Exp),
		"log10":     unaryChecked(math.Log10),
		"floor":     unary(math.Floor),
		"ceil":      unary(math.Ceil),
		"int":       unary(math.Trunc),
		"float":     unary(func(x float64) float64 { return x }),
		"sin":       unary(math.Sin),
		"cos":       unary(math.Cos),
		"tan":       unary(math.Tan),
		"asin":      unaryChecked(math.Asin),
		"acos":      unaryChecked(math.Acos),
		"atan":      unary(math.Atan),
		"degrees":   unary(func(x float64) float64 { return x * 180 / math.Pi }),
		"radians":   unary(func(x float64) float64 { return x * math.Pi / 180 }),
		"factorial": {1, 1, numeric(factorial)},
		"log":       {1, 2, numeric(logarithm)},
		"round":     {1, 2, numeric(round)},
		"pow":       {2, 2, numeric(pow)},
		"atan2":     {2, 2, numeric(func(a []float64) (float64, error) { return math.Atan2(a[0], a[1]), nil })},

		"join":       {1, 2, join},
		"upper":      {1, 1, textFunc(strings.ToUpper)},
		"lower":      {1, 1, textFunc(strings.ToLower)},
		"str":        {1, 1, textFunc(func(s string) string { return s })},
		"replace":    {3, 3, replace},
		"startswith": {2, 2, textPredicate(strings.HasPrefix)},
		"endswith":   {2, 2, textPredicate(strings.HasSuffix)},
		"contains":   {2, 2, contains},
		"len":        {1, 1, length},

		"date":  {3, 3, makeDate},
		"time":  {2, 3, makeTime},
		"today": {0, 0, today},
		"now":   {0, 0, now},
	}
}

func unary(f func(float64) float64) *function {
	return &function{1, 1, numeric(func(a []float64) (float64, error) { return f(a[0]), nil })}
}

func unaryChecked(f func(float64) float64) *function {
	return &function{1, 1, numeric(func(a []float64) (float64, error) {
		r := f(a[0])
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return 0, evalErrorf("math domain error for %v", a[0])
		}
		return r, nil
	})}
}

// numeric adapts a float function; every argument must be a number or a
// boolean.
func numeric(f func([]float64) (float64, error)) func(*evalContext, []Value) (Value, error) {
	return func(_ *evalContext, args []Value) (Value, error) {
		nums := make([]float64, len(args))
		for i, a := range args {
			if !a.numeric() {
				if a.Kind != KindText {
					return Blank, evalErrorf("expected a number, got %s", a.Kind)
				}
				n, err := a.AsNumber()
				if err != nil {
					return Blank, err
				}
				nums[i] = n
				continue
			}
			nums[i] = a.num()
		}
		r, err := f(nums)
		if err != nil {
			return Blank, err
		}
		return NumberValue(r), nil
	}
}

func aggregate(f func([]Value) (Value, error)) func(*evalContext, []Value) (Value, error) {
	return func(_ *evalContext, args []Value) (Value, error) {
		return f(flatten(args))
	}
}

func sumValues(items []Value) (Value, error) {
	total := 0.0
	for _, v := range items {
		n, err := v.AsNumber()
		if err != nil {
			return Blank, err
		}
		total += n
	}
	return NumberValue(total), nil
}

func meanValues(items []Value) (Value, error) {
	if len(items) == 0 {
		return Blank, evalErrorf("mean of an empty list")
	}
	total, err := sumValues(items)
	if err != nil {
		return Blank, err
	}
	return NumberValue(total.Num / float64(len(items))), nil
}

// extremum returns min (dir -1) or max (dir 1) over values of one
// comparable kind, keeping the winning value's kind.
func extremum(dir int) func([]Value) (Value, error) {
	return func(items []Value) (Value, error) {
		if len(items) == 0 {
			return Blank, evalErrorf("empty list")
		}
		best := items[0]
		for _, v := range items[1:] {
			c, ok := order(v, best)
			if !ok {
				return Blank, evalErrorf("cannot compare %s and %s", v.Kind, best.Kind)
			}
			if c == dir {
				best = v
			}
		}
		return best, nil
	}
}

func factorial(a []float64) (float64, error) {
	n := a[0]
	if n < 0 || n != math.Trunc(n) {
		return 0, evalErrorf("factorial needs a non-negative integer")
	}
	if n > 170 {
		return 0, evalErrorf("factorial argument too large")
	}
	r := 1.0
	for i := 2.0; i <= n; i++ {
		r *= i
	}
	return r, nil
}

func logarithm(a []float64) (float64, error) {
	if a[0] <= 0 {
		return 0, evalErrorf("math domain error for log(%v)", a[0])
	}
	if len(a) == 1 {
		return math.Log(a[0]), nil
	}
	if a[1] <= 0 || a[1] == 1 {
		return 0, evalErrorf("invalid logarithm base %v", a[1])
	}
	return math.Log(a[0]) / math.Log(a[1]), nil
}

func round(a []float64) (float64, error) {
	if len(a) == 1 {
		return math.RoundToEven(a[0]), nil
	}
	digits := a[1]
	if digits != math.Trunc(digits) {
		return 0, evalErrorf("round digits must be an integer")
	}
	scale := math.Pow(10, digits)
	return math.RoundToEven(a[0]*scale) / scale, nil
}

func pow(a []float64) (float64, error) {
	v, err := binaryOp("**", NumberValue(a[0]), NumberValue(a[1]))
	return v.Num, err
}

const maxTextLen = 1 << 20

func join(_ *evalContext, args []Value) (Value, error) {
	sep := ", "
	if len(args) == 2 {
		if args[1].Kind != KindText {
			return Blank, evalErrorf("join separator must be text")
		}
		sep = args[1].Str
	}
	items := flatten(args[:1])
	parts := make([]string, len(items))
	for i, v := range items {
		parts[i] = v.Text()
	}
	return TextValue(strings.Join(parts, sep)), nil
}

func textFunc(f func(string) string) func(*evalContext, []Value) (Value, error) {
	return func(_ *evalContext, args []Value) (Value, error) {
		return TextValue(f(args[0].Text())), nil
	}
}

func textPredicate(f func(s, part string) bool) func(*evalContext, []Value) (Value, error) {
	return func(_ *evalContext, args []Value) (Value, error) {
		return BoolValue(f(args[0].Text(), args[1].Text())), nil
	}
}

func replace(_ *evalContext, args []Value) (Value, error) {
	s, old, repl := args[0].Text(), args[1].Text(), args[2].Text()
	if old == "" {
		return Blank, evalErrorf("replace needs a non-empty search text")
	}
	if n := strings.Count(s, old); n > 0 && len(s)+n*(len(repl)-len(old)) > maxTextLen {
		return Blank, evalErrorf("replacement result too long")
	}
	return TextValue(strings.ReplaceAll(s, old, repl)), nil
}

func contains(_ *evalContext, args []Value) (Value, error) {
	if args[0].Kind == KindList {
		for _, item := range args[0].List {
			if c, ok := order(item, args[1]); ok && c == 0 {
				return BoolValue(true), nil
			}
		}
		return BoolValue(false), nil
	}
	return BoolValue(strings.Contains(args[0].Text(), args[1].Text())), nil
}

func length(_ *evalContext, args []Value) (Value, error) {
	switch v := args[0]; v.Kind {
	case KindList:
		return NumberValue(float64(len(v.List))), nil
	case KindText:
		return NumberValue(float64(len([]rune(v.Str)))), nil
	}
	return Blank, evalErrorf("len needs text or a list, got %s", args[0].Kind)
}

func intArgs(args []Value) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := a.AsNumber()
		if err != nil {
			return nil, err
		}
		if n != math.Trunc(n) {
			return nil, evalErrorf("expected an integer, got %v", n)
		}
		out[i] = int(n)
	}
	return out, nil
}

func makeDate(_ *evalContext, args []Value) (Value, error) {
	n, err := intArgs(args)
	if err != nil {
		return Blank, err
	}
	t := time.Date(n[0], time.Month(n[1]), n[2], 0, 0, 0, 0, time.UTC)
	if t.Year() != n[0] || int(t.Month()) != n[1] || t.Day() != n[2] {
		return Blank, evalErrorf("invalid date %d-%d-%d", n[0], n[1], n[2])
	}
	return DateValue(codec.DateOrdinal(t)), nil
}

func makeTime(_ *evalContext, args []Value) (Value, error) {
	n, err := intArgs(args)
	if err != nil {
		return Blank, err
	}
	n = append(n, 0)
	if n[0] < 0 || n[0] > 23 || n[1] < 0 || n[1] > 59 || n[2] < 0 || n[2] > 59 {
		return Blank, evalErrorf("invalid time %d:%d:%d", n[0], n[1], n[2])
	}
	return TimeValue(float64(n[0]*3600 + n[1]*60 + n[2])), nil
}

func today(c *evalContext, _ []Value) (Value, error) {
	return DateValue(codec.DateOrdinal(codec.ResolveNow(c.now()))), nil
}

func now(c *evalContext, _ []Value) (Value, error) {
	return DateTimeValue(codec.DateTimeSeconds(codec.ResolveNow(c.now()))), nil
}

// FunctionNames lists the supported function names in sorted order.
func FunctionNames() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
