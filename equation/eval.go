// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package equation

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Resolver supplies the values of field references. With zeroBlanks set a
// blank field should resolve to the zero placeholder of its type; otherwise
// it resolves to Blank. Children references resolve to a list.
type Resolver interface {
	Resolve(ref Ref, zeroBlanks bool) (Value, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ref Ref, zeroBlanks bool) (Value, error)

func (f ResolverFunc) Resolve(ref Ref, zeroBlanks bool) (Value, error) {
	return f(ref, zeroBlanks)
}

// EvalOptions control one evaluation.
type EvalOptions struct {
	// ZeroBlanks replaces blank references with zero placeholders instead of
	// making the whole result blank.
	ZeroBlanks bool
	// Now is the clock used by today() and now(). Zero means time.Now().
	Now time.Time
	// Placeholder stands in for a blank reference when ZeroBlanks is set.
	// A blank Placeholder means the number zero.
	Placeholder Value
}

func (o EvalOptions) placeholder() Value {
	if o.Placeholder.IsBlank() {
		return NumberValue(0)
	}
	return o.Placeholder
}

type evalContext struct {
	r    Resolver
	opts EvalOptions
}

func (c *evalContext) now() time.Time {
	if c.opts.Now.IsZero() {
		return time.Now()
	}
	return c.opts.Now
}

// Eval evaluates the equation. A blank reference without ZeroBlanks returns
// ErrBlank; any other failure is an *EvalError or a wrapped resolver error.
func (e *Equation) Eval(r Resolver, opts EvalOptions) (Value, error) {
	if r == nil {
		r = ResolverFunc(func(ref Ref, _ bool) (Value, error) {
			return Blank, evalErrorf("no resolver for %s", ref)
		})
	}
	v, err := e.root.eval(&evalContext{r: r, opts: opts})
	if err != nil {
		return Blank, err
	}
	if v.numericKind() && (math.IsNaN(v.Num) || math.IsInf(v.Num, 0)) {
		return Blank, evalErrorf("result is not a finite number")
	}
	return v, nil
}

func (v Value) numericKind() bool {
	switch v.Kind {
	case KindNumber, KindDate, KindTime, KindDateTime:
		return true
	}
	return false
}

type node interface {
	eval(c *evalContext) (Value, error)
}

type constNode struct {
	v Value
}

func (n *constNode) eval(*evalContext) (Value, error) {
	return n.v, nil
}

type refNode struct {
	ref Ref
}

func (n *refNode) eval(c *evalContext) (Value, error) {
	v, err := c.r.Resolve(n.ref, c.opts.ZeroBlanks)
	if err != nil {
		return Blank, fmt.Errorf("resolving %s: %w", n.ref, err)
	}
	if v.IsBlank() {
		if !c.opts.ZeroBlanks {
			return Blank, ErrBlank
		}
		return c.opts.placeholder(), nil
	}
	return v, nil
}

type condNode struct {
	cond, then, other node
}

func (n *condNode) eval(c *evalContext) (Value, error) {
	cond, err := n.cond.eval(c)
	if err != nil {
		return Blank, err
	}
	if cond.Truth() {
		return n.then.eval(c)
	}
	return n.other.eval(c)
}

// logicNode returns the deciding operand, so "a or b" yields a when a is
// true and b otherwise.
type logicNode struct {
	and         bool
	left, right node
}

func (n *logicNode) eval(c *evalContext) (Value, error) {
	left, err := n.left.eval(c)
	if err != nil {
		return Blank, err
	}
	if left.Truth() != n.and {
		return left, nil
	}
	return n.right.eval(c)
}

type notNode struct {
	x node
}

func (n *notNode) eval(c *evalContext) (Value, error) {
	v, err := n.x.eval(c)
	if err != nil {
		return Blank, err
	}
	return BoolValue(!v.Truth()), nil
}

type unaryNode struct {
	op string
	x  node
}

func (n *unaryNode) eval(c *evalContext) (Value, error) {
	v, err := n.x.eval(c)
	if err != nil {
		return Blank, err
	}
	if !v.numeric() {
		return Blank, evalErrorf("bad operand type for unary %s: %s", n.op, v.Kind)
	}
	f, _ := v.AsNumber()
	if n.op == "-" {
		f = -f
	}
	return NumberValue(f), nil
}

type binaryNode struct {
	op          string
	left, right node
}

func (n *binaryNode) eval(c *evalContext) (Value, error) {
	left, err := n.left.eval(c)
	if err != nil {
		return Blank, err
	}
	right, err := n.right.eval(c)
	if err != nil {
		return Blank, err
	}
	return binaryOp(n.op, left, right)
}

func binaryOp(op string, a, b Value) (Value, error) {
	switch op {
	case "+":
		return add(a, b)
	case "-":
		return subtract(a, b)
	}
	if op == "*" && (a.Kind == KindText || b.Kind == KindText) {
		return repeatText(a, b)
	}
	if !a.numeric() || !b.numeric() {
		return Blank, evalErrorf("unsupported operand types for %s: %s and %s", op, a.Kind, b.Kind)
	}
	x, _ := a.AsNumber()
	y, _ := b.AsNumber()
	switch op {
	case "*":
		return NumberValue(x * y), nil
	case "/":
		if y == 0 {
			return Blank, evalErrorf("division by zero")
		}
		return NumberValue(x / y), nil
	case "//":
		if y == 0 {
			return Blank, evalErrorf("division by zero")
		}
		return NumberValue(math.Floor(x / y)), nil
	case "%":
		if y == 0 {
			return Blank, evalErrorf("modulo by zero")
		}
		r := math.Mod(x, y)
		if r != 0 && (r < 0) != (y < 0) {
			r += y
		}
		return NumberValue(r), nil
	case "**":
		if x == 0 && y < 0 {
			return Blank, evalErrorf("zero cannot be raised to a negative power")
		}
		p := math.Pow(x, y)
		if math.IsNaN(p) {
			return Blank, evalErrorf("math domain error in %v ** %v", x, y)
		}
		return NumberValue(p), nil
	}
	return Blank, evalErrorf("unknown operator %s", op)
}

func add(a, b Value) (Value, error) {
	switch {
	case a.Kind == KindText || b.Kind == KindText:
		return TextValue(a.Text() + b.Text()), nil
	case a.Kind == KindList && b.Kind == KindList:
		items := make([]Value, 0, len(a.List)+len(b.List))
		return ListValue(append(append(items, a.List...), b.List...)...), nil
	case a.numeric() && b.numeric():
		return NumberValue(a.num() + b.num()), nil
	case a.Kind == KindDate && b.Kind == KindTime, a.Kind == KindTime && b.Kind == KindDate:
		d, t := a, b
		if a.Kind == KindTime {
			d, t = b, a
		}
		return DateTimeValue(d.Num*86400 + t.Num), nil
	case isTemporal(a.Kind) && b.numeric():
		return Value{Kind: a.Kind, Num: a.Num + b.num()}, nil
	case a.numeric() && isTemporal(b.Kind):
		return Value{Kind: b.Kind, Num: a.num() + b.Num}, nil
	}
	return Blank, evalErrorf("unsupported operand types for +: %s and %s", a.Kind, b.Kind)
}

func subtract(a, b Value) (Value, error) {
	switch {
	case a.numeric() && b.numeric():
		return NumberValue(a.num() - b.num()), nil
	case isTemporal(a.Kind) && a.Kind == b.Kind:
		return NumberValue(a.Num - b.Num), nil
	case isTemporal(a.Kind) && b.numeric():
		return Value{Kind: a.Kind, Num: a.Num - b.num()}, nil
	case a.Kind == KindDateTime && b.Kind == KindTime:
		return DateTimeValue(a.Num - b.Num), nil
	}
	return Blank, evalErrorf("unsupported operand types for -: %s and %s", a.Kind, b.Kind)
}

func repeatText(a, b Value) (Value, error) {
	text, count := a, b
	if b.Kind == KindText {
		text, count = b, a
	}
	if !count.numeric() {
		return Blank, evalErrorf("can't multiply text by %s", count.Kind)
	}
	c := count.num()
	if c != math.Trunc(c) {
		return Blank, evalErrorf("can't multiply text by a non-integer")
	}
	if c <= 0 || text.Str == "" {
		return TextValue(""), nil
	}
	if c > float64(maxTextLen/max(len(text.Str), 1)) {
		return Blank, evalErrorf("repeated text too long")
	}
	n := int(c)
	return TextValue(strings.Repeat(text.Str, n)), nil
}

func isTemporal(k Kind) bool {
	return k == KindDate || k == KindTime || k == KindDateTime
}

// num is AsNumber for values already known to be numeric.
func (v Value) num() float64 {
	f, _ := v.AsNumber()
	return f
}

type compareNode struct {
	first node
	ops   []string
	rest  []node
}

func (n *compareNode) eval(c *evalContext) (Value, error) {
	left, err := n.first.eval(c)
	if err != nil {
		return Blank, err
	}
	for i, op := range n.ops {
		right, err := n.rest[i].eval(c)
		if err != nil {
			return Blank, err
		}
		ok, err := compare(op, left, right)
		if err != nil {
			return Blank, err
		}
		if !ok {
			return BoolValue(false), nil
		}
		left = right
	}
	return BoolValue(true), nil
}

func compare(op string, a, b Value) (bool, error) {
	cmp, ok := order(a, b)
	switch op {
	case "==":
		return ok && cmp == 0, nil
	case "!=":
		return !ok || cmp != 0, nil
	}
	if !ok {
		return false, evalErrorf("'%s' not supported between %s and %s", op, a.Kind, b.Kind)
	}
	switch op {
	case "<":
		return cmp < 0, nil
	case ">":
		return cmp > 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">=":
		return cmp >= 0, nil
	}
	return false, evalErrorf("unknown operator %s", op)
}

// order compares two values of compatible kinds.
func order(a, b Value) (int, bool) {
	switch {
	case a.numeric() && b.numeric():
		return cmpFloat(a.num(), b.num()), true
	case a.Kind == KindText && b.Kind == KindText:
		return strings.Compare(a.Str, b.Str), true
	case isTemporal(a.Kind) && a.Kind == b.Kind:
		return cmpFloat(a.Num, b.Num), true
	case a.Kind == KindList && b.Kind == KindList:
		for i := 0; i < len(a.List) && i < len(b.List); i++ {
			c, ok := order(a.List[i], b.List[i])
			if !ok {
				return 0, false
			}
			if c != 0 {
				return c, true
			}
		}
		return cmpFloat(float64(len(a.List)), float64(len(b.List))), true
	}
	return 0, false
}

func cmpFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

type callNode struct {
	name string
	fn   *function
	args []node
}

func (n *callNode) eval(c *evalContext) (Value, error) {
	args := make([]Value, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(c)
		if err != nil {
			return Blank, err
		}
		args[i] = v
	}
	v, err := n.fn.call(c, args)
	if err != nil {
		return Blank, fmt.Errorf("%s(): %w", n.name, err)
	}
	return v, nil
}
