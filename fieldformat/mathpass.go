// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"errors"
	"time"

	"github.com/doug-101/TreeLine-sub000/equation"
)

// BlankMode selects how blank references are treated by the math pass.
type BlankMode int

const (
	// BlankDefault follows the document's ZeroBlanks setting.
	BlankDefault BlankMode = iota
	// BlankZero substitutes zero, false or empty text for blanks.
	BlankZero
	// BlankPropagate leaves a result blank when any reference it reads is
	// blank.
	BlankPropagate
)

// MathOptions control one math pass.
type MathOptions struct {
	Blank BlankMode
	// Now resolves now() and today(); zero means the tree's clock.
	Now time.Time
}

// EvalReport summarizes a math pass.
type EvalReport struct {
	Evaluated int
	Changed   int
	Errors    []FieldError
}

// EvaluateMath recomputes every math field of every node. Fields are taken
// in dependency order; a field reading its own value on its children is
// evaluated children first, the others parents first. Results are committed only
// after the whole pass, so a circular reference leaves the tree untouched.
// A field that fails stores ErrorMarker on that node and is reported; the
// pass continues.
func (t *Tree) EvaluateMath(opts MathOptions) (*EvalReport, error) {
	plan, err := t.Formats.planMath()
	if err != nil {
		t.log().Warn("math evaluation skipped", "error", err)
		return nil, err
	}

	zero := t.Formats.Settings.ZeroBlanks
	switch opts.Blank {
	case BlankZero:
		zero = true
	case BlankPropagate:
		zero = false
	}
	env := t.Env()
	if !opts.Now.IsZero() {
		env.Now = opts.Now
	}

	buf := make(map[string]map[string]string)
	report := &EvalReport{}
	pre, post := t.Nodes(), t.postOrder()

	for _, level := range plan.levels {
		for _, name := range level {
			order := pre
			if plan.childrenFirst[name] {
				order = post
			}
			for _, n := range order {
				f, ok := t.fieldDef(n, name)
				if !ok || !f.IsMath() {
					continue
				}
				stored, err := t.evalField(f, n, buf, zero, env)
				if err != nil {
					report.Errors = append(report.Errors, FieldError{NodeID: n.ID, Field: name, Err: err})
					t.log().Debug("math field failed", "node", n.ID, "field", name, "error", err)
				}
				if buf[n.ID] == nil {
					buf[n.ID] = make(map[string]string)
				}
				buf[n.ID][name] = stored
				report.Evaluated++
			}
		}
	}

	for id, fields := range buf {
		n := t.nodes[id]
		for name, v := range fields {
			if n.Data[name] == v {
				continue
			}
			report.Changed++
			if v == "" {
				delete(n.Data, name)
			} else {
				n.Data[name] = v
			}
		}
	}
	t.log().Debug("math pass complete", "evaluated", report.Evaluated, "changed", report.Changed, "errors", len(report.Errors))
	return report, nil
}

// evalField computes one math field on one node. A blank result stores
// empty; a failure stores ErrorMarker and returns the error.
func (t *Tree) evalField(f *FieldDefinition, n *Node, buf map[string]map[string]string, zero bool, env *Env) (string, error) {
	eq := f.CompiledEquation()
	if eq == nil {
		return "", nil
	}
	mv, ok := f.impl.(*mathVariant)
	if !ok {
		return ErrorMarker, errors.New("field is not compiled as a math field")
	}
	r := &mathResolver{t: t, node: n, buf: buf, zero: zero, env: env}
	val, err := eq.Eval(r, equation.EvalOptions{ZeroBlanks: zero, Now: env.now(), Placeholder: mv.placeholder()})
	if errors.Is(err, equation.ErrBlank) {
		return "", nil
	}
	if err != nil {
		return ErrorMarker, err
	}
	stored, err := mv.storeResult(val)
	if err != nil {
		return ErrorMarker, err
	}
	return stored, nil
}

// mathResolver reads referenced fields, preferring values computed earlier
// in the same pass.
type mathResolver struct {
	t    *Tree
	node *Node
	buf  map[string]map[string]string
	zero bool
	env  *Env
}

func (r *mathResolver) stored(n *Node, field string) string {
	if fields, ok := r.buf[n.ID]; ok {
		if v, ok := fields[field]; ok {
			return v
		}
	}
	return n.Data[field]
}

func (r *mathResolver) value(n *Node, field string) (equation.Value, error) {
	f, ok := r.t.fieldDef(n, field)
	if !ok {
		return equation.Blank, nil
	}
	return f.MathValue(r.stored(n, field), r.zero, r.env)
}

// Resolve implements equation.Resolver. Parent and root references with no
// target, including a root reference made from the top-level node itself,
// are blank, as are fields the target's format lacks. With blanks zeroed the
// evaluator replaces them by the placeholder of the field's result type.
func (r *mathResolver) Resolve(ref equation.Ref, _ bool) (equation.Value, error) {
	switch ref.Rel {
	case equation.RelParent:
		p, ok := r.t.Parent(r.node.ID)
		if !ok {
			return equation.Blank, nil
		}
		return r.value(p, ref.Field)
	case equation.RelRoot:
		root, ok := r.t.Root(r.node.ID)
		if !ok || root.ID == r.node.ID {
			return equation.Blank, nil
		}
		return r.value(root, ref.Field)
	case equation.RelChildren:
		var vals []equation.Value
		for _, c := range r.t.Children(r.node.ID) {
			v, err := r.value(c, ref.Field)
			if err != nil {
				return equation.Blank, err
			}
			if !v.IsBlank() {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 && !r.zero {
			return equation.Blank, nil
		}
		return equation.ListValue(vals...), nil
	case equation.RelChildCount:
		return equation.NumberValue(float64(len(r.t.children[r.node.ID]))), nil
	}
	return r.value(r.node, ref.Field)
}
