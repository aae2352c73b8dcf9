// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"github.com/doug-101/TreeLine-sub000/codec"
	"github.com/doug-101/TreeLine-sub000/equation"
)

type numberVariant struct {
	nf codec.NumberFormat
}

func (v *numberVariant) output(stored string, _ *Env, _ bool) (string, error) {
	n, err := codec.ParseCanonical(stored)
	if err != nil {
		return "", err
	}
	return v.nf.Format(n), nil
}

// The editor shows full precision so that editing never rounds the value.
func (v *numberVariant) editorText(stored string, _ *Env) (string, error) {
	n, err := codec.ParseCanonical(stored)
	if err != nil {
		return stored, err
	}
	return v.nf.EditorText(n), nil
}

func (v *numberVariant) storedText(editor string, _ *Env) (string, error) {
	n, err := v.nf.Parse(editor)
	if err != nil {
		return editor, err
	}
	return codec.CanonicalNumber(n), nil
}

func (v *numberVariant) mathValue(stored string, _ *Env) (equation.Value, error) {
	n, err := codec.ParseCanonical(stored)
	if err != nil {
		return equation.Blank, err
	}
	return equation.NumberValue(n), nil
}

func (v *numberVariant) placeholder() equation.Value {
	return equation.NumberValue(0)
}

func (v *numberVariant) sortKey(stored string, _ *Env) SortKey {
	n, err := codec.ParseCanonical(stored)
	if err != nil {
		return textSortKey(stored)
	}
	return SortKey{Rank: RankNumber, Num: n}
}

// numberingVariant stores outline numbers such as "2.1.3" and shows them
// through a style pattern like "I.A.1".
type numberingVariant struct {
	nf codec.NumberingFormat
}

func (v *numberingVariant) output(stored string, _ *Env, _ bool) (string, error) {
	nums, err := codec.ParseStoredNumbering(stored)
	if err != nil {
		return "", err
	}
	return v.nf.Format(nums)
}

func (v *numberingVariant) editorText(stored string, env *Env) (string, error) {
	text, err := v.output(stored, env, false)
	if err != nil {
		return stored, err
	}
	return text, nil
}

func (v *numberingVariant) storedText(editor string, _ *Env) (string, error) {
	nums, err := v.nf.Parse(editor)
	if err != nil {
		if nums, err = codec.ParseStoredNumbering(editor); err != nil {
			return editor, err
		}
	}
	return codec.StoredNumbering(nums), nil
}

// A single-level numbering is a plain number in equations; deeper ones
// are only meaningful as text.
func (v *numberingVariant) mathValue(stored string, _ *Env) (equation.Value, error) {
	nums, err := codec.ParseStoredNumbering(stored)
	if err != nil {
		return equation.Blank, err
	}
	if len(nums) == 1 {
		return equation.NumberValue(float64(nums[0])), nil
	}
	return equation.TextValue(codec.StoredNumbering(nums)), nil
}

func (v *numberingVariant) placeholder() equation.Value {
	return equation.NumberValue(0)
}

func (v *numberingVariant) sortKey(stored string, _ *Env) SortKey {
	nums, err := codec.ParseStoredNumbering(stored)
	if err != nil {
		return textSortKey(stored)
	}
	return SortKey{Rank: RankNumbering, Seq: nums}
}

type boolVariant struct {
	bf codec.BoolFormat
}

func (v *boolVariant) output(stored string, _ *Env, _ bool) (string, error) {
	b, err := codec.ParseStoredBool(stored)
	if err != nil {
		return "", err
	}
	return v.bf.Format(b), nil
}

func (v *boolVariant) editorText(stored string, env *Env) (string, error) {
	text, err := v.output(stored, env, false)
	if err != nil {
		return stored, err
	}
	return text, nil
}

// Editor input may use the pattern tokens or the stored True/False.
func (v *boolVariant) storedText(editor string, _ *Env) (string, error) {
	b, err := v.bf.Parse(editor)
	if err != nil {
		var serr error
		if b, serr = codec.ParseStoredBool(editor); serr != nil {
			return editor, err
		}
	}
	return codec.StoredBool(b), nil
}

func (v *boolVariant) mathValue(stored string, _ *Env) (equation.Value, error) {
	b, err := codec.ParseStoredBool(stored)
	if err != nil {
		return equation.Blank, err
	}
	return equation.BoolValue(b), nil
}

func (v *boolVariant) placeholder() equation.Value {
	return equation.BoolValue(false)
}

func (v *boolVariant) sortKey(stored string, _ *Env) SortKey {
	b, err := codec.ParseStoredBool(stored)
	if err != nil {
		return textSortKey(stored)
	}
	key := SortKey{Rank: RankBool}
	if b {
		key.Num = 1
	}
	return key
}

// mathVariant is a computed field. Formatting delegates to the variant of
// its result kind; the stored value is written by the math pass.
type mathVariant struct {
	eq    *equation.Equation
	kind  equation.ResultKind
	inner variant
}

func newMathVariant(f *FieldDefinition) (variant, error) {
	kind, err := equation.ParseResultKind(string(f.ResultType))
	if err != nil {
		return nil, invalid(f.Name, "result_type", f.ResultType, err)
	}
	m := &mathVariant{kind: kind}
	if f.Equation != "" {
		if m.eq, err = equation.Parse(f.Equation); err != nil {
			return nil, invalid(f.Name, "equation", f.Equation, err)
		}
	}

	innerDef := &FieldDefinition{Name: f.Name, Format: f.Format, EditorFormat: f.EditorFormat}
	switch kind {
	case equation.ResultDate:
		innerDef.Type = TypeDate
	case equation.ResultTime:
		innerDef.Type = TypeTime
	case equation.ResultBoolean:
		innerDef.Type = TypeBoolean
	case equation.ResultText:
		innerDef.Type = TypeText
	default:
		innerDef.Type = TypeNumber
	}
	if m.inner, err = newVariant(innerDef); err != nil {
		return nil, err
	}
	return m, nil
}

// storeResult converts an equation result to this field's stored form.
func (v *mathVariant) storeResult(val equation.Value) (string, error) {
	s, err := v.kind.Store(val)
	if err != nil {
		return "", err
	}
	if v.kind == equation.ResultText {
		s = escapeText(s)
	}
	return s, nil
}

func (v *mathVariant) output(stored string, env *Env, markup bool) (string, error) {
	return v.inner.output(stored, env, markup)
}

func (v *mathVariant) editorText(stored string, env *Env) (string, error) {
	return v.inner.editorText(stored, env)
}

func (v *mathVariant) storedText(editor string, env *Env) (string, error) {
	return v.inner.storedText(editor, env)
}

func (v *mathVariant) mathValue(stored string, env *Env) (equation.Value, error) {
	return v.inner.mathValue(stored, env)
}

func (v *mathVariant) placeholder() equation.Value {
	return v.kind.Placeholder()
}

func (v *mathVariant) sortKey(stored string, env *Env) SortKey {
	return v.inner.sortKey(stored, env)
}
