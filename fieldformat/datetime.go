// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"time"

	"github.com/doug-101/TreeLine-sub000/codec"
	"github.com/doug-101/TreeLine-sub000/equation"
)

// dateVariant handles Date, Time and DateTime fields. Stored values are ISO
// text or the "now" sentinel, which is resolved whenever the value is shown
// or used in an equation.
type dateVariant struct {
	typ    FieldType
	format string
	editor string // empty means the document setting
}

func newDateVariant(f *FieldDefinition) (variant, error) {
	v := &dateVariant{typ: f.Type, format: f.Format, editor: f.EditorFormat}
	if v.format == "" {
		v.format = defaultFormat(f.Type, "")
	}
	if err := codec.CheckStrftime(v.format, false); err != nil {
		return nil, invalid(f.Name, "format", f.Format, err)
	}
	if v.editor != "" {
		if err := codec.CheckStrftime(v.editor, true); err != nil {
			return nil, invalid(f.Name, "editor_format", f.EditorFormat, err)
		}
	}
	return v, nil
}

func (v *dateVariant) parseStored(stored string) (time.Time, error) {
	switch v.typ {
	case TypeDate:
		return codec.ParseStoredDate(stored)
	case TypeTime:
		return codec.ParseStoredTime(stored)
	}
	return codec.ParseStoredDateTime(stored)
}

func (v *dateVariant) store(t time.Time) string {
	switch v.typ {
	case TypeDate:
		return codec.StoredDate(t)
	case TypeTime:
		return codec.StoredTime(t)
	}
	return codec.StoredDateTime(t)
}

func (v *dateVariant) resolve(stored string, env *Env) (time.Time, error) {
	if codec.IsNow(stored) {
		return codec.ResolveNow(env.now()), nil
	}
	return v.parseStored(stored)
}

func (v *dateVariant) editorPattern(env *Env) string {
	if v.editor != "" {
		return v.editor
	}
	s := env.settings()
	var p string
	switch v.typ {
	case TypeDate:
		p = s.DateEditorFormat
		if p == "" {
			p = codec.DefaultDateEditorFormat
		}
	case TypeTime:
		p = s.TimeEditorFormat
		if p == "" {
			p = codec.DefaultTimeEditorFormat
		}
	default:
		p = s.DateTimeEditorFormat
		if p == "" {
			p = codec.DefaultDateTimeEditorFormat
		}
	}
	return p
}

func (v *dateVariant) output(stored string, env *Env, _ bool) (string, error) {
	t, err := v.resolve(stored, env)
	if err != nil {
		return "", err
	}
	return codec.FormatStrftime(v.format, t), nil
}

func (v *dateVariant) editorText(stored string, env *Env) (string, error) {
	if codec.IsNow(stored) {
		return codec.NowEditorText, nil
	}
	t, err := v.parseStored(stored)
	if err != nil {
		return stored, err
	}
	pattern := v.editorPattern(env)
	if v.typ != TypeDate && t.Nanosecond() != 0 {
		pattern = codec.WithFraction(pattern)
	}
	return codec.FormatStrftime(pattern, t), nil
}

// storedText tries the editor pattern, then the output pattern, then the
// stored ISO form.
func (v *dateVariant) storedText(editor string, env *Env) (string, error) {
	if codec.IsNow(editor) {
		return codec.NowSentinel, nil
	}
	t, err := codec.ParseStrftime(v.editorPattern(env), editor)
	if err == nil {
		return v.store(t), nil
	}
	if t, perr := codec.ParseStrftime(v.format, editor); perr == nil {
		return v.store(t), nil
	}
	if t, perr := v.parseStored(editor); perr == nil {
		return v.store(t), nil
	}
	return editor, err
}

func (v *dateVariant) mathValue(stored string, env *Env) (equation.Value, error) {
	t, err := v.resolve(stored, env)
	if err != nil {
		return equation.Blank, err
	}
	switch v.typ {
	case TypeDate:
		return equation.DateValue(codec.DateOrdinal(t)), nil
	case TypeTime:
		return equation.TimeValue(codec.TimeSeconds(t)), nil
	}
	return equation.DateTimeValue(codec.DateTimeSeconds(t)), nil
}

func (v *dateVariant) placeholder() equation.Value {
	switch v.typ {
	case TypeDate:
		return equation.DateValue(0)
	case TypeTime:
		return equation.TimeValue(0)
	}
	return equation.DateTimeValue(0)
}

func (v *dateVariant) sortKey(stored string, env *Env) SortKey {
	val, err := v.mathValue(stored, env)
	if err != nil {
		return textSortKey(stored)
	}
	rank := RankDateTime
	switch v.typ {
	case TypeDate:
		rank = RankDate
	case TypeTime:
		rank = RankTime
	}
	return SortKey{Rank: rank, Num: val.Num}
}
