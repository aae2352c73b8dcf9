// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"fmt"
	"slices"
	"strings"

	"github.com/doug-101/TreeLine-sub000/codec"
	"github.com/doug-101/TreeLine-sub000/equation"
)

// parseChoices splits a "/"-separated choice pattern. Empty and repeated
// entries are dropped.
func parseChoices(pattern string) []string {
	var out []string
	for _, c := range codec.SplitEscaped(pattern, '/') {
		c = strings.TrimSpace(c)
		if c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// choiceVariant selects one value. A Choice field only accepts the values
// of its format; an AutoChoice field accepts anything and offers the values
// already used elsewhere.
type choiceVariant struct {
	f       *FieldDefinition
	auto    bool
	choices []string
}

func newChoiceVariant(f *FieldDefinition) (variant, error) {
	v := &choiceVariant{f: f, auto: f.Type == TypeAutoChoice}
	if !v.auto {
		v.choices = parseChoices(f.Format)
		if len(v.choices) == 0 {
			return nil, invalid(f.Name, "format", f.Format, fmt.Errorf("choice format %q has no choices", f.Format))
		}
	}
	return v, nil
}

func (v *choiceVariant) choiceList() []string {
	if v.auto {
		return v.f.autoChoices
	}
	return v.choices
}

func (v *choiceVariant) check(text string) error {
	if v.auto || slices.Contains(v.choices, text) {
		return nil
	}
	return &codec.FormatError{Kind: "choice", Text: text, Partial: text,
		Msg: fmt.Sprintf("not one of %s", strings.Join(v.choices, "/"))}
}

func (v *choiceVariant) output(stored string, _ *Env, markup bool) (string, error) {
	text := unescapeText(stored)
	if err := v.check(text); err != nil {
		return "", err
	}
	if markup {
		return stored, nil
	}
	return text, nil
}

func (v *choiceVariant) editorText(stored string, _ *Env) (string, error) {
	text := unescapeText(stored)
	return text, v.check(text)
}

func (v *choiceVariant) storedText(editor string, _ *Env) (string, error) {
	text := strings.TrimSpace(editor)
	if err := v.check(text); err != nil {
		return editor, err
	}
	return escapeText(text), nil
}

func (v *choiceVariant) mathValue(stored string, _ *Env) (equation.Value, error) {
	return equation.TextValue(unescapeText(stored)), nil
}

func (v *choiceVariant) placeholder() equation.Value {
	return equation.TextValue("")
}

func (v *choiceVariant) sortKey(stored string, _ *Env) SortKey {
	return textSortKey(stored)
}

// combinationVariant selects any subset. Stored values join the selected
// items with "/", in format order for Combination and case-insensitive
// order for AutoCombination. Editor and output text join them with the
// node format's separator.
type combinationVariant struct {
	f       *FieldDefinition
	auto    bool
	choices []string
}

func newCombinationVariant(f *FieldDefinition) (variant, error) {
	v := &combinationVariant{f: f, auto: f.Type == TypeAutoCombination}
	if !v.auto {
		v.choices = parseChoices(f.Format)
		if len(v.choices) == 0 {
			return nil, invalid(f.Name, "format", f.Format, fmt.Errorf("combination format %q has no choices", f.Format))
		}
	}
	return v, nil
}

func (v *combinationVariant) choiceList() []string {
	if v.auto {
		return v.f.autoChoices
	}
	return v.choices
}

// items returns the unescaped selections of a stored value.
func (v *combinationVariant) items(stored string) []string {
	var out []string
	for _, item := range codec.SplitEscaped(stored, '/') {
		if item = unescapeText(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// normalize dedupes and orders selections, rejecting unknown ones for a
// closed combination.
func (v *combinationVariant) normalize(items []string, raw string) ([]string, error) {
	var out []string
	for _, item := range items {
		if item == "" || slices.Contains(out, item) {
			continue
		}
		if !v.auto && !slices.Contains(v.choices, item) {
			return nil, &codec.FormatError{Kind: "combination", Text: raw, Partial: raw,
				Msg: fmt.Sprintf("%q is not one of %s", item, strings.Join(v.choices, "/"))}
		}
		out = append(out, item)
	}
	if v.auto {
		sortFolded(out)
	} else {
		slices.SortStableFunc(out, func(a, b string) int {
			return slices.Index(v.choices, a) - slices.Index(v.choices, b)
		})
	}
	return out, nil
}

func (v *combinationVariant) output(stored string, _ *Env, markup bool) (string, error) {
	items, err := v.normalize(v.items(stored), stored)
	if err != nil {
		return "", err
	}
	if markup {
		for i, item := range items {
			items[i] = escapeText(item)
		}
	}
	return strings.Join(items, v.f.joinSeparator()), nil
}

func (v *combinationVariant) editorText(stored string, _ *Env) (string, error) {
	items := v.items(stored)
	if _, err := v.normalize(items, stored); err != nil {
		return strings.Join(items, v.f.joinSeparator()), err
	}
	return strings.Join(items, v.f.joinSeparator()), nil
}

// splitEditor splits editor text on the join separator. Known choices are
// matched first, longest first, so a choice containing the separator stays
// whole.
func (v *combinationVariant) splitEditor(editor string) []string {
	sep := strings.TrimSpace(v.f.joinSeparator())
	if sep == "" {
		return strings.Fields(editor)
	}
	known := slices.Clone(v.choiceList())
	slices.SortStableFunc(known, func(a, b string) int { return len(b) - len(a) })

	var parts []string
	rest := strings.TrimSpace(editor)
	for rest != "" {
		matched := false
		for _, c := range known {
			if c == "" || !strings.HasPrefix(rest, c) {
				continue
			}
			after := strings.TrimSpace(rest[len(c):])
			if after == "" || strings.HasPrefix(after, sep) {
				parts = append(parts, c)
				rest = strings.TrimSpace(strings.TrimPrefix(after, sep))
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		i := strings.Index(rest, sep)
		if i < 0 {
			parts = append(parts, rest)
			break
		}
		parts = append(parts, strings.TrimSpace(rest[:i]))
		rest = strings.TrimSpace(rest[i+len(sep):])
	}
	return parts
}

func (v *combinationVariant) storedText(editor string, _ *Env) (string, error) {
	items, err := v.normalize(v.splitEditor(editor), editor)
	if err != nil {
		return editor, err
	}
	for i, item := range items {
		items[i] = escapeText(item)
	}
	return codec.JoinEscaped(items, '/'), nil
}

func (v *combinationVariant) mathValue(stored string, _ *Env) (equation.Value, error) {
	items := v.items(stored)
	vals := make([]equation.Value, len(items))
	for i, item := range items {
		vals[i] = equation.TextValue(item)
	}
	return equation.ListValue(vals...), nil
}

func (v *combinationVariant) placeholder() equation.Value {
	return equation.ListValue()
}

func (v *combinationVariant) sortKey(stored string, _ *Env) SortKey {
	return SortKey{Rank: RankText, Text: fold(strings.Join(v.items(stored), v.f.joinSeparator()))}
}

// collectChoices adds the selections of a stored value to set, for AutoChoice
// and AutoCombination option lists.
func collectChoices(f *FieldDefinition, stored string, set map[string]bool) {
	if stored == "" {
		return
	}
	switch f.Type {
	case TypeAutoChoice:
		set[unescapeText(stored)] = true
	case TypeAutoCombination:
		for _, item := range codec.SplitEscaped(stored, '/') {
			if item = unescapeText(strings.TrimSpace(item)); item != "" {
				set[item] = true
			}
		}
	}
}
