// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

// Package fieldformat is the field type registry of an outline document:
// the catalog of field types, their stored/editor/output conversions, sort
// keys and math values, together with node formats, an arena node tree,
// output templates and the tree-wide math evaluation pass.
package fieldformat

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/doug-101/TreeLine-sub000/codec"
	"github.com/doug-101/TreeLine-sub000/equation"
)

// FieldType names a field variant.
type FieldType string

const (
	TypeText              FieldType = "Text"
	TypeHtmlText          FieldType = "HtmlText"
	TypeOneLineText       FieldType = "OneLineText"
	TypeSpacedText        FieldType = "SpacedText"
	TypeNumber            FieldType = "Number"
	TypeMath              FieldType = "Math"
	TypeNumbering         FieldType = "Numbering"
	TypeDate              FieldType = "Date"
	TypeTime              FieldType = "Time"
	TypeDateTime          FieldType = "DateTime"
	TypeBoolean           FieldType = "Boolean"
	TypeChoice            FieldType = "Choice"
	TypeAutoChoice        FieldType = "AutoChoice"
	TypeCombination       FieldType = "Combination"
	TypeAutoCombination   FieldType = "AutoCombination"
	TypeExternalLink      FieldType = "ExternalLink"
	TypeInternalLink      FieldType = "InternalLink"
	TypePicture           FieldType = "Picture"
	TypeRegularExpression FieldType = "RegularExpression"
)

var fieldTypes = []FieldType{
	TypeText, TypeHtmlText, TypeOneLineText, TypeSpacedText, TypeNumber, TypeMath,
	TypeNumbering, TypeDate, TypeTime, TypeDateTime, TypeBoolean, TypeChoice,
	TypeAutoChoice, TypeCombination, TypeAutoCombination, TypeExternalLink,
	TypeInternalLink, TypePicture, TypeRegularExpression,
}

// FieldTypes lists the user-selectable field types.
func FieldTypes() []FieldType {
	return slices.Clone(fieldTypes)
}

// ParseFieldType matches a type name case-insensitively.
func ParseFieldType(name string) (FieldType, error) {
	for _, t := range fieldTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(name)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown field type %q", name)
}

// SortDirection orders a sort key field.
type SortDirection string

const (
	SortAscending  SortDirection = "ascending"
	SortDescending SortDirection = "descending"
)

const defaultSeparator = ", "

// FieldDefinition describes one field of a node format.
type FieldDefinition struct {
	Name          string              `json:"name" yaml:"name" validate:"required,fieldname"`
	Type          FieldType           `json:"type" yaml:"type" validate:"required,fieldtype"`
	Format        string              `json:"format,omitempty" yaml:"format,omitempty"`
	EditorFormat  string              `json:"editor_format,omitempty" yaml:"editor_format,omitempty"` // date and time types
	Prefix        string              `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Suffix        string              `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	NumLines      int                 `json:"lines,omitempty" yaml:"lines,omitempty" validate:"gte=0"`
	SortKeyNumber int                 `json:"sort_key,omitempty" yaml:"sort_key,omitempty" validate:"gte=0"`
	SortDirection SortDirection       `json:"sort_direction,omitempty" yaml:"sort_direction,omitempty" validate:"omitempty,oneof=ascending descending"`
	InitDefault   string              `json:"init_default,omitempty" yaml:"init_default,omitempty"` // stored form or "now"
	Equation      string              `json:"equation,omitempty" yaml:"equation,omitempty"`
	ResultType    equation.ResultKind `json:"result_type,omitempty" yaml:"result_type,omitempty" validate:"omitempty,oneof=number date time boolean text"`

	impl        variant
	separator   string
	autoChoices []string
}

// NewField creates a field of the given type with that type's default format.
func NewField(name string, typ FieldType) (*FieldDefinition, error) {
	f := &FieldDefinition{Name: name, Type: typ}
	if typ == TypeMath {
		f.ResultType = equation.ResultNumber
	}
	f.Format = defaultFormat(f.Type, f.ResultType)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// MustField is NewField for definitions known to be valid.
func MustField(name string, typ FieldType) *FieldDefinition {
	f, err := NewField(name, typ)
	if err != nil {
		panic(err)
	}
	return f
}

func defaultFormat(typ FieldType, result equation.ResultKind) string {
	switch typ {
	case TypeNumber:
		return codec.DefaultNumberFormat
	case TypeNumbering:
		return codec.DefaultNumberingFormat
	case TypeDate:
		return codec.DefaultDateFormat
	case TypeTime:
		return codec.DefaultTimeFormat
	case TypeDateTime:
		return codec.DefaultDateTimeFormat
	case TypeBoolean:
		return codec.DefaultBoolFormat
	case TypeChoice, TypeCombination:
		return "1/2/3/4"
	case TypeRegularExpression:
		return ".*"
	case TypeMath:
		switch result {
		case equation.ResultDate:
			return codec.DefaultDateFormat
		case equation.ResultTime:
			return codec.DefaultTimeFormat
		case equation.ResultBoolean:
			return codec.DefaultBoolFormat
		case equation.ResultText:
			return ""
		}
		return codec.DefaultNumberFormat
	}
	return ""
}

// Validate checks the definition and rebuilds its compiled format.
func (f *FieldDefinition) Validate() error {
	if err := validateStruct(f.Name, f); err != nil {
		return err
	}
	return f.compile()
}

func (f *FieldDefinition) compile() error {
	impl, err := newVariant(f)
	if err != nil {
		return err
	}
	f.impl = impl
	return nil
}

// variant returns the compiled variant, compiling on first use for
// definitions built as struct literals or decoded from a file.
func (f *FieldDefinition) variant() (variant, error) {
	if f.impl == nil {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}
	return f.impl, nil
}

// SetFormat replaces the format pattern. An invalid pattern is rejected and
// the previous one kept.
func (f *FieldDefinition) SetFormat(pattern string) error {
	old := f.Format
	f.Format = pattern
	if err := f.compile(); err != nil {
		f.Format = old
		if cerr := f.compile(); cerr != nil {
			f.impl = nil
		}
		return err
	}
	return nil
}

// SetEditorFormat replaces the editor pattern of a date or time field.
func (f *FieldDefinition) SetEditorFormat(pattern string) error {
	old := f.EditorFormat
	f.EditorFormat = pattern
	if err := f.compile(); err != nil {
		f.EditorFormat = old
		_ = f.compile()
		return err
	}
	return nil
}

// ChangeType switches the field to another variant, resetting the format
// to that variant's default. The initial default is dropped since it may
// not be valid for the new type.
func (f *FieldDefinition) ChangeType(typ FieldType) error {
	if _, err := ParseFieldType(string(typ)); err != nil {
		return invalid(f.Name, "fieldtype", typ, err)
	}
	if typ == f.Type {
		return nil
	}
	old := *f
	f.Type = typ
	f.EditorFormat = ""
	f.InitDefault = ""
	if typ == TypeMath {
		if f.ResultType == "" {
			f.ResultType = equation.ResultNumber
		}
	} else {
		f.Equation = ""
		f.ResultType = ""
	}
	f.Format = defaultFormat(f.Type, f.ResultType)
	if err := f.compile(); err != nil {
		*f = old
		return err
	}
	return nil
}

// SetEquation replaces the equation of a math field. Cycles through other
// fields are checked by the format set, not here.
func (f *FieldDefinition) SetEquation(src string) error {
	if f.Type != TypeMath {
		return invalid(f.Name, "equation", src, fmt.Errorf("only math fields have equations"))
	}
	old := f.Equation
	f.Equation = src
	if err := f.compile(); err != nil {
		f.Equation = old
		_ = f.compile()
		return err
	}
	return nil
}

// SetResultType changes a math field's result kind and resets its format.
func (f *FieldDefinition) SetResultType(name string) error {
	if f.Type != TypeMath {
		return invalid(f.Name, "result_type", name, fmt.Errorf("only math fields have a result type"))
	}
	kind, err := equation.ParseResultKind(name)
	if err != nil {
		return invalid(f.Name, "result_type", name, err)
	}
	oldKind, oldFormat := f.ResultType, f.Format
	f.ResultType = kind
	f.Format = defaultFormat(TypeMath, kind)
	if err := f.compile(); err != nil {
		f.ResultType, f.Format = oldKind, oldFormat
		_ = f.compile()
		return err
	}
	return nil
}

// CompiledEquation returns the parsed equation of a math field, or nil.
func (f *FieldDefinition) CompiledEquation() *equation.Equation {
	if m, ok := f.impl.(*mathVariant); ok {
		return m.eq
	}
	if f.Type == TypeMath {
		if v, err := f.variant(); err == nil {
			if m, ok := v.(*mathVariant); ok {
				return m.eq
			}
		}
	}
	return nil
}

// IsMath reports whether the field is computed by an equation.
func (f *FieldDefinition) IsMath() bool {
	return f.Type == TypeMath
}

func (f *FieldDefinition) usesNow() bool {
	switch f.Type {
	case TypeDate, TypeTime, TypeDateTime:
		return true
	}
	return false
}

// SetInitDefault sets the value given to new nodes, written as editor text.
// Date and time fields also accept "now", which is resolved when a node is
// created.
func (f *FieldDefinition) SetInitDefault(text string) error {
	if strings.TrimSpace(text) == "" {
		f.InitDefault = ""
		return nil
	}
	if f.usesNow() && codec.IsNow(text) {
		f.InitDefault = codec.NowSentinel
		return nil
	}
	stored, err := f.StoredText(text, nil)
	if err != nil {
		return invalid(f.Name, "init_default", text, err)
	}
	f.InitDefault = stored
	return nil
}

// InitialValue returns the stored value for a new node, resolving "now"
// with the given clock.
func (f *FieldDefinition) InitialValue(now time.Time) string {
	if f.InitDefault != codec.NowSentinel || !f.usesNow() {
		return f.InitDefault
	}
	t := codec.ResolveNow(now)
	switch f.Type {
	case TypeDate:
		return codec.StoredDate(t)
	case TypeTime:
		return codec.StoredTime(t)
	}
	return codec.StoredDateTime(t)
}

// Choices returns the selectable values: the format's list for choice and
// combination fields, the collected values for the automatic variants.
func (f *FieldDefinition) Choices() []string {
	switch f.Type {
	case TypeAutoChoice, TypeAutoCombination:
		return slices.Clone(f.autoChoices)
	}
	if v, err := f.variant(); err == nil {
		if c, ok := v.(interface{ choiceList() []string }); ok {
			return slices.Clone(c.choiceList())
		}
	}
	return nil
}

// SetAutoChoices supplies the values observed on other nodes for an
// AutoChoice or AutoCombination field. Duplicates are dropped and the list
// is sorted case-insensitively.
func (f *FieldDefinition) SetAutoChoices(items []string) {
	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	sortFolded(out)
	f.autoChoices = out
}

var folder = cases.Fold()

func fold(s string) string {
	return folder.String(s)
}

func sortFolded(items []string) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := fold(items[i]), fold(items[j])
		if a != b {
			return a < b
		}
		return items[i] < items[j]
	})
}

func (f *FieldDefinition) joinSeparator() string {
	if f.separator == "" {
		return defaultSeparator
	}
	return f.separator
}

// FormatOutput returns the display text of a stored value. It never fails:
// a value that does not match the format shows as ErrorMarker. Prefix and
// suffix wrap any non-empty output.
func (f *FieldDefinition) FormatOutput(stored string, opts OutputOptions) string {
	if stored == "" {
		return ""
	}
	markup := opts.AllowMarkup && !opts.TitleMode
	text := ErrorMarker
	if v, err := f.variant(); err == nil {
		if out, err := v.output(stored, opts.Env, markup); err == nil {
			text = out
		}
	}
	prefix, suffix := f.Prefix, f.Suffix
	if !markup {
		prefix, suffix = plainText(prefix), plainText(suffix)
	}
	text = prefix + text + suffix
	if opts.TitleMode {
		text = firstLine(text)
	}
	return text
}

// EditorText converts a stored value to the text shown in an editor. On
// failure the returned text is the best partial value for display next to
// the error.
func (f *FieldDefinition) EditorText(stored string, env *Env) (string, error) {
	if stored == "" {
		return "", nil
	}
	v, err := f.variant()
	if err != nil {
		return stored, err
	}
	return v.editorText(stored, env)
}

// StoredText converts editor input to the stored value, rejecting input
// that does not match the field's format. Blank input stores as blank.
func (f *FieldDefinition) StoredText(editor string, env *Env) (string, error) {
	if strings.TrimSpace(editor) == "" {
		return "", nil
	}
	v, err := f.variant()
	if err != nil {
		return editor, err
	}
	return v.storedText(editor, env)
}

// MathValue converts a stored value for use in equations. A blank value
// gives the type's zero placeholder when zeroBlanks is set and
// equation.Blank otherwise.
func (f *FieldDefinition) MathValue(stored string, zeroBlanks bool, env *Env) (equation.Value, error) {
	v, err := f.variant()
	if err != nil {
		return equation.Blank, err
	}
	if stored == "" {
		if zeroBlanks {
			return v.placeholder(), nil
		}
		return equation.Blank, nil
	}
	return v.mathValue(stored, env)
}

// SortKey returns the ordering key of a stored value. Values that fail to
// parse sort as text.
func (f *FieldDefinition) SortKey(stored string, env *Env) SortKey {
	if stored == "" {
		return SortKey{Rank: RankBlank}
	}
	v, err := f.variant()
	if err != nil {
		return textSortKey(stored)
	}
	return v.sortKey(stored, env)
}
