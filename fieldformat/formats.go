// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"

	"github.com/doug-101/TreeLine-sub000/equation"
)

// FormatSet is the collection of node formats of one document together
// with its settings.
type FormatSet struct {
	Settings Settings      `json:"settings" yaml:"settings"`
	Formats  []*NodeFormat `json:"formats" yaml:"formats"`
}

// NewFormatSet creates an empty set with default settings.
func NewFormatSet() *FormatSet {
	return &FormatSet{Settings: DefaultSettings()}
}

// ParseFormats reads a format set from YAML or JSON. Settings missing from
// the input keep their defaults.
func ParseFormats(data []byte) (*FormatSet, error) {
	fs := NewFormatSet()
	if err := yaml.Unmarshal(data, fs); err != nil {
		fs = NewFormatSet()
		if err := json.Unmarshal(data, fs); err != nil {
			return nil, fmt.Errorf("failed to parse formats: %w", err)
		}
	}
	if err := fs.Init(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Marshal writes the set as YAML.
func (fs *FormatSet) Marshal() ([]byte, error) {
	return yaml.Marshal(fs)
}

// Init validates every format, refreshes derived formats and checks the
// math fields for circular references.
func (fs *FormatSet) Init() error {
	seen := make(map[string]bool, len(fs.Formats))
	for _, nf := range fs.Formats {
		if nf == nil {
			return &ValidationError{Tag: "required", Message: "nil node format"}
		}
		if seen[nf.Name] {
			return invalid(nf.Name, "unique", nf.Name, fmt.Errorf("duplicate node format"))
		}
		seen[nf.Name] = true
		if err := nf.Validate(); err != nil {
			return fmt.Errorf("format %q: %w", nf.Name, err)
		}
	}
	if err := fs.UpdateDerived(); err != nil {
		return err
	}
	return fs.CheckMathCycles()
}

// Format looks up a node format by name.
func (fs *FormatSet) Format(name string) (*NodeFormat, bool) {
	for _, nf := range fs.Formats {
		if nf.Name == name {
			return nf, true
		}
	}
	return nil, false
}

// Names returns the format names in order.
func (fs *FormatSet) Names() []string {
	names := make([]string, len(fs.Formats))
	for i, nf := range fs.Formats {
		names[i] = nf.Name
	}
	return names
}

// AddFormat validates and appends a node format. A format that would
// introduce a math cycle is rejected.
func (fs *FormatSet) AddFormat(nf *NodeFormat) error {
	if _, ok := fs.Format(nf.Name); ok {
		return invalid(nf.Name, "unique", nf.Name, fmt.Errorf("duplicate node format"))
	}
	if err := nf.Validate(); err != nil {
		return err
	}
	fs.Formats = append(fs.Formats, nf)
	if err := fs.UpdateDerived(); err != nil {
		fs.Formats = fs.Formats[:len(fs.Formats)-1]
		return err
	}
	if err := fs.CheckMathCycles(); err != nil {
		fs.Formats = fs.Formats[:len(fs.Formats)-1]
		return err
	}
	return nil
}

// UpdateDerived refreshes every format that names a generic type: the
// generic's fields are deep-copied to the front of its field list, followed
// by the derived format's own fields.
func (fs *FormatSet) UpdateDerived() error {
	for _, nf := range fs.Formats {
		if nf.GenericType == "" {
			continue
		}
		generic, ok := fs.Format(nf.GenericType)
		if !ok {
			return invalid(nf.Name, "generic_type", nf.GenericType, fmt.Errorf("unknown generic format %q", nf.GenericType))
		}
		if generic.GenericType != "" {
			return invalid(nf.Name, "generic_type", nf.GenericType, fmt.Errorf("generic format %q is itself derived", nf.GenericType))
		}
		fields := make([]*FieldDefinition, 0, len(generic.Fields)+len(nf.Fields))
		for _, gf := range generic.Fields {
			copied := &FieldDefinition{}
			if err := copier.CopyWithOption(copied, gf, copier.Option{CaseSensitive: true, DeepCopy: true}); err != nil {
				return fmt.Errorf("copy field %q: %w", gf.Name, err)
			}
			copied.separator = nf.separator()
			if err := copied.compile(); err != nil {
				return err
			}
			fields = append(fields, copied)
		}
		for _, f := range nf.Fields {
			if _, ok := generic.Field(f.Name); !ok {
				fields = append(fields, f)
			}
		}
		nf.Fields = fields
	}
	return nil
}

// RenameField renames a field of a format and of every format derived
// from it, rewriting equation and template references in those formats.
// Other formats get their parent, root and child references rewritten since
// those may read nodes of the renamed format. Node data is renamed by
// Tree.RenameField.
func (fs *FormatSet) RenameField(format, oldName, newName string) error {
	nf, ok := fs.Format(format)
	if !ok {
		return fmt.Errorf("unknown node format %q", format)
	}
	if err := nf.RenameField(oldName, newName); err != nil {
		return err
	}
	family := map[string]bool{nf.Name: true}
	for _, derived := range fs.Derived(format) {
		family[derived.Name] = true
		if _, ok := derived.Field(oldName); !ok {
			continue
		}
		if err := derived.RenameField(oldName, newName); err != nil {
			return fmt.Errorf("derived format %q: %w", derived.Name, err)
		}
	}
	for _, other := range fs.Formats {
		if family[other.Name] {
			continue
		}
		if err := other.renameReferences(oldName, newName, true); err != nil {
			return fmt.Errorf("format %q: %w", other.Name, err)
		}
	}
	return nil
}

// Derived returns the formats whose generic type is the named format.
func (fs *FormatSet) Derived(format string) []*NodeFormat {
	var out []*NodeFormat
	for _, nf := range fs.Formats {
		if nf.GenericType == format {
			out = append(out, nf)
		}
	}
	return out
}

// SetEquation replaces a math field's equation, restoring the previous one
// if the new equation does not parse or closes a circular reference.
func (fs *FormatSet) SetEquation(format, field, src string) error {
	nf, ok := fs.Format(format)
	if !ok {
		return fmt.Errorf("unknown node format %q", format)
	}
	f, ok := nf.Field(field)
	if !ok {
		return fmt.Errorf("format %q has no field %q", format, field)
	}
	old := f.Equation
	if err := f.SetEquation(src); err != nil {
		return err
	}
	if err := fs.CheckMathCycles(); err != nil {
		_ = f.SetEquation(old)
		return err
	}
	return nil
}

// mathGraph holds the dependencies between math fields, by field name.
// childrenFirst marks the names that read their own value on child nodes.
type mathGraph struct {
	names         []string
	deps          map[string][]string
	childrenFirst map[string]bool
}

// buildMathGraph collects math field dependencies. A field name may read its
// own value on an ancestor or on its children, but not both, in any format,
// and never on its own node. Child-count references read tree structure only
// and add no dependency.
func (fs *FormatSet) buildMathGraph() (*mathGraph, error) {
	g := &mathGraph{deps: make(map[string][]string), childrenFirst: make(map[string]bool)}
	readsUp := make(map[string]bool)
	isMath := make(map[string]bool)
	for _, nf := range fs.Formats {
		for _, f := range nf.MathFields() {
			if !isMath[f.Name] {
				isMath[f.Name] = true
				g.names = append(g.names, f.Name)
			}
		}
	}
	for _, nf := range fs.Formats {
		for _, f := range nf.MathFields() {
			eq := f.CompiledEquation()
			if eq == nil {
				continue
			}
			for _, ref := range eq.Refs() {
				if ref.Rel == equation.RelChildCount {
					continue
				}
				if ref.Field == f.Name {
					switch ref.Rel {
					case equation.RelSelf:
						return nil, &CircularReferenceError{Path: []string{f.Name, f.Name}}
					case equation.RelChildren:
						g.childrenFirst[f.Name] = true
					default:
						readsUp[f.Name] = true
					}
					if readsUp[f.Name] && g.childrenFirst[f.Name] {
						return nil, &CircularReferenceError{Path: []string{f.Name, f.Name}}
					}
					continue
				}
				if isMath[ref.Field] && !slices.Contains(g.deps[f.Name], ref.Field) {
					g.deps[f.Name] = append(g.deps[f.Name], ref.Field)
				}
			}
		}
	}
	return g, nil
}

// CheckMathCycles reports the first circular reference among math fields.
func (fs *FormatSet) CheckMathCycles() error {
	_, err := fs.planMath()
	return err
}

// mathPlan is the evaluation order of one math pass.
type mathPlan struct {
	// levels lists field names so that every field comes in a later level
	// than the fields it depends on.
	levels [][]string
	// childrenFirst names the fields evaluated in post-order.
	childrenFirst map[string]bool
}

func (fs *FormatSet) planMath() (*mathPlan, error) {
	g, err := fs.buildMathGraph()
	if err != nil {
		return nil, err
	}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int)
	level := make(map[string]int)
	var stack []string
	var cycle []string

	var visit func(name string) bool // returns true if cycle found
	visit = func(name string) bool {
		switch color[name] {
		case black:
			return false
		case gray:
			start := slices.Index(stack, name)
			cycle = append(slices.Clone(stack[start:]), name)
			return true
		}
		color[name] = gray
		stack = append(stack, name)
		lvl := 0
		for _, dep := range g.deps[name] {
			if visit(dep) {
				return true
			}
			lvl = max(lvl, level[dep]+1)
		}
		stack = stack[:len(stack)-1]
		level[name] = lvl
		color[name] = black
		return false
	}

	var levels [][]string
	for _, name := range g.names {
		if color[name] == white && visit(name) {
			return nil, &CircularReferenceError{Path: cycle}
		}
	}
	for _, name := range g.names {
		for len(levels) <= level[name] {
			levels = append(levels, nil)
		}
		levels[level[name]] = append(levels[level[name]], name)
	}
	return &mathPlan{levels: levels, childrenFirst: g.childrenFirst}, nil
}
