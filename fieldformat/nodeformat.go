// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/doug-101/TreeLine-sub000/equation"
)

// NodeFormat is a node type: an ordered list of fields plus the templates
// that build a node's title and output from them.
type NodeFormat struct {
	Name         string             `json:"name" yaml:"name" validate:"required"`
	Fields       []*FieldDefinition `json:"fields" yaml:"fields"`
	TitleLine    string             `json:"title_line,omitempty" yaml:"title_line,omitempty"`
	OutputLines  []string           `json:"output_lines,omitempty" yaml:"output_lines,omitempty"`
	GenericType  string             `json:"generic_type,omitempty" yaml:"generic_type,omitempty"`
	SpaceBetween bool               `json:"space_between,omitempty" yaml:"space_between,omitempty"`

	// ChildSeparator joins combination selections and child lists.
	ChildSeparator string `json:"child_separator,omitempty" yaml:"child_separator,omitempty"`
}

// NewNodeFormat creates a format holding a single "Name" text field that
// is also its title and output.
func NewNodeFormat(name string) *NodeFormat {
	return &NodeFormat{
		Name:        name,
		Fields:      []*FieldDefinition{MustField("Name", TypeText)},
		TitleLine:   "{*Name*}",
		OutputLines: []string{"{*Name*}"},
	}
}

func (nf *NodeFormat) separator() string {
	if nf.ChildSeparator == "" {
		return defaultSeparator
	}
	return nf.ChildSeparator
}

// Validate checks every field and rejects duplicate field names.
func (nf *NodeFormat) Validate() error {
	if err := validateStruct(nf.Name, nf); err != nil {
		return err
	}
	seen := make(map[string]bool, len(nf.Fields))
	for _, f := range nf.Fields {
		if f == nil {
			return &ValidationError{Field: nf.Name, Tag: "required", Message: "nil field definition"}
		}
		if seen[f.Name] {
			return invalid(f.Name, "unique", f.Name, fmt.Errorf("duplicate field name in format %q", nf.Name))
		}
		seen[f.Name] = true
		f.separator = nf.separator()
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// AddField appends a field definition.
func (nf *NodeFormat) AddField(f *FieldDefinition) error {
	if _, ok := nf.Field(f.Name); ok {
		return invalid(f.Name, "unique", f.Name, fmt.Errorf("duplicate field name in format %q", nf.Name))
	}
	f.separator = nf.separator()
	if err := f.Validate(); err != nil {
		return err
	}
	nf.Fields = append(nf.Fields, f)
	return nil
}

// Field looks up a field by name.
func (nf *NodeFormat) Field(name string) (*FieldDefinition, bool) {
	for _, f := range nf.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// FieldNames returns the field names in order.
func (nf *NodeFormat) FieldNames() []string {
	names := make([]string, len(nf.Fields))
	for i, f := range nf.Fields {
		names[i] = f.Name
	}
	return names
}

// RemoveField drops a field definition. Templates keep their references,
// which then render blank.
func (nf *NodeFormat) RemoveField(name string) bool {
	i := slices.IndexFunc(nf.Fields, func(f *FieldDefinition) bool { return f.Name == name })
	if i < 0 {
		return false
	}
	nf.Fields = slices.Delete(nf.Fields, i, i+1)
	return true
}

// RenameField renames one of the format's fields and rewrites the
// references to it in the format's equations and templates.
func (nf *NodeFormat) RenameField(oldName, newName string) error {
	f, ok := nf.Field(oldName)
	if !ok {
		return fmt.Errorf("format %q has no field %q", nf.Name, oldName)
	}
	if oldName == newName {
		return nil
	}
	if !validFieldName(newName) {
		return invalid(newName, "fieldname", newName, fmt.Errorf("%q cannot be used in field references", newName))
	}
	if _, dup := nf.Field(newName); dup {
		return invalid(newName, "unique", newName, fmt.Errorf("duplicate field name in format %q", nf.Name))
	}
	f.Name = newName
	return nf.renameReferences(oldName, newName, false)
}

// renameReferences rewrites equation and template references to a field.
// With relationalOnly set, only references reading other nodes change,
// which is what a format needs when a field of another format is renamed.
func (nf *NodeFormat) renameReferences(oldName, newName string, relationalOnly bool) error {
	var rels []equation.Relation
	if relationalOnly {
		rels = []equation.Relation{equation.RelParent, equation.RelRoot, equation.RelChildren, equation.RelChildCount}
	}
	for _, mf := range nf.MathFields() {
		if eq := mf.CompiledEquation(); eq != nil {
			if err := mf.SetEquation(eq.RenameField(oldName, newName, rels...)); err != nil {
				return err
			}
		}
	}
	nf.TitleLine = renameTemplateField(nf.TitleLine, oldName, newName, relationalOnly)
	for i, line := range nf.OutputLines {
		nf.OutputLines[i] = renameTemplateField(line, oldName, newName, relationalOnly)
	}
	return nil
}

// SortFields returns the fields that order sibling nodes, by sort key
// number. With no numbered field, the first field is used.
func (nf *NodeFormat) SortFields() []*FieldDefinition {
	var keyed []*FieldDefinition
	for _, f := range nf.Fields {
		if f.SortKeyNumber > 0 {
			keyed = append(keyed, f)
		}
	}
	if len(keyed) == 0 && len(nf.Fields) > 0 {
		return nf.Fields[:1]
	}
	slices.SortStableFunc(keyed, func(a, b *FieldDefinition) int {
		return cmp.Compare(a.SortKeyNumber, b.SortKeyNumber)
	})
	return keyed
}

// MathFields returns the computed fields in order.
func (nf *NodeFormat) MathFields() []*FieldDefinition {
	var out []*FieldDefinition
	for _, f := range nf.Fields {
		if f.IsMath() {
			out = append(out, f)
		}
	}
	return out
}
