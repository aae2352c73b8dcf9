// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"regexp"
	"strconv"
	"strings"
)

// Template references:
//
//	{*name*}    field of this node
//	{**name*}   field of the parent; each extra * goes one generation up
//	{*?name*}   field of the nearest ancestor that has it
//	{*&name*}   field of every child, joined with the child separator
//	{*#name*}   number of descendants one level down per #; name ignored
//	{*!name*}   file information such as File_Name or File_Mod_Date
var templateRef = regexp.MustCompile(`\{\*(\*+|#+|[!?&])?([^*{}]+)\*\}`)

// File information names understood by {*!name*} references.
const (
	FileName    = "File_Name"
	FilePath    = "File_Path"
	FileSize    = "File_Size"
	FileModDate = "File_Mod_Date"
	FileModTime = "File_Mod_Time"
)

// virtualField renders one template reference. Rendering never fails: a
// missing node, field or value renders empty.
type virtualField interface {
	OutputText(t *Tree, n *Node, markup bool) string
}

type ownField struct{ field string }

// AncestorLevel reads a field a fixed number of generations up.
type AncestorLevel struct {
	Field       string
	Generations int
}

// AnyAncestor reads a field from the closest ancestor with a value.
type AnyAncestor struct{ Field string }

// ChildList joins a field's output over all children.
type ChildList struct{ Field string }

// DescendantCount counts the descendants at a given depth below a node.
type DescendantCount struct{ Depth int }

// FileInfo reads a document file property.
type FileInfo struct{ Name string }

func parseTemplateRef(prefix, name string) virtualField {
	switch {
	case prefix == "":
		return ownField{field: name}
	case prefix[0] == '*':
		return AncestorLevel{Field: name, Generations: len(prefix)}
	case prefix[0] == '#':
		return DescendantCount{Depth: len(prefix)}
	case prefix == "?":
		return AnyAncestor{Field: name}
	case prefix == "&":
		return ChildList{Field: name}
	}
	return FileInfo{Name: name}
}

func (v ownField) OutputText(t *Tree, n *Node, markup bool) string {
	return t.fieldOutput(n, v.field, markup)
}

func (v AncestorLevel) OutputText(t *Tree, n *Node, markup bool) string {
	anc, ok := t.Ancestor(n.ID, v.Generations)
	if !ok {
		return ""
	}
	return t.fieldOutput(anc, v.Field, markup)
}

func (v AnyAncestor) OutputText(t *Tree, n *Node, markup bool) string {
	for _, anc := range t.ancestors(n.ID) {
		if text := t.fieldOutput(anc, v.Field, markup); text != "" {
			return text
		}
	}
	return ""
}

func (v ChildList) OutputText(t *Tree, n *Node, markup bool) string {
	var parts []string
	for _, child := range t.Children(n.ID) {
		if text := t.fieldOutput(child, v.Field, markup); text != "" {
			parts = append(parts, text)
		}
	}
	sep := defaultSeparator
	if nf, ok := t.Formats.Format(n.Format); ok {
		sep = nf.separator()
	}
	return strings.Join(parts, sep)
}

func (v DescendantCount) OutputText(t *Tree, n *Node, _ bool) string {
	return strconv.Itoa(len(t.Descendants(n.ID, v.Depth)))
}

func (v FileInfo) OutputText(t *Tree, _ *Node, _ bool) string {
	return t.fileInfo[v.Name]
}

// renderTemplate fills one template line. blank reports that the line had
// references and all of them rendered empty.
func (t *Tree) renderTemplate(line string, n *Node, markup bool) (text string, blank bool) {
	var b strings.Builder
	refs, filled := 0, 0
	last := 0
	for _, m := range templateRef.FindAllStringSubmatchIndex(line, -1) {
		literal := line[last:m[0]]
		if !markup {
			literal = plainText(literal)
		}
		b.WriteString(literal)
		var prefix string
		if m[2] >= 0 {
			prefix = line[m[2]:m[3]]
		}
		out := parseTemplateRef(prefix, line[m[4]:m[5]]).OutputText(t, n, markup)
		refs++
		if out != "" {
			filled++
		}
		b.WriteString(out)
		last = m[1]
	}
	tail := line[last:]
	if !markup {
		tail = plainText(tail)
	}
	b.WriteString(tail)
	return b.String(), refs > 0 && filled == 0
}

// renameTemplateField rewrites references to a field in a template line,
// keeping their relation prefix. With relationalOnly set, references to the
// node's own field are left alone.
func renameTemplateField(line, oldName, newName string, relationalOnly bool) string {
	return templateRef.ReplaceAllStringFunc(line, func(ref string) string {
		m := templateRef.FindStringSubmatch(ref)
		if m[2] != oldName || m[1] == "!" || (relationalOnly && m[1] == "") {
			return ref
		}
		return "{*" + m[1] + newName + "*}"
	})
}
