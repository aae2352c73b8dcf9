// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/doug-101/TreeLine-sub000/codec"
)

// maxWalk bounds every upward or downward walk of the tree.
const maxWalk = 100000

// Node is one entry of the outline. Data maps field names to stored values;
// blank fields are absent.
type Node struct {
	ID     string            `json:"id" yaml:"id"`
	Format string            `json:"format" yaml:"format"`
	Data   map[string]string `json:"data,omitempty" yaml:"data,omitempty"`
}

// Tree is an arena of nodes related by ID. A node has one primary parent
// and may be linked as a clone under further parents. Tree is not safe for
// concurrent use.
type Tree struct {
	Formats *FormatSet
	Logger  *slog.Logger
	// Now is the clock for "now" defaults and the math pass. Nil means
	// time.Now.
	Now func() time.Time

	nodes    map[string]*Node
	parents  map[string][]string
	children map[string][]string
	roots    []string
	fileInfo map[string]string
	titling  map[string]bool
}

// NewTree creates an empty tree over a format set.
func NewTree(formats *FormatSet) *Tree {
	if formats == nil {
		formats = NewFormatSet()
	}
	return &Tree{
		Formats:  formats,
		nodes:    make(map[string]*Node),
		parents:  make(map[string][]string),
		children: make(map[string][]string),
		fileInfo: make(map[string]string),
		titling:  make(map[string]bool),
	}
}

func (t *Tree) log() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

func (t *Tree) clock() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}

// Env returns the formatting environment of this tree: its settings, its
// clock and itself as the internal link lookup.
func (t *Tree) Env() *Env {
	return &Env{Settings: t.Formats.Settings, Now: t.clock(), Links: t}
}

// newNode creates an unattached node with the format's initial values.
func (t *Tree) newNode(format string) (*Node, error) {
	nf, ok := t.Formats.Format(format)
	if !ok {
		return nil, fmt.Errorf("unknown node format %q", format)
	}
	n := &Node{ID: uuid.NewString(), Format: format, Data: make(map[string]string)}
	now := t.clock()
	for _, f := range nf.Fields {
		if v := f.InitialValue(now); v != "" {
			n.Data[f.Name] = v
		}
	}
	t.nodes[n.ID] = n
	return n, nil
}

// AddNode adds a top-level node.
func (t *Tree) AddNode(format string) (*Node, error) {
	n, err := t.newNode(format)
	if err != nil {
		return nil, err
	}
	t.roots = append(t.roots, n.ID)
	return n, nil
}

// AddChild adds a node as the last child of parentID.
func (t *Tree) AddChild(parentID, format string) (*Node, error) {
	if _, ok := t.nodes[parentID]; !ok {
		return nil, fmt.Errorf("unknown node %s", parentID)
	}
	n, err := t.newNode(format)
	if err != nil {
		return nil, err
	}
	t.parents[n.ID] = []string{parentID}
	t.children[parentID] = append(t.children[parentID], n.ID)
	return n, nil
}

// LinkClone places an existing node under an additional parent. Links that
// would make a node its own ancestor are rejected.
func (t *Tree) LinkClone(parentID, nodeID string) error {
	if _, ok := t.nodes[parentID]; !ok {
		return fmt.Errorf("unknown node %s", parentID)
	}
	if _, ok := t.nodes[nodeID]; !ok {
		return fmt.Errorf("unknown node %s", nodeID)
	}
	if slices.Contains(t.children[parentID], nodeID) {
		return fmt.Errorf("node %s is already a child of %s", nodeID, parentID)
	}
	if parentID == nodeID || t.isAncestor(nodeID, parentID) {
		return fmt.Errorf("linking %s under %s would create a cycle", nodeID, parentID)
	}
	t.parents[nodeID] = append(t.parents[nodeID], parentID)
	t.children[parentID] = append(t.children[parentID], nodeID)
	return nil
}

// isAncestor reports whether anc is reachable upward from id through any
// parent link.
func (t *Tree) isAncestor(anc, id string) bool {
	seen := map[string]bool{id: true}
	queue := slices.Clone(t.parents[id])
	for steps := 0; len(queue) > 0 && steps < maxWalk; steps++ {
		p := queue[0]
		queue = queue[1:]
		if p == anc {
			return true
		}
		if !seen[p] {
			seen[p] = true
			queue = append(queue, t.parents[p]...)
		}
	}
	return false
}

// NodeByID looks up a node.
func (t *Tree) NodeByID(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Roots returns the top-level nodes.
func (t *Tree) Roots() []*Node {
	return t.lookupAll(t.roots)
}

func (t *Tree) lookupAll(ids []string) []*Node {
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := t.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Parent returns the primary parent.
func (t *Tree) Parent(id string) (*Node, bool) {
	ps := t.parents[id]
	if len(ps) == 0 {
		return nil, false
	}
	return t.NodeByID(ps[0])
}

// Children returns the children in order.
func (t *Tree) Children(id string) []*Node {
	return t.lookupAll(t.children[id])
}

// ancestors walks primary parents from the parent up to the top.
func (t *Tree) ancestors(id string) []*Node {
	var out []*Node
	seen := map[string]bool{id: true}
	for len(out) < maxWalk {
		p, ok := t.Parent(id)
		if !ok || seen[p.ID] {
			break
		}
		seen[p.ID] = true
		out = append(out, p)
		id = p.ID
	}
	return out
}

// Ancestor returns the node the given number of generations up.
func (t *Tree) Ancestor(id string, generations int) (*Node, bool) {
	if generations < 1 {
		return nil, false
	}
	anc := t.ancestors(id)
	if generations > len(anc) {
		return nil, false
	}
	return anc[generations-1], true
}

// Root returns the top-level ancestor of a node, which is the node itself
// when it has no parent.
func (t *Tree) Root(id string) (*Node, bool) {
	anc := t.ancestors(id)
	if len(anc) == 0 {
		return t.NodeByID(id)
	}
	return anc[len(anc)-1], true
}

// Descendants returns the nodes exactly depth levels below id, each once.
func (t *Tree) Descendants(id string, depth int) []*Node {
	if depth < 1 {
		return nil
	}
	level := []string{id}
	seen := map[string]bool{id: true}
	for d := 0; d < depth && len(level) > 0; d++ {
		var next []string
		for _, p := range level {
			for _, c := range t.children[p] {
				if !seen[c] && len(seen) < maxWalk {
					seen[c] = true
					next = append(next, c)
				}
			}
		}
		level = next
	}
	return t.lookupAll(level)
}

// Nodes returns every node reachable from the roots in pre-order. Clones
// appear once, at their first position.
func (t *Tree) Nodes() []*Node {
	var out []*Node
	seen := make(map[string]bool)
	var walk func(id string)
	walk = func(id string) {
		if seen[id] || len(seen) >= maxWalk {
			return
		}
		seen[id] = true
		if n, ok := t.nodes[id]; ok {
			out = append(out, n)
		}
		for _, c := range t.children[id] {
			walk(c)
		}
	}
	for _, r := range t.roots {
		walk(r)
	}
	return out
}

// postOrder returns the reachable nodes with children before parents.
func (t *Tree) postOrder() []*Node {
	var out []*Node
	seen := make(map[string]bool)
	var walk func(id string)
	walk = func(id string) {
		if seen[id] || len(seen) >= maxWalk {
			return
		}
		seen[id] = true
		for _, c := range t.children[id] {
			walk(c)
		}
		if n, ok := t.nodes[id]; ok {
			out = append(out, n)
		}
	}
	for _, r := range t.roots {
		walk(r)
	}
	return out
}

func (t *Tree) fieldDef(n *Node, field string) (*FieldDefinition, bool) {
	nf, ok := t.Formats.Format(n.Format)
	if !ok {
		return nil, false
	}
	return nf.Field(field)
}

// Value returns a node's stored value for a field.
func (t *Tree) Value(id, field string) string {
	if n, ok := t.nodes[id]; ok {
		return n.Data[field]
	}
	return ""
}

// SetStored writes a stored value directly. An empty value clears it.
func (t *Tree) SetStored(id, field, stored string) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("unknown node %s", id)
	}
	if _, ok := t.fieldDef(n, field); !ok {
		return fmt.Errorf("format %q has no field %q", n.Format, field)
	}
	if stored == "" {
		delete(n.Data, field)
	} else {
		n.Data[field] = stored
	}
	return nil
}

// SetValue converts editor text through the field's format and stores it.
func (t *Tree) SetValue(id, field, editor string) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("unknown node %s", id)
	}
	f, ok := t.fieldDef(n, field)
	if !ok {
		return fmt.Errorf("format %q has no field %q", n.Format, field)
	}
	stored, err := f.StoredText(editor, t.Env())
	if err != nil {
		return fmt.Errorf("field %q: %w", field, err)
	}
	return t.SetStored(id, field, stored)
}

func (t *Tree) formatFamily(format string) map[string]bool {
	family := map[string]bool{format: true}
	for _, d := range t.Formats.Derived(format) {
		family[d.Name] = true
	}
	return family
}

// RemoveField drops a field from a format and its derived formats, and
// clears the field's data on their nodes.
func (t *Tree) RemoveField(format, field string) error {
	nf, ok := t.Formats.Format(format)
	if !ok {
		return fmt.Errorf("unknown node format %q", format)
	}
	if !nf.RemoveField(field) {
		return fmt.Errorf("format %q has no field %q", format, field)
	}
	for _, d := range t.Formats.Derived(format) {
		d.RemoveField(field)
	}
	family := t.formatFamily(format)
	cleared := 0
	for _, n := range t.nodes {
		if _, ok := n.Data[field]; ok && family[n.Format] {
			delete(n.Data, field)
			cleared++
		}
	}
	t.log().Debug("removed field", "format", format, "field", field, "cleared", cleared)
	return nil
}

// RenameField renames a field in the formats and in node data.
func (t *Tree) RenameField(format, oldName, newName string) error {
	if err := t.Formats.RenameField(format, oldName, newName); err != nil {
		return err
	}
	family := t.formatFamily(format)
	moved := 0
	for _, n := range t.nodes {
		if v, ok := n.Data[oldName]; ok && family[n.Format] {
			delete(n.Data, oldName)
			n.Data[newName] = v
			moved++
		}
	}
	t.log().Debug("renamed field", "format", format, "from", oldName, "to", newName, "nodes", moved)
	return nil
}

// CollectAutoChoices gathers the values used on each format's AutoChoice
// and AutoCombination fields and offers them as those fields' choices.
func (t *Tree) CollectAutoChoices() {
	for _, nf := range t.Formats.Formats {
		for _, f := range nf.Fields {
			if f.Type != TypeAutoChoice && f.Type != TypeAutoCombination {
				continue
			}
			set := make(map[string]bool)
			for _, n := range t.nodes {
				if n.Format == nf.Name {
					collectChoices(f, n.Data[f.Name], set)
				}
			}
			items := make([]string, 0, len(set))
			for item := range set {
				items = append(items, item)
			}
			f.SetAutoChoices(items)
		}
	}
}

// SetFileInfo replaces the values shown by {*!name*} references.
func (t *Tree) SetFileInfo(values map[string]string) {
	t.fileInfo = make(map[string]string, len(values))
	for k, v := range values {
		t.fileInfo[k] = v
	}
}

// LoadFileInfo fills the file information of the document stored at path.
func (t *Tree) LoadFileInfo(fsys afero.Fs, path string) error {
	info, err := fsys.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat document: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	mod := info.ModTime()
	t.SetFileInfo(map[string]string{
		FileName:    info.Name(),
		FilePath:    filepath.Dir(abs),
		FileSize:    strconv.FormatInt(info.Size(), 10),
		FileModDate: codec.FormatStrftime(codec.DefaultDateFormat, mod),
		FileModTime: codec.FormatStrftime(codec.DefaultTimeFormat, mod),
	})
	return nil
}

func (t *Tree) fieldOutput(n *Node, field string, markup bool) string {
	f, ok := t.fieldDef(n, field)
	if !ok {
		return ""
	}
	return f.FormatOutput(n.Data[field], OutputOptions{AllowMarkup: markup, Env: t.Env()})
}

// FormatTitle renders a node's title line as plain text.
func (t *Tree) FormatTitle(id string) string {
	n, ok := t.nodes[id]
	if !ok {
		return ""
	}
	nf, ok := t.Formats.Format(n.Format)
	if !ok {
		return ""
	}
	text, _ := t.renderTemplate(nf.TitleLine, n, false)
	return firstLine(text)
}

// NodeTitle implements NodeLookup. A title that links back to a node
// already being titled renders that link by ID.
func (t *Tree) NodeTitle(id string) (string, bool) {
	if _, ok := t.nodes[id]; !ok {
		return "", false
	}
	if t.titling[id] {
		return id, true
	}
	t.titling[id] = true
	defer delete(t.titling, id)
	return t.FormatTitle(id), true
}

// FormatOutput renders a node's output lines. Lines whose references all
// render blank are dropped.
func (t *Tree) FormatOutput(id string, allowMarkup bool) []string {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	nf, ok := t.Formats.Format(n.Format)
	if !ok {
		return nil
	}
	var lines []string
	for _, line := range nf.OutputLines {
		text, blank := t.renderTemplate(line, n, allowMarkup)
		if !blank {
			lines = append(lines, text)
		}
	}
	return lines
}

// SortChildren orders a node's children by the sort fields of their
// formats. The sort is stable.
func (t *Tree) SortChildren(id string) {
	env := t.Env()
	type keyed struct {
		id   string
		keys []SortKey
		desc []bool
	}
	items := make([]keyed, 0, len(t.children[id]))
	for _, cid := range t.children[id] {
		k := keyed{id: cid}
		if n, ok := t.nodes[cid]; ok {
			if nf, ok := t.Formats.Format(n.Format); ok {
				for _, f := range nf.SortFields() {
					k.keys = append(k.keys, f.SortKey(n.Data[f.Name], env))
					k.desc = append(k.desc, f.SortDirection == SortDescending)
				}
			}
		}
		items = append(items, k)
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		for i := 0; i < len(a.keys) && i < len(b.keys); i++ {
			c := CompareKeys(a.keys[i], b.keys[i])
			if a.desc[i] {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return len(a.keys) - len(b.keys)
	})
	for i, k := range items {
		t.children[id][i] = k.id
	}
}
