// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doug-101/TreeLine-sub000/codec"
)

const outlineFormats = `
formats:
  - name: Folder
    title_line: "{*Name*}"
    output_lines:
      - "<b>{*Name*}</b>"
      - "Items: {*&Name*}"
      - "Count: {*#Name*} / {*##Name*}"
      - "Owner: {*Owner*}"
    fields:
      - {name: Name, type: Text}
      - {name: Owner, type: Text}
  - name: Item
    title_line: "{*Name*}"
    output_lines:
      - "{*Name*} in {**Name*}"
      - "Top: {***Name*}"
      - "Owner: {*?Owner*}"
      - "See: {*Ref*}"
      - "From {*!File_Name*}"
    fields:
      - {name: Name, type: Text}
      - {name: Rank, type: Numbering, format: "1.1", sort_key: 1}
      - {name: Ref, type: InternalLink}
      - {name: Tag, type: AutoChoice}
      - {name: Labels, type: AutoCombination}
`

type outline struct {
	tree                    *Tree
	root, inbox, deep, task *Node
}

func newOutline(t *testing.T) outline {
	t.Helper()
	tree := NewTree(mustFormats(t, outlineFormats))
	tree.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	o := outline{tree: tree}
	var err error
	o.root, err = tree.AddNode("Folder")
	require.NoError(t, err)
	o.inbox, err = tree.AddChild(o.root.ID, "Folder")
	require.NoError(t, err)
	o.deep, err = tree.AddChild(o.inbox.ID, "Item")
	require.NoError(t, err)
	o.task, err = tree.AddChild(o.root.ID, "Item")
	require.NoError(t, err)

	require.NoError(t, tree.SetValue(o.root.ID, "Name", "Home"))
	require.NoError(t, tree.SetValue(o.root.ID, "Owner", "Ada"))
	require.NoError(t, tree.SetValue(o.inbox.ID, "Name", "Inbox"))
	require.NoError(t, tree.SetValue(o.deep.ID, "Name", "Read mail"))
	require.NoError(t, tree.SetValue(o.task.ID, "Name", "Pay & file"))
	return o
}

func TestTreeStructure(t *testing.T) {
	o := newOutline(t)
	tree := o.tree

	assert.Len(t, tree.Roots(), 1)
	assert.Len(t, tree.Nodes(), 4)

	parent, ok := tree.Parent(o.deep.ID)
	require.True(t, ok)
	assert.Equal(t, o.inbox.ID, parent.ID)
	_, ok = tree.Parent(o.root.ID)
	assert.False(t, ok)

	anc, ok := tree.Ancestor(o.deep.ID, 2)
	require.True(t, ok)
	assert.Equal(t, o.root.ID, anc.ID)
	_, ok = tree.Ancestor(o.deep.ID, 3)
	assert.False(t, ok)

	root, ok := tree.Root(o.deep.ID)
	require.True(t, ok)
	assert.Equal(t, o.root.ID, root.ID)
	root, ok = tree.Root(o.root.ID)
	require.True(t, ok)
	assert.Equal(t, o.root.ID, root.ID)

	assert.Len(t, tree.Descendants(o.root.ID, 1), 2)
	assert.Len(t, tree.Descendants(o.root.ID, 2), 1)
	assert.Empty(t, tree.Descendants(o.root.ID, 3))

	_, err := tree.AddNode("Nope")
	assert.Error(t, err)
	_, err = tree.AddChild("missing", "Item")
	assert.Error(t, err)
}

func TestLinkClone(t *testing.T) {
	o := newOutline(t)
	tree := o.tree

	require.NoError(t, tree.LinkClone(o.inbox.ID, o.task.ID))
	assert.Len(t, tree.Children(o.inbox.ID), 2)
	assert.Len(t, tree.Nodes(), 4, "a clone is listed once")
	parent, _ := tree.Parent(o.task.ID)
	assert.Equal(t, o.root.ID, parent.ID, "the first parent stays primary")

	assert.Error(t, tree.LinkClone(o.inbox.ID, o.task.ID), "already linked")
	assert.Error(t, tree.LinkClone(o.deep.ID, o.root.ID), "ancestor under descendant")
	assert.Error(t, tree.LinkClone(o.inbox.ID, o.inbox.ID), "node under itself")
	assert.Error(t, tree.LinkClone("missing", o.task.ID))
}

func TestTemplateOutput(t *testing.T) {
	o := newOutline(t)
	tree := o.tree

	assert.Equal(t, []string{
		"<b>Home</b>",
		"Items: Inbox, Pay &amp; file",
		"Count: 2 / 1",
		"Owner: Ada",
	}, tree.FormatOutput(o.root.ID, true))

	assert.Equal(t, []string{
		"Home",
		"Items: Inbox, Pay & file",
		"Count: 2 / 1",
		"Owner: Ada",
	}, tree.FormatOutput(o.root.ID, false))

	// blank references drop their lines
	assert.Equal(t, []string{
		"Read mail in Inbox",
		"Top: Home",
		"Owner: Ada",
	}, tree.FormatOutput(o.deep.ID, false))

	assert.Equal(t, "Pay & file", tree.FormatTitle(o.task.ID))
	assert.Nil(t, tree.FormatOutput("missing", false))
}

func TestTemplateFileInfo(t *testing.T) {
	o := newOutline(t)
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/docs/plan.trln", []byte("0123456789"), 0o644))
	mod := time.Date(2023, 11, 2, 8, 5, 0, 0, time.UTC)
	require.NoError(t, fsys.Chtimes("/docs/plan.trln", mod, mod))

	require.NoError(t, o.tree.LoadFileInfo(fsys, "/docs/plan.trln"))
	lines := o.tree.FormatOutput(o.task.ID, false)
	assert.Contains(t, lines, "From plan.trln")

	assert.Equal(t, "10", o.tree.fileInfo[FileSize])
	assert.Equal(t, "November 02, 2023", o.tree.fileInfo[FileModDate])
	assert.Equal(t, "08:05:00 AM", o.tree.fileInfo[FileModTime])

	assert.Error(t, o.tree.LoadFileInfo(fsys, "/docs/missing.trln"))
}

func TestInternalLinksThroughTree(t *testing.T) {
	o := newOutline(t)
	tree := o.tree

	require.NoError(t, tree.SetValue(o.task.ID, "Ref", "#"+o.deep.ID))
	assert.Contains(t, tree.FormatOutput(o.task.ID, false), "See: Read mail")
	assert.Contains(t, tree.FormatOutput(o.task.ID, true), `See: <a href="#`+o.deep.ID+`">Read mail</a>`)

	// a renamed target shows its current title
	require.NoError(t, tree.SetValue(o.deep.ID, "Name", "Answer mail"))
	assert.Contains(t, tree.FormatOutput(o.task.ID, false), "See: Answer mail")

	// links between nodes that title each other terminate
	require.NoError(t, tree.SetValue(o.deep.ID, "Ref", "#"+o.task.ID))
	title, ok := tree.NodeTitle(o.task.ID)
	require.True(t, ok)
	assert.Equal(t, "Pay & file", title)

	assert.ErrorIs(t, tree.SetValue(o.task.ID, "Ref", "#nowhere"), ErrBrokenLink)
	require.NoError(t, tree.SetStored(o.task.ID, "Ref", `<a href="#gone">Gone</a>`))
	assert.Contains(t, tree.FormatOutput(o.task.ID, false), "See: "+BrokenLinkMarker)
}

func TestSetValueErrors(t *testing.T) {
	o := newOutline(t)
	tree := o.tree

	assert.Error(t, tree.SetValue("missing", "Name", "x"))
	assert.Error(t, tree.SetValue(o.task.ID, "Missing", "x"))
	assert.ErrorIs(t, tree.SetValue(o.task.ID, "Rank", "x.y"), codec.ErrFormat)
	assert.Empty(t, tree.Value(o.task.ID, "Rank"))

	require.NoError(t, tree.SetValue(o.task.ID, "Name", ""))
	_, present := o.task.Data["Name"]
	assert.False(t, present)
}

func TestSortChildren(t *testing.T) {
	tree := NewTree(mustFormats(t, outlineFormats))
	root, err := tree.AddNode("Folder")
	require.NoError(t, err)

	for _, rank := range []string{"10", "2", "", "2.1", "1"} {
		n, err := tree.AddChild(root.ID, "Item")
		require.NoError(t, err)
		require.NoError(t, tree.SetValue(n.ID, "Rank", rank))
	}
	ranks := func() []string {
		var out []string
		for _, c := range tree.Children(root.ID) {
			out = append(out, c.Data["Rank"])
		}
		return out
	}

	tree.SortChildren(root.ID)
	assert.Equal(t, []string{"", "1", "2", "2.1", "10"}, ranks())

	item, _ := tree.Formats.Format("Item")
	rank, _ := item.Field("Rank")
	rank.SortDirection = SortDescending
	tree.SortChildren(root.ID)
	assert.Equal(t, []string{"10", "2.1", "2", "1", ""}, ranks())
}

func TestFieldCascades(t *testing.T) {
	o := newOutline(t)
	tree := o.tree

	require.NoError(t, tree.SetValue(o.root.ID, "Owner", "Grace"))
	require.NoError(t, tree.RenameField("Folder", "Owner", "Lead"))
	assert.Equal(t, "Grace", tree.Value(o.root.ID, "Lead"))
	assert.Empty(t, tree.Value(o.root.ID, "Owner"))
	assert.Contains(t, tree.FormatOutput(o.root.ID, false), "Owner: Grace")
	folder, _ := tree.Formats.Format("Folder")
	assert.Equal(t, "Owner: {*Lead*}", folder.OutputLines[3])

	item, _ := tree.Formats.Format("Item")
	assert.Equal(t, "Owner: {*?Lead*}", item.OutputLines[2])
	assert.Contains(t, tree.FormatOutput(o.deep.ID, false), "Owner: Grace")

	require.NoError(t, tree.RemoveField("Folder", "Lead"))
	assert.Empty(t, tree.Value(o.root.ID, "Lead"))
	assert.Equal(t, []string{"Name"}, folder.FieldNames())

	assert.Error(t, tree.RemoveField("Folder", "Lead"))
	assert.Error(t, tree.RenameField("Folder", "Lead", "Boss"))
}

func TestCollectAutoChoices(t *testing.T) {
	o := newOutline(t)
	tree := o.tree

	require.NoError(t, tree.SetValue(o.deep.ID, "Tag", "work"))
	require.NoError(t, tree.SetValue(o.task.ID, "Tag", "Home"))
	require.NoError(t, tree.SetValue(o.deep.ID, "Labels", "urgent, later"))
	require.NoError(t, tree.SetValue(o.task.ID, "Labels", "urgent"))

	tree.CollectAutoChoices()
	item, _ := tree.Formats.Format("Item")
	tag, _ := item.Field("Tag")
	assert.Equal(t, []string{"Home", "work"}, tag.Choices())
	labels, _ := item.Field("Labels")
	assert.Equal(t, []string{"later", "urgent"}, labels.Choices())
}
