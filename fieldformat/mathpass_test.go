// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const budgetFormats = `
formats:
  - name: Project
    fields:
      - {name: Name, type: Text}
      - {name: Total, type: Math, equation: "sum({*&Count*})", format: "0"}
      - {name: Tasks, type: Math, equation: "{*#Count*}", format: "0"}
      - {name: Label, type: Math, equation: "{*Name*} + ': ' + {*Total*}", result_type: text}
  - name: Task
    fields:
      - {name: Name, type: Text}
      - {name: Count, type: Number}
      - {name: Share, type: Math, equation: "{*Count*} * 100 / {**Total*}", format: "0.#"}
      - {name: Double, type: Math, equation: "{*Count*} * 2"}
      - {name: Ratio, type: Math, equation: "1 / {*Count*}", format: "0.##"}
      - {name: Top, type: Math, equation: "{*$Name*}", result_type: text}
`

type budget struct {
	tree    *Tree
	project *Node
	tasks   []*Node
}

func newBudget(t *testing.T, counts ...string) budget {
	t.Helper()
	tree := NewTree(mustFormats(t, budgetFormats))
	project, err := tree.AddNode("Project")
	require.NoError(t, err)
	require.NoError(t, tree.SetValue(project.ID, "Name", "Launch"))

	b := budget{tree: tree, project: project}
	for _, c := range counts {
		task, err := tree.AddChild(project.ID, "Task")
		require.NoError(t, err)
		require.NoError(t, tree.SetValue(task.ID, "Count", c))
		b.tasks = append(b.tasks, task)
	}
	return b
}

func TestEvaluateMath(t *testing.T) {
	b := newBudget(t, "2", "3", "5")
	report, err := b.tree.EvaluateMath(MathOptions{})
	require.NoError(t, err)
	assert.Empty(t, report.Errors)

	assert.Equal(t, "10", b.tree.Value(b.project.ID, "Total"))
	assert.Equal(t, "3", b.tree.Value(b.project.ID, "Tasks"))
	assert.Equal(t, "Launch: 10", b.tree.Value(b.project.ID, "Label"))

	// Share reads the parent's Total, which is computed from the children
	shares := make([]string, len(b.tasks))
	for i, task := range b.tasks {
		shares[i] = b.tree.Value(task.ID, "Share")
	}
	assert.Equal(t, []string{"20", "30", "50"}, shares)
	assert.Equal(t, "10", b.tree.Value(b.tasks[2].ID, "Double"))
	assert.Equal(t, "0.2", b.tree.Value(b.tasks[2].ID, "Ratio"))
	assert.Equal(t, "Launch", b.tree.Value(b.tasks[0].ID, "Top"))

	total, _ := b.tree.fieldDef(b.project, "Total")
	assert.Equal(t, "10", total.FormatOutput(b.tree.Value(b.project.ID, "Total"), OutputOptions{}))
	ratio, _ := b.tree.fieldDef(b.tasks[0], "Ratio")
	assert.Equal(t, "0.5", ratio.FormatOutput(b.tree.Value(b.tasks[0].ID, "Ratio"), OutputOptions{}))
}

func TestEvaluateMathIsIdempotent(t *testing.T) {
	t.Run("budget", func(t *testing.T) {
		b := newBudget(t, "2", "3", "5")
		first, err := b.tree.EvaluateMath(MathOptions{})
		require.NoError(t, err)
		assert.Positive(t, first.Changed)

		second, err := b.tree.EvaluateMath(MathOptions{})
		require.NoError(t, err)
		assert.Equal(t, first.Evaluated, second.Evaluated)
		assert.Zero(t, second.Changed)

		require.NoError(t, b.tree.SetValue(b.tasks[0].ID, "Count", "12"))
		third, err := b.tree.EvaluateMath(MathOptions{})
		require.NoError(t, err)
		assert.Positive(t, third.Changed)
		assert.Equal(t, "20", b.tree.Value(b.project.ID, "Total"))
		assert.Equal(t, "60", b.tree.Value(b.tasks[0].ID, "Share"))
	})

	// Carry reads its own value on the parent and a plain field on the
	// children, so it settles parents first.
	t.Run("carried from parent", func(t *testing.T) {
		tree := NewTree(mustFormats(t, `
formats:
  - name: Item
    fields:
      - {name: Amount, type: Number}
      - {name: Carry, type: Math, equation: "{**Carry*} + sum({*&Amount*})"}
`))
		root, err := tree.AddNode("Item")
		require.NoError(t, err)
		child, err := tree.AddChild(root.ID, "Item")
		require.NoError(t, err)
		grandchild, err := tree.AddChild(child.ID, "Item")
		require.NoError(t, err)
		require.NoError(t, tree.SetValue(child.ID, "Amount", "10"))
		require.NoError(t, tree.SetValue(grandchild.ID, "Amount", "1"))

		carried := func() []string {
			return []string{
				tree.Value(root.ID, "Carry"),
				tree.Value(child.ID, "Carry"),
				tree.Value(grandchild.ID, "Carry"),
			}
		}

		_, err = tree.EvaluateMath(MathOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"10", "11", "11"}, carried())

		again, err := tree.EvaluateMath(MathOptions{})
		require.NoError(t, err)
		assert.Zero(t, again.Changed)
		assert.Equal(t, []string{"10", "11", "11"}, carried())
	})
}

func TestEvaluateMathBlankModes(t *testing.T) {
	tests := []struct {
		name       string
		zeroBlanks bool
		mode       BlankMode
		wantDouble string
		wantTotal  string
	}{
		{"setting zero", true, BlankDefault, "0", "5"},
		{"setting propagate", false, BlankDefault, "", "5"},
		{"override zero", false, BlankZero, "0", "5"},
		{"override propagate", true, BlankPropagate, "", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBudget(t, "2", "", "3")
			b.tree.Formats.Settings.ZeroBlanks = tt.zeroBlanks

			_, err := b.tree.EvaluateMath(MathOptions{Blank: tt.mode})
			require.NoError(t, err)
			assert.Equal(t, tt.wantDouble, b.tree.Value(b.tasks[1].ID, "Double"))
			assert.Equal(t, tt.wantTotal, b.tree.Value(b.project.ID, "Total"))
			_, stored := b.tasks[1].Data["Double"]
			assert.Equal(t, tt.wantDouble != "", stored)
		})
	}
}

func TestEvaluateMathEmptyChildren(t *testing.T) {
	b := newBudget(t)
	_, err := b.tree.EvaluateMath(MathOptions{Blank: BlankZero})
	require.NoError(t, err)
	assert.Equal(t, "0", b.tree.Value(b.project.ID, "Total"))

	_, err = b.tree.EvaluateMath(MathOptions{Blank: BlankPropagate})
	require.NoError(t, err)
	assert.Empty(t, b.tree.Value(b.project.ID, "Total"))
	assert.Equal(t, "0", b.tree.Value(b.project.ID, "Tasks"))
}

func TestEvaluateMathReportsErrors(t *testing.T) {
	b := newBudget(t, "4", "0")
	report, err := b.tree.EvaluateMath(MathOptions{})
	require.NoError(t, err)

	require.Len(t, report.Errors, 1)
	fe := report.Errors[0]
	assert.Equal(t, b.tasks[1].ID, fe.NodeID)
	assert.Equal(t, "Ratio", fe.Field)
	assert.Contains(t, fe.Error(), "division by zero")

	assert.Equal(t, ErrorMarker, b.tree.Value(b.tasks[1].ID, "Ratio"))
	assert.Equal(t, "0.25", b.tree.Value(b.tasks[0].ID, "Ratio"))

	// the failure stays local to its node and field
	assert.Equal(t, "4", b.tree.Value(b.project.ID, "Total"))
	ratio, _ := b.tree.fieldDef(b.tasks[1], "Ratio")
	assert.Equal(t, ErrorMarker, ratio.FormatOutput(ErrorMarker, OutputOptions{}))
}

func TestEvaluateMathCycleCommitsNothing(t *testing.T) {
	b := newBudget(t, "2", "3")
	_, err := b.tree.EvaluateMath(MathOptions{})
	require.NoError(t, err)
	before := b.tree.Value(b.project.ID, "Total")

	// bypass FormatSet.SetEquation, which would refuse the cycle
	project, _ := b.tree.Formats.Format("Project")
	total, _ := project.Field("Total")
	require.NoError(t, total.SetEquation("sum({*&Count*}) + {*Label*}"))
	require.NoError(t, b.tree.SetValue(b.tasks[0].ID, "Count", "7"))

	report, err := b.tree.EvaluateMath(MathOptions{})
	assert.Nil(t, report)
	require.Error(t, err)
	var cerr *CircularReferenceError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, cerr.Path, "Total")
	assert.Contains(t, cerr.Path, "Label")

	assert.Equal(t, before, b.tree.Value(b.project.ID, "Total"))
}

func TestEvaluateMathRootReferences(t *testing.T) {
	b := newBudget(t, "1")
	child, err := b.tree.AddChild(b.tasks[0].ID, "Task")
	require.NoError(t, err)
	require.NoError(t, b.tree.SetValue(child.ID, "Count", "1"))

	_, err = b.tree.EvaluateMath(MathOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Launch", b.tree.Value(child.ID, "Top"))
	assert.Equal(t, "Launch", b.tree.Value(b.tasks[0].ID, "Top"))

	top, err := b.tree.AddNode("Task")
	require.NoError(t, err)
	require.NoError(t, b.tree.SetValue(top.ID, "Name", "Solo"))
	require.NoError(t, b.tree.SetValue(top.ID, "Count", "2"))
	_, err = b.tree.EvaluateMath(MathOptions{Blank: BlankPropagate})
	require.NoError(t, err)
	assert.Empty(t, b.tree.Value(top.ID, "Top"), "a top-level node has no root above it")
	assert.Empty(t, b.tree.Value(top.ID, "Share"), "a top-level node has no parent")
	assert.Empty(t, b.tree.Value(child.ID, "Share"))
}

func TestEvaluateMathMissingReferences(t *testing.T) {
	tree := NewTree(mustFormats(t, `
formats:
  - name: Note
    fields:
      - {name: Name, type: Text}
      - {name: Path, type: Math, equation: "{**Name*} + '/' + {*Name*}", result_type: text}
      - {name: Size, type: Math, equation: "{**Pages*} + 1"}
`))
	top, err := tree.AddNode("Note")
	require.NoError(t, err)
	require.NoError(t, tree.SetValue(top.ID, "Name", "a"))
	child, err := tree.AddChild(top.ID, "Note")
	require.NoError(t, err)
	require.NoError(t, tree.SetValue(child.ID, "Name", "b"))

	report, err := tree.EvaluateMath(MathOptions{Blank: BlankZero})
	require.NoError(t, err)
	assert.Empty(t, report.Errors)

	tests := []struct {
		name  string
		id    string
		field string
		want  string
	}{
		{"text with no parent", top.ID, "Path", "/a"},
		{"text with parent", child.ID, "Path", "a/b"},
		{"number field absent from format", child.ID, "Size", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tree.Value(tt.id, tt.field))
		})
	}
}

func TestEvaluateMathSelfReferenceThroughChildren(t *testing.T) {
	src := `
formats:
  - name: Part
    fields:
      - {name: Name, type: Text}
      - {name: Weight, type: Math, equation: "{*Own*} + sum({*&Weight*})"}
      - {name: Own, type: Number}
`
	tree := NewTree(mustFormats(t, src))
	tree.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	car, _ := tree.AddNode("Part")
	engine, _ := tree.AddChild(car.ID, "Part")
	piston, _ := tree.AddChild(engine.ID, "Part")
	wheel, _ := tree.AddChild(car.ID, "Part")
	for id, own := range map[string]string{car.ID: "100", engine.ID: "50", piston.ID: "2", wheel.ID: "10"} {
		require.NoError(t, tree.SetValue(id, "Own", own))
	}

	_, err := tree.EvaluateMath(MathOptions{})
	require.NoError(t, err)
	assert.Equal(t, "2", tree.Value(piston.ID, "Weight"))
	assert.Equal(t, "52", tree.Value(engine.ID, "Weight"))
	assert.Equal(t, "162", tree.Value(car.ID, "Weight"))
}

func TestEvaluateMathAutoCombinationChildren(t *testing.T) {
	src := `
formats:
  - name: Group
    fields:
      - {name: Name, type: Text}
      - {name: Total, type: Math, equation: "sum({*&Count*})", result_type: number, format: "#.##"}
  - name: Entry
    fields:
      - {name: Name, type: Text}
      - {name: Count, type: AutoCombination}
`
	tree := NewTree(mustFormats(t, src))
	group, err := tree.AddNode("Group")
	require.NoError(t, err)
	for _, c := range []string{"2", "3", "5"} {
		entry, err := tree.AddChild(group.ID, "Entry")
		require.NoError(t, err)
		require.NoError(t, tree.SetValue(entry.ID, "Count", c))
	}
	tree.CollectAutoChoices()
	entry, _ := tree.Formats.Format("Entry")
	count, _ := entry.Field("Count")
	assert.Equal(t, []string{"2", "3", "5"}, count.Choices())

	report, err := tree.EvaluateMath(MathOptions{})
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Equal(t, "10", tree.Value(group.ID, "Total"))

	groupFormat, _ := tree.Formats.Format("Group")
	total, _ := groupFormat.Field("Total")
	assert.Equal(t, "10", total.FormatOutput(tree.Value(group.ID, "Total"), OutputOptions{}))
}
