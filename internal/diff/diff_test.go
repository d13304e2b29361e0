package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffIdenticalContentIsEmpty(t *testing.T) {
	engine := NewEngine(3)

	tests := []struct {
		name    string
		content []byte
	}{
		{name: "empty", content: nil},
		{name: "single line", content: []byte("only line\n")},
		{name: "multi line", content: []byte("one\ntwo\nthree\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Diff(tt.content, tt.content)
			assert.Empty(t, result.Hunks)
			assert.Equal(t, 0, result.Stats.Changes)
		})
	}
}

func TestDiffOneLineChange(t *testing.T) {
	// Changing the second line of a two-line file must report exactly
	// one deletion and one insertion, both at line 2.
	old := []byte("line one\nline two\n")
	new := []byte("line one\nline 2\n")

	result := NewEngine(3).Diff(old, new)
	require.Len(t, result.Hunks, 1)
	assert.Equal(t, 1, result.Stats.Deletions)
	assert.Equal(t, 1, result.Stats.Additions)

	var deletion, addition *Line
	for i := range result.Hunks[0].Lines {
		line := &result.Hunks[0].Lines[i]
		switch line.Type {
		case Deletion:
			deletion = line
		case Addition:
			addition = line
		}
	}
	require.NotNil(t, deletion)
	require.NotNil(t, addition)
	assert.Equal(t, "line two", deletion.Content)
	assert.Equal(t, 2, deletion.OldNum)
	assert.Equal(t, "line 2", addition.Content)
	assert.Equal(t, 2, addition.NewNum)
}

func TestDiffPureInsertion(t *testing.T) {
	old := []byte("one\nthree\n")
	new := []byte("one\ntwo\nthree\n")

	result := NewEngine(1).Diff(old, new)
	require.Len(t, result.Hunks, 1)
	assert.Equal(t, 1, result.Stats.Additions)
	assert.Equal(t, 0, result.Stats.Deletions)

	var addition *Line
	for i := range result.Hunks[0].Lines {
		if result.Hunks[0].Lines[i].Type == Addition {
			addition = &result.Hunks[0].Lines[i]
		}
	}
	require.NotNil(t, addition)
	assert.Equal(t, "two", addition.Content)
	assert.Equal(t, 2, addition.NewNum)
	assert.Equal(t, 0, addition.OldNum)
}

func TestDiffPureDeletion(t *testing.T) {
	old := []byte("one\ntwo\nthree\n")
	new := []byte("one\nthree\n")

	result := NewEngine(1).Diff(old, new)
	require.Len(t, result.Hunks, 1)
	assert.Equal(t, 0, result.Stats.Additions)
	assert.Equal(t, 1, result.Stats.Deletions)
}

func TestDiffFromEmpty(t *testing.T) {
	result := NewEngine(3).Diff(nil, []byte("a\nb\n"))
	require.Len(t, result.Hunks, 1)
	assert.Equal(t, 2, result.Stats.Additions)
	assert.Equal(t, 0, result.Stats.Deletions)
}

func TestDiffDeterminism(t *testing.T) {
	old := []byte("a\nb\nc\nd\n")
	new := []byte("a\nx\nc\ny\n")

	first := NewEngine(3).Diff(old, new)
	second := NewEngine(3).Diff(old, new)
	assert.Equal(t, first, second)
}

func TestDiffSeparatedChangesFormSeparateHunks(t *testing.T) {
	var old, new []byte
	for _, line := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"} {
		old = append(old, []byte(line+"\n")...)
		if line == "2" || line == "9" {
			line = line + " changed"
		}
		new = append(new, []byte(line+"\n")...)
	}

	result := NewEngine(1).Diff(old, new)
	assert.Len(t, result.Hunks, 2)
	assert.Equal(t, 2, result.Stats.Additions)
	assert.Equal(t, 2, result.Stats.Deletions)
}

func TestFormatMarksLines(t *testing.T) {
	result := NewEngine(0).Diff([]byte("a\n"), []byte("b\n"))
	text := result.Format()
	assert.Contains(t, text, "- a")
	assert.Contains(t, text, "+ b")
	assert.Contains(t, text, "@@")
}

func TestCompareTrees(t *testing.T) {
	old := map[string]string{
		"same.txt":     "h1",
		"modified.txt": "h2",
		"deleted.txt":  "h3",
	}
	new := map[string]string{
		"same.txt":     "h1",
		"modified.txt": "h2-new",
		"added.txt":    "h4",
	}

	changes := CompareTrees(old, new)
	require.Len(t, changes, 3)

	// Sorted by path: added, deleted, modified.
	assert.Equal(t, TreeChange{Path: "added.txt", Type: ChangeAdd, NewHash: "h4"}, changes[0])
	assert.Equal(t, TreeChange{Path: "deleted.txt", Type: ChangeDelete, OldHash: "h3"}, changes[1])
	assert.Equal(t, TreeChange{Path: "modified.txt", Type: ChangeModify, OldHash: "h2", NewHash: "h2-new"}, changes[2])
}

func TestCompareTreesIdentical(t *testing.T) {
	tree := map[string]string{"a.txt": "h1", "b.txt": "h2"}
	assert.Empty(t, CompareTrees(tree, tree))
}
