package object

import (
	"testing"

	"grit/internal/vcerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalTreeSortsEntries(t *testing.T) {
	a := &Tree{Entries: []TreeEntry{
		{Mode: ModeFile, Kind: TypeBlob, Hash: "h2", Name: "zebra.txt"},
		{Mode: ModeFile, Kind: TypeBlob, Hash: "h1", Name: "apple.txt"},
	}}
	b := &Tree{Entries: []TreeEntry{
		{Mode: ModeFile, Kind: TypeBlob, Hash: "h1", Name: "apple.txt"},
		{Mode: ModeFile, Kind: TypeBlob, Hash: "h2", Name: "zebra.txt"},
	}}

	assert.Equal(t, MarshalTree(a), MarshalTree(b))
}

func TestTreeMarshalRoundtrip(t *testing.T) {
	tree := &Tree{Entries: []TreeEntry{
		{Mode: ModeFile, Kind: TypeBlob, Hash: "abc123", Name: "file with spaces.txt"},
		{Mode: ModeDir, Kind: TypeTree, Hash: "def456", Name: "src"},
	}}

	got, err := UnmarshalTree(MarshalTree(tree))
	require.NoError(t, err)
	assert.Equal(t, tree.Entries, got.Entries)
}

func TestBuildTreeDeterminism(t *testing.T) {
	// Same (path, hash) set fed through maps built in different orders
	// must hash identically.
	build := func(pairs [][2]string) string {
		s := newMemStorage()
		files := make(map[string]string)
		for _, p := range pairs {
			files[p[0]] = p[1]
		}
		hash, err := BuildTree(s, files)
		require.NoError(t, err)
		return hash
	}

	forward := build([][2]string{
		{"a.txt", "h1"}, {"src/main.go", "h2"}, {"src/util/io.go", "h3"}, {"z.txt", "h4"},
	})
	reverse := build([][2]string{
		{"z.txt", "h4"}, {"src/util/io.go", "h3"}, {"src/main.go", "h2"}, {"a.txt", "h1"},
	})

	assert.Equal(t, forward, reverse)
}

func TestBuildTreeFlattenRoundtrip(t *testing.T) {
	s := newMemStorage()
	files := map[string]string{
		"README.md":          "h1",
		"src/main.go":        "h2",
		"src/lib/parse.go":   "h3",
		"src/lib/render.go":  "h4",
		"docs/guide/toc.txt": "h5",
	}

	root, err := BuildTree(s, files)
	require.NoError(t, err)

	got, err := FlattenTree(s, root)
	require.NoError(t, err)
	assert.Equal(t, files, got)
}

func TestBuildTreeDifferentContentsDifferentHash(t *testing.T) {
	s := newMemStorage()

	first, err := BuildTree(s, map[string]string{"a.txt": "h1"})
	require.NoError(t, err)
	second, err := BuildTree(s, map[string]string{"a.txt": "h2"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "simple file", path: "file.txt"},
		{name: "nested", path: "src/lib/parse.go"},
		{name: "empty", path: "", wantErr: true},
		{name: "absolute", path: "/etc/passwd", wantErr: true},
		{name: "parent traversal", path: "../outside.txt", wantErr: true},
		{name: "embedded traversal", path: "src/../../escape.txt", wantErr: true},
		{name: "dot segment", path: "./file.txt", wantErr: true},
		{name: "empty segment", path: "src//file.txt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, vcerr.KindInvalidPath, vcerr.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildTreeRejectsInvalidPath(t *testing.T) {
	s := newMemStorage()
	_, err := BuildTree(s, map[string]string{"../escape.txt": "h1"})
	require.Error(t, err)
	assert.Equal(t, vcerr.KindInvalidPath, vcerr.KindOf(err))
}
