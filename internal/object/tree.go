package object

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"grit/internal/vcerr"
)

// TreeEntry is one entry in a tree object. Name is a single path
// segment; Hash points at a blob or a subtree.
type TreeEntry struct {
	Mode string
	Kind Type
	Hash string
	Name string
}

// Tree is an ordered set of entries. Entries are kept sorted by name so
// identical directory contents always serialize byte-identically.
type Tree struct {
	Entries []TreeEntry
}

func (t *Tree) sort() {
	sort.Slice(t.Entries, func(i, j int) bool {
		return t.Entries[i].Name < t.Entries[j].Name
	})
}

// MarshalTree produces the canonical serialization, one entry per line:
// "<mode> <kind> <hash>\t<name>\n", sorted by name.
func MarshalTree(t *Tree) []byte {
	t.sort()
	var buf bytes.Buffer
	for _, e := range t.Entries {
		fmt.Fprintf(&buf, "%s %s %s\t%s\n", e.Mode, e.Kind, e.Hash, e.Name)
	}
	return buf.Bytes()
}

// UnmarshalTree parses a canonical tree payload.
func UnmarshalTree(data []byte) (*Tree, error) {
	t := &Tree{}
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		head, name, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("malformed tree entry %q", line)
		}
		fields := strings.Fields(head)
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed tree entry %q", line)
		}
		kind := Type(fields[1])
		if kind != TypeBlob && kind != TypeTree {
			return nil, fmt.Errorf("tree entry %q: unknown kind %q", name, fields[1])
		}
		t.Entries = append(t.Entries, TreeEntry{
			Mode: fields[0],
			Kind: kind,
			Hash: fields[2],
			Name: name,
		})
	}
	return t, nil
}

// GetTree retrieves and parses a tree object by hash.
func GetTree(s Storage, hash string) (*Tree, error) {
	data, err := s.Get(hash)
	if err != nil {
		return nil, err
	}
	typ, payload, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if typ != TypeTree {
		return nil, fmt.Errorf("object %s is a %s, not a tree", hash, typ)
	}
	return UnmarshalTree(payload)
}

// ValidatePath rejects paths that would escape the repository root or
// that contain empty or dot segments. Paths use "/" separators.
func ValidatePath(path string) error {
	if path == "" {
		return vcerr.InvalidPath("empty path")
	}
	if strings.HasPrefix(path, "/") {
		return vcerr.InvalidPath("absolute path not allowed: %s", path)
	}
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "":
			return vcerr.InvalidPath("path contains empty segment: %s", path)
		case ".", "..":
			return vcerr.InvalidPath("path escapes repository root: %s", path)
		}
	}
	return nil
}

// BuildTree converts a flat mapping of slash-separated paths to blob
// hashes into nested tree objects, storing each subtree bottom-up, and
// returns the root tree hash. Identical mappings produce identical
// hashes regardless of map iteration order.
func BuildTree(s Storage, files map[string]string) (string, error) {
	for path := range files {
		if err := ValidatePath(path); err != nil {
			return "", err
		}
	}
	return buildTree(s, files)
}

func buildTree(s Storage, files map[string]string) (string, error) {
	tree := &Tree{}
	subdirs := make(map[string]map[string]string)

	for path, hash := range files {
		name, rest, nested := strings.Cut(path, "/")
		if !nested {
			tree.Entries = append(tree.Entries, TreeEntry{
				Mode: ModeFile,
				Kind: TypeBlob,
				Hash: hash,
				Name: name,
			})
			continue
		}
		if subdirs[name] == nil {
			subdirs[name] = make(map[string]string)
		}
		subdirs[name][rest] = hash
	}

	// Sorted recursion keeps subtree writes deterministic too.
	names := make([]string, 0, len(subdirs))
	for name := range subdirs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		subHash, err := buildTree(s, subdirs[name])
		if err != nil {
			return "", err
		}
		tree.Entries = append(tree.Entries, TreeEntry{
			Mode: ModeDir,
			Kind: TypeTree,
			Hash: subHash,
			Name: name,
		})
	}

	return s.Put(Encode(TypeTree, MarshalTree(tree)))
}

// FlattenTree walks the tree at hash and returns the flat mapping of
// slash-separated paths to blob hashes it describes.
func FlattenTree(s Storage, hash string) (map[string]string, error) {
	files := make(map[string]string)
	if err := flattenTree(s, hash, "", files); err != nil {
		return nil, err
	}
	return files, nil
}

func flattenTree(s Storage, hash, prefix string, files map[string]string) error {
	tree, err := GetTree(s, hash)
	if err != nil {
		return err
	}
	for _, e := range tree.Entries {
		path := e.Name
		if prefix != "" {
			path = prefix + "/" + e.Name
		}
		switch e.Kind {
		case TypeBlob:
			files[path] = e.Hash
		case TypeTree:
			if err := flattenTree(s, e.Hash, path, files); err != nil {
				return err
			}
		}
	}
	return nil
}
