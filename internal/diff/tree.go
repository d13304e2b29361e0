package diff

import "sort"

// ChangeType classifies one path in a tree comparison.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeDelete ChangeType = "delete"
	ChangeModify ChangeType = "modify"
)

// TreeChange is one differing path between two trees.
type TreeChange struct {
	Path    string
	Type    ChangeType
	OldHash string
	NewHash string
}

// CompareTrees diffs two flattened trees (path to blob hash). A path
// only in old is a deletion, only in new an addition, in both with
// different hashes a modification. Output is sorted by path so results
// never depend on map iteration order.
func CompareTrees(old, new map[string]string) []TreeChange {
	var changes []TreeChange

	for path, oldHash := range old {
		newHash, ok := new[path]
		switch {
		case !ok:
			changes = append(changes, TreeChange{
				Path: path, Type: ChangeDelete, OldHash: oldHash,
			})
		case newHash != oldHash:
			changes = append(changes, TreeChange{
				Path: path, Type: ChangeModify, OldHash: oldHash, NewHash: newHash,
			})
		}
	}

	for path, newHash := range new {
		if _, ok := old[path]; !ok {
			changes = append(changes, TreeChange{
				Path: path, Type: ChangeAdd, NewHash: newHash,
			})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes
}
