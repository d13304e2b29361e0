package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"grit/internal/diff"
	"grit/internal/object"
	"grit/internal/store"
)

// FileDiff is the line-level diff of one changed path.
type FileDiff struct {
	Path   string
	Change diff.ChangeType
	Result *diff.Result
}

// DiffWorktree compares the working tree against the staged tree: what
// `commit` would not yet capture.
func (r *Repository) DiffWorktree() ([]FileDiff, error) {
	stagedTree, err := r.stagedTree()
	if err != nil {
		return nil, err
	}
	workTree, err := r.worktreeTree()
	if err != nil {
		return nil, err
	}

	var diffs []FileDiff
	for _, change := range diff.CompareTrees(stagedTree, workTree) {
		// Untracked files have no staged counterpart to diff against.
		if change.Type == diff.ChangeAdd {
			continue
		}

		oldContent, err := r.blobContent(change.OldHash)
		if err != nil {
			return nil, err
		}

		var newContent []byte
		if change.Type != diff.ChangeDelete {
			newContent, err = os.ReadFile(filepath.Join(r.Root, filepath.FromSlash(change.Path)))
			if err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading %s: %w", change.Path, err)
			}
		}

		diffs = append(diffs, FileDiff{
			Path:   change.Path,
			Change: change.Type,
			Result: diff.NewEngine(3).Diff(oldContent, newContent),
		})
	}
	return diffs, nil
}

// DiffStaged compares the staged tree against the HEAD tree: what
// `commit` would capture.
func (r *Repository) DiffStaged() ([]FileDiff, error) {
	headTree, err := r.headTree()
	if err != nil {
		return nil, err
	}
	stagedTree, err := r.stagedTree()
	if err != nil {
		return nil, err
	}

	var diffs []FileDiff
	for _, change := range diff.CompareTrees(headTree, stagedTree) {
		oldContent, err := r.blobContent(change.OldHash)
		if err != nil {
			return nil, err
		}
		newContent, err := r.blobContent(change.NewHash)
		if err != nil {
			return nil, err
		}

		diffs = append(diffs, FileDiff{
			Path:   change.Path,
			Change: change.Type,
			Result: diff.NewEngine(3).Diff(oldContent, newContent),
		})
	}
	return diffs, nil
}

// blobContent loads blob bytes, treating an empty hash (absent side of
// an add or delete) as empty content.
func (r *Repository) blobContent(hash string) ([]byte, error) {
	if hash == "" {
		return nil, nil
	}
	content, err := object.GetBlob(r.store, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("blob %s missing from object store", hash)
		}
		return nil, err
	}
	return content, nil
}
