package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"grit/internal/diff"
	"grit/internal/object"
	"grit/internal/store"
)

// Status reports the working tree relative to the index and HEAD.
type Status struct {
	Branch    string
	Staged    []diff.TreeChange // index vs HEAD tree
	Unstaged  []diff.TreeChange // working tree vs staged tree
	Untracked []string
}

// Clean reports whether there is nothing to commit and nothing pending.
func (s *Status) Clean() bool {
	return len(s.Staged) == 0 && len(s.Unstaged) == 0 && len(s.Untracked) == 0
}

var ignoredDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

// shouldIgnore filters hidden files and common build directories, plus
// the repository directory itself.
func (r *Repository) shouldIgnore(rel string) bool {
	if rel == "" || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
		if ignoredDirs[part] {
			return true
		}
	}
	return false
}

// walkWorktree lists every non-ignored file under the root as a sorted
// slice of slash-separated relative paths.
func (r *Repository) walkWorktree() ([]string, error) {
	var files []string
	err := filepath.WalkDir(r.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(r.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if r.shouldIgnore(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking worktree: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// worktreeTree hashes every non-ignored worktree file without writing
// anything to the store.
func (r *Repository) worktreeTree() (map[string]string, error) {
	files, err := r.walkWorktree()
	if err != nil {
		return nil, err
	}
	tree := make(map[string]string, len(files))
	for _, rel := range files {
		content, err := os.ReadFile(filepath.Join(r.Root, filepath.FromSlash(rel)))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", rel, err)
		}
		tree[rel] = object.HashBlob(store.HashBytes, content)
	}
	return tree, nil
}

// Status computes the three-way report: staged changes (index vs HEAD),
// unstaged changes (working tree vs staged tree), and untracked files.
func (r *Repository) Status() (*Status, error) {
	branch, _, err := r.refs.HEAD()
	if err != nil {
		return nil, err
	}

	headTree, err := r.headTree()
	if err != nil {
		return nil, err
	}
	stagedTree, err := r.stagedTree()
	if err != nil {
		return nil, err
	}
	workTree, err := r.worktreeTree()
	if err != nil {
		return nil, err
	}

	status := &Status{
		Branch: branch,
		Staged: diff.CompareTrees(headTree, stagedTree),
	}

	for _, change := range diff.CompareTrees(stagedTree, workTree) {
		if change.Type == diff.ChangeAdd {
			status.Untracked = append(status.Untracked, change.Path)
			continue
		}
		status.Unstaged = append(status.Unstaged, change)
	}
	sort.Strings(status.Untracked)

	return status, nil
}
