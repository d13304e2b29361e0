package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"grit/internal/object"
	"grit/internal/store"
	"grit/internal/vcerr"

	"go.uber.org/zap"
)

// Checkout switches HEAD and the working tree to the named branch. All
// safety checks run before the first write, so on failure the working
// tree is untouched; the HEAD update is the final step.
func (r *Repository) Checkout(name string) error {
	targetCommit, err := r.refs.Resolve(name)
	if err != nil {
		return err
	}

	targetTree := map[string]string{}
	if targetCommit != "" {
		commit, err := r.graph.Get(targetCommit)
		if err != nil {
			return err
		}
		targetTree, err = object.FlattenTree(r.store, commit.TreeHash)
		if err != nil {
			return err
		}
	}

	currentTree, err := r.headTree()
	if err != nil {
		return err
	}

	if err := r.checkoutSafe(currentTree, targetTree); err != nil {
		return err
	}

	// Materialize: write every target file, then drop tracked files the
	// target does not carry.
	for path, hash := range targetTree {
		if currentTree[path] == hash {
			if _, err := os.Stat(filepath.Join(r.Root, filepath.FromSlash(path))); err == nil {
				continue
			}
		}
		content, err := object.GetBlob(r.store, hash)
		if err != nil {
			return fmt.Errorf("loading blob for %s: %w", path, err)
		}
		abs := filepath.Join(r.Root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", path, err)
		}
		if err := os.WriteFile(abs, content, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	for path := range currentTree {
		if _, ok := targetTree[path]; ok {
			continue
		}
		abs := filepath.Join(r.Root, filepath.FromSlash(path))
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", path, err)
		}
		r.pruneEmptyDirs(filepath.Dir(abs))
	}

	if err := r.refs.SetHEADBranch(name); err != nil {
		return err
	}

	r.logger.Info("switched branch",
		zap.String("branch", name),
		zap.String("commit", targetCommit))
	return nil
}

// checkoutSafe rejects the switch when staged changes exist or when any
// path the switch would rewrite carries uncommitted working-tree
// content.
func (r *Repository) checkoutSafe(currentTree, targetTree map[string]string) error {
	if r.index.Len() > 0 {
		return vcerr.UncommittedChanges("staged changes present; commit them before switching branches")
	}

	paths := make(map[string]bool, len(currentTree)+len(targetTree))
	for path := range currentTree {
		paths[path] = true
	}
	for path := range targetTree {
		paths[path] = true
	}

	for path := range paths {
		currentHash := currentTree[path]
		targetHash := targetTree[path]
		if currentHash == targetHash {
			continue // checkout will not touch this path
		}

		abs := filepath.Join(r.Root, filepath.FromSlash(path))
		content, err := os.ReadFile(abs)
		if err != nil {
			if os.IsNotExist(err) {
				// Locally deleted. Rewriting it would discard the
				// deletion silently.
				if currentHash != "" && targetHash != "" {
					return vcerr.UncommittedChanges("local deletion of %s conflicts with checkout", path)
				}
				continue
			}
			return fmt.Errorf("checking %s: %w", path, err)
		}

		workHash := object.HashBlob(store.HashBytes, content)
		if currentHash == "" && workHash != targetHash {
			return vcerr.UncommittedChanges("untracked file %s would be overwritten by checkout", path)
		}
		if currentHash != "" && workHash != currentHash {
			return vcerr.UncommittedChanges("uncommitted changes to %s would be lost by checkout", path)
		}
	}
	return nil
}

// pruneEmptyDirs removes now-empty parent directories up to the root.
func (r *Repository) pruneEmptyDirs(dir string) {
	for dir != r.Root {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
