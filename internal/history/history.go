// Package history implements the append-only commit graph: commit
// creation and parent-link traversal.
package history

import (
	"fmt"
	"time"

	"grit/internal/object"
)

// Graph provides commit operations over a content store. Commits are
// looked up by hash; the graph holds no live object references.
type Graph struct {
	store object.Storage
}

func NewGraph(s object.Storage) *Graph {
	return &Graph{store: s}
}

// CreateCommit builds, stores, and returns a commit for the given tree.
// parent is empty for a root commit; merge commits are out of scope, so
// at most one parent is recorded.
func (g *Graph) CreateCommit(treeHash, message, author, parent string, now time.Time) (*object.Commit, error) {
	c := &object.Commit{
		TreeHash:  treeHash,
		Author:    author,
		Timestamp: now.Unix(),
		Message:   message,
	}
	if parent != "" {
		c.Parents = []string{parent}
	}

	if _, err := object.PutCommit(g.store, c); err != nil {
		return nil, fmt.Errorf("storing commit: %w", err)
	}
	return c, nil
}

// Get loads one commit by hash.
func (g *Graph) Get(hash string) (*object.Commit, error) {
	return object.GetCommit(g.store, hash)
}

// Walk returns a fresh walker starting at the given commit. Each walker
// holds only the next hash to visit, so concurrent traversals cannot
// interfere and every call restarts from scratch.
func (g *Graph) Walk(start string) *Walker {
	return &Walker{graph: g, next: start}
}

// Walker yields commits child-to-root.
type Walker struct {
	graph *Graph
	next  string
}

// Next returns the next commit, or (nil, nil) after the root commit has
// been yielded.
func (w *Walker) Next() (*object.Commit, error) {
	if w.next == "" {
		return nil, nil
	}
	c, err := w.graph.Get(w.next)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", w.next, err)
	}
	if len(c.Parents) > 0 {
		w.next = c.Parents[0]
	} else {
		w.next = ""
	}
	return c, nil
}
