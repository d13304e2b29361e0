// Package refs manages branch pointers and HEAD. Each branch is a file
// under refs/heads holding a commit hash (empty while the branch is
// unborn); HEAD names the current branch or, when detached, a commit.
package refs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"grit/internal/vcerr"
)

const (
	DefaultBranch = "main"
	headFile      = "HEAD"
	headsDir      = "refs/heads"
	symrefPrefix  = "ref: refs/heads/"
)

// Branch is one named pointer as reported by List.
type Branch struct {
	Name    string
	Commit  string // empty while unborn
	Current bool
}

// Manager reads and writes refs inside one repository directory.
type Manager struct {
	dir string // the .grit directory
}

func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Init creates the heads directory and points HEAD at the default
// branch, which starts unborn.
func (m *Manager) Init() error {
	if err := os.MkdirAll(filepath.Join(m.dir, headsDir), 0755); err != nil {
		return fmt.Errorf("creating refs directory: %w", err)
	}
	return m.SetHEADBranch(DefaultBranch)
}

func (m *Manager) branchPath(name string) string {
	return filepath.Join(m.dir, headsDir, name)
}

func validBranchName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\ \t\n") || strings.HasPrefix(name, ".") {
		return vcerr.InvalidPath("invalid branch name: %q", name)
	}
	return nil
}

// HEAD returns the current branch name, or ("", hash) when detached.
func (m *Manager) HEAD() (branch string, detached string, err error) {
	data, err := os.ReadFile(filepath.Join(m.dir, headFile))
	if err != nil {
		return "", "", fmt.Errorf("reading HEAD: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if rest, ok := strings.CutPrefix(content, symrefPrefix); ok {
		return rest, "", nil
	}
	return "", content, nil
}

// HeadCommit resolves HEAD to a commit hash. Returns "" while the
// current branch is unborn (no commits yet).
func (m *Manager) HeadCommit() (string, error) {
	branch, detached, err := m.HEAD()
	if err != nil {
		return "", err
	}
	if branch == "" {
		return detached, nil
	}
	commit, err := m.Resolve(branch)
	if err != nil {
		if vcerr.IsKind(err, vcerr.KindNotFound) {
			return "", nil
		}
		return "", err
	}
	return commit, nil
}

// Resolve returns the commit a branch points at ("" while unborn), or a
// NotFound error when the branch does not exist.
func (m *Manager) Resolve(name string) (string, error) {
	data, err := os.ReadFile(m.branchPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", vcerr.NotFound("no such branch: %s", name)
		}
		return "", fmt.Errorf("reading branch %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Exists reports whether a branch ref is present.
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.branchPath(name))
	return err == nil
}

// Create points a new branch at the current HEAD commit. With no
// commits yet the branch is created unborn.
func (m *Manager) Create(name string) error {
	if err := validBranchName(name); err != nil {
		return err
	}
	if m.Exists(name) {
		return vcerr.AlreadyExists("branch already exists: %s", name)
	}

	head, err := m.HeadCommit()
	if err != nil {
		return err
	}
	return m.write(m.branchPath(name), head)
}

// Update moves a branch pointer, creating the ref file when the branch
// is born by its first commit. This is the final step of any mutating
// command, so the write is atomic (temp file + rename).
func (m *Manager) Update(name, commit string) error {
	if err := validBranchName(name); err != nil {
		return err
	}
	return m.write(m.branchPath(name), commit)
}

// SetHEADCommit detaches HEAD at a specific commit.
func (m *Manager) SetHEADCommit(commit string) error {
	return m.write(filepath.Join(m.dir, headFile), commit)
}

// SetHEADBranch makes HEAD a symbolic ref to the named branch.
func (m *Manager) SetHEADBranch(name string) error {
	if err := validBranchName(name); err != nil {
		return err
	}
	return m.write(filepath.Join(m.dir, headFile), symrefPrefix+name)
}

// List returns all branches sorted by name with the current one flagged.
func (m *Manager) List() ([]Branch, error) {
	current, _, err := m.HEAD()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(m.dir, headsDir))
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}

	var branches []Branch
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		commit, err := m.Resolve(entry.Name())
		if err != nil {
			return nil, err
		}
		branches = append(branches, Branch{
			Name:    entry.Name(),
			Commit:  commit,
			Current: entry.Name() == current,
		})
	}

	sort.Slice(branches, func(i, j int) bool {
		return branches[i].Name < branches[j].Name
	})
	return branches, nil
}

func (m *Manager) write(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ref-*")
	if err != nil {
		return fmt.Errorf("creating temp ref: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing ref: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing ref: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing ref: %w", err)
	}
	return nil
}
