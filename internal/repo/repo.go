// Package repo implements the repository controller: it owns the
// on-disk repository directory and routes every command through the
// content store, staging index, commit graph, and ref manager.
package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"grit/internal/config"
	"grit/internal/history"
	"grit/internal/index"
	"grit/internal/object"
	"grit/internal/refs"
	"grit/internal/store"
	"grit/internal/vcerr"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const (
	GritDirName = ".grit"
	objectsDir  = "objects"
	dbDir       = "db"
	indexFile   = "index"
	configFile  = "config"
)

// Repository is the explicit context object every operation runs
// against. One instance corresponds to one opened repository directory.
type Repository struct {
	Root    string
	gritDir string

	db     *badger.DB
	store  *store.Store
	index  *index.Index
	refs   *refs.Manager
	graph  *history.Graph
	config *config.Config
	logger *zap.Logger
}

// FindRoot walks upward from startDir looking for a repository
// directory.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, GritDirName)); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", vcerr.NotFound("not a grit repository (or any parent up to /)")
		}
		dir = parent
	}
}

// Init creates an empty repository at root and opens it. Fails with
// AlreadyExists when a repository is already present.
func Init(root string, logger *zap.Logger) (*Repository, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	gritDir := filepath.Join(absRoot, GritDirName)
	if _, err := os.Stat(gritDir); err == nil {
		return nil, vcerr.AlreadyExists("repository already exists at %s", absRoot)
	}

	for _, dir := range []string{
		gritDir,
		filepath.Join(gritDir, objectsDir),
		filepath.Join(gritDir, dbDir),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	if err := refs.NewManager(gritDir).Init(); err != nil {
		return nil, err
	}
	if err := config.Default().Save(filepath.Join(gritDir, configFile)); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	return Open(absRoot, logger)
}

// Open opens the repository containing root (searching upward).
func Open(root string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	absRoot, err := FindRoot(root)
	if err != nil {
		return nil, err
	}
	gritDir := filepath.Join(absRoot, GritDirName)

	cfg, err := config.Load(filepath.Join(gritDir, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			cfg = config.Default()
		} else {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	opts := badger.DefaultOptions(filepath.Join(gritDir, dbDir))
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening metadata database: %w", err)
	}

	objStore, err := store.New(db, store.Options{
		Root:      filepath.Join(gritDir, objectsDir),
		CacheSize: 512,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	ix, err := index.Load(filepath.Join(gritDir, indexFile))
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{
		Root:    absRoot,
		gritDir: gritDir,
		db:      db,
		store:   objStore,
		index:   ix,
		refs:    refs.NewManager(gritDir),
		graph:   history.NewGraph(objStore),
		config:  cfg,
		logger:  logger,
	}, nil
}

// Close releases the metadata database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Config returns the loaded repository configuration.
func (r *Repository) Config() *config.Config {
	return r.config
}

// relPath normalizes a user-supplied path to a slash-separated path
// relative to the repository root and validates it.
func (r *Repository) relPath(path string) (string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.Root, path)
	}
	rel, err := filepath.Rel(r.Root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", vcerr.InvalidPath("path escapes repository root: %s", path)
	}
	rel = filepath.ToSlash(rel)
	if err := object.ValidatePath(rel); err != nil {
		return "", err
	}
	return rel, nil
}

// Add stages the current content of each path. A path of "." stages
// every non-ignored file under the root. Returns the staged paths.
func (r *Repository) Add(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, path := range paths {
		if path == "." {
			all, err := r.walkWorktree()
			if err != nil {
				return nil, err
			}
			for _, rel := range all {
				if !seen[rel] {
					seen[rel] = true
					files = append(files, rel)
				}
			}
			continue
		}

		rel, err := r.relPath(path)
		if err != nil {
			return nil, err
		}

		abs := filepath.Join(r.Root, filepath.FromSlash(rel))
		info, err := os.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, vcerr.NotFound("pathspec %s did not match any files", path)
			}
			return nil, fmt.Errorf("checking %s: %w", path, err)
		}

		if info.IsDir() {
			err := filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				sub, rerr := r.relPath(p)
				if rerr != nil {
					return rerr
				}
				if r.shouldIgnore(sub) {
					if d.IsDir() {
						return fs.SkipDir
					}
					return nil
				}
				if !d.IsDir() && !seen[sub] {
					seen[sub] = true
					files = append(files, sub)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walking %s: %w", path, err)
			}
			continue
		}

		if !seen[rel] {
			seen[rel] = true
			files = append(files, rel)
		}
	}

	sort.Strings(files)
	for _, rel := range files {
		if err := r.stageFile(rel); err != nil {
			return nil, err
		}
	}

	r.logger.Debug("staged files", zap.Int("count", len(files)))
	return files, nil
}

func (r *Repository) stageFile(rel string) error {
	abs := filepath.Join(r.Root, filepath.FromSlash(rel))

	content, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return vcerr.NotFound("pathspec %s did not match any files", rel)
		}
		return fmt.Errorf("reading %s: %w", rel, err)
	}

	hash, err := object.PutBlob(r.store, content)
	if err != nil {
		return fmt.Errorf("storing blob for %s: %w", rel, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("checking %s: %w", rel, err)
	}

	return r.index.Stage(index.Entry{
		Path:    rel,
		Hash:    hash,
		Mode:    int(info.Mode().Perm()),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
}

// headTree flattens the tree of the current HEAD commit. An unborn
// branch yields an empty mapping.
func (r *Repository) headTree() (map[string]string, error) {
	head, err := r.refs.HeadCommit()
	if err != nil {
		return nil, err
	}
	if head == "" {
		return map[string]string{}, nil
	}
	commit, err := r.graph.Get(head)
	if err != nil {
		return nil, err
	}
	return object.FlattenTree(r.store, commit.TreeHash)
}

// stagedTree is the HEAD tree overlaid with the index: the tree the
// next commit would snapshot.
func (r *Repository) stagedTree() (map[string]string, error) {
	tree, err := r.headTree()
	if err != nil {
		return nil, err
	}
	for path, entry := range r.index.Entries() {
		tree[path] = entry.Hash
	}
	return tree, nil
}

// Commit snapshots the staged tree into a new commit and advances the
// current branch. The ref update is the last write before the index is
// cleared, so an interruption never leaves a dangling pointer.
func (r *Repository) Commit(message string) (*object.Commit, error) {
	if r.index.Len() == 0 {
		return nil, vcerr.NothingStaged("nothing staged for commit")
	}

	tree, err := r.stagedTree()
	if err != nil {
		return nil, err
	}
	treeHash, err := object.BuildTree(r.store, tree)
	if err != nil {
		return nil, fmt.Errorf("building tree: %w", err)
	}

	parent, err := r.refs.HeadCommit()
	if err != nil {
		return nil, err
	}

	commit, err := r.graph.CreateCommit(treeHash, message, r.config.Author(), parent, time.Now())
	if err != nil {
		return nil, err
	}

	branch, _, err := r.refs.HEAD()
	if err != nil {
		return nil, err
	}
	if branch != "" {
		err = r.refs.Update(branch, commit.Hash)
	} else {
		err = r.refs.SetHEADCommit(commit.Hash)
	}
	if err != nil {
		return nil, fmt.Errorf("advancing branch: %w", err)
	}

	if err := r.index.Clear(); err != nil {
		return nil, fmt.Errorf("clearing index: %w", err)
	}

	r.logger.Info("created commit",
		zap.String("hash", commit.Hash),
		zap.String("branch", branch))
	return commit, nil
}

// Log returns a walker over the commit chain from HEAD to the root.
func (r *Repository) Log() (*history.Walker, error) {
	head, err := r.refs.HeadCommit()
	if err != nil {
		return nil, err
	}
	if head == "" {
		return nil, vcerr.EmptyRepository("no commits yet")
	}
	return r.graph.Walk(head), nil
}

// CreateBranch points a new branch at the current HEAD commit.
func (r *Repository) CreateBranch(name string) error {
	return r.refs.Create(name)
}

// Branches lists all branches with the current one flagged.
func (r *Repository) Branches() ([]refs.Branch, error) {
	return r.refs.List()
}

// CurrentBranch returns the checked-out branch name, or "" if detached.
func (r *Repository) CurrentBranch() (string, error) {
	branch, _, err := r.refs.HEAD()
	return branch, err
}
