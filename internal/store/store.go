// Package store implements the content-addressable object store. Object
// bytes live in fan-out files under the store root keyed by their sha256
// digest; per-object metadata lives in badger; a small LRU fronts reads.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidHash = errors.New("invalid object hash")
)

const metaPrefix = "object:"

// Meta records what the store knows about one object.
type Meta struct {
	Hash       string    `json:"hash"`
	Size       int64     `json:"size"`
	Compressed bool      `json:"compressed"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store provides deduplicated, content-addressed object storage.
type Store struct {
	root       string
	db         *badger.DB
	cache      *lru.Cache[string, []byte]
	compressor *compressor
}

// Options configures Store behavior.
type Options struct {
	Root      string // directory for object files
	CacheSize int    // number of objects to cache in memory
	// MinCompressSize is the smallest object the store compresses.
	// Zero means the default (1 KiB).
	MinCompressSize int
}

// New creates a store rooted at opts.Root, creating the directory if
// needed. The badger handle is owned by the caller.
func New(db *badger.DB, opts Options) (*Store, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("store root is required")
	}
	if err := os.MkdirAll(opts.Root, 0755); err != nil {
		return nil, fmt.Errorf("creating store root: %w", err)
	}

	if opts.CacheSize == 0 {
		opts.CacheSize = 512
	}
	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating object cache: %w", err)
	}

	comp, err := newCompressor(opts.MinCompressSize)
	if err != nil {
		return nil, fmt.Errorf("creating compressor: %w", err)
	}

	return &Store{
		root:       opts.Root,
		db:         db,
		cache:      cache,
		compressor: comp,
	}, nil
}

// HashBytes returns the sha256 hex digest used as object identity.
func HashBytes(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// Put persists content under its hash. Re-putting identical content is a
// metadata-only no-op; the returned hash is always the same.
func (s *Store) Put(content []byte) (string, error) {
	if content == nil {
		content = []byte{}
	}

	hash := HashBytes(content)

	exists, err := s.Exists(hash)
	if err != nil {
		return "", fmt.Errorf("checking existence: %w", err)
	}
	if exists {
		return hash, nil
	}

	stored, compressed := s.compressor.compress(content)

	path := s.objectPath(hash)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating object directory: %w", err)
	}
	if err := os.WriteFile(path, stored, 0644); err != nil {
		return "", fmt.Errorf("writing object file: %w", err)
	}

	meta := Meta{
		Hash:       hash,
		Size:       int64(len(content)),
		Compressed: compressed,
		CreatedAt:  time.Now(),
	}
	if err := s.putMeta(meta); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("storing object metadata: %w", err)
	}

	s.cache.Add(hash, content)
	return hash, nil
}

// Get retrieves object bytes by hash, or ErrNotFound.
func (s *Store) Get(hash string) ([]byte, error) {
	if !validHash(hash) {
		return nil, ErrInvalidHash
	}

	if content, ok := s.cache.Get(hash); ok {
		return content, nil
	}

	meta, err := s.getMeta(hash)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(s.objectPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading object file: %w", err)
	}

	if meta.Compressed {
		content, err = s.compressor.decompress(content)
		if err != nil {
			return nil, fmt.Errorf("decompressing object: %w", err)
		}
	}

	if HashBytes(content) != hash {
		return nil, fmt.Errorf("object %s: content hash mismatch", hash)
	}

	s.cache.Add(hash, content)
	return content, nil
}

// Exists reports whether an object is present.
func (s *Store) Exists(hash string) (bool, error) {
	if !validHash(hash) {
		return false, ErrInvalidHash
	}

	if s.cache.Contains(hash) {
		return true, nil
	}

	_, err := s.getMeta(hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) objectPath(hash string) string {
	return filepath.Join(s.root, hash[:2], hash[2:])
}

func validHash(hash string) bool {
	if len(hash) != 64 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

func (s *Store) putMeta(meta Meta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(metaPrefix+meta.Hash), data)
	})
}

func (s *Store) getMeta(hash string) (Meta, error) {
	var meta Meta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaPrefix + hash))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	return meta, err
}
