// Package cache implements the Build Cache of spec §4 (C8): a directory
// of previously built binaries keyed by a hash of the absolute source
// path, with the source's modification time and the Zig version recorded
// beside each entry, so an unchanged source file's build is skipped. Grounded on the teacher's sync.RWMutex-guarded in-memory cache
// map idiom in internal/module/loader.go, backed here by the filesystem
// since a build cache must outlive a single process.
package cache

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sunholo/boxc/internal/errors"
)

// Entry is one cache record: the compiled binary's path plus the
// staleness fingerprint it was built from.
type Entry struct {
	BinaryPath string
	SourceHash uint64
	ModTime    time.Time
	ZigVersion string
}

// Cache is a directory-backed store of Entry values, keyed by an FNV
// hash of the absolute source path.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// New returns a Cache rooted at dir, creating it if necessary.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(errors.CACHE001, "cache", fmt.Sprintf("create cache dir: %s", err), nil).Wrap()
	}
	return &Cache{dir: dir}, nil
}

// Key computes the cache key for a source file: the FNV-1a hash of its
// absolute path. Using the path rather than its content lets a lookup
// happen before the (possibly large) file is read at all.
func Key(absPath string) string {
	h := fnv.New64a()
	h.Write([]byte(absPath))
	return fmt.Sprintf("%016x", h.Sum64())
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".bin")
}

// Lookup returns the cached Entry for sourcePath if one exists and is not
// stale: stale means the source's current mtime or the installed Zig
// version differ from what the entry was built against (spec §4's
// "cache is invalidated by source mtime or toolchain version change").
func (c *Cache) Lookup(sourcePath, zigVersion string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, false
	}
	key := Key(abs)
	binPath := c.entryPath(key)

	info, err := os.Stat(binPath)
	if err != nil {
		return nil, false
	}
	srcInfo, err := os.Stat(abs)
	if err != nil {
		return nil, false
	}

	meta, ok := readMeta(c.dir, key)
	if !ok {
		return nil, false
	}
	if !meta.ModTime.Equal(srcInfo.ModTime()) || meta.ZigVersion != zigVersion {
		return nil, false
	}
	_ = info
	return &Entry{BinaryPath: binPath, SourceHash: meta.SourceHash, ModTime: meta.ModTime, ZigVersion: meta.ZigVersion}, true
}

// Store records a freshly built binary at binaryPath under sourcePath's
// key, copying it into the cache directory.
func (c *Cache) Store(sourcePath, binaryPath, zigVersion string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	srcInfo, err := os.Stat(abs)
	if err != nil {
		return nil, errors.New(errors.CACHE002, "cache", fmt.Sprintf("stat source: %s", err), nil).Wrap()
	}

	key := Key(abs)
	dest := c.entryPath(key)
	data, err := os.ReadFile(binaryPath)
	if err != nil {
		return nil, errors.New(errors.CACHE001, "cache", fmt.Sprintf("read built binary: %s", err), nil).Wrap()
	}
	if err := os.WriteFile(dest, data, 0o755); err != nil {
		return nil, errors.New(errors.CACHE001, "cache", fmt.Sprintf("write cache entry: %s", err), nil).Wrap()
	}

	h := fnv.New64a()
	h.Write([]byte(abs))
	entry := Entry{BinaryPath: dest, SourceHash: h.Sum64(), ModTime: srcInfo.ModTime(), ZigVersion: zigVersion}
	if err := writeMeta(c.dir, key, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Clean empties the cache directory (the `boxc cache clean` subcommand,
// SPEC_FULL.md §3's cache-invalidation escape hatch).
func (c *Cache) Clean() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return errors.New(errors.CACHE001, "cache", fmt.Sprintf("read cache dir: %s", err), nil).Wrap()
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return errors.New(errors.CACHE001, "cache", fmt.Sprintf("remove cache entry: %s", err), nil).Wrap()
		}
	}
	return nil
}
