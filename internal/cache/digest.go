package cache

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/minio/sha256-simd"
)

// DigestCache memoizes file digests for files whose identity has not changed.
//
// A file's identity is its absolute path, size and modification time; any change
// to one of them produces a different key, so a stale digest is never returned for
// a file that was rewritten with a new mtime or size.
type DigestCache struct {
	store Cache
	ttl   time.Duration
}

// NewDigestCache creates a digest cache backed by memory
func NewDigestCache(ttl time.Duration) *DigestCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DigestCache{
		store: NewMemoryCache(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Lookup returns the memoized digest for the file, if any
func (c *DigestCache) Lookup(path string, info fs.FileInfo) (string, bool) {
	if c == nil {
		return "", false
	}
	val, ok := c.store.Get(FileKey(path, info))
	if !ok {
		return "", false
	}
	return string(val), true
}

// Remember stores the digest computed for the file
func (c *DigestCache) Remember(path string, info fs.FileInfo, digest string) {
	if c == nil {
		return
	}
	_ = c.store.Set(FileKey(path, info), []byte(digest), c.ttl)
}

// FileKey generates a cache key from a file's identity
func FileKey(path string, info fs.FileInfo) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	id := fmt.Sprintf("%s\x00%d\x00%d", path, info.Size(), info.ModTime().UnixNano())
	hash := sha256.Sum256([]byte(id))
	return "dyadt:digest:v1:" + hex.EncodeToString(hash[:])
}
