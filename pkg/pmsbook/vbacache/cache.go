// Package vbacache resolves named macro-source inputs to a compiled
// project binary through a persistent content-addressed store, so
// repeated builds reuse the blob instead of re-synthesizing it.
package vbacache

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/zeebo/blake3"
)

// Source is one named macro-source input. Content is opaque payload; the
// cache never parses it.
type Source struct {
	Name string
	Data []byte
}

// Synthesizer produces a project binary from source inputs. It is an
// external collaborator; the cache only calls it on a miss or when
// regeneration is forced.
type Synthesizer interface {
	Synthesize(sources []Source) ([]byte, error)
}

// ErrSynthesizerUnavailable indicates no synthesizer was configured.
var ErrSynthesizerUnavailable = errors.New("macro synthesizer unavailable")

// CacheError reports a resolution failure for a specific cache key.
type CacheError struct {
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("macro cache: key %s: %v", e.Key, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// Cache is a key→blob store rooted at a directory. Entries are immutable:
// they are only ever added, by atomic rename, so concurrent builds of the
// same key cannot corrupt the store.
type Cache struct {
	dir   string
	synth Synthesizer
}

// New returns a cache rooted at dir. synth may be nil, in which case only
// already-cached keys resolve.
func New(dir string, synth Synthesizer) *Cache {
	return &Cache{dir: dir, synth: synth}
}

// Key computes the content hash of the source set. Sources are folded in
// lexicographic name order with length framing, never in load order, so
// the key depends only on content.
func Key(sources []Source) string {
	sorted := make([]Source, len(sources))
	copy(sorted, sources)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h := blake3.New()
	var n [8]byte
	for _, s := range sorted {
		binary.LittleEndian.PutUint64(n[:], uint64(len(s.Name)))
		h.Write(n[:])
		h.Write([]byte(s.Name))
		binary.LittleEndian.PutUint64(n[:], uint64(len(s.Data)))
		h.Write(n[:])
		h.Write(s.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Resolve returns the project binary for the source set. With a cached
// entry and force false, the stored blob is returned unchanged and the
// synthesizer is not invoked. Otherwise the synthesizer runs and its
// output is stored under the key before being returned.
func (c *Cache) Resolve(sources []Source, force bool) ([]byte, error) {
	key := Key(sources)
	path := c.entryPath(key)

	if !force {
		if blob, err := os.ReadFile(path); err == nil {
			return blob, nil
		} else if !os.IsNotExist(err) {
			return nil, &CacheError{Key: key, Err: err}
		}
	}

	if c.synth == nil {
		return nil, &CacheError{Key: key, Err: ErrSynthesizerUnavailable}
	}
	blob, err := c.synth.Synthesize(sources)
	if err != nil {
		return nil, &CacheError{Key: key, Err: err}
	}
	if err := c.store(key, blob); err != nil {
		return nil, &CacheError{Key: key, Err: err}
	}
	return blob, nil
}

// entryPath fans entries out by the first two hex digits, git-style.
func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key[:2], key[2:]+".bin")
}

// store writes the blob to a temporary file and renames it into place.
// A concurrent writer of the same key lands an identical blob, so the
// last rename winning is harmless.
func (c *Cache) store(key string, blob []byte) error {
	dir := filepath.Dir(c.entryPath(key))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, c.entryPath(key)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
