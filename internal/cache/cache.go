// Package cache provides an optional persistent cache of full-file
// signatures, layered in front of the run's in-memory FullHashMemo so
// a second run over an unchanged tree can skip re-reading file
// content it already hashed.
package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/thomas694/finddupe/internal/hasher"
	"github.com/thomas694/finddupe/internal/index"
)

const (
	bucketName = "signatures"
	sigSize    = 8 // crc(4) + sum(4)
	keyVersion = byte(1)
)

// Cache is a BoltDB-backed persistent cache of full-file signatures.
// It self-cleans: each run writes to a fresh database, and only
// entries looked up or stored during the run survive into it.
type Cache struct {
	readDB  *bolt.DB
	writeDB *bolt.DB
	path    string
	enabled bool
}

// Open opens the existing cache at path for reading (if any) and
// creates a new one for writing. Passing an empty path returns a
// disabled cache whose methods are no-ops.
func Open(path string) (*Cache, error) {
	if path == "" {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	c := &Cache{path: path, enabled: true}

	if _, err := os.Stat(path); err == nil {
		if db, err := bolt.Open(path, 0o600, &bolt.Options{ReadOnly: true, Timeout: time.Second}); err == nil {
			c.readDB = db
		}
	}

	newPath := path + ".new"
	writeDB, err := bolt.Open(newPath, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("create new cache (locked by another instance?): %w", err)
	}
	c.writeDB = writeDB

	if err := c.writeDB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// Close closes both databases and atomically replaces the old cache
// file with the new one, provided the new database closed cleanly.
func (c *Cache) Close() error {
	var firstErr error
	if c.readDB != nil {
		if err := c.readDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.writeDB != nil {
		if err := c.writeDB.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else if err := os.Rename(c.path+".new", c.path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// makeKey builds a deterministic key identifying one file's content at
// one point in time: its path, size, inode and modification time.
// Any change invalidates the cache entry automatically.
func makeKey(rec *index.Record) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(keyVersion)
	buf.WriteString(rec.Path)
	buf.WriteByte(0)
	_ = binary.Write(buf, binary.BigEndian, rec.Size)
	_ = binary.Write(buf, binary.BigEndian, rec.VolumeFileID)
	_ = binary.Write(buf, binary.BigEndian, rec.ModTime.UnixNano())
	return buf.Bytes()
}

// lookup retrieves rec's cached full-file signature, copying the hit
// into the write database so it survives into the next run.
func (c *Cache) lookup(rec *index.Record) (hasher.Signature, bool) {
	if !c.enabled || c.readDB == nil {
		return hasher.Signature{}, false
	}

	key := makeKey(rec)
	var data []byte
	_ = c.readDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		if v := b.Get(key); len(v) == sigSize {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if data == nil {
		return hasher.Signature{}, false
	}

	sig := hasher.Signature{
		CRC: binary.BigEndian.Uint32(data[0:4]),
		Sum: binary.BigEndian.Uint32(data[4:8]),
	}
	c.store(rec, sig)
	return sig, true
}

// store saves rec's full-file signature into the write database.
func (c *Cache) store(rec *index.Record, sig hasher.Signature) {
	if !c.enabled || c.writeDB == nil {
		return
	}
	data := make([]byte, sigSize)
	binary.BigEndian.PutUint32(data[0:4], sig.CRC)
	binary.BigEndian.PutUint32(data[4:8], sig.Sum)

	_ = c.writeDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		return b.Put(makeKey(rec), data)
	})
}

// Memo adapts Cache to the comparator.Memo interface, layering a
// persistent lookup behind the run's in-memory FullHashMemo: a memo
// miss falls through to the cache, and a memo store also persists to
// the cache.
type Memo struct {
	memo   *index.FullHashMemo
	cache  *Cache
	byPath map[string]*index.Record
}

// NewMemo wraps memo with cache. Since the cache keys on file
// identity, not just path, the caller registers each record via
// Track before it can be looked up or stored through this Memo.
func NewMemo(memo *index.FullHashMemo, cache *Cache) *Memo {
	return &Memo{memo: memo, cache: cache, byPath: make(map[string]*index.Record)}
}

// Track records the identity information needed to key a cache entry
// for rec.Path. Call this once per accepted record before running the
// comparator.
func (m *Memo) Track(rec *index.Record) {
	m.byPath[rec.Path] = rec
}

// Lookup implements comparator.Memo.
func (m *Memo) Lookup(path string) (hasher.Signature, bool) {
	if sig, ok := m.memo.Lookup(path); ok {
		return sig, true
	}
	rec, ok := m.byPath[path]
	if !ok {
		return hasher.Signature{}, false
	}
	sig, ok := m.cache.lookup(rec)
	if !ok {
		return hasher.Signature{}, false
	}
	m.memo.Store(path, sig)
	return sig, true
}

// Store implements comparator.Memo.
func (m *Memo) Store(path string, sig hasher.Signature) {
	m.memo.Store(path, sig)
	if rec, ok := m.byPath[path]; ok {
		m.cache.store(rec, sig)
	}
}
