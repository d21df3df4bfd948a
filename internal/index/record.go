// Package index implements the candidate index: a mapping from file
// size to a per-size binary search tree of FileRecords keyed on prefix
// signature, the PathSet that suppresses re-processing duplicate path
// emissions, and the FullHashMemo that memoizes full-file signatures.
package index

import (
	"time"

	"github.com/thomas694/finddupe/internal/hasher"
)

// Record is one FileRecord: a unique path accepted into the index.
// Records are allocated once and live for the lifetime of the run;
// only LinkCount, Smaller and Larger are ever mutated after insertion.
type Record struct {
	Path         string
	Size         int64
	PrefixSig    hasher.Signature
	VolumeFileID uint64
	Device       uint64 // volume the path resides on; differs across a cross-drive hard-link attempt
	LinkCount    uint32
	ReadOnly     bool
	ModTime      time.Time

	Smaller *Record
	Larger  *Record
}

// PathHash returns the 64-bit CRC+sum signature of the record's raw
// path bytes, the key used by PathSet and FullHashMemo.
func PathHash(path string) hasher.Signature {
	return hasher.SumBytes([]byte(path))
}
