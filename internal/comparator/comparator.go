// Package comparator decides, for two candidates that share a prefix
// signature, whether they are the same physical file, byte-identical
// distinct files, or merely a signature collision.
package comparator

import (
	"io"
	"os"

	"github.com/thomas694/finddupe/internal/capability"
	"github.com/thomas694/finddupe/internal/hasher"
	"github.com/thomas694/finddupe/internal/index"
)

// Memo caches a full-file signature per path, write-once. *index.FullHashMemo
// satisfies this directly; internal/cache layers a persistent store on top.
type Memo interface {
	Lookup(path string) (hasher.Signature, bool)
	Store(path string, sig hasher.Signature)
	// Track registers rec's identity so a later Lookup/Store for its
	// path can key a persistent cache entry. A purely in-memory memo
	// may implement this as a no-op.
	Track(rec *index.Record)
}

// Verdict is the outcome of comparing two records with equal prefix
// signatures.
type Verdict int

const (
	// Distinct means the two records are not the same content —
	// either a defensive size mismatch or a genuine hash mismatch
	// after a full-file comparison.
	Distinct Verdict = iota
	// HardLinked means the two records are already the same physical
	// file on the same volume.
	HardLinked
	// ContentEqual means the two records' full-file signatures match.
	ContentEqual
	// CapacityExhausted means the survivor has already reached the
	// platform hard-link ceiling; the incoming file is left untouched
	// and treated as unique.
	CapacityExhausted
)

// Comparator compares candidate pairs, memoizing full-file signatures
// so each file is read at most once per run regardless of how many
// comparison partners it has.
type Comparator struct {
	memo Memo
}

// New returns a Comparator backed by memo.
func New(memo Memo) *Comparator {
	return &Comparator{memo: memo}
}

// Compare decides the relationship between survivor (already indexed)
// and incoming (just probed), which are known to share a prefix
// signature.
//
// A read failure on either file while computing a full-file signature
// for the first time leaves the other file's memo entry untouched —
// reproducing the original implementation's behavior of not
// invalidating a cache already populated from a prior, independent
// comparison — and is reported as err, with Verdict meaningless.
func (c *Comparator) Compare(survivor, incoming *index.Record) (Verdict, error) {
	if survivor.Size != incoming.Size {
		// Defensive: should not occur within a size bucket.
		return Distinct, nil
	}

	if survivor.VolumeFileID == incoming.VolumeFileID && survivor.LinkCount > 0 {
		return HardLinked, nil
	}

	if survivor.LinkCount >= capability.HardlinkCapacity {
		return CapacityExhausted, nil
	}

	survivorSig, err := c.fullSignature(survivor)
	if err != nil {
		return Distinct, err
	}
	incomingSig, err := c.fullSignature(incoming)
	if err != nil {
		return Distinct, err
	}

	if survivorSig.Equal(incomingSig) {
		return ContentEqual, nil
	}
	return Distinct, nil
}

// fullSignature returns rec's full-file signature, computing and
// memoizing it on first use.
func (c *Comparator) fullSignature(rec *index.Record) (hasher.Signature, error) {
	if sig, ok := c.memo.Lookup(rec.Path); ok {
		return sig, nil
	}

	f, err := os.Open(rec.Path)
	if err != nil {
		return hasher.Signature{}, err
	}
	defer f.Close()

	sig, err := hasher.SumAll(io.Reader(f), rec.Size)
	if err != nil {
		return hasher.Signature{}, err
	}

	c.memo.Store(rec.Path, sig)
	return sig, nil
}
