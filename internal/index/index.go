package index

import "github.com/thomas694/finddupe/internal/hasher"

// SizeIndex maps a file size to the root Record of that size's BST,
// keyed on prefix signature.
type SizeIndex struct {
	buckets map[int64]*Record
}

// NewSizeIndex returns an empty SizeIndex.
func NewSizeIndex() *SizeIndex {
	return &SizeIndex{buckets: make(map[int64]*Record)}
}

// Bucket returns the root Record of size's BST, or nil if no record of
// that size has been inserted yet.
func (idx *SizeIndex) Bucket(size int64) *Record {
	return idx.buckets[size]
}

// Buckets returns every size bucket's root. Iteration order is
// unspecified, matching the data model's "iteration order irrelevant"
// note — callers that need determinism sort the result themselves.
func (idx *SizeIndex) Buckets() []*Record {
	roots := make([]*Record, 0, len(idx.buckets))
	for _, root := range idx.buckets {
		roots = append(roots, root)
	}
	return roots
}

// InsertOrCompare inserts rec into its size bucket's BST.
//
// If the bucket is empty, rec becomes the root. Otherwise the tree is
// walked from the root: at each node, rec's PrefixSig is compared
// lexicographically against the node's. Unequal comparisons descend
// Smaller or Larger as usual. On an equal signature, onEqual(node) is
// called — the caller (the driver) runs the comparator and policy
// engine against the pair — and the walk then continues along Larger,
// re-checking equality at each successive chain member, until it
// reaches the first node whose signature is strictly larger (or the
// end of the chain). rec is always inserted there, regardless of what
// onEqual reported for any chain member: this keeps every record in
// the candidate pool for later comparisons, and keeps the equal-
// signature run contiguous along Larger, the property the hard-link
// group walker depends on.
func (idx *SizeIndex) InsertOrCompare(rec *Record, onEqual func(existing *Record)) {
	root, ok := idx.buckets[rec.Size]
	if !ok {
		idx.buckets[rec.Size] = rec
		return
	}

	node := root
	var chainTail *Record
	chaining := false

	for {
		if node.PrefixSig.Equal(rec.PrefixSig) {
			onEqual(node)
			chaining = true
			chainTail = node
			if node.Larger == nil {
				node.Larger = rec
				return
			}
			node = node.Larger
			continue
		}

		if chaining {
			// Sorted order guarantees node.PrefixSig is strictly
			// larger than rec's here; insert just before it.
			chainTail.Larger = rec
			rec.Larger = node
			return
		}

		if rec.PrefixSig.Less(node.PrefixSig) {
			if node.Smaller == nil {
				node.Smaller = rec
				return
			}
			node = node.Smaller
		} else {
			if node.Larger == nil {
				node.Larger = rec
				return
			}
			node = node.Larger
		}
	}
}

// PathSet suppresses re-processing a path the glob emits more than
// once. Membership is keyed on a 64-bit hash of the path's raw bytes,
// not the path string itself, per the data model.
type PathSet struct {
	seen map[uint64]struct{}
}

// NewPathSet returns an empty PathSet.
func NewPathSet() *PathSet {
	return &PathSet{seen: make(map[uint64]struct{})}
}

// AlreadySeen reports whether path has been observed before, and
// records it as seen either way is not implied — callers must call
// Add explicitly once the path is accepted into the index.
func (s *PathSet) AlreadySeen(path string) bool {
	_, ok := s.seen[sigKey(PathHash(path))]
	return ok
}

// Add records path as seen.
func (s *PathSet) Add(path string) {
	s.seen[sigKey(PathHash(path))] = struct{}{}
}

// FullHashMemo caches a full-file signature per path hash. It is
// write-once: once a key has a stored signature, Store is a no-op, and
// a partial read on a later comparison can never invalidate it.
type FullHashMemo struct {
	m map[uint64]hasher.Signature
}

// NewFullHashMemo returns an empty FullHashMemo.
func NewFullHashMemo() *FullHashMemo {
	return &FullHashMemo{m: make(map[uint64]hasher.Signature)}
}

// Lookup returns the cached full-file signature for path, if any.
func (m *FullHashMemo) Lookup(path string) (hasher.Signature, bool) {
	sig, ok := m.m[sigKey(PathHash(path))]
	return sig, ok
}

// Store records sig as path's full-file signature. A second Store call
// for the same path is a no-op: the memo never recomputes a cached
// value.
func (m *FullHashMemo) Store(path string, sig hasher.Signature) {
	key := sigKey(PathHash(path))
	if _, ok := m.m[key]; ok {
		return
	}
	m.m[key] = sig
}

// Track is a no-op: the in-memory memo keys purely on path and needs
// no extra identity bookkeeping. It exists to satisfy comparator.Memo.
func (m *FullHashMemo) Track(*Record) {}

func sigKey(sig hasher.Signature) uint64 {
	return uint64(sig.CRC)<<32 | uint64(sig.Sum)
}
