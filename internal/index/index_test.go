package index

import (
	"testing"

	"github.com/thomas694/finddupe/internal/hasher"
)

func rec(path string, size int64, sig hasher.Signature) *Record {
	return &Record{Path: path, Size: size, PrefixSig: sig}
}

func TestInsertOrCompareNewBucket(t *testing.T) {
	idx := NewSizeIndex()
	a := rec("/a", 10, hasher.Signature{CRC: 1, Sum: 1})

	called := false
	idx.InsertOrCompare(a, func(*Record) { called = true })

	if called {
		t.Fatal("onEqual must not fire for the first record in a size bucket")
	}
	if idx.Bucket(10) != a {
		t.Fatal("first record must become the bucket root")
	}
}

func TestInsertOrCompareDistinctSignaturesBothKept(t *testing.T) {
	idx := NewSizeIndex()
	a := rec("/a", 10, hasher.Signature{CRC: 1, Sum: 1})
	b := rec("/b", 10, hasher.Signature{CRC: 2, Sum: 1})

	idx.InsertOrCompare(a, func(*Record) {})
	calls := 0
	idx.InsertOrCompare(b, func(*Record) { calls++ })

	if calls != 0 {
		t.Fatalf("distinct prefix signatures must not trigger onEqual, got %d calls", calls)
	}

	groups := WalkGroups(idx)
	if len(groups) != 0 {
		t.Fatalf("no chain should form from distinct signatures, got %d groups", len(groups))
	}
	all := WalkAll(idx)
	if len(all) != 2 {
		t.Fatalf("both records must remain in the index, got %d", len(all))
	}
}

func TestInsertOrCompareEqualSignatureAlwaysInserted(t *testing.T) {
	idx := NewSizeIndex()
	sig := hasher.Signature{CRC: 9, Sum: 9}
	a := rec("/a", 10, sig)
	b := rec("/b", 10, sig)
	c := rec("/c", 10, sig)

	idx.InsertOrCompare(a, func(*Record) {})

	var seenB *Record
	idx.InsertOrCompare(b, func(existing *Record) { seenB = existing })
	if seenB != a {
		t.Fatalf("onEqual should observe a as the existing record, got %v", seenB)
	}

	var seenC []*Record
	idx.InsertOrCompare(c, func(existing *Record) { seenC = append(seenC, existing) })
	if len(seenC) != 2 {
		t.Fatalf("c must be compared against every prior chain member regardless of what onEqual reports, got %d", len(seenC))
	}

	groups := WalkGroups(idx)
	if len(groups) != 1 || len(groups[0].Paths) != 3 {
		t.Fatalf("expected one 3-member chain, got %+v", groups)
	}
}

func TestInsertOrCompareBSTOrdering(t *testing.T) {
	idx := NewSizeIndex()
	mid := rec("/mid", 10, hasher.Signature{CRC: 5, Sum: 0})
	lo := rec("/lo", 10, hasher.Signature{CRC: 1, Sum: 0})
	hi := rec("/hi", 10, hasher.Signature{CRC: 9, Sum: 0})

	idx.InsertOrCompare(mid, func(*Record) {})
	idx.InsertOrCompare(lo, func(*Record) {})
	idx.InsertOrCompare(hi, func(*Record) {})

	if idx.Bucket(10).Smaller != lo {
		t.Fatal("lesser signature must descend Smaller from the root")
	}
	if idx.Bucket(10).Larger != hi {
		t.Fatal("greater signature must descend Larger from the root")
	}
}

func TestPathSetSuppressesReprocessing(t *testing.T) {
	s := NewPathSet()
	if s.AlreadySeen("/a") {
		t.Fatal("empty set must not report any path as seen")
	}
	s.Add("/a")
	if !s.AlreadySeen("/a") {
		t.Fatal("path must be seen after Add")
	}
	if s.AlreadySeen("/b") {
		t.Fatal("unrelated path must not be seen")
	}
}

func TestFullHashMemoWriteOnce(t *testing.T) {
	m := NewFullHashMemo()
	first := hasher.Signature{CRC: 1, Sum: 2}
	second := hasher.Signature{CRC: 3, Sum: 4}

	m.Store("/a", first)
	m.Store("/a", second) // must be a no-op

	got, ok := m.Lookup("/a")
	if !ok || got != first {
		t.Fatalf("Lookup = %+v, %v; want %+v, true (write-once)", got, ok, first)
	}

	if _, ok := m.Lookup("/b"); ok {
		t.Fatal("Lookup of an unstored path must report false")
	}
}
