package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/thomas694/finddupe/internal/capability"
	"github.com/thomas694/finddupe/internal/index"
	"github.com/thomas694/finddupe/internal/pathexpand"
	"github.com/thomas694/finddupe/internal/policy"
	"github.com/thomas694/finddupe/internal/testfs"
)

func newTestEngine(mode policy.Mode) *Engine {
	return New(Config{
		Mode:           mode,
		SkipZeroLength: true,
		Platform:       capability.New(),
		Memo:           index.NewFullHashMemo(),
	})
}

func observeAll(t *testing.T, e *Engine, root string) {
	t.Helper()
	if err := pathexpand.Expand(root, false, func(path string) {
		if _, err := e.Observe(path); err != nil {
			t.Fatalf("Observe(%s): %v", path, err)
		}
	}); err != nil {
		t.Fatalf("Expand: %v", err)
	}
}

// S1 — byte-identical pair across distinct inodes.
func TestS1IdenticalPairBecomesHardlink(t *testing.T) {
	given := testfs.FileTree{Volumes: []testfs.Volume{{
		MountPoint: "/D",
		Files: []testfs.File{
			{Path: []string{"a"}, Chunks: []testfs.Chunk{{Pattern: 'X', Size: "1000"}}},
			{Path: []string{"b"}, Chunks: []testfs.Chunk{{Pattern: 'X', Size: "1000"}}},
		},
	}}}
	h := testfs.New(t, given)

	e := newTestEngine(policy.Mode{MakeHardLinks: true})
	observeAll(t, e, filepath.Join(h.Root(), "D"))

	stats := e.Stats()
	if stats.DuplicateFiles != 1 {
		t.Fatalf("DuplicateFiles = %d, want 1", stats.DuplicateFiles)
	}
	if stats.DuplicateBytes != 1000 {
		t.Fatalf("DuplicateBytes = %d, want 1000", stats.DuplicateBytes)
	}

	h.Assert(testfs.FileTree{Volumes: []testfs.Volume{{
		MountPoint: "/D",
		Files:      []testfs.File{{Path: []string{"a", "b"}}},
	}}})
}

// S2 — prefix-equal, full-file distinct: both remain unique.
func TestS2PrefixCollisionStaysDistinct(t *testing.T) {
	given := testfs.FileTree{Volumes: []testfs.Volume{{
		MountPoint: "/D",
		Files: []testfs.File{
			{Path: []string{"a"}, Chunks: []testfs.Chunk{
				{Pattern: 'X', Size: "40000B"}, {Pattern: 'A', Size: "10000B"},
			}},
			{Path: []string{"b"}, Chunks: []testfs.Chunk{
				{Pattern: 'X', Size: "40000B"}, {Pattern: 'B', Size: "10000B"},
			}},
		},
	}}}
	h := testfs.New(t, given)

	e := newTestEngine(policy.Mode{MakeHardLinks: true})
	observeAll(t, e, filepath.Join(h.Root(), "D"))

	if stats := e.Stats(); stats.DuplicateFiles != 0 {
		t.Fatalf("DuplicateFiles = %d, want 0 (prefix collision only)", stats.DuplicateFiles)
	}

	h.Assert(testfs.FileTree{Volumes: []testfs.Volume{{
		MountPoint: "/D",
		Files:      []testfs.File{{Path: []string{"a"}}, {Path: []string{"b"}}},
	}}})
}

// S3 — pre-existing hard link: no second action, no double increment.
func TestS3PreexistingHardlinkIsNoOp(t *testing.T) {
	given := testfs.FileTree{Volumes: []testfs.Volume{{
		MountPoint: "/D",
		Files: []testfs.File{
			{Path: []string{"a", "a_link"}, Chunks: []testfs.Chunk{{Pattern: 'X', Size: "500"}}},
		},
	}}}
	h := testfs.New(t, given)

	e := newTestEngine(policy.Mode{MakeHardLinks: true})
	observeAll(t, e, filepath.Join(h.Root(), "D"))

	stats := e.Stats()
	if stats.DuplicateFiles != 1 {
		t.Fatalf("DuplicateFiles = %d, want 1", stats.DuplicateFiles)
	}

	h.Assert(testfs.FileTree{Volumes: []testfs.Volume{{
		MountPoint: "/D",
		Files:      []testfs.File{{Path: []string{"a", "a_link"}}},
	}}})
}

// S4 — reference file is always the survivor, even if read-only.
func TestS4ReferenceFileIsNeverAVictim(t *testing.T) {
	given := testfs.FileTree{Volumes: []testfs.Volume{{
		MountPoint: "/D",
		Files: []testfs.File{
			{Path: []string{"refs/r"}, Chunks: []testfs.Chunk{{Pattern: 'X', Size: "300"}}},
			{Path: []string{"candidates/c"}, Chunks: []testfs.Chunk{{Pattern: 'X', Size: "300"}}},
		},
	}}}
	h := testfs.New(t, given)
	refDir := filepath.Join(h.Root(), "D", "refs")
	if err := os.Chmod(filepath.Join(refDir, "r"), 0o444); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	e := newTestEngine(policy.Mode{MakeHardLinks: true})
	e.AddReferenceDirectory(refDir + "/")

	observeAll(t, e, refDir)
	observeAll(t, e, filepath.Join(h.Root(), "D", "candidates"))

	if stats := e.Stats(); stats.DuplicateFiles != 1 {
		t.Fatalf("DuplicateFiles = %d, want 1", stats.DuplicateFiles)
	}

	h.Assert(testfs.FileTree{Volumes: []testfs.Volume{{
		MountPoint: "/D",
		Files:      []testfs.File{{Path: []string{"refs/r", "candidates/c"}}},
	}}})
}

// S6 — list-only hard-link enumeration groups by volume file id.
func TestS6ListOnlyGroupsByVolumeFileID(t *testing.T) {
	given := testfs.FileTree{Volumes: []testfs.Volume{{
		MountPoint: "/D",
		Files: []testfs.File{
			{Path: []string{"a", "b", "c"}, Chunks: []testfs.Chunk{{Pattern: 'X', Size: "300"}}},
			{Path: []string{"solo"}, Chunks: []testfs.Chunk{{Pattern: 'Y', Size: "300"}}},
		},
	}}}
	h := testfs.New(t, given)

	e := New(Config{
		Mode:           policy.Mode{PrintOnly: true},
		SkipZeroLength: true,
		ListOnly:       true,
		Platform:       capability.New(),
		Memo:           index.NewFullHashMemo(),
	})
	observeAll(t, e, filepath.Join(h.Root(), "D"))

	groups := e.Groups()
	if len(groups) != 1 {
		t.Fatalf("groups = %+v, want exactly one group", groups)
	}
	if len(groups[0].Paths) != 3 {
		t.Fatalf("group has %d paths, want 3", len(groups[0].Paths))
	}
	if groups[0].LinkCount != 3 {
		t.Fatalf("LinkCount = %d, want 3", groups[0].LinkCount)
	}
}
