package pathexpand

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExpandLiteralFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	mustWrite(t, file)

	var got []string
	if err := Expand(file, false, func(p string) { got = append(got, p) }); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 1 || got[0] != file {
		t.Fatalf("got %v, want [%s]", got, file)
	}
}

func TestExpandLiteralDirectoryWalksAllFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"))
	mustWrite(t, filepath.Join(dir, "sub", "b.txt"))

	var got []string
	if err := Expand(dir, false, func(p string) { got = append(got, p) }); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	sort.Strings(got)
	want := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "sub", "b.txt")}
	sort.Strings(want)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExpandSingleSegmentWildcard(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "x1.log"))
	mustWrite(t, filepath.Join(dir, "x2.log"))
	mustWrite(t, filepath.Join(dir, "other.txt"))

	var got []string
	pattern := filepath.Join(dir, "x*.log")
	if err := Expand(pattern, false, func(p string) { got = append(got, p) }); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %v, want 2 matches", got)
	}
}

func TestExpandDoubleStarAnyDepth(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "top.dat"))
	mustWrite(t, filepath.Join(dir, "a", "mid.dat"))
	mustWrite(t, filepath.Join(dir, "a", "b", "deep.dat"))
	mustWrite(t, filepath.Join(dir, "a", "b", "deep.txt"))

	var got []string
	pattern := filepath.Join(dir, "**", "*.dat")
	if err := Expand(pattern, false, func(p string) { got = append(got, p) }); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %v, want 3 .dat files at any depth", got)
	}
}

func TestExpandSkipsSymlinkedDirectoryByDefault(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	mustWrite(t, filepath.Join(real, "f.txt"))

	link := filepath.Join(dir, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	var got []string
	if err := Expand(dir, false, func(p string) { got = append(got, p) }); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	for _, p := range got {
		if filepath.Dir(p) == link {
			t.Fatalf("symlinked directory must not be descended into without followReparse, got %v", got)
		}
	}
}

func TestExpandFollowsSymlinkWhenRequested(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	mustWrite(t, filepath.Join(real, "f.txt"))

	link := filepath.Join(dir, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	var got []string
	if err := Expand(dir, true, func(p string) { got = append(got, p) }); err != nil {
		t.Fatalf("Expand: %v", err)
	}

	found := false
	for _, p := range got {
		if filepath.Dir(p) == link {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected to find a file under the followed symlink, got %v", got)
	}
}
