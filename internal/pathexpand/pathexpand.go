// Package pathexpand implements the recursive glob driver the engine
// consumes as its path source: wildcard and "**" (any-depth) pattern
// expansion, single-threaded, producing a callback-style stream of
// absolute file paths.
package pathexpand

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Expand resolves pattern (which must already be an absolute path,
// possibly containing '*', '?' or a "**" any-depth segment) and
// invokes onPath once per matching regular file, in sorted order
// within each directory. Directories are never passed to onPath.
//
// followReparse controls whether symlinked directories are descended
// into; a symlinked directory is otherwise skipped, mirroring the
// reparse-point check the original Windows walker performs before
// recursing.
func Expand(pattern string, followReparse bool, onPath func(path string)) error {
	pattern = strings.TrimSuffix(pattern, "/")
	if pattern == "" {
		pattern = "/"
	}

	if !hasWildcard(pattern) {
		info, err := os.Lstat(pattern)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return walkAllFiles(pattern, followReparse, onPath)
		}
		onPath(pattern)
		return nil
	}

	return recurse(pattern, followReparse, onPath)
}

func hasWildcard(s string) bool {
	return strings.ContainsAny(s, "*?")
}

// recurse finds the first pattern segment that actually contains a
// wildcard, lists the literal directory in front of it, and either
// matches that one segment (ordinary wildcard) or, for a "**"
// segment, both skips it (zero extra depth) and descends one real
// directory level at a time for every depth beyond that.
func recurse(pattern string, followReparse bool, onPath func(path string)) error {
	segments := strings.Split(pattern, "/")
	absolute := len(segments) > 0 && segments[0] == ""

	wi := -1
	for i, seg := range segments {
		if hasWildcard(seg) {
			wi = i
			break
		}
	}
	if wi == -1 {
		// No wildcard segment remains (can happen after a "**"
		// expansion step); treat the pattern as a literal path.
		info, err := os.Lstat(pattern)
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			onPath(pattern)
		}
		return nil
	}

	base := joinSegments(segments[:wi], absolute)
	seg := segments[wi]
	rest := segments[wi+1:]

	if seg == "**" {
		if len(rest) == 0 {
			return walkAllFiles(base, followReparse, onPath)
		}
		if err := recurse(joinSegments(append([]string{base}, rest...), false), followReparse, onPath); err != nil {
			return err
		}
		return forEachSubdir(base, followReparse, func(sub string) error {
			return recurse(joinSegments(append([]string{sub, "**"}, rest...), false), followReparse, onPath)
		})
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return err
	}
	wantDir := len(rest) > 0
	return forEachSorted(entries, func(name string) error {
		matched, err := filepath.Match(seg, name)
		if err != nil || !matched {
			return nil
		}
		full := base + "/" + name
		info, err := os.Lstat(full)
		if err != nil {
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			// Lstat never reports a link as a directory; check its target.
			if target, err := os.Stat(full); err == nil && target.IsDir() {
				if !followReparse {
					return nil
				}
				info = target
			}
		}
		if info.IsDir() != wantDir {
			return nil
		}
		if info.IsDir() {
			return recurse(joinSegments(append([]string{full}, rest...), false), followReparse, onPath)
		}
		onPath(full)
		return nil
	})
}

// walkAllFiles emits every regular file under dir, at any depth,
// sorted within each directory level.
func walkAllFiles(dir string, followReparse bool, onPath func(path string)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	return forEachSorted(entries, func(name string) error {
		full := dir + "/" + name
		info, err := os.Lstat(full)
		if err != nil {
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			if target, err := os.Stat(full); err == nil && target.IsDir() {
				if !followReparse {
					return nil
				}
				info = target
			}
		}
		if info.IsDir() {
			return walkAllFiles(full, followReparse, onPath)
		}
		onPath(full)
		return nil
	})
}

func forEachSubdir(dir string, followReparse bool, fn func(sub string) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	return forEachSorted(entries, func(name string) error {
		full := dir + "/" + name
		info, err := os.Lstat(full)
		if err != nil {
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			if !followReparse {
				return nil
			}
			if info, err = os.Stat(full); err != nil {
				return nil
			}
		}
		if !info.IsDir() {
			return nil
		}
		return fn(full)
	})
}

func forEachSorted(entries []os.DirEntry, fn func(name string) error) error {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)
	for _, name := range names {
		if err := fn(name); err != nil {
			return err
		}
	}
	return nil
}

func joinSegments(segments []string, absolute bool) string {
	joined := strings.Join(segments, "/")
	if joined == "" {
		if absolute {
			return "/"
		}
		return "."
	}
	return joined
}
