// Package script emits a Windows batch file that replays the policy
// engine's hard-link and delete decisions offline, instead of
// performing them immediately.
package script

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// Writer accumulates batch-file lines and flushes them on Close.
type Writer struct {
	w       *bufio.Writer
	closer  io.Closer
	started bool
}

// utf8BOM marks the script as UTF-8 so cmd.exe renders non-ASCII
// paths correctly regardless of the console's active code page.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// New wraps w as a script Writer. The caller is responsible for
// opening the underlying file; Close flushes but does not close it
// unless w also implements io.Closer.
func New(w io.Writer) *Writer {
	_, _ = w.Write(utf8BOM)
	sw := &Writer{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		sw.closer = c
	}
	return sw
}

// writePreamble emits the @echo off banner, header comments, and the
// code-page switch to UTF-8, once, before the first command.
func (s *Writer) writePreamble() {
	if s.started {
		return
	}
	s.started = true
	fmt.Fprintln(s.w, "@echo off")
	fmt.Fprintf(s.w, "REM finddupe deduplication script generated %s\n", scriptTimestamp())
	fmt.Fprintln(s.w, "REM review before running - this script deletes and hard-links files")
	fmt.Fprintln(s.w, "chcp 65001 >nul")
}

// scriptTimestamp returns the header's UTC timestamp. It is a
// package-level variable so tests can replace it for determinism.
var scriptTimestamp = func() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Delete emits a delete command for path. force adds the /F flag,
// required for read-only targets.
func (s *Writer) Delete(path string, force bool) {
	s.writePreamble()
	flag := ""
	if force {
		flag = "/F "
	}
	fmt.Fprintf(s.w, "del %s\"%s\"\n", flag, escape(path))
}

// CreateHardlink emits a command linking newPath onto existingPath.
func (s *Writer) CreateHardlink(newPath, existingPath string) {
	s.writePreamble()
	fmt.Fprintf(s.w, "fsutil hardlink create \"%s\" \"%s\"\n", escape(newPath), escape(existingPath))
}

// RestoreReadOnly emits a command re-applying the read-only attribute
// to path.
func (s *Writer) RestoreReadOnly(path string) {
	s.writePreamble()
	fmt.Fprintf(s.w, "attrib +r \"%s\"\n", escape(path))
}

// DuplicateOfComment emits an informational comment recording that
// path was judged a duplicate of survivor.
func (s *Writer) DuplicateOfComment(path, survivor string) {
	s.writePreamble()
	fmt.Fprintf(s.w, "rem duplicate of \"%s\"\n", escape(survivor))
}

// Close flushes buffered output and closes the underlying writer, if
// it supports closing.
func (s *Writer) Close() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// escape doubles percent signs, which batch files treat as variable
// expansion markers.
func escape(name string) string {
	return strings.ReplaceAll(name, "%", "%%")
}
