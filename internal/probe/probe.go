// Package probe opens a candidate path, retrieves its identity and
// attributes, and computes its prefix signature.
package probe

import (
	"io"
	"os"

	"github.com/thomas694/finddupe/internal/capability"
	"github.com/thomas694/finddupe/internal/hasher"
	"github.com/thomas694/finddupe/internal/index"
)

// PrefixBytes is the amount of leading content hashed to form a
// prefix signature.
const PrefixBytes = 32 * 1024

// Outcome classifies how a probe concluded.
type Outcome int

const (
	// Accepted means Result.Record is populated and ready for the
	// candidate index.
	Accepted Outcome = iota
	// Unreadable means the path could not be opened or stat'd.
	Unreadable
	// SkipZero means the file is zero-length and zero-length files
	// are configured to be skipped.
	SkipZero
	// SkipNotLinked means list-only mode is active and the file has
	// no other hard links, so it cannot start or extend a group.
	SkipNotLinked
)

// Options configures probe behavior.
type Options struct {
	// SkipZeroLength enables the SkipZero outcome for empty files.
	SkipZeroLength bool
	// ListOnly switches to hard-link group enumeration: files with
	// LinkCount == 1 are skipped, and the prefix signature is
	// overridden with the volume file id so the index clusters by
	// physical identity instead of content.
	ListOnly bool
}

// Result is the outcome of probing one path.
type Result struct {
	Outcome Outcome
	Record  *index.Record
	Err     error
}

// Probe opens path, retrieves its identity via plat, and — unless
// short-circuited by a Skip outcome — reads up to PrefixBytes of
// content to compute the prefix signature.
func Probe(plat capability.Platform, path string, opts Options) Result {
	id, err := plat.Stat(path)
	if err != nil {
		return Result{Outcome: Unreadable, Err: err}
	}

	if id.Size == 0 && opts.SkipZeroLength {
		return Result{Outcome: SkipZero}
	}

	if opts.ListOnly && id.LinkCount == 1 {
		return Result{Outcome: SkipNotLinked}
	}

	sig, err := readPrefixSignature(path, id.Size)
	if err != nil {
		return Result{Outcome: Unreadable, Err: err}
	}

	if opts.ListOnly {
		sig = hasher.Signature{
			CRC: uint32(id.VolumeFileID >> 32),
			Sum: uint32(id.VolumeFileID),
		}
	}

	return Result{
		Outcome: Accepted,
		Record: &index.Record{
			Path:         path,
			Size:         id.Size,
			PrefixSig:    sig,
			VolumeFileID: id.VolumeFileID,
			Device:       id.Device,
			LinkCount:    id.LinkCount,
			ReadOnly:     id.ReadOnly,
			ModTime:      id.ModTime,
		},
	}
}

func readPrefixSignature(path string, size int64) (hasher.Signature, error) {
	f, err := os.Open(path)
	if err != nil {
		return hasher.Signature{}, err
	}
	defer f.Close()

	return hasher.SumPrefix(io.Reader(f), PrefixBytes, size)
}
