// Package engine is the driver: it threads each probed path through
// the candidate index, the comparator, and the policy engine, and
// maintains run statistics. It is the single Engine value the design
// notes call for, replacing the original implementation's process
// globals.
package engine

import (
	"fmt"
	"strings"

	"github.com/thomas694/finddupe/internal/capability"
	"github.com/thomas694/finddupe/internal/comparator"
	"github.com/thomas694/finddupe/internal/index"
	"github.com/thomas694/finddupe/internal/policy"
	"github.com/thomas694/finddupe/internal/probe"
	"github.com/thomas694/finddupe/internal/script"
)

// Config configures a run. It is the configuration record the design
// notes call for, replacing the original implementation's mode flags.
type Config struct {
	Mode           policy.Mode
	SkipZeroLength bool
	ListOnly       bool
	IgnoreSubstrs  []string // case-insensitive; matched against the full path
	Platform       capability.Platform
	ScriptWriter   *script.Writer // required iff Mode.EmitScript
	Memo           comparator.Memo
}

// Engine owns every piece of shared, mutable run state: the size
// index, the path set, the reference directory set, and the running
// statistics. It is mutated only by its own methods, single-threaded,
// matching the concurrency model's single-owner rule.
type Engine struct {
	cfg        Config
	sizeIndex  *index.SizeIndex
	pathSet    *index.PathSet
	refs       *policy.ReferenceDirectorySet
	comparator *comparator.Comparator
	policy     *policy.Engine
	probeOpts  probe.Options
	stats      RunStatistics
}

// New constructs an Engine ready to Observe paths.
func New(cfg Config) *Engine {
	refs := policy.NewReferenceDirectorySet()
	return &Engine{
		cfg:        cfg,
		sizeIndex:  index.NewSizeIndex(),
		pathSet:    index.NewPathSet(),
		refs:       refs,
		comparator: comparator.New(cfg.Memo),
		policy:     policy.New(cfg.Platform, cfg.ScriptWriter, refs, cfg.Mode),
		probeOpts: probe.Options{
			SkipZeroLength: cfg.SkipZeroLength,
			ListOnly:       cfg.ListOnly,
		},
		stats: RunStatistics{},
	}
}

// AddReferenceDirectory marks dirPrefix (a path ending in "/") as a
// reference directory: files under it are eligible only as survivors.
func (e *Engine) AddReferenceDirectory(dirPrefix string) {
	e.refs.Add(dirPrefix)
}

// Stats returns a snapshot of the run's statistics so far.
func (e *Engine) Stats() RunStatistics {
	return e.stats
}

// Groups returns the hard-link groups discovered so far. It is only
// meaningful after all paths have been observed in list-only mode.
func (e *Engine) Groups() []index.Group {
	return index.WalkGroups(e.sizeIndex)
}

// Report summarizes the outcome of a single Observe call for the
// caller's reporting layer: a note to surface, and, when a duplicate
// was confirmed, the pair and verdict behind it.
type Report struct {
	// Message is a non-fatal, human-readable note (a skip reason, a
	// read warning, or a policy note), or empty.
	Message string
	// Unreadable is set when Message reports an Unreadable outcome,
	// so the caller can apply its own "-u" suppression independently
	// of other notes.
	Unreadable bool
	// Duplicate is set when this path was judged a duplicate of
	// Survivor this call.
	Duplicate bool
	Survivor  *index.Record
	Incoming  *index.Record
	Verdict   comparator.Verdict
}

// Observe processes one path from the external glob callback: probe,
// candidate-index lookup, and — on a size/signature match — comparator
// and policy. It returns a Report describing what happened, and a
// fatal error that must abort the run (DestructiveFailure).
func (e *Engine) Observe(path string) (Report, error) {
	if e.pathSet.AlreadySeen(path) {
		return Report{}, nil
	}
	e.pathSet.Add(path)

	result := probe.Probe(e.cfg.Platform, path, e.probeOpts)
	switch result.Outcome {
	case probe.Unreadable:
		e.stats.Unreadable++
		return Report{Message: fmt.Sprintf("unreadable: %s: %v", path, result.Err), Unreadable: true}, nil
	case probe.SkipZero:
		e.stats.ZeroLengthSkipped++
		return Report{}, nil
	case probe.SkipNotLinked:
		return Report{}, nil
	}

	rec := result.Record
	e.cfg.Memo.Track(rec)

	if e.isIgnored(path) {
		e.stats.IgnoredFiles++
		e.sizeIndex.InsertOrCompare(rec, func(*index.Record) {})
		return Report{}, nil
	}

	confirmed := false
	var fatalErr error
	var report Report

	e.sizeIndex.InsertOrCompare(rec, func(existing *index.Record) {
		if confirmed || fatalErr != nil {
			return
		}

		verdict, cmpErr := e.comparator.Compare(existing, rec)
		if cmpErr != nil {
			report.Message = fmt.Sprintf("unreadable during comparison: %v", cmpErr)
			return
		}

		switch verdict {
		case comparator.HardLinked, comparator.ContentEqual:
			confirmed = true
			applied := e.policy.Apply(existing, rec, verdict)
			if applied.Err != nil {
				fatalErr = applied.Err
				return
			}
			report.Duplicate = true
			report.Survivor = existing
			report.Incoming = rec
			report.Verdict = verdict
			if applied.Message != "" {
				report.Message = applied.Message
			}
		case comparator.CapacityExhausted:
			// Treated as unique: left untouched, no further action.
		case comparator.Distinct:
			// Not a match against this chain member; keep walking.
		}
	})

	if fatalErr != nil {
		return report, fatalErr
	}

	if confirmed {
		e.stats.DuplicateFiles++
		e.stats.DuplicateBytes += uint64(rec.Size)
	} else {
		e.stats.TotalFiles++
	}

	return report, nil
}

// Records returns every accepted record in the index, in an
// unspecified but stable-for-the-run order, for the "-sigs" printer.
func (e *Engine) Records() []*index.Record {
	return index.WalkAll(e.sizeIndex)
}

// isIgnored reports whether path contains any configured ignore
// substring, case-insensitively.
func (e *Engine) isIgnored(path string) bool {
	lower := strings.ToLower(path)
	for _, substr := range e.cfg.IgnoreSubstrs {
		if strings.Contains(lower, strings.ToLower(substr)) {
			return true
		}
	}
	return false
}
