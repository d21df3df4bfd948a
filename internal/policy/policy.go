// Package policy implements the six-rule decision engine: given a
// confirmed duplicate relation between a survivor and an incoming
// file, it decides whether to skip, hard-link, delete, or emit a
// script command, and carries out that decision.
package policy

import (
	"fmt"

	"github.com/thomas694/finddupe/internal/capability"
	"github.com/thomas694/finddupe/internal/comparator"
	"github.com/thomas694/finddupe/internal/index"
	"github.com/thomas694/finddupe/internal/script"
)

// Mode selects which actions the engine performs. PrintOnly is
// non-exclusive with the others and is not consulted by Apply: it
// never gates an action by itself.
type Mode struct {
	PrintOnly     bool
	MakeHardLinks bool
	Delete        bool
	EmitScript    bool
	DoReadOnly    bool // act on read-only duplicates instead of skipping them
}

// Engine applies Mode's rules to a confirmed duplicate pair.
type Engine struct {
	Platform capability.Platform
	Script   *script.Writer
	Refs     *ReferenceDirectorySet
	Mode     Mode
}

// New returns a policy Engine.
func New(plat capability.Platform, w *script.Writer, refs *ReferenceDirectorySet, mode Mode) *Engine {
	return &Engine{Platform: plat, Script: w, Refs: refs, Mode: mode}
}

// Result reports what Apply did, for the driver's logging and fatal
// error handling.
type Result struct {
	// Message is a non-fatal, human-readable note (e.g. a skip
	// reason), or empty if there's nothing to report.
	Message string
	// Err is set for a DestructiveFailure: delete or hard-link
	// creation failed mid-run. The caller must treat this as fatal.
	Err error
}

// Apply decides and carries out the action for the pair (survivor,
// incoming) given their confirmed verdict, in rule order:
//
//  1. incoming under a reference directory: never destructive.
//  2. MakeHardLinks and already HardLinked: no-op.
//  3. EmitScript: record the equivalent commands instead of acting; the
//     read-only skip below does not apply here, since nothing on disk
//     is touched until the script itself is run.
//  4. incoming read-only, DoReadOnly off: skip the real action.
//  5. MakeHardLinks or Delete: perform the destructive action now.
//  6. On a successful link creation, increment survivor's link count.
func (e *Engine) Apply(survivor, incoming *index.Record, verdict comparator.Verdict) Result {
	if e.Refs.IsReference(incoming.Path) {
		return Result{}
	}

	if e.Mode.MakeHardLinks && verdict == comparator.HardLinked {
		return Result{}
	}

	if e.Mode.EmitScript {
		e.emit(survivor, incoming, verdict)
		return Result{}
	}

	if incoming.ReadOnly && !e.Mode.DoReadOnly && verdict != comparator.HardLinked {
		return Result{Message: fmt.Sprintf("skipping readonly duplicate: %s", incoming.Path)}
	}

	if e.Mode.MakeHardLinks || e.Mode.Delete {
		return e.execute(survivor, incoming, verdict)
	}

	return Result{}
}

func (e *Engine) emit(survivor, incoming *index.Record, verdict comparator.Verdict) {
	if e.Mode.Delete || verdict != comparator.HardLinked {
		e.Script.Delete(incoming.Path, incoming.ReadOnly)
	}
	if e.Mode.MakeHardLinks && verdict != comparator.HardLinked {
		e.Script.CreateHardlink(incoming.Path, survivor.Path)
		if incoming.ReadOnly {
			e.Script.RestoreReadOnly(incoming.Path)
		}
	}
	if e.Mode.Delete {
		e.Script.DuplicateOfComment(incoming.Path, survivor.Path)
	}
}

func (e *Engine) execute(survivor, incoming *index.Record, verdict comparator.Verdict) Result {
	if e.Mode.MakeHardLinks && survivor.Device != incoming.Device {
		return Result{Err: fmt.Errorf("cross-drive hard-link attempt: %s and %s are on different volumes", survivor.Path, incoming.Path)}
	}

	if incoming.ReadOnly {
		_ = e.Platform.SetReadOnly(incoming.Path, false) // best effort
	}

	if err := e.Platform.Remove(incoming.Path); err != nil {
		return Result{Err: fmt.Errorf("delete %s: %w", incoming.Path, err)}
	}

	if e.Mode.MakeHardLinks {
		if err := e.Platform.CreateHardlink(incoming.Path, survivor.Path); err != nil {
			return Result{Err: fmt.Errorf("hardlink %s onto %s: %w", incoming.Path, survivor.Path, err)}
		}
		if survivor.ReadOnly {
			_ = e.Platform.SetReadOnly(incoming.Path, true)
		}
		_ = e.Platform.SetModTime(incoming.Path, survivor.ModTime)
		survivor.LinkCount++
	}

	return Result{}
}
