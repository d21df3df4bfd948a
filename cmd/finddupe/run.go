package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/thomas694/finddupe/internal/cache"
	"github.com/thomas694/finddupe/internal/capability"
	"github.com/thomas694/finddupe/internal/comparator"
	"github.com/thomas694/finddupe/internal/engine"
	"github.com/thomas694/finddupe/internal/index"
	"github.com/thomas694/finddupe/internal/pathexpand"
	"github.com/thomas694/finddupe/internal/policy"
	"github.com/thomas694/finddupe/internal/progress"
	"github.com/thomas694/finddupe/internal/script"
)

// runFindDupe wires the CLI's flags into an engine.Engine, expands
// every pattern through it, and prints the report the selected mode
// calls for.
func runFindDupe(groups []patternGroup, opts *options) error {
	if err := checkModeConflicts(opts); err != nil {
		return err
	}

	emitScript := opts.batchFile != ""

	mode := policy.Mode{
		PrintOnly: !opts.hardlink && !opts.del && !emitScript,
		// A bare -bat with neither -hardlink nor -del still emits the
		// hard-link command by default; only -del suppresses it.
		MakeHardLinks: opts.hardlink || (emitScript && !opts.del),
		Delete:        opts.del,
		EmitScript:    emitScript,
		DoReadOnly:    opts.rdonly,
	}

	plat := capability.New()

	if mode.MakeHardLinks || mode.Delete || emitScript {
		if err := checkCapability(plat, groups); err != nil {
			return err
		}
	}

	var scriptWriter *script.Writer
	if mode.EmitScript {
		f, err := os.Create(opts.batchFile)
		if err != nil {
			return fmt.Errorf("open batch file: %w", err)
		}
		defer f.Close()
		scriptWriter = script.New(f)
		defer scriptWriter.Close()
	}

	persistentCache, err := cache.Open(opts.cacheFile)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer persistentCache.Close()

	memo := cache.NewMemo(index.NewFullHashMemo(), persistentCache)

	eng := engine.New(engine.Config{
		Mode:           mode,
		SkipZeroLength: !opts.keepZero,
		ListOnly:       opts.listLink,
		IgnoreSubstrs:  opts.ignoreSubstrs,
		Platform:       plat,
		ScriptWriter:   scriptWriter,
		Memo:           memo,
	})

	bar := progress.New(!opts.noProgress, -1)

	matched := make([]bool, len(groups))
	var walkErr error

	for i, g := range groups {
		abs, err := filepath.Abs(g.Pattern)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", g.Pattern, err)
		}

		err = pathexpand.Expand(abs, opts.followReparse, func(path string) {
			if g.IsRef {
				eng.AddReferenceDirectory(filepath.Dir(path) + "/")
			}
			matched[i] = true

			report, obsErr := eng.Observe(path)
			if obsErr != nil {
				walkErr = obsErr
				return
			}
			printReport(report, opts)
			stats := eng.Stats()
			bar.Describe(stats)
		})
		if walkErr != nil {
			bar.Finish(eng.Stats())
			return fmt.Errorf("destructive operation failed: %w", walkErr)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", g.Pattern, err)
			continue
		}
		if !matched[i] {
			fmt.Fprintf(os.Stderr, "error: no files matched %q\n", g.Pattern)
		}
	}

	bar.Finish(eng.Stats())

	if opts.listLink {
		printGroups(eng.Groups())
		return nil
	}
	if opts.sigs || opts.verbose {
		printSignatures(eng.Records())
	}

	stats := eng.Stats()
	fmt.Printf("\n%d files examined, %d duplicates found (%s)\n",
		stats.TotalFiles+stats.DuplicateFiles, stats.DuplicateFiles, humanize.Bytes(stats.DuplicateBytes))

	return nil
}

// checkModeConflicts implements spec.md's ConfigConflict table:
// -listlink excludes every other action-changing flag.
func checkModeConflicts(opts *options) error {
	if opts.listLink && (opts.batchFile != "" || opts.hardlink || opts.del || opts.rdonly) {
		return fmt.Errorf("-listlink is not valid with -bat, -hardlink, -del or -rdonly")
	}
	return nil
}

// checkCapability rejects the run up front when a searched volume
// can't back a hard link: a non-NTFS-like filesystem or a network
// share. It probes once per distinct directory among the patterns.
func checkCapability(plat capability.Platform, groups []patternGroup) error {
	checked := make(map[string]bool)
	for _, g := range groups {
		abs, err := filepath.Abs(g.Pattern)
		if err != nil {
			continue
		}
		dir := filepath.Dir(abs)
		if checked[dir] {
			continue
		}
		checked[dir] = true

		ok, err := plat.SupportsHardlinks(dir)
		if err != nil {
			return fmt.Errorf("probe hard-link support for %s: %w", dir, err)
		}
		if !ok {
			return fmt.Errorf("%s does not support hard links (network share or non-NTFS-like volume)", dir)
		}
	}
	return nil
}

func printReport(r engine.Report, opts *options) {
	if r.Message != "" {
		if !(r.Unreadable && opts.hideUnread) {
			fmt.Fprintf(os.Stderr, "\r\033[K%s\n", r.Message)
		}
	}

	if !r.Duplicate || opts.sigs {
		return
	}
	if opts.skipLinked && r.Verdict == comparator.HardLinked {
		return
	}

	kind := "duplicate of"
	if r.Verdict == comparator.HardLinked {
		kind = "already hard-linked to"
	}
	fmt.Printf("%s\n  %s %s\n", r.Incoming.Path, kind, r.Survivor.Path)
}

func printSignatures(records []*index.Record) {
	for _, rec := range records {
		fmt.Printf("%08x:%08x  %10s  %s\n", rec.PrefixSig.CRC, rec.PrefixSig.Sum, humanize.Bytes(uint64(rec.Size)), rec.Path)
	}
}

func printGroups(groups []index.Group) {
	for _, g := range groups {
		fmt.Printf("Hardlink group, %d of %d hardlinked instances found in search tree\n", len(g.Paths), g.LinkCount)
		for _, p := range g.Paths {
			fmt.Printf("  %s\n", p)
		}
	}
}
