package main

import "github.com/spf13/cobra"

// options holds every CLI flag, bound directly to cobra/pflag storage.
type options struct {
	batchFile     string
	hardlink      bool
	del           bool
	verbose       bool
	sigs          bool
	rdonly        bool
	keepZero      bool // -z: do NOT skip zero-length files
	hideUnread    bool // -u
	skipLinked    bool // -sl
	noProgress    bool // -p
	followReparse bool // -j
	listLink      bool
	ignoreSubstrs []string
	refPatterns   []string
	cacheFile     string
}

func newOptions() *options {
	return &options{}
}

// bindFlags registers every flag from spec.md's CLI surface table.
// Long names intentionally match the original tool's flag names; this
// repo uses cobra/pflag's standard double-dash long-flag convention
// rather than the single-dash spelling the original C getopt loop used.
func bindFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.StringVar(&opts.batchFile, "bat", "", "emit a batch script instead of acting immediately")
	f.BoolVar(&opts.hardlink, "hardlink", false, "replace duplicates with hard links")
	f.BoolVar(&opts.del, "del", false, "delete duplicates instead of linking")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "print duplicates, signatures, and unreadable-file warnings")
	f.BoolVar(&opts.sigs, "sigs", false, "print per-file signatures instead of duplicate pairs")
	f.BoolVar(&opts.rdonly, "rdonly", false, "act on read-only files too")
	f.BoolVar(&opts.keepZero, "z", false, "do not skip zero-length files")
	f.BoolVar(&opts.hideUnread, "u", false, "suppress \"can't read\" warnings")
	f.BoolVar(&opts.skipLinked, "sl", false, "omit already hard-linked pairs from the report")
	f.BoolVar(&opts.noProgress, "p", false, "disable the progress indicator")
	f.BoolVar(&opts.followReparse, "j", false, "follow reparse points / symlinks while expanding patterns")
	f.BoolVar(&opts.listLink, "listlink", false, "list existing hard-link groups instead of searching for duplicates")
	f.StringArrayVar(&opts.ignoreSubstrs, "ign", nil, "ignore paths containing this substring (case-insensitive, repeatable)")
	f.StringArrayVar(&opts.refPatterns, "ref", nil, "mark the next pattern's matches as reference-only survivors (repeatable)")
	f.StringVar(&opts.cacheFile, "cache-file", "", "persistent full-file signature cache (bbolt), enables cross-run memoization")
}
