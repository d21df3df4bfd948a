// Command finddupe scans one or more directory trees for byte-identical
// duplicate files and, depending on the selected mode, reports them,
// replaces them with hard links, deletes them, or emits a deferred
// batch script that does so later.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "finddupe: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := newOptions()

	cmd := &cobra.Command{
		Use:     "finddupe [options] <pattern>... [--ref <pattern>]...",
		Short:   "Find and hard-link duplicate files",
		Version: version + " (" + commit + ")",
		Long: `Scans one or more glob patterns (which may contain '*', '?' or a
"**" any-depth segment) for byte-identical duplicate files.

By default finddupe only reports duplicates. --hardlink replaces them
with hard links, --del removes them outright, and --bat writes a batch
script that does either later instead of acting immediately.

A pattern may be marked as a reference with --ref: files matched by a
reference pattern are eligible as survivors but are never themselves
deleted or replaced. Every --ref must come after all non-reference
patterns on the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 && len(opts.refPatterns) == 0 {
				return fmt.Errorf("no files to process")
			}
			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			return runFindDupe(patternArgs(args, opts), opts)
		},
	}

	bindFlags(cmd, opts)

	if err := validateArgOrder(os.Args[1:]); err != nil {
		// Recorded so RunE's Args/RunE never run against a malformed
		// command line; cobra has no hook earlier than this.
		cmd.RunE = func(*cobra.Command, []string) error { return err }
		cmd.Args = cobra.ArbitraryArgs
	}

	return cmd
}
