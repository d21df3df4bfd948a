package main

import "fmt"

// patternGroup is one glob pattern from the command line, tagged with
// whether it was introduced by -ref.
type patternGroup struct {
	Pattern string
	IsRef   bool
}

// patternArgs merges the plain positional patterns cobra collected
// with the -ref-tagged patterns pflag collected separately, since
// relative interleaving between the two groups carries no meaning
// once validateArgOrder has confirmed the command line is well formed:
// every pattern, ref or not, is expanded and observed independently.
func patternArgs(plain []string, opts *options) []patternGroup {
	groups := make([]patternGroup, 0, len(plain)+len(opts.refPatterns))
	for _, p := range plain {
		groups = append(groups, patternGroup{Pattern: p})
	}
	for _, p := range opts.refPatterns {
		groups = append(groups, patternGroup{Pattern: p, IsRef: true})
	}
	return groups
}

// flagsWithValue lists every registered flag that consumes the
// following argv token as its value, needed so validateArgOrder can
// walk raw argv without mistaking a flag's value for a pattern.
var flagsWithValue = map[string]bool{
	"-bat":         true,
	"--bat":        true,
	"-ign":         true,
	"--ign":        true,
	"-ref":         true,
	"--ref":        true,
	"-cache-file":  true,
	"--cache-file": true,
}

// validateArgOrder walks the raw, unparsed command-line arguments and
// enforces spec.md's CLI ordering rule: every -ref occurrence (and the
// single pattern it tags) must come after every plain, non-reference
// pattern. This mirrors original_source/finddupe.c's own pre-scan
// (which rejects a content flag appearing after the first -ref) but
// is strict about pattern order too, since pflag's own positional
// parsing discards interleaving between -ref and plain arguments.
func validateArgOrder(args []string) error {
	seenRef := false
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "-ref" || arg == "--ref" {
			seenRef = true
			i++ // skip the pattern -ref consumes
			continue
		}

		if flagsWithValue[arg] {
			i++ // skip this flag's value; it is never a pattern
			continue
		}

		if len(arg) > 0 && arg[0] == '-' {
			continue // a boolean flag
		}

		// A bare token here is a plain (non-reference) pattern.
		if seenRef {
			return fmt.Errorf("wrong order of options: -ref patterns must follow all non-ref patterns")
		}
	}
	return nil
}
