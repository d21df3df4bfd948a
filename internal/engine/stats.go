package engine

import "fmt"

// RunStatistics accumulates the counters the driver reports at the
// end of a run.
type RunStatistics struct {
	TotalFiles        uint64
	DuplicateFiles    uint64
	DuplicateBytes    uint64
	ZeroLengthSkipped uint64
	Unreadable        uint64
	IgnoredFiles      uint64
}

// String renders a compact progress-bar description, in the style the
// teacher's progress.Bar.Describe expects from a fmt.Stringer.
func (s RunStatistics) String() string {
	return fmt.Sprintf("%d files, %d duplicates (%d bytes)", s.TotalFiles, s.DuplicateFiles, s.DuplicateBytes)
}
