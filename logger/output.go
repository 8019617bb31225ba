package logger

// OutputCategory defines a category of output that can be enabled/disabled.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults    OutputCategory = iota // "Module x generated", check results
	OutputErrors                           // Errors with hints
	OutputUserStatus                       // Final success/failure status

	// Level 1 (-v)
	OutputProgress // One line per processed interface/export
	OutputCache    // Cache hits, misses and created cache files

	// Level 2 (-vv)
	OutputTiming  // Per-header parse timing
	OutputConfig  // Config values loaded/applied
	OutputCommand // Front-end command lines

	// Level 3 (-vvv)
	OutputMemory // Resident memory after each released export

	// Level 4 (-vvvv)
	OutputDataDump // Tail aggregates, declaration dumps
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,

	OutputProgress: VerbosityInfo,
	OutputCache:    VerbosityInfo,

	OutputTiming:  VerbosityDebug,
	OutputConfig:  VerbosityDebug,
	OutputCommand: VerbosityDebug,

	OutputMemory: VerbosityTrace,

	OutputDataDump: VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		return false
	}
	return verbosity >= minLevel
}
