package logger

// Standard field names for consistent structured logging across cxxbind.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity
	FieldRunID     = "run_id"
	FieldComponent = "component"

	// Generation inputs
	FieldInterface = "interface"
	FieldHeader    = "header"
	FieldExport    = "export"
	FieldKind      = "kind"
	FieldModule    = "module"

	// Caching
	FieldCacheFile = "cache_file"
	FieldCacheHit  = "cache_hit"

	// Counts and sizes
	FieldCount        = "count"
	FieldImportCount  = "import_count"
	FieldDeclarations = "declarations"
	FieldTailBytes    = "tail_bytes"
	FieldRSSMB        = "rss_mb"

	// Timing
	FieldDurationMS = "duration_ms"

	// Process
	FieldCommand = "command"
	FieldState   = "state"
	FieldFile    = "file"
	FieldError   = "error"
)
