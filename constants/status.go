package constants

// FileStatus is the terminal outcome recorded for one file in a batch run.
type FileStatus string

// Stable values (these exact strings appear in reports and logs).
const (
	StatusProcessed        FileStatus = "PROCESSED"         // extracted and persisted
	StatusSkippedDuplicate FileStatus = "SKIPPED_DUPLICATE" // already in the registry
	StatusFailed           FileStatus = "FAILED"            // terminal per-file failure
)
