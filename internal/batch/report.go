package batch

import (
	"time"

	"github.com/gemtrack/bid-tracker/constants"
)

// FileResult is the terminal outcome for one discovered file. It replaces
// exception-driven control flow: every file ends up as exactly one tagged
// result, and a failure never propagates past its own file.
type FileResult struct {
	Path      string
	Status    constants.FileStatus
	BidNumber string
	Reason    string
}

// Report accounts for every discovered file of one batch run:
// Discovered == Processed + Skipped + Failed.
type Report struct {
	Results    []FileResult
	Discovered int
	Processed  int
	Skipped    int
	Failed     int
	Elapsed    time.Duration
}

func (r *Report) add(res FileResult) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case constants.StatusProcessed:
		r.Processed++
	case constants.StatusSkippedDuplicate:
		r.Skipped++
	case constants.StatusFailed:
		r.Failed++
	}
}
