package types

import (
	"path/filepath"
	"time"
)

// Status is the terminal state of a single file scan.
type Status string

const (
	StatusSuccess Status = "success" // at least one record
	StatusFailure Status = "failure" // scan completed, zero records
	StatusError   Status = "error"   // scan aborted
)

// Outcome is the terminal result reported for one file in a batch.
// Exactly one Outcome exists per scanned file.
type Outcome struct {
	Path       string        `json:"path"`
	Status     Status        `json:"status"`
	Count      int           `json:"count"`
	Error      string        `json:"error,omitempty"`
	ReportPath string        `json:"report_path,omitempty"`
	Result     *ScanResult   `json:"result,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// NewOutcome derives the outcome of a finished scan.
func NewOutcome(path string, result *ScanResult, err error) *Outcome {
	o := &Outcome{Path: path, Result: result}
	switch {
	case err != nil:
		o.Status = StatusError
		o.Error = err.Error()
	case result.Empty():
		o.Status = StatusFailure
	default:
		o.Status = StatusSuccess
		o.Count = len(result.Records)
	}
	return o
}

// Name returns the base name the outcome is keyed by in status output.
func (o *Outcome) Name() string {
	return filepath.Base(o.Path)
}

// Run groups the outcomes of one CLI invocation.
type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Rules     string    `json:"rules"`
	Grammars  string    `json:"grammars"`
}
