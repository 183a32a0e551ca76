package scan

import "fmt"

// Stage names the step of a file scan that failed.
type Stage string

const (
	StageCompile  Stage = "compile"
	StageClassify Stage = "classify"
	StageOpen     Stage = "open"
	StageRead     Stage = "read"
	StageMatch    Stage = "match"
)

// ScanError is a failure confined to one file's scan.
type ScanError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
