package types

import "errors"

// Error categories. Concrete errors wrap one of these so callers can classify
// a failure with errors.Is without depending on the package that produced it.
var (
	// ErrConfig marks a missing or malformed grammar configuration.
	ErrConfig = errors.New("invalid configuration")

	// ErrCompile marks a rule source that could not be compiled.
	ErrCompile = errors.New("rule compilation failed")

	// ErrIO marks open, read or decode failures on a scanned file.
	ErrIO = errors.New("i/o failure")
)
