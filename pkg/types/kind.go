package types

import (
	"fmt"
	"strings"
)

// FileKind is the declared category of a scanned file.
type FileKind string

const (
	KindText     FileKind = "text"
	KindBinary   FileKind = "binary"
	KindScript   FileKind = "script"
	KindDatabase FileKind = "database"
	KindConfig   FileKind = "config"

	// KindAuto asks the scanner to resolve one of the kinds above from the file itself.
	KindAuto FileKind = "auto"
)

// Kinds lists every accepted kind, auto included.
var Kinds = []FileKind{KindText, KindBinary, KindScript, KindDatabase, KindConfig, KindAuto}

// ParseFileKind parses a kind name case-insensitively.
func ParseFileKind(s string) (FileKind, error) {
	k := FileKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown file kind %q", s)
}

// LineOriented reports whether files of this kind are scanned line by line
// after grammar detection. Every other concrete kind is matched as one blob.
func (k FileKind) LineOriented() bool {
	return k == KindText
}

// String returns the kind name.
func (k FileKind) String() string {
	return string(k)
}
