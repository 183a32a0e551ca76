// Package classify resolves the kind of a file for auto-kind scans.
package classify

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/logsift/pkg/types"
	"github.com/src-d/enry/v2"
)

// HeadSize is how much of a file Classify looks at.
const HeadSize = 8 * 1024

var sqliteMagic = []byte("SQLite format 3\x00")

var (
	textExts = map[string]bool{
		".log": true, ".txt": true, ".out": true, ".err": true,
	}
	databaseExts = map[string]bool{
		".db": true, ".sqlite": true, ".sqlite3": true, ".mdb": true, ".accdb": true,
	}
	configExts = map[string]bool{
		".conf": true, ".cfg": true, ".cnf": true, ".ini": true, ".env": true,
		".properties": true, ".plist": true, ".reg": true,
	}
)

// Classify maps a file onto one of the concrete kinds using its name and
// leading bytes.
func Classify(path string, head []byte) types.FileKind {
	ext := strings.ToLower(filepath.Ext(path))
	base := filepath.Base(path)

	switch {
	case bytes.HasPrefix(head, sqliteMagic), databaseExts[ext]:
		return types.KindDatabase
	case enry.IsBinary(head):
		return types.KindBinary
	case textExts[ext]:
		return types.KindText
	case configExts[ext], enry.IsConfiguration(base):
		return types.KindConfig
	}

	lang := enry.GetLanguage(base, head)
	if lang == "" {
		return types.KindText
	}
	switch enry.GetLanguageType(lang) {
	case enry.Programming:
		return types.KindScript
	case enry.Data:
		return types.KindConfig
	}
	return types.KindText
}

// File reads the head of path and classifies it.
func File(path string) (types.FileKind, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrIO, err)
	}
	defer f.Close()

	head := make([]byte, HeadSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("%w: %w", types.ErrIO, err)
	}
	return Classify(path, head[:n]), nil
}
