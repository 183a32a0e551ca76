// Package report writes scan results to per-file report documents and
// prints per-file status lines.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/logsift/pkg/types"
)

// Emitter writes the report for one scanned file.
type Emitter interface {
	// Emit writes result and returns the report path. An empty result is
	// not an error: nothing is written and the path is "".
	Emit(result *types.ScanResult) (string, error)
}

// Format names a report document format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
)

// Formats lists the supported report formats.
var Formats = []Format{FormatCSV, FormatJSON, FormatSARIF}

// ParseFormat parses a format name. Empty selects CSV.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatCSV, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// NewEmitter returns the emitter for format writing into dir.
// An empty dir means the current working directory.
func NewEmitter(format Format, dir string) (Emitter, error) {
	switch format {
	case FormatCSV, "":
		return &CSVEmitter{Dir: dir}, nil
	case FormatJSON:
		return &JSONEmitter{Dir: dir}, nil
	case FormatSARIF:
		return &SARIFEmitter{Dir: dir}, nil
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}

// Path returns the report path for a scanned file: the file's base name
// without extension, suffixed with "_report" and ext, placed in dir.
func Path(dir, scanned, ext string) string {
	base := filepath.Base(scanned)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(dir, stem+"_report"+ext)
}

// create opens the report file for writing, creating dir if needed.
func create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating report: %w", err)
	}
	return f, nil
}
