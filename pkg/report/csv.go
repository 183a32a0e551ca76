package report

import (
	"encoding/csv"
	"fmt"

	"github.com/praetorian-inc/logsift/pkg/types"
)

// Header is the first row of every CSV report.
var Header = []string{"Rule", "Component", "Content"}

// CSVEmitter writes comma-separated reports with CRLF row terminators.
type CSVEmitter struct {
	Dir string
}

func (e *CSVEmitter) Emit(result *types.ScanResult) (string, error) {
	if result.Empty() {
		return "", nil
	}

	path := Path(e.Dir, result.Path, ".csv")
	f, err := create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.UseCRLF = true
	if err := w.Write(Header); err != nil {
		return "", fmt.Errorf("writing report header: %w", err)
	}
	for _, rec := range result.Records {
		if err := w.Write(rec.Row()); err != nil {
			return "", fmt.Errorf("writing report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, f.Close()
}
