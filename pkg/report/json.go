package report

import (
	"encoding/json"
	"fmt"

	"github.com/praetorian-inc/logsift/pkg/types"
)

// JSONEmitter writes the scan result as an indented JSON document.
type JSONEmitter struct {
	Dir string
}

func (e *JSONEmitter) Emit(result *types.ScanResult) (string, error) {
	if result.Empty() {
		return "", nil
	}

	path := Path(e.Dir, result.Path, ".json")
	f, err := create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, f.Close()
}
