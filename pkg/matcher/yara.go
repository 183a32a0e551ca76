//go:build cgo && yara

package matcher

import (
	"fmt"
	"os"
	"time"

	"github.com/hillu/go-yara/v4"
)

// YaraMatcher implements Matcher with libyara. Fired names are YARA rule
// identifiers in the order libyara reports them.
type YaraMatcher struct {
	rules   *yara.Rules
	timeout time.Duration
}

// NewYara compiles the YARA rule file at path.
func NewYara(path string, timeout time.Duration) (Matcher, error) {
	compiler, err := yara.NewCompiler()
	if err != nil {
		return nil, fmt.Errorf("yara compiler init: %w", err)
	}
	defer compiler.Destroy()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	err = compiler.AddFile(f, "logsift")
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}

	rules, err := compiler.GetRules()
	if err != nil {
		return nil, fmt.Errorf("get rules: %w", err)
	}
	return &YaraMatcher{rules: rules, timeout: timeout}, nil
}

// Match scans data with the compiled rules.
func (m *YaraMatcher) Match(data []byte) ([]string, error) {
	var matches yara.MatchRules
	if err := m.rules.ScanMem(data, 0, m.timeout, &matches); err != nil {
		return nil, fmt.Errorf("yara scan: %w", err)
	}

	var set firedSet
	for _, mr := range matches {
		set.add(mr.Rule)
	}
	return set.names, nil
}

// Close releases the compiled rules.
func (m *YaraMatcher) Close() error {
	if m.rules != nil {
		m.rules.Destroy()
		m.rules = nil
	}
	return nil
}
