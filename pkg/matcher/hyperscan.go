//go:build cgo && hyperscan

package matcher

import (
	"fmt"
	"sync"

	"github.com/flier/gohs/hyperscan"
	"github.com/praetorian-inc/logsift/pkg/types"
)

// HyperscanMatcher implements Matcher using a Hyperscan block database.
// Patterns compile with SingleMatch so each rule reports at most once per scan.
type HyperscanMatcher struct {
	mu      sync.Mutex // guards scratch
	db      hyperscan.BlockDatabase
	scratch *hyperscan.Scratch
	rules   []*types.Rule // indexed by pattern ID
}

// NewHyperscan creates a Hyperscan-based matcher.
func NewHyperscan(rules []*types.Rule) (Matcher, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules provided")
	}

	patterns := make([]*hyperscan.Pattern, len(rules))
	for i, r := range rules {
		expr, caseless := portablePattern(r.Pattern)
		flags := hyperscan.DotAll | hyperscan.MultiLine | hyperscan.SingleMatch
		if caseless {
			flags |= hyperscan.Caseless
		}
		p := hyperscan.NewPattern(expr, flags)
		p.Id = i
		patterns[i] = p
	}

	db, err := hyperscan.NewBlockDatabase(patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile Hyperscan database: %w", err)
	}

	scratch, err := hyperscan.NewScratch(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to allocate Hyperscan scratch: %w", err)
	}

	return &HyperscanMatcher{db: db, scratch: scratch, rules: rules}, nil
}

// Match returns the names of rules whose pattern occurs in data.
func (m *HyperscanMatcher) Match(data []byte) ([]string, error) {
	hit := make([]bool, len(m.rules))
	onMatch := func(id uint, from, to uint64, flags uint, context interface{}) error {
		if int(id) >= len(m.rules) {
			return fmt.Errorf("invalid pattern ID from Hyperscan: %d", id)
		}
		hit[id] = true
		return nil
	}

	m.mu.Lock()
	err := m.db.Scan(data, m.scratch, onMatch, nil)
	m.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("Hyperscan scan failed: %w", err)
	}

	var set firedSet
	for i, r := range m.rules {
		if hit[i] {
			set.add(r.DisplayName())
		}
	}
	return set.names, nil
}

// Close releases Hyperscan resources.
func (m *HyperscanMatcher) Close() error {
	if m.scratch != nil {
		m.scratch.Free()
	}
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
