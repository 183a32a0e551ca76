package store

import (
	"fmt"
	"sync"

	"github.com/praetorian-inc/logsift/pkg/types"
)

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu       sync.RWMutex
	runs     []*types.Run
	byID     map[string]*types.Run
	outcomes map[string][]*types.Outcome // keyed by run ID
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*types.Run),
		outcomes: make(map[string][]*types.Outcome),
	}
}

// AddRun records a run. Adding the same ID twice is a no-op.
func (m *MemoryStore) AddRun(run *types.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[run.ID]; exists {
		return nil
	}
	r := *run
	m.runs = append(m.runs, &r)
	m.byID[run.ID] = &r
	return nil
}

// AddOutcome stores a copy of o under runID.
func (m *MemoryStore) AddOutcome(runID string, o *types.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[runID]; !exists {
		return fmt.Errorf("unknown run %q", runID)
	}
	m.outcomes[runID] = append(m.outcomes[runID], copyOutcome(o))
	return nil
}

// GetRuns retrieves all runs, oldest first.
func (m *MemoryStore) GetRuns() ([]*types.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]*types.Run, len(m.runs))
	for i, r := range m.runs {
		c := *r
		runs[i] = &c
	}
	return runs, nil
}

// GetOutcomes retrieves the outcomes of a run.
func (m *MemoryStore) GetOutcomes(runID string) ([]*types.Outcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, exists := m.byID[runID]; !exists {
		return nil, fmt.Errorf("unknown run %q", runID)
	}
	stored := m.outcomes[runID]
	outcomes := make([]*types.Outcome, len(stored))
	for i, o := range stored {
		outcomes[i] = copyOutcome(o)
	}
	return outcomes, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func copyOutcome(o *types.Outcome) *types.Outcome {
	c := *o
	if o.Result != nil {
		r := *o.Result
		r.Records = append([]types.MatchRecord(nil), o.Result.Records...)
		c.Result = &r
	}
	return &c
}
