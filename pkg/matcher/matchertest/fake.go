// Package matchertest provides a scripted rule engine for tests.
package matchertest

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/praetorian-inc/logsift/pkg/matcher"
	"github.com/praetorian-inc/logsift/pkg/types"
)

// Rule fires when Literal occurs in the matched data.
type Rule struct {
	Name    string
	Literal string
}

// Compiler is a fake matcher.Compiler. Every source compiles to a Matcher
// over Rules unless listed in Fail.
type Compiler struct {
	Rules []Rule
	Fail  map[string]error

	// MatchErr, when set, is returned by every Match call.
	MatchErr error

	mu       sync.Mutex
	compiled []string
	calls    int
}

// New returns a Compiler with the given rules.
func New(rules ...Rule) *Compiler {
	return &Compiler{Rules: rules}
}

// Compile records source and returns a fake Matcher.
func (c *Compiler) Compile(source string) (matcher.Matcher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compiled = append(c.compiled, source)
	if err, ok := c.Fail[source]; ok {
		return nil, fmt.Errorf("%w: %w", types.ErrCompile, err)
	}
	return &fakeMatcher{c: c}, nil
}

// Compiled returns the sources passed to Compile, in call order.
func (c *Compiler) Compiled() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.compiled...)
}

// Calls returns the number of Match calls across all compiled matchers.
func (c *Compiler) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeMatcher struct {
	c *Compiler
}

func (m *fakeMatcher) Match(data []byte) ([]string, error) {
	m.c.mu.Lock()
	m.c.calls++
	m.c.mu.Unlock()

	if m.c.MatchErr != nil {
		return nil, m.c.MatchErr
	}
	var names []string
	for _, r := range m.c.Rules {
		if bytes.Contains(data, []byte(r.Literal)) {
			names = append(names, r.Name)
		}
	}
	return names, nil
}

func (m *fakeMatcher) Close() error { return nil }
