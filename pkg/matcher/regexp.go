package matcher

import (
	"fmt"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/praetorian-inc/logsift/pkg/prefilter"
	"github.com/praetorian-inc/logsift/pkg/rule"
	"github.com/praetorian-inc/logsift/pkg/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
)

const parallelThreshold = 64 * 1024 // bytes

// PortableRegexpMatcher implements Matcher using regexp2 (no CGO required).
//
// Rules are narrowed with an Aho-Corasick keyword prefilter before any regex
// runs. Content at or above parallelThreshold is matched with a worker pool,
// one rule per job; smaller content is matched sequentially.
//
// The compiled patterns are read-only after construction, so Match is safe
// for concurrent use.
type PortableRegexpMatcher struct {
	rules     []*types.Rule
	regexes   map[*types.Rule]*regexp2.Regexp
	prefilter *prefilter.Prefilter
	logger    logrus.FieldLogger
}

// NewPortableRegexp creates a portable regexp-based matcher.
func NewPortableRegexp(rules []*types.Rule, timeout time.Duration, logger logrus.FieldLogger) (*PortableRegexpMatcher, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules provided")
	}

	m := &PortableRegexpMatcher{
		rules:     rules,
		regexes:   make(map[*types.Rule]*regexp2.Regexp, len(rules)),
		prefilter: prefilter.New(rules),
		logger:    logger,
	}

	// Pre-compile all patterns to catch errors early
	for _, r := range rules {
		re, err := rule.CompilePattern(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %q for rule %s: %w", r.Pattern, r.ID, err)
		}
		// Set timeout to prevent catastrophic backtracking
		re.MatchTimeout = timeout
		m.regexes[r] = re
	}

	return m, nil
}

// Match returns the names of rules whose pattern occurs anywhere in data.
func (m *PortableRegexpMatcher) Match(data []byte) ([]string, error) {
	candidates := m.prefilter.Filter(data)
	if len(candidates) == 0 {
		return nil, nil
	}

	content, err := matchText(data)
	if err != nil {
		return nil, err
	}
	fired := make([]bool, len(candidates))

	if len(data) < parallelThreshold {
		for i, r := range candidates {
			fired[i] = m.matchRule(r, content)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i, r := range candidates {
			i, r := i, r
			g.Go(func() error {
				fired[i] = m.matchRule(r, content)
				return nil
			})
		}
		_ = g.Wait()
	}

	var set firedSet
	for i, r := range candidates {
		if fired[i] {
			set.add(r.DisplayName())
		}
	}
	return set.names, nil
}

// matchText converts data into the string the regex engine walks. Valid
// UTF-8 is used as is. Anything else is decoded as Latin-1 so each byte
// becomes the rune of the same value and byte signatures such as \x90 see
// the raw byte instead of U+FFFD.
func matchText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode content: %w", err)
	}
	return string(decoded), nil
}

// matchRule reports whether a single rule fires. Timeouts and engine errors
// are logged and treated as "did not fire" for this content.
func (m *PortableRegexpMatcher) matchRule(r *types.Rule, content string) bool {
	ok, err := m.regexes[r].MatchString(content)
	if err != nil {
		entry := m.logger.WithField("rule", r.ID)
		if strings.Contains(err.Error(), "match timeout") {
			entry.Warn("regex timeout on content (skipping rule for this content)")
		} else {
			entry.WithError(err).Warn("regex error (skipping rule for this content)")
		}
		return false
	}
	return ok
}

// Close releases resources (no-op for regexp).
func (m *PortableRegexpMatcher) Close() error {
	return nil
}
