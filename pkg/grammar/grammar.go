// Package grammar holds the registry of known log formats.
//
// A grammar is one regular expression that serves both to recognise a log
// format (anchored at the start of a line) and to pull fields out of its
// lines. Grammars live in a Registry whose iteration order is the order the
// names appear in the source document, which is also detection priority.
package grammar

import (
	"regexp"
	"time"

	"github.com/dlclark/regexp2"
)

// matchTimeout bounds a single grammar evaluation against one line.
const matchTimeout = time.Second

// namedGroupRe matches the opening of a named capture group in either the
// (?P<name>...) or (?<name>...) form. Lookbehinds ((?<= and (?<!) are left
// alone because a group name must start with a letter or underscore.
var namedGroupRe = regexp.MustCompile(`\(\?P?<[A-Za-z_][A-Za-z0-9_]*>`)

// Grammar is a named log format. Immutable after load.
type Grammar struct {
	Name    string
	Pattern string
	Groups  Groups
	// HasGroups is false for names missing from the extraction table.
	// Such grammars still take part in detection.
	HasGroups bool

	re *regexp2.Regexp
}

func newGrammar(name, pattern string) (*Grammar, error) {
	// Named groups become plain groups so numbering runs left to right,
	// which is what the component/content table indexes into.
	normalized := namedGroupRe.ReplaceAllString(pattern, "(")

	// \A pins the match to offset 0 without renumbering groups.
	re, err := regexp2.Compile(`\A(?:`+normalized+`)`, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = matchTimeout

	g := &Grammar{Name: name, Pattern: pattern, re: re}
	g.Groups, g.HasGroups = GroupsFor(name)
	return g, nil
}

// Match applies the grammar at the start of line. It returns nil when the
// line does not begin with a match.
func (g *Grammar) Match(line string) *regexp2.Match {
	m, err := g.re.FindStringMatch(line)
	if err != nil {
		return nil
	}
	return m
}

// Matches reports whether line begins with a match.
func (g *Grammar) Matches(line string) bool {
	return g.Match(line) != nil
}

// NumGroups returns the number of numbered capture groups in the pattern,
// excluding the whole-match group 0.
func (g *Grammar) NumGroups() int {
	return len(g.re.GetGroupNumbers()) - 1
}
