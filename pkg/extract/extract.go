// Package extract pulls component and content fields out of log lines.
package extract

import (
	"github.com/praetorian-inc/logsift/pkg/grammar"
)

// Extract applies g to line with an anchored match and returns the
// substrings at the grammar's component and content groups.
//
// ok is false when the line does not match, the grammar has no group
// mapping, a configured index exceeds the pattern's group count, or a
// configured group did not take part in the match. The caller treats that
// as a per-line miss.
func Extract(line string, g *grammar.Grammar) (component, content string, ok bool) {
	if g == nil || !g.HasGroups {
		return "", "", false
	}
	n := g.NumGroups()
	if g.Groups.Component < 1 || g.Groups.Content < 1 || g.Groups.Component > n || g.Groups.Content > n {
		return "", "", false
	}

	m := g.Match(line)
	if m == nil {
		return "", "", false
	}

	comp := m.GroupByNumber(g.Groups.Component)
	cont := m.GroupByNumber(g.Groups.Content)
	if comp == nil || cont == nil || len(comp.Captures) == 0 || len(cont.Captures) == 0 {
		return "", "", false
	}
	return comp.String(), cont.String(), true
}
