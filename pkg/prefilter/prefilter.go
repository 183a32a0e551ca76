package prefilter

import (
	"bytes"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/praetorian-inc/logsift/pkg/types"
)

// Prefilter uses Aho-Corasick for efficient keyword matching.
// Keywords are compared case-insensitively.
type Prefilter struct {
	rules        []*types.Rule
	matcher      *ahocorasick.Matcher
	keywords     []string         // keyword at each index
	keywordRules map[string][]int // keyword -> indices of rules needing it
	always       []int            // rules without keywords (always checked)
}

// New creates a prefilter from rules.
func New(rules []*types.Rule) *Prefilter {
	pf := &Prefilter{
		rules:        rules,
		keywordRules: make(map[string][]int),
	}

	for i, rule := range rules {
		if len(rule.Keywords) == 0 {
			pf.always = append(pf.always, i)
			continue
		}
		for _, keyword := range rule.Keywords {
			kw := strings.ToLower(keyword)
			if kw == "" {
				continue
			}
			if _, seen := pf.keywordRules[kw]; !seen {
				pf.keywords = append(pf.keywords, kw)
			}
			pf.keywordRules[kw] = append(pf.keywordRules[kw], i)
		}
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}

	return pf
}

// Filter returns the rules that might match content: those whose keyword
// appears in it and those with no keywords at all. Rules keep their
// original relative order.
func (pf *Prefilter) Filter(content []byte) []*types.Rule {
	selected := make([]bool, len(pf.rules))
	for _, i := range pf.always {
		selected[i] = true
	}

	if pf.matcher != nil {
		for _, hit := range pf.matcher.Match(bytes.ToLower(content)) {
			for _, i := range pf.keywordRules[pf.keywords[hit]] {
				selected[i] = true
			}
		}
	}

	result := make([]*types.Rule, 0, len(pf.always))
	for i, ok := range selected {
		if ok {
			result = append(result, pf.rules[i])
		}
	}
	return result
}
