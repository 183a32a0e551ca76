package types

import (
	"crypto/sha1"
	"encoding/hex"
)

// Rule is a detection rule for the portable rule engines.
type Rule struct {
	ID               string   `json:"id"`   // e.g., "ls.auth.1"
	Name             string   `json:"name"` // reported when the rule fires
	Pattern          string   `json:"pattern"`
	StructuralID     string   `json:"structural_id"` // SHA-1 of pattern (computed)
	Description      string   `json:"description,omitempty"`
	Examples         []string `json:"examples,omitempty"`
	NegativeExamples []string `json:"negative_examples,omitempty"`
	References       []string `json:"references,omitempty"`
	Categories       []string `json:"categories,omitempty"`
	Keywords         []string `json:"keywords,omitempty"` // literals for Aho-Corasick prefiltering
}

// ComputeStructuralID computes the SHA-1 of the pattern.
func (r *Rule) ComputeStructuralID() string {
	h := sha1.Sum([]byte(r.Pattern))
	return hex.EncodeToString(h[:])
}

// DisplayName returns Name, falling back to ID.
func (r *Rule) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}
