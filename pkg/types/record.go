package types

import "strings"

// NotApplicable fills component and content when no fields could be attached
// to a match (non-text files, text files with no detected grammar).
const NotApplicable = "N/A"

// RuleSeparator joins rule names when several rules fire on the same content.
const RuleSeparator = ", "

// MatchRecord is one row of a scan report.
type MatchRecord struct {
	Rules     []string `json:"rules"`
	Component string   `json:"component"`
	Content   string   `json:"content"`
	Line      int      `json:"line,omitempty"` // 1-based; 0 when the record covers the whole file
}

// NewBlobRecord creates a record for a whole-file match with no extracted fields.
func NewBlobRecord(rules []string) MatchRecord {
	return MatchRecord{
		Rules:     rules,
		Component: NotApplicable,
		Content:   NotApplicable,
	}
}

// RuleField renders the rule names as a single report field.
func (r MatchRecord) RuleField() string {
	return strings.Join(r.Rules, RuleSeparator)
}

// Row returns the record as report columns: rule, component, content.
func (r MatchRecord) Row() []string {
	return []string{r.RuleField(), r.Component, r.Content}
}

// ScanResult is the ordered set of records produced for one file.
// A result with no records is a valid outcome meaning nothing matched.
type ScanResult struct {
	Path    string        `json:"path"`
	Kind    FileKind      `json:"kind"`
	Grammar string        `json:"grammar,omitempty"` // detected log grammar, text files only
	Records []MatchRecord `json:"records"`

	// Dropped counts line hits discarded because no fields could be extracted.
	Dropped int `json:"dropped,omitempty"`
}

// Empty reports whether the scan produced no records.
func (r *ScanResult) Empty() bool {
	return r == nil || len(r.Records) == 0
}

// Add appends a record.
func (r *ScanResult) Add(rec MatchRecord) {
	r.Records = append(r.Records, rec)
}
