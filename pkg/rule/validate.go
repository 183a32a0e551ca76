package rule

import (
	"fmt"

	"github.com/dlclark/regexp2"
	"github.com/praetorian-inc/logsift/pkg/types"
)

// ValidateRule checks rule consistency and required fields.
// Returns error if rule is invalid.
func ValidateRule(r *types.Rule) error {
	if r == nil {
		return fmt.Errorf("rule is nil")
	}

	// Check required fields
	if r.ID == "" {
		return fmt.Errorf("rule ID is required")
	}
	if r.Name == "" {
		return fmt.Errorf("rule name is required for %s", r.ID)
	}
	if r.Pattern == "" {
		return fmt.Errorf("rule pattern is required for %s", r.ID)
	}

	if _, err := CompilePattern(r.Pattern); err != nil {
		return fmt.Errorf("invalid pattern regex for rule %s: %w", r.ID, err)
	}

	expectedID := r.ComputeStructuralID()
	if r.StructuralID != "" && r.StructuralID != expectedID {
		return fmt.Errorf("rule %s has inconsistent StructuralID: got %s, expected %s",
			r.ID, r.StructuralID, expectedID)
	}

	return nil
}

// CompilePattern compiles a rule pattern the way the portable engine does:
// RE2-compatible mode first, falling back to the backtracking dialect for
// constructs such as lookarounds.
func CompilePattern(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.RE2|regexp2.Multiline)
	if err == nil {
		return re, nil
	}
	return regexp2.Compile(pattern, regexp2.Multiline)
}

// ExampleFailure describes an example that did not behave as documented.
type ExampleFailure struct {
	RuleID   string
	Example  string
	Negative bool
}

func (f ExampleFailure) String() string {
	if f.Negative {
		return fmt.Sprintf("%s: negative example matched: %q", f.RuleID, f.Example)
	}
	return fmt.Sprintf("%s: example did not match: %q", f.RuleID, f.Example)
}

// CheckExamples runs every rule against its own examples and negative examples.
func CheckExamples(rules []*types.Rule) ([]ExampleFailure, error) {
	var failures []ExampleFailure
	for _, r := range rules {
		re, err := CompilePattern(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling rule %s: %w", r.ID, err)
		}
		for _, ex := range r.Examples {
			ok, err := re.MatchString(ex)
			if err != nil {
				return nil, fmt.Errorf("matching rule %s: %w", r.ID, err)
			}
			if !ok {
				failures = append(failures, ExampleFailure{RuleID: r.ID, Example: ex})
			}
		}
		for _, ex := range r.NegativeExamples {
			ok, err := re.MatchString(ex)
			if err != nil {
				return nil, fmt.Errorf("matching rule %s: %w", r.ID, err)
			}
			if ok {
				failures = append(failures, ExampleFailure{RuleID: r.ID, Example: ex, Negative: true})
			}
		}
	}
	return failures, nil
}
