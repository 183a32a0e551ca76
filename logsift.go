// Package logsift scans log files and other artifacts against detection
// rules and reports which rules fired, with the component and message
// extracted from each matching log line.
//
// # Basic Usage
//
// Create a scanner with the builtin grammars and rules and scan a file:
//
//	scanner, err := logsift.NewScanner()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := scanner.ScanFile("/var/log/auth.log", logsift.KindText)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, rec := range result.Records {
//	    fmt.Printf("%s: %s %s\n", rec.RuleField(), rec.Component, rec.Content)
//	}
//
// # Custom Rules
//
// Rule sources are YAML rule files, directories of them, YARA files when
// built with the yara tag, or the word "builtin":
//
//	scanner, err := logsift.NewScanner(logsift.WithRules("/etc/logsift/rules.yml"))
package logsift

import (
	"fmt"

	"github.com/praetorian-inc/logsift/pkg/grammar"
	"github.com/praetorian-inc/logsift/pkg/matcher"
	"github.com/praetorian-inc/logsift/pkg/rule"
	"github.com/praetorian-inc/logsift/pkg/scan"
	"github.com/praetorian-inc/logsift/pkg/types"
	"github.com/sirupsen/logrus"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/logsift" without subpackages.
type (
	// FileKind is the declared category of a scanned file.
	FileKind = types.FileKind

	// MatchRecord is one report row: the rules that fired plus extracted fields.
	MatchRecord = types.MatchRecord

	// ScanResult is the ordered set of records for one file.
	ScanResult = types.ScanResult

	// Outcome is the terminal status of one file in a batch.
	Outcome = types.Outcome

	// Rule defines a detection pattern.
	Rule = types.Rule
)

// Re-export file kinds.
const (
	KindText     = types.KindText
	KindBinary   = types.KindBinary
	KindScript   = types.KindScript
	KindDatabase = types.KindDatabase
	KindConfig   = types.KindConfig
	KindAuto     = types.KindAuto
)

// Scanner scans files with one rule source and one grammar registry.
type Scanner struct {
	registry *grammar.Registry
	inner    *scan.Scanner
	config   *scannerConfig
}

type scannerConfig struct {
	grammarsFile    string
	rules           string
	engine          matcher.Backend
	filter          rule.FilterConfig
	keepUnextracted bool
	logger          logrus.FieldLogger
}

// Option configures a Scanner.
type Option func(*scannerConfig)

// WithGrammarsFile loads log grammars from a YAML or JSON file instead of
// the embedded set.
func WithGrammarsFile(path string) Option {
	return func(c *scannerConfig) {
		c.grammarsFile = path
	}
}

// WithRules sets the rule source. Default is "builtin".
func WithRules(source string) Option {
	return func(c *scannerConfig) {
		c.rules = source
	}
}

// WithEngine selects the rule engine. Default picks by rule source.
func WithEngine(b matcher.Backend) Option {
	return func(c *scannerConfig) {
		c.engine = b
	}
}

// WithRuleFilter narrows YAML rule sets by rule ID.
func WithRuleFilter(f rule.FilterConfig) Option {
	return func(c *scannerConfig) {
		c.filter = f
	}
}

// WithKeepUnextracted keeps rule hits on lines whose fields could not be
// extracted, as N/A records.
func WithKeepUnextracted() Option {
	return func(c *scannerConfig) {
		c.keepUnextracted = true
	}
}

// WithLogger sets the logger for scan diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *scannerConfig) {
		c.logger = l
	}
}

// NewScanner creates a Scanner. Grammar loading errors are returned here;
// rule compile errors surface per scan.
func NewScanner(opts ...Option) (*Scanner, error) {
	config := &scannerConfig{rules: rule.BuiltinSource}
	for _, opt := range opts {
		opt(config)
	}

	var (
		registry *grammar.Registry
		err      error
	)
	if config.grammarsFile != "" {
		registry, err = grammar.LoadFile(config.grammarsFile)
	} else {
		registry, err = grammar.LoadBuiltin()
	}
	if err != nil {
		return nil, fmt.Errorf("loading grammars: %w", err)
	}

	compiler := matcher.NewCompiler(matcher.Config{
		Backend: config.engine,
		Filter:  config.filter,
		Logger:  config.logger,
	})

	scanOpts := []scan.Option{scan.WithKeepUnextracted(config.keepUnextracted)}
	if config.logger != nil {
		scanOpts = append(scanOpts, scan.WithLogger(config.logger))
	}

	return &Scanner{
		registry: registry,
		inner:    scan.New(registry, compiler, scanOpts...),
		config:   config,
	}, nil
}

// ScanFile scans one file declared as kind.
func (s *Scanner) ScanFile(path string, kind FileKind) (*ScanResult, error) {
	return s.inner.ScanFile(path, s.config.rules, kind)
}

// Scan scans every path as kind and returns one Outcome per path, in order.
func (s *Scanner) Scan(kind FileKind, paths ...string) []*Outcome {
	targets := make([]scan.Target, len(paths))
	for i, p := range paths {
		targets[i] = scan.Target{Path: p, Rules: s.config.rules, Kind: kind}
	}
	return s.inner.Run(targets)
}

// Grammars returns the registered grammar names in detection order.
func (s *Scanner) Grammars() []string {
	return s.registry.Names()
}

// LoadBuiltinRules returns all builtin detection rules.
func LoadBuiltinRules() ([]*Rule, error) {
	return rule.NewLoader().LoadBuiltinRules()
}
