package matcher

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/praetorian-inc/logsift/pkg/rule"
	"github.com/praetorian-inc/logsift/pkg/types"
	"github.com/sirupsen/logrus"
)

// Matcher evaluates compiled rules against content.
type Matcher interface {
	// Match returns the distinct names of the rules that fired on data,
	// in rule order. An empty result means nothing fired.
	Match(data []byte) ([]string, error)

	// Close releases resources (e.g., Hyperscan scratch space, YARA rules).
	Close() error
}

// Compiler turns a rule source into a Matcher.
type Compiler interface {
	Compile(source string) (Matcher, error)
}

// Backend names a rule engine implementation.
type Backend string

const (
	BackendAuto      Backend = "auto"      // yara for .yar/.yara sources, regexp otherwise
	BackendRegexp    Backend = "regexp"    // portable regexp2 engine, YAML rules
	BackendHyperscan Backend = "hyperscan" // requires cgo and -tags=hyperscan, YAML rules
	BackendYara      Backend = "yara"      // requires cgo and -tags=yara, YARA rules
)

// ParseBackend parses a backend name. Empty selects BackendAuto.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendRegexp, BackendHyperscan, BackendYara:
		return b, nil
	}
	return "", fmt.Errorf("unknown rule engine %q", s)
}

// Config for compiler initialization.
type Config struct {
	// Backend selects the rule engine.
	Backend Backend

	// Filter narrows YAML rule sets by rule ID before compilation.
	Filter rule.FilterConfig

	// RuleTimeout bounds a single rule evaluation (regexp and yara backends).
	// Default: 5 seconds.
	RuleTimeout time.Duration

	// Logger receives engine warnings such as per-rule timeouts.
	Logger logrus.FieldLogger
}

// NewCompiler creates a Compiler for the given config.
func NewCompiler(cfg Config) Compiler {
	if cfg.Backend == "" {
		cfg.Backend = BackendAuto
	}
	if cfg.RuleTimeout <= 0 {
		cfg.RuleTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.Logger = l
	}
	return &compiler{cfg: cfg, loader: rule.NewLoader()}
}

type compiler struct {
	cfg    Config
	loader *rule.Loader
}

// Compile compiles source with the configured backend. Every failure wraps
// types.ErrCompile.
func (c *compiler) Compile(source string) (Matcher, error) {
	m, err := c.compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrCompile, err)
	}
	return m, nil
}

func (c *compiler) compile(source string) (Matcher, error) {
	backend := c.cfg.Backend
	if backend == BackendAuto {
		backend = backendFor(source)
	}

	if backend == BackendYara {
		return NewYara(source, c.cfg.RuleTimeout)
	}

	rules, err := c.loader.Load(source)
	if err != nil {
		return nil, err
	}
	rules, err = rule.Filter(rules, c.cfg.Filter)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendHyperscan:
		return NewHyperscan(rules)
	case BackendRegexp:
		return NewPortableRegexp(rules, c.cfg.RuleTimeout, c.cfg.Logger)
	}
	return nil, fmt.Errorf("unknown rule engine %q", backend)
}

// backendFor picks the engine for a rule source by its extension.
func backendFor(source string) Backend {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".yar", ".yara":
		return BackendYara
	}
	return BackendRegexp
}

// firedSet collects rule names once each, in first-fired order.
type firedSet struct {
	seen  map[string]bool
	names []string
}

func (f *firedSet) add(name string) {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[name] {
		return
	}
	f.seen[name] = true
	f.names = append(f.names, name)
}
