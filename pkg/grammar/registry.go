package grammar

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/praetorian-inc/logsift/pkg/types"
	"gopkg.in/yaml.v3"
)

// PatternsKey is the document key holding the name to pattern mapping.
const PatternsKey = "log_patterns"

//go:embed grammars/log_patterns.yml
var builtinPatterns []byte

// Registry maps grammar names to grammars and remembers document order.
// It is read-only after load and safe for concurrent use.
type Registry struct {
	grammars []*Grammar
	byName   map[string]*Grammar
}

// LoadBuiltin loads the embedded grammar document.
func LoadBuiltin() (*Registry, error) {
	return Load(builtinPatterns)
}

// LoadFile loads a grammar document from disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read grammar file: %w", types.ErrConfig, err)
	}
	reg, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Load parses a YAML or JSON document whose PatternsKey entry maps grammar
// names to regular expressions. All errors wrap types.ErrConfig.
func Load(data []byte) (*Registry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse grammar document: %w", types.ErrConfig, err)
	}

	patterns, err := patternsNode(&doc)
	if err != nil {
		return nil, err
	}

	reg := &Registry{byName: make(map[string]*Grammar, len(patterns.Content)/2)}
	for i := 0; i+1 < len(patterns.Content); i += 2 {
		key, val := patterns.Content[i], patterns.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.Value == "" {
			return nil, fmt.Errorf("%w: line %d: grammar name must be a non-empty string", types.ErrConfig, key.Line)
		}
		name := key.Value
		if val.Kind != yaml.ScalarNode || val.Tag != "!!str" {
			return nil, fmt.Errorf("%w: grammar %q: pattern must be a string", types.ErrConfig, name)
		}
		if _, dup := reg.byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate grammar %q", types.ErrConfig, name)
		}

		g, err := newGrammar(name, val.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: grammar %q: invalid pattern: %w", types.ErrConfig, name, err)
		}
		reg.grammars = append(reg.grammars, g)
		reg.byName[name] = g
	}

	return reg, nil
}

func patternsNode(doc *yaml.Node) (*yaml.Node, error) {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: grammar document is empty", types.ErrConfig)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: grammar document must be a mapping", types.ErrConfig)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != PatternsKey {
			continue
		}
		node := root.Content[i+1]
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: %q must map grammar names to patterns", types.ErrConfig, PatternsKey)
		}
		return node, nil
	}
	return nil, fmt.Errorf("%w: missing %q key", types.ErrConfig, PatternsKey)
}

// Get returns the grammar registered under name.
func (r *Registry) Get(name string) (*Grammar, bool) {
	g, ok := r.byName[name]
	return g, ok
}

// All returns grammars in priority order.
func (r *Registry) All() []*Grammar {
	return append([]*Grammar(nil), r.grammars...)
}

// Names returns grammar names in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.grammars))
	for i, g := range r.grammars {
		names[i] = g.Name
	}
	return names
}

// Len returns the number of registered grammars.
func (r *Registry) Len() int {
	return len(r.grammars)
}
