//go:build wasm

package main

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"syscall/js"
	"time"

	"github.com/praetorian-inc/logsift/pkg/detect"
	"github.com/praetorian-inc/logsift/pkg/grammar"
	"github.com/praetorian-inc/logsift/pkg/matcher"
	"github.com/praetorian-inc/logsift/pkg/rule"
	"github.com/praetorian-inc/logsift/pkg/scan"
	"github.com/praetorian-inc/logsift/pkg/types"
	"github.com/sirupsen/logrus"
)

// ContentItem is one named text to scan.
type ContentItem struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Kind    string `json:"kind,omitempty"`
}

// BatchItemResult is the result for one ContentItem.
type BatchItemResult struct {
	Name   string            `json:"name"`
	Result *types.ScanResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// BatchScanResult is returned by LogsiftScanBatch.
type BatchScanResult struct {
	Results []BatchItemResult `json:"results"`
	Total   int               `json:"total"` // records across all items
}

var (
	scanners   = make(map[int]*scan.Scanner)
	scannersMu sync.RWMutex
	nextID     int

	registryOnce sync.Once
	registry     *grammar.Registry
	registryErr  error
)

func builtinRegistry() (*grammar.Registry, error) {
	registryOnce.Do(func() {
		registry, registryErr = grammar.LoadBuiltin()
	})
	return registry, registryErr
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// shared hands out one compiled rule set to every scan. The browser has
// no filesystem to load rule sources from.
type shared struct {
	matcher.Matcher
}

func (shared) Close() error { return nil }

type sharedCompiler struct {
	m matcher.Matcher
}

func (c sharedCompiler) Compile(string) (matcher.Matcher, error) {
	return shared{c.m}, nil
}

// newScanner creates a scanner from a JSON rule array or "builtin".
// JS: LogsiftNewScanner(rulesJSON) -> {handle} or {error}
func newScanner(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "rulesJSON argument required"}
	}

	rules, err := parseRules(args[0].String())
	if err != nil {
		return map[string]interface{}{"error": "failed to load rules: " + err.Error()}
	}
	m, err := matcher.NewPortableRegexp(rules, 5*time.Second, discardLogger())
	if err != nil {
		return map[string]interface{}{"error": "failed to compile rules: " + err.Error()}
	}
	reg, err := builtinRegistry()
	if err != nil {
		return map[string]interface{}{"error": "failed to load grammars: " + err.Error()}
	}

	scannersMu.Lock()
	id := nextID
	nextID++
	scanners[id] = scan.New(reg, sharedCompiler{m})
	scannersMu.Unlock()

	return map[string]interface{}{"handle": id}
}

func parseRules(source string) ([]*types.Rule, error) {
	if source == rule.BuiltinSource {
		return rule.NewLoader().LoadBuiltinRules()
	}
	var rules []*types.Rule
	if err := json.Unmarshal([]byte(source), &rules); err != nil {
		return nil, err
	}
	for _, r := range rules {
		if err := rule.ValidateRule(r); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

func lookup(handle int) (*scan.Scanner, bool) {
	scannersMu.RLock()
	defer scannersMu.RUnlock()
	s, ok := scanners[handle]
	return s, ok
}

func scanItem(s *scan.Scanner, item ContentItem) (*types.ScanResult, error) {
	kind := types.KindText
	if item.Kind != "" {
		k, err := types.ParseFileKind(item.Kind)
		if err != nil {
			return nil, err
		}
		kind = k
	}
	return s.ScanContent(item.Name, []byte(item.Content), rule.BuiltinSource, kind)
}

// scanOne scans a single content string.
// JS: LogsiftScan(handle, content, name, kind) -> JSON ScanResult or {error}
func scanOne(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "handle and content arguments required"}
	}

	s, ok := lookup(args[0].Int())
	if !ok {
		return map[string]interface{}{"error": "invalid scanner handle"}
	}

	item := ContentItem{Name: "content", Content: args[1].String()}
	if len(args) > 2 {
		item.Name = args[2].String()
	}
	if len(args) > 3 {
		item.Kind = args[3].String()
	}

	result, err := scanItem(s, item)
	if err != nil {
		return map[string]interface{}{"error": "scan failed: " + err.Error()}
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal results: " + err.Error()}
	}
	return string(jsonBytes)
}

// scanBatch scans multiple content items. A failing item does not stop
// the others.
// JS: LogsiftScanBatch(handle, itemsJSON) -> JSON BatchScanResult or {error}
func scanBatch(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "handle and itemsJSON arguments required"}
	}

	s, ok := lookup(args[0].Int())
	if !ok {
		return map[string]interface{}{"error": "invalid scanner handle"}
	}

	var items []ContentItem
	if err := json.Unmarshal([]byte(args[1].String()), &items); err != nil {
		return map[string]interface{}{"error": "failed to parse items JSON: " + err.Error()}
	}

	batch := BatchScanResult{Results: make([]BatchItemResult, 0, len(items))}
	for _, item := range items {
		res := BatchItemResult{Name: item.Name}
		result, err := scanItem(s, item)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Result = result
			batch.Total += len(result.Records)
		}
		batch.Results = append(batch.Results, res)
	}

	jsonBytes, err := json.Marshal(batch)
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal results: " + err.Error()}
	}
	return string(jsonBytes)
}

// detectGrammar names the builtin grammar content follows, or "".
// JS: LogsiftDetect(content) -> string or {error}
func detectGrammar(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "content argument required"}
	}
	reg, err := builtinRegistry()
	if err != nil {
		return map[string]interface{}{"error": "failed to load grammars: " + err.Error()}
	}
	sample, err := detect.ReadSample(bufio.NewReader(strings.NewReader(args[0].String())))
	if err != nil {
		return map[string]interface{}{"error": "failed to read content: " + err.Error()}
	}
	name, _ := detect.Detect(sample, reg)
	return name
}

// closeScanner releases a scanner handle.
// JS: LogsiftCloseScanner(handle)
func closeScanner(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "handle argument required"}
	}

	handle := args[0].Int()

	scannersMu.Lock()
	_, ok := scanners[handle]
	delete(scanners, handle)
	scannersMu.Unlock()

	if !ok {
		return map[string]interface{}{"error": "invalid scanner handle"}
	}
	return nil
}

// getBuiltinRules returns the built-in rules as JSON.
// JS: LogsiftGetBuiltinRules() -> JSON rules array
func getBuiltinRules(this js.Value, args []js.Value) interface{} {
	rules, err := rule.NewLoader().LoadBuiltinRules()
	if err != nil {
		return map[string]interface{}{"error": "failed to load builtin rules: " + err.Error()}
	}

	jsonBytes, err := json.Marshal(rules)
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal rules: " + err.Error()}
	}
	return string(jsonBytes)
}
