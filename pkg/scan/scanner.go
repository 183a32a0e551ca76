// Package scan drives per-file scans: kind resolution, grammar detection,
// rule matching and field extraction.
package scan

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/praetorian-inc/logsift/pkg/classify"
	"github.com/praetorian-inc/logsift/pkg/detect"
	"github.com/praetorian-inc/logsift/pkg/extract"
	"github.com/praetorian-inc/logsift/pkg/grammar"
	"github.com/praetorian-inc/logsift/pkg/matcher"
	"github.com/praetorian-inc/logsift/pkg/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Scanner scans files one at a time. The grammar registry is the only
// state shared between scans; every scan compiles its own rule set.
type Scanner struct {
	registry        *grammar.Registry
	compiler        matcher.Compiler
	logger          logrus.FieldLogger
	keepUnextracted bool
	onOutcome       func(*types.Outcome)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger used for scan diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scanner) {
		s.logger = l
	}
}

// WithKeepUnextracted emits rule hits on lines whose fields could not be
// extracted as N/A records instead of dropping them.
func WithKeepUnextracted(keep bool) Option {
	return func(s *Scanner) {
		s.keepUnextracted = keep
	}
}

// WithOutcomeHandler registers a callback invoked by Run as each file
// finishes, before the next file starts.
func WithOutcomeHandler(fn func(*types.Outcome)) Option {
	return func(s *Scanner) {
		s.onOutcome = fn
	}
}

// New creates a Scanner.
func New(registry *grammar.Registry, compiler matcher.Compiler, opts ...Option) *Scanner {
	s := &Scanner{registry: registry, compiler: compiler}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.logger = l
	}
	return s
}

// Target is one file to scan.
type Target struct {
	Path  string
	Rules string
	Kind  types.FileKind
}

// Run scans targets in order. Each target yields exactly one Outcome;
// a failing target does not affect the others.
func (s *Scanner) Run(targets []Target) []*types.Outcome {
	outcomes := make([]*types.Outcome, 0, len(targets))
	for _, t := range targets {
		start := time.Now()
		result, err := s.ScanFile(t.Path, t.Rules, t.Kind)
		o := types.NewOutcome(t.Path, result, err)
		o.Duration = time.Since(start)

		entry := s.logger.WithFields(logrus.Fields{"path": t.Path, "status": o.Status, "duration": o.Duration})
		if err != nil {
			entry.WithError(err).Warn("scan failed")
		} else {
			entry.WithField("records", o.Count).Debug("scan finished")
		}

		if s.onOutcome != nil {
			s.onOutcome(o)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// ScanFile scans one file with the rules compiled from rulesSource.
// A result with no records means nothing matched. Every error is a
// *ScanError.
func (s *Scanner) ScanFile(path, rulesSource string, kind types.FileKind) (*types.ScanResult, error) {
	if _, err := types.ParseFileKind(kind.String()); err != nil {
		return nil, &ScanError{Path: path, Stage: StageClassify, Err: fmt.Errorf("%w: %w", types.ErrConfig, err)}
	}

	m, err := s.compiler.Compile(rulesSource)
	if err != nil {
		return nil, &ScanError{Path: path, Stage: StageCompile, Err: err}
	}
	defer m.Close()

	if kind == types.KindAuto {
		kind, err = classify.File(path)
		if err != nil {
			return nil, &ScanError{Path: path, Stage: StageClassify, Err: err}
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ScanError{Path: path, Stage: StageOpen, Err: fmt.Errorf("%w: %w", types.ErrIO, err)}
	}
	defer f.Close()

	log := s.logger.WithFields(logrus.Fields{"path": path, "kind": kind})
	if info, err := f.Stat(); err == nil {
		log = log.WithField("size", humanize.Bytes(uint64(info.Size())))
	}
	return s.scan(path, f, m, kind, log)
}

// ScanContent scans in-memory data as if it were a file called name. The
// name is used for auto classification and as the result path.
func (s *Scanner) ScanContent(name string, data []byte, rulesSource string, kind types.FileKind) (*types.ScanResult, error) {
	if _, err := types.ParseFileKind(kind.String()); err != nil {
		return nil, &ScanError{Path: name, Stage: StageClassify, Err: fmt.Errorf("%w: %w", types.ErrConfig, err)}
	}

	m, err := s.compiler.Compile(rulesSource)
	if err != nil {
		return nil, &ScanError{Path: name, Stage: StageCompile, Err: err}
	}
	defer m.Close()

	if kind == types.KindAuto {
		head := data
		if len(head) > classify.HeadSize {
			head = head[:classify.HeadSize]
		}
		kind = classify.Classify(name, head)
	}

	log := s.logger.WithFields(logrus.Fields{"path": name, "kind": kind, "size": humanize.Bytes(uint64(len(data)))})
	return s.scan(name, bytes.NewReader(data), m, kind, log)
}

func (s *Scanner) scan(path string, r io.ReadSeeker, m matcher.Matcher, kind types.FileKind, log logrus.FieldLogger) (*types.ScanResult, error) {
	result := &types.ScanResult{Path: path, Kind: kind}
	var err error
	if kind.LineOriented() {
		err = s.scanText(r, m, result, log)
	} else {
		err = s.scanBlob(r, m, result)
	}
	if err != nil {
		var se *ScanError
		if errors.As(err, &se) {
			se.Path = path
			return nil, se
		}
		return nil, &ScanError{Path: path, Stage: StageRead, Err: err}
	}
	return result, nil
}

// scanBlob matches the raw bytes of the whole file once.
func (s *Scanner) scanBlob(r io.Reader, m matcher.Matcher, result *types.ScanResult) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return &ScanError{Stage: StageRead, Err: fmt.Errorf("%w: %w", types.ErrIO, err)}
	}
	return matchBlob(data, m, result)
}

func matchBlob(data []byte, m matcher.Matcher, result *types.ScanResult) error {
	fired, err := m.Match(data)
	if err != nil {
		return &ScanError{Stage: StageMatch, Err: err}
	}
	if len(fired) > 0 {
		result.Add(types.NewBlobRecord(fired))
	}
	return nil
}

// scanText detects the grammar from a sample, rewinds, and then either
// matches the whole text once (no grammar) or every line.
func (s *Scanner) scanText(src io.ReadSeeker, m matcher.Matcher, result *types.ScanResult, log logrus.FieldLogger) error {
	sample, err := detect.ReadSample(utf8Reader(src))
	if err != nil {
		return readError(err)
	}
	name, detected := detect.Detect(sample, s.registry)

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return &ScanError{Stage: StageRead, Err: fmt.Errorf("%w: rewind: %w", types.ErrIO, err)}
	}
	r := utf8Reader(src)

	if !detected {
		log.Debug("no grammar detected, matching whole file")
		data, err := io.ReadAll(r)
		if err != nil {
			return readError(err)
		}
		return matchBlob(bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n")), m, result)
	}

	g, _ := s.registry.Get(name)
	result.Grammar = name
	log = log.WithField("grammar", name)
	log.Debug("grammar detected")

	for lineNo := 1; ; lineNo++ {
		line, err := r.ReadString('\n')
		if line != "" {
			if err := s.scanLine(detect.NormalizeNewline(line), lineNo, g, m, result); err != nil {
				return err
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return readError(err)
		}
	}

	if result.Dropped > 0 {
		log.WithField("dropped", result.Dropped).Debug("rule hits without extractable fields")
	}
	return nil
}

func (s *Scanner) scanLine(line string, lineNo int, g *grammar.Grammar, m matcher.Matcher, result *types.ScanResult) error {
	fired, err := m.Match([]byte(line))
	if err != nil {
		return &ScanError{Stage: StageMatch, Err: fmt.Errorf("line %d: %w", lineNo, err)}
	}
	if len(fired) == 0 {
		return nil
	}

	component, content, ok := extract.Extract(line, g)
	if ok && component != "" && content != "" {
		result.Add(types.MatchRecord{Rules: fired, Component: component, Content: content, Line: lineNo})
		return nil
	}

	if s.keepUnextracted {
		rec := types.NewBlobRecord(fired)
		rec.Line = lineNo
		result.Add(rec)
		return nil
	}
	result.Dropped++
	return nil
}

// utf8Reader reads r through a validator that fails on malformed UTF-8.
func utf8Reader(r io.Reader) *bufio.Reader {
	return bufio.NewReader(transform.NewReader(r, encoding.UTF8Validator))
}

func readError(err error) error {
	return &ScanError{Stage: StageRead, Err: fmt.Errorf("%w: %w", types.ErrIO, err)}
}
