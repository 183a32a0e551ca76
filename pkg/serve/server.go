// Package serve exposes the scanner over a newline-delimited JSON stream.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/praetorian-inc/logsift/pkg/report"
	"github.com/praetorian-inc/logsift/pkg/scan"
	"github.com/praetorian-inc/logsift/pkg/types"
	"github.com/sirupsen/logrus"
)

// Version is the server protocol version
const Version = "1.0.0"

// Scanner runs file scans. *scan.Scanner satisfies it.
type Scanner interface {
	Run(targets []scan.Target) []*types.Outcome
}

// Options configures a Server.
type Options struct {
	// Rules and Kind apply to requests that leave them empty.
	Rules string
	Kind  types.FileKind

	// Grammars is announced in the ready message.
	Grammars []string

	// Emitter, when set, writes a report for each successful scan and
	// records its path in the outcome.
	Emitter report.Emitter

	Logger logrus.FieldLogger
}

// Server manages the streaming scanner
type Server struct {
	scanner Scanner
	opts    Options
	encoder *json.Encoder
	decoder *json.Decoder
}

// NewServer creates a new streaming server
func NewServer(scanner Scanner, in io.Reader, out io.Writer, opts Options) *Server {
	if opts.Kind == "" {
		opts.Kind = types.KindText
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	return &Server{
		scanner: scanner,
		opts:    opts,
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
	}
}

// Run starts the server main loop
func (s *Server) Run(ctx context.Context) error {
	// Send ready signal
	s.sendReady()

	// Use buffered channels for incoming requests
	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Process requests until stdin closes or context cancels
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(req) {
						return nil
					}
				default:
					if err == io.EOF {
						return nil
					}
					s.opts.Logger.WithError(err).Warn("malformed request stream")
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(req Request) bool {
	switch req.Type {
	case "scan":
		s.handleScan(req.Payload)
	case "scan_batch":
		s.handleScanBatch(req.Payload)
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	s.send("ready", ReadyData{Version: Version, Grammars: s.opts.Grammars})
}

func (s *Server) handleScan(payload json.RawMessage) {
	var p ScanPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("scan", err.Error())
		return
	}

	outcomes, err := s.scan([]ScanPayload{p})
	if err != nil {
		s.sendError("scan", err.Error())
		return
	}
	s.send("scan", outcomes[0])
}

func (s *Server) handleScanBatch(payload json.RawMessage) {
	var p ScanBatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("scan_batch", err.Error())
		return
	}

	outcomes, err := s.scan(p.Items)
	if err != nil {
		s.sendError("scan_batch", err.Error())
		return
	}
	s.send("scan_batch", outcomes)
}

// scan validates every item before scanning any of them, so a malformed
// request is rejected as a whole.
func (s *Server) scan(items []ScanPayload) ([]*types.Outcome, error) {
	targets := make([]scan.Target, len(items))
	for i, item := range items {
		if item.Path == "" {
			return nil, fmt.Errorf("item %d: path is required", i)
		}
		t := scan.Target{Path: item.Path, Rules: item.Rules, Kind: s.opts.Kind}
		if t.Rules == "" {
			t.Rules = s.opts.Rules
		}
		if item.Kind != "" {
			kind, err := types.ParseFileKind(item.Kind)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			t.Kind = kind
		}
		targets[i] = t
	}

	outcomes := s.scanner.Run(targets)
	if s.opts.Emitter != nil {
		for _, o := range outcomes {
			s.emit(o)
		}
	}
	return outcomes, nil
}

func (s *Server) emit(o *types.Outcome) {
	if o.Status != types.StatusSuccess {
		return
	}
	path, err := s.opts.Emitter.Emit(o.Result)
	if err != nil {
		o.Status = types.StatusError
		o.Error = err.Error()
		return
	}
	o.ReportPath = path
}

func (s *Server) send(respType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.sendError(respType, err.Error())
		return
	}
	s.encoder.Encode(Response{
		Success: true,
		Type:    respType,
		Data:    data,
	})
}

func (s *Server) sendError(reqType, msg string) {
	s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
	})
}
