package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/praetorian-inc/logsift/pkg/grammar"
	"github.com/praetorian-inc/logsift/pkg/matcher/matchertest"
	"github.com/praetorian-inc/logsift/pkg/report"
	"github.com/praetorian-inc/logsift/pkg/scan"
	"github.com/praetorian-inc/logsift/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linuxLine = "Jun 14 15:16:01 combo sshd(pam_unix)[19939]: authentication failure\n"

func newScanner(t *testing.T) (*scan.Scanner, *matchertest.Compiler) {
	t.Helper()
	reg, err := grammar.LoadBuiltin()
	require.NoError(t, err)
	fake := matchertest.New(matchertest.Rule{Name: "SuspiciousAuth", Literal: "authentication failure"})
	fake.Fail = map[string]error{"corrupt.yml": errors.New("bad rule")}
	return scan.New(reg, fake), fake
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func responses(t *testing.T, out string) []Response {
	t.Helper()
	var resps []Response
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		resps = append(resps, resp)
	}
	return resps
}

func TestServer_SendsReadyOnStart(t *testing.T) {
	sc, _ := newScanner(t)
	out := &bytes.Buffer{}

	srv := NewServer(sc, strings.NewReader(""), out, Options{Grammars: []string{"linux", "mac"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately to exit after ready

	_ = srv.Run(ctx)

	resps := responses(t, out.String())
	require.NotEmpty(t, resps)
	assert.True(t, resps[0].Success)
	assert.Equal(t, "ready", resps[0].Type)

	var ready ReadyData
	require.NoError(t, json.Unmarshal(resps[0].Data, &ready))
	assert.Equal(t, Version, ready.Version)
	assert.Equal(t, []string{"linux", "mac"}, ready.Grammars)
}

func TestServer_Scan(t *testing.T) {
	sc, fake := newScanner(t)
	path := writeLog(t, t.TempDir(), "auth.log", linuxLine)

	request, err := json.Marshal(map[string]any{"type": "scan", "payload": ScanPayload{Path: path}})
	require.NoError(t, err)
	out := &bytes.Buffer{}

	srv := NewServer(sc, bytes.NewReader(append(request, '\n')), out, Options{Rules: "default.yml"})
	require.NoError(t, srv.Run(context.Background())) // Should exit cleanly on EOF

	resps := responses(t, out.String())
	require.Len(t, resps, 2) // ready + scan response
	assert.True(t, resps[1].Success)
	assert.Equal(t, "scan", resps[1].Type)

	var o types.Outcome
	require.NoError(t, json.Unmarshal(resps[1].Data, &o))
	assert.Equal(t, types.StatusSuccess, o.Status)
	assert.Equal(t, 1, o.Count)
	assert.Equal(t, "combo", o.Result.Records[0].Component)
	assert.Equal(t, []string{"default.yml"}, fake.Compiled())
}

func TestServer_ScanBatchWithReports(t *testing.T) {
	sc, _ := newScanner(t)
	dir := t.TempDir()
	good := writeLog(t, dir, "good.log", linuxLine)
	quiet := writeLog(t, dir, "quiet.log", "nothing\n")
	bad := writeLog(t, dir, "bad.log", linuxLine)

	payload := ScanBatchPayload{Items: []ScanPayload{
		{Path: good},
		{Path: bad, Rules: "corrupt.yml"},
		{Path: quiet, Kind: "binary"},
	}}
	request, err := json.Marshal(map[string]any{"type": "scan_batch", "payload": payload})
	require.NoError(t, err)

	reports := t.TempDir()
	out := &bytes.Buffer{}
	srv := NewServer(sc, bytes.NewReader(append(request, '\n')), out, Options{
		Rules:   "default.yml",
		Emitter: &report.CSVEmitter{Dir: reports},
	})
	require.NoError(t, srv.Run(context.Background()))

	resps := responses(t, out.String())
	require.Len(t, resps, 2)
	assert.Equal(t, "scan_batch", resps[1].Type)

	var outcomes []types.Outcome
	require.NoError(t, json.Unmarshal(resps[1].Data, &outcomes))
	require.Len(t, outcomes, 3)

	assert.Equal(t, types.StatusSuccess, outcomes[0].Status)
	assert.Equal(t, filepath.Join(reports, "good_report.csv"), outcomes[0].ReportPath)
	assert.FileExists(t, outcomes[0].ReportPath)

	assert.Equal(t, types.StatusError, outcomes[1].Status)
	assert.Contains(t, outcomes[1].Error, "bad rule")

	assert.Equal(t, types.StatusFailure, outcomes[2].Status)
	assert.Equal(t, types.KindBinary, outcomes[2].Result.Kind)
	assert.Empty(t, outcomes[2].ReportPath)
}

func TestServer_InvalidPayloads(t *testing.T) {
	sc, fake := newScanner(t)
	input := strings.Join([]string{
		`{"type":"scan","payload":{"path":""}}`,
		`{"type":"scan_batch","payload":{"items":[{"path":"a.log"},{"path":"b.log","kind":"pdf"}]}}`,
		`{"type":"scan","payload":"not an object"}`,
		`{"type":"launch"}`,
	}, "\n") + "\n"
	out := &bytes.Buffer{}

	require.NoError(t, NewServer(sc, strings.NewReader(input), out, Options{}).Run(context.Background()))

	resps := responses(t, out.String())
	require.Len(t, resps, 5)
	for _, resp := range resps[1:] {
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Error)
	}
	assert.Equal(t, "unknown", resps[4].Type)
	assert.Empty(t, fake.Compiled(), "rejected batches scan nothing")
}

func TestServer_CloseStopsProcessing(t *testing.T) {
	sc, _ := newScanner(t)
	input := `{"type":"close"}` + "\n" + `{"type":"scan","payload":{"path":"x"}}` + "\n"
	out := &bytes.Buffer{}

	require.NoError(t, NewServer(sc, strings.NewReader(input), out, Options{}).Run(context.Background()))
	assert.Len(t, responses(t, out.String()), 1)
}

func TestServer_DecodeError(t *testing.T) {
	sc, _ := newScanner(t)
	out := &bytes.Buffer{}

	require.NoError(t, NewServer(sc, strings.NewReader("{not json\n"), out, Options{}).Run(context.Background()))

	resps := responses(t, out.String())
	require.Len(t, resps, 2)
	assert.False(t, resps[1].Success)
	assert.Equal(t, "decode", resps[1].Type)
}

func TestServer_GracefulShutdownOnContext(t *testing.T) {
	sc, _ := newScanner(t)

	// Slow reader that blocks
	pr, pw := io.Pipe()
	defer pw.Close()
	out := &bytes.Buffer{}

	srv := NewServer(sc, pr, out, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestServer_ScanBatch_PendingRequestBeforeEOF(t *testing.T) {
	sc, _ := newScanner(t)
	path := writeLog(t, t.TempDir(), "auth.log", linuxLine)

	for i := 0; i < 10; i++ {
		request := `{"type":"scan_batch","payload":{"items":[{"path":` + strconvQuote(path) + `}]}}` + "\n"
		out := &strings.Builder{}

		require.NoError(t, NewServer(sc, strings.NewReader(request), out, Options{Rules: "r"}).Run(context.Background()))

		resps := responses(t, out.String())
		require.Len(t, resps, 2, "iteration %d: expected ready + scan_batch response", i)
		assert.True(t, resps[1].Success, "iteration %d", i)
		assert.Equal(t, "scan_batch", resps[1].Type, "iteration %d", i)
	}
}

func strconvQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
