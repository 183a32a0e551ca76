package scan

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/praetorian-inc/logsift/pkg/grammar"
	"github.com/praetorian-inc/logsift/pkg/matcher/matchertest"
	"github.com/praetorian-inc/logsift/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linuxLine = "Jun 14 15:16:01 combo sshd(pam_unix)[19939]: authentication failure\n"

func builtin(t *testing.T) *grammar.Registry {
	t.Helper()
	reg, err := grammar.LoadBuiltin()
	require.NoError(t, err)
	return reg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanFile_LinuxExample(t *testing.T) {
	path := writeFile(t, "Linux_2k.log", linuxLine+
		"Jun 14 15:16:02 combo sshd(pam_unix)[19937]: check pass; user unknown\n")
	fake := matchertest.New(matchertest.Rule{Name: "SuspiciousAuth", Literal: "authentication failure"})

	result, err := New(builtin(t), fake).ScanFile(path, "rules.yml", types.KindText)
	require.NoError(t, err)

	assert.Equal(t, "linux", result.Grammar)
	assert.Equal(t, []types.MatchRecord{
		{Rules: []string{"SuspiciousAuth"}, Component: "combo", Content: "authentication failure", Line: 1},
	}, result.Records)
	assert.Equal(t, []string{"rules.yml"}, fake.Compiled())
}

func TestScanFile_BinaryBlob(t *testing.T) {
	path := writeFile(t, "sample.exe", "MZ\x00\x01\xffTrojan payload\x00\n\x90")
	fake := matchertest.New(matchertest.Rule{Name: "Trojan.Generic", Literal: "Trojan"})

	result, err := New(builtin(t), fake).ScanFile(path, "rules", types.KindBinary)
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, []string{"Trojan.Generic", "N/A", "N/A"}, result.Records[0].Row())
	assert.Equal(t, 1, fake.Calls())
}

func TestScanFile_BlobKinds(t *testing.T) {
	fake := matchertest.New(matchertest.Rule{Name: "Hit", Literal: "needle"})
	s := New(builtin(t), fake)

	for _, kind := range []types.FileKind{types.KindScript, types.KindDatabase, types.KindConfig} {
		t.Run(kind.String(), func(t *testing.T) {
			path := writeFile(t, "f", linuxLine+"needle\n")
			result, err := s.ScanFile(path, "r", kind)
			require.NoError(t, err)
			assert.Empty(t, result.Grammar, "no detection outside text files")
			require.Len(t, result.Records, 1)
			assert.Equal(t, types.NewBlobRecord([]string{"Hit"}), result.Records[0])
		})
	}
}

func TestScanFile_UndetectedNoHits(t *testing.T) {
	path := writeFile(t, "notes.txt", "hello\nworld\n")
	fake := matchertest.New(matchertest.Rule{Name: "Never", Literal: "absent"})

	result, err := New(builtin(t), fake).ScanFile(path, "r", types.KindText)
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.Empty(t, result.Grammar)
}

func TestScanFile_UndetectedMatchesWholeFileOnce(t *testing.T) {
	path := writeFile(t, "notes.txt", "first line\r\nsecond has needle\r\nthird has needle too\r\n")
	fake := matchertest.New(
		matchertest.Rule{Name: "Needle", Literal: "needle"},
		matchertest.Rule{Name: "CR", Literal: "\r"},
	)

	result, err := New(builtin(t), fake).ScanFile(path, "r", types.KindText)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Calls())
	require.Len(t, result.Records, 1)
	assert.Equal(t, types.NewBlobRecord([]string{"Needle"}), result.Records[0])
}

func TestScanFile_RereadsFromStartAfterDetection(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 25; i++ {
		b.WriteString("Jun 14 15:16:01 combo kernel: entry ")
		b.WriteString(strings.Repeat("x", i))
		b.WriteString("\n")
	}
	path := writeFile(t, "messages.log", b.String())
	fake := matchertest.New(matchertest.Rule{Name: "Entry", Literal: "entry"})

	result, err := New(builtin(t), fake).ScanFile(path, "r", types.KindText)
	require.NoError(t, err)

	require.Len(t, result.Records, 25)
	for i, rec := range result.Records {
		assert.Equal(t, i+1, rec.Line)
		assert.Equal(t, "entry "+strings.Repeat("x", i), rec.Content)
		assert.Equal(t, "combo", rec.Component)
	}
	assert.Equal(t, 25, fake.Calls())
}

func TestScanFile_CRLFLines(t *testing.T) {
	path := writeFile(t, "win.log", strings.ReplaceAll(linuxLine, "\n", "\r\n"))
	fake := matchertest.New(matchertest.Rule{Name: "SuspiciousAuth", Literal: "failure"})

	result, err := New(builtin(t), fake).ScanFile(path, "r", types.KindText)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "authentication failure", result.Records[0].Content)
}

func TestScanFile_HitsWithoutFields(t *testing.T) {
	reg, err := grammar.Load([]byte("log_patterns:\n  linux: '^(\\w+) (\\w*) (.*)$'\n"))
	require.NoError(t, err)

	content := "host sshd alert one\n" + // extracted
		"host  alert with empty component\n" + // component empty
		"!!! alert that the grammar does not match\n" + // extraction miss
		"host sshd quiet\n" // no rule hit
	path := writeFile(t, "app.log", content)
	fake := matchertest.New(matchertest.Rule{Name: "Alert", Literal: "alert"})

	t.Run("dropped by default", func(t *testing.T) {
		result, err := New(reg, fake).ScanFile(path, "r", types.KindText)
		require.NoError(t, err)
		assert.Equal(t, []types.MatchRecord{
			{Rules: []string{"Alert"}, Component: "sshd", Content: "alert one", Line: 1},
		}, result.Records)
		assert.Equal(t, 2, result.Dropped)
	})

	t.Run("kept as N/A", func(t *testing.T) {
		result, err := New(reg, fake, WithKeepUnextracted(true)).ScanFile(path, "r", types.KindText)
		require.NoError(t, err)
		require.Len(t, result.Records, 3)
		assert.Equal(t, types.MatchRecord{Rules: []string{"Alert"}, Component: "N/A", Content: "N/A", Line: 2}, result.Records[1])
		assert.Equal(t, 3, result.Records[2].Line)
		assert.Zero(t, result.Dropped)
	})
}

func TestScanFile_GrammarWithoutGroupTable(t *testing.T) {
	reg, err := grammar.Load([]byte("log_patterns:\n  custom: '^(\\S+) (\\S+) (.*)$'\n"))
	require.NoError(t, err)
	path := writeFile(t, "custom.log", "a b needle\n")
	fake := matchertest.New(matchertest.Rule{Name: "Needle", Literal: "needle"})

	result, err := New(reg, fake).ScanFile(path, "r", types.KindText)
	require.NoError(t, err)
	assert.Equal(t, "custom", result.Grammar)
	assert.True(t, result.Empty())
	assert.Equal(t, 1, result.Dropped)
}

func TestScanFile_InvalidUTF8(t *testing.T) {
	fake := matchertest.New(matchertest.Rule{Name: "Any", Literal: "a"})
	s := New(builtin(t), fake)

	t.Run("in sample", func(t *testing.T) {
		path := writeFile(t, "bad.log", "ok\n\xff\xfe broken\n")
		_, err := s.ScanFile(path, "r", types.KindText)
		require.Error(t, err)

		var se *ScanError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, StageRead, se.Stage)
		assert.Equal(t, path, se.Path)
		assert.ErrorIs(t, err, types.ErrIO)
	})

	t.Run("after detection", func(t *testing.T) {
		path := writeFile(t, "bad.log", strings.Repeat(linuxLine, 12)+"Jun 14 15:16:01 combo kernel: \xc3\x28\n")
		_, err := s.ScanFile(path, "r", types.KindText)
		assert.ErrorIs(t, err, types.ErrIO)
	})

	t.Run("binary kind ignores encoding", func(t *testing.T) {
		path := writeFile(t, "bad.bin", "\xff\xfe a")
		result, err := s.ScanFile(path, "r", types.KindBinary)
		require.NoError(t, err)
		assert.Len(t, result.Records, 1)
	})
}

func TestScanFile_CompileError(t *testing.T) {
	fake := matchertest.New()
	fake.Fail = map[string]error{"broken.yml": errors.New("syntax error")}
	path := writeFile(t, "a.log", linuxLine)

	_, err := New(builtin(t), fake).ScanFile(path, "broken.yml", types.KindText)
	var se *ScanError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageCompile, se.Stage)
	assert.ErrorIs(t, err, types.ErrCompile)
}

func TestScanFile_MissingFile(t *testing.T) {
	_, err := New(builtin(t), matchertest.New()).ScanFile(filepath.Join(t.TempDir(), "nope.log"), "r", types.KindText)
	var se *ScanError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageOpen, se.Stage)
	assert.ErrorIs(t, err, types.ErrIO)
}

func TestScanFile_MatchError(t *testing.T) {
	fake := matchertest.New()
	fake.MatchErr = errors.New("engine exploded")
	path := writeFile(t, "a.bin", "data")

	_, err := New(builtin(t), fake).ScanFile(path, "r", types.KindBinary)
	var se *ScanError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageMatch, se.Stage)
	assert.Contains(t, se.Error(), "engine exploded")
}

func TestScanFile_UnknownKind(t *testing.T) {
	path := writeFile(t, "a.log", linuxLine)
	fake := matchertest.New()

	_, err := New(builtin(t), fake).ScanFile(path, "r", types.FileKind("pdf"))
	assert.ErrorIs(t, err, types.ErrConfig)
	assert.Empty(t, fake.Compiled())
}

func TestScanFile_AutoKind(t *testing.T) {
	fake := matchertest.New(matchertest.Rule{Name: "Hit", Literal: "authentication"})
	s := New(builtin(t), fake)

	result, err := s.ScanFile(writeFile(t, "blob.bin", "\x00\x00authentication"), "r", types.KindAuto)
	require.NoError(t, err)
	assert.Equal(t, types.KindBinary, result.Kind)
	require.Len(t, result.Records, 1)
	assert.Equal(t, types.NotApplicable, result.Records[0].Component)

	result, err = s.ScanFile(writeFile(t, "auth.log", linuxLine), "r", types.KindAuto)
	require.NoError(t, err)
	assert.Equal(t, types.KindText, result.Kind)
	assert.Equal(t, "linux", result.Grammar)
}

func TestRun_FaultIsolation(t *testing.T) {
	fake := matchertest.New(matchertest.Rule{Name: "SuspiciousAuth", Literal: "authentication failure"})
	fake.Fail = map[string]error{"corrupt.yml": errors.New("unexpected token")}

	a := writeFile(t, "a.log", linuxLine)
	b := writeFile(t, "b.log", linuxLine)
	c := writeFile(t, "c.log", linuxLine)
	d := writeFile(t, "d.log", "nothing to see\n")

	var seen []string
	s := New(builtin(t), fake, WithOutcomeHandler(func(o *types.Outcome) {
		seen = append(seen, o.Name())
	}))

	outcomes := s.Run([]Target{
		{Path: a, Rules: "good.yml", Kind: types.KindText},
		{Path: b, Rules: "corrupt.yml", Kind: types.KindText},
		{Path: c, Rules: "good.yml", Kind: types.KindText},
		{Path: d, Rules: "good.yml", Kind: types.KindText},
	})

	require.Len(t, outcomes, 4)
	assert.Equal(t, []string{"a.log", "b.log", "c.log", "d.log"}, seen)

	assert.Equal(t, types.StatusSuccess, outcomes[0].Status)
	assert.Equal(t, 1, outcomes[0].Count)

	assert.Equal(t, types.StatusError, outcomes[1].Status)
	assert.Contains(t, outcomes[1].Error, "unexpected token")

	assert.Equal(t, types.StatusSuccess, outcomes[2].Status)
	assert.Equal(t, outcomes[0].Result.Records, outcomes[2].Result.Records)

	assert.Equal(t, types.StatusFailure, outcomes[3].Status)
	assert.Zero(t, outcomes[3].Count)
}

func TestScanContent(t *testing.T) {
	fake := matchertest.New(matchertest.Rule{Name: "SuspiciousAuth", Literal: "authentication failure"})
	s := New(builtin(t), fake)

	result, err := s.ScanContent("auth.log", []byte(linuxLine), "r", types.KindText)
	require.NoError(t, err)
	assert.Equal(t, "auth.log", result.Path)
	assert.Equal(t, "linux", result.Grammar)
	assert.Equal(t, []types.MatchRecord{
		{Rules: []string{"SuspiciousAuth"}, Component: "combo", Content: "authentication failure", Line: 1},
	}, result.Records)

	t.Run("auto classifies by name and head", func(t *testing.T) {
		result, err := s.ScanContent("payload.bin", []byte("\x00\x01authentication failure"), "r", types.KindAuto)
		require.NoError(t, err)
		assert.Equal(t, types.KindBinary, result.Kind)
		assert.Equal(t, []types.MatchRecord{types.NewBlobRecord([]string{"SuspiciousAuth"})}, result.Records)
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		_, err := s.ScanContent("bad.log", []byte("Jun 14 15:16:01 combo kernel: \xc3\x28\n"), "r", types.KindText)
		var se *ScanError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, StageRead, se.Stage)
		assert.Equal(t, "bad.log", se.Path)
		assert.ErrorIs(t, err, types.ErrIO)
	})
}
