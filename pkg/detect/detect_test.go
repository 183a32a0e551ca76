package detect

import (
	"bufio"
	"strings"
	"testing"

	"github.com/praetorian-inc/logsift/pkg/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtin(t *testing.T) *grammar.Registry {
	t.Helper()
	reg, err := grammar.LoadBuiltin()
	require.NoError(t, err)
	return reg
}

func TestReadSample_ShortFile(t *testing.T) {
	sample, err := ReadSample(bufio.NewReader(strings.NewReader("one\r\ntwo\nthree")))
	require.NoError(t, err)

	require.Len(t, sample, SampleSize)
	assert.Equal(t, "one\n", sample[0])
	assert.Equal(t, "two\n", sample[1])
	assert.Equal(t, "three", sample[2])
	for _, line := range sample[3:] {
		assert.Empty(t, line)
	}
}

func TestReadSample_StopsAfterTenLines(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 15; i++ {
		b.WriteString("line\n")
	}
	r := bufio.NewReader(strings.NewReader(b.String()))

	sample, err := ReadSample(r)
	require.NoError(t, err)
	assert.Len(t, sample, SampleSize)

	rest, _ := r.ReadString(0)
	assert.Equal(t, strings.Repeat("line\n", 5), rest)
}

func TestDetect_Linux(t *testing.T) {
	sample := Sample{"Jun 14 15:16:01 combo sshd(pam_unix)[19939]: authentication failure\n"}
	name, ok := Detect(sample, builtin(t))
	require.True(t, ok)
	assert.Equal(t, "linux", name)
}

func TestDetect_LaterLineDecides(t *testing.T) {
	sample := Sample{
		"# exported log\n",
		"\n",
		"17/06/09 20:10:40 INFO storage.MemoryStore: Block broadcast_0 stored as values in memory\n",
	}
	name, ok := Detect(sample, builtin(t))
	require.True(t, ok)
	assert.Equal(t, "spark", name)
}

func TestDetect_NoMatch(t *testing.T) {
	sample := Sample{"hello world\n", "", "", ""}
	_, ok := Detect(sample, builtin(t))
	assert.False(t, ok)

	_, ok = Detect(nil, builtin(t))
	assert.False(t, ok)
}

func TestDetect_Anchored(t *testing.T) {
	line := "  Jun 14 15:16:01 combo sshd(pam_unix)[19939]: authentication failure\n"
	_, ok := Detect(Sample{line}, builtin(t))
	assert.False(t, ok, "a match at a non-zero offset must not classify the file")
}

func TestDetect_RegistryOrderWins(t *testing.T) {
	reg, err := grammar.Load([]byte("log_patterns:\n  broad: '^\\w+'\n  narrow: '^ERROR'\n"))
	require.NoError(t, err)

	name, ok := Detect(Sample{"ERROR boom\n"}, reg)
	require.True(t, ok)
	assert.Equal(t, "broad", name)

	reg, err = grammar.Load([]byte("log_patterns:\n  narrow: '^ERROR'\n  broad: '^\\w+'\n"))
	require.NoError(t, err)
	name, _ = Detect(Sample{"ERROR boom\n"}, reg)
	assert.Equal(t, "narrow", name)
}

func TestDetect_FirstLineBeforeGrammarOrder(t *testing.T) {
	reg, err := grammar.Load([]byte("log_patterns:\n  a: '^aaa'\n  b: '^bbb'\n"))
	require.NoError(t, err)

	name, ok := Detect(Sample{"bbb\n", "aaa\n"}, reg)
	require.True(t, ok)
	assert.Equal(t, "b", name)
}

func TestDetect_Deterministic(t *testing.T) {
	reg := builtin(t)
	sample := Sample{
		"Dec 10 06:55:46 LabSZ sshd[24200]: reverse mapping checking getaddrinfo failed\n",
		"Jun 14 15:16:01 combo sshd(pam_unix)[19939]: authentication failure\n",
	}

	first, ok := Detect(sample, reg)
	require.True(t, ok)
	for i := 0; i < 50; i++ {
		got, _ := Detect(sample, reg)
		assert.Equal(t, first, got)
	}
}

func TestNormalizeNewline(t *testing.T) {
	assert.Equal(t, "a\n", NormalizeNewline("a\r\n"))
	assert.Equal(t, "a\n", NormalizeNewline("a\n"))
	assert.Equal(t, "a\r", NormalizeNewline("a\r"))
	assert.Equal(t, "", NormalizeNewline(""))
}
