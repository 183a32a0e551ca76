package extract

import (
	"testing"

	"github.com/praetorian-inc/logsift/pkg/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGrammar(t *testing.T, doc, name string) *grammar.Grammar {
	t.Helper()
	reg, err := grammar.Load([]byte(doc))
	require.NoError(t, err)
	g, ok := reg.Get(name)
	require.True(t, ok)
	return g
}

func TestExtract_Builtin(t *testing.T) {
	reg, err := grammar.LoadBuiltin()
	require.NoError(t, err)

	tests := []struct {
		grammar   string
		line      string
		component string
		content   string
	}{
		{"linux", "Jun 14 15:16:01 combo sshd(pam_unix)[19939]: authentication failure\n", "combo", "authentication failure"},
		{"openssh", "Dec 10 06:55:48 LabSZ sshd[24200]: Failed password for invalid user webmaster from 173.234.31.186 port 38926 ssh2", "sshd", "Failed password for invalid user webmaster from 173.234.31.186 port 38926 ssh2"},
		{"apache", "[Sun Dec 04 04:51:18 2005] [error] mod_jk child workerEnv in error state 6\n", "error", "mod_jk child workerEnv in error state 6"},
		{"hdfs", "081109 203615 148 INFO dfs.DataNode$PacketResponder: PacketResponder 1 terminating\n", "dfs.DataNode$PacketResponder", "PacketResponder 1 terminating"},
		{"spark", "17/06/09 20:11:11 ERROR executor.Executor: Exception in task 0.0\n", "executor.Executor", "Exception in task 0.0"},
		{"android", "03-17 16:13:38.811  1702  2395 D WindowManager: printFreezingDisplayLogs\n", "WindowManager", "printFreezingDisplayLogs"},
		{"mac", "Jul  1 09:01:05 calvisitor-10-105-160-95 com.apple.CDScheduler[43]: Thermal pressure state: 1\n", "com.apple.CDScheduler", "Thermal pressure state: 1"},
		{"windows", "2016-09-28 04:30:31, Info                  CBS    Starting TrustedInstaller initialization.\n", "CBS", "Starting TrustedInstaller initialization."},
		{"hadoop", "2015-10-18 18:01:50,353 INFO [main] org.apache.hadoop.mapreduce.v2.app.MRAppMaster: Executing with tokens:\n", "org.apache.hadoop.mapreduce.v2.app.MRAppMaster", "Executing with tokens:"},
		{"hpc", "134681 node-246 unix.hw state_change.unavailable 1077804742 1 Component State Change\n", "1", "Component State Change"},
	}

	for _, tt := range tests {
		t.Run(tt.grammar, func(t *testing.T) {
			g, ok := reg.Get(tt.grammar)
			require.True(t, ok)

			component, content, ok := Extract(tt.line, g)
			require.True(t, ok)
			assert.Equal(t, tt.component, component)
			assert.Equal(t, tt.content, content)
		})
	}
}

func TestExtract_ExactGroupSubstrings(t *testing.T) {
	g := mustGrammar(t, "log_patterns:\n  linux: '^(\\d+)\\s+(\\w+)\\s+(.*)$'\n", "linux")

	component, content, ok := Extract("42   kern   spaces  kept  \n", g)
	require.True(t, ok)
	assert.Equal(t, "kern", component)
	assert.Equal(t, "spaces  kept  ", content)
}

func TestExtract_NamedGroups(t *testing.T) {
	for _, pattern := range []string{
		`^(?<ts>\d+) (\S+) (.*)$`,
		`^(?P<ts>\d+) (\S+) (.*)$`,
	} {
		t.Run(pattern, func(t *testing.T) {
			g := mustGrammar(t, "log_patterns:\n  linux: '"+pattern+"'\n", "linux")

			component, content, ok := Extract("123 host message body", g)
			require.True(t, ok)
			assert.Equal(t, "host", component)
			assert.Equal(t, "message body", content)
		})
	}
}

func TestExtract_NoMatch(t *testing.T) {
	g := mustGrammar(t, "log_patterns:\n  linux: '^(\\d+) (\\w+) (.*)$'\n", "linux")

	_, _, ok := Extract("not a linux line", g)
	assert.False(t, ok)

	_, _, ok = Extract("  1 kern msg", g)
	assert.False(t, ok, "anchored")
}

func TestExtract_NoGroupMapping(t *testing.T) {
	g := mustGrammar(t, "log_patterns:\n  custom: '^(\\w+) (\\w+) (.*)$'\n", "custom")
	require.True(t, g.Matches("a b c"))

	_, _, ok := Extract("a b c", g)
	assert.False(t, ok)
}

func TestExtract_IndicesOutOfRange(t *testing.T) {
	// windows expects groups 4 and 5.
	g := mustGrammar(t, "log_patterns:\n  windows: '^(\\S+) (\\S+) (.*)$'\n", "windows")
	require.True(t, g.Matches("2016-09-28 04:30:30 Info"))

	_, _, ok := Extract("2016-09-28 04:30:30 Info", g)
	assert.False(t, ok)
}

func TestExtract_NonParticipatingGroup(t *testing.T) {
	g := mustGrammar(t, "log_patterns:\n  linux: '^(\\w+) (?:(\\w+)\\[\\d+\\])?(.*)$'\n", "linux")

	_, _, ok := Extract("host plain message", g)
	assert.False(t, ok)

	component, content, ok := Extract("host sshd[1]: msg", g)
	require.True(t, ok)
	assert.Equal(t, "sshd", component)
	assert.Equal(t, ": msg", content)
}

func TestExtract_EmptyCapturesAreReturned(t *testing.T) {
	g := mustGrammar(t, "log_patterns:\n  linux: '^(\\w*) (\\w*) (.*)$'\n", "linux")

	component, content, ok := Extract("a  \n", g)
	require.True(t, ok)
	assert.Equal(t, "", component)
	assert.Equal(t, "", content)
}

func TestExtract_NilGrammar(t *testing.T) {
	_, _, ok := Extract("anything", nil)
	assert.False(t, ok)
}
