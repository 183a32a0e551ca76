package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileKind(t *testing.T) {
	tests := []struct {
		in      string
		want    FileKind
		wantErr bool
	}{
		{in: "text", want: KindText},
		{in: " Binary ", want: KindBinary},
		{in: "SCRIPT", want: KindScript},
		{in: "database", want: KindDatabase},
		{in: "config", want: KindConfig},
		{in: "auto", want: KindAuto},
		{in: "pdf", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFileKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLineOriented(t *testing.T) {
	assert.True(t, KindText.LineOriented())
	for _, k := range []FileKind{KindBinary, KindScript, KindDatabase, KindConfig} {
		assert.False(t, k.LineOriented(), k)
	}
}

func TestMatchRecord(t *testing.T) {
	rec := MatchRecord{Rules: []string{"A", "B"}, Component: "sshd", Content: "fail"}
	assert.Equal(t, "A, B", rec.RuleField())
	assert.Equal(t, []string{"A, B", "sshd", "fail"}, rec.Row())

	blob := NewBlobRecord([]string{"X"})
	assert.Equal(t, []string{"X", NotApplicable, NotApplicable}, blob.Row())
	assert.Zero(t, blob.Line)
}

func TestScanResultEmpty(t *testing.T) {
	var nilResult *ScanResult
	assert.True(t, nilResult.Empty())

	r := &ScanResult{}
	assert.True(t, r.Empty())
	r.Add(NewBlobRecord([]string{"X"}))
	assert.False(t, r.Empty())
}

func TestNewOutcome(t *testing.T) {
	full := &ScanResult{Records: []MatchRecord{NewBlobRecord([]string{"A"}), NewBlobRecord([]string{"B"})}}

	o := NewOutcome("/logs/a.log", full, nil)
	assert.Equal(t, StatusSuccess, o.Status)
	assert.Equal(t, 2, o.Count)
	assert.Equal(t, "a.log", o.Name())

	o = NewOutcome("/logs/b.log", &ScanResult{}, nil)
	assert.Equal(t, StatusFailure, o.Status)
	assert.Zero(t, o.Count)

	o = NewOutcome("/logs/c.log", nil, errors.New("boom"))
	assert.Equal(t, StatusError, o.Status)
	assert.Equal(t, "boom", o.Error)
}

func TestRuleStructuralID(t *testing.T) {
	r := &Rule{ID: "x", Pattern: "abc"}
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", r.ComputeStructuralID())
	assert.Equal(t, "x", r.DisplayName())
	r.Name = "Named"
	assert.Equal(t, "Named", r.DisplayName())
}
