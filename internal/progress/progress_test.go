package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectSymbols(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		caps TerminalCapabilities
		want ProgressSymbols
	}{
		"unicode": {
			caps: TerminalCapabilities{IsTTY: true, SupportsUnicode: true},
			want: ProgressSymbols{Checkmark: "✓", Failure: "✗", SpinnerSet: 14},
		},
		"ascii": {
			caps: TerminalCapabilities{IsTTY: true},
			want: ProgressSymbols{Checkmark: "[OK]", Failure: "[FAIL]", SpinnerSet: 9},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SelectSymbols(tt.caps))
		})
	}
}

func TestStageInfoValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		info    StageInfo
		wantErr bool
	}{
		"numbered":     {info: StageInfo{Name: "classify", Number: 2, TotalStages: 5}},
		"unnumbered":   {info: StageInfo{Name: "classify"}},
		"missing name": {info: StageInfo{Number: 1, TotalStages: 1}, wantErr: true},
		"out of range": {info: StageInfo{Name: "x", Number: 3, TotalStages: 2}, wantErr: true},
		"negative":     {info: StageInfo{Name: "x", Number: -1}, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := tt.info.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProgressDisplay_PlainOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := NewProgressDisplay(TerminalCapabilities{}, &buf)

	lookup := StageInfo{Name: "Looking up pull requests", Number: 1, TotalStages: 2}
	generate := StageInfo{Name: "Generating section", Number: 2, TotalStages: 2}

	require.NoError(t, d.StartStage(lookup))
	require.NoError(t, d.CompleteStage(lookup))
	require.NoError(t, d.StartStage(generate))
	require.NoError(t, d.FailStage(generate, errors.New("model timed out")))
	d.StopSpinner()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "[1/2] Looking up pull requests...", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "[OK] [1/2] Looking up pull requests ("), lines[1])
	assert.Equal(t, "[2/2] Generating section...", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "[FAIL] [2/2] Generating section ("), lines[3])
	assert.True(t, strings.HasSuffix(lines[3], "): model timed out"), lines[3])
}

func TestProgressDisplay_RejectsInvalidStage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := NewProgressDisplay(TerminalCapabilities{}, &buf)

	assert.Error(t, d.StartStage(StageInfo{}))
	assert.Error(t, d.CompleteStage(StageInfo{}))
	assert.Error(t, d.FailStage(StageInfo{}, nil))
	assert.Empty(t, buf.String())
}

func TestDetectTerminalCapabilities_NotATerminal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TerminalCapabilities{}, DetectTerminalCapabilities(nil))
}
