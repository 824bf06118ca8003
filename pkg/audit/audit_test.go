package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Build(t *testing.T) {
	rec := NewRecord().
		Network("SiouxFalls", 24, 76, 528).
		RUM("mnl", 0.5).
		Thresholds(1.3, 1e-4).
		Result(OutcomeConverged, 12, 3.2e-5, 250*time.Millisecond).
		Meta("parallel", true).
		Build()

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "SiouxFalls", rec.NetworkName)
	assert.Equal(t, OutcomeConverged, rec.Outcome)
	assert.Equal(t, 12, rec.OuterIterations)
	assert.Equal(t, int64(250), rec.DurationMs)
	assert.Equal(t, true, rec.Metadata["parallel"])
}

func TestNew_Disabled(t *testing.T) {
	l, err := New(Config{Enabled: false})
	require.NoError(t, err)
	_, ok := l.(*NoopLogger)
	assert.True(t, ok)
	assert.NoError(t, l.Log(NewRecord().Build()))
	assert.NoError(t, l.Close())
}

func TestNew_Stdout(t *testing.T) {
	l, err := New(Config{Enabled: true, Backend: "stdout"})
	require.NoError(t, err)
	assert.NoError(t, l.Log(NewRecord().Build()))
	assert.NoError(t, l.Close())
}

func TestFileLogger_WritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")

	l, err := New(Config{Enabled: true, Backend: "file", FilePath: path})
	require.NoError(t, err)

	rec := NewRecord().Network("toy", 2, 1, 1).Result(OutcomeNonConvergence, 100, 0.01, time.Second).Build()
	require.NoError(t, l.Log(rec))
	require.NoError(t, l.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var got RunRecord
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &got))
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, OutcomeNonConvergence, got.Outcome)
}
