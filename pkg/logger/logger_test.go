package logger

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupToFile builds a logger writing JSON lines into a temp file and
// returns a reader for what was written.
func setupToFile(t *testing.T, cfg Config) func() []map[string]any {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rsuet.log")
	cfg.Output = "file"
	cfg.FilePath = path
	Setup(cfg)

	return func() []map[string]any {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var records []map[string]any
		for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			if line == "" {
				continue
			}
			var rec map[string]any
			require.NoError(t, json.Unmarshal([]byte(line), &rec))
			records = append(records, rec)
		}
		return records
	}
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	read := setupToFile(t, Config{Level: "info"})

	Info("network loaded", "nodes", 24)
	records := read()
	require.Len(t, records, 1)
	assert.Equal(t, "network loaded", records[0]["msg"])
	assert.Equal(t, float64(24), records[0]["nodes"])
}

func TestSetup_LevelFiltersDebug(t *testing.T) {
	read := setupToFile(t, Config{Level: "warn"})

	Debug("dropped")
	Info("dropped too")
	Warn("kept")
	records := read()
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0]["msg"])
}

func TestSetup_UnknownLevelDefaultsToInfo(t *testing.T) {
	read := setupToFile(t, Config{Level: "chatty"})

	Debug("dropped")
	Info("kept")
	records := read()
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0]["msg"])
}

func TestSetup_InstallsSlogDefault(t *testing.T) {
	read := setupToFile(t, Config{Level: "info"})

	// Library code that only knows slog must land in the same handler.
	slog.Default().Info("via default")
	records := read()
	require.Len(t, records, 1)
	assert.Equal(t, "via default", records[0]["msg"])
}

func TestRun_TagsRecordsWithRunID(t *testing.T) {
	read := setupToFile(t, Config{Level: "info"})

	Run("run-42").Info("solving")
	records := read()
	require.Len(t, records, 1)
	assert.Equal(t, "run-42", records[0]["run_id"])
}

func TestComponent_TagsRecords(t *testing.T) {
	read := setupToFile(t, Config{Level: "info"})

	Component("dijkstra").Warn("unreachable destination")
	records := read()
	require.Len(t, records, 1)
	assert.Equal(t, "dijkstra", records[0]["component"])
}

func TestSetup_TextFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rsuet.log")
	Setup(Config{Level: "info", Format: "text", Output: "file", FilePath: path})

	Info("plain text", "edges", 76)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=\"plain text\"")
	assert.Contains(t, string(data), "edges=76")
}

func TestSetup_DebugAddsSource(t *testing.T) {
	read := setupToFile(t, Config{Level: "debug"})

	Debug("where am I")
	records := read()
	require.Len(t, records, 1)
	assert.Contains(t, records[0], "source")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
