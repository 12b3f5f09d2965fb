package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("minichaind", "warn", "json", &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Str("chain", "chain:1").Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	require.Equal(t, "shown", entry["message"])
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "minichaind", entry["app"])
	require.Equal(t, "chain:1", entry["chain"])
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("minichaind", "", "console", &buf)
	require.NoError(t, err)

	logger.Info().Msg("runtime started")
	require.Contains(t, buf.String(), "runtime started")
}

func TestNew_RejectsBadInput(t *testing.T) {
	_, err := New("x", "loud", "json", nil)
	require.Error(t, err)

	_, err = New("x", "info", "xml", nil)
	require.Error(t, err)
}
