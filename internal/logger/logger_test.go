package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	log := New("warn", "json", &buf)
	log.Info().Msg("hidden")
	log.Warn().Str("room_id", "ABC").Msg("shown")

	var line map[string]any
	req.NoError(json.Unmarshal(buf.Bytes(), &line))
	req.Equal("shown", line["message"])
	req.Equal("ABC", line["room_id"])
	req.Equal("warn", line["level"])
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("loud", "json", &buf)
	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	require.Contains(t, buf.String(), "shown")
	require.NotContains(t, buf.String(), "hidden")
}
