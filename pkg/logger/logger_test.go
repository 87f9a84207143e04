package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel_Level(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			lvl, err := tt.level.Level()
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, lvl)
		})
	}

	_, err := LogLevel("verbose").Level()
	assert.Error(t, err)
}

func TestInitLoggerWithWriter(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	defer func(l zerolog.Logger) { log.Logger = l }(log.Logger)

	var buf bytes.Buffer
	require.NoError(t, InitLoggerWithWriter("warn", FormatJSON, &buf))

	log.Info().Msg("dropped")
	log.Warn().Str("Interface", "1/1/1").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "1/1/1", line["Interface"])
	assert.Contains(t, line, "time")

	assert.Error(t, InitLoggerWithWriter("info", "xml", &buf))
}
