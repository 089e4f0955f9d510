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

func TestSetupWriter_JSON(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	require.NoError(t, SetupWriter("warn", "json", &buf))

	log.Info().Msg("hidden")
	log.Warn().Str("source", "ecb").Msg("source failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "ecb", entry["source"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestSetupWriter_Invalid(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, SetupWriter("loud", "json", &buf))
	assert.Error(t, SetupWriter("info", "xml", &buf))
}
