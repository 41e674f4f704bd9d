package logging

import (
	"bytes"
	"encoding/json"
	stdlog "log"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter(&buf, "debug", true)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger.Info().Str("k", "v").Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "hello", entry["message"])
	require.Equal(t, "v", entry["k"])
}

func TestSetupWriter_RedirectsStandardLog(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "info", true)

	stdlog.Printf("connected to %s", "mongo")
	require.Contains(t, buf.String(), "connected to mongo")
}

func TestSetupWriter_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "loud", true)
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestFor_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "info", true)

	l := For("rating")
	l.Info().Msg("x")
	require.Contains(t, buf.String(), `"component":"rating"`)
}
