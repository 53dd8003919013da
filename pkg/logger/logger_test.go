package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-engine/pkg/logger"
)

func TestNew_JSONConServicioYComponente(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "debug", Service: "stock-engine", Output: &buf})

	comp := l.Component("stock_executor")
	comp.Debug().Str("branch_id", "b1").Msg("lote confirmado")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stock-engine", entry["service"])
	assert.Equal(t, "stock_executor", entry["component"])
	assert.Equal(t, "b1", entry["branch_id"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNew_NivelInvalidoUsaInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "verbose", Output: &buf})

	l.Debug().Msg("no debe salir")
	assert.Empty(t, buf.String())

	l.Info().Msg("sí sale")
	assert.Contains(t, buf.String(), "sí sale")
}
