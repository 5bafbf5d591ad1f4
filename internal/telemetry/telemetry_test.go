package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("info", "json", &buf)
	require.NoError(t, err)
	logger.Info("index rebuilt", "triples", 3)
	assert.Contains(t, buf.String(), `"msg":"index rebuilt"`)
	assert.Contains(t, buf.String(), `"triples":3`)

	buf.Reset()
	logger, err = NewLogger("warn", "text", &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestNewLogger_Rejects(t *testing.T) {
	_, err := NewLogger("loud", "text", &bytes.Buffer{})
	require.Error(t, err)

	_, err = NewLogger("info", "xml", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want text or json")
}

func TestInitTracing_StdoutExporter(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	tp, shutdown, err := InitTracing(ctx, TracingConfig{ServiceName: "tristore-test", ServiceVersion: "dev", Writer: &buf})
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(ctx, "tristore.insert")
	span.End()
	require.NoError(t, shutdown(ctx))

	assert.Contains(t, buf.String(), `"Name": "tristore.insert"`)
	assert.Contains(t, buf.String(), "tristore-test")
}
