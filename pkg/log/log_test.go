package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestRequestIDIsLogged(t *testing.T) {
	var buf bytes.Buffer
	l := New(zapcore.AddSync(&buf), ZapConfig{Level: "debug", Encoding: "json"})

	ctx := WithRequestID(context.Background(), "req-1")
	l.Infof(ctx, "created %d", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "created 7", line["msg"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "INFO", line["level"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(zapcore.AddSync(&buf), ZapConfig{Level: "warn", Encoding: "json"})

	l.Info(context.Background(), "hidden")
	l.Warn(context.Background(), "shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestRequestIDMissing(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
	NewNop().Error(context.Background(), "nothing happens")
}
