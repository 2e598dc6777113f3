package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/pkg/requestcontext"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelInfo).With("component", "test")

	ctx := requestcontext.WithRequestID(context.Background(), "req-1")
	ctx = requestcontext.WithAPIKeyID(ctx, "key-1")

	t.Run("adds request scoped attributes", func(t *testing.T) {
		buf.Reset()
		log.InfoContext(ctx, "hello")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "req-1", entry["request_id"])
		assert.Equal(t, "key-1", entry["api_key_id"])
		assert.Equal(t, "test", entry["component"])
	})

	t.Run("does not duplicate an explicit request_id", func(t *testing.T) {
		buf.Reset()
		log.InfoContext(ctx, "hello", "request_id", "req-1")
		assert.Equal(t, 1, strings.Count(buf.String(), `"request_id"`))
	})

	t.Run("respects level", func(t *testing.T) {
		buf.Reset()
		log.DebugContext(ctx, "hidden")
		assert.Empty(t, buf.String())
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
