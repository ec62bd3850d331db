package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kitpress-go/framework/internal/facade"
)

func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}
	return records
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}

	_, err := ParseLevel("loud")
	require.ErrorIs(t, err, ErrInvalidLevel)
}

func TestNew_JSONWithExtractors(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Writer: &buf}, DefaultExtractors()...)
	require.NoError(t, err)

	ctx := WithRequestID(facade.WithNamespace(context.Background(), "shop"), "req-1")
	logger.DebugContext(ctx, "hidden")
	logger.InfoContext(ctx, "visible", slog.Int("n", 1))
	logger.Info("plain")

	records := decode(t, &buf)
	require.Len(t, records, 2)

	require.Equal(t, "visible", records[0]["msg"])
	require.Equal(t, "shop", records[0]["tenant"])
	require.Equal(t, "req-1", records[0]["request_id"])
	require.EqualValues(t, 1, records[0]["n"])

	require.NotContains(t, records[1], "tenant")
	require.NotContains(t, records[1], "request_id")
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "text", Writer: &buf})
	require.NoError(t, err)

	logger.Info("hello", slog.String("k", "v"))
	require.Contains(t, buf.String(), "msg=hello")
	require.Contains(t, buf.String(), "k=v")
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.ErrorIs(t, err, ErrInvalidLevel)

	_, err = New(Config{Format: "xml", Writer: &bytes.Buffer{}})
	require.Error(t, err)

	_, err = New(Config{Output: filepath.Join(t.TempDir(), "missing", "app.log")})
	require.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := New(Config{Output: path})
	require.NoError(t, err)

	logger.Info("to file")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"to file"`)
}

func TestChannels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf})
	require.NoError(t, err)

	channels := NewChannels(logger.Logger)
	require.Same(t, channels.Channel("db"), channels.Channel("db"))

	channels.Channel("db").Info("query")
	channels.Channel("cache").Info("miss")

	records := decode(t, &buf)
	require.Len(t, records, 2)
	require.Equal(t, "db", records[0]["channel"])
	require.Equal(t, "cache", records[1]["channel"])
}

func TestMultiHandler(t *testing.T) {
	var debugBuf, errorBuf bytes.Buffer
	h := newMultiHandler(
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(h).With(slog.String("app", "kitpress"))

	logger.Debug("debug")
	logger.Error("error")

	require.Len(t, decode(t, &debugBuf), 2)
	errors := decode(t, &errorBuf)
	require.Len(t, errors, 1)
	require.Equal(t, "kitpress", errors[0]["app"])
}

func TestDecoratorSkipsNilExtractors(t *testing.T) {
	var buf bytes.Buffer
	h := NewLogHandlerDecorator(slog.NewJSONHandler(&buf, nil), nil, RequestIDExtractor)
	slog.New(h).WithGroup("g").InfoContext(WithRequestID(context.Background(), "abc"), "msg")

	require.Contains(t, buf.String(), `"request_id":"abc"`)
}

func TestNop(t *testing.T) {
	require.False(t, Nop().Enabled(context.Background(), slog.LevelError))
}
