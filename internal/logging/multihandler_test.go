package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenHandler accepts every level and fails every record.
type brokenHandler struct{ slog.Handler }

func (brokenHandler) Enabled(context.Context, slog.Level) bool { return true }

func (brokenHandler) Handle(context.Context, slog.Record) error {
	return errors.New("graylog unreachable")
}

func textHandler(buf *bytes.Buffer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})
}

func TestMultiHandler_FanOut(t *testing.T) {
	var file, console bytes.Buffer
	multi := NewMultiHandler(nil, textHandler(&file, slog.LevelInfo), nil, textHandler(&console, slog.LevelInfo))
	require.Len(t, multi.handlers, 2)

	slog.New(multi).Info("game finished", "winner", "bob")

	assert.Contains(t, file.String(), "winner=bob")
	assert.Contains(t, console.String(), "winner=bob")
}

func TestMultiHandler_Enabled(t *testing.T) {
	ctx := context.Background()
	info := textHandler(&bytes.Buffer{}, slog.LevelInfo)
	debug := textHandler(&bytes.Buffer{}, slog.LevelDebug)

	assert.False(t, NewMultiHandler().Enabled(ctx, slog.LevelError))
	assert.False(t, NewMultiHandler(info).Enabled(ctx, slog.LevelDebug))
	assert.True(t, NewMultiHandler(info, debug).Enabled(ctx, slog.LevelDebug))
}

func TestMultiHandler_FailingHandler(t *testing.T) {
	var file bytes.Buffer
	multi := NewMultiHandler(brokenHandler{}, textHandler(&file, slog.LevelInfo))

	err := multi.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "goma moved", 0))
	assert.EqualError(t, err, "graylog unreachable")
	assert.Contains(t, file.String(), "goma moved")
}

func TestMultiHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(textHandler(&buf, slog.LevelInfo))

	assert.Same(t, multi, multi.WithGroup(""))

	logger := slog.New(multi.WithAttrs([]slog.Attr{slog.String("component", "publisher")}).WithGroup("goma"))
	logger.Info("captured", "name", "SUI")

	assert.Contains(t, buf.String(), "component=publisher")
	assert.Contains(t, buf.String(), "goma.name=SUI")
}
