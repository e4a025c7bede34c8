package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/gungi-online/gungi/internal/dispatcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ dispatcher.Logger = (*DispatcherLogger)(nil)

func TestDispatcherLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(dl *DispatcherLogger)
		want  map[string]any
	}{
		{
			level: "DEBUG",
			log:   func(dl *DispatcherLogger) { dl.Debug("dispatching", "command", ":GUNGI:ARATA:", "args", 2) },
			want:  map[string]any{"msg": "dispatching", "command": ":GUNGI:ARATA:", "args": float64(2)},
		},
		{
			level: "INFO",
			log:   func(dl *DispatcherLogger) { dl.Info("handler registered", "command", ":GUNGI:UGOKI:") },
			want:  map[string]any{"msg": "handler registered", "command": ":GUNGI:UGOKI:"},
		},
		{
			level: "ERROR",
			log:   func(dl *DispatcherLogger) { dl.Error("handler failed", "game_id", "g-7", "error", "not your turn") },
			want:  map[string]any{"msg": "handler failed", "game_id": "g-7", "error": "not your turn"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			dl := NewDispatcherLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
			tt.log(dl)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
			for k, v := range tt.want {
				assert.Equal(t, v, entry[k], k)
			}
		})
	}
}

func TestDispatcherLogger_RespectsHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError})))

	dl.Debug("queued broadcast")
	dl.Info("queue drained")
	assert.Zero(t, buf.Len())

	dl.Error("broadcast dropped")
	assert.Contains(t, buf.String(), "broadcast dropped")
}
