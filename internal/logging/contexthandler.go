package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	gameIDKey ctxKey = iota
	playerIDKey
)

// WithGameID returns a context whose log records carry game_id.
func WithGameID(ctx context.Context, gameID string) context.Context {
	return context.WithValue(ctx, gameIDKey, gameID)
}

// WithPlayerID returns a context whose log records carry player_id.
func WithPlayerID(ctx context.Context, playerID string) context.Context {
	return context.WithValue(ctx, playerIDKey, playerID)
}

// GameIDFromContext returns the game id stored by WithGameID.
func GameIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(gameIDKey).(string)
	return id, ok && id != ""
}

// ContextHandler wraps another handler and copies request identifiers from the
// record's context into its attributes.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler creates a handler that adds context identifiers to each record.
func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

// Enabled delegates to the inner handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds game_id and player_id when present and delegates to the inner handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id, ok := GameIDFromContext(ctx); ok {
			r.AddAttrs(slog.String("game_id", id))
		}
		if id, ok := ctx.Value(playerIDKey).(string); ok && id != "" {
			r.AddAttrs(slog.String("player_id", id))
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}
