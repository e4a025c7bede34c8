package publisher

import (
	"context"
	"log/slog"

	"github.com/gungi-online/gungi/pkg/core"
)

// LogPublisher writes each event as a structured log record.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher logging to logger, or slog.Default when nil.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Broadcast(ctx context.Context, gameID string, events []core.Event) error {
	for _, e := range events {
		p.logger.InfoContext(ctx, "game event",
			"game_id", gameID,
			"event", string(e.Name),
			"data", e.Data,
		)
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }
