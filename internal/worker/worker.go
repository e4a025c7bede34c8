package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gungi-online/gungi/internal/dispatcher"
	"github.com/gungi-online/gungi/internal/game"
	"github.com/gungi-online/gungi/internal/parser"
	"github.com/gungi-online/gungi/internal/publisher"
	"github.com/gungi-online/gungi/pkg/core"
)

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Service   *game.Service
	Parser    *parser.Parser
	Publisher publisher.Publisher
	Logger    *slog.Logger
}

// Manager turns dispatcher commands into game service calls
type Manager struct {
	deps   Dependencies
	logger *slog.Logger
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(logger)
	}
	return &Manager{deps: deps, logger: logger}
}

// Broadcast is the payload of a CommandBroadcast event.
type Broadcast struct {
	GameID string
	Events []core.Event
}

// Broadcaster hands saved events to the dispatcher's broadcast queue so
// publishing never holds up the operation that produced them.
type Broadcaster struct {
	d *dispatcher.Dispatcher
}

// NewBroadcaster returns a game.Broadcaster that enqueues on d.
func NewBroadcaster(d *dispatcher.Dispatcher) *Broadcaster {
	return &Broadcaster{d: d}
}

func (b *Broadcaster) Broadcast(ctx context.Context, gameID string, events []core.Event) error {
	_, err := b.d.Dispatch(ctx, dispatcher.Event{
		Command: CommandBroadcast,
		Args:    []string{gameID},
		Payload: Broadcast{GameID: gameID, Events: events},
	})
	if err != nil {
		return fmt.Errorf("queueing broadcast: %w", err)
	}
	return nil
}
