package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/gungi-online/gungi/internal/dispatcher"
)

// Commands understood by the worker. Player commands take [gameID, body];
// CommandLegal takes [gameID, playerID].
const (
	CommandCreate    = ":GUNGI:CREATE:"
	CommandFurigoma  = ":GUNGI:FURIGOMA:"
	CommandArata     = ":GUNGI:ARATA:"
	CommandUgoki     = ":GUNGI:UGOKI:"
	CommandSurrender = ":GUNGI:SURRENDER:"
	CommandState     = ":GUNGI:STATE:"
	CommandLegal     = ":GUNGI:LEGAL:"
	CommandBroadcast = ":GUNGI:BROADCAST:"
)

// BroadcastQueueSize bounds the events waiting for the publisher.
const BroadcastQueueSize = 1000

// RegisterHandlers registers all game handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Game operations - sync, the caller waits for the outcome
	d.Register(CommandCreate, m.handleCreate, dispatcher.Logged())
	d.Register(CommandFurigoma, m.handleFurigoma, dispatcher.Logged())
	d.Register(CommandArata, m.handleArata, dispatcher.Logged())
	d.Register(CommandUgoki, m.handleUgoki, dispatcher.Logged())
	d.Register(CommandSurrender, m.handleSurrender, dispatcher.Logged())

	// Reads
	d.Register(CommandState, m.handleState)
	d.Register(CommandLegal, m.handleLegal)

	// Publishing - buffered, blocks rather than losing events
	if m.deps.Publisher != nil {
		d.Register(CommandBroadcast, m.handleBroadcast, dispatcher.Buffered(BroadcastQueueSize), dispatcher.Blocking())
	}
}

// arg returns the i-th argument or "" when the event has fewer.
func arg(e dispatcher.Event, i int) string {
	if i < len(e.Args) {
		return e.Args[i]
	}
	return ""
}

func (m *Manager) handleCreate(ctx context.Context, e dispatcher.Event) (any, error) {
	cmd, err := m.deps.Parser.ParseCreateGame([]byte(arg(e, 0)))
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	created, err := m.deps.Service.CreateGame(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return created, nil
}

func (m *Manager) handleFurigoma(ctx context.Context, e dispatcher.Event) (any, error) {
	cmd, err := m.deps.Parser.ParsePlayerCommand(arg(e, 0), []byte(arg(e, 1)))
	if err != nil {
		return nil, fmt.Errorf("failed to throw furigoma: %w", err)
	}
	resolved, err := m.deps.Service.Furigoma(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to throw furigoma: %w", err)
	}
	return resolved, nil
}

func (m *Manager) handleArata(ctx context.Context, e dispatcher.Event) (any, error) {
	cmd, err := m.deps.Parser.ParseArata(arg(e, 0), []byte(arg(e, 1)))
	if err != nil {
		return nil, fmt.Errorf("failed to place goma: %w", err)
	}
	placed, err := m.deps.Service.Place(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to place goma: %w", err)
	}
	return placed, nil
}

func (m *Manager) handleUgoki(ctx context.Context, e dispatcher.Event) (any, error) {
	cmd, err := m.deps.Parser.ParseUgoki(arg(e, 0), []byte(arg(e, 1)))
	if err != nil {
		return nil, fmt.Errorf("failed to move goma: %w", err)
	}
	events, err := m.deps.Service.Move(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to move goma: %w", err)
	}
	return events, nil
}

func (m *Manager) handleSurrender(ctx context.Context, e dispatcher.Event) (any, error) {
	cmd, err := m.deps.Parser.ParsePlayerCommand(arg(e, 0), []byte(arg(e, 1)))
	if err != nil {
		return nil, fmt.Errorf("failed to surrender: %w", err)
	}
	winner, err := m.deps.Service.Surrender(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to surrender: %w", err)
	}
	return winner, nil
}

func (m *Manager) handleState(ctx context.Context, e dispatcher.Event) (any, error) {
	id, err := m.deps.Parser.ParseGameID(arg(e, 0))
	if err != nil {
		return nil, err
	}
	return m.deps.Service.State(ctx, id)
}

func (m *Manager) handleLegal(ctx context.Context, e dispatcher.Event) (any, error) {
	cmd, err := m.deps.Parser.ParseLegalQuery(arg(e, 0), arg(e, 1))
	if err != nil {
		return nil, err
	}
	return m.deps.Service.LegalMoves(ctx, cmd)
}

func (m *Manager) handleBroadcast(ctx context.Context, e dispatcher.Event) (any, error) {
	b, ok := e.Payload.(Broadcast)
	if !ok {
		return nil, errors.New("broadcast event without payload")
	}
	if err := m.deps.Publisher.Broadcast(ctx, b.GameID, b.Events); err != nil {
		return nil, fmt.Errorf("failed to publish %d events for game %s: %w", len(b.Events), b.GameID, err)
	}
	return nil, nil
}
