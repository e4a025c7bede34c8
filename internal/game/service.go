// Package game is the use-case layer: it loads a game, runs one operation on
// it, saves it and publishes what happened.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gungi-online/gungi/internal/logging"
	"github.com/gungi-online/gungi/internal/parser"
	"github.com/gungi-online/gungi/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// DefaultTimeout bounds load and save when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Repository loads and stores games. storage.Repository satisfies it.
type Repository interface {
	FindByID(ctx context.Context, id string) (*core.Gungi, error)
	Save(ctx context.Context, g *core.Gungi) error
}

// Broadcaster publishes the events of a saved operation.
type Broadcaster interface {
	Broadcast(ctx context.Context, gameID string, events []core.Event) error
}

// Dependencies holds all dependencies for the game service.
type Dependencies struct {
	Repository  Repository
	Broadcaster Broadcaster
	Logger      *slog.Logger
	Meter       metric.Meter
	// RNG drives furigoma. Defaults to a time-seeded math/rand source.
	RNG core.Randomizer
	// NewID generates game ids. Defaults to random UUIDs.
	NewID        func() string
	DefaultLevel core.Level
	Timeout      time.Duration
}

// Service runs game operations. Operations on one game are serialized; a
// failed operation leaves the stored game untouched.
type Service struct {
	repo       Repository
	broadcast  Broadcaster
	logger     *slog.Logger
	rng        core.Randomizer
	newID      func() string
	level      core.Level
	timeout    time.Duration
	locks      *keyedMutex
	operations metric.Int64Counter
}

// NewService creates a new game service.
func NewService(deps Dependencies) (*Service, error) {
	if deps.Repository == nil {
		return nil, errors.New("game service requires a repository")
	}

	s := &Service{
		repo:      deps.Repository,
		broadcast: deps.Broadcaster,
		logger:    deps.Logger,
		rng:       newLockedRand(deps.RNG),
		newID:     deps.NewID,
		level:     deps.DefaultLevel,
		timeout:   deps.Timeout,
		locks:     newKeyedMutex(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if !s.level.Valid() {
		s.level = core.LevelBeginner
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}

	m := deps.Meter
	if m == nil {
		m = noop.Meter{}
	}
	var err error
	s.operations, err = m.Int64Counter(
		"gungi.operations",
		metric.WithDescription("Total game operations by name and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating operations counter: %w", err)
	}

	return s, nil
}

// InFlight returns the number of games with an operation running or waiting.
func (s *Service) InFlight() int {
	return s.locks.len()
}

// Created is the result of CreateGame.
type Created struct {
	GameID string `json:"gameId"`
	URL    string `json:"url"`
}

// CreateGame seats two players in a new game awaiting furigoma.
func (s *Service) CreateGame(ctx context.Context, cmd parser.CreateGame) (Created, error) {
	level := cmd.Level
	if level == 0 {
		level = s.level
	}

	id := s.newID()
	ctx = logging.WithGameID(ctx, id)
	g, err := core.New(id, level, cmd.Players)
	if err != nil {
		s.record(ctx, "create", err)
		return Created{}, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	saveCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Save(saveCtx, g); err != nil {
		s.record(ctx, "create", err)
		return Created{}, err
	}

	s.record(ctx, "create", nil)
	s.logger.InfoContext(ctx, "game created", "level", level.String(),
		"white", cmd.Players[0].ID, "black", cmd.Players[1].ID)
	return Created{GameID: id, URL: "/gungi/" + id}, nil
}

// Furigoma throws the hei for the player and fixes sente and gote.
func (s *Service) Furigoma(ctx context.Context, cmd parser.PlayerCommand) (core.FurigomaResolved, error) {
	events, err := s.mutate(ctx, "furigoma", cmd, func(g *core.Gungi) ([]core.Event, error) {
		return g.Furigoma(cmd.PlayerID, s.rng)
	})
	if err != nil {
		return core.FurigomaResolved{}, err
	}
	return events[0].Data.(core.FurigomaResolved), nil
}

// Place drops a piece from the player's stock (arata).
func (s *Service) Place(ctx context.Context, cmd parser.Arata) (core.GomaPlaced, error) {
	events, err := s.mutate(ctx, "arata", cmd.PlayerCommand, func(g *core.Gungi) ([]core.Event, error) {
		return g.PlaceGoma(cmd.PlayerID, cmd.Goma, cmd.To)
	})
	if err != nil {
		return core.GomaPlaced{}, err
	}
	return events[0].Data.(core.GomaPlaced), nil
}

// Move moves the top piece of a tower (ugoki). The second event, if any, is
// the SuiCaptured that ended the game.
func (s *Service) Move(ctx context.Context, cmd parser.Ugoki) ([]core.Event, error) {
	return s.mutate(ctx, "ugoki", cmd.PlayerCommand, func(g *core.Gungi) ([]core.Event, error) {
		return g.MoveGoma(cmd.PlayerID, cmd.From, cmd.To)
	})
}

// Surrender resigns for the player and returns the winner's id.
func (s *Service) Surrender(ctx context.Context, cmd parser.PlayerCommand) (string, error) {
	events, err := s.mutate(ctx, "surrender", cmd, func(g *core.Gungi) ([]core.Event, error) {
		return g.Surrender(cmd.PlayerID)
	})
	if err != nil {
		return "", err
	}
	return events[0].Data.(core.GameSurrendered).WinnerID, nil
}

// State returns the snapshot of a game.
func (s *Service) State(ctx context.Context, gameID string) (core.Snapshot, error) {
	ctx = logging.WithGameID(ctx, gameID)
	loadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	g, err := s.repo.FindByID(loadCtx, gameID)
	s.record(ctx, "state", err)
	if err != nil {
		return core.Snapshot{}, err
	}
	return g.Snapshot(), nil
}

// LegalActions lists what a player could do right now. Stuck is set when there
// is nothing at all.
type LegalActions struct {
	Placements map[core.GomaName][]core.Coordinate `json:"placements"`
	Moves      []MoveOption                        `json:"moves"`
	Stuck      bool                                `json:"stuck"`
}

// MoveOption is a movable piece and where it may go.
type MoveOption struct {
	From core.Coordinate   `json:"from"`
	To   []core.Coordinate `json:"to"`
}

// LegalMoves computes the legal placements and moves of a player.
func (s *Service) LegalMoves(ctx context.Context, cmd parser.PlayerCommand) (LegalActions, error) {
	ctx = logging.WithPlayerID(logging.WithGameID(ctx, cmd.GameID), cmd.PlayerID)
	loadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	actions, err := func() (LegalActions, error) {
		g, err := s.repo.FindByID(loadCtx, cmd.GameID)
		if err != nil {
			return LegalActions{}, err
		}
		placements, err := g.LegalPlacements(cmd.PlayerID)
		if err != nil {
			return LegalActions{}, err
		}
		moves, err := g.LegalMoves(cmd.PlayerID)
		if err != nil {
			return LegalActions{}, err
		}
		ok, err := g.HasLegalAction(cmd.PlayerID)
		if err != nil {
			return LegalActions{}, err
		}
		return LegalActions{Placements: placements, Moves: sortedMoves(moves), Stuck: !ok}, nil
	}()
	s.record(ctx, "legal", err)
	return actions, err
}

// mutate runs fn on a freshly loaded copy of the game under the game's lock,
// saves it and publishes the events. Nothing is saved when fn fails.
func (s *Service) mutate(ctx context.Context, op string, cmd parser.PlayerCommand, fn func(g *core.Gungi) ([]core.Event, error)) ([]core.Event, error) {
	ctx = logging.WithPlayerID(logging.WithGameID(ctx, cmd.GameID), cmd.PlayerID)

	unlock := s.locks.Lock(cmd.GameID)
	events, err := s.apply(ctx, cmd.GameID, fn)
	unlock()

	s.record(ctx, op, err)
	if err != nil {
		s.logger.DebugContext(ctx, "operation rejected", "op", op, "error", err)
		return nil, err
	}

	s.publish(ctx, cmd.GameID, events)
	return events, nil
}

func (s *Service) apply(ctx context.Context, gameID string, fn func(g *core.Gungi) ([]core.Event, error)) ([]core.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	g, err := s.repo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	events, err := fn(g)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, g); err != nil {
		return nil, err
	}
	return events, nil
}

// publish hands events to the broadcaster. Failures are logged only: the
// operation is already saved.
func (s *Service) publish(ctx context.Context, gameID string, events []core.Event) {
	if s.broadcast == nil || len(events) == 0 {
		return
	}
	if err := s.broadcast.Broadcast(ctx, gameID, events); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish game events", "error", err, "events", len(events))
	}
}

func (s *Service) record(ctx context.Context, op string, err error) {
	s.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", Outcome(err)),
	))
}

// Outcome classifies an operation error by its taxonomy sentinel.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrValidation):
		return "validation"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrIllegalState):
		return "illegal_state"
	case errors.Is(err, core.ErrIllegalMove):
		return "illegal_move"
	case errors.Is(err, core.ErrPersistence):
		return "persistence"
	default:
		return "internal"
	}
}
