package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gungi-online/gungi/internal/config"
	"github.com/gungi-online/gungi/internal/parser"
	"github.com/gungi-online/gungi/internal/storage/memory"
	"github.com/gungi-online/gungi/internal/testutil"
	"github.com/gungi-online/gungi/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// broadcasts records what the service published.
type broadcasts struct {
	mu     sync.Mutex
	calls  []string
	events [][]core.Event
	err    error
}

func (b *broadcasts) Broadcast(_ context.Context, gameID string, events []core.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, gameID)
	b.events = append(b.events, events)
	return b.err
}

func (b *broadcasts) last() []core.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	return b.events[len(b.events)-1]
}

// failingRepo fails the configured step.
type failingRepo struct {
	*memory.Backend
	saveErr error
}

func (r *failingRepo) Save(ctx context.Context, g *core.Gungi) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.Backend.Save(ctx, g)
}

type fixture struct {
	svc  *Service
	repo *memory.Backend
	pub  *broadcasts
}

func newFixture(t *testing.T, rng core.Randomizer) *fixture {
	t.Helper()
	repo := memory.New(config.MemoryConfig{}, nil)
	pub := &broadcasts{}
	n := 0
	svc, err := NewService(Dependencies{
		Repository:  repo,
		Broadcaster: pub,
		RNG:         rng,
		NewID: func() string {
			n++
			return fmt.Sprintf("game-%d", n)
		},
		DefaultLevel: core.LevelBeginner,
	})
	require.NoError(t, err)
	return &fixture{svc: svc, repo: repo, pub: pub}
}

func createCmd() parser.CreateGame {
	return parser.CreateGame{Players: testutil.Players}
}

func player(gameID, playerID string) parser.PlayerCommand {
	return parser.PlayerCommand{GameID: gameID, PlayerID: playerID}
}

func TestNewService_RequiresRepository(t *testing.T) {
	_, err := NewService(Dependencies{})
	assert.Error(t, err)
}

func TestCreateGame(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	created, err := f.svc.CreateGame(ctx, createCmd())
	require.NoError(t, err)
	assert.Equal(t, Created{GameID: "game-1", URL: "/gungi/game-1"}, created)

	s, err := f.svc.State(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, core.LevelBeginner, s.Level)
	assert.Equal(t, core.PhaseAwaitingFurigoma, s.Phase)
	assert.Equal(t, "alice", s.Players[0].ID)
	assert.Equal(t, core.SideWhite, s.Players[0].Side)
	assert.Len(t, s.Players[0].GomaOki.Gomas, 20)
	assert.Empty(t, f.pub.calls)
}

func TestCreateGame_ExplicitLevel(t *testing.T) {
	f := newFixture(t, nil)
	cmd := createCmd()
	cmd.Level = core.LevelAdvanced

	created, err := f.svc.CreateGame(context.Background(), cmd)
	require.NoError(t, err)

	s, err := f.svc.State(context.Background(), created.GameID)
	require.NoError(t, err)
	assert.Equal(t, core.LevelAdvanced, s.Level)
	assert.Len(t, s.Players[1].GomaOki.Gomas, 25)
}

func TestCreateGame_UUIDByDefault(t *testing.T) {
	svc, err := NewService(Dependencies{Repository: memory.New(config.MemoryConfig{}, nil)})
	require.NoError(t, err)

	created, err := svc.CreateGame(context.Background(), createCmd())
	require.NoError(t, err)
	assert.Len(t, created.GameID, 36)
	assert.Equal(t, "/gungi/"+created.GameID, created.URL)
}

func TestCreateGame_Invalid(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.CreateGame(context.Background(), parser.CreateGame{
		Players: [2]core.PlayerInfo{{ID: "alice"}, {ID: "alice"}},
	})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, 0, f.repo.Len())
}

func TestFurigoma(t *testing.T) {
	tests := []struct {
		name   string
		throws []int
		sente  string
	}{
		{"initiator wins with five omote", []int{0, 0, 0, 0, 0}, "alice"},
		{"initiator wins with three omote", []int{0, 1, 0, 1, 0}, "alice"},
		{"initiator loses with two omote", []int{1, 0, 1, 0, 1}, "bob"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testutil.Throws(tt.throws...))
			ctx := context.Background()
			created, err := f.svc.CreateGame(ctx, createCmd())
			require.NoError(t, err)

			resolved, err := f.svc.Furigoma(ctx, player(created.GameID, "alice"))
			require.NoError(t, err)
			assert.Equal(t, tt.sente, resolved.Turn.Sente)
			assert.Len(t, resolved.Result, core.FurigomaThrows)

			s, err := f.svc.State(ctx, created.GameID)
			require.NoError(t, err)
			assert.Equal(t, core.PhaseActivePlay, s.Phase)
			assert.Equal(t, tt.sente, s.Turn.Sente)

			require.Len(t, f.pub.calls, 1)
			assert.Equal(t, core.EventFurigomaResolved, f.pub.last()[0].Name)
		})
	}
}

func TestFurigoma_Twice(t *testing.T) {
	f := newFixture(t, testutil.Throws(0, 0, 0, 0, 0, 0, 0, 0, 0, 0))
	ctx := context.Background()
	created, err := f.svc.CreateGame(ctx, createCmd())
	require.NoError(t, err)

	_, err = f.svc.Furigoma(ctx, player(created.GameID, "alice"))
	require.NoError(t, err)
	_, err = f.svc.Furigoma(ctx, player(created.GameID, "bob"))
	assert.ErrorIs(t, err, core.ErrFurigomaAlreadyResolved)
	assert.Len(t, f.pub.calls, 1)
}

// activeGame creates a game where alice (white) moves first.
func activeGame(t *testing.T) (*fixture, string) {
	t.Helper()
	f := newFixture(t, testutil.Throws(0, 0, 0, 0, 0))
	ctx := context.Background()
	created, err := f.svc.CreateGame(ctx, createCmd())
	require.NoError(t, err)
	_, err = f.svc.Furigoma(ctx, player(created.GameID, "alice"))
	require.NoError(t, err)
	return f, created.GameID
}

func arata(gameID, playerID string, name core.GomaName, side core.Side, x, y, z int) parser.Arata {
	return parser.Arata{
		PlayerCommand: player(gameID, playerID),
		Goma:          core.GomaRef{Name: name, Side: side},
		To:            core.NewCoordinate(x, y, z),
	}
}

func TestPlace(t *testing.T) {
	f, id := activeGame(t)
	ctx := context.Background()

	placed, err := f.svc.Place(ctx, arata(id, "alice", core.Hei, core.SideWhite, 4, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, core.GomaRef{Name: core.Hei, Side: core.SideWhite}, placed.Goma)
	assert.Equal(t, core.NewCoordinate(4, 1, 0), placed.To)

	s, err := f.svc.State(ctx, id)
	require.NoError(t, err)
	require.Len(t, s.GungiHan.Han, 1)
	assert.Equal(t, core.SideBlack, s.CurrentTurn)
	assert.Equal(t, 2, s.Version)
}

func TestPlace_RejectedLeavesGameUntouched(t *testing.T) {
	tests := []struct {
		name string
		cmd  func(id string) parser.Arata
		want error
	}{
		{"not your turn", func(id string) parser.Arata { return arata(id, "bob", core.Hei, core.SideBlack, 4, 7, 0) }, core.ErrNotYourTurn},
		{"enemy goma", func(id string) parser.Arata { return arata(id, "alice", core.Hei, core.SideBlack, 4, 1, 0) }, core.ErrNotYourGoma},
		{"outside territory", func(id string) parser.Arata { return arata(id, "alice", core.Hei, core.SideWhite, 4, 5, 0) }, core.ErrInvalidPlacement},
		{"unknown player", func(id string) parser.Arata { return arata(id, "carol", core.Hei, core.SideWhite, 4, 1, 0) }, core.ErrPlayerNotFound},
		{"unknown game", func(string) parser.Arata { return arata("nope", "alice", core.Hei, core.SideWhite, 4, 1, 0) }, core.ErrGameNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, id := activeGame(t)
			ctx := context.Background()
			before, err := f.svc.State(ctx, id)
			require.NoError(t, err)

			_, err = f.svc.Place(ctx, tt.cmd(id))
			assert.ErrorIs(t, err, tt.want)

			after, err := f.svc.State(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Len(t, f.pub.calls, 1)
		})
	}
}

func TestMove(t *testing.T) {
	f, id := activeGame(t)
	ctx := context.Background()

	_, err := f.svc.Place(ctx, arata(id, "alice", core.Hei, core.SideWhite, 4, 2, 0))
	require.NoError(t, err)
	_, err = f.svc.Place(ctx, arata(id, "bob", core.Hei, core.SideBlack, 4, 6, 0))
	require.NoError(t, err)

	events, err := f.svc.Move(ctx, parser.Ugoki{
		PlayerCommand: player(id, "alice"),
		From:          core.NewCoordinate(4, 2, 0),
		To:            core.NewCoordinate(4, 3, 0),
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	moved := events[0].Data.(core.GomaMoved)
	assert.Equal(t, core.NewCoordinate(4, 3, 0), moved.To)
	assert.Nil(t, moved.Captured)
	assert.Equal(t, events, f.pub.last())

	_, err = f.svc.Move(ctx, parser.Ugoki{
		PlayerCommand: player(id, "bob"),
		From:          core.NewCoordinate(0, 0, 0),
		To:            core.NewCoordinate(0, 1, 0),
	})
	assert.ErrorIs(t, err, core.ErrEmptyCell)
}

func TestSurrender(t *testing.T) {
	f, id := activeGame(t)
	ctx := context.Background()

	winner, err := f.svc.Surrender(ctx, player(id, "alice"))
	require.NoError(t, err)
	assert.Equal(t, "bob", winner)

	s, err := f.svc.State(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.PhaseFinished, s.Phase)
	assert.Equal(t, "bob", s.Winner)

	_, err = f.svc.Surrender(ctx, player(id, "bob"))
	assert.ErrorIs(t, err, core.ErrGameAlreadyFinished)
}

func TestSurrender_BeforeFurigoma(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	created, err := f.svc.CreateGame(ctx, createCmd())
	require.NoError(t, err)

	winner, err := f.svc.Surrender(ctx, player(created.GameID, "bob"))
	require.NoError(t, err)
	assert.Equal(t, "alice", winner)
}

func TestLegalMoves(t *testing.T) {
	f, id := activeGame(t)
	ctx := context.Background()

	_, err := f.svc.Place(ctx, arata(id, "alice", core.Hei, core.SideWhite, 4, 2, 0))
	require.NoError(t, err)

	actions, err := f.svc.LegalMoves(ctx, player(id, "alice"))
	require.NoError(t, err)
	require.Len(t, actions.Moves, 1)
	assert.Equal(t, core.NewCoordinate(4, 2, 0), actions.Moves[0].From)
	assert.Contains(t, actions.Moves[0].To, core.NewCoordinate(4, 3, 0))
	assert.Contains(t, actions.Placements, core.Sui)
	assert.False(t, actions.Stuck)

	_, err = f.svc.LegalMoves(ctx, player(id, "carol"))
	assert.ErrorIs(t, err, core.ErrPlayerNotFound)
}

func TestLegalMoves_Stuck(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	empty := core.GomaListing{Gomas: []core.GomaRef{}}
	g, err := core.FromSnapshot(core.Snapshot{
		ID:          "bare",
		Level:       core.LevelBeginner,
		Turn:        core.TurnAssignment{Sente: "alice", Gote: "bob"},
		CurrentTurn: core.SideWhite,
		Players: []core.PlayerSnapshot{
			{ID: "alice", Name: "Alice", Side: core.SideWhite, GomaOki: empty, DeadArea: empty},
			{ID: "bob", Name: "Bob", Side: core.SideBlack, GomaOki: empty, DeadArea: empty},
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.repo.Save(ctx, g))

	actions, err := f.svc.LegalMoves(ctx, player("bare", "alice"))
	require.NoError(t, err)
	assert.Empty(t, actions.Placements)
	assert.Empty(t, actions.Moves)
	assert.True(t, actions.Stuck)
}

func TestState_NotFound(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.State(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	f, id := activeGame(t)
	f.pub.err = errors.New("hub down")

	winner, err := f.svc.Surrender(context.Background(), player(id, "alice"))
	require.NoError(t, err)
	assert.Equal(t, "bob", winner)
}

func TestSaveFailureIsReported(t *testing.T) {
	repo := &failingRepo{Backend: memory.New(config.MemoryConfig{}, nil)}
	pub := &broadcasts{}
	svc, err := NewService(Dependencies{Repository: repo, Broadcaster: pub, RNG: testutil.Throws(0, 0, 0, 0, 0)})
	require.NoError(t, err)
	ctx := context.Background()

	created, err := svc.CreateGame(ctx, createCmd())
	require.NoError(t, err)

	repo.saveErr = fmt.Errorf("%w: disk full", core.ErrPersistence)
	_, err = svc.Furigoma(ctx, player(created.GameID, "alice"))
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.Empty(t, pub.calls)

	s, err := svc.State(ctx, created.GameID)
	require.NoError(t, err)
	assert.Equal(t, core.PhaseAwaitingFurigoma, s.Phase)
}

func TestConcurrentOperationsAreSerialized(t *testing.T) {
	f, id := activeGame(t)
	ctx := context.Background()

	// both players race to surrender; exactly one wins the race
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, p := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			_, results[i] = f.svc.Surrender(ctx, player(id, p))
		}(i, p)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, core.ErrGameAlreadyFinished)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.svc.locks.len())
}

func TestCancelledContext(t *testing.T) {
	repo := memory.New(config.MemoryConfig{}, nil)
	svc, err := NewService(Dependencies{Repository: repo, Timeout: time.Nanosecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.State(ctx, "game-1")
	assert.ErrorIs(t, err, core.ErrPersistence)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "validation", Outcome(core.ErrUnknownGoma))
	assert.Equal(t, "not_found", Outcome(core.ErrGameNotFound))
	assert.Equal(t, "illegal_state", Outcome(core.ErrNotYourTurn))
	assert.Equal(t, "illegal_move", Outcome(core.ErrInvalidPlacement))
	assert.Equal(t, "persistence", Outcome(core.ErrVersionConflict))
	assert.Equal(t, "internal", Outcome(errors.New("boom")))
}
