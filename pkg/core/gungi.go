// pkg/core/gungi.go
package core

import (
	"fmt"
	"strings"

	"github.com/hallgren/eventsourcing"
	"github.com/hallgren/eventsourcing/aggregate"
)

// Gungi is the aggregate root of one game. All state changes go through its
// methods, which validate first and then track the resulting events on the
// embedded aggregate.Root. It is not safe for concurrent use.
type Gungi struct {
	aggregate.Root
	level   Level
	han     *Han
	players [2]*Player
	turn    *Turn
	winner  string

	// saved is the aggregate version at the last load or save.
	saved     int
	persisted bool
	// fault holds the first transition that could not be applied.
	fault     error
	restoring bool
}

// New creates a game awaiting furigoma. The first player plays white, the second black,
// and both start with a full stock for the level.
func New(id string, level Level, players [2]PlayerInfo) (*Gungi, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: game id is required", ErrValidation)
	}
	if !level.Valid() {
		return nil, fmt.Errorf("%w: level %d", ErrValidation, int(level))
	}
	for _, p := range players {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("%w: player id is required", ErrValidation)
		}
	}
	if players[0].ID == players[1].ID {
		return nil, fmt.Errorf("%w: players must be distinct", ErrValidation)
	}

	g, err := newGungi(id, level, PhaseAwaitingFurigoma)
	if err != nil {
		return nil, err
	}
	for i, side := range []Side{SideWhite, SideBlack} {
		p := NewPlayer(players[i].ID, players[i].Name, side)
		for _, goma := range StockFor(level, side) {
			p.gomaOki.add(goma)
		}
		g.players[i] = p
	}
	return g, nil
}

func newGungi(id string, level Level, phase Phase) (*Gungi, error) {
	g := &Gungi{
		level: level,
		han:   NewHan(),
		turn:  newTurn(phase),
	}
	if err := g.SetID(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return g, nil
}

// Replay rebuilds a game by applying events to a freshly created one.
func Replay(id string, level Level, players [2]PlayerInfo, events []Event) (*Gungi, error) {
	g, err := New(id, level, players)
	if err != nil {
		return nil, err
	}
	for i, e := range events {
		data, ok := tracked(e.Data)
		if !ok {
			return nil, fmt.Errorf("replaying event %d: %w: unknown event %q", i, ErrValidation, e.Name)
		}
		aggregate.TrackChange(g, data)
		if g.fault != nil {
			return nil, fmt.Errorf("replaying event %d (%s): %w", i, e.Name, g.fault)
		}
	}
	return g, nil
}

// Register lists the payloads the game tracks.
func (g *Gungi) Register(f aggregate.RegisterFunc) {
	f(&FurigomaResolved{}, &GomaPlaced{}, &GomaMoved{}, &GameSurrendered{}, &SuiCaptured{})
}

func (g *Gungi) Level() Level { return g.level }
func (g *Gungi) Turn() *Turn  { return g.turn }
func (g *Gungi) Phase() Phase { return g.turn.Phase() }

// Version is the number of events the game held when it was last loaded or saved.
// Repositories compare it against what they store to detect concurrent writers.
func (g *Gungi) Version() int { return g.saved }

// Persisted reports whether the game has been loaded from or written to a repository.
func (g *Gungi) Persisted() bool { return g.persisted }

// History returns every event tracked so far, oldest first.
func (g *Gungi) History() *History {
	h := &History{}
	for _, ev := range g.Root.Events() {
		if e, ok := untracked(ev.Data()); ok {
			h.events = append(h.events, e)
		}
	}
	return h
}

// Winner returns the winning player id once the game is finished.
func (g *Gungi) Winner() (string, bool) {
	return g.winner, g.winner != ""
}

// MarkSaved moves the saved version up to the current history.
func (g *Gungi) MarkSaved() {
	g.saved = int(g.Root.Version())
	g.persisted = true
}

// Han returns a copy of the board.
func (g *Gungi) Han() *Han {
	return g.han.Clone()
}

// Players returns both players, white first.
func (g *Gungi) Players() [2]*Player {
	return g.players
}

// Player looks a player up by id.
func (g *Gungi) Player(id string) (*Player, error) {
	for _, p := range g.players {
		if p != nil && p.id == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in game %s", ErrPlayerNotFound, id, g.ID())
}

// Opponent returns the other player.
func (g *Gungi) Opponent(p *Player) *Player {
	if g.players[0] == p {
		return g.players[1]
	}
	return g.players[0]
}

// Furigoma throws five hei for playerID to decide sente and gote.
func (g *Gungi) Furigoma(playerID string, rng Randomizer) ([]Event, error) {
	player, err := g.Player(playerID)
	if err != nil {
		return nil, err
	}
	switch g.Phase() {
	case PhaseFinished:
		return nil, ErrGameAlreadyFinished
	case PhaseActivePlay:
		return nil, ErrFurigomaAlreadyResolved
	}

	opponent := g.Opponent(player)
	result := throwHei(rng)
	sente, gote := player, opponent
	if !initiatorMovesFirst(result) {
		sente, gote = opponent, player
	}

	return g.record(FurigomaResolved{
		PlayerID: player.id,
		Result:   result,
		Turn:     TurnAssignment{Sente: sente.id, Gote: gote.id},
	})
}

// PlaceGoma drops a piece from the player's stock onto the board (arata).
func (g *Gungi) PlaceGoma(playerID string, ref GomaRef, to Coordinate) ([]Event, error) {
	player, err := g.actingPlayer(playerID)
	if err != nil {
		return nil, err
	}
	if ref.Side != player.side {
		return nil, fmt.Errorf("%w: %s cannot place a %s goma", ErrNotYourGoma, player.side, ref.Side)
	}
	goma := player.gomaOki.find(ref.Name)
	if goma == nil {
		return nil, fmt.Errorf("%w: %s", ErrGomaNotInStock, ref.Name)
	}
	if !goma.CanPlaceTo(g.han, to) {
		return nil, fmt.Errorf("%w: %s cannot be placed at %s", ErrInvalidPlacement, ref.Name, to)
	}

	return g.record(GomaPlaced{PlayerID: player.id, Goma: ref, To: to})
}

// MoveGoma moves the player's piece on top of from to to (ugoki). Capturing the
// opponent's sui ends the game.
func (g *Gungi) MoveGoma(playerID string, from, to Coordinate) ([]Event, error) {
	player, err := g.actingPlayer(playerID)
	if err != nil {
		return nil, err
	}
	goma, ok := g.han.PieceAt(from)
	if !ok || *goma.Position != from {
		return nil, fmt.Errorf("%w: no goma on top at %s", ErrEmptyCell, from)
	}
	if goma.Side != player.side {
		return nil, fmt.Errorf("%w: %s at %s", ErrNotYourGoma, goma.Name, from)
	}
	if !goma.CanMoveTo(g.han, from, to) {
		return nil, fmt.Errorf("%w: %s cannot move from %s to %s", ErrIllegalMove, goma.Name, from, to)
	}

	moved := GomaMoved{PlayerID: player.id, Goma: goma.Ref(), From: from, To: to}
	if to.Z < g.han.Height(to.X, to.Y) {
		ref := g.han.top(to.X, to.Y).Ref()
		moved.Captured = &ref
	}
	data := []EventData{moved}
	if moved.Captured != nil && moved.Captured.Name == Sui {
		data = append(data, SuiCaptured{PlayerID: player.id, WinnerID: player.id})
	}
	return g.record(data...)
}

// Surrender resigns the game for playerID; the opponent wins.
func (g *Gungi) Surrender(playerID string) ([]Event, error) {
	player, err := g.Player(playerID)
	if err != nil {
		return nil, err
	}
	if g.Phase() == PhaseFinished {
		return nil, ErrGameAlreadyFinished
	}
	return g.record(GameSurrendered{PlayerID: player.id, WinnerID: g.Opponent(player).id})
}

// actingPlayer checks the game accepts a board action from playerID right now.
func (g *Gungi) actingPlayer(playerID string) (*Player, error) {
	player, err := g.Player(playerID)
	if err != nil {
		return nil, err
	}
	switch g.Phase() {
	case PhaseFinished:
		return nil, ErrGameAlreadyFinished
	case PhaseAwaitingFurigoma:
		return nil, ErrFurigomaPending
	}
	if player.side != g.turn.currentSide {
		return nil, fmt.Errorf("%w: %s to move", ErrNotYourTurn, g.turn.currentSide)
	}
	return player, nil
}

// record tracks each payload in order and returns the resulting events.
func (g *Gungi) record(data ...EventData) ([]Event, error) {
	events := make([]Event, 0, len(data))
	for _, d := range data {
		payload, ok := tracked(d)
		if !ok {
			return nil, fmt.Errorf("%w: unknown event %q", ErrValidation, d.EventName())
		}
		aggregate.TrackChange(g, payload)
		if g.fault != nil {
			return nil, g.fault
		}
		events = append(events, NewEvent(d))
	}
	return events, nil
}

// Transition is the only place game state changes. It is shared by live play and
// replay; a failure stops every later transition and surfaces through fault.
func (g *Gungi) Transition(event eventsourcing.Event) {
	if g.restoring || g.fault != nil {
		return
	}
	e, ok := untracked(event.Data())
	if !ok {
		g.fault = fmt.Errorf("%w: unknown event %T", ErrValidation, event.Data())
		return
	}
	g.fault = g.transition(e)
}

func (g *Gungi) transition(e Event) error {
	switch d := e.Data.(type) {
	case FurigomaResolved:
		sente, err := g.Player(d.Turn.Sente)
		if err != nil {
			return err
		}
		if err := g.turn.resolve(d.Turn.Sente, d.Turn.Gote, sente.side); err != nil {
			return err
		}

	case GomaPlaced:
		player, err := g.Player(d.PlayerID)
		if err != nil {
			return err
		}
		goma, ok := player.gomaOki.take(d.Goma.Name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrGomaNotInStock, d.Goma.Name)
		}
		if err := g.han.Place(goma, d.To); err != nil {
			player.gomaOki.add(goma)
			return err
		}
		g.turn.flip()

	case GomaMoved:
		player, err := g.Player(d.PlayerID)
		if err != nil {
			return err
		}
		captured, err := g.han.Move(d.From, d.To)
		if err != nil {
			return err
		}
		if captured != nil {
			player.deadArea.add(captured)
		}
		g.turn.flip()

	case GameSurrendered:
		if err := g.turn.finish(); err != nil {
			return err
		}
		g.winner = d.WinnerID

	case SuiCaptured:
		if err := g.turn.finish(); err != nil {
			return err
		}
		g.winner = d.WinnerID

	default:
		return fmt.Errorf("%w: unknown event %q", ErrValidation, e.Name)
	}

	return nil
}

// LegalPlacements lists, per piece type in the player's stock, where it may be dropped.
func (g *Gungi) LegalPlacements(playerID string) (map[GomaName][]Coordinate, error) {
	player, err := g.Player(playerID)
	if err != nil {
		return nil, err
	}
	out := make(map[GomaName][]Coordinate)
	for _, goma := range player.gomaOki.gomas {
		if _, done := out[goma.Name]; done {
			continue
		}
		if targets := LegalPlacementTargets(g.han, goma); len(targets) > 0 {
			out[goma.Name] = targets
		}
	}
	return out, nil
}

// LegalMoves lists, per board position of the player's movable pieces, where each may go.
func (g *Gungi) LegalMoves(playerID string) (map[Coordinate][]Coordinate, error) {
	player, err := g.Player(playerID)
	if err != nil {
		return nil, err
	}
	out := make(map[Coordinate][]Coordinate)
	for x := 0; x < BoardSize; x++ {
		for y := 0; y < BoardSize; y++ {
			top := g.han.top(x, y)
			if top == nil || top.Side != player.side {
				continue
			}
			if targets := LegalMoveTargets(g.han, *top.Position); len(targets) > 0 {
				out[*top.Position] = targets
			}
		}
	}
	return out, nil
}

// HasLegalAction reports whether the player has any drop or move available.
// A player with neither is stuck, which is a game state rather than an error.
func (g *Gungi) HasLegalAction(playerID string) (bool, error) {
	placements, err := g.LegalPlacements(playerID)
	if err != nil {
		return false, err
	}
	if len(placements) > 0 {
		return true, nil
	}
	moves, err := g.LegalMoves(playerID)
	if err != nil {
		return false, err
	}
	return len(moves) > 0, nil
}
