package core

import (
	"fmt"
	"sort"

	"github.com/hallgren/eventsourcing/aggregate"
)

// Snapshot is the plain, serializable form of a game. Repositories persist it and
// FromSnapshot turns it back into a live aggregate.
type Snapshot struct {
	ID          string           `json:"_id"`
	Level       Level            `json:"level"`
	Version     int              `json:"version"`
	GungiHan    HanSnapshot      `json:"gungiHan"`
	Players     []PlayerSnapshot `json:"players"`
	Turn        TurnAssignment   `json:"turn"`
	CurrentTurn Side             `json:"currentTurn"`
	Phase       Phase            `json:"phase"`
	Winner      string           `json:"winner,omitempty"`
	History     []Event          `json:"history"`
}

// HanSnapshot lists every occupied tier of the board.
type HanSnapshot struct {
	Han []CellSnapshot `json:"han"`
}

// CellSnapshot is one piece and where it stands.
type CellSnapshot struct {
	Goma       GomaRef    `json:"goma"`
	Coordinate Coordinate `json:"coordinate"`
}

// PlayerSnapshot is a player with its off-board pieces.
type PlayerSnapshot struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Side     Side        `json:"side"`
	GomaOki  GomaListing `json:"gomaOki"`
	DeadArea GomaListing `json:"deadArea"`
}

// GomaListing is the content of a GomaOki or DeadArea.
type GomaListing struct {
	Gomas []GomaRef `json:"gomas"`
}

// Snapshot captures the current state of the game.
func (g *Gungi) Snapshot() Snapshot {
	s := Snapshot{
		ID:          g.ID(),
		Level:       g.level,
		Version:     int(g.Root.Version()),
		Turn:        TurnAssignment{Sente: g.turn.sente, Gote: g.turn.gote},
		CurrentTurn: g.turn.currentSide,
		Phase:       g.turn.Phase(),
		Winner:      g.winner,
		History:     g.History().Events(),
	}
	for _, goma := range g.han.Pieces() {
		s.GungiHan.Han = append(s.GungiHan.Han, CellSnapshot{Goma: goma.Ref(), Coordinate: *goma.Position})
	}
	for _, p := range g.players {
		s.Players = append(s.Players, PlayerSnapshot{
			ID:       p.id,
			Name:     p.name,
			Side:     p.side,
			GomaOki:  GomaListing{Gomas: p.gomaOki.refs()},
			DeadArea: GomaListing{Gomas: p.deadArea.refs()},
		})
	}
	return s
}

// FromSnapshot rebuilds a game from its snapshot. The layout is authoritative and
// the history is carried along without being replayed. Repositories mark the
// result saved once they know it came from their store. Snapshots written before
// the phase was persisted get one derived from the winner, history and turn.
// Inconsistent snapshots, such as more pieces than the level's stock, are rejected.
func FromSnapshot(s Snapshot) (*Gungi, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("%w: snapshot without id", ErrValidation)
	}
	if !s.Level.Valid() {
		return nil, fmt.Errorf("%w: snapshot level %d", ErrValidation, int(s.Level))
	}
	phase := s.Phase
	if phase == "" {
		phase = derivePhase(s)
	}
	if !phase.Valid() {
		return nil, fmt.Errorf("%w: snapshot phase %q", ErrValidation, s.Phase)
	}
	if s.Version != 0 && s.Version != len(s.History) {
		return nil, fmt.Errorf("%w: snapshot version %d with %d events", ErrValidation, s.Version, len(s.History))
	}
	if len(s.Players) != 2 {
		return nil, fmt.Errorf("%w: snapshot has %d players", ErrValidation, len(s.Players))
	}
	if s.Players[0].Side != SideWhite || s.Players[1].Side != SideBlack {
		return nil, fmt.Errorf("%w: snapshot players must be white then black", ErrValidation)
	}

	g, err := newGungi(s.ID, s.Level, phase)
	if err != nil {
		return nil, err
	}
	g.winner = s.Winner
	g.turn.sente = s.Turn.Sente
	g.turn.gote = s.Turn.Gote
	if s.CurrentTurn != "" {
		if !s.CurrentTurn.Valid() {
			return nil, fmt.Errorf("%w: current turn %q", ErrUnknownSide, s.CurrentTurn)
		}
		g.turn.currentSide = s.CurrentTurn
	}

	counts := make(map[GomaRef]int)
	restore := func(refs []GomaRef, into *gomaSet) error {
		for _, ref := range refs {
			if !ref.Name.Valid() || !ref.Side.Valid() {
				return fmt.Errorf("%w: %s %s", ErrUnknownGoma, ref.Side, ref.Name)
			}
			into.add(NewGoma(s.Level, ref.Side, ref.Name))
			counts[ref]++
		}
		return nil
	}

	for i, ps := range s.Players {
		p := NewPlayer(ps.ID, ps.Name, ps.Side)
		if err := restore(ps.GomaOki.Gomas, &p.gomaOki.gomaSet); err != nil {
			return nil, err
		}
		if err := restore(ps.DeadArea.Gomas, &p.deadArea.gomaSet); err != nil {
			return nil, err
		}
		g.players[i] = p
	}
	if g.players[0].id == "" || g.players[0].id == g.players[1].id {
		return nil, fmt.Errorf("%w: snapshot players must have distinct ids", ErrValidation)
	}

	cells := make([]CellSnapshot, len(s.GungiHan.Han))
	copy(cells, s.GungiHan.Han)
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].Coordinate.Z < cells[j].Coordinate.Z })
	for _, cell := range cells {
		ref := cell.Goma
		if !ref.Name.Valid() || !ref.Side.Valid() {
			return nil, fmt.Errorf("%w: %s %s", ErrUnknownGoma, ref.Side, ref.Name)
		}
		if err := g.han.Place(NewGoma(s.Level, ref.Side, ref.Name), cell.Coordinate); err != nil {
			return nil, err
		}
		counts[ref]++
	}

	for _, side := range []Side{SideWhite, SideBlack} {
		stock := make(map[GomaRef]int)
		for _, goma := range StockFor(s.Level, side) {
			stock[goma.Ref()]++
		}
		for ref, n := range stock {
			if counts[ref] > n {
				return nil, fmt.Errorf("%w: snapshot holds %d %s %s, stock has %d", ErrValidation, counts[ref], side, ref.Name, n)
			}
			delete(counts, ref)
		}
	}
	if len(counts) > 0 {
		return nil, fmt.Errorf("%w: snapshot holds pieces outside the %s stock", ErrValidation, s.Level)
	}

	g.restoring = true
	for i, e := range s.History {
		data, ok := tracked(e.Data)
		if !ok {
			return nil, fmt.Errorf("%w: history event %d %q", ErrValidation, i, e.Name)
		}
		aggregate.TrackChange(g, data)
	}
	g.restoring = false
	g.saved = int(g.Root.Version())
	return g, nil
}

// derivePhase reads the lifecycle state off a snapshot that does not carry one.
func derivePhase(s Snapshot) Phase {
	if s.Winner != "" {
		return PhaseFinished
	}
	for _, e := range s.History {
		switch e.Name {
		case EventGameSurrendered, EventSuiCaptured:
			return PhaseFinished
		}
	}
	if s.Turn.Sente != "" {
		return PhaseActivePlay
	}
	return PhaseAwaitingFurigoma
}
