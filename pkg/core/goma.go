package core

// Goma is a single piece. Position is nil while the piece is off the board.
type Goma struct {
	Level    Level
	Side     Side
	Name     GomaName
	Position *Coordinate
}

// NewGoma creates an off-board piece.
func NewGoma(level Level, side Side, name GomaName) *Goma {
	return &Goma{Level: level, Side: side, Name: name}
}

// OnBoard reports whether the piece currently sits on the han.
func (g *Goma) OnBoard() bool {
	return g.Position != nil
}

// Tier is the 1-based height the piece stands at, 0 when off the board.
func (g *Goma) Tier() int {
	if g.Position == nil {
		return 0
	}
	return g.Position.Z + 1
}

// Ref returns the piece identity without board state.
func (g *Goma) Ref() GomaRef {
	return GomaRef{Name: g.Name, Side: g.Side}
}

// CanPlaceTo reports whether this piece may be dropped from stock onto to.
func (g *Goma) CanPlaceTo(han *Han, to Coordinate) bool {
	return containsCoordinate(LegalPlacementTargets(han, g), to)
}

// CanMoveTo reports whether the piece on top of from may move to to.
func (g *Goma) CanMoveTo(han *Han, from, to Coordinate) bool {
	top, ok := han.PieceAt(from)
	if !ok || top != g {
		return false
	}
	return containsCoordinate(LegalMoveTargets(han, from), to)
}

// GomaRef names a kind of piece for a side. Events and snapshots carry refs, not pieces.
type GomaRef struct {
	Name GomaName `json:"name"`
	Side Side     `json:"side"`
}

// gomaSet is an unordered bag of off-board pieces.
type gomaSet struct {
	gomas []*Goma
}

// Gomas returns the pieces in the set.
func (s *gomaSet) Gomas() []*Goma {
	out := make([]*Goma, len(s.gomas))
	copy(out, s.gomas)
	return out
}

// Len returns the number of pieces in the set.
func (s *gomaSet) Len() int {
	return len(s.gomas)
}

// Count returns how many pieces of the given type are in the set.
func (s *gomaSet) Count(name GomaName) int {
	n := 0
	for _, g := range s.gomas {
		if g.Name == name {
			n++
		}
	}
	return n
}

func (s *gomaSet) refs() []GomaRef {
	refs := make([]GomaRef, 0, len(s.gomas))
	for _, g := range s.gomas {
		refs = append(refs, g.Ref())
	}
	return refs
}

func (s *gomaSet) find(name GomaName) *Goma {
	for _, g := range s.gomas {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func (s *gomaSet) add(g *Goma) {
	g.Position = nil
	s.gomas = append(s.gomas, g)
}

// take removes the first piece of the given type, keeping the order of the rest.
func (s *gomaSet) take(name GomaName) (*Goma, bool) {
	for i, g := range s.gomas {
		if g.Name != name {
			continue
		}
		s.gomas = append(s.gomas[:i:i], s.gomas[i+1:]...)
		return g, true
	}
	return nil, false
}

// GomaOki is a player's reserve of pieces not yet placed.
type GomaOki struct {
	gomaSet
}

// DeadArea holds the opponent pieces a player has captured.
type DeadArea struct {
	gomaSet
}
