package core

import "fmt"

// Han is the board: a grid of towers, each listed bottom to top.
type Han struct {
	cells [BoardSize][BoardSize][]*Goma
}

// NewHan returns an empty board.
func NewHan() *Han {
	return &Han{}
}

// Height returns the number of pieces stacked at (x, y).
func (h *Han) Height(x, y int) int {
	if !onBoard(x, y) {
		return 0
	}
	return len(h.cells[x][y])
}

func (h *Han) top(x, y int) *Goma {
	stack := h.cells[x][y]
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

// PieceAt returns the top of the tower at (c.X, c.Y). Z is ignored.
func (h *Han) PieceAt(c Coordinate) (*Goma, bool) {
	if !onBoard(c.X, c.Y) {
		return nil, false
	}
	g := h.top(c.X, c.Y)
	return g, g != nil
}

// StackAt returns a copy of the tower at (c.X, c.Y), bottom first.
func (h *Han) StackAt(c Coordinate) []*Goma {
	if !onBoard(c.X, c.Y) {
		return nil
	}
	out := make([]*Goma, len(h.cells[c.X][c.Y]))
	copy(out, h.cells[c.X][c.Y])
	return out
}

// Place puts an off-board piece on top of the tower at c.
// c.Z must equal the current height of the tower.
func (h *Han) Place(g *Goma, c Coordinate) error {
	if !c.InBounds() {
		return fmt.Errorf("%w: %s is out of bounds", ErrInvalidPlacement, c)
	}
	if g.OnBoard() {
		return fmt.Errorf("%w: %s is already on the board at %s", ErrInvalidPlacement, g.Name, *g.Position)
	}
	height := len(h.cells[c.X][c.Y])
	if height >= MaxTiers {
		return fmt.Errorf("%w: tower at (%d,%d) is full", ErrInvalidPlacement, c.X, c.Y)
	}
	if c.Z != height {
		return fmt.Errorf("%w: %s is not the top of a tower of height %d", ErrInvalidPlacement, c, height)
	}
	h.cells[c.X][c.Y] = append(h.cells[c.X][c.Y], g)
	pos := c
	g.Position = &pos
	return nil
}

// Remove takes the top piece off the tower at c. c.Z must be the top tier.
func (h *Han) Remove(c Coordinate) (*Goma, error) {
	if !onBoard(c.X, c.Y) {
		return nil, fmt.Errorf("%w: %s is out of bounds", ErrEmptyCell, c)
	}
	height := len(h.cells[c.X][c.Y])
	if height == 0 || c.Z != height-1 {
		return nil, fmt.Errorf("%w: no goma on top at %s", ErrEmptyCell, c)
	}
	g := h.cells[c.X][c.Y][height-1]
	h.cells[c.X][c.Y][height-1] = nil
	h.cells[c.X][c.Y] = h.cells[c.X][c.Y][:height-1]
	g.Position = nil
	return g, nil
}

// Move moves the top piece at from to to, capturing the enemy top piece when to
// names its tier. It validates before touching the board, so a failed move leaves
// the board unchanged. The captured piece, if any, is returned off board.
func (h *Han) Move(from, to Coordinate) (*Goma, error) {
	g, ok := h.PieceAt(from)
	if !ok || *g.Position != from {
		return nil, fmt.Errorf("%w: no goma on top at %s", ErrEmptyCell, from)
	}
	if !g.CanMoveTo(h, from, to) {
		return nil, fmt.Errorf("%w: %s cannot move from %s to %s", ErrIllegalMove, g.Name, from, to)
	}

	var captured *Goma
	if to.Z < h.Height(to.X, to.Y) {
		c, err := h.Remove(to)
		if err != nil {
			return nil, err
		}
		captured = c
	}
	if _, err := h.Remove(from); err != nil {
		return nil, err
	}
	if err := h.Place(g, to); err != nil {
		return nil, err
	}
	return captured, nil
}

// Pieces returns every piece on the board, row by row, bottom tier first.
func (h *Han) Pieces() []*Goma {
	var out []*Goma
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			out = append(out, h.cells[x][y]...)
		}
	}
	return out
}

// Clone returns a deep copy of the board. The copied pieces are new values.
func (h *Han) Clone() *Han {
	c := NewHan()
	for x := range h.cells {
		for y := range h.cells[x] {
			for _, g := range h.cells[x][y] {
				cp := *g
				pos := *g.Position
				cp.Position = &pos
				c.cells[x][y] = append(c.cells[x][y], &cp)
			}
		}
	}
	return c
}
