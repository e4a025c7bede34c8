package core

// moveKind is how a piece travels along one of its directions.
type moveKind int

const (
	// step moves up to reach cells; reach grows by one per tier above the ground.
	step moveKind = iota
	// slide moves any distance along a line.
	slide
	// jump lands exactly on the offset and ignores anything in between.
	jump
)

// vector is an offset relative to the owner: dy > 0 is towards the opponent.
type vector struct {
	dx, dy int
}

var (
	fwd       = vector{0, 1}
	back      = vector{0, -1}
	left      = vector{-1, 0}
	right     = vector{1, 0}
	fwdLeft   = vector{-1, 1}
	fwdRight  = vector{1, 1}
	backLeft  = vector{-1, -1}
	backRight = vector{1, -1}

	orthogonal = []vector{fwd, back, left, right}
	diagonal   = []vector{fwdLeft, fwdRight, backLeft, backRight}
)

type direction struct {
	vector
	kind  moveKind
	reach int
}

// rule is the movement geometry of one piece type.
type rule struct {
	directions []direction
	// noStack pieces may capture but never climb onto another piece.
	noStack bool
}

func steps(reach int, vs ...vector) []direction {
	ds := make([]direction, 0, len(vs))
	for _, v := range vs {
		ds = append(ds, direction{vector: v, kind: step, reach: reach})
	}
	return ds
}

func slides(vs ...vector) []direction {
	ds := make([]direction, 0, len(vs))
	for _, v := range vs {
		ds = append(ds, direction{vector: v, kind: slide})
	}
	return ds
}

func jumps(vs ...vector) []direction {
	ds := make([]direction, 0, len(vs))
	for _, v := range vs {
		ds = append(ds, direction{vector: v, kind: jump})
	}
	return ds
}

func join(groups ...[]direction) []direction {
	var out []direction
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// rules holds the geometry of every authored piece type.
// A GomaName missing from this table cannot be placed or moved.
var rules = map[GomaName]rule{
	Sui:     {directions: steps(1, append(orthogonal, diagonal...)...), noStack: true},
	Taisho:  {directions: join(slides(orthogonal...), steps(1, diagonal...))},
	Chujo:   {directions: join(slides(diagonal...), steps(1, orthogonal...))},
	Shosho:  {directions: steps(1, fwd, fwdLeft, fwdRight, left, right, back)},
	Samurai: {directions: steps(1, fwd, fwdLeft, fwdRight, back)},
	Yari:    {directions: join(steps(2, fwd), steps(1, fwdLeft, fwdRight, back))},
	Uma:     {directions: steps(2, orthogonal...)},
	Shinobi: {directions: steps(2, diagonal...)},
	Toride:  {directions: steps(1, fwd, left, right, backLeft, backRight), noStack: true},
	Hei:     {directions: steps(1, fwd, back)},
	Oozutsu: {directions: join(jumps(vector{0, 3}), steps(1, left, right, back))},
	Tsutsu:  {directions: join(jumps(vector{0, 2}), steps(1, backLeft, backRight))},
	Yumi:    {directions: join(jumps(vector{0, 2}, vector{-1, 2}, vector{1, 2}), steps(1, back))},
	Boushou: {directions: steps(1, fwdLeft, fwdRight, back)},
}

// canStackOn reports whether g may end up on top of a tower of the given height whose
// top piece is top. moverTier is the tier g stands on before moving; 0 means it comes from stock.
func canStackOn(g *Goma, r rule, top *Goma, height, moverTier int) bool {
	if r.noStack || top.Name == Sui {
		return false
	}
	if height >= g.Level.MaxTiers() || height >= MaxTiers {
		return false
	}
	if moverTier > 0 && height > moverTier {
		return false
	}
	return true
}

// destinations lists the coordinates g could finish on at (x, y).
func destinations(han *Han, g *Goma, r rule, tier, x, y int) []Coordinate {
	height := han.Height(x, y)
	if height == 0 {
		return []Coordinate{{X: x, Y: y, Z: 0}}
	}
	top := han.top(x, y)
	var out []Coordinate
	if top.Side != g.Side && height <= tier {
		out = append(out, Coordinate{X: x, Y: y, Z: height - 1})
	}
	if canStackOn(g, r, top, height, tier) {
		out = append(out, Coordinate{X: x, Y: y, Z: height})
	}
	return out
}

// LegalMoveTargets returns every coordinate the piece on top of from may move to.
// A coordinate one tier below the destination's height is a capture; one at the height stacks.
func LegalMoveTargets(han *Han, from Coordinate) []Coordinate {
	g, ok := han.PieceAt(from)
	if !ok || g.Position == nil || *g.Position != from {
		return nil
	}
	r, ok := rules[g.Name]
	if !ok {
		return nil
	}

	tier := g.Tier()
	dir := g.Side.forward()
	seen := make(map[Coordinate]bool)
	var targets []Coordinate
	add := func(cs []Coordinate) {
		for _, c := range cs {
			if !seen[c] {
				seen[c] = true
				targets = append(targets, c)
			}
		}
	}

	for _, d := range r.directions {
		dx, dy := d.dx, d.dy*dir
		if d.kind == jump {
			x, y := from.X+dx, from.Y+dy
			if onBoard(x, y) {
				add(destinations(han, g, r, tier, x, y))
			}
			continue
		}

		reach := d.reach + tier - 1
		if d.kind == slide {
			reach = BoardSize
		}
		for i := 1; i <= reach; i++ {
			x, y := from.X+dx*i, from.Y+dy*i
			if !onBoard(x, y) {
				break
			}
			add(destinations(han, g, r, tier, x, y))
			// towers at least as tall as the mover block the line of sight
			if han.Height(x, y) >= tier {
				break
			}
		}
	}
	return targets
}

// LegalPlacementTargets returns every coordinate g may be dropped onto from stock.
// Pieces go to the owner's territory: the three home rows, extended up to the
// frontmost row an own piece has reached. Drops only stack onto own pieces.
func LegalPlacementTargets(han *Han, g *Goma) []Coordinate {
	r, ok := rules[g.Name]
	if !ok || !g.Side.Valid() || g.OnBoard() {
		return nil
	}

	lo, hi := territory(han, g.Side)
	var targets []Coordinate
	for y := lo; y <= hi; y++ {
		for x := 0; x < BoardSize; x++ {
			height := han.Height(x, y)
			if height == 0 {
				if g.Name != Hei || !hasGroundHei(han, g.Side, x) {
					targets = append(targets, Coordinate{X: x, Y: y, Z: 0})
				}
				continue
			}
			top := han.top(x, y)
			if top.Side != g.Side || g.Name == Sui {
				continue
			}
			if canStackOn(g, r, top, height, 0) {
				targets = append(targets, Coordinate{X: x, Y: y, Z: height})
			}
		}
	}
	return targets
}

// territory returns the inclusive row range a side may place into.
func territory(han *Han, side Side) (int, int) {
	if side == SideWhite {
		hi := 2
		for _, g := range han.Pieces() {
			if g.Side == side && g.Position.Y > hi {
				hi = g.Position.Y
			}
		}
		return 0, hi
	}
	lo := BoardSize - 3
	for _, g := range han.Pieces() {
		if g.Side == side && g.Position.Y < lo {
			lo = g.Position.Y
		}
	}
	return lo, BoardSize - 1
}

// hasGroundHei reports whether side already has a hei on the ground tier of file x.
func hasGroundHei(han *Han, side Side, x int) bool {
	for y := 0; y < BoardSize; y++ {
		stack := han.cells[x][y]
		if len(stack) > 0 && stack[0].Name == Hei && stack[0].Side == side {
			return true
		}
	}
	return false
}
