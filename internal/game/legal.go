package game

import (
	"sort"

	"github.com/gungi-online/gungi/pkg/core"
)

// sortedMoves orders move options by origin so responses are stable.
func sortedMoves(moves map[core.Coordinate][]core.Coordinate) []MoveOption {
	out := make([]MoveOption, 0, len(moves))
	for from, to := range moves {
		out = append(out, MoveOption{From: from, To: to})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].From, out[j].From
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Z < b.Z
	})
	return out
}
