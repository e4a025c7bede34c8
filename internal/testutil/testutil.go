// Package testutil holds game fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/gungi-online/gungi/pkg/core"
	"github.com/stretchr/testify/require"
)

// Players are the two players every fixture seats, alice as white.
var Players = [2]core.PlayerInfo{
	{ID: "alice", Name: "Alice"},
	{ID: "bob", Name: "Bob"},
}

// SeqRNG replays a fixed sequence of Intn results.
type SeqRNG struct {
	values []int
}

// Throws returns a randomizer yielding values in order.
func Throws(values ...int) *SeqRNG {
	return &SeqRNG{values: values}
}

func (r *SeqRNG) Intn(n int) int {
	v := r.values[0] % n
	r.values = r.values[1:]
	return v
}

// NewGame returns a fresh advanced game awaiting furigoma.
func NewGame(t testing.TB, id string) *core.Gungi {
	t.Helper()
	g, err := core.New(id, core.LevelAdvanced, Players)
	require.NoError(t, err)
	return g
}

// ActiveGame returns a game where alice won furigoma and each side dropped a hei.
// It is alice's turn again.
func ActiveGame(t testing.TB, id string) *core.Gungi {
	t.Helper()
	g := NewGame(t, id)
	_, err := g.Furigoma("alice", Throws(0, 0, 0, 0, 0))
	require.NoError(t, err)
	_, err = g.PlaceGoma("alice", core.GomaRef{Name: core.Hei, Side: core.SideWhite}, core.NewCoordinate(4, 2, 0))
	require.NoError(t, err)
	_, err = g.PlaceGoma("bob", core.GomaRef{Name: core.Hei, Side: core.SideBlack}, core.NewCoordinate(4, 6, 0))
	require.NoError(t, err)
	return g
}
