package core

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

// Phase is the lifecycle state of a game.
type Phase string

const (
	PhaseAwaitingFurigoma Phase = "AWAITING_FURIGOMA"
	PhaseActivePlay       Phase = "ACTIVE_PLAY"
	PhaseFinished         Phase = "FINISHED"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p == PhaseAwaitingFurigoma || p == PhaseActivePlay || p == PhaseFinished
}

const (
	transitionResolve = "resolve"
	transitionFinish  = "finish"
)

// Turn tracks sente/gote, the side to move and the game phase.
// Phase transitions only move forward.
type Turn struct {
	sente       string
	gote        string
	currentSide Side
	phase       *fsm.FSM
}

func newTurn(phase Phase) *Turn {
	return &Turn{
		currentSide: SideWhite,
		phase: fsm.NewFSM(
			string(phase),
			fsm.Events{
				{Name: transitionResolve, Src: []string{string(PhaseAwaitingFurigoma)}, Dst: string(PhaseActivePlay)},
				{Name: transitionFinish, Src: []string{string(PhaseAwaitingFurigoma), string(PhaseActivePlay)}, Dst: string(PhaseFinished)},
			},
			fsm.Callbacks{},
		),
	}
}

// Sente is the id of the player moving first, "" until furigoma resolves.
func (t *Turn) Sente() string { return t.sente }

// Gote is the id of the player moving second, "" until furigoma resolves.
func (t *Turn) Gote() string { return t.gote }

// CurrentSide is the side whose action is expected next.
func (t *Turn) CurrentSide() Side { return t.currentSide }

// Phase returns the current lifecycle state.
func (t *Turn) Phase() Phase { return Phase(t.phase.Current()) }

func (t *Turn) resolve(sente, gote string, first Side) error {
	if err := t.phase.Event(context.Background(), transitionResolve); err != nil {
		return fmt.Errorf("%w: %v", ErrFurigomaAlreadyResolved, err)
	}
	t.sente = sente
	t.gote = gote
	t.currentSide = first
	return nil
}

func (t *Turn) finish() error {
	if err := t.phase.Event(context.Background(), transitionFinish); err != nil {
		return fmt.Errorf("%w: %v", ErrGameAlreadyFinished, err)
	}
	return nil
}

func (t *Turn) flip() {
	t.currentSide = t.currentSide.Opponent()
}
