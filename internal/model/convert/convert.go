// Package convert maps game snapshots to GORM rows and back.
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/gungi-online/gungi/internal/model"
	"github.com/gungi-online/gungi/pkg/core"
)

// SnapshotToGame converts a snapshot into a Game row. Events are returned from
// position `from` on, so callers only insert what is not stored yet.
func SnapshotToGame(s core.Snapshot, from int) (model.Game, []model.GameEvent, error) {
	han, err := json.Marshal(s.GungiHan)
	if err != nil {
		return model.Game{}, nil, fmt.Errorf("failed to marshal han: %w", err)
	}
	players, err := json.Marshal(s.Players)
	if err != nil {
		return model.Game{}, nil, fmt.Errorf("failed to marshal players: %w", err)
	}

	game := model.Game{
		ID:          s.ID,
		Level:       s.Level.String(),
		Phase:       string(s.Phase),
		CurrentTurn: string(s.CurrentTurn),
		Sente:       s.Turn.Sente,
		Gote:        s.Turn.Gote,
		Winner:      s.Winner,
		Version:     s.Version,
		Han:         han,
		Players:     players,
	}

	var events []model.GameEvent
	for seq := from; seq < len(s.History); seq++ {
		e := s.History[seq]
		data, err := json.Marshal(e.Data)
		if err != nil {
			return model.Game{}, nil, fmt.Errorf("failed to marshal event %d: %w", seq, err)
		}
		events = append(events, model.GameEvent{
			GameID: s.ID,
			Seq:    seq,
			Name:   string(e.Name),
			Data:   data,
		})
	}
	return game, events, nil
}

// GameToSnapshot rebuilds a snapshot from a Game row and its events ordered by Seq.
func GameToSnapshot(g model.Game, events []model.GameEvent) (core.Snapshot, error) {
	level, err := core.ParseLevel(g.Level)
	if err != nil {
		return core.Snapshot{}, err
	}

	s := core.Snapshot{
		ID:          g.ID,
		Level:       level,
		Version:     g.Version,
		Turn:        core.TurnAssignment{Sente: g.Sente, Gote: g.Gote},
		CurrentTurn: core.Side(g.CurrentTurn),
		Phase:       core.Phase(g.Phase),
		Winner:      g.Winner,
		History:     make([]core.Event, 0, len(events)),
	}
	if len(g.Han) > 0 {
		if err := json.Unmarshal(g.Han, &s.GungiHan); err != nil {
			return core.Snapshot{}, fmt.Errorf("failed to unmarshal han: %w", err)
		}
	}
	if err := json.Unmarshal(g.Players, &s.Players); err != nil {
		return core.Snapshot{}, fmt.Errorf("failed to unmarshal players: %w", err)
	}

	for i, row := range events {
		if row.Seq != i {
			return core.Snapshot{}, fmt.Errorf("%w: event %d stored at position %d", core.ErrValidation, i, row.Seq)
		}
		var e core.Event
		raw, err := json.Marshal(struct {
			Name string          `json:"name"`
			Data json.RawMessage `json:"data"`
		}{row.Name, json.RawMessage(row.Data)})
		if err != nil {
			return core.Snapshot{}, err
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return core.Snapshot{}, fmt.Errorf("failed to decode event %d: %w", row.Seq, err)
		}
		s.History = append(s.History, e)
	}
	return s, nil
}
