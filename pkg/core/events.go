// pkg/core/events.go
package core

import (
	"encoding/json"
	"fmt"
)

// EventName identifies the kind of a recorded state transition.
type EventName string

const (
	EventFurigomaResolved EventName = "FurigomaResolved"
	EventGomaPlaced       EventName = "GomaPlaced"
	EventGomaMoved        EventName = "GomaMoved"
	EventGameSurrendered  EventName = "GameSurrendered"
	EventSuiCaptured      EventName = "SuiCaptured"
)

// EventData is the payload of an Event.
type EventData interface {
	EventName() EventName
}

// Event is an immutable record of one state transition.
type Event struct {
	Name EventName `json:"name"`
	Data EventData `json:"data"`
}

// NewEvent wraps a payload into an Event.
func NewEvent(data EventData) Event {
	return Event{Name: data.EventName(), Data: data}
}

// UnmarshalJSON decodes data into the payload type matching name.
func (e *Event) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name EventName       `json:"name"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var data EventData
	var err error
	switch raw.Name {
	case EventFurigomaResolved:
		data, err = decodeData[FurigomaResolved](raw.Data)
	case EventGomaPlaced:
		data, err = decodeData[GomaPlaced](raw.Data)
	case EventGomaMoved:
		data, err = decodeData[GomaMoved](raw.Data)
	case EventGameSurrendered:
		data, err = decodeData[GameSurrendered](raw.Data)
	case EventSuiCaptured:
		data, err = decodeData[SuiCaptured](raw.Data)
	default:
		return fmt.Errorf("unknown event %q", raw.Name)
	}
	if err != nil {
		return fmt.Errorf("decoding %s: %w", raw.Name, err)
	}

	e.Name = raw.Name
	e.Data = data
	return nil
}

func decodeData[T EventData](raw json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}

// TurnAssignment is the outcome of furigoma.
type TurnAssignment struct {
	Sente string `json:"sente"`
	Gote  string `json:"gote"`
}

// FurigomaResolved records the five throws and who moves first.
type FurigomaResolved struct {
	PlayerID string         `json:"playerId"`
	Result   []Face         `json:"result"`
	Turn     TurnAssignment `json:"turn"`
}

func (FurigomaResolved) EventName() EventName { return EventFurigomaResolved }

// GomaPlaced records a drop from stock (arata).
type GomaPlaced struct {
	PlayerID string     `json:"playerId"`
	Goma     GomaRef    `json:"goma"`
	To       Coordinate `json:"to"`
}

func (GomaPlaced) EventName() EventName { return EventGomaPlaced }

// GomaMoved records a move on the board (ugoki), with the piece it captured if any.
type GomaMoved struct {
	PlayerID string     `json:"playerId"`
	Goma     GomaRef    `json:"goma"`
	From     Coordinate `json:"from"`
	To       Coordinate `json:"to"`
	Captured *GomaRef   `json:"captured,omitempty"`
}

func (GomaMoved) EventName() EventName { return EventGomaMoved }

// GameSurrendered records a resignation.
type GameSurrendered struct {
	PlayerID string `json:"playerId"`
	WinnerID string `json:"winnerId"`
}

func (GameSurrendered) EventName() EventName { return EventGameSurrendered }

// SuiCaptured records the capture of a sui, which ends the game.
type SuiCaptured struct {
	PlayerID string `json:"playerId"`
	WinnerID string `json:"winnerId"`
}

func (SuiCaptured) EventName() EventName { return EventSuiCaptured }

// History is the append-only log of a game's events.
type History struct {
	events []Event
}

// Events returns a copy of the log in order.
func (h *History) Events() []Event {
	out := make([]Event, len(h.events))
	copy(out, h.events)
	return out
}

// Len returns the number of recorded events.
func (h *History) Len() int {
	return len(h.events)
}

// tracked copies a payload into the pointer form aggregate.TrackChange stores.
func tracked(d EventData) (any, bool) {
	switch v := d.(type) {
	case FurigomaResolved:
		return &v, true
	case GomaPlaced:
		return &v, true
	case GomaMoved:
		return &v, true
	case GameSurrendered:
		return &v, true
	case SuiCaptured:
		return &v, true
	}
	return nil, false
}

// untracked turns a stored payload back into an Event.
func untracked(data any) (Event, bool) {
	switch v := data.(type) {
	case *FurigomaResolved:
		return NewEvent(*v), true
	case *GomaPlaced:
		return NewEvent(*v), true
	case *GomaMoved:
		return NewEvent(*v), true
	case *GameSurrendered:
		return NewEvent(*v), true
	case *SuiCaptured:
		return NewEvent(*v), true
	}
	return Event{}, false
}
