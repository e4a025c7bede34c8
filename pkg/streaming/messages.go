// Package streaming defines the wire protocol spoken to the event hub.
package streaming

import (
	"encoding/json"

	"github.com/gungi-online/gungi/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeRegister   = "register"
	TypeGameEvents = "game_events"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// RegisterPayload introduces the engine to the hub. It is replayed on reconnect.
type RegisterPayload struct {
	Service string `json:"service"`
}

// GameEventsPayload carries the events one operation produced, in order.
type GameEventsPayload struct {
	GameID string       `json:"gameId"`
	Events []core.Event `json:"events"`
}
