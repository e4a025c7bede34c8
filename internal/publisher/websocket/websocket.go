// Package websocket streams game events to an event hub over WebSocket.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gungi-online/gungi/internal/config"
	"github.com/gungi-online/gungi/pkg/core"
	"github.com/gungi-online/gungi/pkg/streaming"
)

// Publisher sends every broadcast as a game_events envelope. It registers
// with the hub on Init and again after each reconnect.
type Publisher struct {
	conn    *connection
	cfg     config.WebsocketConfig
	service string
}

// New creates a new WebSocket publisher. service names this engine to the hub.
func New(cfg config.WebsocketConfig, service string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:    newConnection(logger.With("component", "publisher.websocket")),
		cfg:     cfg,
		service: service,
	}
}

// Init connects to the hub and waits for it to acknowledge registration.
func (p *Publisher) Init(ctx context.Context) error {
	if err := p.conn.dial(p.cfg.URL, p.cfg.Secret); err != nil {
		return err
	}

	data, err := marshalEnvelope(streaming.TypeRegister, streaming.RegisterPayload{Service: p.service})
	if err != nil {
		return err
	}
	p.conn.mu.Lock()
	p.conn.registerMsg = data
	p.conn.mu.Unlock()

	return p.conn.sendAndWait(ctx, data, streaming.TypeRegister, ackTimeout)
}

// Broadcast queues the events of one operation. Delivery is fire-and-forget.
func (p *Publisher) Broadcast(ctx context.Context, gameID string, events []core.Event) error {
	if len(events) == 0 {
		return nil
	}
	data, err := marshalEnvelope(streaming.TypeGameEvents, streaming.GameEventsPayload{GameID: gameID, Events: events})
	if err != nil {
		return err
	}
	return p.conn.send(ctx, data)
}

// Close disconnects from the hub.
func (p *Publisher) Close() error {
	return p.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}
