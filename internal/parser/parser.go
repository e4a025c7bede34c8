// Package parser turns raw request payloads into typed game commands.
// Every rejection wraps core.ErrValidation so callers can map it to a bad request.
package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gungi-online/gungi/pkg/core"
)

// Parser provides pure payload -> command conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// invalid builds a validation error for a named field.
func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", core.ErrValidation, field, reason)
}

// decode unmarshals body into v. An empty body decodes as an empty object so
// the field checks that follow report what is missing.
func (p *Parser) decode(op string, body []byte, v any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, v); err != nil {
		p.logger.Debug("rejected malformed payload", "op", op, "error", err)
		return fmt.Errorf("%w: malformed %s payload: %v", core.ErrValidation, op, err)
	}
	return nil
}

func requireString(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid(field, "is required")
	}
	return value, nil
}

// ParseGameID validates a game id taken from a route.
func (p *Parser) ParseGameID(id string) (string, error) {
	return requireString("gameId", id)
}

// rawCoordinate keeps pointers so an omitted axis is told apart from zero.
type rawCoordinate struct {
	X *int `json:"x"`
	Y *int `json:"y"`
	Z *int `json:"z"`
}

func parseCoordinate(field string, raw *rawCoordinate) (core.Coordinate, error) {
	if raw == nil {
		return core.Coordinate{}, invalid(field, "is required")
	}
	if raw.X == nil || raw.Y == nil || raw.Z == nil {
		return core.Coordinate{}, invalid(field, "needs x, y and z")
	}
	c := core.NewCoordinate(*raw.X, *raw.Y, *raw.Z)
	if !c.InBounds() {
		return core.Coordinate{}, fmt.Errorf("%w: %s %s", core.ErrOutOfBounds, field, c)
	}
	return c, nil
}

type rawGoma struct {
	Name string `json:"name"`
	Side string `json:"side"`
}

func parseGoma(raw *rawGoma) (core.GomaRef, error) {
	if raw == nil {
		return core.GomaRef{}, invalid("goma", "is required")
	}
	if _, err := requireString("goma.name", raw.Name); err != nil {
		return core.GomaRef{}, err
	}
	name, err := core.ParseGomaName(raw.Name)
	if err != nil {
		return core.GomaRef{}, err
	}
	if _, err := requireString("goma.side", raw.Side); err != nil {
		return core.GomaRef{}, err
	}
	side, err := core.ParseSide(raw.Side)
	if err != nil {
		return core.GomaRef{}, err
	}
	return core.GomaRef{Name: name, Side: side}, nil
}
