package parser

import (
	"github.com/gungi-online/gungi/pkg/core"
)

// CreateGame seats two players. A zero Level means the configured default.
type CreateGame struct {
	Players [2]core.PlayerInfo
	Level   core.Level
}

// PlayerCommand is an operation that only needs to know who acts.
type PlayerCommand struct {
	GameID   string
	PlayerID string
}

// Arata drops a piece from the acting player's stock.
type Arata struct {
	PlayerCommand
	Goma core.GomaRef
	To   core.Coordinate
}

// Ugoki moves the top piece of a tower.
type Ugoki struct {
	PlayerCommand
	From core.Coordinate
	To   core.Coordinate
}

type createGameBody struct {
	Players []core.PlayerInfo `json:"players"`
	Level   string            `json:"level"`
}

// ParseCreateGame parses {players: [{id, nickname}, {id, nickname}], level?}.
func (p *Parser) ParseCreateGame(body []byte) (CreateGame, error) {
	var raw createGameBody
	if err := p.decode("create", body, &raw); err != nil {
		return CreateGame{}, err
	}
	if len(raw.Players) != 2 {
		return CreateGame{}, invalid("players", "must list exactly two players")
	}

	var cmd CreateGame
	for i, info := range raw.Players {
		id, err := requireString("players.id", info.ID)
		if err != nil {
			return CreateGame{}, err
		}
		name, err := requireString("players.nickname", info.Name)
		if err != nil {
			return CreateGame{}, err
		}
		cmd.Players[i] = core.PlayerInfo{ID: id, Name: name}
	}
	if cmd.Players[0].ID == cmd.Players[1].ID {
		return CreateGame{}, invalid("players", "must be two different players")
	}

	if raw.Level != "" {
		lvl, err := core.ParseLevel(raw.Level)
		if err != nil {
			return CreateGame{}, err
		}
		cmd.Level = lvl
	}
	return cmd, nil
}

type playerBody struct {
	PlayerID string `json:"playerId"`
}

func (p *Parser) playerCommand(gameID, playerID string) (PlayerCommand, error) {
	id, err := p.ParseGameID(gameID)
	if err != nil {
		return PlayerCommand{}, err
	}
	pid, err := requireString("playerId", playerID)
	if err != nil {
		return PlayerCommand{}, err
	}
	return PlayerCommand{GameID: id, PlayerID: pid}, nil
}

// ParsePlayerCommand parses a {playerId} body, shared by furigoma and surrender.
func (p *Parser) ParsePlayerCommand(gameID string, body []byte) (PlayerCommand, error) {
	var raw playerBody
	if err := p.decode("player", body, &raw); err != nil {
		return PlayerCommand{}, err
	}
	return p.playerCommand(gameID, raw.PlayerID)
}

// ParseLegalQuery validates the game and player of a legal actions lookup.
func (p *Parser) ParseLegalQuery(gameID, playerID string) (PlayerCommand, error) {
	return p.playerCommand(gameID, playerID)
}

type arataBody struct {
	PlayerID string         `json:"playerId"`
	Goma     *rawGoma       `json:"goma"`
	To       *rawCoordinate `json:"to"`
}

// ParseArata parses {playerId, goma: {name, side}, to: {x, y, z}}.
func (p *Parser) ParseArata(gameID string, body []byte) (Arata, error) {
	var raw arataBody
	if err := p.decode("arata", body, &raw); err != nil {
		return Arata{}, err
	}
	pc, err := p.playerCommand(gameID, raw.PlayerID)
	if err != nil {
		return Arata{}, err
	}
	goma, err := parseGoma(raw.Goma)
	if err != nil {
		return Arata{}, err
	}
	to, err := parseCoordinate("to", raw.To)
	if err != nil {
		return Arata{}, err
	}
	return Arata{PlayerCommand: pc, Goma: goma, To: to}, nil
}

type ugokiBody struct {
	PlayerID string         `json:"playerId"`
	From     *rawCoordinate `json:"from"`
	To       *rawCoordinate `json:"to"`
}

// ParseUgoki parses {playerId, from: {x, y, z}, to: {x, y, z}}.
func (p *Parser) ParseUgoki(gameID string, body []byte) (Ugoki, error) {
	var raw ugokiBody
	if err := p.decode("ugoki", body, &raw); err != nil {
		return Ugoki{}, err
	}
	pc, err := p.playerCommand(gameID, raw.PlayerID)
	if err != nil {
		return Ugoki{}, err
	}
	from, err := parseCoordinate("from", raw.From)
	if err != nil {
		return Ugoki{}, err
	}
	to, err := parseCoordinate("to", raw.To)
	if err != nil {
		return Ugoki{}, err
	}
	return Ugoki{PlayerCommand: pc, From: from, To: to}, nil
}
