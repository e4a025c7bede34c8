package core

// Player is one side of a game. Everything but its piece collections is fixed at creation.
type Player struct {
	id       string
	name     string
	side     Side
	gomaOki  *GomaOki
	deadArea *DeadArea
}

// NewPlayer creates a player with empty piece collections.
func NewPlayer(id, name string, side Side) *Player {
	return &Player{
		id:       id,
		name:     name,
		side:     side,
		gomaOki:  &GomaOki{},
		deadArea: &DeadArea{},
	}
}

func (p *Player) ID() string          { return p.id }
func (p *Player) Name() string        { return p.name }
func (p *Player) Side() Side          { return p.side }
func (p *Player) GomaOki() *GomaOki   { return p.gomaOki }
func (p *Player) DeadArea() *DeadArea { return p.deadArea }

// PlayerInfo is what a caller supplies to seat a player.
type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"nickname"`
}
