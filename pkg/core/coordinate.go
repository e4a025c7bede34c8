package core

import "fmt"

const (
	// BoardSize is the number of files and ranks on the han.
	BoardSize = 9
	// MaxTiers is the physical limit of a tower.
	MaxTiers = 3
)

// Coordinate is a cell position on the han. Z is the tier index, 0 being the ground.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// NewCoordinate builds a Coordinate.
func NewCoordinate(x, y, z int) Coordinate {
	return Coordinate{X: x, Y: y, Z: z}
}

// InBounds reports whether c denotes a real board position.
func (c Coordinate) InBounds() bool {
	return onBoard(c.X, c.Y) && c.Z >= 0 && c.Z < MaxTiers
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

func onBoard(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}

func containsCoordinate(cs []Coordinate, c Coordinate) bool {
	for _, v := range cs {
		if v == c {
			return true
		}
	}
	return false
}
