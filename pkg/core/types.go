// pkg/core/types.go
package core

import (
	"fmt"
	"strings"
)

// Side is the affiliation of a player and of every goma they own.
type Side string

const (
	SideWhite Side = "WHITE"
	SideBlack Side = "BLACK"
)

// Valid reports whether s is one of the two playable sides.
func (s Side) Valid() bool {
	return s == SideWhite || s == SideBlack
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideWhite {
		return SideBlack
	}
	return SideWhite
}

// forward is the y direction this side advances in.
// White starts on rows 0-2 and moves up the board; black starts on rows 6-8.
func (s Side) forward() int {
	if s == SideBlack {
		return -1
	}
	return 1
}

// ParseSide converts a wire value into a Side.
func ParseSide(s string) (Side, error) {
	side := Side(strings.ToUpper(strings.TrimSpace(s)))
	if !side.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSide, s)
	}
	return side, nil
}

// Level is the ruleset a game is played under. It also caps tower height.
type Level int

const (
	LevelBeginner     Level = 1
	LevelIntermediate Level = 2
	LevelAdvanced     Level = 3
)

var levelNames = map[Level]string{
	LevelBeginner:     "BEGINNER",
	LevelIntermediate: "INTERMEDIATE",
	LevelAdvanced:     "ADVANCED",
}

// Valid reports whether l is a known ruleset.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// MaxTiers is the tallest tower pieces may build under this ruleset.
func (l Level) MaxTiers() int {
	if l == LevelBeginner {
		return 2
	}
	return MaxTiers
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// MarshalText encodes the level by name, e.g. "BEGINNER".
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: level %d", ErrValidation, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText accepts the level name.
func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel converts a level name into a Level.
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for lvl, n := range levelNames {
		if n == name {
			return lvl, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown level %q", ErrValidation, s)
}

// GomaName identifies a piece type.
type GomaName string

const (
	Sui     GomaName = "SUI"
	Taisho  GomaName = "TAISHO"
	Chujo   GomaName = "CHUJO"
	Shosho  GomaName = "SHOSHO"
	Samurai GomaName = "SAMURAI"
	Yari    GomaName = "YARI"
	Uma     GomaName = "UMA"
	Shinobi GomaName = "SHINOBI"
	Toride  GomaName = "TORIDE"
	Hei     GomaName = "HEI"
	Oozutsu GomaName = "OOZUTSU"
	Tsutsu  GomaName = "TSUTSU"
	Yumi    GomaName = "YUMI"
	Boushou GomaName = "BOUSHOU"
)

// GomaNames lists every piece type in catalogue order.
var GomaNames = []GomaName{
	Sui, Taisho, Chujo, Shosho, Samurai, Yari, Uma,
	Shinobi, Toride, Hei, Oozutsu, Tsutsu, Yumi, Boushou,
}

// Valid reports whether n is part of the piece catalogue.
func (n GomaName) Valid() bool {
	for _, name := range GomaNames {
		if name == n {
			return true
		}
	}
	return false
}

// ParseGomaName converts a wire value into a GomaName.
func ParseGomaName(s string) (GomaName, error) {
	name := GomaName(strings.ToUpper(strings.TrimSpace(s)))
	if !name.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGoma, s)
	}
	return name, nil
}

// special pieces are left out of beginner games.
var specialGoma = map[GomaName]bool{
	Oozutsu: true,
	Tsutsu:  true,
	Yumi:    true,
	Boushou: true,
}

// initialStock is the number of each piece a side starts with.
var initialStock = map[GomaName]int{
	Sui:     1,
	Taisho:  1,
	Chujo:   1,
	Shosho:  2,
	Samurai: 2,
	Yari:    3,
	Uma:     2,
	Shinobi: 2,
	Toride:  2,
	Hei:     4,
	Oozutsu: 1,
	Tsutsu:  1,
	Yumi:    2,
	Boushou: 1,
}

// StockFor returns the full piece set one side starts with under the given level.
func StockFor(level Level, side Side) []*Goma {
	var gomas []*Goma
	for _, name := range GomaNames {
		if level == LevelBeginner && specialGoma[name] {
			continue
		}
		for i := 0; i < initialStock[name]; i++ {
			gomas = append(gomas, NewGoma(level, side, name))
		}
	}
	return gomas
}

// Face is the side a thrown hei lands on during furigoma.
type Face string

const (
	FaceOmote Face = "OMOTE"
	FaceUra   Face = "URA"
)
