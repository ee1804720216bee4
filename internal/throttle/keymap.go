package throttle

import "strings"

// Direction is one of eight logical compass moves.
type Direction string

const (
	None      Direction = ""
	North     Direction = "north"
	South     Direction = "south"
	East      Direction = "east"
	West      Direction = "west"
	NorthEast Direction = "northeast"
	NorthWest Direction = "northwest"
	SouthEast Direction = "southeast"
	SouthWest Direction = "southwest"
)

var offsets = map[Direction][2]int{
	North:     {0, -1},
	South:     {0, 1},
	East:      {1, 0},
	West:      {-1, 0},
	NorthEast: {1, -1},
	NorthWest: {-1, -1},
	SouthEast: {1, 1},
	SouthWest: {-1, 1},
}

// Offset returns the grid delta of d; y grows southwards.
func (d Direction) Offset() (dx, dy int) {
	o := offsets[d]
	return o[0], o[1]
}

// Valid reports whether d is one of the eight directions.
func (d Direction) Valid() bool {
	_, ok := offsets[d]
	return ok
}

// keymap covers the arrow, WASD and vi (HJKL + YUBN diagonals) families.
var keymap = map[string]Direction{
	"up":    North,
	"down":  South,
	"left":  West,
	"right": East,

	"w": North,
	"s": South,
	"a": West,
	"d": East,

	"k": North,
	"j": South,
	"h": West,
	"l": East,
	"y": NorthWest,
	"u": NorthEast,
	"b": SouthWest,
	"n": SouthEast,
}

// KeyDirection maps a key name to a direction. Unknown keys give None.
func KeyDirection(key string) Direction {
	return keymap[strings.ToLower(key)]
}

// ParseDirection accepts direction names and their short forms.
func ParseDirection(s string) Direction {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "n":
		return North
	case "s":
		return South
	case "e":
		return East
	case "w":
		return West
	case "ne":
		return NorthEast
	case "nw":
		return NorthWest
	case "se":
		return SouthEast
	case "sw":
		return SouthWest
	}
	if d := Direction(s); d.Valid() {
		return d
	}
	return None
}
