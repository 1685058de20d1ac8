package voxel

import (
	"fmt"
	"strings"
)

type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "z"
	}
}

// Direction is one of the six block faces. Horizontal order follows a
// clockwise turn seen from above: north, east, south, west.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
	Up
	Down
)

// Horizontals lists the four horizontal directions in clockwise order.
var Horizontals = [4]Direction{North, East, South, West}

var directionNames = [...]string{"north", "east", "south", "west", "up", "down"}

var directionVectors = [...]BlockPos{
	North: {0, 0, -1},
	East:  {1, 0, 0},
	South: {0, 0, 1},
	West:  {-1, 0, 0},
	Up:    {0, 1, 0},
	Down:  {0, -1, 0},
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

func (d Direction) Vector() BlockPos { return directionVectors[d] }

func (d Direction) Axis() Axis {
	switch d {
	case East, West:
		return AxisX
	case Up, Down:
		return AxisY
	default:
		return AxisZ
	}
}

func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Up:
		return Down
	default:
		return Up
	}
}

// RotateYClockwise turns a horizontal direction a quarter turn clockwise.
// Vertical directions are returned unchanged.
func (d Direction) RotateYClockwise() Direction {
	if d > West {
		return d
	}
	return Horizontals[(int(d)+1)%4]
}

// FacingOf는 벡터와 내적이 가장 큰 방향을 고른다. 영벡터면 North.
func FacingOf(dx, dy, dz int) Direction {
	best := North
	bestDot := 0
	for d := North; d <= Down; d++ {
		v := d.Vector()
		dot := v.X*dx + v.Y*dy + v.Z*dz
		if dot > bestDot {
			best, bestDot = d, dot
		}
	}
	return best
}

// FacingAlong returns the direction on axis pointing toward the sign of v.
func FacingAlong(axis Axis, v int) Direction {
	switch axis {
	case AxisX:
		if v < 0 {
			return West
		}
		return East
	case AxisY:
		if v < 0 {
			return Down
		}
		return Up
	default:
		if v < 0 {
			return North
		}
		return South
	}
}

func ParseDirection(s string) (Direction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return North, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
