package voxel

import (
	"fmt"
	"strconv"
	"strings"
)

// BlockPos는 월드의 정수 블록 좌표.
type BlockPos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func Pos(x, y, z int) BlockPos { return BlockPos{X: x, Y: y, Z: z} }

func (p BlockPos) Add(o BlockPos) BlockPos { return BlockPos{p.X + o.X, p.Y + o.Y, p.Z + o.Z} }

func (p BlockPos) Sub(o BlockPos) BlockPos { return BlockPos{p.X - o.X, p.Y - o.Y, p.Z - o.Z} }

func (p BlockPos) Scale(n int) BlockPos { return BlockPos{p.X * n, p.Y * n, p.Z * n} }

// Offset moves n blocks toward dir.
func (p BlockPos) Offset(dir Direction, n int) BlockPos {
	return p.Add(dir.Vector().Scale(n))
}

func (p BlockPos) Up() BlockPos   { return p.Offset(Up, 1) }
func (p BlockPos) Down() BlockPos { return p.Offset(Down, 1) }

// Component returns the coordinate along axis.
func (p BlockPos) Component(axis Axis) int {
	switch axis {
	case AxisX:
		return p.X
	case AxisY:
		return p.Y
	default:
		return p.Z
	}
}

// Manhattan is the taxicab distance between p and o.
func (p BlockPos) Manhattan(o BlockPos) int {
	return abs(p.X-o.X) + abs(p.Y-o.Y) + abs(p.Z-o.Z)
}

func (p BlockPos) String() string { return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z) }

// ParsePos는 String() 형식("x,y,z")을 다시 읽는다.
func ParsePos(s string) (BlockPos, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return BlockPos{}, fmt.Errorf("invalid block pos %q", s)
	}
	var out [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return BlockPos{}, fmt.Errorf("invalid block pos %q: %w", s, err)
		}
		out[i] = n
	}
	return BlockPos{out[0], out[1], out[2]}, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
