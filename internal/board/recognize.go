package board

import (
	"errors"
	"fmt"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/luminance"
	"github.com/park285/immersive-chess/internal/obslog"
	"github.com/park285/immersive-chess/internal/voxel"
)

var (
	ErrNotBoardMaterial    = errors.New("block is not a board material")
	ErrNoCandidateMaterial = errors.New("no second board material around origin")
	ErrBoardSize           = errors.New("invalid board size")
	ErrBoardMaterial       = errors.New("invalid board material")
	ErrBoardBorder         = errors.New("board border uses a board material")
	ErrBoardAccess         = errors.New("player cannot modify board")
)

// View is the read side of the world used for recognition.
type View interface {
	Block(pos voxel.BlockPos) voxel.Block
	CanModify(player string, pos voxel.BlockPos) bool
}

// IsBoardMaterial reports whether a block may form a board square.
func IsBoardMaterial(b voxel.Block) bool {
	if b.State.Name() == BlockName {
		return true
	}
	if b.IsAir() || b.Looks().IsAir() {
		return false
	}
	if !b.FullCube {
		return false
	}
	return !b.BlockEntity
}

// Recognize finds the board containing origin. The half of the board
// nearest to origin becomes black's side.
func Recognize(w View, player string, origin voxel.BlockPos, mapper *luminance.Mapper) (Board, error) {
	first := w.Block(origin)
	if !IsBoardMaterial(first) {
		return Board{}, fmt.Errorf("recognize at %s: %w", origin, ErrNotBoardMaterial)
	}
	material1 := first.Looks()
	lum1 := mapper.Luminance(material1)

	var order []voxel.BlockState
	counts := map[voxel.BlockState]int{}
	blocks := map[voxel.BlockState]voxel.Block{}
	for _, d := range voxel.Horizontals {
		b := w.Block(origin.Offset(d, 1))
		st := b.Looks()
		if _, seen := counts[st]; !seen {
			order = append(order, st)
			blocks[st] = b
		}
		counts[st]++
	}

	var candidates []voxel.BlockState
	for _, st := range order {
		if counts[st] < 2 || st == material1 || !IsBoardMaterial(blocks[st]) {
			continue
		}
		if mapper.Luminance(st) == lum1 {
			continue
		}
		candidates = append(candidates, st)
	}
	if len(candidates) == 0 {
		return Board{}, fmt.Errorf("recognize at %s: %w", origin, ErrNoCandidateMaterial)
	}

	var lastErr error
	for _, material2 := range candidates {
		obslog.L().Debug("board_validate",
			zap.String("material1", material1.String()),
			zap.String("material2", material2.String()),
		)
		b, err := validate(w, player, origin, [2]voxel.BlockState{material1, material2}, mapper)
		if err == nil {
			obslog.L().Info("board_recognized",
				zap.String("player", player),
				zap.String("a1", b.A1().String()),
				zap.String("white_direction", b.WhitePlayDirection().String()),
			)
			return b, nil
		}
		lastErr = err
	}
	return Board{}, fmt.Errorf("recognize at %s: %w", origin, lastErr)
}

func validate(w View, player string, origin voxel.BlockPos, materials [2]voxel.BlockState, mapper *luminance.Mapper) (Board, error) {
	bounds := traceBounds(w, origin, materials)
	if n := bounds.CountX(); n != Size {
		obslog.L().Debug("board_invalid_size", zap.String("axis", "x"), zap.Int("count", n))
		return Board{}, fmt.Errorf("%w in x axis: %d", ErrBoardSize, n)
	}
	if n := bounds.CountZ(); n != Size {
		obslog.L().Debug("board_invalid_size", zap.String("axis", "z"), zap.Int("count", n))
		return Board{}, fmt.Errorf("%w in z axis: %d", ErrBoardSize, n)
	}
	if err := checkMaterials(w, origin, materials, bounds); err != nil {
		return Board{}, err
	}
	if err := checkBorder(w, materials, bounds); err != nil {
		return Board{}, err
	}
	for _, p := range bounds.Positions() {
		if !w.CanModify(player, p) {
			return Board{}, fmt.Errorf("%w at %s", ErrBoardAccess, p)
		}
	}

	black := materials[1]
	if mapper.ColorOfFirstBlock(materials[0], materials[1]) == nchess.Black {
		black = materials[0]
	}

	var corners []voxel.BlockPos
	for _, c := range bounds.Corners() {
		if w.Block(c).Looks() == black {
			corners = append(corners, c)
		}
	}
	if len(corners) != 2 {
		return Board{}, fmt.Errorf("%w: %d dark corners", ErrBoardMaterial, len(corners))
	}
	c1, c2 := corners[0], corners[1]

	facing := c2.Sub(c1)
	d1 := voxel.FacingAlong(voxel.AxisX, facing.X)
	d2 := voxel.FacingAlong(voxel.AxisZ, facing.Z)
	forward := d2
	if d1.RotateYClockwise() == d2 {
		forward = d1
	}

	axis := forward.Axis()
	dist1 := absInt(c1.Sub(origin).Component(axis))
	dist2 := absInt(c2.Sub(origin).Component(axis))
	if dist1 < dist2 {
		c1 = c2
		forward = forward.Opposite()
	}
	return New(c1, forward), nil
}

// traceBounds walks both ways along X and Z while the checker pattern holds.
func traceBounds(w View, origin voxel.BlockPos, materials [2]voxel.BlockState) voxel.BlockBox {
	minX, maxX := traceAxis(w, origin, materials, voxel.AxisX)
	minZ, maxZ := traceAxis(w, origin, materials, voxel.AxisZ)
	return voxel.BoxOf(voxel.Pos(minX, origin.Y, minZ), voxel.Pos(maxX, origin.Y, maxZ))
}

func traceAxis(w View, origin voxel.BlockPos, materials [2]voxel.BlockState, axis voxel.Axis) (int, int) {
	var limits [2]int
	for i, sign := range [2]int{-1, 1} {
		dir := voxel.FacingAlong(axis, sign)
		limit := origin.Component(axis)
		for step := 1; step < Size; step++ {
			p := origin.Offset(dir, step)
			if w.Block(p).Looks() != materials[step%2] {
				break
			}
			limit = p.Component(axis)
		}
		limits[i] = limit
	}
	return limits[0], limits[1]
}

func checkMaterials(w View, origin voxel.BlockPos, materials [2]voxel.BlockState, bounds voxel.BlockBox) error {
	for _, p := range bounds.Positions() {
		want := materials[p.Manhattan(origin)%2]
		if got := w.Block(p).Looks(); got != want {
			obslog.L().Debug("board_invalid_material",
				zap.String("pos", p.String()),
				zap.String("expected", want.String()),
				zap.String("got", got.String()),
			)
			return fmt.Errorf("%w at %s", ErrBoardMaterial, p)
		}
	}
	return nil
}

func checkBorder(w View, materials [2]voxel.BlockState, bounds voxel.BlockBox) error {
	for _, p := range bounds.Ring(bounds.Min.Y) {
		b := w.Block(p)
		for _, m := range materials {
			if b.State == m || b.Looks() == m {
				obslog.L().Debug("board_invalid_border", zap.String("pos", p.String()), zap.String("state", b.State.String()))
				return fmt.Errorf("%w at %s", ErrBoardBorder, p)
			}
		}
		if b.State.Name() == BlockName || b.Looks().Name() == BlockName {
			obslog.L().Debug("board_adjacent_board", zap.String("pos", p.String()))
			return fmt.Errorf("%w: adjacent board at %s", ErrBoardBorder, p)
		}
	}
	return nil
}
