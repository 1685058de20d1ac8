package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"math"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/immersive-chess/internal/piece"
)

// Position is the piece placement a snapshot is drawn from.
type Position interface {
	Piece(sq nchess.Square) piece.Piece
}

type MoveHighlight struct {
	From nchess.Square
	To   nchess.Square
}

type Options struct {
	Highlight *MoveHighlight
	// Check marks the square of a king in check.
	Check *nchess.Square
	// Mined marks the square whose piece is lifted.
	Mined     *nchess.Square
	HUDHeader string
	HUDTurn   string
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, pos Position, opts Options) ([]byte, error)
}

type svgBoardRenderer struct{}

func NewSVGBoardRenderer() BoardRenderer {
	return &svgBoardRenderer{}
}

const (
	squareSize   = 64
	boardSquares = 8
	boardSize    = squareSize * boardSquares
	sideMargin   = 32
	topMargin    = 104
	bottomMargin = 32
)

func (r *svgBoardRenderer) RenderPNG(ctx context.Context, pos Position, opts Options) ([]byte, error) {
	if pos == nil {
		return nil, errors.New("position is nil")
	}

	const (
		titleHeight          = 36
		secondaryPanelHeight = 28
		gapBetweenPanels     = 12
		gapToBoard           = 18
		panelRadius          = 10
		titlePaddingX        = 24
		turnPaddingX         = 18
		titleMinWidth        = 280
		turnMinWidth         = 140
		shadowOffsetY        = 5
	)

	totalWidth := boardSize + sideMargin*2
	totalHeight := boardSize + topMargin + bottomMargin
	boardOrigin := image.Point{X: sideMargin, Y: topMargin}
	boardRect := image.Rect(boardOrigin.X, boardOrigin.Y, boardOrigin.X+boardSize, boardOrigin.Y+boardSize)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	hud := hudLayout{
		radius:               panelRadius,
		titleHeight:          titleHeight,
		secondaryPanelHeight: secondaryPanelHeight,
		gapBetweenPanels:     gapBetweenPanels,
		gapToBoard:           gapToBoard,
		titlePaddingX:        titlePaddingX,
		turnPaddingX:         turnPaddingX,
		titleMinWidth:        titleMinWidth,
		turnMinWidth:         turnMinWidth,
		shadowOffsetY:        shadowOffsetY,
	}
	drawHUD(img, opts, boardRect, hud)
	drawBoardShadow(img, boardRect)
	drawSquares(img, boardOrigin)
	if opts.Check != nil {
		drawSquareOverlay(img, *opts.Check, boardOrigin, checkColor)
	}
	drawHighlight(img, pos, opts.Highlight, boardOrigin)
	if err := drawPieces(img, pos, opts.Mined, boardOrigin); err != nil {
		return nil, err
	}
	drawCoordinates(img, boardOrigin, sideMargin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

var (
	backgroundColor         = color.RGBA{22, 24, 36, 255}
	lightSquare             = color.RGBA{233, 207, 163, 255}
	darkSquare              = color.RGBA{187, 136, 96, 255}
	checkColor              = color.NRGBA{R: 220, G: 40, B: 40, A: 150}
	whiteMoveHighlightFill  = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackMoveHighlightArrow = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	minedPieceAlpha         = color.Alpha{A: 90}
	hudPanelColor           = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTurnPanelColor       = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	hudShadowColor          = color.NRGBA{0, 0, 0, 50}
	hudTextPrimary          = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTurnTextColor        = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	boardShadowColor        = color.NRGBA{0, 0, 0, 60}
	coordinateTextColor     = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

var (
	ranks = []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	files = []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
)

func drawBoardShadow(img *image.RGBA, boardRect image.Rectangle) {
	shadowRect := image.Rect(boardRect.Min.X+4, boardRect.Min.Y+8, boardRect.Max.X+10, boardRect.Max.Y+12)
	imagedraw.Draw(img, shadowRect, image.NewUniform(boardShadowColor), image.Point{}, imagedraw.Over)
}

func drawSquares(dst imagedraw.Image, origin image.Point) {
	for _, rank := range ranks {
		for _, file := range files {
			sq := nchess.NewSquare(file, rank)
			imagedraw.Draw(dst, squareRect(sq, origin), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, pos Position, mined *nchess.Square, origin image.Point) error {
	for _, rank := range ranks {
		for _, file := range files {
			sq := nchess.NewSquare(file, rank)
			p := pos.Piece(sq)
			if p == piece.None {
				continue
			}
			img, err := renderPieceImage(p, squareSize)
			if err != nil {
				return err
			}
			rect := squareRect(sq, origin)
			if mined != nil && *mined == sq {
				imagedraw.DrawMask(dst, rect, img, image.Point{}, image.NewUniform(minedPieceAlpha), image.Point{}, imagedraw.Over)
				continue
			}
			imagedraw.Draw(dst, rect, img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

// drawHighlight fills both squares of a white move and draws an arrow for a
// black one.
func drawHighlight(img *image.RGBA, pos Position, highlight *MoveHighlight, origin image.Point) {
	if highlight == nil {
		return
	}
	if moverColor(pos, highlight) == nchess.Black {
		drawArrow(img, highlight.From, highlight.To, origin, blackMoveHighlightArrow)
		return
	}
	drawSquareOverlay(img, highlight.From, origin, whiteMoveHighlightFill)
	drawSquareOverlay(img, highlight.To, origin, whiteMoveHighlightFill)
}

func moverColor(pos Position, highlight *MoveHighlight) nchess.Color {
	if p := pos.Piece(highlight.To); p != piece.None {
		return p.Color()
	}
	if p := pos.Piece(highlight.From); p != piece.None {
		return p.Color()
	}
	return nchess.NoColor
}

type hudLayout struct {
	radius               int
	titleHeight          int
	secondaryPanelHeight int
	gapBetweenPanels     int
	gapToBoard           int
	titlePaddingX        int
	turnPaddingX         int
	titleMinWidth        int
	turnMinWidth         int
	shadowOffsetY        int
}

func drawHUD(img *image.RGBA, opts Options, boardRect image.Rectangle, l hudLayout) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Face: face}

	title := strings.TrimSpace(opts.HUDHeader)
	if title == "" {
		title = "Immersive Chess"
	}
	turnText := strings.TrimSpace(opts.HUDTurn)
	if turnText == "" {
		turnText = "Turn"
	}

	turnBottom := boardRect.Min.Y - l.gapToBoard
	turnTop := turnBottom - l.secondaryPanelHeight
	titleBottom := turnTop - l.gapBetweenPanels
	titleTop := titleBottom - l.titleHeight

	titleWidth := max(l.titleMinWidth, drawer.MeasureString(title).Round()+l.titlePaddingX*2)
	titleWidth = min(titleWidth, boardRect.Dx())
	turnWidth := max(l.turnMinWidth, drawer.MeasureString(turnText).Round()+l.turnPaddingX*2)
	turnWidth = min(turnWidth, boardRect.Dx()-40)

	titleLeft := boardRect.Min.X + (boardRect.Dx()-titleWidth)/2
	titleRect := image.Rect(titleLeft, titleTop, titleLeft+titleWidth, titleBottom)
	turnLeft := boardRect.Min.X + (boardRect.Dx()-turnWidth)/2
	turnRect := image.Rect(turnLeft, turnTop, turnLeft+turnWidth, turnBottom)

	drawRoundedPanel(img, titleRect.Add(image.Pt(0, l.shadowOffsetY)), l.radius, hudShadowColor)
	drawRoundedPanel(img, turnRect.Add(image.Pt(0, l.shadowOffsetY)), l.radius, hudShadowColor)

	title = truncateWithEllipsis(face, title, titleRect.Dx()-l.titlePaddingX*2)
	turnText = truncateWithEllipsis(face, turnText, turnRect.Dx()-l.turnPaddingX*2)

	drawRoundedPanel(img, titleRect, l.radius, hudPanelColor)
	drawRoundedPanel(img, turnRect, l.radius, hudTurnPanelColor)

	drawCenteredString(drawer, titleRect, title, hudTextPrimary)
	drawCenteredString(drawer, turnRect, turnText, hudTurnTextColor)
}

func drawSquareOverlay(img *image.RGBA, sq nchess.Square, origin image.Point, clr color.Color) {
	imagedraw.Draw(img, squareRect(sq, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawArrow(img *image.RGBA, from, to nchess.Square, origin image.Point, clr color.Color) {
	if from == to {
		return
	}
	startRect := squareRect(from, origin)
	endRect := squareRect(to, origin)
	start := image.Pt(startRect.Min.X+squareSize/2, startRect.Min.Y+squareSize/2)
	end := image.Pt(endRect.Min.X+squareSize/2, endRect.Min.Y+squareSize/2)

	dx := float64(end.X - start.X)
	dy := float64(end.Y - start.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}

	dirX := dx / length
	dirY := dy / length
	perpX := -dirY
	perpY := dirX

	baseLength := length - float64(squareSize)*0.45
	if baseLength < float64(squareSize)*0.35 {
		baseLength = length * 0.6
	}
	halfWidth := float64(squareSize) * 0.18
	headWidth := float64(squareSize) * 0.32

	baseX := float64(start.X) + dirX*baseLength
	baseY := float64(start.Y) + dirY*baseLength

	shaftStartLeft := pointF{X: float64(start.X) - perpX*halfWidth, Y: float64(start.Y) - perpY*halfWidth}
	shaftStartRight := pointF{X: float64(start.X) + perpX*halfWidth, Y: float64(start.Y) + perpY*halfWidth}
	shaftEndLeft := pointF{X: baseX - perpX*halfWidth, Y: baseY - perpY*halfWidth}
	shaftEndRight := pointF{X: baseX + perpX*halfWidth, Y: baseY + perpY*halfWidth}
	fillQuad(img, shaftStartLeft, shaftStartRight, shaftEndRight, shaftEndLeft, clr)

	headLeft := pointF{X: baseX - perpX*headWidth/2, Y: baseY - perpY*headWidth/2}
	headRight := pointF{X: baseX + perpX*headWidth/2, Y: baseY + perpY*headWidth/2}
	headTip := pointF{X: float64(end.X), Y: float64(end.Y)}
	fillTriangleF(img, headTip, headLeft, headRight, clr)
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}

	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}

	ellipsis := "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}

	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if rect.Empty() {
		return
	}
	radius = max(0, min(radius, rect.Dx()/2, rect.Dy()/2))
	fill := image.NewUniform(clr)
	if radius == 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}

	core := image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y)
	if core.Dx() > 0 {
		imagedraw.Draw(img, core, fill, image.Point{}, imagedraw.Over)
	}
	leftRect := image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius)
	if leftRect.Dx() > 0 {
		imagedraw.Draw(img, leftRect, fill, image.Point{}, imagedraw.Over)
	}
	rightRect := image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius)
	if rightRect.Dx() > 0 {
		imagedraw.Draw(img, rightRect, fill, image.Point{}, imagedraw.Over)
	}

	corners := []image.Point{
		{rect.Min.X + radius, rect.Min.Y + radius},
		{rect.Max.X - radius - 1, rect.Min.Y + radius},
		{rect.Min.X + radius, rect.Max.Y - radius - 1},
		{rect.Max.X - radius - 1, rect.Max.Y - radius - 1},
	}
	for _, center := range corners {
		drawQuarterDisc(img, center, radius, rect, clr)
	}
}

// drawQuarterDisc paints the part of the disc around center that lies outside
// the already filled cross of a rounded panel.
func drawQuarterDisc(img *image.RGBA, center image.Point, radius int, rect image.Rectangle, clr color.Color) {
	rSquared := radius * radius
	inner := image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y)
	side := image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius)
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > rSquared {
				continue
			}
			p := image.Pt(center.X+x, center.Y+y)
			if !p.In(rect) || p.In(inner) || p.In(side) {
				continue
			}
			blendPixel(img, p.X, p.Y, clr)
		}
	}
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := max(rect.Min.X, rect.Min.X+(rect.Dx()-width)/2)
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCoordinates(dst imagedraw.Image, origin image.Point, margin int) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordinateTextColor)}
	ascent := face.Metrics().Ascent.Ceil()
	boardEndY := origin.Y + len(ranks)*squareSize

	for row, rank := range ranks {
		rankBaseline := origin.Y + row*squareSize + squareSize/2 + ascent/2
		drawCenteredText(drawer, rank.String(), origin.X-margin/2, rankBaseline)
	}
	for col, file := range files {
		fileCenter := origin.X + col*squareSize + squareSize/2
		drawCenteredText(drawer, file.String(), fileCenter, boardEndY+ascent+4)
	}
}

func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}

	sr, sg, sb, sa := clr.RGBA()
	srcA := float64(sa) / 65535.0
	if srcA <= 0 {
		return
	}
	// clr.RGBA is alpha premultiplied
	srcR := float64(sr) / 65535.0 / srcA
	srcG := float64(sg) / 65535.0 / srcA
	srcB := float64(sb) / 65535.0 / srcA

	dst := img.RGBAAt(x, y)
	dstA := float64(dst.A) / 255.0

	var dstR, dstG, dstB float64
	if dstA > 0 {
		inv := 1.0 / dstA
		dstR = float64(dst.R) / 255.0 * inv
		dstG = float64(dst.G) / 255.0 * inv
		dstB = float64(dst.B) / 255.0 * inv
	}

	outA := srcA + dstA*(1-srcA)
	if outA <= 0 {
		img.SetRGBA(x, y, color.RGBA{})
		return
	}

	outR := (srcR*srcA + dstR*dstA*(1-srcA)) / outA
	outG := (srcG*srcA + dstG*dstA*(1-srcA)) / outA
	outB := (srcB*srcA + dstB*dstA*(1-srcA)) / outA

	img.SetRGBA(x, y, color.RGBA{
		R: floatToUint8(outR * outA * 255.0),
		G: floatToUint8(outG * outA * 255.0),
		B: floatToUint8(outB * outA * 255.0),
		A: floatToUint8(outA * 255.0),
	})
}

func floatToUint8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// squareRect places rank 8 at the top.
func squareRect(sq nchess.Square, origin image.Point) image.Rectangle {
	row := 7 - int(sq.Rank())
	col := int(sq.File())
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func squareColor(sq nchess.Square) color.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func fillQuad(img *image.RGBA, p0, p1, p2, p3 pointF, clr color.Color) {
	fillTriangleF(img, p0, p1, p2, clr)
	fillTriangleF(img, p0, p2, p3, clr)
}

func fillTriangleF(img *image.RGBA, a, b, c pointF, clr color.Color) {
	minX := int(math.Floor(min(a.X, b.X, c.X)))
	maxX := int(math.Ceil(max(a.X, b.X, c.X)))
	minY := int(math.Floor(min(a.Y, b.Y, c.Y)))
	maxY := int(math.Ceil(max(a.Y, b.Y, c.Y)))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if pointInTriangleFloat(float64(x)+0.5, float64(y)+0.5, a, b, c) {
				blendPixel(img, x, y, clr)
			}
		}
	}
}

func pointInTriangleFloat(x, y float64, a, b, c pointF) bool {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if denom == 0 {
		return false
	}
	alpha := ((b.Y-c.Y)*(x-c.X) + (c.X-b.X)*(y-c.Y)) / denom
	beta := ((c.Y-a.Y)*(x-c.X) + (a.X-c.X)*(y-c.Y)) / denom
	gamma := 1 - alpha - beta
	return alpha >= 0 && beta >= 0 && gamma >= 0
}

type pointF struct {
	X float64
	Y float64
}
