package render

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"testing"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/immersive-chess/internal/piece"
)

type placement map[nchess.Square]piece.Piece

func (p placement) Piece(sq nchess.Square) piece.Piece { return p[sq] }

func startPosition() placement {
	pos := placement{}
	back := []nchess.PieceType{nchess.Rook, nchess.Knight, nchess.Bishop, nchess.Queen, nchess.King, nchess.Bishop, nchess.Knight, nchess.Rook}
	for file, kind := range back {
		f := nchess.File(file)
		pos[nchess.NewSquare(f, nchess.Rank1)] = piece.Of(kind, nchess.White)
		pos[nchess.NewSquare(f, nchess.Rank2)] = piece.Of(nchess.Pawn, nchess.White)
		pos[nchess.NewSquare(f, nchess.Rank7)] = piece.Of(nchess.Pawn, nchess.Black)
		pos[nchess.NewSquare(f, nchess.Rank8)] = piece.Of(kind, nchess.Black)
	}
	return pos
}

func decode(t *testing.T, data []byte) *image.RGBA {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	rgba, ok := img.(*image.RGBA)
	if !ok {
		b := img.Bounds()
		rgba = image.NewRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				rgba.Set(x, y, img.At(x, y))
			}
		}
	}
	return rgba
}

func TestRenderPNG(t *testing.T) {
	r := NewSVGBoardRenderer()
	data, err := r.RenderPNG(context.Background(), startPosition(), Options{HUDHeader: "alice vs bob", HUDTurn: "White to move"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img := decode(t, data)
	want := image.Rect(0, 0, boardSize+sideMargin*2, boardSize+topMargin+bottomMargin)
	if img.Bounds() != want {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}

	origin := image.Pt(sideMargin, topMargin)
	a1 := squareRect(nchess.A1, origin).Min.Add(image.Pt(1, 1))
	if got := img.RGBAAt(a1.X, a1.Y); got != darkSquare {
		t.Fatalf("a1 corner should be dark, got %v", got)
	}
	h1 := squareRect(nchess.H1, origin).Min.Add(image.Pt(1, 1))
	if got := img.RGBAAt(h1.X, h1.Y); got != lightSquare {
		t.Fatalf("h1 corner should be light, got %v", got)
	}
	// the white pawn body covers the middle of e2
	e2 := squareRect(nchess.E2, origin)
	mid := image.Pt(e2.Min.X+squareSize/2, e2.Min.Y+squareSize*3/4)
	if got := img.RGBAAt(mid.X, mid.Y); got == lightSquare || got == darkSquare {
		t.Fatalf("expected a piece at e2, got plain square color %v", got)
	}
}

func TestRenderMarkers(t *testing.T) {
	r := NewSVGBoardRenderer()
	check := nchess.E1
	pos := startPosition()
	data, err := r.RenderPNG(context.Background(), pos, Options{
		Check:     &check,
		Highlight: &MoveHighlight{From: nchess.D2, To: nchess.D4},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img := decode(t, data)
	origin := image.Pt(sideMargin, topMargin)

	e1 := squareRect(nchess.E1, origin).Min.Add(image.Pt(1, 1))
	if got := img.RGBAAt(e1.X, e1.Y); got == darkSquare {
		t.Fatalf("check square should be tinted")
	}
	d4 := squareRect(nchess.D4, origin).Min.Add(image.Pt(1, 1))
	if got := img.RGBAAt(d4.X, d4.Y); got == lightSquare {
		t.Fatalf("move target should be highlighted")
	}
}

func TestRenderHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSVGBoardRenderer().RenderPNG(ctx, startPosition(), Options{}); err == nil {
		t.Fatalf("expected context error")
	}
	if _, err := NewSVGBoardRenderer().RenderPNG(context.Background(), nil, Options{}); err == nil {
		t.Fatalf("expected error for nil position")
	}
}

func TestPieceImagesAreCached(t *testing.T) {
	a, err := renderPieceImage(piece.Of(nchess.Knight, nchess.Black), 32)
	if err != nil {
		t.Fatalf("render piece: %v", err)
	}
	b, _ := renderPieceImage(piece.Of(nchess.Knight, nchess.Black), 32)
	if a != b {
		t.Fatalf("expected cached image")
	}
	if _, _, _, alpha := a.At(0, 0).RGBA(); alpha != 0 {
		t.Fatalf("piece corners should be transparent")
	}
}

func TestColorizeFillsPlaceholders(t *testing.T) {
	out := string(colorize([]byte(`<circle fill="{{FILL}}" stroke="{{STROKE}}"/>`), nchess.Black))
	if strings.Contains(out, "{{") || !strings.Contains(out, pieceColors[nchess.Black][0]) {
		t.Fatalf("colorize = %s", out)
	}
	if pieceAssetName(piece.BlackKnight) != "assets/pieces/knight.svg" {
		t.Fatalf("asset = %s", pieceAssetName(piece.BlackKnight))
	}
}
