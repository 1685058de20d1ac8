package render

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/immersive-chess/internal/piece"
)

//go:embed assets/pieces/*.svg
var pieceFiles embed.FS

type pieceCacheKey struct {
	piece piece.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(p piece.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: p, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	name := pieceAssetName(p)
	data, err := pieceFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read piece asset %s: %w", name, err)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(colorize(data, p.Color())))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}

	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		icon.ViewBox.W, icon.ViewBox.H = float64(size), float64(size)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}

var assetNames = map[nchess.PieceType]string{
	nchess.King:   "king",
	nchess.Queen:  "queen",
	nchess.Rook:   "rook",
	nchess.Bishop: "bishop",
	nchess.Knight: "knight",
	nchess.Pawn:   "pawn",
}

// pieceAssetName maps a piece to its embedded icon. White and black share
// the icon and differ in colour only.
func pieceAssetName(p piece.Piece) string {
	name, ok := assetNames[p.Type()]
	if !ok {
		name = "pawn"
	}
	return "assets/pieces/" + name + ".svg"
}
