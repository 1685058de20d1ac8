package render

import (
	"bytes"

	nchess "github.com/corentings/chess/v2"
)

// pieceColors holds fill and stroke per side.
var pieceColors = map[nchess.Color][2]string{
	nchess.White: {"#f8f8f8", "#1b1b1b"},
	nchess.Black: {"#2a2a2a", "#0b0b0b"},
}

// colorize fills the {{FILL}} and {{STROKE}} placeholders of a piece asset.
func colorize(svg []byte, c nchess.Color) []byte {
	colors, ok := pieceColors[c]
	if !ok {
		colors = pieceColors[nchess.White]
	}
	out := bytes.ReplaceAll(svg, []byte("{{FILL}}"), []byte(colors[0]))
	return bytes.ReplaceAll(out, []byte("{{STROKE}}"), []byte(colors[1]))
}
