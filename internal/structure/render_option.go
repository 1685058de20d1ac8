package structure

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// RenderOption selects which structure set a colour's pieces are drawn with.
type RenderOption uint8

const (
	RenderDefault RenderOption = iota
	RenderOwn
	RenderOpponent
)

var RenderOptions = []RenderOption{RenderDefault, RenderOwn, RenderOpponent}

var renderOptionNames = [...]string{"DEFAULT", "OWN", "OPPONENT"}

func (o RenderOption) String() string {
	if int(o) < len(renderOptionNames) {
		return renderOptionNames[o]
	}
	return fmt.Sprintf("RenderOption(%d)", uint8(o))
}

// MessageKey is the catalog key describing the option.
func (o RenderOption) MessageKey() string {
	return "piece_render_option." + strings.ToLower(o.String())
}

func RenderOptionAt(index int) (RenderOption, error) {
	if index < 0 || index >= len(RenderOptions) {
		return RenderDefault, fmt.Errorf("render option index %d out of range", index)
	}
	return RenderOptions[index], nil
}

func ParseRenderOption(s string) (RenderOption, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range renderOptionNames {
		if name == s {
			return RenderOption(i), nil
		}
	}
	return RenderDefault, fmt.Errorf("unknown render option %q", s)
}

func (o RenderOption) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *RenderOption) UnmarshalText(b []byte) error {
	v, err := ParseRenderOption(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// DefaultRenderOptions sets both colours to RenderDefault.
func DefaultRenderOptions() map[nchess.Color]RenderOption {
	return map[nchess.Color]RenderOption{
		nchess.White: RenderDefault,
		nchess.Black: RenderDefault,
	}
}
