package frame

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	errs "github.com/matzehuels/swarmreplay/pkg/errors"
)

// Default palette of a frame.
var (
	DefaultHighlight = colornames.Red
	AgentColor       = color.RGBA{0x1f, 0x77, 0xb4, 0xff}
	InkColor         = color.RGBA{0x00, 0x00, 0x00, 0xff}
	PaperColor       = color.RGBA{0xff, 0xff, 0xff, 0xff}
	GridColor        = color.RGBA{0xb0, 0xb0, 0xb0, 0xff}
)

// shorthand single-letter colors accepted by common plotting tools.
var shorthand = map[string]color.RGBA{
	"r": colornames.Red,
	"g": {0x00, 0x80, 0x00, 0xff},
	"b": colornames.Blue,
	"c": colornames.Cyan,
	"m": colornames.Magenta,
	"y": colornames.Yellow,
	"k": colornames.Black,
	"w": colornames.White,
}

// ParseColor accepts an SVG 1.1 color name ("red", "gold"), a single-letter
// shorthand ("r", "k") or a hex triplet ("#f00", "#ff0000", "#ff000080").
func ParseColor(s string) (color.RGBA, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(name, "#") {
		if c, ok := parseHex(name[1:]); ok {
			return c, nil
		}
		return color.RGBA{}, errs.New(errs.ErrCodeInvalidColor, "invalid hex color %q", s)
	}
	if c, ok := shorthand[name]; ok {
		return c, nil
	}
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	return color.RGBA{}, errs.New(errs.ErrCodeInvalidColor, "unknown color %q", s)
}

func parseHex(h string) (color.RGBA, bool) {
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}) + "ff"
	case 6:
		h += "ff"
	case 8:
	default:
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	// Frames are opaque; an alpha channel is accepted but flattened.
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: 0xff}, true
}
