// Package fonts provides the font faces used to annotate frames.
//
// The Go fonts ship inside golang.org/x/image, so frames render identically
// on every machine without depending on system font discovery.
package fonts

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Family selects one of the embedded typefaces.
type Family int

const (
	// Regular is the proportional Go Regular face, used for titles and labels.
	Regular Family = iota
	// Mono is Go Mono, used for tick labels so digits line up.
	Mono
)

// Cache for parsed fonts (parsed once on first access).
var (
	regularFont, monoFont *truetype.Font
	parseOnce             sync.Once
	parseErr              error
)

func parse() {
	regularFont, parseErr = truetype.Parse(goregular.TTF)
	if parseErr != nil {
		return
	}
	monoFont, parseErr = truetype.Parse(gomono.TTF)
}

// Face returns a face of the given family at size points, rasterized for
// dpi dots per inch. Faces are not safe for concurrent use; callers
// rendering in parallel must create one face per goroutine.
func Face(family Family, points, dpi float64) (font.Face, error) {
	parseOnce.Do(parse)
	if parseErr != nil {
		return nil, parseErr
	}

	var f *truetype.Font
	switch family {
	case Regular:
		f = regularFont
	case Mono:
		f = monoFont
	default:
		return nil, fmt.Errorf("unknown font family %d", family)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    points,
		DPI:     dpi,
		Hinting: font.HintingFull,
	}), nil
}
