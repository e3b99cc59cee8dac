// Package viewport computes the fixed plot window shared by every frame.
//
// One viewport is computed from the whole trajectory and applied as fixed
// axis limits to every frame, so agents do not jitter between frames the way
// they would with per-frame autoscaling.
package viewport

import (
	"fmt"
	"math"

	"github.com/matzehuels/swarmreplay/pkg/trajectory"
)

// Margin is the padding added on each side of the data bounds, in data units.
// It keeps agents off the frame border and gives a zero-spread axis a
// non-zero width.
const Margin = 10.0

// Viewport is an axis-aligned window in data coordinates.
type Viewport struct {
	XMin float64 `json:"xmin"`
	XMax float64 `json:"xmax"`
	YMin float64 `json:"ymin"`
	YMax float64 `json:"ymax"`
}

// Compute returns the bounds of every record in t padded by Margin.
func Compute(t *trajectory.Trajectory) Viewport {
	return ComputeWithMargin(t, Margin)
}

// ComputeWithMargin is Compute with a caller-chosen padding.
// A non-positive margin on a zero-spread axis yields a zero-width window.
// With a positive margin a zero-spread axis always has a positive width,
// even where the margin vanishes in float64 rounding next to large values.
func ComputeWithMargin(t *trajectory.Trajectory, margin float64) Viewport {
	vp := Viewport{
		XMin: math.Inf(1), XMax: math.Inf(-1),
		YMin: math.Inf(1), YMax: math.Inf(-1),
	}
	for _, g := range t.Groups() {
		for _, r := range g.Records {
			vp.XMin = math.Min(vp.XMin, r.X)
			vp.XMax = math.Max(vp.XMax, r.X)
			vp.YMin = math.Min(vp.YMin, r.Y)
			vp.YMax = math.Max(vp.YMax, r.Y)
		}
	}
	vp.XMin, vp.XMax = pad(vp.XMin, vp.XMax, margin)
	vp.YMin, vp.YMax = pad(vp.YMin, vp.YMax, margin)
	return vp
}

// relativePad is the smallest pad, as a fraction of the coordinate's
// magnitude, that still separates the bounds of a zero-spread axis.
const relativePad = 1e-9

func pad(lo, hi, margin float64) (float64, float64) {
	l, h := lo-margin, hi+margin
	if margin > 0 && lo == hi && !(h > l) {
		m := math.Max(margin, math.Abs(lo)*relativePad)
		l = math.Max(lo-m, -math.MaxFloat64)
		h = math.Min(hi+m, math.MaxFloat64)
	}
	return l, h
}

// Width returns the horizontal extent.
func (v Viewport) Width() float64 { return v.XMax - v.XMin }

// Height returns the vertical extent.
func (v Viewport) Height() float64 { return v.YMax - v.YMin }

// Contains reports whether (x, y) lies inside the window, borders included.
func (v Viewport) Contains(x, y float64) bool {
	return x >= v.XMin && x <= v.XMax && y >= v.YMin && y <= v.YMax
}

// String formats the window as "x[min, max] y[min, max]".
func (v Viewport) String() string {
	return fmt.Sprintf("x[%g, %g] y[%g, %g]", v.XMin, v.XMax, v.YMin, v.YMax)
}
