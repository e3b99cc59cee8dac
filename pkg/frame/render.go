package frame

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	errs "github.com/matzehuels/swarmreplay/pkg/errors"
	"github.com/matzehuels/swarmreplay/pkg/fonts"
	"github.com/matzehuels/swarmreplay/pkg/trajectory"
	"github.com/matzehuels/swarmreplay/pkg/viewport"
)

const (
	// DefaultDPI is the raster density of a frame.
	DefaultDPI = 200
	// DefaultFigureSize is the edge length of the square figure in inches.
	DefaultFigureSize = 6.0
)

// Axes placement as fractions of the figure, origin at the bottom left.
const (
	axesLeft   = 0.125
	axesRight  = 0.90
	axesBottom = 0.11
	axesTop    = 0.86
)

// Marker radii and strokes in points.
const (
	agentRadius     = 3.0
	highlightRadius = 5.0
	edgeWidth       = 1.0
	axisWidth       = 0.8
	tickLength      = 3.5
)

// Font sizes in points.
const (
	titleSize  = 14.0
	labelSize  = 12.0
	legendSize = 10.0
	tickSize   = 9.0
)

// Labels drawn on every frame.
const (
	LabelX         = "X Position"
	LabelY         = "Y Position"
	LegendAgents   = "Positions"
	LegendBest     = "Best Fitness"
	titleFormat    = "Iteration %d"
	ticksPerAxis   = 6
	legendSwatchPt = 10.0
)

// Frame is one rendered iteration.
type Frame struct {
	Iteration   int
	Image       *image.RGBA
	Best        trajectory.Record
	Agents      int
	HighlightAt image.Point // pixel center of the best-fitness marker
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDPI sets the raster density in dots per inch (default 200).
func WithDPI(dpi int) Option {
	return func(r *Renderer) { r.dpi = dpi }
}

// WithFigureSize sets the square figure edge in inches (default 6).
func WithFigureSize(inches float64) Option {
	return func(r *Renderer) { r.size = inches }
}

// WithHighlight sets the color of the best-fitness marker (default red).
func WithHighlight(c color.Color) Option {
	return func(r *Renderer) { r.highlight = c }
}

// Renderer draws frames. A Renderer is immutable after construction and
// safe for concurrent use; every Render call owns its drawing surface and
// font faces.
type Renderer struct {
	dpi       int
	size      float64
	highlight color.Color
}

// NewRenderer creates a renderer with the given options applied over the
// defaults.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		dpi:       DefaultDPI,
		size:      DefaultFigureSize,
		highlight: DefaultHighlight,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pixels returns the frame edge length in pixels.
func (r *Renderer) Pixels() int {
	return int(math.Round(r.size * float64(r.dpi)))
}

// Highlight returns the best-fitness marker color.
func (r *Renderer) Highlight() color.Color {
	return r.highlight
}

// pt converts points to pixels at the renderer's density.
func (r *Renderer) pt(v float64) float64 {
	return v * float64(r.dpi) / 72
}

// plotRect returns the axes rectangle in pixel coordinates.
func (r *Renderer) plotRect() (x0, y0, x1, y1 float64) {
	n := float64(r.Pixels())
	return axesLeft * n, (1 - axesTop) * n, axesRight * n, (1 - axesBottom) * n
}

// Project maps data coordinates to pixel coordinates for vp.
func (r *Renderer) Project(vp viewport.Viewport, x, y float64) (px, py float64) {
	x0, y0, x1, y1 := r.plotRect()
	px = x0 + (x-vp.XMin)/vp.Width()*(x1-x0)
	py = y1 - (y-vp.YMin)/vp.Height()*(y1-y0)
	return px, py
}

// Render draws one iteration against the shared viewport.
//
// Every agent is drawn as an ordinary marker first; the best record is drawn
// last, larger and in the highlight color, so no agent can cover it. The
// axes use the viewport as fixed limits.
func (r *Renderer) Render(g trajectory.Group, vp viewport.Viewport) (*Frame, error) {
	if g.Len() == 0 {
		return nil, errs.New(errs.ErrCodeEmptyTrajectory, "iteration %d has no records", g.Iteration)
	}
	if w, h := vp.Width(), vp.Height(); !(w > 0) || !(h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return nil, errs.New(errs.ErrCodeViewport, "viewport %s has no finite, positive extent", vp)
	}

	s, err := r.newSurface()
	if err != nil {
		return nil, err
	}
	defer s.release()

	dc := s.dc
	dc.SetColor(PaperColor)
	dc.Clear()

	r.drawAxes(s, vp)

	x0, y0, x1, y1 := r.plotRect()
	dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	dc.Clip()

	dc.SetColor(AgentColor)
	for _, rec := range g.Records {
		px, py := r.Project(vp, rec.X, rec.Y)
		dc.DrawCircle(px, py, r.pt(agentRadius))
		dc.Fill()
	}

	best := g.Best()
	bx, by := r.Project(vp, best.X, best.Y)
	dc.DrawCircle(bx, by, r.pt(highlightRadius))
	dc.SetColor(r.highlight)
	dc.FillPreserve()
	dc.SetColor(InkColor)
	dc.SetLineWidth(r.pt(edgeWidth))
	dc.Stroke()
	dc.ResetClip()

	r.drawHeader(s, g.Iteration)

	return &Frame{
		Iteration:   g.Iteration,
		Image:       s.capture(),
		Best:        best,
		Agents:      g.Len(),
		HighlightAt: image.Pt(int(math.Floor(bx)), int(math.Floor(by))),
	}, nil
}

// surface is the per-frame drawing state: a gg context plus the font faces
// it draws with. It is acquired at the start of Render and released when
// the frame has been captured.
type surface struct {
	dc                         *gg.Context
	title, label, legend, tick font.Face
}

type faceSpec struct {
	family fonts.Family
	points float64
}

// surfaceFaces lists the faces of a surface in field order: title, label,
// legend, tick.
var surfaceFaces = [4]faceSpec{
	{fonts.Regular, titleSize},
	{fonts.Regular, labelSize},
	{fonts.Regular, legendSize},
	{fonts.Mono, tickSize},
}

func (r *Renderer) newSurface() (*surface, error) {
	s := &surface{dc: gg.NewContext(r.Pixels(), r.Pixels())}
	dpi := float64(r.dpi)
	dsts := [len(surfaceFaces)]*font.Face{&s.title, &s.label, &s.legend, &s.tick}
	for i, spec := range surfaceFaces {
		face, err := fonts.Face(spec.family, spec.points, dpi)
		if err != nil {
			s.release()
			return nil, fmt.Errorf("load font face: %w", err)
		}
		*dsts[i] = face
	}
	return s, nil
}

// capture copies the raster out of the context so the surface can be
// dropped independently of the returned frame.
func (s *surface) capture() *image.RGBA {
	src := s.dc.Image().(*image.RGBA)
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out
}

func (s *surface) release() {
	for _, f := range []font.Face{s.title, s.label, s.legend, s.tick} {
		if f != nil {
			f.Close()
		}
	}
	s.dc = nil
}

func (r *Renderer) drawAxes(s *surface, vp viewport.Viewport) {
	dc := s.dc
	x0, y0, x1, y1 := r.plotRect()
	tick := r.pt(tickLength)

	dc.SetFontFace(s.tick)

	xt := Ticks(vp.XMin, vp.XMax, ticksPerAxis)
	for _, v := range xt {
		px, _ := r.Project(vp, v, vp.YMin)
		dc.SetColor(GridColor)
		dc.SetLineWidth(r.pt(axisWidth) / 2)
		dc.DrawLine(px, y0, px, y1)
		dc.Stroke()
		dc.SetColor(InkColor)
		dc.SetLineWidth(r.pt(axisWidth))
		dc.DrawLine(px, y1, px, y1+tick)
		dc.Stroke()
		dc.DrawStringAnchored(formatTick(v, tickStep(xt)), px, y1+tick*1.5, 0.5, 1)
	}

	yt := Ticks(vp.YMin, vp.YMax, ticksPerAxis)
	for _, v := range yt {
		_, py := r.Project(vp, vp.XMin, v)
		dc.SetColor(GridColor)
		dc.SetLineWidth(r.pt(axisWidth) / 2)
		dc.DrawLine(x0, py, x1, py)
		dc.Stroke()
		dc.SetColor(InkColor)
		dc.SetLineWidth(r.pt(axisWidth))
		dc.DrawLine(x0-tick, py, x0, py)
		dc.Stroke()
		dc.DrawStringAnchored(formatTick(v, tickStep(yt)), x0-tick*1.5, py, 1, 0.5)
	}

	dc.SetColor(InkColor)
	dc.SetLineWidth(r.pt(axisWidth))
	dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	dc.Stroke()

	n := float64(r.Pixels())
	dc.SetFontFace(s.label)
	dc.DrawStringAnchored(LabelX, (x0+x1)/2, n-r.pt(labelSize)*0.6, 0.5, 0)

	dc.Push()
	lx, ly := r.pt(labelSize)*0.9, (y0+y1)/2
	dc.RotateAbout(-math.Pi/2, lx, ly)
	dc.DrawStringAnchored(LabelY, lx, ly, 0.5, 0.5)
	dc.Pop()
}

// drawHeader writes the iteration title and the legend above the axes.
func (r *Renderer) drawHeader(s *surface, iteration int) {
	dc := s.dc
	x0, y0, x1, _ := r.plotRect()

	dc.SetColor(InkColor)
	dc.SetFontFace(s.title)
	dc.DrawStringAnchored(fmt.Sprintf(titleFormat, iteration), (x0+x1)/2, r.pt(titleSize)*1.2, 0.5, 0.5)

	dc.SetFontFace(s.legend)
	cy := y0 - r.pt(legendSize)
	cx := x0 + r.pt(highlightRadius)
	swatch := r.pt(legendSwatchPt)

	dc.SetColor(AgentColor)
	dc.DrawCircle(cx, cy, r.pt(agentRadius))
	dc.Fill()
	dc.SetColor(InkColor)
	dc.DrawStringAnchored(LegendAgents, cx+swatch, cy, 0, 0.5)

	w, _ := dc.MeasureString(LegendAgents)
	cx += swatch*2 + w
	dc.DrawCircle(cx, cy, r.pt(highlightRadius))
	dc.SetColor(r.highlight)
	dc.FillPreserve()
	dc.SetColor(InkColor)
	dc.SetLineWidth(r.pt(edgeWidth))
	dc.Stroke()
	dc.DrawStringAnchored(LegendBest, cx+swatch, cy, 0, 0.5)
}

func tickStep(ticks []float64) float64 {
	if len(ticks) < 2 {
		return 1
	}
	return ticks[1] - ticks[0]
}
