// Package pipeline turns a trajectory CSV into an animated GIF.
//
// It is the one place where the stages are wired together, so the CLI (and
// anything embedding this module) gets identical behavior:
//
//  1. Load: parse and group the trajectory (pkg/trajectory)
//  2. Viewport: fix the axis limits for the whole animation (pkg/viewport)
//  3. Render: draw one frame per iteration, in parallel (pkg/frame)
//  4. Encode: stream the frames in ascending iteration order into a GIF
//     (pkg/animation) and move it into place atomically
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Input:  "output.csv",
//	    Output: "positions.gif",
//	    FPS:    2,
//	})
//
// Rendered frames are cached as PNG under a key derived from the
// iteration's records and every render setting, so a re-run with a new fps
// or output path reuses them. Any failure leaves no output file behind.
package pipeline

import (
	"fmt"
	"image/color"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/swarmreplay/pkg/cache"
	errs "github.com/matzehuels/swarmreplay/pkg/errors"
	"github.com/matzehuels/swarmreplay/pkg/frame"
	"github.com/matzehuels/swarmreplay/pkg/trajectory"
	"github.com/matzehuels/swarmreplay/pkg/viewport"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Library Callers
// =============================================================================

const (
	DefaultInput  = "output.csv"
	DefaultOutput = "positions.gif"
	DefaultFPS    = 1
	DefaultDPI    = frame.DefaultDPI
	DefaultSize   = frame.DefaultFigureSize
	DefaultColor  = "red"
)

// DefaultWorkers is the render parallelism when Options.Workers is zero.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run. Zero values take the defaults above.
type Options struct {
	Input          string  `json:"input" toml:"input" yaml:"input"`
	Output         string  `json:"output" toml:"output" yaml:"output"`
	FPS            int     `json:"fps" toml:"fps" yaml:"fps"`
	DPI            int     `json:"resolution" toml:"resolution" yaml:"resolution"`
	FigureSize     float64 `json:"size" toml:"size" yaml:"size"`
	HighlightColor string  `json:"color" toml:"color" yaml:"color"`
	Workers        int     `json:"workers" toml:"workers" yaml:"workers"`

	// Refresh re-renders every frame instead of reading the frame cache.
	// Fresh frames are still written back.
	Refresh bool `json:"-" toml:"-" yaml:"-"`

	Logger *log.Logger `json:"-" toml:"-" yaml:"-"`

	highlight color.RGBA
}

// SetDefaults fills every zero field. It is idempotent.
func (o *Options) SetDefaults() {
	if o.Input == "" {
		o.Input = DefaultInput
	}
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	if o.FPS == 0 {
		o.FPS = DefaultFPS
	}
	if o.DPI == 0 {
		o.DPI = DefaultDPI
	}
	if o.FigureSize == 0 {
		o.FigureSize = DefaultSize
	}
	if o.HighlightColor == "" {
		o.HighlightColor = DefaultColor
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks every field and resolves the highlight color. Call
// SetDefaults first; zero values are rejected here.
func (o *Options) Validate() error {
	if err := errs.ValidatePath(o.Input); err != nil {
		return err
	}
	if err := errs.ValidateOutputPath(o.Output); err != nil {
		return err
	}
	if err := errs.ValidateFPS(o.FPS); err != nil {
		return err
	}
	if err := errs.ValidateResolution(o.DPI); err != nil {
		return err
	}
	if err := errs.ValidateFigureSize(o.FigureSize); err != nil {
		return err
	}
	if o.Workers < 1 {
		return errs.New(errs.ErrCodeInvalidConfig, "workers must be positive, got %d", o.Workers)
	}
	c, err := frame.ParseColor(o.HighlightColor)
	if err != nil {
		return err
	}
	o.highlight = c
	return nil
}

// Highlight returns the parsed highlight color. Valid after Validate.
func (o *Options) Highlight() color.RGBA {
	return o.highlight
}

// RendererOptions returns the frame settings for these options.
func (o *Options) RendererOptions() []frame.Option {
	return []frame.Option{
		frame.WithDPI(o.DPI),
		frame.WithFigureSize(o.FigureSize),
		frame.WithHighlight(o.highlight),
	}
}

// FrameKeyOpts returns the cache key settings for frames drawn against vp.
func (o *Options) FrameKeyOpts(vp viewport.Viewport) cache.FrameKeyOpts {
	c := o.highlight
	return cache.FrameKeyOpts{
		Viewport:  [4]float64{vp.XMin, vp.XMax, vp.YMin, vp.YMax},
		DPI:       o.DPI,
		Size:      o.FigureSize,
		Highlight: fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B),
	}
}

// =============================================================================
// Results
// =============================================================================

// Result describes a finished render.
type Result struct {
	Output     string
	Iterations []int
	Frames     int
	Records    int
	Viewport   viewport.Viewport
	// Bests holds the highlighted record of each frame, in frame order.
	Bests []trajectory.Record
	// Bytes is the size of the written GIF.
	Bytes int64

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats holds stage timings. Rendering and encoding overlap, so RenderTime
// is the wall time of both together and EncodeTime the part spent encoding.
type Stats struct {
	LoadTime   time.Duration
	RenderTime time.Duration
	EncodeTime time.Duration
}

// Total is the wall time of the run.
func (s Stats) Total() time.Duration {
	return s.LoadTime + s.RenderTime
}

// CacheInfo counts frame cache lookups.
type CacheInfo struct {
	FrameHits   int
	FrameMisses int
}

// Summary is a trajectory overview that needs no rendering.
type Summary struct {
	Input      string              `json:"input"`
	Records    int                 `json:"records"`
	Iterations []int               `json:"iterations"`
	Bests      []trajectory.Record `json:"bests"`
	Viewport   viewport.Viewport   `json:"viewport"`
}

// BestFitness returns the best fitness per iteration, in iteration order.
func (s *Summary) BestFitness() []float64 {
	out := make([]float64, len(s.Bests))
	for i, b := range s.Bests {
		out[i] = b.Fitness
	}
	return out
}

func summarize(input string, t *trajectory.Trajectory) *Summary {
	return &Summary{
		Input:      input,
		Records:    t.Len(),
		Iterations: t.Iterations(),
		Bests:      t.Bests(),
		Viewport:   viewport.Compute(t),
	}
}
