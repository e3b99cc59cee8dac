package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/swarmreplay/pkg/animation"
	"github.com/matzehuels/swarmreplay/pkg/cache"
	errs "github.com/matzehuels/swarmreplay/pkg/errors"
	"github.com/matzehuels/swarmreplay/pkg/frame"
	"github.com/matzehuels/swarmreplay/pkg/observability"
	"github.com/matzehuels/swarmreplay/pkg/trajectory"
	"github.com/matzehuels/swarmreplay/pkg/viewport"
)

const (
	kindFrame   = "frame"
	kindSummary = "summary"

	// framesInFlight bounds rendered-but-not-yet-encoded frames per worker.
	framesInFlight = 2
)

// Runner executes the pipeline against a frame cache.
//
// A Runner holds no per-run state; several goroutines may call Execute
// concurrently with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses cache.DefaultKeyer and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs load → viewport → render → encode and writes opts.Output.
// On any error, including cancellation, no output file is left behind.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger
	hooks := observability.Pipeline()

	// Stage 1: Load
	loadStart := time.Now()
	hooks.OnLoadStart(ctx, opts.Input)
	t, err := trajectory.LoadFile(opts.Input)
	var records, iterations int
	if t != nil {
		records, iterations = t.Len(), len(t.Iterations())
	}
	hooks.OnLoadComplete(ctx, opts.Input, records, iterations, time.Since(loadStart), err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	vp := viewport.Compute(t)

	res := &Result{
		Output:     opts.Output,
		Iterations: t.Iterations(),
		Frames:     iterations,
		Records:    records,
		Viewport:   vp,
		Bests:      t.Bests(),
	}
	res.Stats.LoadTime = time.Since(loadStart)

	logger.Info("loaded trajectory",
		"records", records,
		"iterations", iterations,
		"viewport", vp,
		"duration", res.Stats.LoadTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stages 2+3: Render and encode into a temporary file next to the output.
	renderStart := time.Now()
	hooks.OnRenderStart(ctx, iterations, opts.Workers)
	tmp := fmt.Sprintf("%s.%s.tmp", opts.Output, uuid.NewString())
	info, encodeTime, err := r.writeAnimation(ctx, tmp, t, vp, opts)
	res.Stats.RenderTime = time.Since(renderStart)
	res.Stats.EncodeTime = encodeTime
	res.CacheInfo = info
	hooks.OnRenderComplete(ctx, iterations, res.Stats.RenderTime, err)
	if err != nil {
		_ = os.Remove(tmp)
		hooks.OnEncodeComplete(ctx, opts.Output, 0, 0, encodeTime, err)
		return nil, fmt.Errorf("render: %w", err)
	}

	if err := os.Rename(tmp, opts.Output); err != nil {
		_ = os.Remove(tmp)
		return nil, errs.Wrap(errs.ErrCodeIO, err, "move animation to %s", opts.Output)
	}
	if fi, err := os.Stat(opts.Output); err == nil {
		res.Bytes = fi.Size()
	}
	hooks.OnEncodeComplete(ctx, opts.Output, iterations, res.Bytes, encodeTime, nil)

	logger.Info("wrote animation",
		"path", opts.Output,
		"frames", iterations,
		"fps", opts.FPS,
		"cached", info.FrameHits,
		"rendered", info.FrameMisses,
		"duration", res.Stats.RenderTime)

	return res, nil
}

// writeAnimation renders every iteration and streams the frames, in
// ascending iteration order, into a GIF at path.
func (r *Runner) writeAnimation(ctx context.Context, path string, t *trajectory.Trajectory, vp viewport.Viewport, opts Options) (CacheInfo, time.Duration, error) {
	f, err := os.Create(path)
	if err != nil {
		return CacheInfo{}, 0, errs.Wrap(errs.ErrCodeIO, err, "create %s", path)
	}
	w := bufio.NewWriter(f)

	enc, err := animation.NewEncoder(w, opts.FPS, animation.WithColors(
		opts.highlight, frame.AgentColor, frame.InkColor, frame.PaperColor, frame.GridColor,
	))
	if err != nil {
		f.Close()
		return CacheInfo{}, 0, err
	}

	info, encodeTime, err := r.renderFrames(ctx, enc, t, vp, opts)
	if err == nil {
		start := time.Now()
		err = enc.Close()
		encodeTime += time.Since(start)
	}
	if err == nil {
		if ferr := w.Flush(); ferr != nil {
			err = errs.Wrap(errs.ErrCodeIO, ferr, "write %s", path)
		}
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errs.Wrap(errs.ErrCodeIO, cerr, "close %s", path)
	}
	return info, encodeTime, err
}

// renderFrames draws iterations on opts.Workers goroutines while a single
// encoder goroutine consumes them strictly in order. Each frame lands in
// its own slot, so the encoder never waits on a later iteration and at most
// framesInFlight*Workers rendered frames are held at once.
func (r *Runner) renderFrames(ctx context.Context, enc *animation.Encoder, t *trajectory.Trajectory, vp viewport.Viewport, opts Options) (CacheInfo, time.Duration, error) {
	groups := t.Groups()
	renderer := frame.NewRenderer(opts.RendererOptions()...)
	keyOpts := opts.FrameKeyOpts(vp)
	logger := opts.Logger
	hooks := observability.Pipeline()

	slots := make([]chan image.Image, len(groups))
	for i := range slots {
		slots[i] = make(chan image.Image, 1)
	}
	window := make(chan struct{}, framesInFlight*opts.Workers)

	var hits, misses atomic.Int64
	var encodeTime time.Duration

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers + 1)

	g.Go(func() error {
		for i := range slots {
			var img image.Image
			select {
			case img = <-slots[i]:
			case <-gctx.Done():
				return gctx.Err()
			}
			start := time.Now()
			if err := enc.Add(img); err != nil {
				return fmt.Errorf("iteration %d: %w", groups[i].Iteration, err)
			}
			encodeTime += time.Since(start)
			<-window
		}
		return nil
	})

dispatch:
	for i, grp := range groups {
		select {
		case window <- struct{}{}:
		case <-gctx.Done():
			break dispatch
		}
		i, grp := i, grp
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			img, cached, err := r.frame(gctx, renderer, grp, vp, keyOpts, opts.Refresh)
			if err != nil {
				return fmt.Errorf("iteration %d: %w", grp.Iteration, err)
			}
			if cached {
				hits.Add(1)
			} else {
				misses.Add(1)
			}
			d := time.Since(start)
			hooks.OnFrameRendered(gctx, grp.Iteration, cached, d)
			logger.Debug("frame ready", "iteration", grp.Iteration, "agents", grp.Len(), "cached", cached, "duration", d)
			slots[i] <- img
			return nil
		})
	}

	err := g.Wait()
	info := CacheInfo{FrameHits: int(hits.Load()), FrameMisses: int(misses.Load())}
	return info, encodeTime, err
}

// frame returns the raster for one iteration, from the cache when possible.
// Cache failures only cost a re-render.
func (r *Runner) frame(ctx context.Context, renderer *frame.Renderer, grp trajectory.Group, vp viewport.Viewport, keyOpts cache.FrameKeyOpts, refresh bool) (image.Image, bool, error) {
	_, disabled := r.Cache.(cache.NullCache)
	caching := !disabled
	ch := observability.Cache()

	var key string
	if caching {
		key = r.Keyer.FrameKey(groupHash(grp), keyOpts)
	}

	if caching && !refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		switch {
		case err != nil:
			ch.OnCacheError(ctx, kindFrame, err)
		case hit:
			if img, err := png.Decode(bytes.NewReader(data)); err == nil {
				ch.OnCacheHit(ctx, kindFrame)
				return img, true, nil
			}
			_ = r.Cache.Delete(ctx, key)
		}
		ch.OnCacheMiss(ctx, kindFrame)
	}

	f, err := renderer.Render(grp, vp)
	if err != nil {
		return nil, false, err
	}

	if caching {
		var buf bytes.Buffer
		if err := png.Encode(&buf, f.Image); err == nil {
			if err := r.Cache.Set(ctx, key, buf.Bytes(), cache.TTLFrame); err != nil {
				ch.OnCacheError(ctx, kindFrame, err)
			} else {
				ch.OnCacheSet(ctx, kindFrame, buf.Len())
			}
		}
	}
	return f.Image, false, nil
}

// groupHash identifies an iteration by what is drawn: its records'
// coordinates and fitness in file order. Source row numbers are left out
// so reordering the file keeps frames cached.
func groupHash(g trajectory.Group) string {
	pts := make([][3]float64, len(g.Records))
	for i, rec := range g.Records {
		pts[i] = [3]float64{rec.X, rec.Y, rec.Fitness}
	}
	h, err := cache.HashValue(struct {
		Iteration int
		Points    [][3]float64
	}{g.Iteration, pts})
	if err != nil {
		// Non-finite fitness cannot be JSON encoded; fall back to the
		// textual form, which is still stable.
		return cache.Hash([]byte(fmt.Sprint(g.Iteration, pts)))
	}
	return h
}

// Summarize loads input and reports per-iteration bests and the viewport
// without rendering. Summaries are cached by the file's content hash.
func (r *Runner) Summarize(ctx context.Context, input string) (*Summary, error) {
	if input == "" {
		input = DefaultInput
	}
	if err := errs.ValidatePath(input); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "read %s", input)
	}
	ch := observability.Cache()
	key := r.Keyer.SummaryKey(cache.Hash(data))

	if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var s Summary
		if err := json.Unmarshal(cached, &s); err == nil {
			ch.OnCacheHit(ctx, kindSummary)
			s.Input = input
			r.Logger.Debug("summary from cache", "path", input)
			return &s, nil
		}
	}
	ch.OnCacheMiss(ctx, kindSummary)

	t, err := trajectory.Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	s := summarize(input, t)
	if raw, err := json.Marshal(s); err == nil {
		if err := r.Cache.Set(ctx, key, raw, cache.TTLSummary); err == nil {
			ch.OnCacheSet(ctx, kindSummary, len(raw))
		}
	}
	r.Logger.Debug("summarized trajectory", "path", input, "iterations", len(s.Iterations))
	return s, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
