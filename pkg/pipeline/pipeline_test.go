package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/gif"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"golang.org/x/image/colornames"

	"github.com/matzehuels/swarmreplay/pkg/cache"
	errs "github.com/matzehuels/swarmreplay/pkg/errors"
	"github.com/matzehuels/swarmreplay/pkg/frame"
	"github.com/matzehuels/swarmreplay/pkg/observability"
	"github.com/matzehuels/swarmreplay/pkg/viewport"
)

const scenarioCSV = `Iteration,Fitness,Position
1,5.0,0_0
1,1.0,10_10
2,0.5,1_1
`

const shuffledCSV = `Position,Fitness,Iteration
1_1,0.5,2
0_0,5.0,1
10_10,1.0,1
`

const testDPI = 40

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "output.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions(dir, input string) Options {
	return Options{
		Input:   input,
		Output:  filepath.Join(dir, "positions.gif"),
		DPI:     testDPI,
		Workers: 2,
		Logger:  log.NewWithOptions(&bytes.Buffer{}, log.Options{}),
	}
}

func decodeGIF(t *testing.T, path string) *gif.GIF {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return g
}

// assertOnlyFiles fails when dir holds anything but the named files, which
// catches leftover temporary outputs.
func assertOnlyFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	if !reflect.DeepEqual(got, names) {
		t.Errorf("directory holds %v, want %v", got, names)
	}
}

func TestExecuteScenario(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, scenarioCSV)
	opts := testOptions(dir, input)

	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Frames != 2 || res.Records != 3 {
		t.Errorf("frames=%d records=%d, want 2 and 3", res.Frames, res.Records)
	}
	if !reflect.DeepEqual(res.Iterations, []int{1, 2}) {
		t.Errorf("Iterations = %v", res.Iterations)
	}
	want := viewport.Viewport{XMin: -10, XMax: 20, YMin: -10, YMax: 20}
	if res.Viewport != want {
		t.Errorf("Viewport = %v, want %v", res.Viewport, want)
	}
	if res.Bytes == 0 {
		t.Error("Bytes should report the GIF size")
	}

	g := decodeGIF(t, opts.Output)
	if len(g.Image) != 2 {
		t.Fatalf("GIF has %d frames, want 2", len(g.Image))
	}
	if g.LoopCount != 0 {
		t.Errorf("LoopCount = %d, want 0", g.LoopCount)
	}
	for i, d := range g.Delay {
		if d != 100 {
			t.Errorf("frame %d delay = %d, want 100 at 1 fps", i, d)
		}
	}

	r := frame.NewRenderer(frame.WithDPI(testDPI))
	bests := [][2]float64{{10, 10}, {1, 1}}
	for i, b := range bests {
		if res.Bests[i].X != b[0] || res.Bests[i].Y != b[1] {
			t.Errorf("Bests[%d] = %v, want %v", i, res.Bests[i], b)
		}
		px, py := r.Project(res.Viewport, b[0], b[1])
		got := color.RGBAModel.Convert(g.Image[i].At(int(math.Floor(px)), int(math.Floor(py))))
		if got != colornames.Red {
			t.Errorf("frame %d highlight pixel = %v, want red", i, got)
		}
	}

	assertOnlyFiles(t, dir, "output.csv", "positions.gif")
}

func TestExecuteShuffledInputSameFrames(t *testing.T) {
	render := func(csv string) *gif.GIF {
		dir := t.TempDir()
		opts := testOptions(dir, writeInput(t, dir, csv))
		if _, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		return decodeGIF(t, opts.Output)
	}

	a, b := render(scenarioCSV), render(shuffledCSV)
	if len(a.Image) != len(b.Image) {
		t.Fatalf("frame counts differ: %d vs %d", len(a.Image), len(b.Image))
	}
	for i := range a.Image {
		if !bytes.Equal(a.Image[i].Pix, b.Image[i].Pix) {
			t.Errorf("frame %d differs between row orders", i)
		}
	}
}

func TestExecuteFailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errs.Code
	}{
		{"trailing separator", "Position,Iteration,Fitness\n12_,1,1\n", errs.ErrCodeMalformedPosition},
		{"missing separator", "Position,Iteration,Fitness\n12,1,1\n", errs.ErrCodeMalformedPosition},
		{"too many parts", "Position,Iteration,Fitness\n12_3_4,1,1\n", errs.ErrCodeMalformedPosition},
		{"header only", "Position,Iteration,Fitness\n", errs.ErrCodeEmptyTrajectory},
		{"empty file", "", errs.ErrCodeEmptyTrajectory},
		{"missing column", "Position,Iteration\n1_1,1\n", errs.ErrCodeSchema},
		{"extent overflows", "Iteration,Fitness,Position\n1,1,-1.7e308_0\n1,2,1.7e308_0\n", errs.ErrCodeViewport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			opts := testOptions(dir, writeInput(t, dir, tt.input))

			_, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
			if !errs.Is(err, tt.code) {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
			assertOnlyFiles(t, dir, "output.csv")
		})
	}
}

func TestExecuteSinglePointLargeMagnitude(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir, writeInput(t, dir, "Iteration,Fitness,Position\n1,1,1e20_5\n"))

	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.Frames != 1 {
		t.Errorf("Frames = %d, want 1", res.Frames)
	}
	if !(res.Viewport.Width() > 0) {
		t.Errorf("viewport %v has no width", res.Viewport)
	}
}

func TestExecuteKeepsExistingOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir, writeInput(t, dir, "Position,Iteration,Fitness\n12_,1,1\n"))
	if err := os.WriteFile(opts.Output, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts); err == nil {
		t.Fatal("expected error")
	}
	data, _ := os.ReadFile(opts.Output)
	if string(data) != "previous" {
		t.Errorf("existing output was modified: %q", data)
	}
}

func TestExecuteMissingInput(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir, filepath.Join(dir, "nope.csv"))
	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if !errs.Is(err, errs.ErrCodeIO) {
		t.Errorf("error = %v, want IO", err)
	}
}

func TestExecuteCanceled(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir, writeInput(t, dir, scenarioCSV))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(nil, nil, nil).Execute(ctx, opts)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	assertOnlyFiles(t, dir, "output.csv")
}

func TestExecuteFrameCache(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	opts := testOptions(dir, writeInput(t, dir, scenarioCSV))
	ctx := context.Background()

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo != (CacheInfo{FrameHits: 0, FrameMisses: 2}) {
		t.Errorf("first run CacheInfo = %+v", first.CacheInfo)
	}

	// A new playback rate does not change any frame.
	opts.FPS = 4
	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if second.CacheInfo != (CacheInfo{FrameHits: 2, FrameMisses: 0}) {
		t.Errorf("second run CacheInfo = %+v", second.CacheInfo)
	}
	if g := decodeGIF(t, opts.Output); g.Delay[0] != 25 {
		t.Errorf("delay = %d, want 25 at 4 fps", g.Delay[0])
	}

	// A new highlight color does.
	opts.HighlightColor = "gold"
	third, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.FrameMisses != 2 {
		t.Errorf("color change CacheInfo = %+v", third.CacheInfo)
	}

	opts.Refresh = true
	fourth, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if fourth.CacheInfo.FrameHits != 0 {
		t.Errorf("refresh should bypass cache reads: %+v", fourth.CacheInfo)
	}
}

func TestExecuteManyIterationsInOrder(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Position,Iteration,Fitness\n")
	// Written in descending order; the best agent walks along the diagonal.
	for it := 11; it >= 0; it-- {
		sb.WriteString("0_0," + strconv.Itoa(it) + ",9\n")
		sb.WriteString(strconv.Itoa(it) + "_" + strconv.Itoa(it) + "," + strconv.Itoa(it) + ",1\n")
	}

	dir := t.TempDir()
	opts := testOptions(dir, writeInput(t, dir, sb.String()))
	opts.Workers = 3
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}

	g := decodeGIF(t, opts.Output)
	if len(g.Image) != 12 {
		t.Fatalf("GIF has %d frames, want 12", len(g.Image))
	}
	r := frame.NewRenderer(frame.WithDPI(testDPI))
	for i := range g.Image {
		if res.Iterations[i] != i {
			t.Fatalf("Iterations[%d] = %d", i, res.Iterations[i])
		}
		px, py := r.Project(res.Viewport, float64(i), float64(i))
		got := color.RGBAModel.Convert(g.Image[i].At(int(math.Floor(px)), int(math.Floor(py))))
		if got != colornames.Red {
			t.Errorf("frame %d: highlight not at (%d, %d)", i, i, i)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()
	if o.Input != "output.csv" || o.Output != "positions.gif" {
		t.Errorf("paths = %q, %q", o.Input, o.Output)
	}
	if o.FPS != 1 || o.DPI != 200 || o.FigureSize != 6 || o.HighlightColor != "red" {
		t.Errorf("defaults = %+v", o)
	}
	if o.Workers < 1 {
		t.Errorf("Workers = %d", o.Workers)
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if o.Highlight() != colornames.Red {
		t.Errorf("Highlight() = %v", o.Highlight())
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		code   errs.Code
	}{
		{"fps too high", func(o *Options) { o.FPS = 500 }, errs.ErrCodeInvalidConfig},
		{"negative fps", func(o *Options) { o.FPS = -1 }, errs.ErrCodeInvalidConfig},
		{"negative dpi", func(o *Options) { o.DPI = -5 }, errs.ErrCodeInvalidConfig},
		{"huge figure", func(o *Options) { o.FigureSize = 100 }, errs.ErrCodeInvalidConfig},
		{"negative workers", func(o *Options) { o.Workers = -2 }, errs.ErrCodeInvalidConfig},
		{"png output", func(o *Options) { o.Output = "out.png" }, errs.ErrCodeInvalidConfig},
		{"bad color", func(o *Options) { o.HighlightColor = "blurple" }, errs.ErrCodeInvalidColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Options
			tt.modify(&o)
			o.SetDefaults()
			if err := o.Validate(); !errs.Is(err, tt.code) {
				t.Errorf("Validate() = %v, want %s", err, tt.code)
			}
		})
	}
}

type countingCacheHooks struct {
	observability.NoopCacheHooks
	hits, misses atomic.Int32
}

func (h *countingCacheHooks) OnCacheHit(context.Context, string)  { h.hits.Add(1) }
func (h *countingCacheHooks) OnCacheMiss(context.Context, string) { h.misses.Add(1) }

func TestSummarize(t *testing.T) {
	hooks := &countingCacheHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	dir := t.TempDir()
	input := writeInput(t, dir, scenarioCSV)
	c, _ := cache.NewFileCache(filepath.Join(dir, "cache"))
	runner := NewRunner(c, nil, nil)

	for i := 0; i < 2; i++ {
		s, err := runner.Summarize(context.Background(), input)
		if err != nil {
			t.Fatal(err)
		}
		if s.Records != 3 || !reflect.DeepEqual(s.Iterations, []int{1, 2}) {
			t.Errorf("summary = %+v", s)
		}
		if got := s.BestFitness(); !reflect.DeepEqual(got, []float64{1, 0.5}) {
			t.Errorf("BestFitness() = %v", got)
		}
		if s.Viewport != (viewport.Viewport{XMin: -10, XMax: 20, YMin: -10, YMax: 20}) {
			t.Errorf("Viewport = %v", s.Viewport)
		}
	}
	if hooks.misses.Load() != 1 || hooks.hits.Load() != 1 {
		t.Errorf("hits=%d misses=%d, want 1 and 1", hooks.hits.Load(), hooks.misses.Load())
	}
	assertOnlyFiles(t, dir, "cache", "output.csv")
}

func TestSummarizeMalformed(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "Position,Iteration,Fitness\n12_3_4,1,1\n")
	_, err := NewRunner(nil, nil, nil).Summarize(context.Background(), input)
	if !errs.Is(err, errs.ErrCodeMalformedPosition) {
		t.Errorf("error = %v, want MALFORMED_POSITION", err)
	}
}
