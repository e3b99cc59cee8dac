package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/swarmreplay/pkg/config"
	"github.com/matzehuels/swarmreplay/pkg/observability"
	"github.com/matzehuels/swarmreplay/pkg/pipeline"
)

// renderFlags holds the render command line. Zero values defer to the
// config file, then to the pipeline defaults.
type renderFlags struct {
	input      string
	output     string
	fps        int
	resolution int
	color      string
	size       float64
	workers    int
	config     string // TOML or YAML file with the same keys
	noCache    bool
	refresh    bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a trajectory CSV to an animated GIF",
		Example: `  swarmreplay render -i output.csv -o positions.gif
  swarmreplay render -f 4 -r 100 -c gold
  swarmreplay render --config swarmreplay.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (f *renderFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", pipeline.DefaultInput, "trajectory CSV file")
	fl.StringVarP(&f.output, "output", "o", pipeline.DefaultOutput, "output GIF file")
	fl.IntVarP(&f.fps, "fps", "f", pipeline.DefaultFPS, "frames per second")
	fl.IntVarP(&f.resolution, "resolution", "r", pipeline.DefaultDPI, "frame resolution in DPI")
	fl.StringVarP(&f.color, "color", "c", pipeline.DefaultColor, "highlight color for the best agent (name or #hex)")
	fl.Float64Var(&f.size, "size", pipeline.DefaultSize, "figure edge length in inches")
	fl.IntVarP(&f.workers, "workers", "w", 0, "parallel frame renderers (default: number of CPUs)")
	fl.StringVar(&f.config, "config", "", "read settings from a TOML or YAML file (default: ./swarmreplay.{toml,yaml,yml} if present)")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable the frame cache")
	fl.BoolVar(&f.refresh, "refresh", false, "re-render all frames, ignoring cached ones")
}

// options merges the config file with the command line. A flag given
// explicitly wins over the file; an unset flag only fills keys the file
// leaves out.
func (f *renderFlags) options(cmd *cobra.Command, logger *log.Logger) (pipeline.Options, error) {
	var opts pipeline.Options
	path := f.config
	if path == "" {
		path = config.Find(".")
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return pipeline.Options{}, err
		}
		logger.Debug("loaded config", "path", path)
		opts = loaded
	}

	set := cmd.Flags().Changed
	if set("input") || opts.Input == "" {
		opts.Input = f.input
	}
	if set("output") || opts.Output == "" {
		opts.Output = f.output
	}
	if set("fps") || opts.FPS == 0 {
		opts.FPS = f.fps
	}
	if set("resolution") || opts.DPI == 0 {
		opts.DPI = f.resolution
	}
	if set("color") || opts.HighlightColor == "" {
		opts.HighlightColor = f.color
	}
	if set("size") || opts.FigureSize == 0 {
		opts.FigureSize = f.size
	}
	if set("workers") || opts.Workers == 0 {
		opts.Workers = f.workers
	}
	opts.Refresh = f.refresh
	return opts, nil
}

func (c *CLI) runRender(cmd *cobra.Command, flags *renderFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	opts, err := flags.options(cmd, logger)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	// Without --verbose the spinner shows progress and stage logs stay quiet.
	verbose := logger.GetLevel() <= log.DebugLevel
	opts.Logger = logger
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s", opts.Input))
	if !verbose {
		opts.Logger = quietLogger(logger)
		spinner.Start()
	}
	defer spinner.Stop()

	observability.SetPipelineHooks(&frameProgress{spinner: spinner, logger: logger})
	defer observability.Reset()

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.Stop()
		return err
	}
	if verbose {
		prog.done(fmt.Sprintf("Rendered %d frames", res.Frames))
	}

	spinner.StopWithSuccess(fmt.Sprintf("Rendered %d iterations of %s", res.Frames, opts.Input))
	printFile(fmt.Sprintf("%s (%s)", res.Output, formatBytes(res.Bytes)))
	fmt.Println(renderStats(res.Frames, res.CacheInfo.FrameHits, res.CacheInfo.FrameMisses, res.Stats.Total()))
	if n := len(res.Bests); n > 0 {
		final := res.Bests[n-1]
		printDetail("final best: fitness %g at (%g, %g)", final.Fitness, final.X, final.Y)
	}
	printNextStep("Inspect convergence", fmt.Sprintf("%s inspect %s", appName, opts.Input))
	return nil
}
