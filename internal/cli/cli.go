package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/swarmreplay/pkg/buildinfo"
	"github.com/matzehuels/swarmreplay/pkg/cache"
	errs "github.com/matzehuels/swarmreplay/pkg/errors"
	"github.com/matzehuels/swarmreplay/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is used for the cache directory and display.
	appName = "swarmreplay"

	// cacheScope namespaces frame keys; bump it when frame drawing changes so
	// stale rasters are not reused.
	cacheScope = "r1:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root command. Invoked without a subcommand it
// behaves like "render", so the historic `swarmreplay -i run.csv` works.
func (c *CLI) RootCommand() *cobra.Command {
	var flags renderFlags

	root := &cobra.Command{
		Use:   appName,
		Short: "Replay swarm optimization trajectories as animated GIFs",
		Long: `swarmreplay reads a particle swarm trajectory CSV (Position, Iteration,
Fitness) and renders one scatter frame per iteration, highlighting the best
agent, into a looping GIF.`,
		Version:       buildinfo.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, &flags)
		},
	}
	flags.register(root)

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	fc, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(fc, cache.NewScopedKeyer(nil, cacheScope), c.Logger), nil
}

// newCache opens the user frame cache. When no cache directory can be
// determined the run proceeds uncached.
func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "open cache %s", dir)
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir follows the XDG convention (~/.cache/swarmreplay).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Errors
// =============================================================================

// ReportError writes err to w as a single styled line. Coded errors are
// shown with their user message; anything else verbatim.
func ReportError(w io.Writer, err error) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+StyleError.Render(errs.UserMessage(err)))
}
