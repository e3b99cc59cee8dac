package cli

import (
	"fmt"
	"math"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/matzehuels/swarmreplay/pkg/pipeline"
)

const (
	chartHeight = 10
	chartWidth  = 60

	// headerRow is the row index lipgloss tables pass to StyleFunc for headers.
	headerRow = -1
)

type inspectOpts struct {
	interactive bool
	noCache     bool
	limit       int // table rows; 0 shows all
}

func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Summarize a trajectory without rendering",
		Long: `Inspect loads a trajectory CSV and prints the best agent of every
iteration, the shared viewport and a chart of best fitness over time.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := pipeline.DefaultInput
			if len(args) == 1 {
				input = args[0]
			}
			return c.runInspect(cmd, input, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.interactive, "interactive", false, "browse iterations in a terminal UI")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not read or write the summary cache")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "show at most this many iterations in the table (0 for all)")
	return cmd
}

func (c *CLI) runInspect(cmd *cobra.Command, input string, opts inspectOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	s, err := runner.Summarize(ctx, input)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Summarized %d iterations", len(s.Iterations)))

	if opts.interactive {
		_, err := tea.NewProgram(NewIterationListModel(s), tea.WithContext(ctx)).Run()
		return err
	}

	fmt.Println(StyleTitle.Render("Trajectory"))
	printKeyValue("File", s.Input)
	printKeyValue("Records", strconv.Itoa(s.Records))
	printKeyValue("Iterations", strconv.Itoa(len(s.Iterations)))
	printKeyValue("Viewport", s.Viewport.String())
	if len(s.Bests) > 0 {
		overall := s.Bests[bestOverall(s.Bests)]
		printKeyValue("Best", fmt.Sprintf("%g at (%g, %g), iteration %d", overall.Fitness, overall.X, overall.Y, overall.Iteration))
	}
	fmt.Println()

	fmt.Println(bestTable(s, opts.limit))
	if opts.limit > 0 && len(s.Bests) > opts.limit {
		printDetail("%d more iterations; use --limit 0 to show all", len(s.Bests)-opts.limit)
	}

	if chart := convergenceChart(s.BestFitness(), chartWidth, chartHeight); chart != "" {
		fmt.Println()
		fmt.Println(chart)
	}
	return nil
}

// bestTable lays out the best agent of each iteration, up to limit rows.
func bestTable(s *pipeline.Summary, limit int) string {
	bests := s.Bests
	if limit > 0 && len(bests) > limit {
		bests = bests[:limit]
	}
	rows := make([][]string, len(bests))
	for i, b := range bests {
		rows[i] = []string{
			strconv.Itoa(b.Iteration),
			strconv.FormatFloat(b.X, 'g', 6, 64),
			strconv.FormatFloat(b.Y, 'g', 6, 64),
			strconv.FormatFloat(b.Fitness, 'g', 6, 64),
			strconv.Itoa(b.Row),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Iteration", "Best X", "Best Y", "Fitness", "Row").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return headerStyle
			case col == 3:
				return cellStyle.Foreground(colorCyan)
			default:
				return cellStyle
			}
		}).
		Render()
}

// convergenceChart plots best fitness per iteration. Non-finite values are
// skipped; fewer than two finite points yield no chart.
func convergenceChart(values []float64, width, height int) string {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) < 2 {
		return ""
	}
	if width > len(finite)*4 {
		width = len(finite) * 4
	}
	return asciigraph.Plot(finite,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("best fitness per iteration"),
	)
}
