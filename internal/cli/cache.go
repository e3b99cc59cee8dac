package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/swarmreplay/pkg/cache"
	errs "github.com/matzehuels/swarmreplay/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the frame cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached frames and summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return errs.Wrap(errs.ErrCodeIO, err, "open cache %s", dir)
			}
			defer fc.Close()

			count, err := fc.Clear()
			if err != nil {
				return errs.Wrap(errs.ErrCodeIO, err, "clear cache %s", dir)
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	var stats bool
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			if !stats {
				return nil
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printDetail("empty")
				return nil
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return errs.Wrap(errs.ErrCodeIO, err, "open cache %s", dir)
			}
			defer fc.Close()
			entries, size, err := fc.Stats()
			if err != nil {
				return errs.Wrap(errs.ErrCodeIO, err, "read cache %s", dir)
			}
			printDetail("%d entries, %s", entries, formatBytes(size))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&stats, "stats", "s", false, "also print entry count and size")
	return cmd
}
