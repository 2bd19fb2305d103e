package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/vidcache"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve URL...",
		Short: "Download videos into the cache and print their local paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(engine *vidcache.Engine) error {
				out := cmd.OutOrStdout()
				for _, ref := range args {
					path, err := engine.Await(cmd.Context(), ref)
					if err != nil {
						return fmt.Errorf("resolve %s: %w", ref, err)
					}
					fmt.Fprintln(out, path)
				}
				return nil
			})
		},
	}
}

func newPrefetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prefetch URL...",
		Short: "Warm the cache with the first batch of the given videos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(engine *vidcache.Engine) error {
				started := engine.Prefetch(args...)
				engine.Wait()

				cached := 0
				for _, ref := range args {
					if _, ok := engine.Lookup(ref); ok {
						cached++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Started %d downloads; %d of %d videos cached\n", started, cached, len(args))
				return nil
			})
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List cached videos, oldest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(engine *vidcache.Engine) error {
				entries, err := engine.Entries()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Cache is empty")
					return nil
				}
				if !isTerminal(out) {
					writePlainEntries(out, entries)
					return nil
				}
				fmt.Fprintln(out, renderEntries(entries))
				return nil
			})
		},
	}
}

func newSizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Show cache usage against the budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(engine *vidcache.Engine) error {
				stats, err := engine.Stats()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Directory: %s\n", engine.Dir())
				fmt.Fprintf(out, "Entries:   %d\n", stats.Entries)
				fmt.Fprintf(out, "Size:      %s of %s (%d bytes)\n",
					humanize.IBytes(uint64(stats.SizeBytes)),
					humanize.IBytes(uint64(stats.BudgetBytes)),
					stats.SizeBytes)
				fmt.Fprintf(out, "Target:    %s\n", humanize.IBytes(uint64(stats.TargetBytes)))
				if !stats.Oldest.IsZero() {
					fmt.Fprintf(out, "Oldest:    %s\n", humanize.Time(stats.Oldest))
					fmt.Fprintf(out, "Newest:    %s\n", humanize.Time(stats.Newest))
				}
				return nil
			})
		},
	}
}

func newPruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Evict the oldest videos if the cache is over budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(engine *vidcache.Engine) error {
				freed, err := engine.EnforceBudget()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if freed == 0 {
					fmt.Fprintln(out, "Cache is within budget")
					return nil
				}
				fmt.Fprintf(out, "Freed %s\n", humanize.IBytes(uint64(freed)))
				return nil
			})
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(engine *vidcache.Engine) error {
				if err := engine.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
				return nil
			})
		},
	}
}
