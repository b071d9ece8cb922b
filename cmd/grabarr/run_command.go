package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"grabarr/internal/feedstore"
	"grabarr/internal/logging"
	"grabarr/internal/media"
	"grabarr/internal/orchestrator"
	"grabarr/internal/runlog"
)

func newRunCommand(cctx *commandContext) *cobra.Command {
	var libraryFlags []string
	var externalID string
	var download bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Search wanted items and publish results to the feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			kinds, err := parseLibraryFlags(libraryFlags)
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: "console"})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store := feedstore.New(cfg.StoreFile(), logger)
			runs, err := runlog.Open(cfg.RunLogFile())
			if err != nil {
				return fmt.Errorf("open run log: %w", err)
			}
			defer runs.Close()

			orch := orchestrator.New(cfg, store, runs, logger)
			outcome, runErr := orch.Run(ctx, orchestrator.Options{
				Libraries:  kinds,
				ExternalID: strings.TrimSpace(externalID),
				Download:   download,
				DryRun:     dryRun,
			})

			out := cmd.OutOrStdout()
			if len(outcome.Libraries) > 0 {
				fmt.Fprintln(out, renderRunTable(outcome.Libraries))
			}
			if runErr != nil {
				if ctx.Err() != nil {
					return context.Canceled
				}
				return runErr
			}
			if dryRun {
				fmt.Fprintln(out, "Dry run; nothing was published")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&libraryFlags, "library", nil, "Limit the run to a library (movies or tv); repeatable")
	cmd.Flags().StringVar(&externalID, "external", "", "Limit the run to one item by external id (movies: tmdbid; tv: tvdbid or tvdbid:s1,s2)")
	cmd.Flags().BoolVar(&download, "download", false, "Send the top result of each request to qBittorrent")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Search with a short timeout and publish nothing")

	return cmd
}

func parseLibraryFlags(values []string) ([]media.Kind, error) {
	kinds := make([]media.Kind, 0, len(values))
	for _, value := range values {
		kind, err := parseLibraryKind(value)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func parseLibraryKind(value string) (media.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movies", "movie":
		return media.KindMovies, nil
	case "tv":
		return media.KindTV, nil
	default:
		return "", fmt.Errorf("unknown library %q (expected movies or tv)", value)
	}
}

func renderRunTable(runs []runlog.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		result := "ok"
		if !run.Succeeded {
			result = "failed"
		}
		rows = append(rows, []string{
			run.Library,
			fmt.Sprintf("%d", run.Requests),
			fmt.Sprintf("%d", run.Published),
			result,
			formatRunDuration(run),
		})
	}
	return renderTable(
		[]string{"Library", "Requests", "Published", "Result", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignRight},
	)
}

func formatRunDuration(run runlog.Run) string {
	if run.FinishedAt.IsZero() || run.StartedAt.IsZero() {
		return "-"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
}
