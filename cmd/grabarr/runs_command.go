package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"grabarr/internal/runlog"
)

func newRunsCommand(cctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			if limit <= 0 {
				return fmt.Errorf("limit must be positive")
			}

			runs, err := runlog.Open(cfg.RunLogFile())
			if err != nil {
				return fmt.Errorf("open run log: %w", err)
			}
			defer runs.Close()

			recent, err := runs.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read run history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(recent) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(recent))
			for _, run := range recent {
				result := "ok"
				if !run.Succeeded {
					result = "failed"
				}
				detail := run.Error
				if len(detail) > 60 {
					detail = detail[:57] + "..."
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", run.ID),
					run.Library,
					run.StartedAt.Local().Format(time.DateTime),
					formatRunDuration(run),
					fmt.Sprintf("%d", run.Requests),
					fmt.Sprintf("%d", run.Published),
					result,
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Library", "Started", "Duration", "Requests", "Published", "Result", "Error"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")

	return cmd
}
