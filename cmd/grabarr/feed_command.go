package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"grabarr/internal/feedstore"
	"grabarr/internal/logging"
	"grabarr/internal/media"
)

func newFeedCommand(cctx *commandContext) *cobra.Command {
	var libraryFlag string

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the currently published feed records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			var kind media.Kind
			if strings.TrimSpace(libraryFlag) != "" {
				kind, err = parseLibraryKind(libraryFlag)
				if err != nil {
					return err
				}
			}

			store := feedstore.New(cfg.StoreFile(), logging.NewNop())
			records := store.Load()

			out := cmd.OutOrStdout()
			filtered := make([]feedstore.Record, 0, len(records))
			for _, record := range records {
				if kind != "" && record.Kind != string(kind) {
					continue
				}
				filtered = append(filtered, record)
			}
			if len(filtered) == 0 {
				fmt.Fprintln(out, "Feed is empty")
				return nil
			}

			sort.Slice(filtered, func(i, j int) bool {
				if filtered[i].Score != filtered[j].Score {
					return filtered[i].Score > filtered[j].Score
				}
				return filtered[i].PubDate > filtered[j].PubDate
			})

			rows := make([][]string, 0, len(filtered))
			for _, record := range filtered {
				name := record.FileName
				if record.Tag != "" {
					name = fmt.Sprintf("[%s] %s", record.Tag, record.FileName)
				}
				rows = append(rows, []string{
					name,
					record.Kind,
					record.Category,
					fmt.Sprintf("%d", record.Score),
					formatSize(record.FileSize),
					fmt.Sprintf("%d", record.Seeders),
					record.LastAdded.Local().Format(time.DateOnly),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Type", "Category", "Score", "Size", "Seeders", "Added"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&libraryFlag, "library", "", "Only show records for one library (movies or tv)")

	return cmd
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
