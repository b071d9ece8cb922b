package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"grabarr/internal/config"
	"grabarr/internal/feedstore"
	"grabarr/internal/logging"
	"grabarr/internal/media"
	"grabarr/internal/services/arr"
	"grabarr/internal/services/qbit"
)

const statusProbeTimeout = 10 * time.Second

func newStatusCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connectivity to the configured services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), statusProbeTimeout)
			defer cancel()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failures := 0

			for _, line := range renderSectionHeader("Services", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, kind := range cfg.EnabledKinds() {
				lib := cfg.LibraryFor(kind)
				client := arr.New(kind, lib.URL, lib.APIKey, &http.Client{Timeout: statusProbeTimeout}, logging.NewNop())
				label := libraryLabel(kind)
				if err := client.Status(ctx); err != nil {
					failures++
					fmt.Fprintln(out, renderStatusLine(label, statusError, err.Error(), colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine(label, statusOK, lib.URL, colorize))
				}
			}

			search := qbit.New(cfg.QBit.URL, cfg.QBit.Username, cfg.QBit.Password, cfg.Search.RequestsPerSecond, logging.NewNop())
			if version, err := search.Version(ctx); err != nil {
				failures++
				fmt.Fprintln(out, renderStatusLine("qBittorrent", statusError, err.Error(), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("qBittorrent", statusOK, version, colorize))
			}

			for _, line := range renderSectionHeader("Feed", colorize) {
				fmt.Fprintln(out, line)
			}
			printFeedStatus(out, cfg, colorize)

			if failures > 0 {
				return fmt.Errorf("%d service(s) unavailable", failures)
			}
			return nil
		},
	}
}

func libraryLabel(kind media.Kind) string {
	if kind == media.KindMovies {
		return "Radarr (movies)"
	}
	return "Sonarr (tv)"
}

func printFeedStatus(out io.Writer, cfg *config.Config, colorize bool) {
	store := feedstore.New(cfg.StoreFile(), logging.NewNop())
	modTime := store.ModTime()
	if modTime.IsZero() {
		fmt.Fprintln(out, renderStatusLine("Store", statusWarn, "not published yet", colorize))
		return
	}
	age := time.Since(modTime).Round(time.Minute)
	kind := statusOK
	if cfg.Schedule.MaxAgeHours > 0 && age > time.Duration(cfg.Schedule.MaxAgeHours)*time.Hour {
		kind = statusWarn
	}
	message := fmt.Sprintf("%d records, refreshed %s ago", len(store.Load()), age)
	fmt.Fprintln(out, renderStatusLine("Store", kind, message, colorize))
}
