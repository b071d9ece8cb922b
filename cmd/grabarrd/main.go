// Command grabarrd runs the grabarr daemon: the Torznab feed, the approval
// webhook, and the scheduled feed refresh.
package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"grabarr/internal/config"
	"grabarr/internal/daemon"
	"grabarr/internal/feedstore"
	"grabarr/internal/logging"
	"grabarr/internal/orchestrator"
	"grabarr/internal/runlog"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, cfgPath, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.EnsureKeys() {
		if err := config.Save(cfg, cfgPath); err != nil {
			log.Fatalf("persist generated keys: %v", err)
		}
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}
	if err := cfg.CheckDataDirAccess(); err != nil {
		log.Fatalf("data directory access: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "grabarrd.log")},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store := feedstore.New(cfg.StoreFile(), logger)
	runs, err := runlog.Open(cfg.RunLogFile())
	if err != nil {
		logger.Error("open run log", logging.Error(err))
		return
	}
	defer runs.Close()
	if removed, err := runs.Prune(ctx, cfg.Runs.KeepDays); err != nil {
		logger.Warn("prune run history", logging.Error(err))
	} else if removed > 0 {
		logger.Info("pruned run history", logging.Int64("removed", removed))
	}

	orch := orchestrator.New(cfg, store, runs, logger)
	d, err := daemon.New(cfg, store, orch, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("grabarrd shutting down")
	d.Stop()
}
