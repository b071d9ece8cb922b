package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"grabarr/internal/config"
	"grabarr/internal/feedstore"
	"grabarr/internal/logging"
	"grabarr/internal/orchestrator"
	"grabarr/internal/schedule"
	"grabarr/internal/torznab"
)

// Runner executes one acquisition run. The orchestrator satisfies it; tests
// substitute fakes.
type Runner interface {
	Run(ctx context.Context, opts orchestrator.Options) (orchestrator.Outcome, error)
}

// Daemon ties the HTTP surface and the refresh scheduler to one runner.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	runner   Runner
	store    *feedstore.Store
	renderer *torznab.Renderer
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon.
func New(cfg *config.Config, store *feedstore.Store, runner Runner, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	renderer, err := torznab.NewRenderer(torznab.FeedInfo{
		Title:         cfg.Feed.Title,
		Link:          cfg.Feed.Link,
		Description:   cfg.Feed.Description,
		Language:      cfg.Feed.Language,
		Image:         cfg.Feed.Image,
		APIKey:        cfg.Feed.APIKey,
		RetentionDays: cfg.Feed.RetentionDays,
	})
	if err != nil {
		return nil, fmt.Errorf("build feed renderer: %w", err)
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		runner:   runner,
		store:    store,
		renderer: renderer,
	}
	d.api = newAPIServer(cfg, d, d.logger)
	return d, nil
}

// Start brings up the HTTP server and the scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	d.ctx, d.cancel = context.WithCancel(ctx)

	if err := d.api.start(d.ctx); err != nil {
		d.cancel()
		return err
	}

	sched, err := schedule.Parse(d.cfg.Schedule.Cron)
	if err != nil {
		d.api.stop()
		d.cancel()
		return fmt.Errorf("parse refresh schedule: %w", err)
	}
	d.wg.Add(1)
	go d.scheduleLoop(sched)

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("bind", d.cfg.Paths.APIBind),
		logging.String("schedule", d.cfg.Schedule.Cron))
	return nil
}

// Stop shuts the HTTP server down and waits for background work.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.cancel()
	d.api.stop()
	d.wg.Wait()
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Addr reports the HTTP listen address once started.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

func (d *Daemon) scheduleLoop(sched schedule.Schedule) {
	defer d.wg.Done()
	for {
		next := sched.Next(time.Now())
		if next.IsZero() {
			d.logger.Warn("refresh schedule never fires, scheduler idle")
			return
		}
		select {
		case <-d.ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}
		d.refreshIfStale()
	}
}

// refreshIfStale runs a full refresh when the store is missing or older
// than the configured maximum age.
func (d *Daemon) refreshIfStale() {
	maxAge := time.Duration(d.cfg.Schedule.MaxAgeHours) * time.Hour
	modTime := d.store.ModTime()
	if !modTime.IsZero() && time.Since(modTime) < maxAge {
		d.logger.Debug("feed store fresh, skipping scheduled refresh",
			logging.Duration("age", time.Since(modTime).Round(time.Minute)))
		return
	}
	d.logger.Info("scheduled refresh starting")
	if _, err := d.runner.Run(d.ctx, orchestrator.Options{}); err != nil {
		d.logger.Error("scheduled refresh failed", logging.Error(err))
	}
}
