package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"grabarr/internal/config"
	"grabarr/internal/feedstore"
	"grabarr/internal/health"
	"grabarr/internal/logging"
	"grabarr/internal/media"
	"grabarr/internal/planner"
	"grabarr/internal/runlock"
	"grabarr/internal/runlog"
	"grabarr/internal/scoring"
	"grabarr/internal/services/arr"
	"grabarr/internal/services/qbit"
)

// LibraryService is the Radarr/Sonarr surface the pipeline consumes.
type LibraryService interface {
	Status(ctx context.Context) error
	WantedMissing(ctx context.Context, pageSize int) ([]media.WantedItem, error)
	Queue(ctx context.Context, pageSize int) ([]media.QueueEntry, error)
	Series(ctx context.Context, id int64) (media.Series, error)
	TriggerRefresh(ctx context.Context) error
}

// SearchService is the qBittorrent surface the pipeline consumes.
type SearchService interface {
	Version(ctx context.Context) (string, error)
	Search(ctx context.Context, query string, limit int, pollInterval, timeout time.Duration) ([]media.Candidate, error)
	AddTorrent(ctx context.Context, torrentURL, rename, tag, category string) error
}

// Options select what one run covers.
type Options struct {
	// Libraries limits the run to the given kinds. Empty means every
	// enabled library.
	Libraries []media.Kind
	// ExternalID narrows the run to one media unit ("tmdbid" for movies,
	// "tvdbid" or "tvdbid:s1,s2" for TV).
	ExternalID string
	// Download sends the top result of each request to qBittorrent even
	// when the config leaves automatic downloads off.
	Download bool
	// DryRun searches with a short timeout and publishes nothing.
	DryRun bool
}

// Outcome summarizes one finished run for callers that report it.
type Outcome struct {
	Libraries []runlog.Run
}

// Orchestrator wires the pipeline together. Service construction is
// pluggable for tests.
type Orchestrator struct {
	cfg            *config.Config
	store          *feedstore.Store
	runs           *runlog.Store
	logger         *slog.Logger
	lock           *runlock.Lock
	libraries      map[media.Kind]LibraryService
	search         SearchService
	scorer         *scoring.Scorer
	wantedPageSize int
}

const defaultPageSize = 250

// New constructs an orchestrator backed by real Radarr/Sonarr and
// qBittorrent clients.
func New(cfg *config.Config, store *feedstore.Store, runs *runlog.Store, logger *slog.Logger) *Orchestrator {
	libraries := make(map[media.Kind]LibraryService)
	for _, kind := range cfg.EnabledKinds() {
		lib := cfg.LibraryFor(kind)
		libraries[kind] = arr.New(kind, lib.URL, lib.APIKey, nil, logger)
	}
	search := qbit.New(cfg.QBit.URL, cfg.QBit.Username, cfg.QBit.Password, cfg.Search.RequestsPerSecond, logger)
	return NewWithServices(cfg, store, runs, logger, libraries, search)
}

// NewWithServices constructs an orchestrator over caller-supplied services.
func NewWithServices(cfg *config.Config, store *feedstore.Store, runs *runlog.Store, logger *slog.Logger, libraries map[media.Kind]LibraryService, search SearchService) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:            cfg,
		store:          store,
		runs:           runs,
		logger:         logging.NewComponentLogger(logger, "orchestrator"),
		lock:           runlock.New(cfg.LockFile()),
		libraries:      libraries,
		search:         search,
		scorer:         scoring.New(cfg.QBit.PreferredSite, cfg.QBit.Trackers, logger),
		wantedPageSize: defaultPageSize,
	}
}

// Run executes the pipeline for every selected library. Libraries run in
// sequence and fail independently; the combined error reports any that did.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Outcome, error) {
	lockTimeout := time.Duration(o.cfg.Health.LockTimeoutSeconds) * time.Second
	if err := o.lock.Acquire(ctx, lockTimeout); err != nil {
		return Outcome{}, err
	}
	defer o.lock.Release()

	kinds := opts.Libraries
	if len(kinds) == 0 {
		kinds = o.cfg.EnabledKinds()
	}

	var outcome Outcome
	var errs []error
	for _, kind := range kinds {
		service, ok := o.libraries[kind]
		if !ok {
			errs = append(errs, fmt.Errorf("library %s is not enabled", kind))
			continue
		}
		run := o.runLibrary(ctx, kind, service, opts)
		outcome.Libraries = append(outcome.Libraries, run)
		if run.Error != "" {
			errs = append(errs, fmt.Errorf("library %s: %s", kind, run.Error))
		}
		if o.runs != nil {
			if _, err := o.runs.Record(ctx, run); err != nil {
				o.logger.Warn("failed to record run history",
					logging.String(logging.FieldLibrary, string(kind)),
					logging.Error(err))
			}
		}
	}
	return outcome, errors.Join(errs...)
}

func (o *Orchestrator) runLibrary(ctx context.Context, kind media.Kind, service LibraryService, opts Options) runlog.Run {
	run := runlog.Run{Library: string(kind), StartedAt: time.Now()}
	logger := o.logger.With(logging.String(logging.FieldLibrary, string(kind)))

	published, requests, err := o.pipeline(ctx, kind, service, opts, logger)
	run.FinishedAt = time.Now()
	run.Requests = requests
	run.Published = published
	if err != nil {
		run.Error = err.Error()
		logger.Error("library run failed", logging.Error(err))
		return run
	}
	run.Succeeded = true
	logger.Info("library run finished",
		logging.Int("requests", requests),
		logging.Int("published", published),
		logging.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt).Round(time.Second)))
	return run
}

func (o *Orchestrator) pipeline(ctx context.Context, kind media.Kind, service LibraryService, opts Options, logger *slog.Logger) (published, requests int, err error) {
	arrRetry := time.Duration(o.cfg.Health.ArrRetrySeconds) * time.Second
	arrDeadline := time.Duration(o.cfg.Health.ArrDeadlineSeconds) * time.Second
	if err := health.AwaitReady(ctx, service.Status, string(kind), arrRetry, arrDeadline, logger); err != nil {
		return 0, 0, err
	}
	qbitCheck := func(ctx context.Context) error {
		_, err := o.search.Version(ctx)
		return err
	}
	qbitRetry := time.Duration(o.cfg.Health.QBitRetrySeconds) * time.Second
	qbitDeadline := time.Duration(o.cfg.Health.QBitDeadlineSeconds) * time.Second
	if err := health.AwaitReady(ctx, qbitCheck, "qbittorrent", qbitRetry, qbitDeadline, logger); err != nil {
		return 0, 0, err
	}

	wanted, err := service.WantedMissing(ctx, o.wantedPageSize)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch wanted list: %w", err)
	}
	queued, err := service.Queue(ctx, o.wantedPageSize)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch download queue: %w", err)
	}
	filter, err := planner.ParseExternalID(kind, opts.ExternalID)
	if err != nil {
		return 0, 0, err
	}

	plan, err := planner.New(kind, service, logger).Plan(ctx, wanted, queued, filter)
	if err != nil {
		return 0, 0, fmt.Errorf("plan searches: %w", err)
	}
	logger.Info("run planned",
		logging.Int("wanted", len(wanted)),
		logging.Int("requests", len(plan)))

	searchTimeout := time.Duration(o.cfg.Search.TimeoutSeconds) * time.Second
	if opts.DryRun {
		searchTimeout = time.Duration(o.cfg.Search.DryRunTimeoutSecs) * time.Second
	}
	pollInterval := time.Duration(o.cfg.Search.PollIntervalSeconds) * time.Second

	var records []feedstore.Record
	for _, request := range plan {
		candidates, err := o.search.Search(ctx, request.Query, o.cfg.Search.ResultLimit, pollInterval, searchTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return 0, len(plan), ctx.Err()
			}
			// One failed search never sinks the run.
			logger.Warn("search failed",
				logging.String(logging.FieldQuery, request.Query),
				logging.Error(err))
			continue
		}
		results := o.scorer.Score(request, candidates)
		if len(results) == 0 {
			continue
		}
		if (opts.Download || o.cfg.Download.Enabled) && !opts.DryRun {
			o.triggerDownload(ctx, results[0], logger)
		}
		for _, result := range results {
			records = append(records, feedstore.FromResult(result, request.Meta))
		}
	}

	if opts.DryRun {
		logger.Info("dry run, skipping publish",
			logging.Int("would_publish", len(records)))
		return 0, len(plan), nil
	}
	if err := o.store.Publish(records, o.cfg.Feed.RetentionDays); err != nil {
		return 0, len(plan), fmt.Errorf("publish results: %w", err)
	}
	if len(records) > 0 {
		if err := service.TriggerRefresh(ctx); err != nil {
			logger.Warn("library refresh failed", logging.Error(err))
		}
	}
	return len(records), len(plan), nil
}

// triggerDownload hands the top result to qBittorrent. Failures are logged
// and the run continues; the result still publishes to the feed.
func (o *Orchestrator) triggerDownload(ctx context.Context, result scoring.Result, logger *slog.Logger) {
	err := o.search.AddTorrent(ctx, result.FileURL, result.FileName, result.Tag, result.Category)
	if err != nil {
		logger.Warn("download trigger failed",
			logging.String("file", result.FileName),
			logging.Error(err))
		return
	}
	logger.Info("download triggered",
		logging.String("file", result.FileName),
		logging.Int("score", result.Score))
}
