package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/confoo-planner/confoo/internal/confoo/db"
	"github.com/confoo-planner/confoo/internal/confoo/merge"
	"github.com/confoo-planner/confoo/internal/confoo/schema"
	"github.com/confoo-planner/confoo/internal/metrics"
)

// DefaultDelay is the pause after every page fetch.
const DefaultDelay = 500 * time.Millisecond

// Config tunes a Syncer. The zero value uses the defaults.
type Config struct {
	// Delay is the politeness pause after every detail and speaker page,
	// including failed ones. Zero means DefaultDelay; negative disables it.
	Delay time.Duration

	// BatchSize is the number of items written between commits.
	BatchSize int

	Logger *slog.Logger

	// OnProgress, when set, is called after every item.
	OnProgress func(Progress)

	// Sleep and Now are replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// syncer implements the Syncer interface.
type syncer struct {
	db      *db.DB
	fetcher Fetcher
	cfg     Config
	logger  *slog.Logger
}

// New creates a new Syncer writing to database and reading through fetcher.
//
// Example:
//
//	browser, err := extract.NewChromeBrowser(ctx, extract.ChromeOptions{Headless: true})
//	if err != nil {
//	    return err
//	}
//	defer browser.Close()
//	syncer := sync.New(database, extract.NewAdapter(browser, extract.DefaultSite()), sync.Config{})
//	result, err := syncer.FullSync(ctx)
func New(database *db.DB, fetcher Fetcher, cfg Config) Syncer {
	if cfg.Delay == 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = db.DefaultBatchSize
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &syncer{
		db:      database,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger.With("component", "sync"),
	}
}

// FullSync implements Syncer.FullSync.
func (s *syncer) FullSync(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: s.cfg.Now(),
	}
	log := s.logger.With("run_id", res.RunID)
	log.Info("starting full sync")

	res, err := s.run(ctx, log, res)
	switch {
	case errors.Is(err, ErrEmptyGrid):
		metrics.SyncRuns.WithLabelValues("empty_grid").Inc()
		return nil, err
	case err != nil:
		metrics.SyncRuns.WithLabelValues("error").Inc()
		log.Error("full sync failed", "error", err)
		return nil, err
	}

	metrics.SyncRuns.WithLabelValues("ok").Inc()
	metrics.Sessions.Set(float64(res.Sessions))
	metrics.Speakers.Set(float64(res.Speakers))
	metrics.LastSuccess.Set(float64(res.FinishedAt.Unix()))

	log.Info("full sync complete",
		"sessions", res.Sessions,
		"speakers", res.Speakers,
		"events", res.Events,
		"failed_details", res.FailedDetails,
		"failed_speakers", res.FailedSpeakers,
		"commits", res.Commits,
		"duration", res.Duration())
	return res, nil
}

func (s *syncer) run(ctx context.Context, log *slog.Logger, res *Result) (*Result, error) {
	grid, err := s.gridStage(ctx, log)
	if err != nil {
		return nil, err
	}

	batch := s.db.NewBatch(s.cfg.BatchSize)
	defer batch.Rollback()

	// The clear rides in the first batch: until it commits, readers and a
	// crashed run still see the previous dataset.
	if err := batch.ClearAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear store: %w", err)
	}
	for i := range grid.Events {
		ev := grid.Events[i]
		if err := batch.AppendSpecialEvent(ctx, &ev); err != nil {
			return nil, fmt.Errorf("failed to store special event: %w", err)
		}
		res.Events++
	}

	hints, err := s.detailStage(ctx, log, batch, grid, res)
	if err != nil {
		return nil, err
	}
	if err := s.speakerStage(ctx, log, batch, grid, hints, res); err != nil {
		return nil, err
	}

	res.FinishedAt = s.cfg.Now()
	if err := batch.SetSyncMeta(ctx, schema.MetaLastSync, res.FinishedAt.UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}
	if err := batch.SetSyncMeta(ctx, schema.MetaLastSyncID, res.RunID); err != nil {
		return nil, err
	}
	if err := batch.Flush(); err != nil {
		return nil, err
	}
	res.Commits = batch.Commits()
	return res, nil
}

func (s *syncer) gridStage(ctx context.Context, log *slog.Logger) (*merge.Result, error) {
	start := time.Now()
	defer func() { metrics.SyncDuration.WithLabelValues(metrics.StageGrid).Observe(time.Since(start).Seconds()) }()

	log.Info("loading schedule grid")
	fragments, events, err := s.fetcher.Grid(ctx)
	metrics.PageResult(metrics.StageGrid, err)
	if err != nil {
		return nil, err
	}

	grid := merge.Grid(fragments, events)
	log.Info("schedule grid merged",
		"slots", len(fragments),
		"sessions", grid.Len(),
		"speakers", len(grid.SpeakerSlugs),
		"events", len(grid.Events))

	if grid.Len() == 0 {
		log.Warn("no sessions found; site layout may have changed, keeping existing data")
		return nil, ErrEmptyGrid
	}
	return grid, nil
}

// detailStage enriches every merged session with its detail page and writes
// it. A failed page leaves the detail fields empty.
func (s *syncer) detailStage(ctx context.Context, log *slog.Logger, batch *db.Batch, grid *merge.Result, res *Result) (Hints, error) {
	start := time.Now()
	defer func() { metrics.SyncDuration.WithLabelValues(metrics.StageDetail).Observe(time.Since(start).Seconds()) }()

	hints := make(Hints)
	total := grid.Len()
	log.Info("fetching session details", "total", total)

	for i, slug := range grid.Order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g := grid.Sessions[slug]
		session := g.Session()

		detail, err := s.fetcher.SessionDetail(ctx, slug)
		metrics.PageResult(metrics.StageDetail, err)
		if err != nil {
			res.FailedDetails++
			log.Warn("failed to fetch session detail", "slug", slug, "error", err)
		} else {
			session.Abstract = detail.Abstract
			session.Language = detail.Language
			session.Level = detail.Level
			hints.observe(g.SpeakerSlug, detail)
		}

		if err := batch.UpsertSession(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to store session %s: %w", slug, err)
		}
		res.Sessions++
		if err := batch.Step(); err != nil {
			return nil, err
		}
		s.progress(log, metrics.StageDetail, i+1, total)

		if err := s.pause(ctx); err != nil {
			return nil, err
		}
	}

	if err := batch.Flush(); err != nil {
		return nil, err
	}
	return hints, nil
}

// speakerStage writes one speaker per distinct grid speaker slug. Profile
// fields win; empty company and bio fall back to the session page hints and
// an empty name falls back to the grid display name. A failed profile page
// still yields a stored speaker.
func (s *syncer) speakerStage(ctx context.Context, log *slog.Logger, batch *db.Batch, grid *merge.Result, hints Hints, res *Result) error {
	start := time.Now()
	defer func() { metrics.SyncDuration.WithLabelValues(metrics.StageSpeaker).Observe(time.Since(start).Seconds()) }()

	total := len(grid.SpeakerSlugs)
	log.Info("fetching speaker profiles", "total", total)

	for i, slug := range grid.SpeakerSlugs {
		if err := ctx.Err(); err != nil {
			return err
		}
		sp := &schema.Speaker{Slug: slug}

		profile, err := s.fetcher.SpeakerProfile(ctx, slug)
		metrics.PageResult(metrics.StageSpeaker, err)
		if err != nil {
			res.FailedSpeakers++
			log.Warn("failed to fetch speaker profile", "slug", slug, "error", err)
		} else {
			sp.Name = profile.Name
			sp.Company = profile.Company
			sp.Country = profile.Country
			sp.Bio = profile.Bio
			sp.PhotoURL = profile.PhotoURL
			sp.Website = profile.Website
			sp.Twitter = profile.Twitter
		}
		if sp.Name == "" {
			sp.Name = grid.SpeakerNames[slug]
		}
		if sp.Company == "" {
			sp.Company = hints.Company(slug)
		}
		if sp.Bio == "" {
			sp.Bio = hints.Bio(slug)
		}

		if err := batch.UpsertSpeaker(ctx, sp); err != nil {
			return fmt.Errorf("failed to store speaker %s: %w", slug, err)
		}
		res.Speakers++
		if err := batch.Step(); err != nil {
			return err
		}
		s.progress(log, metrics.StageSpeaker, i+1, total)

		if err := s.pause(ctx); err != nil {
			return err
		}
	}

	return batch.Flush()
}

func (s *syncer) progress(log *slog.Logger, stage string, done, total int) {
	if done == 1 || done%20 == 0 || done == total {
		log.Info("progress", "stage", stage, "done", done, "total", total)
	}
	if s.cfg.OnProgress != nil {
		s.cfg.OnProgress(Progress{Stage: stage, Done: done, Total: total})
	}
}

func (s *syncer) pause(ctx context.Context) error {
	if s.cfg.Delay < 0 {
		return ctx.Err()
	}
	return s.cfg.Sleep(ctx, s.cfg.Delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
