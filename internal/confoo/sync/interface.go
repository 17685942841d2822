package sync

import (
	"context"
	"errors"
	"time"

	"github.com/confoo-planner/confoo/internal/confoo/extract"
	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

// ErrEmptyGrid is returned when the schedule grid contains no sessions. The
// existing data is left untouched.
var ErrEmptyGrid = errors.New("no sessions found in schedule grid")

// Syncer rebuilds the store from the remote site.
type Syncer interface {
	// FullSync performs a complete scrape and replaces the stored dataset.
	//
	// Individual page failures are logged and counted in the Result. An
	// error is returned for a grid that cannot be loaded, an empty grid
	// (ErrEmptyGrid), a store failure, or context cancellation.
	FullSync(ctx context.Context) (*Result, error)
}

// Fetcher reads the three kinds of page the pipeline needs. extract.Adapter
// is the production implementation.
type Fetcher interface {
	Grid(ctx context.Context) ([]schema.GridFragment, []schema.SpecialEvent, error)
	SessionDetail(ctx context.Context, slug string) (extract.SessionDetail, error)
	SpeakerProfile(ctx context.Context, slug string) (extract.SpeakerProfile, error)
}

// Result summarises one FullSync run.
type Result struct {
	RunID          string
	Sessions       int
	Speakers       int
	Events         int
	FailedDetails  int
	FailedSpeakers int
	Commits        int
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Duration returns the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Progress reports how far a stage has come.
type Progress struct {
	Stage string
	Done  int
	Total int
}
