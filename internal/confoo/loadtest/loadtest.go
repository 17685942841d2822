// Package loadtest exercises the store the way the planner uses it: many
// concurrent readers browsing the schedule, optionally while a sync rewrites
// it in batches.
package loadtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/confoo-planner/confoo/internal/confoo/db"
	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

var (
	days   = []string{"Wednesday, February 25", "Thursday, February 26", "Friday, February 27"}
	rooms  = []string{"Room A", "Room B", "Room C", "Room D", "Room E", "Room F"}
	tracks = []string{"AI", "Cloud", "DevOps", "Languages", "Security", "Web", "Data", "UX"}
)

// TestDatabase is a store populated with a synthetic schedule.
type TestDatabase struct {
	DB           *db.DB
	SessionSlugs []string
	SpeakerSlugs []string
	Days         []string

	sessions []*schema.Session
	speakers []*schema.Speaker
}

// LatencyStats captures read latency over a run.
type LatencyStats struct {
	Min          time.Duration
	Max          time.Duration
	Mean         time.Duration
	P50          time.Duration
	P95          time.Duration
	P99          time.Duration
	TotalQueries int
	Errors       int
}

// CreateTestDatabase opens a store at dbPath and fills it with numSessions
// sessions spread over three days, each with one to three tracks.
func CreateTestDatabase(ctx context.Context, dbPath string, numSessions int) (*TestDatabase, error) {
	database, err := db.OpenContext(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	td := &TestDatabase{DB: database, Days: days}
	td.sessions, td.speakers = generateSchedule(numSessions)
	for _, s := range td.sessions {
		td.SessionSlugs = append(td.SessionSlugs, s.Slug)
	}
	for _, sp := range td.speakers {
		td.SpeakerSlugs = append(td.SpeakerSlugs, sp.Slug)
	}

	if err := td.write(ctx, db.DefaultBatchSize); err != nil {
		_ = database.Close()
		return nil, err
	}
	return td, nil
}

// Close closes the store.
func (td *TestDatabase) Close() error {
	if td.DB != nil {
		return td.DB.Close()
	}
	return nil
}

// write replaces the store contents the way a sync does: clear, then
// upsert in batches.
func (td *TestDatabase) write(ctx context.Context, batchSize int) error {
	batch := td.DB.NewBatch(batchSize)
	defer batch.Rollback()

	if err := batch.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	for _, s := range td.sessions {
		if err := batch.UpsertSession(ctx, s); err != nil {
			return fmt.Errorf("failed to insert session %s: %w", s.Slug, err)
		}
		if err := batch.Step(); err != nil {
			return err
		}
	}
	for _, sp := range td.speakers {
		if err := batch.UpsertSpeaker(ctx, sp); err != nil {
			return fmt.Errorf("failed to insert speaker %s: %w", sp.Slug, err)
		}
		if err := batch.Step(); err != nil {
			return err
		}
	}
	if err := batch.SetSyncMeta(ctx, schema.MetaLastSync, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return batch.Flush()
}

// RunConcurrentReads runs numReaders goroutines, each issuing
// queriesPerReader mixed schedule reads, and aggregates their latency.
func (td *TestDatabase) RunConcurrentReads(ctx context.Context, numReaders, queriesPerReader int) (*LatencyStats, error) {
	var wg sync.WaitGroup
	results := make(chan []time.Duration, numReaders)
	errs := make(chan error, numReaders)

	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func(reader int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(reader)))
			durations := make([]time.Duration, 0, queriesPerReader)

			for j := 0; j < queriesPerReader; j++ {
				start := time.Now()
				err := td.randomRead(ctx, rng, j)
				durations = append(durations, time.Since(start))
				if err != nil {
					errs <- fmt.Errorf("reader %d query %d failed: %w", reader, j, err)
					return
				}
			}
			results <- durations
		}(i)
	}

	wg.Wait()
	close(results)
	close(errs)

	var all []time.Duration
	for d := range results {
		all = append(all, d...)
	}
	var failures []error
	for err := range errs {
		failures = append(failures, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no successful queries completed: %w", errors.Join(failures...))
	}

	stats := computeLatencyStats(all)
	stats.Errors = len(failures)
	return stats, nil
}

// randomRead issues one of the reads the browse commands and the dashboard
// perform.
func (td *TestDatabase) randomRead(ctx context.Context, rng *rand.Rand, n int) error {
	var err error
	switch n % 5 {
	case 0:
		_, err = td.DB.Sessions(ctx)
	case 1:
		_, err = td.DB.SessionsByDay(ctx, td.Days[rng.Intn(len(td.Days))])
	case 2:
		_, err = td.DB.Session(ctx, td.SessionSlugs[rng.Intn(len(td.SessionSlugs))])
	case 3:
		_, err = td.DB.Speaker(ctx, td.SpeakerSlugs[rng.Intn(len(td.SpeakerSlugs))])
	default:
		_, err = td.DB.Tracks(ctx)
	}
	return err
}

// VerifyReadsDuringSync keeps numReaders reading while the schedule is
// rewritten in batches of batchSize until duration elapses. Every session a
// reader sees must carry exactly the tracks it was written with.
func (td *TestDatabase) VerifyReadsDuringSync(ctx context.Context, numReaders, batchSize int, duration time.Duration) (rewrites int, err error) {
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	want := make(map[string][]string, len(td.sessions))
	for _, s := range td.sessions {
		want[s.Slug] = s.Tracks
	}

	var wg sync.WaitGroup
	errs := make(chan error, numReaders+1)

	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func(reader int) {
			defer wg.Done()
			for ctx.Err() == nil {
				sessions, err := td.DB.Sessions(ctx)
				if err != nil {
					if ctx.Err() == nil {
						errs <- fmt.Errorf("reader %d read failed: %w", reader, err)
					}
					return
				}
				if len(sessions) > len(td.sessions) {
					errs <- fmt.Errorf("reader %d saw %d sessions, more than the %d written", reader, len(sessions), len(td.sessions))
					return
				}
				for _, s := range sessions {
					if !slices.Equal(s.Tracks, want[s.Slug]) {
						errs <- fmt.Errorf("reader %d saw session %s with tracks %v, want %v", reader, s.Slug, s.Tracks, want[s.Slug])
						return
					}
				}
				time.Sleep(time.Millisecond)
			}
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			if err := td.write(ctx, batchSize); err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("writer failed: %w", err)
				}
				return
			}
			rewrites++
		}
	}()

	wg.Wait()
	close(errs)
	for err := range errs {
		return rewrites, err
	}
	return rewrites, nil
}

// generateSchedule builds a deterministic schedule. Each speaker gives two
// sessions, matching the shape of the real conference.
func generateSchedule(numSessions int) ([]*schema.Session, []*schema.Speaker) {
	rng := rand.New(rand.NewSource(42))
	sessions := make([]*schema.Session, 0, numSessions)
	speakers := make([]*schema.Speaker, 0, numSessions/2+1)

	perDay := (numSessions + len(days) - 1) / len(days)
	for i := 0; i < numSessions; i++ {
		if i%2 == 0 {
			n := len(speakers)
			speakers = append(speakers, &schema.Speaker{
				Slug:    fmt.Sprintf("speaker-%04d", n),
				Name:    fmt.Sprintf("Speaker %d", n),
				Company: fmt.Sprintf("Company %d", n%25),
				Bio:     strings.Repeat("Builds software. ", 1+n%5),
			})
		}
		sp := speakers[len(speakers)-1]

		slot := (i % perDay) / len(rooms)
		start := time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC).Add(time.Duration(slot) * time.Hour)

		var ts []string
		for _, idx := range rng.Perm(len(tracks))[:1+rng.Intn(3)] {
			ts = append(ts, tracks[idx])
		}

		sessions = append(sessions, &schema.Session{
			Slug:        fmt.Sprintf("session-%05d", i),
			Title:       fmt.Sprintf("Session %d", i),
			Abstract:    strings.Repeat("An in-depth talk. ", 1+i%8),
			Day:         days[i/perDay],
			StartTime:   start.Format("15:04"),
			EndTime:     start.Add(45 * time.Minute).Format("15:04"),
			Room:        rooms[i%len(rooms)],
			Language:    "English",
			Level:       []string{"Beginner", "Intermediate", "Advanced"}[i%3],
			IsKeynote:   i%perDay == 0,
			SpeakerSlug: sp.Slug,
			SpeakerName: sp.Name,
			Tracks:      ts,
		})
	}
	return sessions, speakers
}

func computeLatencyStats(durations []time.Duration) *LatencyStats {
	if len(durations) == 0 {
		return &LatencyStats{}
	}

	sorted := slices.Clone(durations)
	slices.Sort(sorted)

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}

	return &LatencyStats{
		Min:          sorted[0],
		Max:          sorted[len(sorted)-1],
		Mean:         sum / time.Duration(len(sorted)),
		P50:          sorted[len(sorted)*50/100],
		P95:          sorted[len(sorted)*95/100],
		P99:          sorted[len(sorted)*99/100],
		TotalQueries: len(sorted),
	}
}

// Print writes the statistics in a fixed layout.
func (s *LatencyStats) Print(w io.Writer) {
	fmt.Fprintf(w, "Latency Statistics:\n")
	fmt.Fprintf(w, "  Total Queries: %d\n", s.TotalQueries)
	fmt.Fprintf(w, "  Errors:        %d\n", s.Errors)
	fmt.Fprintf(w, "  Min:           %v\n", s.Min)
	fmt.Fprintf(w, "  P50 (Median):  %v\n", s.P50)
	fmt.Fprintf(w, "  Mean:          %v\n", s.Mean)
	fmt.Fprintf(w, "  P95:           %v\n", s.P95)
	fmt.Fprintf(w, "  P99:           %v\n", s.P99)
	fmt.Fprintf(w, "  Max:           %v\n", s.Max)
}
