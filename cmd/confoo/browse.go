package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/confoo-planner/confoo/internal/confoo/data"
	"github.com/confoo-planner/confoo/internal/confoo/ratings"
	"github.com/confoo-planner/confoo/internal/confoo/schema"
	"github.com/confoo-planner/confoo/internal/ui"
)

func openLoader(ctx context.Context) *data.Loader {
	cfg := state.cfg
	return data.Open(ctx, data.Options{DBPath: cfg.DBPath, SnapshotPath: cfg.SnapshotPath, Logger: state.logger})
}

func ratingFor(slug string) *ratings.Rating {
	all := ratings.Load(state.cfg.RatingsPath, state.logger)
	if r, ok := all[slug]; ok {
		return &r
	}
	return nil
}

func notFound(err error, kind, slug string) error {
	if errors.Is(err, data.ErrNotFound) {
		return fmt.Errorf("no %s with slug %q", kind, slug)
	}
	return err
}

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	GroupID: "browse",
	Short:   "List sessions by day",
	Long: `List sessions grouped by day, with breaks and meals slotted in.

--day accepts a day label or a natural expression:
  confoo sessions --day thursday
  confoo sessions --day "feb 26"
  confoo sessions --day 2026-02-25 --track Cloud`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		loader := openLoader(ctx)
		defer loader.Close()

		var (
			sessions []*schema.Session
			err      error
		)
		day, _ := cmd.Flags().GetString("day")
		if day != "" {
			days, err := loader.Days(ctx)
			if err != nil {
				return err
			}
			label, ok := state.cfg.Week().Resolve(day, days)
			if !ok {
				return fmt.Errorf("unknown day %q (known: %s)", day, strings.Join(days, "; "))
			}
			if sessions, err = loader.SessionsByDay(ctx, label); err != nil {
				return err
			}
		} else if sessions, err = loader.Sessions(ctx); err != nil {
			return err
		}

		track, _ := cmd.Flags().GetString("track")
		if track != "" {
			sessions = withTrack(sessions, track)
		}

		events, err := loader.SpecialEvents(ctx)
		if err != nil {
			return err
		}
		if track != "" {
			events = nil
		}

		if len(sessions) == 0 {
			fmt.Printf("%s No sessions match\n", ui.RenderWarn("⚠"))
			return nil
		}
		week := state.cfg.Week()
		slices.SortStableFunc(sessions, func(a, b *schema.Session) int {
			return strings.Compare(week.SortKey(a.Day), week.SortKey(b.Day))
		})
		fmt.Print(ui.SessionList(sessions, events))
		fmt.Printf("\n%s\n", ui.RenderMuted(fmt.Sprintf("%d sessions · %s", len(sessions), loader.SourceName())))
		return nil
	},
}

func withTrack(sessions []*schema.Session, track string) []*schema.Session {
	var out []*schema.Session
	for _, s := range sessions {
		for _, t := range s.Tracks {
			if strings.EqualFold(t, track) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

var sessionCmd = &cobra.Command{
	Use:     "session <slug>",
	GroupID: "browse",
	Short:   "Show one session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		loader := openLoader(ctx)
		defer loader.Close()

		s, err := loader.Session(ctx, args[0])
		if err != nil {
			return notFound(err, "session", args[0])
		}
		var sp *schema.Speaker
		if s.SpeakerSlug != "" {
			if sp, err = loader.Speaker(ctx, s.SpeakerSlug); err != nil && !errors.Is(err, data.ErrNotFound) {
				return err
			}
		}
		fmt.Print(ui.SessionDetail(s, sp, ratingFor(s.SpeakerSlug)))
		return nil
	},
}

var speakerCmd = &cobra.Command{
	Use:     "speaker <slug>",
	GroupID: "browse",
	Short:   "Show a speaker with rating and sessions",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		loader := openLoader(ctx)
		defer loader.Close()

		sp, err := loader.Speaker(ctx, args[0])
		if err != nil {
			return notFound(err, "speaker", args[0])
		}
		all, err := loader.Sessions(ctx)
		if err != nil {
			return err
		}
		var theirs []*schema.Session
		for _, s := range all {
			if s.SpeakerSlug == sp.Slug {
				theirs = append(theirs, s)
			}
		}
		fmt.Print(ui.SpeakerDetail(sp, theirs, ratingFor(sp.Slug)))
		return nil
	},
}

var daysCmd = &cobra.Command{
	Use:     "days",
	GroupID: "browse",
	Short:   "List conference days",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		loader := openLoader(ctx)
		defer loader.Close()

		days, err := loader.Days(ctx)
		if err != nil {
			return err
		}
		week := state.cfg.Week()
		for _, d := range week.Sort(days) {
			sessions, err := loader.SessionsByDay(ctx, d)
			if err != nil {
				return err
			}
			fmt.Printf("%s  %s\n", ui.RenderHeader(fmt.Sprintf("%-8s", week.TabLabel(d))),
				ui.RenderMuted(fmt.Sprintf("%s · %d sessions", d, len(sessions))))
		}
		return nil
	},
}

var tracksCmd = &cobra.Command{
	Use:     "tracks",
	GroupID: "browse",
	Short:   "List tracks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		loader := openLoader(ctx)
		defer loader.Close()

		tracks, err := loader.Tracks(ctx)
		if err != nil {
			return err
		}
		for _, t := range tracks {
			fmt.Println(ui.RenderAccent(t))
		}
		return nil
	},
}

func init() {
	sessionsCmd.Flags().StringP("day", "d", "", "day label or expression (\"thursday\", \"feb 26\")")
	sessionsCmd.Flags().StringP("track", "t", "", "only sessions in this track")

	rootCmd.AddCommand(sessionsCmd, sessionCmd, speakerCmd, daysCmd, tracksCmd)
}
