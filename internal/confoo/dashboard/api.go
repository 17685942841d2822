package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/confoo-planner/confoo/internal/confoo/data"
	"github.com/confoo-planner/confoo/internal/confoo/schema"
)

// ratingView is a speaker rating as rendered by the API.
type ratingView struct {
	Tier  string `json:"tier"`
	Stars string `json:"stars"`
	Badge string `json:"badge"`
	Note  string `json:"note,omitempty"`
}

type speakerView struct {
	*schema.Speaker
	Rating *ratingView `json:"rating,omitempty"`
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, data.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
		return
	}
	s.logger.Error("api read failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
}

// sourceFor returns the current source or answers 503 when none is set.
func (s *Server) sourceFor(w http.ResponseWriter) (data.Source, bool) {
	src, _ := s.currentSource()
	if src == nil {
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: "no schedule loaded"})
		return nil, false
	}
	return src, true
}

// handleSessions lists sessions. ?day= accepts a day label or anything the
// server's week can resolve to one ("thursday", "feb 26"); ?track= keeps sessions
// carrying that track, case-insensitively.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	src, ok := s.sourceFor(w)
	if !ok {
		return
	}
	ctx := r.Context()

	var (
		sessions []*schema.Session
		err      error
	)
	if day := r.URL.Query().Get("day"); day != "" {
		days, err := src.Days(ctx)
		if err != nil {
			s.writeError(w, err)
			return
		}
		label, found := s.week.Resolve(day, days)
		if !found {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "unknown day: " + day})
			return
		}
		sessions, err = src.SessionsByDay(ctx, label)
		if err != nil {
			s.writeError(w, err)
			return
		}
	} else if sessions, err = src.Sessions(ctx); err != nil {
		s.writeError(w, err)
		return
	}

	if track := r.URL.Query().Get("track"); track != "" {
		sessions = filterTrack(sessions, track)
	}
	writeJSON(w, http.StatusOK, sessions)
}

func filterTrack(sessions []*schema.Session, track string) []*schema.Session {
	out := make([]*schema.Session, 0, len(sessions))
	for _, sess := range sessions {
		for _, t := range sess.Tracks {
			if strings.EqualFold(t, track) {
				out = append(out, sess)
				break
			}
		}
	}
	return out
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	src, ok := s.sourceFor(w)
	if !ok {
		return
	}
	sess, err := src.Session(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSpeakers(w http.ResponseWriter, r *http.Request) {
	src, ok := s.sourceFor(w)
	if !ok {
		return
	}
	speakers, err := src.Speakers(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]speakerView, 0, len(speakers))
	for _, sp := range speakers {
		out = append(out, s.speakerView(sp))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSpeaker(w http.ResponseWriter, r *http.Request) {
	src, ok := s.sourceFor(w)
	if !ok {
		return
	}
	sp, err := src.Speaker(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.speakerView(sp))
}

func (s *Server) speakerView(sp *schema.Speaker) speakerView {
	v := speakerView{Speaker: sp}
	if r, ok := s.ratings[sp.Slug]; ok {
		v.Rating = &ratingView{Tier: r.Tier, Stars: r.Display(), Badge: r.Badge(), Note: r.Note}
	}
	return v
}

func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	src, ok := s.sourceFor(w)
	if !ok {
		return
	}
	days, err := src.Days(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.week.Sort(days))
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	src, ok := s.sourceFor(w)
	if !ok {
		return
	}
	tracks, err := src.Tracks(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	src, ok := s.sourceFor(w)
	if !ok {
		return
	}
	events, err := src.SpecialEvents(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
