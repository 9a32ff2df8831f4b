// Package server exposes the latest aggregation snapshot over an HTTP
// JSON API.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"pujaboard/internal/model"
	"pujaboard/internal/pipeline"
)

// TomorrowTitle is the heading for the tomorrow bucket.
const TomorrowTitle = "Tomorrow's Puja/Homa"

// Server holds the latest published snapshot and serves it. The
// snapshot is replaced wholesale after each pipeline run; requests
// only ever see a complete, consistent result.
type Server struct {
	log *slog.Logger

	mu   sync.RWMutex
	snap pipeline.Snapshot
}

// New creates a Server with an empty snapshot.
func New(log *slog.Logger) *Server {
	return &Server{log: log}
}

// Publish replaces the current snapshot.
func (s *Server) Publish(snap pipeline.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

// Snapshot returns the current snapshot.
func (s *Server) Snapshot() pipeline.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Router wires the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/api/events/all", s.handleAllEvents).Methods(http.MethodGet)
	r.HandleFunc("/api/search", s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	return r
}

// eventView is the wire shape of one enriched event.
type eventView struct {
	ID                string         `json:"id"`
	Seva              string         `json:"seva"`
	Venue             string         `json:"venue"`
	Activity          string         `json:"activity"`
	Link              string         `json:"link"`
	Date              string         `json:"date"`
	Time              string         `json:"time"`
	Category          string         `json:"category,omitempty"`
	Tags              []string       `json:"tags,omitempty"`
	Visuals           model.Visuals  `json:"visuals"`
	IsTomorrow        bool           `json:"isTomorrow"`
	IsThisWeek        bool           `json:"isThisWeek"`
	IsLongRunning     bool           `json:"isLongRunning"`
	IsPresenceOverlap bool           `json:"isGurudevPresence"`
}

type eventsResponse struct {
	TomorrowTitle string      `json:"tomorrowTitle"`
	Tomorrow      []eventView `json:"tomorrow"`
	ThisWeek      []eventView `json:"thisWeek"`
	Later         []eventView `json:"later"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	Error         string      `json:"error,omitempty"`
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	snap := s.Snapshot()
	s.writeJSON(w, eventsResponse{
		TomorrowTitle: TomorrowTitle,
		Tomorrow:      views(snap.Result.Tomorrow),
		ThisWeek:      views(snap.Result.ThisWeek),
		Later:         views(snap.Result.Later),
		UpdatedAt:     snap.UpdatedAt,
		Error:         snap.Err,
	})
}

func (s *Server) handleAllEvents(w http.ResponseWriter, _ *http.Request) {
	snap := s.Snapshot()
	s.writeJSON(w, map[string]any{
		"events":    views(snap.Result.All),
		"updatedAt": snap.UpdatedAt,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	snap := s.Snapshot()

	results := []eventView{}
	for i := range snap.Result.All {
		if snap.Result.All[i].Matches(query) {
			results = append(results, view(snap.Result.All[i]))
		}
	}
	s.writeJSON(w, map[string]any{"query": query, "results": results})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func view(ev model.EnrichedEvent) eventView {
	return eventView{
		ID:                ev.ID,
		Seva:              ev.Seva,
		Venue:             ev.Venue,
		Activity:          ev.Activity,
		Link:              ev.Link,
		Date:              ev.FormattedDate,
		Time:              ev.FormattedTime,
		Category:          ev.Category.Category,
		Tags:              ev.Category.Tags,
		Visuals:           ev.Visuals,
		IsTomorrow:        ev.IsTomorrow,
		IsThisWeek:        ev.IsThisWeek,
		IsLongRunning:     ev.IsLongRunning,
		IsPresenceOverlap: ev.IsPresenceOverlap,
	}
}

func views(events []model.EnrichedEvent) []eventView {
	out := make([]eventView, 0, len(events))
	for _, ev := range events {
		out = append(out, view(ev))
	}
	return out
}
