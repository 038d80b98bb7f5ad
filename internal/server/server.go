// Package server exposes the aggregation query surface over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sonatalab/sonata/internal/session"
	"github.com/sonatalab/sonata/internal/store"
)

// Server serves read-only stats queries. Every response is derived on the
// fly from the stored session set; nothing is cached, so results can never
// diverge from the source records. Absent dates and months yield
// zero-valued stats, never errors.
type Server struct {
	store          *store.Store
	loc            *time.Location
	groupingGapSec float64
	log            *log.Logger
}

// New builds a Server. loc fixes which timezone a practice day spans.
func New(st *store.Store, loc *time.Location, groupingGapSec float64, logger *log.Logger) *Server {
	if loc == nil {
		loc = time.Local
	}
	return &Server{store: st, loc: loc, groupingGapSec: groupingGapSec, log: logger}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/api/stats", s.handleDailyStat)
	r.Get("/api/sessions", s.handleSessions)
	r.Get("/api/month_stats", s.handleMonthStats)
	return r
}

// monthStatsResponse drives the calendar heatmap: the report plus a
// date → active-seconds map. Intensity bucketing is presentation-layer
// work and stays in the client.
type monthStatsResponse struct {
	Report   session.MonthlyReport `json:"report"`
	DailyMap map[string]float64    `json:"daily_map"`
}

func (s *Server) handleDailyStat(w http.ResponseWriter, r *http.Request) {
	date, ok := s.queryDate(w, r)
	if !ok {
		return
	}
	sessions, err := s.store.ListDay(r.Context(), date)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, session.Daily(date, sessions))
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	date, ok := s.queryDate(w, r)
	if !ok {
		return
	}
	sessions, err := s.store.ListDay(r.Context(), date)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	groups := session.GroupSessions(sessions, s.groupingGapSec)
	if groups == nil {
		groups = []session.Group{}
	}
	s.writeJSON(w, groups)
}

func (s *Server) handleMonthStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(s.loc)
	year, ok := s.queryInt(w, r, "year", now.Year())
	if !ok {
		return
	}
	month, ok := s.queryInt(w, r, "month", int(now.Month()))
	if !ok {
		return
	}
	if month < 1 || month > 12 {
		http.Error(w, "month must be 1-12", http.StatusBadRequest)
		return
	}

	sessions, err := s.store.ListMonth(r.Context(), year, time.Month(month), s.loc)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	report, dailyMap := session.Monthly(sessions, s.loc)
	s.writeJSON(w, monthStatsResponse{Report: report, DailyMap: dailyMap})
}

// queryDate parses the optional date parameter, defaulting to today in the
// configured timezone. Reports 400 and returns false on a malformed value.
func (s *Server) queryDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		now := time.Now().In(s.loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc), true
	}
	date, err := time.ParseInLocation(session.DateLayout, raw, s.loc)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, false
	}
	return date, true
}

func (s *Server) queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, name+" must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding response", "err", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("query failed", "path", r.URL.Path, "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// ListenAndServe runs the HTTP server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.log.Info("query API listening", "addr", addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
