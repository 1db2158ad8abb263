package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"mamacal/internal/config"
	"mamacal/internal/export"
	"mamacal/internal/ghsync"
	applog "mamacal/internal/log"
	"mamacal/internal/model"
	"mamacal/internal/progress"
	"mamacal/internal/store"
)

// Loader reloads the event list from its source. Satisfied by
// *source.Loader.
type Loader interface {
	Load(ctx context.Context) ([]model.Event, error)
}

// Syncer pushes a store snapshot to the remote file store. Satisfied
// by *ghsync.Client.
type Syncer interface {
	Sync(ctx context.Context, events []model.Event, cfg config.GitHubConfig) error
}

// Server provides the JSON API the calendar UI reads, plus settings
// write-through and the sync/refresh triggers.
type Server struct {
	cfgPath string
	store   *store.Store
	loader  Loader
	syncer  Syncer
	mux     *http.ServeMux

	// cfg is mutated by PUT /api/settings; handlers run concurrently.
	cfgMu sync.RWMutex
	cfg   *config.Config

	// syncing gates POST /api/sync. A second trigger while one is in
	// flight gets 409; triggers are never queued.
	syncMu  sync.Mutex
	syncing bool
}

// NewServer constructs a Server.
func NewServer(cfg *config.Config, cfgPath string, st *store.Store, loader Loader, syncer Syncer) *Server {
	s := &Server{
		cfgPath: cfgPath,
		cfg:     cfg,
		store:   st,
		loader:  loader,
		syncer:  syncer,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler, wrapped with basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		applog.Info("HTTP basic auth enabled")
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("POST /api/events", s.handleAddEvent)
	s.mux.HandleFunc("GET /api/upcoming", s.handleUpcoming)
	s.mux.HandleFunc("GET /api/progress", s.handleProgress)
	s.mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.mux.HandleFunc("PUT /api/settings", s.handlePutSettings)
	s.mux.HandleFunc("POST /api/sync", s.handleSync)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type eventsResponse struct {
	Events []model.Event            `json:"events"`
	ByDate map[string][]model.Event `json:"byDate"`
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, eventsResponse{
		Events: s.store.Snapshot(),
		ByDate: s.store.ByDate(),
	})
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var raw model.Record
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ev, err := s.store.Add(raw)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	applog.Info("event added", "date", ev.Date, "title", ev.Title)
	writeJSON(w, http.StatusCreated, ev)
}

type upcomingResponse struct {
	Upcoming    []model.Event `json:"upcoming"`
	Top         []model.Event `json:"top"`
	Ultrasounds []model.Event `json:"ultrasounds"`
}

func (s *Server) handleUpcoming(w http.ResponseWriter, _ *http.Request) {
	now := time.Now()
	writeJSON(w, http.StatusOK, upcomingResponse{
		Upcoming:    s.store.Upcoming(now, store.UpcomingLimit),
		Top:         s.store.Top(now),
		Ultrasounds: s.store.FilterType("ultrasound", 2),
	})
}

type progressResponse struct {
	progress.Snapshot
	WeekSchedule []progress.WeekMark `json:"weekSchedule"`
}

func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	s.cfgMu.RLock()
	lmp := s.cfg.LMP
	s.cfgMu.RUnlock()

	ref, err := time.ParseInLocation(model.DateLayout, lmp, time.Local)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "reference date (lmp) is not configured")
		return
	}

	snap := progress.Compute(ref, time.Now())
	marks, err := progress.WeekSchedule(ref, progress.DefaultScheduleWeeks)
	if err != nil {
		applog.Error("week schedule failed", err, "lmp", lmp)
		marks = nil
	}

	writeJSON(w, http.StatusOK, progressResponse{Snapshot: snap, WeekSchedule: marks})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	s.cfgMu.RLock()
	out := *s.cfg
	s.cfgMu.RUnlock()

	// Never echo the credential back to the UI.
	if out.GitHub.Token != "" {
		out.GitHub.Token = "********"
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePutSettings replaces the mutable settings and persists them
// immediately (write-through). A redacted token in the payload keeps
// the stored one.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var in config.Config
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.cfgMu.Lock()
	if in.GitHub.Token == "" || in.GitHub.Token == "********" {
		in.GitHub.Token = s.cfg.GitHub.Token
	}
	in.Listen = s.cfg.Listen // listen address is not editable at runtime
	in.Normalize()
	*s.cfg = in
	err := s.cfg.Save(s.cfgPath)
	s.cfgMu.Unlock()

	if err != nil {
		applog.Error("settings save failed", err, "path", s.cfgPath)
		writeError(w, http.StatusInternalServerError, "failed to persist settings")
		return
	}

	applog.Info("settings updated", "path", s.cfgPath)
	s.handleGetSettings(w, r)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	s.syncMu.Lock()
	if s.syncing {
		s.syncMu.Unlock()
		writeError(w, http.StatusConflict, "a sync is already in flight")
		return
	}
	s.syncing = true
	s.syncMu.Unlock()

	defer func() {
		s.syncMu.Lock()
		s.syncing = false
		s.syncMu.Unlock()
	}()

	s.cfgMu.RLock()
	gh := s.cfg.GitHub
	s.cfgMu.RUnlock()

	err := s.syncer.Sync(r.Context(), s.store.Snapshot(), gh)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
	case errors.Is(err, ghsync.ErrMissingSettings):
		writeError(w, http.StatusUnprocessableEntity, "owner, repo and token must be configured")
	default:
		applog.Error("sync failed", err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	events, err := s.loader.Load(r.Context())
	if err != nil {
		applog.Error("refresh failed", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.store.ReplaceAll(events)
	writeJSON(w, http.StatusOK, map[string]int{"count": len(events)})
}

func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(export.ICS(s.store.Snapshot(), time.Now())))
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="mamacal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.Error("response encode failed", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
