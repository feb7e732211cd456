package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"escaperoom/internal/engine"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const defaultEventLogSize = 64

// EventLog keeps the most recent engine events for the dev inspector.
type EventLog struct {
	mu     sync.Mutex
	size   int
	events []engine.Event
}

func NewEventLog(size int) *EventLog {
	if size <= 0 {
		size = defaultEventLogSize
	}
	return &EventLog{size: size}
}

func (l *EventLog) Record(ev engine.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	if over := len(l.events) - l.size; over > 0 {
		l.events = append([]engine.Event(nil), l.events[over:]...)
	}
}

// Recent returns the recorded events, oldest first.
func (l *EventLog) Recent() []engine.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]engine.Event(nil), l.events...)
}

// DevHandler serves the read-mostly inspector under /__dev.
func (a *App) DevHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(10 * time.Second))

	r.Route("/__dev", func(r chi.Router) {
		r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"ok":           true,
				"backend":      a.cfg.Storage.Backend,
				"has_progress": a.store.HasProgress(req.Context()),
			})
		})
		r.Get("/rooms", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"title": a.engine.Title(),
				"rooms": a.engine.Rooms(),
			})
		})
		r.Get("/progress", func(w http.ResponseWriter, req *http.Request) {
			p, ok := a.engine.GameState(req.Context())
			if !ok {
				writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "no progress"})
				return
			}
			writeJSON(w, http.StatusOK, p)
		})
		r.Get("/events", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, a.events.Recent())
		})
		r.Post("/start", func(w http.ResponseWriter, req *http.Request) {
			a.logger.Info("dev.start", nil)
			writeJSON(w, http.StatusOK, a.engine.StartGame(req.Context()))
		})
		r.Post("/demo", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Demo string `json:"demo"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid json"})
				return
			}
			body.Demo = strings.TrimSpace(body.Demo)
			if body.Demo == "" {
				writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "demo is required"})
				return
			}
			a.logger.Info("dev.demo.request", map[string]any{"demo": body.Demo})
			sc, err := a.demo.Apply(req.Context(), a.engine, body.Demo)
			if err != nil {
				a.logger.Error("dev.demo.apply_failed", map[string]any{"demo": body.Demo, "error": err})
				writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error(), "state": sc.Name})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "state": sc.Name, "requested": body.Demo})
		})
		r.Post("/reset", func(w http.ResponseWriter, req *http.Request) {
			a.logger.Info("dev.reset", nil)
			a.engine.ResetGame(req.Context())
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})
	})
	return r
}

// StartDevHTTP binds cfg.DevHTTP and serves DevHandler on it until Close.
// A failure to bind is returned to the caller.
func (a *App) StartDevHTTP() error {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	if a.devServer != nil {
		return errors.New("dev http already running")
	}
	ln, err := net.Listen("tcp", a.cfg.DevHTTP)
	if err != nil {
		a.logger.Error("dev_http.listen_failed", map[string]any{"error": err, "addr": a.cfg.DevHTTP})
		return fmt.Errorf("dev http listen %s: %w", a.cfg.DevHTTP, err)
	}
	a.devServer = &http.Server{
		Handler:           a.DevHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.devAddr = ln.Addr().String()
	srv := a.devServer
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("dev_http.serve_failed", map[string]any{"error": err, "addr": ln.Addr().String()})
		}
	}()
	a.logger.Info("dev_http.listening", map[string]any{"addr": a.devAddr})
	return nil
}

// DevAddr reports the address the dev inspector is bound to, or "" when it
// is not running.
func (a *App) DevAddr() string {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	return a.devAddr
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
