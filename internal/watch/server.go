package watch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/logfields"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/metrics"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/version"
	"github.com/LinhMuks-DFox/Smart-Latex/internal/watch/events"
)

// StatusServer exposes the watch daemon over HTTP: health, last build
// status, Prometheus metrics, and an SSE stream of build completions.
type StatusServer struct {
	addr string
	hub  *EventHub
	reg  *prom.Registry

	running func() bool

	mu   sync.RWMutex
	last *events.BuildCompleted

	srv *http.Server
}

func NewStatusServer(addr string, reg *prom.Registry, running func() bool) *StatusServer {
	if running == nil {
		running = func() bool { return false }
	}
	return &StatusServer{
		addr:    addr,
		hub:     NewEventHub(),
		reg:     reg,
		running: running,
	}
}

// Consume subscribes to build completions and feeds both the status snapshot
// and the SSE hub until ctx is canceled.
func (s *StatusServer) Consume(ctx context.Context, bus *events.Bus) {
	ch, unsubscribe := events.Subscribe[events.BuildCompleted](bus, 8)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			s.mu.Lock()
			s.last = &evt
			s.mu.Unlock()

			if payload, err := json.Marshal(statusPayload(&evt)); err == nil {
				s.hub.Broadcast(string(payload))
			}
		}
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *StatusServer) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/events", s.hub)
	if s.reg != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.reg))
	}

	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("status server listening", slog.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.hub.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("status server shutdown", logfields.Error(err))
		}
		return nil
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	}
}

func (s *StatusServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	resp := map[string]any{
		"version":       version.Version,
		"build_running": s.running(),
		"last_build":    nil,
	}
	if last != nil {
		resp["last_build"] = statusPayload(last)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// statusPayload is the wire shape shared by /status and the SSE stream.
func statusPayload(evt *events.BuildCompleted) map[string]any {
	return map[string]any{
		"build_id":    evt.BuildID,
		"outcome":     evt.Outcome,
		"entry":       evt.Entry,
		"artifact":    evt.Artifact,
		"errors":      evt.ErrorCount,
		"warnings":    evt.WarningCount,
		"duration_ms": evt.Duration.Milliseconds(),
		"finished_at": evt.FinishedAt.Format(time.RFC3339),
	}
}
