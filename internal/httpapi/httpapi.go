// Package httpapi is the HTTP decision surface: the read/write API a
// human (or a dashboard) uses to see what Council proposed, what Forge
// staged, and to merge, defer, or reject staged work.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/relayforge/conductor/internal/council"
	"github.com/relayforge/conductor/internal/history"
	"github.com/relayforge/conductor/internal/notifier"
	"github.com/relayforge/conductor/internal/staging"
)

// Server wires the decision-surface handlers to their backing stores.
type Server struct {
	Staging             *staging.Store
	Notifier            *notifier.Store
	History             *history.Store
	Council             *council.Council
	BriefPath           string
	ExecutionReportPath string

	startTime time.Time
}

// New returns a Server wired to the given stores and Council, recording
// its start time.
func New(stage *staging.Store, notif *notifier.Store, hist *history.Store, c *council.Council) *Server {
	return &Server{
		Staging:   stage,
		Notifier:  notif,
		History:   hist,
		Council:   c,
		startTime: time.Now(),
	}
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /morning-brief", s.handleMorningBrief)
	mux.HandleFunc("GET /staged-projects", s.handleStagedProjects)
	mux.HandleFunc("GET /project/{id}", s.handleProject)
	mux.HandleFunc("GET /project/{id}/diff", s.handleProjectDiff)
	mux.HandleFunc("GET /project/{id}/files", s.handleProjectFiles)
	mux.HandleFunc("POST /project/{id}/decision", s.handleProjectDecision)
	mux.HandleFunc("GET /rejected", s.handleRejected)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /council-stats", s.handleCouncilStats)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /notifications", s.handleListNotifications)
	mux.HandleFunc("POST /notifications", s.handleRecordNotification)
	mux.HandleFunc("POST /council/start", s.handleCouncilStart)
	mux.HandleFunc("GET /council/status", s.handleCouncilStatus)
	return mux
}

// Run starts the HTTP server on addr and blocks until ctx is
// cancelled, shutting down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("httpapi: shutdown error", "error", err)
		}
	}()

	slog.Info("httpapi: starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("httpapi: %w", err)
	}
	return nil
}
