// Package server implements the HTTP server, middleware, and request handlers for the application.
package server

import (
	"net/http"
	"time"

	"github.com/mcpulse/mcpulse/internal/config"
	"github.com/mcpulse/mcpulse/internal/geoip"
	"github.com/mcpulse/mcpulse/internal/storage"
)

// New creates a new Server instance with the provided storage, GeoIP provider, and configuration.
func New(store *storage.Repository, geo *geoip.Provider, cfg *config.Config) *Server {
	return &Server{
		storage:        store,
		geoip:          geo,
		queryOptions:   cfg.Query,
		authToken:      cfg.Server.AuthToken,
		maxBody:        cfg.Server.MaxBodySize,
		trustProxy:     cfg.Server.TrustProxy,
		hardLimitCount: cfg.RateLimit.HardLimitCount,
		hardLimitWin:   cfg.RateLimit.HardLimitWin,
		softLimitDur:   cfg.RateLimit.SoftLimitDur,
		expectedCT:     cfg.Server.ContentType,

		queue:    make(chan trackJob, 1000),
		shutdown: make(chan struct{}),
	}
}

// StartWorkers initializes the background worker pool for processing tracking jobs
// and the cache cleanup routine.
func (s *Server) StartWorkers() {
	workers := 10
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	// Clean soft-limit cache
	go s.gcSoftLimitCache()
}

// StopWorkers gracefully stops the background workers and closes the job queue.
func (s *Server) StopWorkers() {
	close(s.shutdown)
	close(s.queue)
	s.wg.Wait()
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/track", s.RateLimitMiddleware(http.HandlerFunc(s.handleTrack)))
	mux.Handle("GET /api/servers", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleServers)))
	mux.Handle("GET /api/query", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleLiveQuery)))
	mux.Handle("GET /api/server", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleGetServer)))
	mux.Handle("DELETE /api/server", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleDeleteServer)))

	return s.LoggingMiddleware(mux)
}

// gcSoftLimitCache periodically cleans up expired entries from the soft rate-limit cache.
func (s *Server) gcSoftLimitCache() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			now := time.Now()
			s.seenCache.Range(func(key, value interface{}) bool {
				if t, ok := value.(time.Time); ok {
					if now.Sub(t) > s.softLimitDur {
						s.seenCache.Delete(key)
					}
				} else {
					s.seenCache.Delete(key)
				}
				return true
			})
		}
	}
}
