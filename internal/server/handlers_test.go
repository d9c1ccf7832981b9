package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mcpulse/mcpulse/internal/config"
	"github.com/mcpulse/mcpulse/internal/models"
	"github.com/mcpulse/mcpulse/internal/storage"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{}
	cfg.Server.AuthToken = "secret"
	cfg.Server.MaxBodySize = 512
	cfg.Server.ContentType = "application/json"
	cfg.RateLimit.HardLimitCount = 100
	cfg.RateLimit.HardLimitWin = time.Minute
	cfg.RateLimit.SoftLimitDur = 5 * time.Minute
	cfg.Query.Timeout = time.Second
	cfg.Query.BufferSize = 1472

	s := New(store, nil, cfg)

	// Workers stay stopped: queued jobs are inspected, not processed.
	return s, s.Run()
}

func postTrack(handler http.Handler, body, contentType string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(body))
	r.RemoteAddr = "192.0.2.1:51234"
	r.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	return rec
}

func TestHandleTrack(t *testing.T) {
	t.Run("queues valid request", func(t *testing.T) {
		s, handler := newTestServer(t)

		rec := postTrack(handler, `{"ip":"203.0.113.10","port":25565}`, "application/json")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "successfully accounted", rec.Body.String())

		job := <-s.queue
		require.Equal(t, "203.0.113.10", job.IP)
		require.Equal(t, 25565, job.Req.Port)
	})

	t.Run("defaults to requester ip and standard port", func(t *testing.T) {
		s, handler := newTestServer(t)

		rec := postTrack(handler, `{}`, "application/json")
		require.Equal(t, "successfully accounted", rec.Body.String())

		job := <-s.queue
		require.Equal(t, "192.0.2.1", job.IP)
		require.Equal(t, 25565, job.Req.Port)
	})

	t.Run("rejects wrong content type", func(t *testing.T) {
		_, handler := newTestServer(t)

		rec := postTrack(handler, `{"port":25565}`, "text/plain")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "not accounted", rec.Body.String())
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		_, handler := newTestServer(t)

		rec := postTrack(handler, `{broken`, "application/json")
		require.Equal(t, "not accounted", rec.Body.String())
	})

	t.Run("rejects out of range port", func(t *testing.T) {
		_, handler := newTestServer(t)

		rec := postTrack(handler, `{"port":70000}`, "application/json")
		require.Equal(t, "not accounted", rec.Body.String())
	})

	t.Run("rejects malformed target ip", func(t *testing.T) {
		_, handler := newTestServer(t)

		rec := postTrack(handler, `{"ip":"not-an-ip","port":25565}`, "application/json")
		require.Equal(t, "not accounted", rec.Body.String())
	})

	t.Run("soft limit drops repeats", func(t *testing.T) {
		s, handler := newTestServer(t)

		rec := postTrack(handler, `{"ip":"203.0.113.10","port":25565}`, "application/json")
		require.Equal(t, "successfully accounted", rec.Body.String())
		<-s.queue

		rec = postTrack(handler, `{"ip":"203.0.113.10","port":25565}`, "application/json")
		require.Equal(t, "ok", rec.Body.String())
		require.Empty(t, s.queue)
	})
}

func TestHandleServers(t *testing.T) {
	s, handler := newTestServer(t)

	now := time.Now().UTC()
	require.NoError(t, s.storage.UpsertServer(models.Server{
		IP: "192.0.2.5", Port: 25565, MOTD: "A Minecraft Server",
		FirstSeen: now, LastSeen: now,
	}))

	t.Run("requires auth", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/servers", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("lists servers", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/servers", nil)
		r.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "A Minecraft Server")
	})
}

func TestHandleGetAndDeleteServer(t *testing.T) {
	s, handler := newTestServer(t)

	now := time.Now().UTC()
	require.NoError(t, s.storage.UpsertServer(models.Server{
		IP: "192.0.2.5", Port: 25565, MOTD: "srv", FirstSeen: now, LastSeen: now,
	}))

	get := func(method, url string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(method, url, nil)
		r.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		return rec
	}

	rec := get(http.MethodGet, "/api/server?ip=192.0.2.5&port=25565")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "srv")

	rec = get(http.MethodGet, "/api/server?ip=192.0.2.5&port=1")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(http.MethodGet, "/api/server?ip=192.0.2.5")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(http.MethodDelete, "/api/server?ip=192.0.2.5&port=25565")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(http.MethodGet, "/api/server?ip=192.0.2.5&port=25565")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
