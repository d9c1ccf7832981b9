package server

import (
	"sync"
	"time"

	"github.com/mcpulse/mcpulse/internal/config"
	"github.com/mcpulse/mcpulse/internal/geoip"
	"github.com/mcpulse/mcpulse/internal/models"
	"github.com/mcpulse/mcpulse/internal/storage"
)

// Server holds the dependencies, configuration, and runtime state required
// to handle HTTP requests and background server tracking.
type Server struct {
	// storage provides access to the persistent database layer for reading and writing server data.
	storage *storage.Repository

	// geoip provides functionality for resolving IP addresses to country codes.
	// It can be nil if the GeoIP database is not initialized.
	geoip *geoip.Provider

	// queue is a buffered channel used to pass tracking jobs from HTTP handlers
	// to background workers for asynchronous processing.
	queue chan trackJob

	// shutdown is a signal channel used to broadcast a stop signal to all background workers
	// during a graceful shutdown.
	shutdown chan struct{}

	// seenCache is a thread-safe map keyed by xxhash digests of "ip:port",
	// tracking recently refreshed servers. It supports the "soft rate limit"
	// logic to reduce unnecessary UDP queries and database writes.
	seenCache sync.Map

	// authToken is the secret token required to access administrative API endpoints.
	authToken string

	// expectedCT expected Content-Type header
	expectedCT string

	// queryOptions holds configuration settings for querying Minecraft servers (timeout, buffer size).
	queryOptions config.Query

	// wg is used to wait for all background workers to finish processing
	// before the server shuts down completely.
	wg sync.WaitGroup

	// maxBody specifies the maximum allowed size (in bytes) for incoming HTTP request bodies.
	maxBody int64

	// hardLimitCount is the maximum number of requests allowed per IP address
	// within the hardLimitWin duration.
	hardLimitCount int

	// hardLimitWin is the time window duration for the hard rate limiter.
	hardLimitWin time.Duration

	// softLimitDur is the duration for which a server refresh is skipped
	// if the server was recently queried.
	softLimitDur time.Duration

	// trustProxy indicates whether the server should trust headers like X-Forwarded-For
	// when determining the client's real IP address.
	trustProxy bool
}

// trackJob represents a unit of work to be processed by background workers.
type trackJob struct {
	// IP is the resolved address of the Minecraft server to query.
	IP string

	// Req contains the deserialized payload from the incoming HTTP request.
	Req models.TrackRequest
}
