package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/mcpulse/mcpulse/internal/game"
	"github.com/mcpulse/mcpulse/internal/models"
	"github.com/rs/zerolog/log"
)

// handleTrack processes incoming tracking requests.
// It validates the payload, checks rate limits (soft), and queues the request
// for asynchronous processing so the UDP query never blocks the client.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	// Real IP
	ip := GetRealIP(r, s.trustProxy)

	// Content-Type Validation
	ct := r.Header.Get("Content-Type")
	if s.expectedCT != "" && !strings.HasPrefix(ct, s.expectedCT) {
		log.Debug().
			Str("content_type", ct).
			Str("expected", s.expectedCT).
			Msg("Invalid Content-Type")

		respondOK(w, "not accounted")
		return
	}

	// Max body limit size
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	// Decode body payload
	var req models.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debug().
			Err(err).
			Str("ip", ip).
			Msg("Invalid JSON")

		respondOK(w, "not accounted")
		return
	}

	// Port check
	if req.Port < 0 || req.Port > 65535 {
		log.Debug().
			Str("ip", ip).
			Int("port", req.Port).
			Msg("Invalid port")

		respondOK(w, "not accounted")
		return
	}
	if req.Port == 0 {
		req.Port = 25565
	}

	// Explicit target address wins over the requester address
	target := ip
	if req.IP != "" {
		if net.ParseIP(req.IP) == nil {
			log.Debug().
				Str("ip", ip).
				Str("target", req.IP).
				Msg("Invalid target address")

			respondOK(w, "not accounted")
			return
		}
		target = req.IP
	}

	// Soft Limit
	softKey := xxhash.Sum64String(fmt.Sprintf("%s:%d", target, req.Port))
	if val, ok := s.seenCache.Load(softKey); ok {
		if lastSeen, ok := val.(time.Time); ok {
			if time.Since(lastSeen) < s.softLimitDur {
				log.Trace().
					Str("ip", target).
					Int("port", req.Port).
					Msg("Dropped by soft limit hit")

				respondOK(w, "ok")
				return
			}
		}
	}
	s.seenCache.Store(softKey, time.Now())

	// Send to queue
	select {
	case s.queue <- trackJob{Req: req, IP: target}:
		log.Trace().
			Str("ip", target).
			Int("port", req.Port).
			Msg("Success added")

		respondOK(w, "successfully accounted")
	default:
		log.Warn().
			Str("ip", target).
			Int("port", req.Port).
			Msg("Queue full, tracking request dropped")

		respondOK(w, "not accounted")
	}
}

// worker is a background goroutine that processes jobs from the tracking queue.
func (s *Server) worker() {
	defer s.wg.Done()

	for job := range s.queue {
		s.processJob(job)
	}
}

// respondOK writes a standard text/plain response with a 200 status, so probes
// cannot distinguish accepted from rejected submissions.
func respondOK(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, status)
}

// processJob executes the logic for a single tracking request.
// It queries the Minecraft server, resolves the country (GeoIP), and upserts the data to the storage.
func (s *Server) processJob(job trackJob) {
	queryIP := job.IP
	if queryIP == "::1" {
		queryIP = "127.0.0.1"
	}

	var (
		motd        string
		gameType    string
		gameID      string
		version     string
		mapName     string
		plugins     string
		playerNames string
		players     int
		maxPlayers  int
		answered    bool
	)

	stat, err := game.QueryServer(queryIP, job.Req.Port, s.queryOptions)
	if err != nil {
		log.Debug().
			Err(err).
			Str("ip", queryIP).
			Int("port", job.Req.Port).
			Msg("Query failed")
	} else {
		motd = stat.Hostname
		gameType = stat.GameType
		gameID = stat.GameID
		version = stat.Version
		mapName = stat.Map
		plugins = stat.Plugins
		playerNames = game.JoinPlayers(stat.Players)
		players = int(stat.NumPlayers)
		maxPlayers = int(stat.MaxPlayers)
		answered = true
	}

	// GeoIP
	var country string
	if s.geoip != nil {
		country = s.geoip.GetCountryCode(queryIP)
	}

	// Model prepare
	server := models.Server{
		IP:          queryIP,
		Port:        job.Req.Port,
		CountryCode: country,

		// Query data (can be empty when the server did not answer)
		MOTD:        motd,
		GameType:    gameType,
		GameID:      gameID,
		Version:     version,
		MapName:     mapName,
		Plugins:     plugins,
		PlayerNames: playerNames,
		Players:     players,
		MaxPlayers:  maxPlayers,

		FirstSeen: time.Now(),
		LastSeen:  time.Now(),
	}

	// Write to DB
	if err := s.storage.UpsertServer(server); err != nil {
		log.Error().Err(err).Msg("Failed to save server to DB")
		return
	}

	log.Debug().
		Str("ip", server.IP).
		Bool("answered", answered).
		Msg("Server tracked")
}
