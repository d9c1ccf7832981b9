package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mcpulse/mcpulse/internal/game"
	"github.com/mcpulse/mcpulse/internal/models"
	"github.com/rs/zerolog/log"
)

// handleServers returns a JSON list of all tracked servers.
// This endpoint is protected by AdminAuthMiddleware.
func (s *Server) handleServers(w http.ResponseWriter, _ *http.Request) {
	servers, err := s.storage.GetServers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch servers")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if servers == nil {
		servers = []models.Server{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(servers)
}

// handleLiveQuery performs a live full stat query to a specific Minecraft server IP and port.
// It acts as a proxy to retrieve real-time server status.
// Query params: ?ip=1.2.3.4&port=25565
func (s *Server) handleLiveQuery(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")
	portStr := r.URL.Query().Get("port")

	if ip == "" || portStr == "" {
		http.Error(w, "Missing ip or port", http.StatusBadRequest)
		return
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return
	}

	// Execute full stat request
	stat, err := game.QueryServer(ip, port, s.queryOptions)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGatewayTimeout)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stat)
}

// handleGetServer returns details for a specific tracked server.
// Query params: ?ip=1.2.3.4&port=25565
func (s *Server) handleGetServer(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")
	portStr := r.URL.Query().Get("port")

	if ip == "" || portStr == "" {
		http.Error(w, "Missing required params (ip, port)", http.StatusBadRequest)
		return
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return
	}

	server, err := s.storage.GetServer(ip, port)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch server")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if server == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(server)
}

// handleDeleteServer removes a specific server from the database.
// Query params: ?ip=1.2.3.4&port=25565
func (s *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")
	portStr := r.URL.Query().Get("port")

	if ip == "" || portStr == "" {
		http.Error(w, "Missing required params (ip, port)", http.StatusBadRequest)
		return
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return
	}

	if err := s.storage.DeleteServer(ip, port); err != nil {
		log.Error().Err(err).
			Str("ip", ip).
			Int("port", port).
			Msg("Failed to delete server")

		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("ip", ip).
		Int("port", port).
		Msg("Server deleted manually")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "message": "Server deleted"})
}
