// Package models defines the data structures used for API requests and database persistence.
package models

import "time"

// TrackRequest represents the payload sent to register a Minecraft server for tracking.
type TrackRequest struct {
	// IP of the server to track. Optional: when empty the requester address is used.
	IP   string `json:"ip,omitempty"`
	Port int    `json:"port"`
}

// Server represents a tracked Minecraft server stored in the database.
type Server struct {
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	IP          string    `json:"ip"`
	CountryCode string    `json:"country_code"`
	MOTD        string    `json:"motd"`
	GameType    string    `json:"game_type"`
	GameID      string    `json:"game_id"`
	Version     string    `json:"version"`
	MapName     string    `json:"map_name"`
	Plugins     string    `json:"plugins"`
	PlayerNames string    `json:"player_names"`
	Port        int       `json:"port"`
	Count       int64     `json:"count"`
	Players     int       `json:"players"`
	MaxPlayers  int       `json:"max_players"`
}
