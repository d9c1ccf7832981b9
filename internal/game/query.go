// Package game provides functionality to query Minecraft servers using the Query UDP protocol.
package game

import (
	"strings"

	"github.com/mcpulse/mcpulse/internal/config"
	"github.com/mcpulse/mcpulse/pkg/query"
)

// QueryServer connects to a Minecraft server via UDP and requests a full stat.
// It returns server details (such as motd, map, players) or an error if the server is unreachable.
func QueryServer(ip string, port int, options config.Query) (*query.FullStat, error) {
	client, err := query.New(ip, port)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	client.BufferSize = options.BufferSize
	client.Timeout = options.Timeout

	return client.Query()
}

// JoinPlayers flattens a player list for single-column persistence.
func JoinPlayers(players []string) string {
	return strings.Join(players, ", ")
}
