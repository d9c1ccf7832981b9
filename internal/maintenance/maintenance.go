// Package maintenance provide tools for clean and update database
package maintenance

import (
	"sync"
	"time"

	"github.com/mcpulse/mcpulse/internal/config"
	"github.com/mcpulse/mcpulse/internal/game"
	"github.com/mcpulse/mcpulse/internal/models"
	"github.com/mcpulse/mcpulse/internal/storage"
	"github.com/rs/zerolog/log"
)

// Run checks if any maintenance flags are set and executes the corresponding tasks.
// Returns true if a maintenance task was executed (indicating the program should exit).
func Run(cfg *config.Config, store *storage.Repository) bool {
	// Prune Empty
	if cfg.Storage.PruneEmpty {
		log.Info().Msg("Pruning servers that never answered...")

		count, err := store.DeleteEmptyServers()
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune servers")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}

		return true
	}

	var servers []models.Server
	var err error
	var taskName string

	switch {
	case cfg.Storage.CheckInactive:
		taskName = "Check Inactive"
		log.Info().Msg("Fetching inactive servers for check...")
		servers, err = store.GetServersSubset(true)
	case cfg.Storage.CheckAll:
		taskName = "Check All"
		log.Info().Msg("Fetching all servers for re-check...")
		servers, err = store.GetServersSubset(false)
	default:
		// No flags set
		return false
	}

	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch servers")
		return true
	}

	if len(servers) == 0 {
		log.Info().Msg("No servers found for maintenance")
		return true
	}

	log.Info().Int("count", len(servers)).Msgf("Starting '%s' task with 10 workers...", taskName)
	runWorkerPool(servers, store, cfg.Query)
	log.Info().Msg("Maintenance task completed")

	return true
}

func runWorkerPool(servers []models.Server, store *storage.Repository, queryOpts config.Query) {
	const workers = 10
	jobs := make(chan models.Server, len(servers))
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for server := range jobs {
				processServer(server, store, queryOpts)
			}
		}()
	}

	// Send jobs
	for _, s := range servers {
		jobs <- s
	}
	close(jobs)

	wg.Wait()
}

func processServer(server models.Server, store *storage.Repository, queryOpts config.Query) {
	logCtx := log.With().
		Str("ip", server.IP).
		Int("port", server.Port).
		Logger()

	// Port sanity check
	if server.Port <= 0 || server.Port > 65535 {
		logCtx.Debug().Msg("Invalid port, deleting server")
		if err := store.DeleteServer(server.IP, server.Port); err != nil {
			logCtx.Error().Err(err).Msg("Failed to delete invalid server")
		}
		return
	}

	// Full stat query
	stat, err := game.QueryServer(server.IP, server.Port, queryOpts)
	if err != nil {
		// Check failed -> Delete
		logCtx.Debug().Err(err).Msg("Server unreachable, deleting")
		if err := store.DeleteServer(server.IP, server.Port); err != nil {
			logCtx.Error().Err(err).Msg("Failed to delete unreachable server")
		}
		return
	}

	// Success -> Update
	server.MOTD = stat.Hostname
	server.GameType = stat.GameType
	server.GameID = stat.GameID
	server.Version = stat.Version
	server.MapName = stat.Map
	server.Plugins = stat.Plugins
	server.PlayerNames = game.JoinPlayers(stat.Players)
	server.Players = int(stat.NumPlayers)
	server.MaxPlayers = int(stat.MaxPlayers)
	server.LastSeen = time.Now()

	// UpsertServer handles the update logic
	if err := store.UpsertServer(server); err != nil {
		logCtx.Error().Err(err).Msg("Failed to update server")
	} else {
		logCtx.Trace().Msg("Server updated successfully")
	}
}
