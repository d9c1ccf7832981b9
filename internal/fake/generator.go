// Package fake provides utilities for generating random server data for testing and development purposes.
package fake

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/mcpulse/mcpulse/internal/models"
	"github.com/mcpulse/mcpulse/internal/storage"
	"github.com/rs/zerolog/log"
)

// GenerateData populates the storage with a specified number of randomized server records.
// It simulates various worlds, versions, countries, and player counts.
func GenerateData(store *storage.Repository, count int) {
	motds := []string{"A Minecraft Server", "Survival 24/7", "Skyblock Reloaded", "Anarchy [no rules]", "Vanilla SMP"}
	maps := []string{"world", "world_nether", "lobby", "skyblock", "survival", "creative"}
	versions := []string{"1.7.10", "1.12.2", "1.16.5", "1.20.1", "1.21"}
	plugins := []string{"", "CraftBukkit on Bukkit 1.16.5-R0.1: Essentials; WorldEdit", "Paper: ViaVersion"}
	names := []string{"Dinnerbone", "jeb_", "Notch", "Grumm", "Herobrine", "alexbrine", "steve42"}

	// Countries list
	countriesHigh := []string{"US", "DE", "RU", "CN", "BR", "FR", "GB", "PL", "CZ", "KZ", "UA"}
	countriesMid := []string{"CA", "AU", "IT", "ES", "NL", "SE", "JP", "KR", "TR", "BE", "RO"}
	countriesLow := []string{"ZA", "AR", "MX", "IN", "ID", "VN", "CH", "NO", "FI", "DK", "PT"}

	// Cache for ip reuse
	type cachedIP struct {
		Address string
		Country string
	}
	var ipHistory []cachedIP

	for i := 0; i < count; i++ {
		// Random date-time in 30 days range
		daysAgo := rand.Intn(30)
		seenTime := time.Now().Add(-time.Duration(daysAgo) * 24 * time.Hour).
			Add(-time.Duration(rand.Intn(1440)) * time.Minute)

		var ip string
		var country string

		// 20% chance for reuse IP address
		if len(ipHistory) > 0 && rand.Float32() < 0.2 {
			cached := ipHistory[rand.Intn(len(ipHistory))]
			ip = cached.Address
			country = cached.Country
		} else {
			// Generate new IP
			ip = fmt.Sprintf("%d.%d.%d.%d", rand.Intn(220)+1, rand.Intn(255), rand.Intn(255), rand.Intn(255))

			// Select country
			roll := rand.Float32()
			switch {
			case roll < 0.70:
				country = countriesHigh[rand.Intn(len(countriesHigh))]
			case roll < 0.90:
				country = countriesMid[rand.Intn(len(countriesMid))]
			default:
				country = countriesLow[rand.Intn(len(countriesLow))]
			}

			ipHistory = append(ipHistory, cachedIP{Address: ip, Country: country})
		}

		maxPlayers := 20 * (1 + rand.Intn(5))
		players := rand.Intn(maxPlayers)
		online := names[:rand.Intn(len(names))]

		server := models.Server{
			IP:          ip,
			Port:        25565 + rand.Intn(100),
			CountryCode: country,
			MOTD:        fmt.Sprintf("%s #%d", motds[rand.Intn(len(motds))], rand.Intn(1000)),
			GameType:    "SMP",
			GameID:      "MINECRAFT",
			Version:     versions[rand.Intn(len(versions))],
			MapName:     maps[rand.Intn(len(maps))],
			Plugins:     plugins[rand.Intn(len(plugins))],
			PlayerNames: strings.Join(online, ", "),
			Players:     players,
			MaxPlayers:  maxPlayers,
			FirstSeen:   seenTime.Add(-time.Hour * 24 * 7),
			LastSeen:    seenTime,
		}

		err := store.UpsertServer(server)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake server")
		}

		if rand.Float32() < 0.3 { // 30% chance re-announce
			_ = store.UpsertServer(server)
			_ = store.UpsertServer(server)
		}
	}
}
