// Package storage handles database connections, schema migrations, and data operations using SQLite.
package storage

import (
	"database/sql"
	"time"

	"github.com/mcpulse/mcpulse/internal/models"
	_ "modernc.org/sqlite" // Driver sqlite
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters, and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// UpsertServer inserts a new server or updates an existing one based on the IP and Port constraint.
// Query-derived fields are only refreshed when the latest query actually answered (motd non-empty).
func (r *Repository) UpsertServer(s models.Server) error {
	query := `
	INSERT INTO servers (
		ip, port, country_code,
		motd, game_type, game_id, version, map_name, plugins, player_names, players, max_players,
		count, first_seen, last_seen
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	ON CONFLICT(ip, port) DO UPDATE SET
		count = count + 1,
		last_seen = excluded.last_seen,

		-- Update country if resolved and not blank
		country_code = CASE WHEN excluded.country_code != '' THEN excluded.country_code ELSE servers.country_code END,

		-- Update query fields only if the server answered
		motd         = CASE WHEN excluded.motd != '' THEN excluded.motd ELSE servers.motd END,
		game_type    = CASE WHEN excluded.motd != '' THEN excluded.game_type ELSE servers.game_type END,
		game_id      = CASE WHEN excluded.motd != '' THEN excluded.game_id ELSE servers.game_id END,
		version      = CASE WHEN excluded.motd != '' THEN excluded.version ELSE servers.version END,
		map_name     = CASE WHEN excluded.motd != '' THEN excluded.map_name ELSE servers.map_name END,
		plugins      = CASE WHEN excluded.motd != '' THEN excluded.plugins ELSE servers.plugins END,
		player_names = CASE WHEN excluded.motd != '' THEN excluded.player_names ELSE servers.player_names END,
		players      = CASE WHEN excluded.motd != '' THEN excluded.players ELSE servers.players END,
		max_players  = CASE WHEN excluded.motd != '' THEN excluded.max_players ELSE servers.max_players END;
	`

	_, err := r.db.Exec(query,
		s.IP, s.Port, s.CountryCode,
		s.MOTD, s.GameType, s.GameID, s.Version, s.MapName, s.Plugins, s.PlayerNames, s.Players, s.MaxPlayers,
		s.FirstSeen, s.LastSeen,
	)

	return err
}

const serverColumns = `
	ip, port, country_code,
	motd, game_type, game_id, version, map_name, plugins, player_names, players, max_players,
	count, first_seen, last_seen
`

// scanServer reads one row in serverColumns order.
func scanServer(row interface{ Scan(...any) error }) (models.Server, error) {
	var s models.Server
	err := row.Scan(
		&s.IP, &s.Port, &s.CountryCode,
		&s.MOTD, &s.GameType, &s.GameID, &s.Version, &s.MapName, &s.Plugins, &s.PlayerNames, &s.Players, &s.MaxPlayers,
		&s.Count, &s.FirstSeen, &s.LastSeen,
	)

	return s, err
}

// GetServers retrieves all tracked servers, sorted by the last seen timestamp in descending order.
func (r *Repository) GetServers() ([]models.Server, error) {
	rows, err := r.db.Query(`SELECT ` + serverColumns + ` FROM servers ORDER BY last_seen DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var servers []models.Server
	for rows.Next() {
		s, err := scanServer(rows)
		if err != nil {
			continue
		}
		servers = append(servers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return servers, nil
}

// GetServer retrieves a specific server by its unique identifier (IP, Port).
func (r *Repository) GetServer(ip string, port int) (*models.Server, error) {
	row := r.db.QueryRow(`SELECT `+serverColumns+` FROM servers WHERE ip = ? AND port = ?`, ip, port)

	s, err := scanServer(row)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// DeleteEmptyServers removes records that never answered a query (motd is empty).
func (r *Repository) DeleteEmptyServers() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM servers WHERE (motd IS NULL OR motd = '')`)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// DeleteServer removes a specific server identified by ip and port.
func (r *Repository) DeleteServer(ip string, port int) error {
	_, err := r.db.Exec(`DELETE FROM servers WHERE ip = ? AND port = ?`, ip, port)
	return err
}

// GetServersSubset retrieves servers for maintenance.
// If onlyEmpty is true, it returns only servers that never answered a query.
func (r *Repository) GetServersSubset(onlyEmpty bool) ([]models.Server, error) {
	query := `SELECT ` + serverColumns + ` FROM servers`
	if onlyEmpty {
		query += ` WHERE (motd IS NULL OR motd = '')`
	}

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var servers []models.Server
	for rows.Next() {
		s, err := scanServer(rows)
		if err != nil {
			continue
		}
		servers = append(servers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return servers, nil
}
