package database

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// MatchMapping links a source-platform track ID to the catalog track it was
// matched to, so repeat conversions skip the whole search.
type MatchMapping struct {
	CatalogID string
	SpotifyID string
	YoutubeID string
	Reason    string
}

// InitDatabase runs the embedded schema and sets performance PRAGMAs.
func InitDatabase(db *sql.DB) error {
	// WAL keeps registry writes from blocking concurrent match lookups
	_, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA cache_size=-2000;")
	if err != nil {
		return err
	}
	_, err = db.Exec(schema)
	return err
}

// UpsertMapping inserts or updates the registry. COALESCE keeps IDs already
// recorded from other platforms from being wiped.
func UpsertMapping(db *sql.DB, m MatchMapping) error {
	if db == nil {
		return nil
	}

	query := `
	INSERT INTO match_registry (catalog_id, spotify_id, youtube_id, reason, last_updated)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(catalog_id) DO UPDATE SET
		spotify_id = COALESCE(NULLIF(excluded.spotify_id, ''), match_registry.spotify_id),
		youtube_id = COALESCE(NULLIF(excluded.youtube_id, ''), match_registry.youtube_id),
		reason = COALESCE(NULLIF(excluded.reason, ''), match_registry.reason),
		last_updated = CURRENT_TIMESTAMP;`

	_, err := db.Exec(query, m.CatalogID, m.SpotifyID, m.YoutubeID, m.Reason)
	return err
}

// GetCatalogIDFromSource looks up a previously matched catalog ID by
// platform-specific source ID.
func GetCatalogIDFromSource(db *sql.DB, sourceType, sourceID string) (string, error) {
	if db == nil || sourceID == "" {
		return "", fmt.Errorf("invalid lookup")
	}

	var query string
	switch sourceType {
	case "spotify":
		query = "SELECT catalog_id FROM match_registry WHERE spotify_id = ?"
	case "youtube":
		query = "SELECT catalog_id FROM match_registry WHERE youtube_id = ?"
	default:
		return "", fmt.Errorf("unsupported source type: %s", sourceType)
	}

	var catalogID string
	err := db.QueryRow(query, sourceID).Scan(&catalogID)
	return catalogID, err
}
