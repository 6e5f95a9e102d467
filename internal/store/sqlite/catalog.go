// Package sqlite provides a SQLite registration catalog of tilesets. The
// catalog is written by the ingest tool and read once at server startup.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/genotiles/server/internal/tileset"
)

// Catalog stores tileset registrations in SQLite.
type Catalog struct {
	db *sql.DB
	mu sync.Mutex
}

// NewCatalog opens (creating if needed) the catalog at dbPath.
func NewCatalog(dbPath string) (*Catalog, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for sqlite: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return c, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tilesets (
		uuid TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		filetype TEXT NOT NULL,
		datatype TEXT NOT NULL,
		coord_system TEXT DEFAULT '',
		tileset_json TEXT NOT NULL,
		info_json TEXT,
		registered_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tilesets_position ON tilesets(position);
	CREATE INDEX IF NOT EXISTS idx_tilesets_coord_system ON tilesets(coord_system);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Put registers or replaces a tileset. A replaced tileset keeps its
// listing position; new ones are appended.
func (c *Catalog) Put(ctx context.Context, rec tileset.Record) error {
	if rec.Tileset.UUID == "" {
		return fmt.Errorf("tileset without uuid")
	}
	tsJSON, err := json.Marshal(rec.Tileset)
	if err != nil {
		return fmt.Errorf("failed to marshal tileset: %w", err)
	}
	var infoJSON sql.NullString
	if rec.Info != nil {
		data, err := json.Marshal(rec.Info)
		if err != nil {
			return fmt.Errorf("failed to marshal tileset info: %w", err)
		}
		infoJSON = sql.NullString{String: string(data), Valid: true}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO tilesets (uuid, position, filetype, datatype, coord_system, tileset_json, info_json, registered_at)
		VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM tilesets), ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			filetype = excluded.filetype,
			datatype = excluded.datatype,
			coord_system = excluded.coord_system,
			tileset_json = excluded.tileset_json,
			info_json = excluded.info_json,
			registered_at = excluded.registered_at
	`, rec.Tileset.UUID, rec.Tileset.Filetype, rec.Tileset.Datatype, rec.Tileset.CoordSystem,
		string(tsJSON), infoJSON, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store tileset %s: %w", rec.Tileset.UUID, err)
	}
	return nil
}

// Delete removes a tileset. It reports whether a row was removed.
func (c *Catalog) Delete(ctx context.Context, uuid string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx, "DELETE FROM tilesets WHERE uuid = ?", uuid)
	if err != nil {
		return false, fmt.Errorf("failed to delete tileset %s: %w", uuid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Load returns every registration in listing order.
func (c *Catalog) Load(ctx context.Context) ([]tileset.Record, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT uuid, tileset_json, info_json FROM tilesets ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query tilesets: %w", err)
	}
	defer rows.Close()

	var records []tileset.Record
	for rows.Next() {
		var (
			id       string
			tsJSON   string
			infoJSON sql.NullString
			rec      tileset.Record
		)
		if err := rows.Scan(&id, &tsJSON, &infoJSON); err != nil {
			return nil, fmt.Errorf("failed to scan tileset: %w", err)
		}
		if err := json.Unmarshal([]byte(tsJSON), &rec.Tileset); err != nil {
			return nil, fmt.Errorf("failed to decode tileset %s: %w", id, err)
		}
		if infoJSON.Valid {
			var info tileset.TilesetInfo
			if err := json.Unmarshal([]byte(infoJSON.String), &info); err != nil {
				return nil, fmt.Errorf("failed to decode tileset info %s: %w", id, err)
			}
			rec.Info = &info
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
