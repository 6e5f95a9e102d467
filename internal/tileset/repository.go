package tileset

import "context"

// Repository is the read contract over registered tilesets. Lookups of
// missing entities report absence (ok=false) or a failed Result; the error
// return is reserved for backend failures.
type Repository interface {
	// ListTilesets returns one page of tilesets matching q and the total
	// number of matches before pagination.
	ListTilesets(ctx context.Context, q ListQuery) ([]Tileset, int, error)

	// GetTileset looks a tileset up by exact uuid.
	GetTileset(ctx context.Context, uuid string) (Tileset, bool, error)

	// TilesetsByCoordSystem returns every tileset whose coordSystem equals
	// coordSystem, in registration order.
	TilesetsByCoordSystem(ctx context.Context, coordSystem string) ([]Tileset, error)

	// GetTilesetInfo looks tiling metadata up by exact uuid.
	GetTilesetInfo(ctx context.Context, uuid string) (TilesetInfo, bool, error)

	// GetTilesetInfos resolves each uuid independently.
	GetTilesetInfos(ctx context.Context, uuids []string) (map[string]Result[TilesetInfo], error)

	// GetTiles resolves each tile id (uuid.zoom.x[.y]) independently.
	GetTiles(ctx context.Context, tileIDs []string) (map[string]Result[TileData], error)
}

// TileRequest is everything a TileSource needs to produce one tile.
type TileRequest struct {
	ID      TileID
	Tileset Tileset
	// Info is nil when the tileset has no registered info.
	Info *TilesetInfo
	// Resolution is the bin size selected for ID.Zoom, or 0 when the info
	// lists no resolutions.
	Resolution int64
}

// TileSource computes tile data. Implementations decode the tileset's
// datafile; they must be safe for concurrent use.
type TileSource interface {
	Tile(ctx context.Context, req TileRequest) (TileData, error)
}
