// Package memory provides an in-memory tileset repository, loaded once at
// startup and read-only afterwards.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/genotiles/server/internal/tileset"
)

var _ tileset.Repository = (*Repository)(nil)

// DefaultMaxConcurrency bounds per-batch fan-out when Config leaves it unset.
const DefaultMaxConcurrency = 8

// Config contains repository configuration.
type Config struct {
	// Source computes tile data; defaults to tileset.PlaceholderSource.
	Source tileset.TileSource
	// MaxConcurrency bounds concurrent item fetches within one batch.
	MaxConcurrency int
}

// Repository holds tilesets and their infos. All methods are safe for
// concurrent use because nothing is mutated after New returns.
type Repository struct {
	order    []tileset.Tileset
	byUUID   map[string]int
	infos    map[string]tileset.TilesetInfo
	source   tileset.TileSource
	maxFetch int
}

// New builds a repository from records, keeping their order as the default
// listing order. Duplicate uuids and infos without a uuid are rejected.
func New(records []tileset.Record, cfg Config) (*Repository, error) {
	r := &Repository{
		order:    make([]tileset.Tileset, 0, len(records)),
		byUUID:   make(map[string]int, len(records)),
		infos:    make(map[string]tileset.TilesetInfo),
		source:   cfg.Source,
		maxFetch: cfg.MaxConcurrency,
	}
	if r.source == nil {
		r.source = tileset.PlaceholderSource{}
	}
	if r.maxFetch <= 0 {
		r.maxFetch = DefaultMaxConcurrency
	}

	for _, rec := range records {
		ts := rec.Tileset
		if ts.UUID == "" {
			return nil, errors.New("tileset without uuid")
		}
		if _, dup := r.byUUID[ts.UUID]; dup {
			return nil, fmt.Errorf("duplicate tileset uuid %q", ts.UUID)
		}
		r.byUUID[ts.UUID] = len(r.order)
		r.order = append(r.order, ts.Clone())
		if rec.Info != nil {
			info := rec.Info.Clone()
			if info.TileSize <= 0 {
				info.TileSize = tileset.DefaultTileSize
			}
			r.infos[ts.UUID] = info
		}
	}
	return r, nil
}

// Len returns the number of tilesets.
func (r *Repository) Len() int {
	return len(r.order)
}

// ListTilesets implements tileset.Repository.
func (r *Repository) ListTilesets(ctx context.Context, q tileset.ListQuery) ([]tileset.Tileset, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	items, total := q.Apply(r.order)
	return items, total, nil
}

// GetTileset implements tileset.Repository.
func (r *Repository) GetTileset(ctx context.Context, uuid string) (tileset.Tileset, bool, error) {
	idx, ok := r.byUUID[uuid]
	if !ok {
		return tileset.Tileset{}, false, nil
	}
	return r.order[idx].Clone(), true, nil
}

// TilesetsByCoordSystem implements tileset.Repository.
func (r *Repository) TilesetsByCoordSystem(ctx context.Context, coordSystem string) ([]tileset.Tileset, error) {
	var out []tileset.Tileset
	for _, ts := range r.order {
		if ts.CoordSystem == coordSystem {
			out = append(out, ts.Clone())
		}
	}
	return out, nil
}

// GetTilesetInfo implements tileset.Repository.
func (r *Repository) GetTilesetInfo(ctx context.Context, uuid string) (tileset.TilesetInfo, bool, error) {
	info, ok := r.infos[uuid]
	if !ok {
		return tileset.TilesetInfo{}, false, nil
	}
	return info.Clone(), true, nil
}

// GetTilesetInfos implements tileset.Repository.
func (r *Repository) GetTilesetInfos(ctx context.Context, uuids []string) (map[string]tileset.Result[tileset.TilesetInfo], error) {
	out := make(map[string]tileset.Result[tileset.TilesetInfo], len(uuids))
	for _, uuid := range uuids {
		if info, ok := r.infos[uuid]; ok {
			out[uuid] = tileset.Ok(info.Clone())
			continue
		}
		out[uuid] = tileset.Fail[tileset.TilesetInfo](fmt.Sprintf("tileset info not found for id %s", uuid))
	}
	return out, nil
}

// GetTiles implements tileset.Repository. Items are fetched concurrently;
// each id gets either data or its own error.
func (r *Repository) GetTiles(ctx context.Context, tileIDs []string) (map[string]tileset.Result[tileset.TileData], error) {
	var (
		mu  sync.Mutex
		out = make(map[string]tileset.Result[tileset.TileData], len(tileIDs))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxFetch)
	for _, id := range tileIDs {
		g.Go(func() error {
			res := r.tile(gctx, id)
			mu.Lock()
			out[id] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) tile(ctx context.Context, rawID string) tileset.Result[tileset.TileData] {
	id, err := tileset.ParseTileID(rawID)
	if err != nil {
		if uuid, ok := tileset.TileUUID(rawID); ok {
			if _, known := r.byUUID[uuid]; !known {
				return tileset.Fail[tileset.TileData](fmt.Sprintf("tileset not found for tile %s", rawID))
			}
		}
		return tileset.Fail[tileset.TileData](err.Error())
	}

	idx, ok := r.byUUID[id.UUID]
	if !ok {
		return tileset.Fail[tileset.TileData](fmt.Sprintf("tileset not found for tile %s", rawID))
	}

	req := tileset.TileRequest{ID: id, Tileset: r.order[idx].Clone()}
	if info, ok := r.infos[id.UUID]; ok {
		if id.Zoom > info.MaxZoom {
			return tileset.Fail[tileset.TileData](fmt.Sprintf("zoom level %d out of range for tile %s", id.Zoom, rawID))
		}
		info = info.Clone()
		req.Info = &info
		req.Resolution = tileset.ResolutionForZoom(&info, id.Zoom)
	}

	data, err := r.source.Tile(ctx, req)
	if err != nil {
		return tileset.Fail[tileset.TileData](fmt.Sprintf("fetching tile %s: %v", rawID, err))
	}
	return tileset.Ok(data)
}
