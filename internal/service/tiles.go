package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/genotiles/server/internal/cache"
	"github.com/genotiles/server/internal/metrics"
	"github.com/genotiles/server/internal/tileset"
)

// Tiles returns data per tile id. Cached tiles are served directly; the
// rest are fetched from the repository in one batch. Bad ids produce
// per-item errors and never fail the batch.
func (s *TilesetService) Tiles(ctx context.Context, tileIDs []string) (map[string]tileset.Result[tileset.TileData], error) {
	out := make(map[string]tileset.Result[tileset.TileData], len(tileIDs))
	misses := make([]string, 0, len(tileIDs))
	seen := make(map[string]struct{}, len(tileIDs))

	for _, raw := range tileIDs {
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}

		if s.cache != nil {
			if id, err := tileset.ParseTileID(raw); err == nil {
				if data, ok := s.cache.GetTile(cache.TileKey(id)); ok {
					out[raw] = tileset.Ok(data)
					s.metrics.ObserveTile(metrics.OutcomeCache)
					continue
				}
			}
		}
		misses = append(misses, raw)
	}

	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := s.repo.GetTiles(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("fetching tiles: %w", err)
	}

	for _, raw := range misses {
		res, ok := fetched[raw]
		if !ok {
			res = tileset.Fail[tileset.TileData](fmt.Sprintf("tile %s not returned by repository", raw))
		}
		out[raw] = res

		if res.Failed() {
			s.metrics.ObserveTile(metrics.OutcomeError)
			s.log.Debug("tile error", zap.String("tile_id", raw), zap.String("error", res.Err))
			continue
		}
		s.metrics.ObserveTile(metrics.OutcomeOK)
		if s.cache != nil {
			id, _ := tileset.ParseTileID(raw)
			if err := s.cache.SetTile(cache.TileKey(id), res.Value); err != nil {
				s.log.Warn("failed to cache tile", zap.String("tile_id", raw), zap.Error(err))
			}
		}
	}
	return out, nil
}

// SingleTile is one tile together with the dimensionality of its tileset.
type SingleTile struct {
	Data tileset.TileData
	Dims int
}

// Tile returns a single tile. Unknown tilesets yield ErrNotFound; a
// malformed id or a zoom past max_zoom yields ErrInvalid.
func (s *TilesetService) Tile(ctx context.Context, tileID string) (SingleTile, error) {
	id, err := tileset.ParseTileID(tileID)
	if err != nil {
		if uuid, ok := tileset.TileUUID(tileID); ok {
			if _, found, lerr := s.repo.GetTileset(ctx, uuid); lerr == nil && !found {
				return SingleTile{}, fmt.Errorf("tileset not found for tile %s: %w", tileID, ErrNotFound)
			}
		}
		return SingleTile{}, fmt.Errorf("%v: %w", err, ErrInvalid)
	}

	_, found, err := s.repo.GetTileset(ctx, id.UUID)
	if err != nil {
		return SingleTile{}, fmt.Errorf("looking up tileset %s: %w", id.UUID, err)
	}
	if !found {
		return SingleTile{}, fmt.Errorf("tileset not found for tile %s: %w", tileID, ErrNotFound)
	}

	dims := 1
	if id.HasY {
		dims = 2
	}
	info, ok, err := s.repo.GetTilesetInfo(ctx, id.UUID)
	if err != nil {
		return SingleTile{}, fmt.Errorf("getting tileset info %s: %w", id.UUID, err)
	}
	if ok {
		if id.Zoom > info.MaxZoom {
			return SingleTile{}, fmt.Errorf("zoom level %d out of range for tile %s: %w", id.Zoom, tileID, ErrInvalid)
		}
		if d := info.Dimensions(); d > 0 {
			dims = d
		}
	}

	res, err := s.Tiles(ctx, []string{tileID})
	if err != nil {
		return SingleTile{}, err
	}
	item := res[tileID]
	if item.Failed() {
		return SingleTile{}, errors.New(item.Err)
	}
	return SingleTile{Data: item.Value, Dims: dims}, nil
}
