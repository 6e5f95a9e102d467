// Package cache provides caching for tile payloads and chrom-sizes lookups.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/genotiles/server/internal/chromsizes"
	"github.com/genotiles/server/internal/tileset"
)

// Config contains cache configuration.
type Config struct {
	TileCacheSizeMB int
	TileTTL         time.Duration
	LookupCacheSize int
}

// Manager manages the tile and lookup caches. Tiles are stored as
// zstd-compressed JSON in bigcache; chrom-sizes resolutions live in an LRU.
type Manager struct {
	tileCache   *bigcache.BigCache
	lookupCache *lru.Cache[string, []chromsizes.Chrom]
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TileTTL <= 0 {
		cfg.TileTTL = 10 * time.Minute
	}
	if cfg.LookupCacheSize <= 0 {
		cfg.LookupCacheSize = 128
	}

	tileCacheConfig := bigcache.Config{
		Shards:             256,
		LifeWindow:         cfg.TileTTL,
		CleanWindow:        cfg.TileTTL / 2,
		MaxEntriesInWindow: 100000,
		MaxEntrySize:       64 * 1024,
		HardMaxCacheSize:   cfg.TileCacheSizeMB,
		Verbose:            false,
	}

	tileCache, err := bigcache.New(context.Background(), tileCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create tile cache: %w", err)
	}

	lookupCache, err := lru.New[string, []chromsizes.Chrom](cfg.LookupCacheSize)
	if err != nil {
		tileCache.Close()
		return nil, fmt.Errorf("failed to create lookup cache: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		tileCache.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		tileCache.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &Manager{
		tileCache:   tileCache,
		lookupCache: lookupCache,
		encoder:     encoder,
		decoder:     decoder,
	}, nil
}

// GetTile retrieves a tile from cache.
func (m *Manager) GetTile(key string) (tileset.TileData, bool) {
	compressed, err := m.tileCache.Get(key)
	if err != nil {
		return tileset.TileData{}, false
	}
	raw, err := m.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return tileset.TileData{}, false
	}
	var data tileset.TileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return tileset.TileData{}, false
	}
	return data, true
}

// SetTile stores a tile in cache.
func (m *Manager) SetTile(key string, data tileset.TileData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return m.tileCache.Set(key, m.encoder.EncodeAll(raw, nil))
}

// GetChromSizes retrieves a resolved chrom-sizes table.
func (m *Manager) GetChromSizes(id string) ([]chromsizes.Chrom, bool) {
	chroms, ok := m.lookupCache.Get(id)
	if !ok {
		return nil, false
	}
	return append([]chromsizes.Chrom(nil), chroms...), true
}

// SetChromSizes stores a resolved chrom-sizes table.
func (m *Manager) SetChromSizes(id string, chroms []chromsizes.Chrom) {
	m.lookupCache.Add(id, append([]chromsizes.Chrom(nil), chroms...))
}

// TileKey generates a cache key for a tile id.
func TileKey(id tileset.TileID) string {
	return "tile:" + id.String()
}

// Stats is a point-in-time snapshot of cache usage.
type Stats struct {
	TileEntries   int
	TileBytes     int
	TileHits      int64
	TileMisses    int64
	LookupEntries int
}

// Stats returns cache statistics.
func (m *Manager) Stats() Stats {
	stats := m.tileCache.Stats()
	return Stats{
		TileEntries:   m.tileCache.Len(),
		TileBytes:     m.tileCache.Capacity(),
		TileHits:      stats.Hits,
		TileMisses:    stats.Misses,
		LookupEntries: m.lookupCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	m.decoder.Close()
	m.encoder.Close()
	return m.tileCache.Close()
}
