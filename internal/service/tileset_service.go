// Package service provides the query logic between the HTTP API and the
// tileset repository.
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

// ErrNotFound is returned when a single requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalid is returned when a single requested resource is malformed or
// out of range.
var ErrInvalid = errors.New("invalid request")

// TilesetServiceConfig contains tileset service configuration.
type TilesetServiceConfig struct {
	Repository tileset.Repository
	// Cache is optional; without it every request reaches the repository.
	Cache   *cache.Manager
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// TilesetService answers tileset, tile and chrom-sizes queries.
type TilesetService struct {
	repo    tileset.Repository
	cache   *cache.Manager
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewTilesetService creates a new tileset service.
func NewTilesetService(cfg TilesetServiceConfig) *TilesetService {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &TilesetService{
		repo:    cfg.Repository,
		cache:   cfg.Cache,
		metrics: cfg.Metrics,
		log:     log,
	}
}

// Page is one page of a tileset listing. Next and Previous are always nil:
// link construction is not implemented.
type Page struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []tileset.Tileset `json:"results"`
}

// List returns one page of tilesets matching q.
func (s *TilesetService) List(ctx context.Context, q tileset.ListQuery) (Page, error) {
	items, total, err := s.repo.ListTilesets(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("listing tilesets: %w", err)
	}
	if items == nil {
		items = []tileset.Tileset{}
	}
	return Page{Count: total, Results: items}, nil
}

// AvailableChromSizes lists tilesets whose datatype is chromsizes.
func (s *TilesetService) AvailableChromSizes(ctx context.Context, page, pageSize int) (Page, error) {
	return s.List(ctx, tileset.ListQuery{
		Datatypes: []string{tileset.DatatypeChromsizes},
		Page:      page,
		PageSize:  pageSize,
	})
}

// Get returns one tileset, or ErrNotFound.
func (s *TilesetService) Get(ctx context.Context, uuid string) (tileset.Tileset, error) {
	ts, ok, err := s.repo.GetTileset(ctx, uuid)
	if err != nil {
		return tileset.Tileset{}, fmt.Errorf("getting tileset %s: %w", uuid, err)
	}
	if !ok {
		return tileset.Tileset{}, fmt.Errorf("tileset with uuid %s: %w", uuid, ErrNotFound)
	}
	return ts, nil
}

// Infos returns tileset info per uuid; unknown uuids yield per-item errors.
func (s *TilesetService) Infos(ctx context.Context, uuids []string) (map[string]tileset.Result[tileset.TilesetInfo], error) {
	infos, err := s.repo.GetTilesetInfos(ctx, uuids)
	if err != nil {
		return nil, fmt.Errorf("getting tileset infos: %w", err)
	}
	for _, res := range infos {
		if res.Failed() {
			s.metrics.ObserveTilesetInfo(metrics.OutcomeError)
		} else {
			s.metrics.ObserveTilesetInfo(metrics.OutcomeOK)
		}
	}
	return infos, nil
}
