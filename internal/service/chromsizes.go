package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/genotiles/server/internal/chromsizes"
)

// Chrom-sizes resolution sources, in lookup order.
const (
	SourceTileset  = "tileset"
	SourceAssembly = "assembly"
	SourceDefault  = "default"
	SourceCache    = "cache"
	SourceMissing  = "missing"
)

// ChromSizes resolves id to a chromosome size table:
//  1. a tileset whose uuid is id (its info must carry chromsizes);
//  2. the first tileset whose coordSystem is id (same rule);
//  3. the built-in table for assembly id.
//
// A matching tileset without chromsizes is terminal: later steps are not
// tried. ErrNotFound is returned when nothing resolves.
func (s *TilesetService) ChromSizes(ctx context.Context, id string) ([]chromsizes.Chrom, error) {
	if s.cache != nil {
		if chroms, ok := s.cache.GetChromSizes(id); ok {
			s.metrics.ObserveChromSizes(SourceCache)
			return chroms, nil
		}
	}

	chroms, source, err := s.resolveChromSizes(ctx, id)
	if err != nil {
		s.metrics.ObserveChromSizes(SourceMissing)
		return nil, err
	}
	s.metrics.ObserveChromSizes(source)
	s.log.Debug("resolved chromsizes",
		zap.String("id", id),
		zap.String("source", source),
		zap.Int("chroms", len(chroms)),
		zap.Int64("genome_length", chromsizes.Total(chroms)),
	)

	if s.cache != nil {
		s.cache.SetChromSizes(id, chroms)
	}
	return chroms, nil
}

func (s *TilesetService) resolveChromSizes(ctx context.Context, id string) ([]chromsizes.Chrom, string, error) {
	ts, ok, err := s.repo.GetTileset(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("looking up tileset %s: %w", id, err)
	}
	if ok {
		chroms, err := s.tilesetChromSizes(ctx, ts.UUID)
		return chroms, SourceTileset, err
	}

	matches, err := s.repo.TilesetsByCoordSystem(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("looking up coord system %s: %w", id, err)
	}
	if len(matches) > 0 {
		chroms, err := s.tilesetChromSizes(ctx, matches[0].UUID)
		return chroms, SourceAssembly, err
	}

	chroms, ok := chromsizes.Default(id)
	if !ok {
		return nil, "", fmt.Errorf("no chromosome sizes found for assembly %s (built-in: %s): %w",
			id, strings.Join(chromsizes.Assemblies(), ", "), ErrNotFound)
	}
	return chroms, SourceDefault, nil
}

func (s *TilesetService) tilesetChromSizes(ctx context.Context, uuid string) ([]chromsizes.Chrom, error) {
	info, ok, err := s.repo.GetTilesetInfo(ctx, uuid)
	if err != nil {
		return nil, fmt.Errorf("getting tileset info %s: %w", uuid, err)
	}
	if !ok || len(info.Chromsizes) == 0 {
		return nil, fmt.Errorf("no chromosome sizes available for tileset %s: %w", uuid, ErrNotFound)
	}
	return info.Chromsizes, nil
}
