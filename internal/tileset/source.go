package tileset

import (
	"context"
	"math"
	"sort"
)

// ResolutionForZoom picks the bin size used at zoom. Zoom 0 is the coarsest
// level, so resolutions are ordered largest first and zoom indexes into
// them; zooms past the finest level clamp to it.
func ResolutionForZoom(info *TilesetInfo, zoom int) int64 {
	if info == nil || len(info.Resolutions) == 0 || zoom < 0 {
		return 0
	}
	res := append([]int64(nil), info.Resolutions...)
	sort.Slice(res, func(i, j int) bool { return res[i] > res[j] })
	if zoom >= len(res) {
		zoom = len(res) - 1
	}
	return res[zoom]
}

// placeholderDense is a 4x4 tile returned until a real decoding engine is
// plugged in.
var placeholderDense = []float64{
	0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8,
	0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8,
}

// PlaceholderSource returns fixed placeholder data for every tile.
type PlaceholderSource struct{}

// Tile implements TileSource.
func (PlaceholderSource) Tile(ctx context.Context, req TileRequest) (TileData, error) {
	if err := ctx.Err(); err != nil {
		return TileData{}, err
	}
	minV, maxV := 0.0, 1.0
	return TileData{
		Dense:    append([]float64(nil), placeholderDense...),
		MinValue: &minV,
		MaxValue: &maxV,
	}, nil
}

// DenseRange returns the minimum and maximum of the non-NaN values, or
// ok=false when there are none.
func DenseRange(values []float64) (minV, maxV float64, ok bool) {
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if !ok || v < minV {
			minV = v
		}
		if !ok || v > maxV {
			maxV = v
		}
		ok = true
	}
	return minV, maxV, ok
}
