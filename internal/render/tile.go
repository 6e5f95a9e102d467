// Package render draws tile data as PNG heatmaps using fogleman/gg.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"math"
	"sync"

	"github.com/fogleman/gg"

	"github.com/genotiles/server/internal/tileset"
	"github.com/genotiles/server/pkg/colormap"
)

// Config contains renderer configuration.
type Config struct {
	ImageSize       int
	DefaultColormap string
}

// TileRenderer renders dense tile values into PNG images.
type TileRenderer struct {
	config      Config
	fallback    colormap.Colormap
	contextPool sync.Pool
	bufferPool  sync.Pool
}

// NewTileRenderer creates a new tile renderer. An unknown default colormap
// is an error.
func NewTileRenderer(cfg Config) (*TileRenderer, error) {
	if cfg.ImageSize <= 0 {
		cfg.ImageSize = 256
	}
	if cfg.DefaultColormap == "" {
		cfg.DefaultColormap = "fall"
	}
	fallback, ok := colormap.Lookup(cfg.DefaultColormap)
	if !ok {
		return nil, fmt.Errorf("unknown colormap %q", cfg.DefaultColormap)
	}

	return &TileRenderer{
		config:   cfg,
		fallback: fallback,
		contextPool: sync.Pool{
			New: func() interface{} {
				return gg.NewContext(cfg.ImageSize, cfg.ImageSize)
			},
		},
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 32*1024))
			},
		},
	}, nil
}

// RenderHeatmap draws data as a heatmap. dims is the tileset's
// dimensionality: 1-D tiles are drawn as a single row and 2-D tiles as a
// square matrix. With dims 0 a perfect-square number of values is taken to
// be a matrix. Values are scaled between the tile's min/max (or the
// observed range) and NaNs are left transparent. An empty colormapName
// selects the default.
func (r *TileRenderer) RenderHeatmap(data tileset.TileData, dims int, colormapName string) ([]byte, error) {
	cmap := r.fallback
	if colormapName != "" {
		c, ok := colormap.Lookup(colormapName)
		if !ok {
			return nil, fmt.Errorf("unknown colormap %q", colormapName)
		}
		cmap = c
	}

	dc := r.contextPool.Get().(*gg.Context)
	defer r.contextPool.Put(dc)

	dc.SetColor(color.Transparent)
	dc.Clear()

	if len(data.Dense) == 0 {
		return r.encodeContext(dc)
	}

	lo, hi, ok := valueRange(data)
	if !ok {
		return r.encodeContext(dc)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	cols, rows := layout(len(data.Dense), dims)
	size := float64(r.config.ImageSize)
	cellW := size / float64(cols)
	cellH := size / float64(rows)

	for i, v := range data.Dense {
		if math.IsNaN(v) {
			continue
		}
		x := float64(i%cols) * cellW
		y := float64(i/cols) * cellH

		dc.SetColor(cmap.At((v - lo) / span))
		dc.DrawRectangle(x, y, cellW, cellH)
		dc.Fill()
	}

	return r.encodeContext(dc)
}

func (r *TileRenderer) encodeContext(dc *gg.Context) ([]byte, error) {
	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, dc.Image()); err != nil {
		return nil, err
	}

	// The buffer is reused, so hand out a copy.
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

func valueRange(data tileset.TileData) (float64, float64, bool) {
	lo, hi, ok := tileset.DenseRange(data.Dense)
	if data.MinValue != nil {
		lo, ok = *data.MinValue, true
	}
	if data.MaxValue != nil {
		hi = *data.MaxValue
	}
	return lo, hi, ok
}

func layout(n, dims int) (cols, rows int) {
	if dims == 1 {
		return n, 1
	}
	side := int(math.Sqrt(float64(n)))
	if side*side == n {
		return side, side
	}
	return n, 1
}
