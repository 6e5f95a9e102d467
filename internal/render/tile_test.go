package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/genotiles/server/internal/tileset"
	"github.com/genotiles/server/pkg/colormap"
)

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func TestRenderHeatmap_Square(t *testing.T) {
	r, err := NewTileRenderer(Config{ImageSize: 64})
	if err != nil {
		t.Fatal(err)
	}
	minV, maxV := 0.0, 1.0
	data := tileset.TileData{
		Dense:    []float64{0, 1, 1, 0},
		MinValue: &minV,
		MaxValue: &maxV,
	}

	out, err := r.RenderHeatmap(data, 2, "grays")
	if err != nil {
		t.Fatalf("RenderHeatmap: %v", err)
	}
	img := decode(t, out)
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Fatalf("unexpected bounds %v", b)
	}

	// 2x2 layout: top-left is 0 (white), top-right is 1 (black).
	if got := rgba(img.At(8, 8)); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("top-left = %#v, want white", got)
	}
	if got := rgba(img.At(56, 8)); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("top-right = %#v, want black", got)
	}
}

func TestRenderHeatmap_RowAndNaN(t *testing.T) {
	r, err := NewTileRenderer(Config{ImageSize: 30, DefaultColormap: "fall"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.RenderHeatmap(tileset.TileData{Dense: []float64{math.NaN(), 2, 4}}, 0, "")
	if err != nil {
		t.Fatalf("RenderHeatmap: %v", err)
	}
	img := decode(t, out)

	if _, _, _, a := img.At(5, 15).RGBA(); a != 0 {
		t.Errorf("NaN cell should be transparent, alpha=%d", a)
	}
	if got, want := rgba(img.At(25, 15)), rgba(colormap.Fall.At(1)); got != want {
		t.Errorf("max cell = %#v, want %#v", got, want)
	}
}

func TestRenderHeatmap_OneDimensionalSquareCount(t *testing.T) {
	r, err := NewTileRenderer(Config{ImageSize: 40})
	if err != nil {
		t.Fatal(err)
	}
	// Four values of a 1-D track form one row, not a 2x2 matrix.
	out, err := r.RenderHeatmap(tileset.TileData{Dense: []float64{0, 0, 0, 1}}, 1, "grays")
	if err != nil {
		t.Fatalf("RenderHeatmap: %v", err)
	}
	img := decode(t, out)
	if got := rgba(img.At(35, 5)); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("last cell = %#v, want black across the full height", got)
	}
	if got := rgba(img.At(35, 35)); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("bottom-right = %#v, want black", got)
	}
}

func TestRenderHeatmap_Empty(t *testing.T) {
	r, err := NewTileRenderer(Config{})
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.RenderHeatmap(tileset.TileData{}, 0, "")
	if err != nil {
		t.Fatalf("RenderHeatmap: %v", err)
	}
	if b := decode(t, out).Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Errorf("expected default size 256, got %v", b)
	}
}

func TestColormapErrors(t *testing.T) {
	if _, err := NewTileRenderer(Config{DefaultColormap: "rainbow"}); err == nil {
		t.Error("expected error for unknown default colormap")
	}
	r, err := NewTileRenderer(Config{ImageSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.RenderHeatmap(tileset.TileData{Dense: []float64{1}}, 1, "rainbow"); err == nil {
		t.Error("expected error for unknown colormap")
	}
}
