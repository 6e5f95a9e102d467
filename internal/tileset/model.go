// Package tileset defines tilesets, their tiling metadata and the repository
// contract the HTTP layer queries.
package tileset

import (
	"time"

	"github.com/genotiles/server/internal/chromsizes"
)

// Well-known datatypes and filetypes.
const (
	DatatypeMatrix     = "matrix"
	DatatypeChromsizes = "chromsizes"

	FiletypeCooler        = "cooler"
	FiletypeChromsizesTSV = "chromsizes-tsv"
)

// DefaultTileSize is used when a tileset info does not specify tile_size.
const DefaultTileSize = 256

// Tileset is a registered reference to one genomic data source.
type Tileset struct {
	UUID         string     `json:"uuid"`
	Filetype     string     `json:"filetype"`
	Datatype     string     `json:"datatype"`
	Private      bool       `json:"private"`
	Name         string     `json:"name,omitempty"`
	CoordSystem  string     `json:"coordSystem,omitempty"`
	CoordSystem2 string     `json:"coordSystem2,omitempty"`
	Created      *time.Time `json:"created,omitempty"`
	Owner        string     `json:"owner,omitempty"`
	ProjectName  string     `json:"project_name,omitempty"`
	ProjectOwner string     `json:"project_owner,omitempty"`
	Description  string     `json:"description,omitempty"`
	Datafile     string     `json:"datafile,omitempty"`
}

// TilesetInfo describes how a tileset is tiled across zoom levels.
type TilesetInfo struct {
	Name             string             `json:"name,omitempty"`
	Filetype         string             `json:"filetype"`
	Datatype         string             `json:"datatype"`
	CoordSystem      string             `json:"coordSystem,omitempty"`
	CoordSystem2     string             `json:"coordSystem2,omitempty"`
	MinPos           []int64            `json:"min_pos"`
	MaxPos           []int64            `json:"max_pos"`
	MaxZoom          int                `json:"max_zoom"`
	TileSize         int                `json:"tile_size"`
	Resolutions      []int64            `json:"resolutions,omitempty"`
	Chromsizes       []chromsizes.Chrom `json:"chromsizes,omitempty"`
	BinsPerDimension int                `json:"bins_per_dimension,omitempty"`
	MaxWidth         int64              `json:"max_width,omitempty"`
	MirrorTiles      string             `json:"mirror_tiles,omitempty"`
	ClodiusVersion   int                `json:"clodius_version,omitempty"`
	RowInfos         []string           `json:"row_infos,omitempty"`
	ColInfos         []string           `json:"col_infos,omitempty"`
	ZoomStep         int                `json:"zoom_step,omitempty"`
}

// Dimensions reports whether the tileset is 1-D (tracks) or 2-D (matrices).
func (i TilesetInfo) Dimensions() int {
	if len(i.MinPos) > 0 {
		return len(i.MinPos)
	}
	return len(i.MaxPos)
}

// Clone returns a deep copy so callers cannot alias repository state.
func (i TilesetInfo) Clone() TilesetInfo {
	out := i
	out.MinPos = append([]int64(nil), i.MinPos...)
	out.MaxPos = append([]int64(nil), i.MaxPos...)
	out.Resolutions = cloneOrNil(i.Resolutions)
	out.Chromsizes = cloneOrNil(i.Chromsizes)
	out.RowInfos = cloneOrNil(i.RowInfos)
	out.ColInfos = cloneOrNil(i.ColInfos)
	return out
}

// Clone returns a copy of the tileset.
func (t Tileset) Clone() Tileset {
	out := t
	if t.Created != nil {
		created := *t.Created
		out.Created = &created
	}
	return out
}

// TileData is the rendered content of one tile, row-major for 2-D tiles.
type TileData struct {
	Dense    []float64 `json:"dense"`
	MinValue *float64  `json:"min_value,omitempty"`
	MaxValue *float64  `json:"max_value,omitempty"`
}

// Record couples a tileset with its optional info, as loaded at startup.
type Record struct {
	Tileset Tileset
	Info    *TilesetInfo
}

func cloneOrNil[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append([]T(nil), in...)
}
