// Package seed loads tileset registrations from YAML seed files.
package seed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/genotiles/server/internal/chromsizes"
	"github.com/genotiles/server/internal/tileset"
)

// File is the top-level layout of a seed file.
type File struct {
	Tilesets []Entry `yaml:"tilesets"`
}

// Entry is one tileset registration with optional info.
type Entry struct {
	UUID         string     `yaml:"uuid"`
	Filetype     string     `yaml:"filetype"`
	Datatype     string     `yaml:"datatype"`
	Private      bool       `yaml:"private"`
	Name         string     `yaml:"name"`
	CoordSystem  string     `yaml:"coordSystem"`
	CoordSystem2 string     `yaml:"coordSystem2"`
	Created      *time.Time `yaml:"created"`
	Owner        string     `yaml:"owner"`
	ProjectName  string     `yaml:"project_name"`
	ProjectOwner string     `yaml:"project_owner"`
	Description  string     `yaml:"description"`
	Datafile     string     `yaml:"datafile"`
	Info         *InfoEntry `yaml:"info"`
}

// InfoEntry carries tiling metadata. Identity fields left empty are taken
// from the enclosing tileset.
type InfoEntry struct {
	Name             string   `yaml:"name"`
	Filetype         string   `yaml:"filetype"`
	Datatype         string   `yaml:"datatype"`
	CoordSystem      string   `yaml:"coordSystem"`
	CoordSystem2     string   `yaml:"coordSystem2"`
	MinPos           []int64  `yaml:"min_pos"`
	MaxPos           []int64  `yaml:"max_pos"`
	MaxZoom          int      `yaml:"max_zoom"`
	TileSize         int      `yaml:"tile_size"`
	Resolutions      []int64  `yaml:"resolutions"`
	Chromsizes       []Chrom  `yaml:"chromsizes"`
	BinsPerDimension int      `yaml:"bins_per_dimension"`
	MaxWidth         int64    `yaml:"max_width"`
	MirrorTiles      string   `yaml:"mirror_tiles"`
	ClodiusVersion   int      `yaml:"clodius_version"`
	RowInfos         []string `yaml:"row_infos"`
	ColInfos         []string `yaml:"col_infos"`
	ZoomStep         int      `yaml:"zoom_step"`
}

// Chrom is a `[name, length]` pair in YAML.
type Chrom chromsizes.Chrom

// UnmarshalYAML decodes a two-element sequence.
func (c *Chrom) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode || len(node.Content) != 2 {
		return fmt.Errorf("line %d: chromsize must be a [name, length] pair", node.Line)
	}
	if err := node.Content[0].Decode(&c.Name); err != nil {
		return fmt.Errorf("line %d: chromosome name: %w", node.Line, err)
	}
	if err := node.Content[1].Decode(&c.Value); err != nil {
		return fmt.Errorf("line %d: chromosome length: %w", node.Line, err)
	}
	if c.Name == "" || c.Value < 0 {
		return fmt.Errorf("line %d: invalid chromsize [%q, %d]", node.Line, c.Name, c.Value)
	}
	return nil
}

// LoadFile reads a seed file. Relative datafile paths resolve against the
// seed file's directory.
func LoadFile(path string) ([]tileset.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed %s: %w", path, err)
	}
	records, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return records, nil
}

// Parse decodes seed YAML into records, in file order.
func Parse(data []byte, baseDir string) ([]tileset.Record, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}

	records := make([]tileset.Record, 0, len(f.Tilesets))
	for i, e := range f.Tilesets {
		rec, err := e.Record()
		if err != nil {
			return nil, fmt.Errorf("tileset %d: %w", i, err)
		}
		if err := Complete(&rec, baseDir); err != nil {
			return nil, fmt.Errorf("tileset %s: %w", rec.Tileset.UUID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Record converts an entry, generating a uuid when none is given.
func (e Entry) Record() (tileset.Record, error) {
	if e.Filetype == "" || e.Datatype == "" {
		return tileset.Record{}, errors.New("filetype and datatype are required")
	}
	id := e.UUID
	if id == "" {
		id = uuid.NewString()
	}
	rec := tileset.Record{Tileset: tileset.Tileset{
		UUID:         id,
		Filetype:     e.Filetype,
		Datatype:     e.Datatype,
		Private:      e.Private,
		Name:         e.Name,
		CoordSystem:  e.CoordSystem,
		CoordSystem2: e.CoordSystem2,
		Created:      e.Created,
		Owner:        e.Owner,
		ProjectName:  e.ProjectName,
		ProjectOwner: e.ProjectOwner,
		Description:  e.Description,
		Datafile:     e.Datafile,
	}}
	if e.Info != nil {
		info := e.Info.info()
		rec.Info = &info
	}
	return rec, nil
}

func (ie InfoEntry) info() tileset.TilesetInfo {
	info := tileset.TilesetInfo{
		Name:             ie.Name,
		Filetype:         ie.Filetype,
		Datatype:         ie.Datatype,
		CoordSystem:      ie.CoordSystem,
		CoordSystem2:     ie.CoordSystem2,
		MinPos:           ie.MinPos,
		MaxPos:           ie.MaxPos,
		MaxZoom:          ie.MaxZoom,
		TileSize:         ie.TileSize,
		Resolutions:      ie.Resolutions,
		BinsPerDimension: ie.BinsPerDimension,
		MaxWidth:         ie.MaxWidth,
		MirrorTiles:      ie.MirrorTiles,
		ClodiusVersion:   ie.ClodiusVersion,
		RowInfos:         ie.RowInfos,
		ColInfos:         ie.ColInfos,
		ZoomStep:         ie.ZoomStep,
	}
	if len(ie.Chromsizes) > 0 {
		info.Chromsizes = make([]chromsizes.Chrom, len(ie.Chromsizes))
		for i, c := range ie.Chromsizes {
			info.Chromsizes[i] = chromsizes.Chrom(c)
		}
	}
	return info
}

// Complete fills derived fields of rec: info identity fields inherit from
// the tileset, and a chromsizes-tsv tileset whose info lacks chromsizes
// gets them parsed from its datafile (creating the info if needed).
func Complete(rec *tileset.Record, baseDir string) error {
	ts := &rec.Tileset
	if ts.Filetype == tileset.FiletypeChromsizesTSV && ts.Datafile != "" &&
		(rec.Info == nil || len(rec.Info.Chromsizes) == 0) {
		chroms, err := readChromSizes(resolve(baseDir, ts.Datafile))
		if err != nil {
			return err
		}
		if rec.Info == nil {
			rec.Info = ChromSizesInfo(*ts, chroms)
		} else {
			rec.Info.Chromsizes = chroms
		}
	}

	if rec.Info == nil {
		return nil
	}
	info := rec.Info
	if info.Name == "" {
		info.Name = ts.Name
	}
	if info.Filetype == "" {
		info.Filetype = ts.Filetype
	}
	if info.Datatype == "" {
		info.Datatype = ts.Datatype
	}
	if info.CoordSystem == "" {
		info.CoordSystem = ts.CoordSystem
	}
	if info.CoordSystem2 == "" {
		info.CoordSystem2 = ts.CoordSystem2
	}
	if info.MaxZoom < 0 {
		return fmt.Errorf("negative max_zoom %d", info.MaxZoom)
	}
	if info.TileSize < 0 {
		return fmt.Errorf("negative tile_size %d", info.TileSize)
	}
	return nil
}

// ChromSizesInfo builds the info of a chromsizes tileset: one dimension,
// a single zoom level and one bp per bin.
func ChromSizesInfo(ts tileset.Tileset, chroms []chromsizes.Chrom) *tileset.TilesetInfo {
	var first int64
	if len(chroms) > 0 {
		first = chroms[0].Value
	}
	return &tileset.TilesetInfo{
		Name:        ts.Name,
		Filetype:    ts.Filetype,
		Datatype:    ts.Datatype,
		CoordSystem: ts.CoordSystem,
		MinPos:      []int64{1},
		MaxPos:      []int64{first},
		MaxZoom:     0,
		TileSize:    1,
		Chromsizes:  chroms,
	}
}

func readChromSizes(path string) ([]chromsizes.Chrom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chromsizes datafile: %w", err)
	}
	defer f.Close()

	chroms, err := chromsizes.ParseTSV(f)
	if err != nil {
		return nil, fmt.Errorf("parsing chromsizes datafile %s: %w", path, err)
	}
	return chroms, nil
}

func resolve(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
