package seed

import (
	"time"

	"github.com/genotiles/server/internal/chromsizes"
	"github.com/genotiles/server/internal/tileset"
)

// Demo returns the built-in demonstration catalog: two cooler tilesets and
// one chromsizes tileset per built-in assembly. Creation times are relative
// to now.
func Demo(now time.Time) []tileset.Record {
	day := 24 * time.Hour
	at := func(d time.Duration) *time.Time {
		t := now.Add(-d).UTC()
		return &t
	}

	records := []tileset.Record{
		{
			Tileset: tileset.Tileset{
				UUID:        "stub_cooler_1",
				Filetype:    tileset.FiletypeCooler,
				Datatype:    tileset.DatatypeMatrix,
				Name:        "My Stub Cooler 1",
				CoordSystem: "hg19",
				Created:     at(0),
				Owner:       "stub_user",
				ProjectName: "Stub Project",
				Description: "A cooler file for testing.",
			},
			Info: &tileset.TilesetInfo{
				Name:             "My Stub Cooler 1",
				Filetype:         tileset.FiletypeCooler,
				Datatype:         tileset.DatatypeMatrix,
				CoordSystem:      "hg19",
				MinPos:           []int64{1, 1},
				MaxPos:           []int64{300000000, 300000000},
				MaxZoom:          10,
				TileSize:         256,
				BinsPerDimension: 256,
				MaxWidth:         299999999,
				Chromsizes: []chromsizes.Chrom{
					{Name: "chr1", Value: 249250621},
					{Name: "chr2", Value: 243199373},
				},
				Resolutions: []int64{1000, 2000, 5000, 10000, 25000, 50000, 100000, 250000, 500000, 1000000},
			},
		},
		{
			Tileset: tileset.Tileset{
				UUID:        "stub_cooler_2",
				Filetype:    tileset.FiletypeCooler,
				Datatype:    tileset.DatatypeMatrix,
				Name:        "Another Cooler Example",
				CoordSystem: "hg38",
				Created:     at(day),
				Owner:       "stub_user",
				ProjectName: "Stub Project",
				Description: "Second cooler tileset.",
			},
			Info: &tileset.TilesetInfo{
				Name:             "Another Cooler Example",
				Filetype:         tileset.FiletypeCooler,
				Datatype:         tileset.DatatypeMatrix,
				CoordSystem:      "hg38",
				MinPos:           []int64{1, 1},
				MaxPos:           []int64{250000000, 250000000},
				MaxZoom:          9,
				TileSize:         256,
				BinsPerDimension: 256,
				MaxWidth:         249999999,
				Chromsizes: []chromsizes.Chrom{
					{Name: "chr1", Value: 248956422},
					{Name: "chrX", Value: 156040895},
				},
				Resolutions: []int64{5000, 10000, 25000, 50000, 100000, 250000, 500000, 1000000},
			},
		},
	}

	assemblies := []struct{ id, label string }{
		{"hg19", "Human (hg19)"},
		{"hg38", "Human (hg38)"},
		{"mm10", "Mouse (mm10)"},
	}
	for _, a := range assemblies {
		chroms, _ := chromsizes.Default(a.id)
		ts := tileset.Tileset{
			UUID:        a.id + "_chromsizes",
			Filetype:    tileset.FiletypeChromsizesTSV,
			Datatype:    tileset.DatatypeChromsizes,
			Name:        a.label + " Chromosome Sizes",
			CoordSystem: a.id,
			Created:     at(30 * day),
			Owner:       "admin",
			ProjectName: "Reference Genomes",
			Description: "Chromosome sizes for the " + a.id + " " + genome(a.id) + " genome assembly.",
		}
		records = append(records, tileset.Record{Tileset: ts, Info: ChromSizesInfo(ts, chroms)})
	}
	return records
}

func genome(assembly string) string {
	if assembly == "mm10" {
		return "mouse"
	}
	return "human"
}
