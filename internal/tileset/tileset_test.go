package tileset

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genotiles/server/internal/chromsizes"
)

func fixtureTilesets() []Tileset {
	day := func(d int) *time.Time {
		t := time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	return []Tileset{
		{UUID: "c1", Filetype: "cooler", Datatype: "matrix", Name: "My Cooler", Created: day(3)},
		{UUID: "c2", Filetype: "cooler", Datatype: "matrix", Name: "Another cooler", Created: day(1)},
		{UUID: "h19", Filetype: "chromsizes-tsv", Datatype: "chromsizes", Name: "hg19 sizes"},
		{UUID: "bw", Filetype: "bigwig", Datatype: "vector", Created: day(2)},
		{UUID: "bed", Filetype: "beddb", Datatype: "gene-annotation", Name: "Genes", Private: true},
	}
}

func uuids(items []Tileset) []string {
	out := make([]string, len(items))
	for i, ts := range items {
		out[i] = ts.UUID
	}
	return out
}

func TestListQuery_Filters(t *testing.T) {
	all := fixtureTilesets()

	t.Run("noFilters", func(t *testing.T) {
		got, total := ListQuery{Page: 1, PageSize: 100}.Apply(all)
		assert.Equal(t, 5, total)
		assert.Equal(t, []string{"c1", "c2", "h19", "bw", "bed"}, uuids(got))
	})

	t.Run("autocompleteCaseInsensitive", func(t *testing.T) {
		got, total := ListQuery{Autocomplete: "COOLER", Page: 1, PageSize: 10}.Apply(all)
		assert.Equal(t, 2, total)
		assert.Equal(t, []string{"c1", "c2"}, uuids(got))
	})

	t.Run("autocompleteSkipsUnnamed", func(t *testing.T) {
		_, total := ListQuery{Autocomplete: "b", Page: 1, PageSize: 10}.Apply(all)
		assert.Equal(t, 0, total)
	})

	t.Run("filetypeExact", func(t *testing.T) {
		got, _ := ListQuery{Filetype: "cooler", Page: 1, PageSize: 10}.Apply(all)
		assert.Equal(t, []string{"c1", "c2"}, uuids(got))
		_, total := ListQuery{Filetype: "cool", Page: 1, PageSize: 10}.Apply(all)
		assert.Equal(t, 0, total)
	})

	t.Run("datatypeMembership", func(t *testing.T) {
		got, _ := ListQuery{Datatypes: []string{"vector", "chromsizes"}, Page: 1, PageSize: 10}.Apply(all)
		assert.Equal(t, []string{"h19", "bw"}, uuids(got))
	})

	t.Run("conjunctive", func(t *testing.T) {
		both, _ := ListQuery{Filetype: "cooler", Datatypes: []string{"matrix", "vector"}, Page: 1, PageSize: 10}.Apply(all)
		byType, _ := ListQuery{Filetype: "cooler", Page: 1, PageSize: 10}.Apply(all)
		byData, _ := ListQuery{Datatypes: []string{"matrix", "vector"}, Page: 1, PageSize: 10}.Apply(all)

		inData := map[string]bool{}
		for _, ts := range byData {
			inData[ts.UUID] = true
		}
		var want []string
		for _, ts := range byType {
			if inData[ts.UUID] {
				want = append(want, ts.UUID)
			}
		}
		assert.Equal(t, want, uuids(both))
	})
}

func TestListQuery_Sort(t *testing.T) {
	all := fixtureTilesets()

	t.Run("nameAscendingMissingFirst", func(t *testing.T) {
		got, _ := ListQuery{OrderBy: SortName, Page: 1, PageSize: 10}.Apply(all)
		assert.Equal(t, []string{"bw", "c2", "bed", "c1", "h19"}, uuids(got))
	})

	t.Run("createdReverse", func(t *testing.T) {
		got, _ := ListQuery{OrderBy: SortCreated, Reverse: true, Page: 1, PageSize: 10}.Apply(all)
		assert.Equal(t, []string{"c1", "bw", "c2", "h19", "bed"}, uuids(got))
	})

	t.Run("stableTies", func(t *testing.T) {
		got, _ := ListQuery{OrderBy: SortFiletype, Page: 1, PageSize: 10}.Apply(all)
		assert.Equal(t, []string{"bed", "bw", "h19", "c1", "c2"}, uuids(got))
	})

	t.Run("inputUntouched", func(t *testing.T) {
		ListQuery{OrderBy: SortUUID, Page: 1, PageSize: 10}.Apply(all)
		assert.Equal(t, []string{"c1", "c2", "h19", "bw", "bed"}, uuids(all))
	})
}

func TestListQuery_Pagination(t *testing.T) {
	all := fixtureTilesets()
	n := len(all)

	for _, size := range []int{1, 2, 3, 5, 7} {
		for page := 1; page <= 5; page++ {
			t.Run(fmt.Sprintf("size%d_page%d", size, page), func(t *testing.T) {
				got, total := ListQuery{Page: page, PageSize: size}.Apply(all)
				want := size
				if rest := n - (page-1)*size; rest < want {
					want = rest
				}
				if want < 0 {
					want = 0
				}
				assert.Equal(t, n, total)
				assert.Len(t, got, want)
			})
		}
	}

	t.Run("invalidPage", func(t *testing.T) {
		got, total := ListQuery{Page: 0, PageSize: 10}.Apply(all)
		assert.Equal(t, n, total)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})

	t.Run("hugePage", func(t *testing.T) {
		got, total := ListQuery{Page: 4611686018427387905, PageSize: 4}.Apply(all)
		assert.Equal(t, n, total)
		assert.Empty(t, got)
	})
}

func TestParseSortKey(t *testing.T) {
	k, ok := ParseSortKey("project_owner")
	require.True(t, ok)
	assert.Equal(t, SortProjectOwner, k)
	assert.Equal(t, "project_owner", k.String())

	k, ok = ParseSortKey("")
	assert.True(t, ok)
	assert.Equal(t, SortNone, k)

	_, ok = ParseSortKey("__class__")
	assert.False(t, ok)
}

func TestParseTileID(t *testing.T) {
	tests := []struct {
		in      string
		want    TileID
		wantErr bool
	}{
		{in: "abc.0.1", want: TileID{UUID: "abc", Zoom: 0, X: 1}},
		{in: "abc.3.4.5", want: TileID{UUID: "abc", Zoom: 3, X: 4, Y: 5, HasY: true}},
		{in: "bad", wantErr: true},
		{in: "abc.1", wantErr: true},
		{in: "abc.1.2.3.4", wantErr: true},
		{in: "abc.x.1", wantErr: true},
		{in: "abc.1.-2", wantErr: true},
		{in: ".1.2", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTileID(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidTileID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.in, got.String())
		})
	}
}

func TestTileUUID(t *testing.T) {
	uuid, ok := TileUUID("abc.x.y")
	assert.True(t, ok)
	assert.Equal(t, "abc", uuid)

	uuid, ok = TileUUID(".0.1")
	assert.True(t, ok)
	assert.Empty(t, uuid)

	_, ok = TileUUID("abc.1")
	assert.False(t, ok)
}

func TestResolutionForZoom(t *testing.T) {
	info := &TilesetInfo{Resolutions: []int64{1000, 5000, 10000, 1000000}}
	assert.Equal(t, int64(1000000), ResolutionForZoom(info, 0))
	assert.Equal(t, int64(5000), ResolutionForZoom(info, 2))
	assert.Equal(t, int64(1000), ResolutionForZoom(info, 9))
	assert.Equal(t, int64(0), ResolutionForZoom(nil, 0))
	assert.Equal(t, int64(0), ResolutionForZoom(&TilesetInfo{}, 1))
	assert.Equal(t, []int64{1000, 5000, 10000, 1000000}, info.Resolutions)
}

func TestPlaceholderSource(t *testing.T) {
	data, err := PlaceholderSource{}.Tile(context.Background(), TileRequest{})
	require.NoError(t, err)
	assert.Len(t, data.Dense, 16)
	require.NotNil(t, data.MinValue)
	require.NotNil(t, data.MaxValue)
	assert.Equal(t, 0.0, *data.MinValue)
	assert.Equal(t, 1.0, *data.MaxValue)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = PlaceholderSource{}.Tile(ctx, TileRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDenseRange(t *testing.T) {
	lo, hi, ok := DenseRange([]float64{0.5, -1, 3})
	require.True(t, ok)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 3.0, hi)

	lo, hi, ok = DenseRange([]float64{math.NaN(), 2, math.NaN(), 4})
	require.True(t, ok)
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 4.0, hi)

	_, _, ok = DenseRange(nil)
	assert.False(t, ok)
	_, _, ok = DenseRange([]float64{math.NaN()})
	assert.False(t, ok)
}

func TestResultJSON(t *testing.T) {
	batch := map[string]Result[TilesetInfo]{
		"ok": Ok(TilesetInfo{
			Filetype:   "cooler",
			Datatype:   "matrix",
			MinPos:     []int64{0, 0},
			MaxPos:     []int64{10, 10},
			TileSize:   256,
			Chromsizes: []chromsizes.Chrom{{Name: "chr1", Value: 10}},
		}),
		"missing": Fail[TilesetInfo]("tileset info not found for id missing"),
	}
	data, err := json.Marshal(batch)
	require.NoError(t, err)

	var raw map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "tileset info not found for id missing", raw["missing"]["error"])
	assert.Equal(t, "cooler", raw["ok"]["filetype"])
	assert.NotContains(t, raw["ok"], "error")

	var back map[string]Result[TilesetInfo]
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back["missing"].Failed())
	assert.Equal(t, batch["ok"].Value, back["ok"].Value)
}

func TestTilesetInfo_CloneAndDimensions(t *testing.T) {
	info := TilesetInfo{MinPos: []int64{1, 1}, MaxPos: []int64{5, 5}, Resolutions: []int64{1}}
	c := info.Clone()
	c.MinPos[0] = 99
	c.Resolutions[0] = 99
	assert.Equal(t, int64(1), info.MinPos[0])
	assert.Equal(t, int64(1), info.Resolutions[0])
	assert.Equal(t, 2, info.Dimensions())
	assert.Equal(t, 1, TilesetInfo{MaxPos: []int64{3}}.Dimensions())
}
