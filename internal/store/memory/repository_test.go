package memory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genotiles/server/internal/chromsizes"
	"github.com/genotiles/server/internal/tileset"
)

func testRecords() []tileset.Record {
	return []tileset.Record{
		{
			Tileset: tileset.Tileset{UUID: "good", Filetype: "cooler", Datatype: "matrix", Name: "Good", CoordSystem: "hg19"},
			Info: &tileset.TilesetInfo{
				Filetype:    "cooler",
				Datatype:    "matrix",
				MinPos:      []int64{1, 1},
				MaxPos:      []int64{300, 300},
				MaxZoom:     2,
				Resolutions: []int64{1, 10, 100},
				Chromsizes:  []chromsizes.Chrom{{Name: "chr1", Value: 300}},
			},
		},
		{
			Tileset: tileset.Tileset{UUID: "noinfo", Filetype: "bigwig", Datatype: "vector", CoordSystem: "hg19"},
		},
		{
			Tileset: tileset.Tileset{UUID: "sizes", Filetype: "chromsizes-tsv", Datatype: "chromsizes", CoordSystem: "mm10"},
			Info:    &tileset.TilesetInfo{Filetype: "chromsizes-tsv", Datatype: "chromsizes", MinPos: []int64{1}, MaxPos: []int64{10}},
		},
	}
}

func newTestRepo(t *testing.T, cfg Config) *Repository {
	t.Helper()
	repo, err := New(testRecords(), cfg)
	require.NoError(t, err)
	return repo
}

func TestNew_Validation(t *testing.T) {
	_, err := New([]tileset.Record{{Tileset: tileset.Tileset{}}}, Config{})
	assert.Error(t, err)

	dup := []tileset.Record{
		{Tileset: tileset.Tileset{UUID: "a"}},
		{Tileset: tileset.Tileset{UUID: "a"}},
	}
	_, err = New(dup, Config{})
	assert.Error(t, err)
}

func TestNew_DefaultTileSize(t *testing.T) {
	repo := newTestRepo(t, Config{})
	info, ok, err := repo.GetTilesetInfo(context.Background(), "good")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tileset.DefaultTileSize, info.TileSize)
}

func TestGetTileset(t *testing.T) {
	repo := newTestRepo(t, Config{})
	ctx := context.Background()

	ts, ok, err := repo.GetTileset(ctx, "good")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Good", ts.Name)

	_, ok, err = repo.GetTileset(ctx, "GOOD")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTilesetsByCoordSystem(t *testing.T) {
	repo := newTestRepo(t, Config{})
	ctx := context.Background()

	got, err := repo.TilesetsByCoordSystem(ctx, "hg19")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "good", got[0].UUID)
	assert.Equal(t, "noinfo", got[1].UUID)

	got, err = repo.TilesetsByCoordSystem(ctx, "hg38")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListTilesets(t *testing.T) {
	repo := newTestRepo(t, Config{})
	items, total, err := repo.ListTilesets(context.Background(), tileset.ListQuery{
		Datatypes: []string{"chromsizes"},
		Page:      1,
		PageSize:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "sizes", items[0].UUID)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	repo := newTestRepo(t, Config{})
	ctx := context.Background()

	info, _, _ := repo.GetTilesetInfo(ctx, "good")
	info.Chromsizes[0].Value = 1
	info.MaxPos[0] = 1

	again, _, _ := repo.GetTilesetInfo(ctx, "good")
	assert.Equal(t, int64(300), again.Chromsizes[0].Value)
	assert.Equal(t, int64(300), again.MaxPos[0])
}

func TestGetTilesetInfos(t *testing.T) {
	repo := newTestRepo(t, Config{})
	got, err := repo.GetTilesetInfos(context.Background(), []string{"good", "noinfo", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.False(t, got["good"].Failed())
	assert.Equal(t, int64(300), got["good"].Value.MaxPos[0])
	assert.Equal(t, "tileset info not found for id noinfo", got["noinfo"].Err)
	assert.Equal(t, "tileset info not found for id missing", got["missing"].Err)
}

func TestGetTiles_BatchIndependence(t *testing.T) {
	repo := newTestRepo(t, Config{})
	got, err := repo.GetTiles(context.Background(), []string{"good.0.1", "bad"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.False(t, got["good.0.1"].Failed())
	assert.Len(t, got["good.0.1"].Value.Dense, 16)
	assert.Equal(t, "invalid tile id format: bad", got["bad"].Err)
}

func TestGetTiles_Errors(t *testing.T) {
	repo := newTestRepo(t, Config{})
	got, err := repo.GetTiles(context.Background(), []string{
		"unknown.0.0",
		"good.3.0.0",
		"good.x.0",
		"noinfo.7.1",
		"good.2.1.1",
		"unknown.a.b",
		".0.1",
		"unknown.1.2.3.4",
		"good.1.2.3.4",
	})
	require.NoError(t, err)

	// An unknown uuid is reported before a malformed remainder.
	assert.Equal(t, "tileset not found for tile unknown.a.b", got["unknown.a.b"].Err)
	assert.Equal(t, "tileset not found for tile .0.1", got[".0.1"].Err)
	assert.Equal(t, "tileset not found for tile unknown.1.2.3.4", got["unknown.1.2.3.4"].Err)
	assert.Equal(t, "invalid tile id format: good.1.2.3.4", got["good.1.2.3.4"].Err)

	assert.Equal(t, "tileset not found for tile unknown.0.0", got["unknown.0.0"].Err)
	assert.Contains(t, got["good.3.0.0"].Err, "zoom level 3 out of range")
	assert.Equal(t, "invalid tile id format: good.x.0", got["good.x.0"].Err)
	assert.False(t, got["noinfo.7.1"].Failed(), "tilesets without info are served unchecked")
	assert.False(t, got["good.2.1.1"].Failed())
}

type recordingSource struct {
	calls atomic.Int32
	fail  string
	reqs  chan tileset.TileRequest
}

func (s *recordingSource) Tile(ctx context.Context, req tileset.TileRequest) (tileset.TileData, error) {
	s.calls.Add(1)
	if s.reqs != nil {
		s.reqs <- req
	}
	if req.ID.String() == s.fail {
		return tileset.TileData{}, errors.New("decode failed")
	}
	return tileset.TileData{Dense: []float64{float64(req.Resolution)}}, nil
}

func TestGetTiles_SourceRequest(t *testing.T) {
	src := &recordingSource{reqs: make(chan tileset.TileRequest, 1)}
	repo := newTestRepo(t, Config{Source: src})

	got, err := repo.GetTiles(context.Background(), []string{"good.1.2.3"})
	require.NoError(t, err)
	req := <-src.reqs

	assert.Equal(t, tileset.TileID{UUID: "good", Zoom: 1, X: 2, Y: 3, HasY: true}, req.ID)
	require.NotNil(t, req.Info)
	assert.Equal(t, int64(10), req.Resolution)
	assert.Equal(t, []float64{10}, got["good.1.2.3"].Value.Dense)
}

func TestGetTiles_SourceErrorIsPerItem(t *testing.T) {
	src := &recordingSource{fail: "good.0.0"}
	repo := newTestRepo(t, Config{Source: src, MaxConcurrency: 2})

	ids := []string{"good.0.0"}
	for i := 1; i <= 20; i++ {
		ids = append(ids, fmt.Sprintf("good.2.%d", i))
	}
	got, err := repo.GetTiles(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, got, len(ids))

	assert.Contains(t, got["good.0.0"].Err, "decode failed")
	for _, id := range ids[1:] {
		assert.False(t, got[id].Failed(), id)
	}
	assert.Equal(t, int32(len(ids)), src.calls.Load())
}

func TestGetTiles_CancelledContext(t *testing.T) {
	repo := newTestRepo(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetTiles(ctx, []string{"good.0.0"})
	assert.ErrorIs(t, err, context.Canceled)
}
