package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/genotiles/server/internal/chromsizes"
	"github.com/genotiles/server/internal/render"
	"github.com/genotiles/server/internal/service"
)

// tilesetsHandler lists tilesets with filtering, ordering and pagination.
func tilesetsHandler(svc *service.TilesetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseListQuery(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		page, err := svc.List(r.Context(), q)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func tilesetHandler(svc *service.TilesetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts, err := svc.Get(r.Context(), chi.URLParam(r, "uuid"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ts)
	}
}

func tilesetInfoHandler(svc *service.TilesetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := requiredList(r.URL.Query(), "d")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		infos, err := svc.Infos(r.Context(), ids)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, infos)
	}
}

func tilesHandler(svc *service.TilesetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := requiredList(r.URL.Query(), "d")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		tiles, err := svc.Tiles(r.Context(), ids)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tiles)
	}
}

type chromSizesResponse struct {
	Chromsizes []chromsizes.Chrom `json:"chromsizes"`
}

func chromSizesHandler(svc *service.TilesetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := parseChromSizesParams(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		chroms, err := svc.ChromSizes(r.Context(), p.id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if p.cumulative {
			chroms = chromsizes.Cumulative(chroms)
		}

		if p.format == formatTSV {
			var buf bytes.Buffer
			if err := chromsizes.WriteTSV(&buf, chroms); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			w.Header().Set("Content-Type", "text/tab-separated-values")
			w.WriteHeader(http.StatusOK)
			w.Write(buf.Bytes())
			return
		}
		if chroms == nil {
			chroms = []chromsizes.Chrom{}
		}
		writeJSON(w, http.StatusOK, chromSizesResponse{Chromsizes: chroms})
	}
}

func availableChromSizesHandler(svc *service.TilesetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, pageSize, err := parsePagination(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		result, err := svc.AvailableChromSizes(r.Context(), page, pageSize)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// tileImageHandler renders one tile as a PNG heatmap.
func tileImageHandler(svc *service.TilesetService, renderer *render.TileRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := requiredList(r.URL.Query(), "d")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(ids) != 1 {
			writeError(w, http.StatusBadRequest, "tile-image takes exactly one d")
			return
		}
		tile, err := svc.Tile(r.Context(), ids[0])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		img, err := renderer.RenderHeatmap(tile.Data, tile.Dims, r.URL.Query().Get("colormap"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(img)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, service.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
