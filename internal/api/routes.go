// Package api provides HTTP handlers for the genotiles server.
package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/genotiles/server/internal/metrics"
	"github.com/genotiles/server/internal/render"
	"github.com/genotiles/server/internal/service"
)

// RouterConfig contains router configuration.
type RouterConfig struct {
	Service     *service.TilesetService
	Renderer    *render.TileRenderer
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	CORSOrigins []string
	Title       string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(requestID)
	r.Use(requestLogger(logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/", welcomeHandler(cfg.Title))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	svc := cfg.Service
	r.Route("/api/v1", func(r chi.Router) {
		getWithSlash(r, "/tilesets", tilesetsHandler(svc))
		getWithSlash(r, "/tilesets/{uuid}", tilesetHandler(svc))
		getWithSlash(r, "/tileset_info", tilesetInfoHandler(svc))
		getWithSlash(r, "/tiles", tilesHandler(svc))
		getWithSlash(r, "/chrom-sizes", chromSizesHandler(svc))
		getWithSlash(r, "/available-chrom-sizes", availableChromSizesHandler(svc))
		if cfg.Renderer != nil {
			getWithSlash(r, "/tile-image", tileImageHandler(svc, cfg.Renderer))
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found: "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// getWithSlash serves pattern both with and without a trailing slash.
func getWithSlash(r chi.Router, pattern string, h http.HandlerFunc) {
	pattern = strings.TrimSuffix(pattern, "/")
	r.Get(pattern, h)
	r.Get(pattern+"/", h)
}

func welcomeHandler(title string) http.HandlerFunc {
	if title == "" {
		title = "genotiles"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Welcome to " + title + ". Tileset API is served under /api/v1/.",
		})
	}
}
