// Package metrics exposes Prometheus instrumentation for the tile server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/genotiles/server/internal/cache"
)

// Tile outcomes recorded by ObserveTile.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeCache = "cache"
)

// Metrics holds the server collectors on a private registry so several
// servers (or tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	tiles        *prometheus.CounterVec
	tilesetInfos *prometheus.CounterVec
	chromSizes   *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genotiles",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "genotiles",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		tiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genotiles",
			Name:      "tiles_total",
			Help:      "Tiles served by outcome.",
		}, []string{"outcome"}),
		tilesetInfos: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genotiles",
			Name:      "tileset_infos_total",
			Help:      "Tileset info lookups by outcome.",
		}, []string{"outcome"}),
		chromSizes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genotiles",
			Name:      "chromsizes_resolutions_total",
			Help:      "Chrom-sizes resolutions by source (tileset, assembly, default, cache, missing).",
		}, []string{"source"}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.tiles, m.tilesetInfos, m.chromSizes)
	return m
}

// ObserveTile counts one tile outcome.
func (m *Metrics) ObserveTile(outcome string) {
	if m == nil {
		return
	}
	m.tiles.WithLabelValues(outcome).Inc()
}

// ObserveTilesetInfo counts one tileset info outcome.
func (m *Metrics) ObserveTilesetInfo(outcome string) {
	if m == nil {
		return
	}
	m.tilesetInfos.WithLabelValues(outcome).Inc()
}

// ObserveChromSizes counts where a chrom-sizes request was resolved from.
func (m *Metrics) ObserveChromSizes(source string) {
	if m == nil {
		return
	}
	m.chromSizes.WithLabelValues(source).Inc()
}

// WatchCache exports cache usage, read from stats on every scrape.
func (m *Metrics) WatchCache(stats func() cache.Stats) {
	m.registry.MustRegister(newCacheCollector(stats))
}

type cacheCollector struct {
	stats         func() cache.Stats
	tileEntries   *prometheus.Desc
	tileBytes     *prometheus.Desc
	tileHits      *prometheus.Desc
	tileMisses    *prometheus.Desc
	lookupEntries *prometheus.Desc
}

func newCacheCollector(stats func() cache.Stats) *cacheCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("genotiles", "cache", name), help, nil, nil)
	}
	return &cacheCollector{
		stats:         stats,
		tileEntries:   desc("tile_entries", "Tiles held in the tile cache."),
		tileBytes:     desc("tile_bytes", "Bytes allocated by the tile cache."),
		tileHits:      desc("tile_hits_total", "Tile cache hits."),
		tileMisses:    desc("tile_misses_total", "Tile cache misses."),
		lookupEntries: desc("chromsizes_entries", "Chrom-sizes tables held in the lookup cache."),
	}
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tileEntries
	ch <- c.tileBytes
	ch <- c.tileHits
	ch <- c.tileMisses
	ch <- c.lookupEntries
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.tileEntries, prometheus.GaugeValue, float64(s.TileEntries))
	ch <- prometheus.MustNewConstMetric(c.tileBytes, prometheus.GaugeValue, float64(s.TileBytes))
	ch <- prometheus.MustNewConstMetric(c.tileHits, prometheus.CounterValue, float64(s.TileHits))
	ch <- prometheus.MustNewConstMetric(c.tileMisses, prometheus.CounterValue, float64(s.TileMisses))
	ch <- prometheus.MustNewConstMetric(c.lookupEntries, prometheus.GaugeValue, float64(s.LookupEntries))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request counts and latency labelled by the chi route
// pattern, keeping label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
