package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AssembleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aeo_assemble_duration_seconds",
			Help:    "View assembly duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"view"},
	)

	AssembleTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aeo_assemble_total",
			Help: "Total view assembly calls",
		},
		[]string{"view", "status"},
	)

	AssembleRows = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aeo_assemble_rows",
			Help:    "Flattened rows returned per assembly call",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"view"},
	)

	ChunkFetches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aeo_chunk_fetches_total",
			Help: "Total batched fetch chunks issued against the store",
		},
	)

	ShapeAnomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aeo_shape_anomalies_total",
			Help: "To-one relations that arrived with more than one element",
		},
		[]string{"relation"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aeo_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aeo_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(AssembleDuration)
	prometheus.MustRegister(AssembleTotal)
	prometheus.MustRegister(AssembleRows)
	prometheus.MustRegister(ChunkFetches)
	prometheus.MustRegister(ShapeAnomalies)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
