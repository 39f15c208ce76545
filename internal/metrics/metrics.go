// Package metrics provides Prometheus metrics for the collection tracker.
// Scrape these at /metrics for dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracker_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Catalog API Metrics
	CatalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_catalog_requests_total",
			Help: "Catalog API lookups by endpoint and result source",
		},
		[]string{"endpoint", "source"}, // source: "api", "cache", "stale_cache", "error"
	)

	CatalogCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_catalog_cache_hits_total",
			Help: "Catalog response cache hit count",
		},
	)

	CatalogCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_catalog_cache_misses_total",
			Help: "Catalog response cache miss count",
		},
	)

	// Batch Queue Metrics
	BatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_batch_queue_depth",
			Help: "Number of tasks waiting in the batch request queue",
		},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_batch_duration_seconds",
			Help:    "Time taken to run one batch of queued tasks",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// Storage Metrics
	StorageWritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_storage_writes_total",
			Help: "Total number of storage key writes",
		},
	)

	StorageMigrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_storage_migrations_total",
			Help: "Legacy key migrations by result",
		},
		[]string{"result"}, // "migrated" or "failed"
	)

	// Collection Metrics
	CollectionCardsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_collection_cards_total",
			Help: "Total number of cards in collection including duplicates",
		},
	)

	CollectionUniqueCards = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_collection_unique_cards",
			Help: "Number of unique card entries in collection",
		},
	)

	CollectionValueUSD = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_collection_value_usd",
			Help: "Total estimated value of collection in USD",
		},
	)
)
