package localfq

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Routing labels for predictionsTotal.
const (
	routeContained = "contained"
	routeFallback  = "fallback"
)

var (
	buildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localfq_builds_total",
		Help: "Total number of completed store builds",
	})

	clustersBuiltTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localfq_clusters_built_total",
		Help: "Total number of surviving clusters across all builds",
	})

	clustersDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localfq_clusters_dropped_total",
		Help: "Total number of clusters dropped for holding too few instances",
	})

	// Routed predictions, split by whether the query's embedding fell
	// inside a cluster bounding box or needed the nearest-instance
	// fallback. A high fallback share indicates embedding drift between
	// training and query populations.
	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "localfq_predictions_total",
		Help: "Total number of routed predictions by routing outcome",
	}, []string{"route"})
)
