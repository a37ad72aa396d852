package schema

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for entity metadata building.
var (
	// entitiesBuilt counts successfully built entities.
	entitiesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapping_entities_built_total",
		Help: "Total number of persistent entities built",
	})

	// buildFailures counts failed builds by error code.
	buildFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapping_entity_build_failures_total",
		Help: "Total number of failed persistent entity builds",
	}, []string{"code"})

	// entityLookups counts context lookups by cache outcome.
	entityLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapping_entity_lookups_total",
		Help: "Total number of persistent entity lookups",
	}, []string{"result"})

	// buildDuration tracks how long building one entity takes.
	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mapping_entity_build_duration_seconds",
		Help:    "Histogram of persistent entity build latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	})
)

// recordBuild records the outcome of one entity build.
func recordBuild(duration time.Duration, err error) {
	buildDuration.Observe(duration.Seconds())
	if err != nil {
		buildFailures.WithLabelValues(errorCode(err)).Inc()
		return
	}
	entitiesBuilt.Inc()
}

func recordLookup(hit bool) {
	if hit {
		entityLookups.WithLabelValues("hit").Inc()
		return
	}
	entityLookups.WithLabelValues("miss").Inc()
}
