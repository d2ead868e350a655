package lukashian

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// buildDuration tracks table build latency
	buildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lukashian_build_duration_seconds",
		Help:    "Table build duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"mode"})

	// builtDays is the number of days in the most recently built tables
	builtDays = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lukashian_built_days",
		Help: "Number of day boundaries in the most recently built tables",
	})

	// resolveTotal counts resolutions by result
	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lukashian_resolve_total",
		Help: "Total date resolutions by result",
	}, []string{"result"})

	// cacheTotal counts table cache lookups by result
	cacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lukashian_cache_requests_total",
		Help: "Total table cache lookups by result",
	}, []string{"result"})
)

func resolveResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTableNotBuilt):
		return "not_built"
	}

	var oor *OutOfRangeError
	if errors.As(err, &oor) {
		if oor.Side == BelowRange {
			return "below_range"
		}
		return "above_range"
	}
	return "error"
}
