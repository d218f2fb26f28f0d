package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "flagkit"

// Collector holds the decision engine metrics.
type Collector struct {
	decisions        *prometheus.CounterVec
	decisionDuration prometheus.Histogram
	cmabCache        *prometheus.CounterVec
	cmabFetchErrors  prometheus.Counter
	profileErrors    *prometheus.CounterVec
	impressions      *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with reg. A nil reg
// leaves them unregistered, which is useful in tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Flag and experiment decisions by source.",
		}, []string{"source"}),
		decisionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_duration_seconds",
			Help:      "Time spent resolving one flag decision.",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05, .25, 1},
		}),
		cmabCache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cmab",
			Name:      "cache_lookups_total",
			Help:      "Contextual-bandit cache lookups by result.",
		}, []string{"result"}),
		cmabFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cmab",
			Name:      "fetch_errors_total",
			Help:      "Failed calls to the contextual-bandit scorer.",
		}),
		profileErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "profile",
			Name:      "store_errors_total",
			Help:      "User profile store failures by operation.",
		}, []string{"operation"}),
		impressions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "impressions_total",
			Help:      "Decision events handed to the event sink by result.",
		}, []string{"result"}),
	}
}

// ObserveDecision counts a decision attributed to source.
func (c *Collector) ObserveDecision(source string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.decisions.WithLabelValues(source).Inc()
	c.decisionDuration.Observe(elapsed.Seconds())
}

func (c *Collector) CmabCacheHit() {
	if c == nil {
		return
	}
	c.cmabCache.WithLabelValues("hit").Inc()
}

func (c *Collector) CmabCacheMiss() {
	if c == nil {
		return
	}
	c.cmabCache.WithLabelValues("miss").Inc()
}

func (c *Collector) CmabFetchFailed() {
	if c == nil {
		return
	}
	c.cmabFetchErrors.Inc()
}

// ProfileStoreFailed counts a failed lookup or save.
func (c *Collector) ProfileStoreFailed(operation string) {
	if c == nil {
		return
	}
	c.profileErrors.WithLabelValues(operation).Inc()
}

// ImpressionSent counts an event handed to the sink, ok reporting whether
// the sink accepted it.
func (c *Collector) ImpressionSent(ok bool) {
	if c == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	c.impressions.WithLabelValues(result).Inc()
}
