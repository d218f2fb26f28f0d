// Package metrics exports decision engine counters to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.NewCollector(reg)
//	c := client.New(provider, client.WithMetrics(collector))
//
// Every method is safe on a nil *Collector, so components take a collector
// unconditionally and hosts that do not scrape metrics pass nothing.
package metrics
