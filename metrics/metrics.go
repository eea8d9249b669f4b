// Package metrics is an optional Prometheus exporter for plaincache.Cache.
// It lives outside the core on purpose: the cache itself has no background
// goroutines and no metrics hook points on its hot path, so this package
// polls Cache.Stats() on its own timer instead of being called out to.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/christianschleifer/plain-cache"
)

// StatsSource is the subset of *plaincache.Cache[K, V] the exporter depends
// on. Any instantiation of Cache satisfies it, since Stats's signature
// doesn't vary with the cache's key/value types.
type StatsSource interface {
	Stats() plaincache.Stats
}

// Exporter periodically snapshots a StatsSource and republishes it as
// Prometheus counters and a gauge. The zero value is not usable; build one
// with New.
type Exporter struct {
	source StatsSource
	sink   metricsSink
}

// metricsSink abstracts the concrete backend so Exporter's polling loop
// never has to special-case a disabled registry.
type metricsSink interface {
	observe(s plaincache.Stats)
}

// noopSink discards every observation; it exists so an Exporter can be
// constructed and run even when the caller never calls New with a registry,
// without the polling loop needing a nil check.
type noopSink struct{}

func (noopSink) observe(plaincache.Stats) {}

// promSink is the real Prometheus-backed implementation.
type promSink struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	hitRatio  prometheus.Gauge
}

func newPromSink(reg *prometheus.Registry) *promSink {
	s := &promSink{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plaincache",
			Name:      "hits_total",
			Help:      "Number of cache hits observed since the exporter started.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plaincache",
			Name:      "misses_total",
			Help:      "Number of cache misses observed since the exporter started.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plaincache",
			Name:      "evictions_total",
			Help:      "Number of entries evicted since the exporter started.",
		}),
		hitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plaincache",
			Name:      "hit_ratio",
			Help:      "Hit ratio over the most recent polling interval.",
		}),
	}
	reg.MustRegister(s.hits, s.misses, s.evictions, s.hitRatio)
	return s
}

func (s *promSink) observe(stats plaincache.Stats) {
	s.hits.Add(float64(stats.Hits))
	s.misses.Add(float64(stats.Misses))
	s.evictions.Add(float64(stats.Evictions))

	total := stats.Hits + stats.Misses
	if total > 0 {
		s.hitRatio.Set(float64(stats.Hits) / float64(total))
	}
}

// New builds an Exporter over source. If reg is nil the exporter still runs
// but every observation is discarded.
func New(source StatsSource, reg *prometheus.Registry) *Exporter {
	var sink metricsSink = noopSink{}
	if reg != nil {
		sink = newPromSink(reg)
	}
	return &Exporter{source: source, sink: sink}
}

// Run polls the cache's stats every interval and republishes them, blocking
// until ctx is canceled. Callers own the goroutine this runs on; the cache
// itself never starts one.
func (e *Exporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sink.observe(e.source.Stats())
		}
	}
}
