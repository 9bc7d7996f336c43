// Package prom exports cache metrics to Prometheus.
package prom

import (
	"github.com/IvanBrykalov/costcache/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// reasons lists every eviction reason the cache reports, indexed by value.
var reasons = [...]cache.EvictReason{cache.EvictCost, cache.EvictCount, cache.EvictDiscarded}

// Adapter implements cache.Metrics on top of Prometheus collectors.
// Safe for concurrent use.
type Adapter struct {
	reg prometheus.Registerer

	hits     prometheus.Counter
	misses   prometheus.Counter
	evicts   *prometheus.CounterVec
	byReason [len(reasons)]prometheus.Counter
	unknown  prometheus.Counter
	entries  prometheus.Gauge
	cost     prometheus.Gauge
}

// New registers the cache collectors with reg (nil => prometheus.DefaultRegisterer)
// under namespace ns and subsystem sub. constLabels, e.g. {"cache": name},
// tell apart several caches sharing one registry. New panics if the
// collectors are already registered.
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: ns, Subsystem: sub, Name: name, Help: help, ConstLabels: constLabels}
	}

	a := &Adapter{
		reg:     reg,
		hits:    prometheus.NewCounter(prometheus.CounterOpts(opts("hits_total", "Lookups that found a resident entry"))),
		misses:  prometheus.NewCounter(prometheus.CounterOpts(opts("misses_total", "Lookups that found nothing"))),
		evicts:  prometheus.NewCounterVec(prometheus.CounterOpts(opts("evictions_total", "Entries removed by the cache, by reason")), []string{"reason"}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts(opts("size_entries", "Entries counted toward the count limit"))),
		cost:    prometheus.NewGauge(prometheus.GaugeOpts(opts("size_cost", "Sum of the costs of resident entries"))),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts, a.entries, a.cost)

	// Bind every known reason once; the series export as zero until used.
	for i, r := range reasons {
		a.byReason[i] = a.evicts.WithLabelValues(r.String())
	}
	a.unknown = a.evicts.WithLabelValues(cache.EvictReason(-1).String())
	return a
}

// Unregister removes the collectors from the registry New used.
func (a *Adapter) Unregister() {
	for _, c := range []prometheus.Collector{a.hits, a.misses, a.evicts, a.entries, a.cost} {
		a.reg.Unregister(c)
	}
}

func (a *Adapter) Hit()  { a.hits.Inc() }
func (a *Adapter) Miss() { a.misses.Inc() }

func (a *Adapter) Evict(r cache.EvictReason) {
	if r >= 0 && int(r) < len(a.byReason) {
		a.byReason[r].Inc()
		return
	}
	a.unknown.Inc()
}

// Size sets both gauges. The cache calls it in mutation order.
func (a *Adapter) Size(entries int, cost int64) {
	a.entries.Set(float64(entries))
	a.cost.Set(float64(cost))
}

var _ cache.Metrics = (*Adapter)(nil)
