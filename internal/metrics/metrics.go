// Package metrics exposes Prometheus counters for the feed cache.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "feedclient"

type Metrics struct {
	FetchesTotal   *prometheus.CounterVec
	FetchesShared  prometheus.Counter
	PagesAppended  *prometheus.CounterVec
	MutationsTotal *prometheus.CounterVec
	PendingGauge   prometheus.Gauge
}

// New registers the collectors with reg. A nil reg keeps them unregistered,
// which is what tests usually want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Upstream feed page fetches by view kind and outcome",
		}, []string{"view", "outcome"}),

		FetchesShared: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_shared_total",
			Help:      "Page loads whose upstream fetch was shared with another caller",
		}),

		PagesAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_appended_total",
			Help:      "Pages appended to cached views",
		}, []string{"view"}),

		MutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Mutations by kind and terminal state",
		}, []string{"kind", "state"}),

		PendingGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mutations_pending",
			Help:      "Mutations issued and not yet confirmed or rolled back",
		}),
	}
}
