package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "hostsfile_webhook"

type providerMetrics struct {
	changes         *prometheus.CounterVec
	persistFailures prometheus.Counter
	records         prometheus.Gauge
}

// newProviderMetrics registers the provider metrics with reg. A nil reg
// leaves them unregistered.
func newProviderMetrics(reg prometheus.Registerer) *providerMetrics {
	factory := promauto.With(reg)
	return &providerMetrics{
		changes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "entry_changes_total",
			Help:      "Hosts file entries added or removed, by action.",
		}, []string{"action"}),
		persistFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "persist_failures_total",
			Help:      "Failed writes of the hosts file.",
		}),
		records: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "records",
			Help:      "Records found in the hosts file on the last read.",
		}),
	}
}
