package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SightingsReceived counts advertisement events delivered by the source
	SightingsReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blemap",
			Name:      "sightings_received_total",
			Help:      "Total number of advertisement events delivered by the scanner",
		},
	)

	// SightingsDropped counts events filtered before reaching the store
	SightingsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blemap",
			Name:      "sightings_dropped_total",
			Help:      "Total number of advertisement events dropped before ingestion",
		},
		[]string{"reason"},
	)

	// TransactionsPersisted counts sightings durably written
	TransactionsPersisted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blemap",
			Name:      "transactions_persisted_total",
			Help:      "Total number of sighting transactions written to storage",
		},
	)

	// PersistenceErrors counts failed storage writes by record kind
	PersistenceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blemap",
			Name:      "persistence_errors_total",
			Help:      "Total number of failed storage writes",
		},
		[]string{"kind"},
	)

	// RawActiveDevices tracks the raw identity count of the last tick
	RawActiveDevices = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "blemap",
			Name:      "raw_active_devices",
			Help:      "Raw identities inside the presence window at the last tick",
		},
	)

	// LogicalDevices tracks the merged device count of the last tick
	LogicalDevices = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "blemap",
			Name:      "logical_devices",
			Help:      "Logical devices resolved at the last tick",
		},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// This function is idempotent and can be called multiple times safely.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(SightingsReceived)
		prometheus.DefaultRegisterer.Register(SightingsDropped)
		prometheus.DefaultRegisterer.Register(TransactionsPersisted)
		prometheus.DefaultRegisterer.Register(PersistenceErrors)
		prometheus.DefaultRegisterer.Register(RawActiveDevices)
		prometheus.DefaultRegisterer.Register(LogicalDevices)
	})
}
