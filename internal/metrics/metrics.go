// Package metrics exposes prometheus collectors describing the sync engine:
// processed snapshots, remote writes, coalesced mutations, credential
// refreshes and the size of the cached profile.
//
// All methods are safe to call on a nil *SyncMetrics, which records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "clipkeeper"

// Snapshot results.
const (
	SnapshotApplied     = "applied"
	SnapshotEmpty       = "empty"
	SnapshotDecodeError = "decode_error"
	SnapshotStale       = "stale"
	SnapshotError       = "transport_error"
)

// SyncMetrics holds the engine collectors on a dedicated registry.
type SyncMetrics struct {
	registry *prometheus.Registry

	snapshots         *prometheus.CounterVec
	remoteWrites      *prometheus.CounterVec
	coalesced         *prometheus.CounterVec
	credentialRefresh *prometheus.CounterVec

	clips   prometheus.Gauge
	devices prometheus.Gauge
	state   prometheus.Gauge
}

// NewSyncMetrics creates the collectors and registers them, together with
// the Go runtime and process collectors, on a new registry.
func NewSyncMetrics() *SyncMetrics {
	m := &SyncMetrics{
		registry: prometheus.NewRegistry(),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Remote snapshots processed, by result.",
		}, []string{"result"}),
		remoteWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_writes_total",
			Help:      "Profile writes issued to the remote store, by mutation kind and result.",
		}, []string{"kind", "result"}),
		coalesced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coalesced_mutations_total",
			Help:      "Mutations buffered behind an in-flight write of the same kind.",
		}, []string{"kind"}),
		credentialRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credential_refresh_total",
			Help:      "Access token refresh attempts, by result.",
		}, []string{"result"}),
		clips: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clips",
			Help:      "Clips in the cached profile.",
		}),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices",
			Help:      "Devices in the cached profile.",
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Current engine state (0 uninitialized, 1 awaiting auth, 2 subscribing, 3 synced, 4 faulted).",
		}),
	}

	m.registry.MustRegister(
		m.snapshots,
		m.remoteWrites,
		m.coalesced,
		m.credentialRefresh,
		m.clips,
		m.devices,
		m.state,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *SyncMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *SyncMetrics) ObserveSnapshot(result string) {
	if m == nil {
		return
	}
	m.snapshots.WithLabelValues(result).Inc()
}

func (m *SyncMetrics) ObserveWrite(kind string, err error) {
	if m == nil {
		return
	}
	m.remoteWrites.WithLabelValues(kind, result(err)).Inc()
}

func (m *SyncMetrics) ObserveCoalesced(kind string) {
	if m == nil {
		return
	}
	m.coalesced.WithLabelValues(kind).Inc()
}

func (m *SyncMetrics) ObserveRefresh(err error) {
	if m == nil {
		return
	}
	m.credentialRefresh.WithLabelValues(result(err)).Inc()
}

// SetProfile records the size of the cached profile.
func (m *SyncMetrics) SetProfile(clips, devices int) {
	if m == nil {
		return
	}
	m.clips.Set(float64(clips))
	m.devices.Set(float64(devices))
}

func (m *SyncMetrics) SetState(state int) {
	if m == nil {
		return
	}
	m.state.Set(float64(state))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
