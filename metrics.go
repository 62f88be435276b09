package cspace

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts cache and synchronization activity of a CollisionSpace. A
// nil *Metrics records nothing.
type Metrics struct {
	syncPerformed  prometheus.Counter
	syncSkipped    prometheus.Counter
	recordBuilds   prometheus.Counter
	groupSwitches  *prometheus.CounterVec // result: cached, built
	linkRegistry   *prometheus.CounterVec // event: register, update, unregister
	trackedBodies  prometheus.Gauge
	excludedBodies prometheus.Gauge
}

// NewMetrics registers the space metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		syncPerformed: f.NewCounter(prometheus.CounterOpts{
			Name: "cspace_synchronizations_total",
			Help: "Body synchronizations that recomputed poses",
		}),
		syncSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "cspace_synchronizations_skipped_total",
			Help: "Body synchronizations skipped because the stamp was current",
		}),
		recordBuilds: f.NewCounter(prometheus.CounterOpts{
			Name: "cspace_body_record_builds_total",
			Help: "Body records built from kinematic geometry",
		}),
		groupSwitches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cspace_geometry_group_switches_total",
			Help: "Effective geometry group switches",
		}, []string{"result"}),
		linkRegistry: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cspace_link_registry_events_total",
			Help: "Environment manager membership events of link bounding proxies",
		}, []string{"event"}),
		trackedBodies: f.NewGauge(prometheus.GaugeOpts{
			Name: "cspace_tracked_bodies",
			Help: "Bodies tracked by the collision space",
		}),
		excludedBodies: f.NewGauge(prometheus.GaugeOpts{
			Name: "cspace_excluded_bodies",
			Help: "Bodies waiting to be added to the environment manager",
		}),
	}
}

func (m *Metrics) synchronized(performed bool) {
	if m == nil {
		return
	}
	if performed {
		m.syncPerformed.Inc()
	} else {
		m.syncSkipped.Inc()
	}
}

func (m *Metrics) recordBuilt() {
	if m == nil {
		return
	}
	m.recordBuilds.Inc()
}

func (m *Metrics) groupSwitched(result string) {
	if m == nil {
		return
	}
	m.groupSwitches.WithLabelValues(result).Inc()
}

func (m *Metrics) linkEvent(event string) {
	if m == nil {
		return
	}
	m.linkRegistry.WithLabelValues(event).Inc()
}

func (m *Metrics) bodies(tracked, excluded int) {
	if m == nil {
		return
	}
	m.trackedBodies.Set(float64(tracked))
	m.excludedBodies.Set(float64(excluded))
}
