package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// processorMetrics holds Prometheus metrics for pipeline runs.
type processorMetrics struct {
	buildsTotal        *prometheus.CounterVec // By dm_ct_id and status (valid/valid_with_ev/failed)
	validationFailures *prometheus.CounterVec // By dm_ct_id
	correctionsTotal   *prometheus.CounterVec // By dm_ct_id
	rdfUploads         *prometheus.CounterVec // By status (synced/failed/disabled)

	buildDuration *prometheus.HistogramVec // By dm_ct_id
}

// newProcessorMetrics creates and registers pipeline metrics. A nil
// registerer disables metrics.
func newProcessorMetrics(registerer prometheus.Registerer) (*processorMetrics, error) {
	if registerer == nil {
		return nil, nil // Metrics disabled
	}

	m := &processorMetrics{
		buildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdcpipeline",
			Subsystem: "processor",
			Name:      "builds_total",
			Help:      "Total number of instance builds by outcome",
		}, []string{"dm_ct_id", "status"}),

		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdcpipeline",
			Subsystem: "processor",
			Name:      "validation_failures_total",
			Help:      "Total number of builds that failed schema validation",
		}, []string{"dm_ct_id"}),

		correctionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdcpipeline",
			Subsystem: "processor",
			Name:      "corrections_total",
			Help:      "Total number of components auto-corrected with exceptional values",
		}, []string{"dm_ct_id"}),

		rdfUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdcpipeline",
			Subsystem: "processor",
			Name:      "rdf_uploads_total",
			Help:      "Total number of triplestore uploads by outcome",
		}, []string{"status"}),

		buildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sdcpipeline",
			Subsystem: "processor",
			Name:      "build_duration_seconds",
			Help:      "End-to-end pipeline duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"dm_ct_id"}),
	}

	collectors := []prometheus.Collector{
		m.buildsTotal,
		m.validationFailures,
		m.correctionsTotal,
		m.rdfUploads,
		m.buildDuration,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// recordBuild records a completed pipeline run.
func (m *processorMetrics) recordBuild(dmCTID, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.buildsTotal.WithLabelValues(dmCTID, status).Inc()
	m.buildDuration.WithLabelValues(dmCTID).Observe(duration.Seconds())
}

// recordCorrection records an auto-correction pass.
func (m *processorMetrics) recordCorrection(dmCTID string, corrected int) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(dmCTID).Inc()
	m.correctionsTotal.WithLabelValues(dmCTID).Add(float64(corrected))
}

// recordUpload records a triplestore upload outcome.
func (m *processorMetrics) recordUpload(status string) {
	if m == nil {
		return
	}
	m.rdfUploads.WithLabelValues(status).Inc()
}
