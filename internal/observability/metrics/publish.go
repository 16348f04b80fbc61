package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PublishMetrics contains Prometheus metrics for the publication state machine.
type PublishMetrics struct {
	transitionsTotal *prometheus.CounterVec
	undoRejections   *prometheus.CounterVec
}

// NewPublishMetrics creates and registers publish metrics with the registry.
func NewPublishMetrics(registry *prometheus.Registry) (*PublishMetrics, error) {
	m := &PublishMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vocalis_publish_transitions_total",
			Help: "Publication state machine transitions by action",
		}, []string{"action"}),
		undoRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vocalis_publish_undo_rejections_total",
			Help: "Undo attempts rejected, by reason",
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{m.transitionsTotal, m.undoRejections} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordTransition counts a completed transition ("publish", "undo", "save").
func (m *PublishMetrics) RecordTransition(action string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(action).Inc()
}

// RecordUndoRejection counts a refused undo ("expired", "already_undone", "not_published").
func (m *PublishMetrics) RecordUndoRejection(reason string) {
	if m == nil {
		return
	}
	m.undoRejections.WithLabelValues(reason).Inc()
}
