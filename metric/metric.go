// Package metric measures units flowing through pipe stages.
//
// Every pipe gets its own prometheus registry, so multiple pipes in one
// process don't collide. The registry can be exposed with promhttp by the
// embedding application.
package metric

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "textpipe"

const (
	// ReceivedCounter measures number of units fetched from upstream.
	ReceivedCounter = "received"
	// SentCounter measures number of units put downstream.
	SentCounter = "sent"
)

const (
	// FailureReason labels units dropped by a stage after it failed.
	FailureReason = "failure"
	// IncompleteReason labels units of an incomplete record dropped when
	// the stream ends.
	IncompleteReason = "incomplete"
)

var labels = []string{"stage", "position"}

// Metric holds counters of all stages of a single pipe.
type Metric struct {
	registry  *prometheus.Registry
	units     *prometheus.CounterVec
	discarded *prometheus.CounterVec
	records   *prometheus.CounterVec
	stages    prometheus.Gauge
}

// New creates a metric with a fresh registry.
func New() *Metric {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metric{
		registry: reg,
		units: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_units_total",
				Help:      "Total number of units moved by a stage.",
			},
			append(labels, "direction"),
		),
		discarded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discarded_units_total",
				Help:      "Total number of units dropped by a stage.",
			},
			append(labels, "reason"),
		),
		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Total number of complete records handled by a stage.",
			},
			labels,
		),
		stages: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stages_active",
				Help:      "Number of stages that are not closed yet.",
			},
		),
	}
}

// Registry returns the registry all counters are registered in.
func (m *Metric) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Meter returns counters for the stage at provided position. Nil metric
// returns nil meter, all its methods are no-op.
func (m *Metric) Meter(component interface{}, position int) *Meter {
	if m == nil {
		return nil
	}
	stage, pos := StageName(component), strconv.Itoa(position)
	return &Meter{
		received:  m.units.WithLabelValues(stage, pos, ReceivedCounter),
		sent:      m.units.WithLabelValues(stage, pos, SentCounter),
		failed:    m.discarded.WithLabelValues(stage, pos, FailureReason),
		truncated: m.discarded.WithLabelValues(stage, pos, IncompleteReason),
		records:   m.records.WithLabelValues(stage, pos),
		stages:    m.stages,
	}
}

// Snapshot returns current values of all counters. Keys are metric names
// followed by label values, ordered by label name, joined with dots.
func (m *Metric) Snapshot() (map[string]float64, error) {
	if m == nil {
		return nil, nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	s := make(map[string]float64)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			s[key(f.GetName(), metric)] = value(metric)
		}
	}
	return s, nil
}

// Meter captures counters of a single stage.
type Meter struct {
	received  prometheus.Counter
	sent      prometheus.Counter
	failed    prometheus.Counter
	truncated prometheus.Counter
	records   prometheus.Counter
	stages    prometheus.Gauge
}

// Start marks stage as active.
func (m *Meter) Start() {
	if m != nil {
		m.stages.Inc()
	}
}

// Stop marks stage as closed.
func (m *Meter) Stop() {
	if m != nil {
		m.stages.Dec()
	}
}

// Received counts a unit fetched from upstream.
func (m *Meter) Received() {
	if m != nil {
		m.received.Inc()
	}
}

// Sent counts a unit put downstream.
func (m *Meter) Sent() {
	if m != nil {
		m.sent.Inc()
	}
}

// Discarded counts n units dropped after stage failure.
func (m *Meter) Discarded(n int) {
	if m != nil && n > 0 {
		m.failed.Add(float64(n))
	}
}

// Truncated counts n units of incomplete record dropped at the end of
// the stream.
func (m *Meter) Truncated(n int) {
	if m != nil && n > 0 {
		m.truncated.Add(float64(n))
	}
}

// Records counts n complete records.
func (m *Meter) Records(n int) {
	if m != nil && n > 0 {
		m.records.Add(float64(n))
	}
}

// StageName returns the name of component type without pointers, like
// "collapse.Processor".
func StageName(component interface{}) string {
	if component == nil {
		return "nil"
	}
	t := reflect.TypeOf(component)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

func key(family string, m *dto.Metric) string {
	k := family
	for _, l := range m.GetLabel() {
		k = k + "." + l.GetValue()
	}
	return k
}

func value(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	}
	return 0
}
