// Package metrics exposes pagination instrumentation as prometheus
// collectors on a private registry.
package metrics

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const namespace = "gompage"

// Reconcile pass results
const (
	ResultApplied = "applied"
	ResultSkipped = "skipped"
	ResultForced  = "forced"
)

var (
	measurements = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "measurements_total",
			Help:      "Total metrics collection passes",
		},
	)

	reconcilePasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_passes_total",
			Help:      "Reconciliation passes by result (applied, skipped, forced)",
		},
		[]string{"result"},
	)

	reconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of reconciliation passes that mutated the document",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	markerOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "marker_operations_total",
			Help:      "Marker operations by action (removed, inserted, failed)",
		},
		[]string{"action"},
	)

	pageCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "page_count",
			Help:      "Page count of the last measurement",
		},
	)

	contentHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "content_height_pixels",
			Help:      "Content height of the last measurement in px",
		},
	)

	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// Init registers collectors. It is safe to call more than once.
func Init() {
	initOnce.Do(func() {
		registry.MustRegister(measurements, reconcilePasses, reconcileDuration, markerOps, pageCount, contentHeight)
	})
}

// Registry returns the registry the collectors live on
func Registry() *prometheus.Registry { return registry }

func ObserveMeasurement(pages int, height float64) {
	measurements.Inc()
	pageCount.Set(float64(pages))
	contentHeight.Set(height)
}

func IncReconcile(result string) { reconcilePasses.WithLabelValues(result).Inc() }

func ObserveReconcile(removed, inserted, failed int, dur time.Duration) {
	markerOps.WithLabelValues("removed").Add(float64(removed))
	markerOps.WithLabelValues("inserted").Add(float64(inserted))
	markerOps.WithLabelValues("failed").Add(float64(failed))
	reconcileDuration.Observe(dur.Seconds())
}

// WriteText writes every registered family in the prometheus text format
func WriteText(w io.Writer) error {
	Init()
	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Snapshot flattens counters and gauges into name{label="value"} keys.
// Histograms report their sample count.
func Snapshot() (map[string]float64, error) {
	Init()
	families, err := registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			out[seriesName(mf.GetName(), m.GetLabel())] = sampleValue(mf.GetType(), m)
		}
	}
	return out, nil
}

func seriesName(name string, labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, l := range labels {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", l.GetName(), l.GetValue())
	}
	b.WriteByte('}')
	return b.String()
}

func sampleValue(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	default:
		return m.GetUntyped().GetValue()
	}
}
