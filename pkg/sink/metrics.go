package sink

import (
	"github.com/prometheus/client_golang/prometheus"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
)

// MetricsRecorder is an EventSink that records hit/miss/error counters
// and gpu/transform latency histograms. It is additive: registering it
// alongside an EventLogger or MockUISubscriber costs the pipeline nothing
// beyond the counter increment, since the service never holds its own
// locks while fanning events out.
type MetricsRecorder struct {
	events    *prometheus.CounterVec
	gpuMs     prometheus.Histogram
	colorMs   prometheus.Histogram
}

// NewMetricsRecorder builds a recorder and registers its collectors with
// reg. Passing prometheus.NewRegistry() (rather than the global default
// registry) keeps tests hermetic.
func NewMetricsRecorder(reg prometheus.Registerer) *MetricsRecorder {
	m := &MetricsRecorder{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cataloger_cache_events_total",
			Help: "Preview cache events by tier and outcome.",
		}, []string{"tier", "outcome"}),
		gpuMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cataloger_gpu_upload_ms",
			Help:    "GPU texture upload duration in milliseconds.",
			Buckets: prometheus.DefBuckets,
		}),
		colorMs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cataloger_color_transform_ms",
			Help:    "ICC color transform duration in milliseconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.events, m.gpuMs, m.colorMs)
	}
	return m
}

func (m *MetricsRecorder) Handle(event v1.CacheEvent) {
	outcome := "miss"
	switch {
	case event.Error:
		outcome = "error"
	case event.Hit:
		outcome = "hit"
	}
	m.events.WithLabelValues(string(event.Tier), outcome).Inc()

	if event.GpuUploadMs > 0 {
		m.gpuMs.Observe(event.GpuUploadMs)
	}
	if event.ColorTransformMs > 0 {
		m.colorMs.Observe(event.ColorTransformMs)
	}
}
