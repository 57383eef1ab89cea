// Package telemetry exposes prometheus metrics for the reasoning service.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry holds the service's metric collectors on a private registry.
type Telemetry struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	stageCalls      *prometheus.CounterVec
	complexityLevel *prometheus.CounterVec
	mediaInputs     *prometheus.CounterVec

	stageDuration   *prometheus.HistogramVec
	requestDuration prometheus.Histogram
}

// New creates and registers the service collectors.
func New() *Telemetry {
	t := &Telemetry{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codraft_requests_total",
			Help: "Chain of Draft requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		stageCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codraft_stage_calls_total",
			Help: "Model calls by stage and outcome.",
		}, []string{"stage", "outcome"}),
		complexityLevel: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codraft_complexity_level_total",
			Help: "Analyzed message complexity distribution.",
		}, []string{"level"}),
		mediaInputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codraft_media_inputs_total",
			Help: "Processed media inputs by type and outcome.",
		}, []string{"type", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codraft_stage_duration_seconds",
			Help:    "Model call latency per stage.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"stage"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "codraft_request_duration_seconds",
			Help:    "End-to-end request latency.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
	t.registry.MustRegister(t.requests, t.stageCalls, t.complexityLevel, t.mediaInputs, t.stageDuration, t.requestDuration)
	return t
}

// Handler serves the /metrics endpoint for this registry.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// RecordRequest records one completed request.
func (t *Telemetry) RecordRequest(mode string, ok bool, elapsed time.Duration) {
	if t == nil {
		return
	}
	t.requests.WithLabelValues(mode, outcome(ok)).Inc()
	t.requestDuration.Observe(elapsed.Seconds())
}

// RecordStage records one stage's model call.
func (t *Telemetry) RecordStage(stage string, ok bool, elapsed time.Duration) {
	if t == nil {
		return
	}
	t.stageCalls.WithLabelValues(stage, outcome(ok)).Inc()
	t.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// RecordComplexity records an analyzed complexity level.
func (t *Telemetry) RecordComplexity(level string) {
	if t == nil {
		return
	}
	t.complexityLevel.WithLabelValues(level).Inc()
}

// RecordMedia records one processed media input.
func (t *Telemetry) RecordMedia(mediaType string, ok bool) {
	if t == nil {
		return
	}
	t.mediaInputs.WithLabelValues(mediaType, outcome(ok)).Inc()
}
