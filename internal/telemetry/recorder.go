// Package telemetry counts boundary events and exposes them as Prometheus
// metrics.
package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/nupi-ai/plugin-suno-core/internal/status"
)

const namespace = "suno"

// Recorder tracks boundary-level telemetry. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	log      *slog.Logger
	registry *prometheus.Registry

	totalInits      atomic.Uint64
	failedInits     atomic.Uint64
	totalCalls      atomic.Uint64
	failedCalls     atomic.Uint64
	activeCalls     atomic.Int64
	installs        atomic.Uint64
	closes          atomic.Uint64
	handlesIssued   atomic.Uint64
	handlesFreed    atomic.Uint64
	handlesRejected atomic.Uint64

	initsTotal       *prometheus.CounterVec
	callsTotal       *prometheus.CounterVec
	callsActive      prometheus.Gauge
	capabilities     *prometheus.CounterVec
	handles          *prometheus.CounterVec
	handlesLive      prometheus.GaugeFunc
	initSeconds      prometheus.Histogram
	inferenceSeconds prometheus.Histogram
}

// Snapshot captures cumulative metrics recorded so far.
type Snapshot struct {
	TotalInits         uint64
	FailedInits        uint64
	TotalCalls         uint64
	FailedCalls        uint64
	ActiveCalls        int64
	Installs           uint64
	Closes             uint64
	HandlesIssued      uint64
	HandlesFreed       uint64
	HandlesRejected    uint64
	HandlesOutstanding int64
}

// NewRecorder constructs a Recorder registered in its own Prometheus
// registry.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		log:      logger.With("component", "telemetry.Recorder"),
		registry: prometheus.NewRegistry(),
	}
	r.initMetrics()
	r.registry.MustRegister(r)
	return r
}

func (r *Recorder) initMetrics() {
	r.initsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "init_total",
		Help:      "Calls to suno_init by result",
	}, []string{"result"})

	r.callsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "process_total",
		Help:      "Calls to suno_process_audio by result",
	}, []string{"result"})

	r.callsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "process_active",
		Help:      "Calls to suno_process_audio currently running",
	})

	r.capabilities = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_events_total",
		Help:      "Pipeline capability lifecycle events",
	}, []string{"event"})

	r.handles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handles_total",
		Help:      "Text handles issued to and returned by the caller",
	}, []string{"event"})

	r.handlesLive = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "handles_outstanding",
		Help:      "Text handles issued but not yet freed",
	}, func() float64 {
		return float64(r.outstanding())
	})

	r.initSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "init_duration_seconds",
		Help:      "Time spent loading models in suno_init",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	r.inferenceSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "inference_duration_seconds",
		Help:      "Time spent inside the pipeline per suno_process_audio call",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	})
}

// Describe implements the prometheus.Collector interface.
func (r *Recorder) Describe(ch chan<- *prometheus.Desc) {
	r.initsTotal.Describe(ch)
	r.callsTotal.Describe(ch)
	ch <- r.callsActive.Desc()
	r.capabilities.Describe(ch)
	r.handles.Describe(ch)
	ch <- r.handlesLive.Desc()
	ch <- r.initSeconds.Desc()
	ch <- r.inferenceSeconds.Desc()
}

// Collect implements the prometheus.Collector interface.
func (r *Recorder) Collect(ch chan<- prometheus.Metric) {
	r.initsTotal.Collect(ch)
	r.callsTotal.Collect(ch)
	ch <- r.callsActive
	r.capabilities.Collect(ch)
	r.handles.Collect(ch)
	ch <- r.handlesLive
	ch <- r.initSeconds
	ch <- r.inferenceSeconds
}

// Registry returns the registry the recorder is registered in.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteText writes every metric in the Prometheus text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	if r == nil {
		return nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("telemetry: gather: %w", err)
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return fmt.Errorf("telemetry: encode %s: %w", family.GetName(), err)
		}
	}
	return nil
}

// Snapshot returns an immutable view of the recorder totals.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		TotalInits:         r.totalInits.Load(),
		FailedInits:        r.failedInits.Load(),
		TotalCalls:         r.totalCalls.Load(),
		FailedCalls:        r.failedCalls.Load(),
		ActiveCalls:        r.activeCalls.Load(),
		Installs:           r.installs.Load(),
		Closes:             r.closes.Load(),
		HandlesIssued:      r.handlesIssued.Load(),
		HandlesFreed:       r.handlesFreed.Load(),
		HandlesRejected:    r.handlesRejected.Load(),
		HandlesOutstanding: r.outstanding(),
	}
}

func (r *Recorder) outstanding() int64 {
	return int64(r.handlesIssued.Load()) - int64(r.handlesFreed.Load())
}

// RecordInit counts a suno_init call that took elapsed.
func (r *Recorder) RecordInit(err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.totalInits.Add(1)
	if err != nil {
		r.failedInits.Add(1)
	}
	r.initsTotal.WithLabelValues(status.Kind(err)).Inc()
	r.initSeconds.Observe(elapsed.Seconds())
}

// RecordInstall counts a capability made current.
func (r *Recorder) RecordInstall() {
	if r == nil {
		return
	}
	r.installs.Add(1)
	r.capabilities.WithLabelValues("installed").Inc()
}

// RecordClose counts a capability closed after its last reference.
func (r *Recorder) RecordClose(err error) {
	if r == nil {
		return
	}
	r.closes.Add(1)
	if err != nil {
		r.capabilities.WithLabelValues("close_failed").Inc()
		return
	}
	r.capabilities.WithLabelValues("closed").Inc()
}

// RecordHandlesIssued counts n text handles handed to the caller.
func (r *Recorder) RecordHandlesIssued(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.handlesIssued.Add(uint64(n))
	r.handles.WithLabelValues("issued").Add(float64(n))
}

// RecordFree counts a suno_free_string call. Rejected frees name pointers
// the library never issued or already freed.
func (r *Recorder) RecordFree(accepted bool) {
	if r == nil {
		return
	}
	if !accepted {
		r.handlesRejected.Add(1)
		r.handles.WithLabelValues("rejected").Inc()
		r.log.Warn("free of unknown or already freed handle ignored")
		return
	}
	r.handlesFreed.Add(1)
	r.handles.WithLabelValues("freed").Inc()
}

// CallMetrics accumulates statistics for a single suno_process_audio call.
type CallMetrics struct {
	recorder *Recorder
	started  time.Time
	closed   atomic.Bool
}

// StartCall marks the beginning of a process call.
func (r *Recorder) StartCall() *CallMetrics {
	if r == nil {
		return nil
	}
	r.totalCalls.Add(1)
	r.activeCalls.Add(1)
	r.callsActive.Inc()
	return &CallMetrics{recorder: r, started: time.Now()}
}

// ObserveInference records time spent inside the pipeline.
func (c *CallMetrics) ObserveInference(elapsed time.Duration) {
	if c == nil {
		return
	}
	c.recorder.inferenceSeconds.Observe(elapsed.Seconds())
}

// Finish records the call outcome. Only the first call has an effect.
func (c *CallMetrics) Finish(err error) {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return
	}
	r := c.recorder
	r.activeCalls.Add(-1)
	r.callsActive.Dec()
	if err != nil {
		r.failedCalls.Add(1)
	}
	r.callsTotal.WithLabelValues(status.Kind(err)).Inc()
}

// Elapsed returns the time since the call started.
func (c *CallMetrics) Elapsed() time.Duration {
	if c == nil {
		return 0
	}
	return time.Since(c.started)
}
