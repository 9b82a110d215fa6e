package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campushub/campushub-api/pkg/jobs"
)

const metricsNamespace = "campushub"

// MetricsSnapshot is the JSON summary served by /health.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	ScheduleRuns             uint64    `json:"schedule_runs"`
	ImportedRows             uint64    `json:"imported_rows"`
	JobsDone                 uint64    `json:"jobs_done"`
	JobsDropped              uint64    `json:"jobs_dropped"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// counters backs the snapshot; Prometheus collectors cannot be read back cheaply.
type counters struct {
	requests     atomic.Uint64
	requestNanos atomic.Uint64
	cacheHits    atomic.Uint64
	cacheMisses  atomic.Uint64
	scheduleRuns atomic.Uint64
	importedRows atomic.Uint64
	jobsDone     atomic.Uint64
	jobsDropped  atomic.Uint64
}

// MetricsService owns a private Prometheus registry. A nil *MetricsService is
// valid and records nothing.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler
	totals   counters

	httpLatency *prometheus.HistogramVec
	httpCount   *prometheus.CounterVec

	cacheReads  *prometheus.HistogramVec
	cacheWrites prometheus.Histogram

	generatorRuns    *prometheus.CounterVec
	generatorLatency prometheus.Histogram
	generatedEntries *prometheus.CounterVec
	skippedModules   *prometheus.CounterVec
	importedRows     *prometheus.CounterVec

	jobRuns *prometheus.CounterVec
}

func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.httpLatency = m.histogramVec("http", "request_duration_seconds", "HTTP request latency by route template.", prometheus.DefBuckets, "method", "route", "status")
	m.httpCount = m.counterVec("http", "requests_total", "HTTP requests by route template.", "method", "route", "status")

	m.cacheReads = m.histogramVec("draft_cache", "read_seconds", "Draft cache read latency by result.", prometheus.ExponentialBuckets(0.0005, 2, 12), "result")
	m.cacheWrites = m.histogram("draft_cache", "write_seconds", "Draft cache write latency.", prometheus.ExponentialBuckets(0.0005, 2, 12))

	// Generation walks every module and slot, so it gets wider buckets than HTTP.
	m.generatorRuns = m.counterVec("scheduler", "runs_total", "Schedule generator runs by outcome.", "outcome")
	m.generatorLatency = m.histogram("scheduler", "run_seconds", "Schedule generator run duration.", []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30})
	m.generatedEntries = m.counterVec("scheduler", "entries_total", "Generated schedule entries by kind.", "kind")
	m.skippedModules = m.counterVec("scheduler", "skipped_total", "Modules the generator could not place, by kind.", "kind")
	m.importedRows = m.counterVec("scheduler", "import_rows_total", "Imported spreadsheet rows by result.", "result")

	m.jobRuns = m.counterVec("jobs", "runs_total", "Background job runs by type and outcome.", "type", "outcome")

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

func (m *MetricsService) counterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: metricsNamespace, Subsystem: subsystem, Name: name, Help: help}, labels)
	m.registry.MustRegister(c)
	return c
}

func (m *MetricsService) histogramVec(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: metricsNamespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets}, labels)
	m.registry.MustRegister(h)
	return h
}

func (m *MetricsService) histogram(subsystem, name, help string, buckets []float64) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: metricsNamespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets})
	m.registry.MustRegister(h)
	return h
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics disabled", http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpLatency.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.httpCount.WithLabelValues(method, route, code).Inc()
	m.totals.requests.Add(1)
	m.totals.requestNanos.Add(uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records one draft cache read.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
		m.totals.cacheHits.Add(1)
	} else {
		m.totals.cacheMisses.Add(1)
	}
	m.cacheReads.WithLabelValues(result).Observe(duration.Seconds())
}

func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrites.Observe(duration.Seconds())
}

// ObserveScheduleRun records one generator run. Entry and skip counts are
// only added for successful runs.
func (m *MetricsService) ObserveScheduleRun(classes, exams, classSkips, examSkips int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.totals.scheduleRuns.Add(1)
	m.generatorLatency.Observe(duration.Seconds())
	if err != nil {
		m.generatorRuns.WithLabelValues("error").Inc()
		return
	}
	m.generatorRuns.WithLabelValues("success").Inc()
	m.generatedEntries.WithLabelValues("class").Add(float64(classes))
	m.generatedEntries.WithLabelValues("exam").Add(float64(exams))
	m.skippedModules.WithLabelValues("class").Add(float64(classSkips))
	m.skippedModules.WithLabelValues("exam").Add(float64(examSkips))
}

func (m *MetricsService) ObserveImport(succeeded, failed int) {
	if m == nil {
		return
	}
	m.totals.importedRows.Add(uint64(succeeded + failed))
	m.importedRows.WithLabelValues("success").Add(float64(succeeded))
	m.importedRows.WithLabelValues("error").Add(float64(failed))
}

// ObserveJob matches jobs.Config.Observe.
func (m *MetricsService) ObserveJob(jobType, outcome string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(jobType, outcome).Inc()
	switch outcome {
	case jobs.OutcomeDone:
		m.totals.jobsDone.Add(1)
	case jobs.OutcomeDropped:
		m.totals.jobsDropped.Add(1)
	}
}

func (m *MetricsService) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Goroutines: runtime.NumGoroutine(), GeneratedAt: time.Now().UTC()}
	if m == nil {
		return snap
	}
	t := &m.totals
	snap.RequestsTotal = t.requests.Load()
	if snap.RequestsTotal > 0 {
		snap.AverageRequestDurationMs = float64(t.requestNanos.Load()) / float64(snap.RequestsTotal) / float64(time.Millisecond)
	}
	if reads := t.cacheHits.Load() + t.cacheMisses.Load(); reads > 0 {
		snap.CacheHitRatio = float64(t.cacheHits.Load()) / float64(reads)
	}
	snap.ScheduleRuns = t.scheduleRuns.Load()
	snap.ImportedRows = t.importedRows.Load()
	snap.JobsDone = t.jobsDone.Load()
	snap.JobsDropped = t.jobsDropped.Load()
	return snap
}
