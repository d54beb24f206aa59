package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	passDuration  *prom.HistogramVec
	buildDuration prom.Histogram
	passResults   *prom.CounterVec
	buildOutcome  *prom.CounterVec
	fetchDuration *prom.HistogramVec
	fetchResults  *prom.CounterVec
	watchedPaths  prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.passDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "smartlatex",
			Name:      "pass_duration_seconds",
			Help:      "Duration of individual toolchain passes",
			Buckets:   prom.DefBuckets,
		}, []string{"tool"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "smartlatex",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.passResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "smartlatex",
			Name:      "pass_results_total",
			Help:      "Pass result counts by outcome",
		}, []string{"tool", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "smartlatex",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.fetchDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "smartlatex",
			Name:      "template_fetch_duration_seconds",
			Help:      "Duration of template source fetch operations",
			Buckets:   prom.DefBuckets,
		}, []string{"source", "result"})
		pr.fetchResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "smartlatex",
			Name:      "template_fetch_results_total",
			Help:      "Template fetch results by success/failure",
		}, []string{"result"})
		pr.watchedPaths = prom.NewGauge(prom.GaugeOpts{
			Namespace: "smartlatex",
			Name:      "watched_paths",
			Help:      "Directories currently registered with the file watcher",
		})
		reg.MustRegister(pr.passDuration, pr.buildDuration, pr.passResults, pr.buildOutcome, pr.fetchDuration, pr.fetchResults, pr.watchedPaths)
	})
	return pr
}

func (p *PrometheusRecorder) ObservePassDuration(tool string, d time.Duration) {
	if p == nil || p.passDuration == nil {
		return
	}
	p.passDuration.WithLabelValues(tool).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPassResult(tool string, result ResultLabel) {
	if p == nil || p.passResults == nil {
		return
	}
	p.passResults.WithLabelValues(tool, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveTemplateFetchDuration(source string, d time.Duration, success bool) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.fetchDuration.WithLabelValues(source, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTemplateFetch(success bool) {
	if p == nil || p.fetchResults == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.fetchResults.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) SetWatchedPaths(n int) {
	if p == nil || p.watchedPaths == nil {
		return
	}
	p.watchedPaths.Set(float64(n))
}
