package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
)

const namespace = "bookbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	passDuration  *prom.HistogramVec
	directives    *prom.CounterVec
	fetchDuration *prom.HistogramVec
	cacheHits     *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		passDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "language_pass_duration_seconds",
			Help:      "Duration of one language pass",
			Buckets:   prom.DefBuckets,
		}, []string{"lang", "result"}),
		directives: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "directives_expanded_total",
			Help:      "Expanded directives by name",
		}, []string{"directive"}),
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "repository_fetch_duration_seconds",
			Help:      "Duration of repository fetches",
			Buckets:   prom.DefBuckets,
		}, []string{"repo", "result"}),
		cacheHits: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "repository_cache_hits_total",
			Help:      "Repository lookups served from the build cache",
		}, []string{"repo"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.passDuration, pr.directives, pr.fetchDuration, pr.cacheHits)
	return pr
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, r ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(r)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObservePassDuration(lang string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	p.passDuration.WithLabelValues(lang, result(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDirective(name string) {
	if p == nil {
		return
	}
	p.directives.WithLabelValues(name).Inc()
}

func (p *PrometheusRecorder) ObserveFetch(repo string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	p.fetchDuration.WithLabelValues(repo, result(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCacheHit(repo string) {
	if p == nil {
		return
	}
	p.cacheHits.WithLabelValues(repo).Inc()
}

// WriteTextfile writes all metrics of reg to path in the text exposition format.
func WriteTextfile(reg *prom.Registry, path string) error {
	if err := prom.WriteToTextfile(path, reg); err != nil {
		return errors.FileSystemError("cannot write metrics file").WithCause(err).WithContext("path", path).Build()
	}
	return nil
}
