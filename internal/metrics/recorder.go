package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for builds, language passes,
// directives and repository fetches. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|failed|canceled
	ObservePassDuration(lang string, d time.Duration, success bool)
	IncDirective(name string)
	ObserveFetch(repo string, d time.Duration, success bool)
	IncCacheHit(repo string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)      {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)              {}
func (NoopRecorder) IncStageResult(string, ResultLabel)              {}
func (NoopRecorder) IncBuildOutcome(string)                          {}
func (NoopRecorder) ObservePassDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncDirective(string)                             {}
func (NoopRecorder) ObserveFetch(string, time.Duration, bool)        {}
func (NoopRecorder) IncCacheHit(string)                              {}
