package metrics

import "time"

// PageResult enumerates page task outcomes for counters.
type PageResult string

const (
	PageWritten PageResult = "written"
	PageCached  PageResult = "cached"
	PageFailed  PageResult = "failed"
)

// TriggerOutcome enumerates how a build trigger finished.
type TriggerOutcome string

const (
	TriggerSuccess TriggerOutcome = "success"
	TriggerFailed  TriggerOutcome = "failed"
)

// Recorder defines observability hooks for sub-builds and page renders.
type Recorder interface {
	ObserveSubBuildDuration(mode string, d time.Duration)
	ObservePageDuration(d time.Duration)
	IncPageResult(result PageResult)
	IncTriggerOutcome(mode string, outcome TriggerOutcome)
	SetWatchActive(active bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveSubBuildDuration(string, time.Duration)  {}
func (NoopRecorder) ObservePageDuration(time.Duration)              {}
func (NoopRecorder) IncPageResult(PageResult)                       {}
func (NoopRecorder) IncTriggerOutcome(string, TriggerOutcome)       {}
func (NoopRecorder) SetWatchActive(bool)                            {}
