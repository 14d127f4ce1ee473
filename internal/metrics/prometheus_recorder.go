package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	subBuildDuration *prom.HistogramVec
	pageDuration     prom.Histogram
	pageResults      *prom.CounterVec
	triggerOutcomes  *prom.CounterVec
	watchActive      prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.subBuildDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "staticrender",
			Name:      "sub_build_duration_seconds",
			Help:      "Duration of sub-build compilations",
			Buckets:   prom.DefBuckets,
		}, []string{"mode"})
		pr.pageDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "staticrender",
			Name:      "page_render_duration_seconds",
			Help:      "Duration of individual page render tasks",
			Buckets:   prom.DefBuckets,
		})
		pr.pageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "staticrender",
			Name:      "page_results_total",
			Help:      "Page render outcomes (written, cached, failed)",
		}, []string{"result"})
		pr.triggerOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "staticrender",
			Name:      "trigger_outcomes_total",
			Help:      "Build trigger outcomes by mode",
		}, []string{"mode", "outcome"})
		pr.watchActive = prom.NewGauge(prom.GaugeOpts{
			Namespace: "staticrender",
			Name:      "watch_active",
			Help:      "1 while a sub-build watcher is running",
		})
		reg.MustRegister(pr.subBuildDuration, pr.pageDuration, pr.pageResults, pr.triggerOutcomes, pr.watchActive)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveSubBuildDuration(mode string, d time.Duration) {
	if p == nil || p.subBuildDuration == nil {
		return
	}
	p.subBuildDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePageDuration(d time.Duration) {
	if p == nil || p.pageDuration == nil {
		return
	}
	p.pageDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageResult(result PageResult) {
	if p == nil || p.pageResults == nil {
		return
	}
	p.pageResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncTriggerOutcome(mode string, outcome TriggerOutcome) {
	if p == nil || p.triggerOutcomes == nil {
		return
	}
	p.triggerOutcomes.WithLabelValues(mode, string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetWatchActive(active bool) {
	if p == nil || p.watchActive == nil {
		return
	}
	if active {
		p.watchActive.Set(1)
		return
	}
	p.watchActive.Set(0)
}
