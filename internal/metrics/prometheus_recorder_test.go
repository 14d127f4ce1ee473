package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveSubBuildDuration("run", 150*time.Millisecond)
	pr.ObservePageDuration(20 * time.Millisecond)
	pr.IncPageResult(PageWritten)
	pr.IncPageResult(PageWritten)
	pr.IncPageResult(PageCached)
	pr.IncTriggerOutcome("run", TriggerSuccess)
	pr.SetWatchActive(true)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)

	assert.InDelta(t, 2, testutil.ToFloat64(pr.pageResults.WithLabelValues(string(PageWritten))), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.pageResults.WithLabelValues(string(PageCached))), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.watchActive), 0)

	pr.SetWatchActive(false)
	assert.InDelta(t, 0, testutil.ToFloat64(pr.watchActive), 0)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncPageResult(PageFailed)
		pr.ObservePageDuration(time.Second)
		pr.SetWatchActive(true)
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncPageResult(PageFailed)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "staticrender_page_results_total")
}

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)
