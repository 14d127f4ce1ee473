// Package metrics provides build and page render metrics for staticrender.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics can stay disabled without nil checks:
//
//	pipeline := render.NewPipeline(outDir, cache, writer).WithRecorder(rec)
//
// The watch command activates PrometheusRecorder and serves it through
// HTTPHandler when --metrics-addr is set.
package metrics
