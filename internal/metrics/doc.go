// Package metrics provides build metrics for bookbuilder.
//
// Components hold a Recorder and default to NoopRecorder, so metrics never
// need nil checks. The build command swaps in a PrometheusRecorder when a
// metrics file is configured and writes the registry in the node-exporter
// textfile format once the build finishes:
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	builder := build.New(cfg).WithRecorder(rec)
//	...
//	metrics.WriteTextfile(reg, cfg.MetricsFile)
package metrics
