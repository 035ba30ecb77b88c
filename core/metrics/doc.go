// Package metrics defines the sinks that record analysis results for
// observability. Sinks like PromSink and InfluxSink (package infra/metrics)
// register themselves by type name and are built from configuration with
// NewMetricsSink, which returns a MultiSink when several sinks are configured.
// Optional capabilities such as alert recording are expressed as separate
// interfaces checked at runtime.
package metrics
