package metrics

import (
	"time"

	"github.com/kilianp07/fillcast/core/alert"
	"github.com/kilianp07/fillcast/core/forecast"
)

// ForecastRecord is a finished analysis to be recorded.
type ForecastRecord struct {
	Report   forecast.Report
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records analysis results.
type MetricsSink interface {
	RecordForecast(rec ForecastRecord) error
}

// AlertRecord captures a threshold crossing.
type AlertRecord struct {
	ID    string
	Alert alert.Alert
}

// AlertRecorder is implemented by sinks able to record alerts.
type AlertRecorder interface {
	RecordAlert(rec AlertRecord) error
}

// SourceLoad describes one history load.
type SourceLoad struct {
	Source   string
	Samples  int
	Duration time.Duration
	Err      error
}

// SourceLoadRecorder is implemented by sinks able to record history loads.
type SourceLoadRecorder interface {
	RecordSourceLoad(ev SourceLoad) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordForecast(ForecastRecord) error { return nil }
func (NopSink) RecordAlert(AlertRecord) error       { return nil }
func (NopSink) RecordSourceLoad(SourceLoad) error   { return nil }
