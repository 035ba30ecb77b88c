package metrics

import "errors"

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordForecast forwards the record to every sink. All sinks are tried; the
// returned error joins the individual failures.
func (m *MultiSink) RecordForecast(rec ForecastRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordForecast(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordAlert forwards alerts to sinks implementing AlertRecorder.
func (m *MultiSink) RecordAlert(rec AlertRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(AlertRecorder); ok {
			if err := r.RecordAlert(rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordSourceLoad forwards load events to sinks implementing SourceLoadRecorder.
func (m *MultiSink) RecordSourceLoad(ev SourceLoad) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(SourceLoadRecorder); ok {
			if err := r.RecordSourceLoad(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
