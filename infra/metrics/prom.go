package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/fillcast/core/metrics"
)

const defaultBin = "default"

// PromSink exposes the latest analysis of each bin as Prometheus metrics.
type PromSink struct {
	analyses    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	currentFill *prometheus.GaugeVec
	projected   *prometheus.GaugeVec
	untilFull   *prometheus.GaugeVec
	confidence  *prometheus.GaugeVec
	slope       *prometheus.GaugeVec
	alerts      *prometheus.CounterVec
	loadErrors  *prometheus.CounterVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.analyses, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fillcast_analyses_total",
		Help: "Number of analyses run, by resulting trend",
	}, []string{"bin_id", "trend"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fillcast_analysis_duration_seconds",
		Help:    "Time spent loading history and analysing it",
		Buckets: prometheus.DefBuckets,
	}, []string{"bin_id"})); err != nil {
		return nil, err
	}
	if s.currentFill, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fillcast_current_fill_percent",
		Help: "Fill percent of the latest sample",
	}, []string{"bin_id"})); err != nil {
		return nil, err
	}
	if s.projected, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fillcast_projected_fill_percent",
		Help: "Projected fill percent at a fixed horizon",
	}, []string{"bin_id", "horizon"})); err != nil {
		return nil, err
	}
	if s.untilFull, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fillcast_hours_until_full",
		Help: "Estimated hours until the bin is full; absent when no estimate applies",
	}, []string{"bin_id"})); err != nil {
		return nil, err
	}
	if s.confidence, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fillcast_forecast_confidence_percent",
		Help: "R squared of the regression as a percentage",
	}, []string{"bin_id"})); err != nil {
		return nil, err
	}
	if s.slope, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fillcast_fill_rate_percent_per_hour",
		Help: "Slope of the fitted fill line",
	}, []string{"bin_id"})); err != nil {
		return nil, err
	}
	if s.alerts, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fillcast_alerts_total",
		Help: "Number of threshold crossings that passed the cooldown",
	}, []string{"bin_id"})); err != nil {
		return nil, err
	}
	if s.loadErrors, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fillcast_source_load_errors_total",
		Help: "Number of failed history loads",
	}, []string{"source"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func binLabel(id string) string {
	if id == "" {
		return defaultBin
	}
	return id
}

// RecordForecast updates the gauges of the report's bin.
func (s *PromSink) RecordForecast(rec coremetrics.ForecastRecord) error {
	r := rec.Report
	bin := binLabel(r.BinID)
	s.analyses.WithLabelValues(bin, string(r.Forecast.Trend)).Inc()
	s.duration.WithLabelValues(bin).Observe(rec.Duration.Seconds())
	s.currentFill.WithLabelValues(bin).Set(r.CurrentFill)
	if r.Insufficient {
		s.untilFull.DeleteLabelValues(bin)
		return nil
	}
	s.projected.WithLabelValues(bin, "1h").Set(r.Forecast.Projected.At1h)
	s.projected.WithLabelValues(bin, "2h").Set(r.Forecast.Projected.At2h)
	s.projected.WithLabelValues(bin, "6h").Set(r.Forecast.Projected.At6h)
	s.confidence.WithLabelValues(bin).Set(float64(r.Forecast.Confidence))
	if r.Fit != nil {
		s.slope.WithLabelValues(bin).Set(r.Fit.SlopePerHour)
	}
	if h, ok := r.Forecast.HoursUntilFull.Hours(); ok {
		s.untilFull.WithLabelValues(bin).Set(h)
	} else {
		s.untilFull.DeleteLabelValues(bin)
	}
	return nil
}

// RecordAlert counts alerts per bin.
func (s *PromSink) RecordAlert(rec coremetrics.AlertRecord) error {
	s.alerts.WithLabelValues(binLabel(rec.Alert.BinID)).Inc()
	return nil
}

// RecordSourceLoad counts failed history loads.
func (s *PromSink) RecordSourceLoad(ev coremetrics.SourceLoad) error {
	if ev.Err != nil {
		s.loadErrors.WithLabelValues(ev.Source).Inc()
	}
	return nil
}

