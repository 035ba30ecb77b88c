package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/fillcast/core/alert"
	"github.com/kilianp07/fillcast/core/forecast"
	coremetrics "github.com/kilianp07/fillcast/core/metrics"
)

func TestPromSink_RecordForecast(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	rec := coremetrics.ForecastRecord{Report: sampleReport(), Duration: 20 * time.Millisecond}
	if err := sink.RecordForecast(rec); err != nil {
		t.Fatalf("record error: %v", err)
	}

	expected := `
# HELP fillcast_projected_fill_percent Projected fill percent at a fixed horizon
# TYPE fillcast_projected_fill_percent gauge
fillcast_projected_fill_percent{bin_id="b1",horizon="1h"} 66.8
fillcast_projected_fill_percent{bin_id="b1",horizon="2h"} 69.3
fillcast_projected_fill_percent{bin_id="b1",horizon="6h"} 79.3
`
	if err := testutil.CollectAndCompare(sink.projected, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if v := testutil.ToFloat64(sink.untilFull.WithLabelValues("b1")); v != 14.3 {
		t.Errorf("expected 14.3 hours got %v", v)
	}
	if v := testutil.ToFloat64(sink.analyses.WithLabelValues("b1", "increasing")); v != 1 {
		t.Errorf("expected 1 analysis got %v", v)
	}
	if c := testutil.CollectAndCount(sink.duration); c == 0 {
		t.Errorf("duration not recorded")
	}

	// a later report without estimate removes the hours series
	r := sampleReport()
	r.Forecast.HoursUntilFull = forecast.NotApplicable()
	if err := sink.RecordForecast(coremetrics.ForecastRecord{Report: r}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if c := testutil.CollectAndCount(sink.untilFull); c != 0 {
		t.Errorf("expected hours series removed, got %d", c)
	}
}

func TestPromSink_InsufficientAndAlerts(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	r := forecast.Report{Insufficient: true, Forecast: forecast.Insufficient(), CurrentFill: 12}
	if err := sink.RecordForecast(coremetrics.ForecastRecord{Report: r}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if v := testutil.ToFloat64(sink.currentFill.WithLabelValues(defaultBin)); v != 12 {
		t.Errorf("expected current fill 12 got %v", v)
	}
	if c := testutil.CollectAndCount(sink.projected); c != 0 {
		t.Errorf("insufficient report must not set projections")
	}

	if err := sink.RecordAlert(coremetrics.AlertRecord{ID: "a1", Alert: alert.Alert{BinID: "b1"}}); err != nil {
		t.Fatalf("alert: %v", err)
	}
	if v := testutil.ToFloat64(sink.alerts.WithLabelValues("b1")); v != 1 {
		t.Errorf("expected 1 alert got %v", v)
	}
	_ = sink.RecordSourceLoad(coremetrics.SourceLoad{Source: "file"})
	_ = sink.RecordSourceLoad(coremetrics.SourceLoad{Source: "file", Err: errors.New("x")})
	if v := testutil.ToFloat64(sink.loadErrors.WithLabelValues("file")); v != 1 {
		t.Errorf("expected 1 load error got %v", v)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first sink: %v", err)
	}
	b, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	if a.analyses != b.analyses {
		t.Fatalf("expected shared collector")
	}
}
