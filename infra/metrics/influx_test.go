package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kilianp07/fillcast/core/alert"
	"github.com/kilianp07/fillcast/core/forecast"
	coremetrics "github.com/kilianp07/fillcast/core/metrics"
)

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.lines = append(l.lines, strings.TrimSpace(string(data)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInfluxSink_RecordForecast(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	if err := sink.RecordForecast(coremetrics.ForecastRecord{Report: sampleReport()}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if len(rec.lines) != 1 {
		t.Fatalf("expected one write got %d", len(rec.lines))
	}
	line := rec.lines[0]
	for _, want := range []string{
		"fill_forecast,",
		"bin_id=b1",
		"trend=increasing",
		"insufficient=false",
		"confidence=90i",
		"at_1h=66.8",
		"hours_until_full=14.3",
		`peak_hours="12,18,3"`,
		"slope_per_hour=2.5",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	if !strings.HasSuffix(line, " 1741615200000000000") {
		t.Errorf("expected point stamped with report time: %q", line)
	}
}

func TestInfluxSink_RecordForecastWithoutEstimate(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	r := forecast.Report{Insufficient: true, Forecast: forecast.Insufficient(), AsOf: reportTime}
	if err := sink.RecordForecast(coremetrics.ForecastRecord{Report: r}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	line := rec.lines[0]
	if strings.Contains(line, "hours_until_full") || strings.Contains(line, "slope_per_hour") {
		t.Errorf("unexpected fields in %q", line)
	}
	if !strings.Contains(line, "bin_id=default") {
		t.Errorf("expected default bin tag in %q", line)
	}
}

func TestInfluxSink_RecordAlert(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	a := alert.Alert{BinID: "b2", FillPercent: 72, PreviousFill: 65, Threshold: 70, Time: reportTime}
	if err := sink.RecordAlert(coremetrics.AlertRecord{ID: "a-1", Alert: a}); err != nil {
		t.Fatalf("record: %v", err)
	}
	line := rec.lines[0]
	for _, want := range []string{"fill_alert,", "alert_id=a-1", "bin_id=b2", "fill_percent=72", "threshold=70"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
