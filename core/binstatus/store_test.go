package binstatus

import (
	"testing"
	"time"

	"github.com/kilianp07/fillcast/core/alert"
	"github.com/kilianp07/fillcast/core/forecast"
)

func report(bin string, fill float64, trend forecast.Trend) forecast.Report {
	return forecast.Report{BinID: bin, CurrentFill: fill, Forecast: forecast.Result{Trend: trend}}
}

func TestMemoryStore_FilterTrend(t *testing.T) {
	s := NewMemoryStore()
	s.SetReport(report("b2", 40, forecast.TrendIncreasing), time.Now())
	s.SetReport(report("b1", 80, forecast.TrendStable), time.Now())
	out := s.List(Filter{Trend: forecast.TrendIncreasing})
	if len(out) != 1 || out[0].BinID != "b2" {
		t.Fatalf("filter failed: %#v", out)
	}
}

func TestMemoryStore_FilterMinFillSorted(t *testing.T) {
	s := NewMemoryStore()
	s.SetReport(report("b3", 90, forecast.TrendStable), time.Now())
	s.SetReport(report("b1", 75, forecast.TrendStable), time.Now())
	s.SetReport(report("b2", 10, forecast.TrendStable), time.Now())
	out := s.List(Filter{MinFill: 70})
	if len(out) != 2 || out[0].BinID != "b1" || out[1].BinID != "b3" {
		t.Fatalf("min fill filter failed: %#v", out)
	}
}

func TestMemoryStore_RecordAlertKeepsReport(t *testing.T) {
	s := NewMemoryStore()
	s.SetReport(report("b1", 72, forecast.TrendIncreasing), time.Now())
	s.RecordAlert(alert.Alert{BinID: "b1", FillPercent: 72})
	st, ok := s.Get("b1")
	if !ok || st.LastAlert == nil || st.Report.CurrentFill != 72 {
		t.Fatalf("status not updated: %#v", st)
	}
}

func TestMemoryStore_RecordAlertNewBin(t *testing.T) {
	s := NewMemoryStore()
	s.RecordAlert(alert.Alert{BinID: "b9"})
	if _, ok := s.Get("b9"); !ok {
		t.Fatalf("auto create failed")
	}
}

func TestMemoryStore_AlertsNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < maxAlerts+5; i++ {
		s.RecordAlert(alert.Alert{BinID: "b", FillPercent: float64(i)})
	}
	all := s.Alerts(0)
	if len(all) != maxAlerts {
		t.Fatalf("expected %d alerts got %d", maxAlerts, len(all))
	}
	if all[0].FillPercent != float64(maxAlerts+4) {
		t.Fatalf("newest alert not first: %v", all[0].FillPercent)
	}
	if got := s.Alerts(3); len(got) != 3 || got[2].FillPercent != float64(maxAlerts+2) {
		t.Fatalf("limit failed: %#v", got)
	}
}
