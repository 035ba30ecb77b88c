package bins

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kilianp07/fillcast/core/alert"
	"github.com/kilianp07/fillcast/core/binstatus"
	"github.com/kilianp07/fillcast/core/forecast"
)

func testStore() *binstatus.MemoryStore {
	store := binstatus.NewMemoryStore()
	store.SetReport(forecast.Report{
		BinID:       "b1",
		CurrentFill: 72,
		Forecast:    forecast.Result{Trend: forecast.TrendIncreasing, HoursUntilFull: forecast.HoursUntil(4)},
	}, time.Now())
	store.SetReport(forecast.Report{BinID: "b2", CurrentFill: 20, Forecast: forecast.Insufficient()}, time.Now())
	store.RecordAlert(alert.Alert{BinID: "b1", FillPercent: 72, Threshold: 70})
	return store
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", url, nil))
	return rr
}

func TestStatusHandler_Basic(t *testing.T) {
	rr := get(t, NewMux(testStore()), "/api/bins/status")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []binstatus.Status
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].BinID != "b1" || out[0].LastAlert == nil {
		t.Fatalf("unexpected output %#v", out)
	}
}

func TestStatusHandler_Filter(t *testing.T) {
	rr := get(t, NewMux(testStore()), "/api/bins/status?trend=stable&min_fill=10")
	var out []binstatus.Status
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].BinID != "b2" {
		t.Fatalf("unexpected filter result %#v", out)
	}
}

func TestStatusHandler_BadMinFill(t *testing.T) {
	rr := get(t, NewMux(testStore()), "/api/bins/status?min_fill=lots")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestStatusHandler_Method(t *testing.T) {
	rr := httptest.NewRecorder()
	NewStatusHandler(testStore()).ServeHTTP(rr, httptest.NewRequest("POST", "/api/bins/status", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rr.Code)
	}
}

func TestForecastHandler(t *testing.T) {
	mux := NewMux(testStore())
	rr := get(t, mux, "/api/bins/b1/forecast")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var r forecast.Report
	if err := json.Unmarshal(rr.Body.Bytes(), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h, ok := r.Forecast.HoursUntilFull.Hours(); !ok || h != 4 {
		t.Fatalf("unexpected time to full %v %v", h, ok)
	}

	if rr := get(t, mux, "/api/bins/nope/forecast"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestAlertsHandler(t *testing.T) {
	mux := NewMux(testStore())
	rr := get(t, mux, "/api/alerts?limit=5")
	var out []alert.Alert
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].BinID != "b1" {
		t.Fatalf("unexpected alerts %#v", out)
	}
	if rr := get(t, mux, "/api/alerts?limit=0"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}
