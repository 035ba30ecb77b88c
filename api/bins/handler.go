// Package bins exposes the latest bin analyses over HTTP.
package bins

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/fillcast/core/binstatus"
	"github.com/kilianp07/fillcast/core/forecast"
)

// NewStatusHandler returns an HTTP handler exposing bin status data via GET /api/bins/status.
// Query parameters trend and min_fill narrow the result.
func NewStatusHandler(store binstatus.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		f := binstatus.Filter{Trend: forecast.Trend(r.URL.Query().Get("trend"))}
		if v := r.URL.Query().Get("min_fill"); v != "" {
			minFill, err := strconv.ParseFloat(v, 64)
			if err != nil {
				http.Error(w, "invalid min_fill", http.StatusBadRequest)
				return
			}
			f.MinFill = minFill
		}
		writeJSON(w, store.List(f))
	})
}

// NewForecastHandler serves GET /api/bins/{id}/forecast with the latest report
// of one bin.
func NewForecastHandler(store binstatus.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		st, ok := store.Get(r.PathValue("id"))
		if !ok {
			http.Error(w, "unknown bin", http.StatusNotFound)
			return
		}
		writeJSON(w, st.Report)
	})
}

// NewAlertsHandler serves GET /api/alerts with the most recent alerts. The
// limit query parameter defaults to 20.
func NewAlertsHandler(store binstatus.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		writeJSON(w, store.Alerts(limit))
	})
}

// NewMux routes the bin API handlers.
func NewMux(store binstatus.Store) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/bins/status", NewStatusHandler(store))
	mux.Handle("/api/bins/{id}/forecast", NewForecastHandler(store))
	mux.Handle("/api/alerts", NewAlertsHandler(store))
	return mux
}

// Serve runs the bin API on addr until ctx is canceled.
func Serve(ctx context.Context, addr string, store binstatus.Store) error {
	srv := &http.Server{Addr: addr, Handler: NewMux(store), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
