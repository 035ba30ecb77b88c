package source

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fillcast/auth"
)

const nestedHistory = `{
  "2025-03-10": {
    "-Nb2": {"dateTime": "2025-03-10 09:00:00", "fillPercent": 45, "temp": 22.1, "humidity": 50, "distance": 13, "status": "ok"},
    "-Na1": {"dateTime": "2025-03-10 08:00:00", "fillPercent": 40, "temp": 21.5, "humidity": 55, "distance": 14, "status": "ok"}
  },
  "2025-03-11": {
    "-Nc3": {"dateTime": "2025-03-11 08:00:00", "fillPercent": null, "status": "error"}
  }
}`

func TestHTTPSourceNestedExport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, nestedHistory)
	}))
	defer srv.Close()

	samples, err := NewHTTPSource(HTTPConfig{URL: srv.URL}, "bin-1").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.InDelta(t, 40, samples[0].Fill(), 1e-9)
	assert.True(t, samples[0].Timestamp.Equal(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, "bin-1", samples[0].BinID)
	assert.Nil(t, samples[2].FillPercent)
	assert.Equal(t, "error", samples[2].Status)
}

func TestHTTPSourceArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"dateTime":"2025-03-10T08:00:00Z","fillPercent":12}, null]`)
	}))
	defer srv.Close()

	samples, err := NewHTTPSource(HTTPConfig{URL: srv.URL}, "").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.InDelta(t, 12, samples[0].Fill(), 1e-9)
}

func TestHTTPSourceUsesClientCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"abc","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := HTTPConfig{URL: srv.URL + "/history", Auth: auth.Conf{ClientID: "id", ClientSecret: "s", AuthURL: srv.URL + "/token"}}
	samples, err := NewHTTPSource(cfg, "").Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestHTTPSourceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/down":
			http.Error(w, "down", http.StatusServiceUnavailable)
		case "/bad":
			_, _ = io.WriteString(w, `"just a string"`)
		default:
			_, _ = io.WriteString(w, `[{"dateTime":"tomorrow","fillPercent":1}]`)
		}
	}))
	defer srv.Close()

	for _, path := range []string{"/down", "/bad", "/time"} {
		_, err := NewHTTPSource(HTTPConfig{URL: srv.URL + path}, "").Load(context.Background())
		assert.Error(t, err, path)
	}
}
