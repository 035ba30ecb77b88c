package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/kilianp07/fillcast/auth"
	"github.com/kilianp07/fillcast/core/model"
	"github.com/kilianp07/fillcast/pkg/export"
)

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	URL     string        `json:"url"`
	Timeout time.Duration `json:"timeout"`
	// Auth enables OAuth2 client credentials when its client_id is set.
	Auth auth.Conf `json:"auth"`
}

// HTTPSource fetches history from a REST endpoint. The body may be a JSON
// array of records or a realtime database export where records are nested
// under date and push id keys.
type HTTPSource struct {
	url    string
	binID  string
	client *http.Client
	creds  *auth.ClientCred
}

// NewHTTPSource returns an HTTPSource for cfg.
func NewHTTPSource(cfg HTTPConfig, binID string) *HTTPSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &HTTPSource{url: cfg.URL, binID: binID, client: &http.Client{Timeout: timeout}}
	if cfg.Auth.Enabled() {
		s.creds = auth.NewClientCred(cfg.Auth)
	}
	return s
}

// Load implements Source.
func (s *HTTPSource) Load(ctx context.Context) ([]model.Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.creds != nil {
		if err := s.creds.SetAuthHeader(req); err != nil {
			return nil, err
		}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch history: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var recs []export.HistoryRecord
	if err := flattenRecords(body, &recs); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	samples := make([]model.Sample, 0, len(recs))
	for i, rec := range recs {
		ts, err := parseTime(rec.DateTime)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		smp := model.Sample{
			BinID:       rec.BinID,
			Timestamp:   ts,
			FillPercent: rec.FillPercent,
			Temperature: rec.Temperature,
			Humidity:    rec.Humidity,
			Distance:    rec.Distance,
			Status:      rec.Status,
		}
		if smp.BinID == "" {
			smp.BinID = s.binID
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

var recordKeys = []string{"dateTime", "fillPercent"}

// flattenRecords walks arrays and objects, collecting every object that
// carries a record key. Object keys are visited in sorted order.
func flattenRecords(raw json.RawMessage, out *[]export.HistoryRecord) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}
		for _, it := range items {
			if err := flattenRecords(it, out); err != nil {
				return err
			}
		}
		return nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return err
		}
		for _, k := range recordKeys {
			if _, ok := obj[k]; ok {
				var rec export.HistoryRecord
				if err := json.Unmarshal(raw, &rec); err != nil {
					return err
				}
				*out = append(*out, rec)
				return nil
			}
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := flattenRecords(obj[k], out); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unexpected JSON value %.20q", raw)
	}
}
