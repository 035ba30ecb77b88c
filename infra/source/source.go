// Package source loads fill level history from files, REST endpoints or
// InfluxDB.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/fillcast/core/model"
)

// ErrUnsupportedFormat is returned for history files that are neither CSV nor
// JSON.
var ErrUnsupportedFormat = errors.New("unsupported history format")

// Source provides the raw sample history of a bin. Samples may be unsorted
// and may miss fields; the forecasting code sanitizes them.
type Source interface {
	Load(ctx context.Context) ([]model.Sample, error)
}

// Config selects and configures a Source.
type Config struct {
	// Type is "file", "http" or "influx".
	Type   string       `json:"type"`
	BinID  string       `json:"bin_id"`
	File   FileConfig   `json:"file"`
	HTTP   HTTPConfig   `json:"http"`
	Influx InfluxConfig `json:"influx"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Type == "" {
		c.Type = "file"
	}
	c.Influx.SetDefaults()
}

// Validate checks that the selected source is configured.
func (c Config) Validate() error {
	switch c.Type {
	case "file":
		if c.File.Path == "" {
			return fmt.Errorf("source.file.path is required")
		}
	case "http":
		if c.HTTP.URL == "" {
			return fmt.Errorf("source.http.url is required")
		}
	case "influx":
		return c.Influx.Validate()
	default:
		return fmt.Errorf("unknown source type %q", c.Type)
	}
	return nil
}

// New builds the Source described by cfg.
func New(cfg Config) (Source, error) {
	switch cfg.Type {
	case "file", "":
		return NewFileSource(cfg.File.Path, cfg.BinID), nil
	case "http":
		return NewHTTPSource(cfg.HTTP, cfg.BinID), nil
	case "influx":
		ic := cfg.Influx
		if ic.BinID == "" {
			ic.BinID = cfg.BinID
		}
		return NewInfluxSource(ic), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseTime accepts RFC3339 and the zone-less layouts exported by sensor
// dashboards, which are read as UTC. An empty string yields the zero time.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
