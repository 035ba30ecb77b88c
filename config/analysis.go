package config

import (
	"fmt"
	"time"
	// Embedded zone database for hosts without one.
	_ "time/tzdata"

	"github.com/kilianp07/fillcast/core/alert"
)

// AnalysisConfig tunes the service loop and the alert gate.
type AnalysisConfig struct {
	// Timezone is the IANA zone used for the hour-of-day pattern. Empty keeps
	// the zone of each sample.
	Timezone string `json:"timezone"`
	// AlertThreshold is the fill percent whose upward crossing raises an alert.
	AlertThreshold float64 `json:"alert_threshold"`
	// Cooldown suppresses repeated alerts for the same bin, e.g. "30m".
	Cooldown time.Duration `json:"cooldown"`
	// Interval is the period of the watch loop, e.g. "1m".
	Interval time.Duration `json:"interval"`
}

// SetDefaults applies sane defaults.
func (c *AnalysisConfig) SetDefaults() {
	if c.AlertThreshold == 0 {
		c.AlertThreshold = alert.DefaultThreshold
	}
	if c.Cooldown == 0 {
		c.Cooldown = alert.DefaultCooldown
	}
	if c.Interval == 0 {
		c.Interval = time.Minute
	}
}

// Validate checks ranges and the time zone name.
func (c AnalysisConfig) Validate() error {
	if c.AlertThreshold <= 0 || c.AlertThreshold > 100 {
		return fmt.Errorf("alert_threshold must be in (0,100], got %v", c.AlertThreshold)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	_, err := c.Location()
	return err
}

// Location resolves Timezone. It returns nil when Timezone is empty.
func (c AnalysisConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}
