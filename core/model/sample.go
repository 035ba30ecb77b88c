package model

import (
	"fmt"
	"time"
)

// Sample is a single reading reported by a fill level sensor.
type Sample struct {
	BinID     string
	Timestamp time.Time // zero when the reading carried no time
	// FillPercent is the estimated used capacity between 0 and 100. Nil when
	// the reading carried no fill value.
	FillPercent *float64

	// Optional telemetry reported alongside the fill level. Not used by the
	// forecasting code but kept for export.
	Temperature *float64
	Humidity    *float64
	Distance    *float64
	Status      string
}

// NewSample returns a Sample with both mandatory fields set.
func NewSample(ts time.Time, fill float64) Sample {
	return Sample{Timestamp: ts, FillPercent: &fill}
}

// Usable reports whether the sample carries a timestamp and a fill value.
func (s Sample) Usable() bool {
	return s.FillPercent != nil && !s.Timestamp.IsZero()
}

// Fill returns the fill percent or 0 when missing.
func (s Sample) Fill() float64 {
	if s.FillPercent == nil {
		return 0
	}
	return *s.FillPercent
}

// Validate checks that the fill value lies in the sensor range.
func (s Sample) Validate() error {
	if !s.Usable() {
		return fmt.Errorf("sample missing timestamp or fill value")
	}
	if f := *s.FillPercent; f < 0 || f > 100 {
		return fmt.Errorf("fill percent %v out of range", f)
	}
	return nil
}

// Float returns a pointer to f. Useful to build optional sample fields.
func Float(f float64) *float64 { return &f }
