package forecast

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Trend is the coarse direction of the recent fill rate.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

const (
	// trendDeadband is the slope in percent per hour below which sensor jitter
	// must not change the trend label.
	trendDeadband = 0.5
	// fillingSlope is the minimum slope for a time until full estimate.
	fillingSlope = 0.1
	// FullPercent is the capacity threshold used for the time until full.
	FullPercent = 100.0
)

// ClassifyTrend maps a slope in percent per hour to a Trend.
func ClassifyTrend(slopePerHour float64) Trend {
	switch {
	case slopePerHour > trendDeadband:
		return TrendIncreasing
	case slopePerHour < -trendDeadband:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// TimeToFull is an optional number of hours until the container is full. The
// zero value means no estimate applies, which is distinct from zero hours.
type TimeToFull struct {
	hours float64
	ok    bool
}

// HoursUntil returns an applicable TimeToFull of h hours.
func HoursUntil(h float64) TimeToFull { return TimeToFull{hours: h, ok: true} }

// NotApplicable returns a TimeToFull carrying no estimate.
func NotApplicable() TimeToFull { return TimeToFull{} }

// Hours returns the estimate and whether it applies.
func (t TimeToFull) Hours() (float64, bool) { return t.hours, t.ok }

// Applicable reports whether an estimate is available.
func (t TimeToFull) Applicable() bool { return t.ok }

func (t TimeToFull) String() string {
	if !t.ok {
		return "n/a"
	}
	return strconv.FormatFloat(t.hours, 'f', -1, 64) + "h"
}

// MarshalJSON encodes the estimate as a number, or null when not applicable.
func (t TimeToFull) MarshalJSON() ([]byte, error) {
	if !t.ok {
		return []byte("null"), nil
	}
	return json.Marshal(t.hours)
}

// UnmarshalJSON decodes a number or null.
func (t *TimeToFull) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = NotApplicable()
		return nil
	}
	var h float64
	if err := json.Unmarshal(data, &h); err != nil {
		return err
	}
	*t = HoursUntil(h)
	return nil
}

// Projection holds point forecasts of the fill percent.
type Projection struct {
	At1h float64 `json:"at1h"`
	At2h float64 `json:"at2h"`
	At6h float64 `json:"at6h"`
}

// Result is the short horizon forecast derived from a fitted line.
type Result struct {
	HoursUntilFull TimeToFull `json:"hoursUntilFull"`
	Trend          Trend      `json:"trend"`
	// Confidence is the goodness of fit as a percentage in [0,100].
	Confidence int        `json:"confidencePercent"`
	Projected  Projection `json:"projected"`
}

// Insufficient returns the neutral result reported when there is not enough
// data to fit a line.
func Insufficient() Result {
	return Result{HoursUntilFull: NotApplicable(), Trend: TrendStable}
}

// Project derives a Result from fit, where currentHours is the elapsed time of
// the latest sample and currentFill its fill percent.
func Project(fit Fit, currentHours, currentFill float64) Result {
	res := Result{
		HoursUntilFull: NotApplicable(),
		Trend:          ClassifyTrend(fit.SlopePerHour),
		Confidence:     fit.Confidence(),
	}
	if fit.SlopePerHour > fillingSlope {
		h := (FullPercent - currentFill) / fit.SlopePerHour
		if h < 0 {
			h = 0
		}
		res.HoursUntilFull = HoursUntil(round1(h))
	}
	res.Projected = Projection{
		At1h: projectAt(fit, currentHours+1),
		At2h: projectAt(fit, currentHours+2),
		At6h: projectAt(fit, currentHours+6),
	}
	return res
}

func projectAt(fit Fit, hours float64) float64 {
	return round1(clamp(fit.At(hours), 0, FullPercent))
}
