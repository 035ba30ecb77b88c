package metrics

import (
	"time"

	"github.com/kilianp07/fillcast/core/forecast"
)

var reportTime = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func sampleReport() forecast.Report {
	return forecast.Report{
		BinID:       "b1",
		AsOf:        reportTime,
		CurrentFill: 64.25,
		Samples:     120,
		Window:      100,
		Fit:         &forecast.Fit{SlopePerHour: 2.5, Intercept: 40, RSquared: 0.9},
		Forecast: forecast.Result{
			HoursUntilFull: forecast.HoursUntil(14.3),
			Trend:          forecast.TrendIncreasing,
			Confidence:     90,
			Projected:      forecast.Projection{At1h: 66.8, At2h: 69.3, At6h: 79.3},
		},
		Pattern: forecast.Pattern{PeakHours: []int{12, 18, 3}, AverageFillPercent: 48.3},
	}
}
