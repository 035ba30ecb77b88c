package forecast

import (
	"cmp"
	"slices"
	"time"

	"github.com/kilianp07/fillcast/core/model"
)

// MaxPeakHours is the maximum number of peak hours reported.
const MaxPeakHours = 3

// Pattern summarises fill levels by hour of day over the whole history.
type Pattern struct {
	// PeakHours lists up to MaxPeakHours hours of day (0-23), highest
	// average fill first.
	PeakHours []int `json:"peakHours"`
	// AverageFillPercent is the mean fill over every usable sample.
	AverageFillPercent float64 `json:"averageFillRate"`
}

type hourAcc struct {
	count int
	sum   float64
}

type hourMean struct {
	hour int
	mean float64
}

// AnalyzePattern groups samples by hour of day and ranks hours by their mean
// fill. Hours are taken in loc, or in each sample's own location when loc is
// nil. Hours with equal means keep the order in which they were first seen.
func AnalyzePattern(samples []model.Sample, loc *time.Location) Pattern {
	var (
		hours [24]hourAcc
		seen  = make([]int, 0, 24)
		total float64
		n     int
	)
	for _, s := range samples {
		if !usable(s) {
			continue
		}
		ts := s.Timestamp
		if loc != nil {
			ts = ts.In(loc)
		}
		h := ts.Hour()
		if hours[h].count == 0 {
			seen = append(seen, h)
		}
		hours[h].count++
		hours[h].sum += *s.FillPercent
		total += *s.FillPercent
		n++
	}

	ranked := make([]hourMean, 0, len(seen))
	for _, h := range seen {
		ranked = append(ranked, hourMean{hour: h, mean: hours[h].sum / float64(hours[h].count)})
	}
	slices.SortStableFunc(ranked, func(a, b hourMean) int {
		return cmp.Compare(b.mean, a.mean)
	})

	p := Pattern{PeakHours: make([]int, 0, MaxPeakHours)}
	for i := 0; i < len(ranked) && i < MaxPeakHours; i++ {
		p.PeakHours = append(p.PeakHours, ranked[i].hour)
	}
	if n > 0 {
		p.AverageFillPercent = round1(clamp(total/float64(n), 0, FullPercent))
	}
	return p
}
