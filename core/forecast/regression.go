package forecast

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fillcast/core/model"
)

// Fit is an ordinary least squares line fill = Intercept + SlopePerHour*hours.
type Fit struct {
	SlopePerHour float64 `json:"slopePerHour"`
	Intercept    float64 `json:"intercept"`
	// RSquared is the coefficient of determination in [0,1].
	RSquared float64 `json:"rSquared"`
}

// At evaluates the line at the given elapsed hours.
func (f Fit) At(hours float64) float64 {
	return f.Intercept + f.SlopePerHour*hours
}

// Confidence returns RSquared as an integer percentage in [0,100].
func (f Fit) Confidence() int {
	return int(math.Round(clamp(f.RSquared*100, 0, 100)))
}

// ElapsedHours converts the sample timestamps to hours since the first sample
// and returns them alongside the fill values. Samples must be usable and
// ordered oldest first.
func ElapsedHours(samples []model.Sample) (xs, ys []float64) {
	xs = make([]float64, len(samples))
	ys = make([]float64, len(samples))
	if len(samples) == 0 {
		return xs, ys
	}
	first := samples[0].Timestamp
	for i, s := range samples {
		xs[i] = s.Timestamp.Sub(first).Hours()
		ys[i] = *s.FillPercent
	}
	return xs, ys
}

// FitLine fits a least squares line through (xs, ys).
//
// When every x is identical the slope is 0 and the intercept is the mean fill.
// When every y is identical RSquared is 0.
func FitLine(xs, ys []float64) Fit {
	if len(xs) == 0 || len(xs) != len(ys) {
		return Fit{}
	}
	n := float64(len(xs))
	sumX := floats.Sum(xs)
	sumY := floats.Sum(ys)

	var fit Fit
	if denom := n*floats.Dot(xs, xs) - sumX*sumX; denom == 0 {
		fit.Intercept = sumY / n
	} else {
		fit.Intercept, fit.SlopePerHour = stat.LinearRegression(xs, ys, nil, false)
	}
	fit.RSquared = rSquared(xs, ys, fit)
	return fit
}

func rSquared(xs, ys []float64, fit Fit) float64 {
	mean := stat.Mean(ys, nil)
	var ssTotal float64
	for _, y := range ys {
		d := y - mean
		ssTotal += d * d
	}
	if ssTotal == 0 {
		return 0
	}
	r := stat.RSquared(xs, ys, nil, fit.Intercept, fit.SlopePerHour)
	if math.IsNaN(r) {
		return 0
	}
	return clamp(r, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
