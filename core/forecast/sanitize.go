package forecast

import (
	"errors"
	"math"
	"slices"

	"github.com/kilianp07/fillcast/core/model"
)

const (
	// WindowSize is the number of most recent samples used for regression.
	WindowSize = 100
	// MinSamples is the minimum number of usable samples needed for a fit.
	MinSamples = 10
)

// ErrInsufficientData is returned by Sanitize when fewer than MinSamples
// usable samples remain.
var ErrInsufficientData = errors.New("insufficient data")

// Sanitize filters out samples missing a timestamp or fill value, sorts the
// remainder oldest first and keeps the most recent WindowSize entries. The input
// slice is not modified. When fewer than MinSamples entries remain the sanitized
// slice is returned together with ErrInsufficientData.
func Sanitize(samples []model.Sample) ([]model.Sample, error) {
	out := make([]model.Sample, 0, len(samples))
	for _, s := range samples {
		if usable(s) {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Sample) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	if len(out) > WindowSize {
		out = out[len(out)-WindowSize:]
	}
	if len(out) < MinSamples {
		return out, ErrInsufficientData
	}
	return out, nil
}

// usable also rejects NaN and infinite fill values, which would poison every sum.
func usable(s model.Sample) bool {
	if !s.Usable() {
		return false
	}
	f := *s.FillPercent
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
