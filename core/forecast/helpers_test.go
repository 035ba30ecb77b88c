package forecast

import (
	"time"

	"github.com/kilianp07/fillcast/core/model"
)

var epoch = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

// series builds n samples spaced by step, with fill computed from elapsed hours.
func series(n int, step time.Duration, fill func(h float64) float64) []model.Sample {
	out := make([]model.Sample, n)
	for i := range out {
		ts := epoch.Add(time.Duration(i) * step)
		out[i] = model.NewSample(ts, fill(ts.Sub(epoch).Hours()))
	}
	return out
}

func at(hour, minute int, fill float64) model.Sample {
	return model.NewSample(time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC), fill)
}
