package forecast

import (
	"time"

	"github.com/kilianp07/fillcast/core/model"
)

// Report bundles the forecast and usage pattern of a single analysis.
type Report struct {
	// ID is left empty by Analyze; callers publishing the report assign one.
	ID    string `json:"id,omitempty"`
	BinID string `json:"binId,omitempty"`
	// AsOf is the timestamp of the latest usable sample.
	AsOf time.Time `json:"asOf"`
	// CurrentFill is the fill percent of the latest usable sample.
	CurrentFill float64 `json:"currentFill"`
	// Samples is the number of usable samples in the whole history.
	Samples int `json:"samples"`
	// Window is the number of samples used for the regression.
	Window       int     `json:"window"`
	Insufficient bool    `json:"insufficient"`
	Fit          *Fit    `json:"fit,omitempty"`
	Forecast     Result  `json:"forecast"`
	Pattern      Pattern `json:"pattern"`
}

// Analyzer produces a report from a history of samples.
type Analyzer interface {
	Analyze(samples []model.Sample) Report
}

// Engine is the default Analyzer. Location selects the time zone used for the
// hour of day pattern; nil keeps each sample's own location.
type Engine struct {
	Location *time.Location
}

// Analyze implements Analyzer.
func (e Engine) Analyze(samples []model.Sample) Report {
	return Analyze(samples, e.Location)
}

// Predict runs the sanitize, fit and project steps over samples.
func Predict(samples []model.Sample) Result {
	res, _, _ := predict(samples)
	return res
}

func predict(samples []model.Sample) (Result, *Fit, []model.Sample) {
	window, err := Sanitize(samples)
	if err != nil {
		return Insufficient(), nil, window
	}
	xs, ys := ElapsedHours(window)
	fit := FitLine(xs, ys)
	last := len(window) - 1
	return Project(fit, xs[last], ys[last]), &fit, window
}

// Analyze runs Predict over the recent window and AnalyzePattern over the whole
// history.
func Analyze(samples []model.Sample, loc *time.Location) Report {
	res, fit, window := predict(samples)
	rep := Report{
		Window:       len(window),
		Insufficient: fit == nil,
		Fit:          fit,
		Forecast:     res,
		Pattern:      AnalyzePattern(samples, loc),
	}
	if fit == nil {
		rep.Window = 0
	}
	for _, s := range samples {
		if !usable(s) {
			continue
		}
		rep.Samples++
		if rep.Samples == 1 || !s.Timestamp.Before(rep.AsOf) {
			rep.AsOf = s.Timestamp
			rep.CurrentFill = *s.FillPercent
			rep.BinID = s.BinID
		}
	}
	return rep
}
