// Package forecast turns a history of fill level samples into a short horizon
// forecast and an hour-of-day usage pattern.
//
// The pipeline is split in four stateless steps, each usable on its own:
//
//   - Sanitize drops unusable samples, orders them by time and keeps the most
//     recent WindowSize entries.
//   - FitLine fits an ordinary least squares line to (elapsed hours, fill).
//   - Project turns the fitted line into a trend, a time until full and point
//     forecasts one, two and six hours ahead.
//   - AnalyzePattern buckets the whole history by hour of day.
//
// Predict and Analyze chain these steps. Every function in this package is pure
// and safe for concurrent use on disjoint inputs.
package forecast
