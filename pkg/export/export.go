// Package export writes sensor history and forecast reports in the formats
// read back by infra/source.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/kilianp07/fillcast/core/forecast"
	"github.com/kilianp07/fillcast/core/model"
)

// HistoryHeader is the column layout of history CSV files.
var HistoryHeader = []string{"dateTime", "fillPercent", "temperature", "humidity", "distance", "status"}

// HistoryRecord is the JSON form of a sample.
type HistoryRecord struct {
	BinID       string   `json:"binId,omitempty"`
	DateTime    string   `json:"dateTime"`
	FillPercent *float64 `json:"fillPercent"`
	Temperature *float64 `json:"temp"`
	Humidity    *float64 `json:"humidity"`
	Distance    *float64 `json:"distance"`
	Status      string   `json:"status,omitempty"`
}

// newestFirst returns a copy of samples ordered by descending timestamp.
// Samples without timestamp go last.
func newestFirst(samples []model.Sample) []model.Sample {
	out := slices.Clone(samples)
	slices.SortStableFunc(out, func(a, b model.Sample) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// WriteSamplesCSV writes samples newest first with HistoryHeader columns.
// Missing values are written as empty cells.
func WriteSamplesCSV(w io.Writer, samples []model.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HistoryHeader); err != nil {
		return err
	}
	for _, s := range newestFirst(samples) {
		rec := []string{
			formatTime(s.Timestamp),
			formatFloat(s.FillPercent),
			formatFloat(s.Temperature),
			formatFloat(s.Humidity),
			formatFloat(s.Distance),
			s.Status,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSamplesJSON writes samples newest first as an array of HistoryRecord.
func WriteSamplesJSON(w io.Writer, samples []model.Sample) error {
	records := make([]HistoryRecord, 0, len(samples))
	for _, s := range newestFirst(samples) {
		records = append(records, HistoryRecord{
			BinID:       s.BinID,
			DateTime:    formatTime(s.Timestamp),
			FillPercent: s.FillPercent,
			Temperature: s.Temperature,
			Humidity:    s.Humidity,
			Distance:    s.Distance,
			Status:      s.Status,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteReportJSON writes r to w in JSON format.
func WriteReportJSON(w io.Writer, r forecast.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
