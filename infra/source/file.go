package source

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/fillcast/core/model"
	"github.com/kilianp07/fillcast/pkg/export"
)

// FileConfig configures a FileSource.
type FileConfig struct {
	Path string `json:"path"`
}

// FileSource reads history from a CSV or JSON file picked by extension.
type FileSource struct {
	path  string
	binID string
}

// NewFileSource returns a FileSource reading path. binID is stamped on every
// sample that does not carry its own.
func NewFileSource(path, binID string) *FileSource {
	return &FileSource{path: path, binID: binID}
}

// Load implements Source.
func (f *FileSource) Load(ctx context.Context) ([]model.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer fh.Close()

	var samples []model.Sample
	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".csv":
		samples, err = ReadCSV(fh)
	case ".json":
		samples, err = ReadJSON(fh)
	default:
		return nil, fmt.Errorf("%s: %w", f.path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	for i := range samples {
		if samples[i].BinID == "" {
			samples[i].BinID = f.binID
		}
	}
	return samples, nil
}

// ReadCSV parses history written with export.HistoryHeader columns. Columns
// are matched by header name; unknown columns are ignored and only dateTime
// and fillPercent are required.
func ReadCSV(r io.Reader) ([]model.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range export.HistoryHeader[:2] {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	cell := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []model.Sample
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		var s model.Sample
		if s.Timestamp, err = parseTime(cell(rec, "dateTime")); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for col, dst := range map[string]**float64{
			"fillPercent": &s.FillPercent,
			"temperature": &s.Temperature,
			"humidity":    &s.Humidity,
			"distance":    &s.Distance,
		} {
			if *dst, err = parseOptional(cell(rec, col)); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, col, err)
			}
		}
		s.Status = cell(rec, "status")
		out = append(out, s)
	}
	return out, nil
}

func parseOptional(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ReadJSON parses an array of export.HistoryRecord.
func ReadJSON(r io.Reader) ([]model.Sample, error) {
	var recs []export.HistoryRecord
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, err
	}
	out := make([]model.Sample, 0, len(recs))
	for i, rec := range recs {
		ts, err := parseTime(rec.DateTime)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, model.Sample{
			BinID:       rec.BinID,
			Timestamp:   ts,
			FillPercent: rec.FillPercent,
			Temperature: rec.Temperature,
			Humidity:    rec.Humidity,
			Distance:    rec.Distance,
			Status:      rec.Status,
		})
	}
	return out, nil
}
