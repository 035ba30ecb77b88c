package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fillcast/core/metrics"
	"github.com/kilianp07/fillcast/infra/logger"
)

// InfluxSink writes analysis results to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordForecast writes the report as a fill_forecast point stamped with the
// time of its latest sample.
func (s *InfluxSink) RecordForecast(rec coremetrics.ForecastRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r := rec.Report
	ts := r.AsOf
	if ts.IsZero() {
		ts = rec.Time
	}
	p := write.NewPointWithMeasurement("fill_forecast").
		AddTag("bin_id", binLabel(r.BinID)).
		AddTag("trend", string(r.Forecast.Trend)).
		AddTag("insufficient", strconv.FormatBool(r.Insufficient)).
		AddField("current_fill", round3(r.CurrentFill)).
		AddField("confidence", r.Forecast.Confidence).
		AddField("at_1h", r.Forecast.Projected.At1h).
		AddField("at_2h", r.Forecast.Projected.At2h).
		AddField("at_6h", r.Forecast.Projected.At6h).
		AddField("samples", r.Samples).
		AddField("window", r.Window).
		AddField("average_fill", r.Pattern.AverageFillPercent).
		AddField("peak_hours", joinHours(r.Pattern.PeakHours)).
		AddField("duration_ms", round3(rec.Duration.Seconds()*1000)).
		SetTime(ts)
	if r.Fit != nil {
		p.AddField("slope_per_hour", round3(r.Fit.SlopePerHour)).
			AddField("r_squared", round3(r.Fit.RSquared))
	}
	if h, ok := r.Forecast.HoursUntilFull.Hours(); ok {
		p.AddField("hours_until_full", h)
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAlert writes a fill_alert point.
func (s *InfluxSink) RecordAlert(rec coremetrics.AlertRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a := rec.Alert
	p := write.NewPointWithMeasurement("fill_alert").
		AddTag("bin_id", binLabel(a.BinID)).
		AddTag("alert_id", rec.ID).
		AddField("fill_percent", round3(a.FillPercent)).
		AddField("previous_fill", round3(a.PreviousFill)).
		AddField("threshold", a.Threshold).
		SetTime(a.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func joinHours(hours []int) string {
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = strconv.Itoa(h)
	}
	return strings.Join(parts, ",")
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
