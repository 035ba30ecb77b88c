package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/query"

	"github.com/kilianp07/fillcast/core/model"
)

// InfluxConfig configures an InfluxSource.
type InfluxConfig struct {
	URL         string `json:"url"`
	Token       string `json:"token"`
	Org         string `json:"org"`
	Bucket      string `json:"bucket"`
	Measurement string `json:"measurement"`
	// BinID filters on the bin_id tag when set.
	BinID string `json:"bin_id"`
	// Range is the look-back window of the query, e.g. "168h".
	Range time.Duration `json:"range"`
}

// SetDefaults fills unset fields.
func (c *InfluxConfig) SetDefaults() {
	if c.Measurement == "" {
		c.Measurement = "bin_fill"
	}
	if c.Range <= 0 {
		c.Range = 7 * 24 * time.Hour
	}
}

// Validate checks the connection parameters.
func (c InfluxConfig) Validate() error {
	if c.URL == "" || c.Org == "" || c.Bucket == "" {
		return fmt.Errorf("source.influx requires url, org and bucket")
	}
	return nil
}

// InfluxSource reads sensor readings written as one point per reading with
// fields fillPercent, temperature, humidity, distance and status.
type InfluxSource struct {
	cfg    InfluxConfig
	client influxdb2.Client
	query  api.QueryAPI
}

// NewInfluxSource creates a source querying the configured bucket.
func NewInfluxSource(cfg InfluxConfig) *InfluxSource {
	cfg.SetDefaults()
	c := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxSource{cfg: cfg, client: c, query: c.QueryAPI(cfg.Org)}
}

// Flux returns the query run by Load.
func (s *InfluxSource) Flux() string {
	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %q)\n", s.cfg.Bucket)
	fmt.Fprintf(&b, "  |> range(start: -%ds)\n", int64(s.cfg.Range/time.Second))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r._measurement == %q)\n", s.cfg.Measurement)
	if s.cfg.BinID != "" {
		fmt.Fprintf(&b, "  |> filter(fn: (r) => r.bin_id == %q)\n", s.cfg.BinID)
	}
	b.WriteString(`  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")` + "\n")
	b.WriteString(`  |> sort(columns: ["_time"])`)
	return b.String()
}

// Load implements Source.
func (s *InfluxSource) Load(ctx context.Context) ([]model.Sample, error) {
	res, err := s.query.Query(ctx, s.Flux())
	if err != nil {
		return nil, fmt.Errorf("influx query: %w", err)
	}
	defer res.Close()

	var out []model.Sample
	for res.Next() {
		out = append(out, recordToSample(res.Record(), s.cfg.BinID))
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("influx result: %w", err)
	}
	return out, nil
}

// Close releases the underlying client.
func (s *InfluxSource) Close() { s.client.Close() }

func recordToSample(rec *query.FluxRecord, binID string) model.Sample {
	smp := model.Sample{
		BinID:       binID,
		Timestamp:   rec.Time(),
		FillPercent: numeric(rec.ValueByKey("fillPercent")),
		Temperature: numeric(rec.ValueByKey("temperature")),
		Humidity:    numeric(rec.ValueByKey("humidity")),
		Distance:    numeric(rec.ValueByKey("distance")),
	}
	if tag, ok := rec.ValueByKey("bin_id").(string); ok && tag != "" {
		smp.BinID = tag
	}
	if st, ok := rec.ValueByKey("status").(string); ok {
		smp.Status = st
	}
	return smp
}

func numeric(v interface{}) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return nil
	}
	return &f
}
