// Package e2e runs fillcast against real InfluxDB and Mosquitto containers.
package e2e

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/kilianp07/fillcast/core/model"
)

// InfluxClient is a small helper around the official InfluxDB v2 client
// used by the E2E tests. It seeds sensor readings and counts stored points.
type InfluxClient struct {
	bucket string
	client influxdb2.Client
	write  api.WriteAPIBlocking
	query  api.QueryAPI
}

// NewInfluxClient creates a new client for the given parameters. It assumes
// the server is already running and reachable.
func NewInfluxClient(url, org, bucket, token string) *InfluxClient {
	c := influxdb2.NewClient(url, token)
	return &InfluxClient{
		bucket: bucket,
		client: c,
		write:  c.WriteAPIBlocking(org, bucket),
		query:  c.QueryAPI(org),
	}
}

// WriteSample stores s as a reading of the given measurement.
func (c *InfluxClient) WriteSample(ctx context.Context, measurement string, s model.Sample) error {
	fields := map[string]interface{}{"status": s.Status}
	if s.FillPercent != nil {
		fields["fillPercent"] = *s.FillPercent
	}
	if s.Temperature != nil {
		fields["temperature"] = *s.Temperature
	}
	p := influxdb2.NewPoint(measurement, map[string]string{"bin_id": s.BinID}, fields, s.Timestamp)
	return c.write.WritePoint(ctx, p)
}

// Count returns the number of records of measurement within the last week.
func (c *InfluxClient) Count(ctx context.Context, measurement string) (int, error) {
	flux := fmt.Sprintf(`from(bucket:%q) |> range(start:-7d) |> filter(fn: (r) => r._measurement == %q)`, c.bucket, measurement)
	res, err := c.query.Query(ctx, flux)
	if err != nil {
		return 0, err
	}
	defer res.Close()
	count := 0
	for res.Next() {
		count++
	}
	return count, res.Err()
}

// Close releases the underlying client resources.
func (c *InfluxClient) Close() { c.client.Close() }
