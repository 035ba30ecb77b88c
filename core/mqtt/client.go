// Package mqtt defines the transport used to hand analysis results to the
// presentation layer.
package mqtt

import (
	"context"

	"github.com/kilianp07/fillcast/core/alert"
	"github.com/kilianp07/fillcast/core/forecast"
)

// Publisher sends reports and alerts to subscribers such as dashboards.
type Publisher interface {
	// PublishReport publishes the report and returns the identifier carried in
	// the payload.
	PublishReport(ctx context.Context, r forecast.Report) (string, error)
	// PublishAlert publishes a threshold crossing under the given identifier.
	PublishAlert(ctx context.Context, id string, a alert.Alert) error
}
