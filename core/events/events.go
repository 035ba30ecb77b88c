package events

import (
	"time"

	"github.com/kilianp07/fillcast/core/alert"
	"github.com/kilianp07/fillcast/core/forecast"
)

// Event is implemented by every event published on the bus.
type Event interface {
	EventTime() time.Time
}

// ReportEvent is published after each analysis run.
type ReportEvent struct {
	Report   forecast.Report
	Duration time.Duration
	Time     time.Time
}

func (e ReportEvent) EventTime() time.Time { return e.Time }

// AlertEvent is published when the alert gate fires.
type AlertEvent struct {
	ID    string
	Alert alert.Alert
}

func (e AlertEvent) EventTime() time.Time { return e.Alert.Time }
