package metrics

import (
	"context"

	"github.com/kilianp07/fillcast/core/events"
	coremetrics "github.com/kilianp07/fillcast/core/metrics"
	"github.com/kilianp07/fillcast/infra/logger"
	"github.com/kilianp07/fillcast/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled or the bus is closed. The returned
// channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(ev, sink, log)
			}
		}
	}()
	return done
}

func record(ev events.Event, sink coremetrics.MetricsSink, log logger.Logger) {
	switch e := ev.(type) {
	case events.ReportEvent:
		if err := sink.RecordForecast(coremetrics.ForecastRecord{Report: e.Report, Duration: e.Duration, Time: e.Time}); err != nil {
			log.Errorf("record forecast: %v", err)
		}
	case events.AlertEvent:
		if r, ok := sink.(coremetrics.AlertRecorder); ok {
			if err := r.RecordAlert(coremetrics.AlertRecord{ID: e.ID, Alert: e.Alert}); err != nil {
				log.Errorf("record alert: %v", err)
			}
		}
	}
}
