// Package events defines the events the service publishes on the event bus.
//
// Available event types:
//   - ReportEvent: an analysis finished for a bin
//   - AlertEvent: a bin crossed its fill threshold
package events
