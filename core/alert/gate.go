// Package alert decides when a bin crossing its fill threshold is worth
// notifying about. Delivery of the notification is left to the caller.
package alert

import (
	"sync"
	"time"
)

const (
	DefaultThreshold = 70.0
	DefaultCooldown  = 30 * time.Minute
)

// Alert describes a rising threshold crossing.
type Alert struct {
	BinID        string    `json:"binId"`
	FillPercent  float64   `json:"fillPercent"`
	PreviousFill float64   `json:"previousFill"`
	Threshold    float64   `json:"threshold"`
	Time         time.Time `json:"time"`
}

type binState struct {
	lastFill  float64
	seen      bool
	lastFired time.Time
}

// Gate tracks the previous fill and last notification time per bin. It is safe
// for concurrent use.
type Gate struct {
	threshold float64
	cooldown  time.Duration

	mu   sync.Mutex
	bins map[string]binState
}

// NewGate returns a Gate. Non-positive values select the defaults.
func NewGate(threshold float64, cooldown time.Duration) *Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Gate{threshold: threshold, cooldown: cooldown, bins: map[string]binState{}}
}

// Threshold returns the configured fill threshold.
func (g *Gate) Threshold() float64 { return g.threshold }

// Observe records fill for the bin at time now. It returns an Alert when the
// fill rises from below the threshold to at or above it and no alert fired for
// the bin within the cooldown. The first observation of a bin only seeds the
// previous fill.
func (g *Gate) Observe(binID string, fill float64, now time.Time) (Alert, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := g.bins[binID]
	prev, seen := st.lastFill, st.seen
	st.lastFill, st.seen = fill, true
	defer func() { g.bins[binID] = st }()

	if !seen || prev >= g.threshold || fill < g.threshold {
		return Alert{}, false
	}
	if !st.lastFired.IsZero() && now.Sub(st.lastFired) < g.cooldown {
		return Alert{}, false
	}
	st.lastFired = now
	return Alert{
		BinID:        binID,
		FillPercent:  fill,
		PreviousFill: prev,
		Threshold:    g.threshold,
		Time:         now,
	}, true
}

// Reset forgets the state of a bin, typically after it has been emptied.
func (g *Gate) Reset(binID string) {
	g.mu.Lock()
	delete(g.bins, binID)
	g.mu.Unlock()
}
