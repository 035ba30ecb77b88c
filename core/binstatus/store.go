// Package binstatus keeps the latest analysis and alert of every bin.
package binstatus

import (
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/fillcast/core/alert"
	"github.com/kilianp07/fillcast/core/forecast"
)

// Status captures the current known state of a bin.
type Status struct {
	BinID     string          `json:"binId"`
	Report    forecast.Report `json:"report"`
	LastAlert *alert.Alert    `json:"lastAlert,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Trend forecast.Trend
	// MinFill keeps bins whose current fill is at least this value.
	MinFill float64
}

type Store interface {
	SetReport(r forecast.Report, at time.Time)
	RecordAlert(a alert.Alert)
	Get(binID string) (Status, bool)
	List(Filter) []Status
	// Alerts returns the most recent alerts, newest first.
	Alerts(limit int) []alert.Alert
}

const maxAlerts = 100

type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]Status
	alerts []alert.Alert
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Status{}}
}

func (s *MemoryStore) SetReport(r forecast.Report, at time.Time) {
	s.mu.Lock()
	st := s.data[r.BinID]
	st.BinID = r.BinID
	st.Report = r
	st.UpdatedAt = at
	s.data[r.BinID] = st
	s.mu.Unlock()
}

func (s *MemoryStore) RecordAlert(a alert.Alert) {
	s.mu.Lock()
	st := s.data[a.BinID]
	st.BinID = a.BinID
	st.LastAlert = &a
	s.data[a.BinID] = st
	s.alerts = append(s.alerts, a)
	if len(s.alerts) > maxAlerts {
		s.alerts = s.alerts[len(s.alerts)-maxAlerts:]
	}
	s.mu.Unlock()
}

func (s *MemoryStore) Get(binID string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[binID]
	return st, ok
}

func (s *MemoryStore) List(f Filter) []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Status, 0, len(s.data))
	for _, st := range s.data {
		if f.Trend != "" && st.Report.Forecast.Trend != f.Trend {
			continue
		}
		if st.Report.CurrentFill < f.MinFill {
			continue
		}
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].BinID < res[j].BinID })
	return res
}

func (s *MemoryStore) Alerts(limit int) []alert.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.alerts)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]alert.Alert, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.alerts[i])
	}
	return out
}
