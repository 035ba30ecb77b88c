package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/fillcast/core/alert"
	"github.com/kilianp07/fillcast/core/forecast"
	coremqtt "github.com/kilianp07/fillcast/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher records published messages. It is used in tests and by the
// one-shot CLI when no broker is configured.
type MockPublisher struct {
	mu      sync.Mutex
	Reports []forecast.Report
	Alerts  map[string]alert.Alert
	// Fail makes every publish return an error.
	Fail bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Alerts: make(map[string]alert.Alert)}
}

// PublishReport records the report.
func (m *MockPublisher) PublishReport(_ context.Context, r forecast.Report) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return "", fmt.Errorf("publish failed")
	}
	if r.ID == "" {
		r.ID = fmt.Sprintf("report-%d", len(m.Reports)+1)
	}
	m.Reports = append(m.Reports, r)
	return r.ID, nil
}

// PublishAlert records the alert.
func (m *MockPublisher) PublishAlert(_ context.Context, id string, a alert.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("publish failed")
	}
	m.Alerts[id] = a
	return nil
}

// ReportCount returns the number of recorded reports.
func (m *MockPublisher) ReportCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Reports)
}
