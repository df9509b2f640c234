package scoring

import (
	"context"
	"sync"
	"time"

	"loanrisk/internal/logger"
)

// HealthStatus is the last observed state of the scoring collaborator.
type HealthStatus struct {
	Online    bool      `json:"online"`
	CheckedAt time.Time `json:"checked_at"`
}

// Monitor polls the scoring API's liveness probe on a fixed interval and
// caches the last observation for the health endpoint.
type Monitor struct {
	client   Scorer
	interval time.Duration

	mu     sync.RWMutex
	status HealthStatus
}

// NewMonitor creates a monitor over the given client.
func NewMonitor(client Scorer, interval time.Duration) *Monitor {
	return &Monitor{client: client, interval: interval}
}

// Run probes immediately, then on every tick until ctx is cancelled.
// Intended to run in its own goroutine.
func (m *Monitor) Run(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	err := m.client.CheckHealth(ctx)
	now := time.Now().UTC()

	m.mu.Lock()
	wasOnline := m.status.Online
	m.status = HealthStatus{Online: err == nil, CheckedAt: now}
	m.mu.Unlock()

	if err != nil && wasOnline {
		logger.Get().Warnw("scoring service went offline", "error", err)
	}
	if err == nil && !wasOnline {
		logger.Get().Infow("scoring service is online")
	}
}

// Status returns the last observed health state.
func (m *Monitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}
