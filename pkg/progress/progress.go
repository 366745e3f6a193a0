package progress

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Status of a source's work within one pipeline run.
type Status string

const (
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Notification reports how one retailer's scrape settled.
type Notification struct {
	Retailer   string `json:"retailer"`
	DealsFound int    `json:"deals_found"`
	Status     Status `json:"status"`
	Error      string `json:"error,omitempty"`
}

// Sink receives notifications from the pipeline. Implementations must not
// block the caller.
type Sink interface {
	Notify(n *Notification)
}

// Notifier delivers a notification to one destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager fans notifications out to all registered notifiers, fire and
// forget: delivery happens in the background and failures are only logged.
type Manager struct {
	notifiers []Notifier
	timeout   time.Duration
}

// NewManager creates a new progress manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers, timeout: 10 * time.Second}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Notify broadcasts n without blocking. The pipeline never depends on
// delivery succeeding.
func (m *Manager) Notify(n *Notification) {
	for _, notifier := range m.notifiers {
		go func(nt Notifier) {
			ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
			defer cancel()
			if err := nt.Send(ctx, n); err != nil {
				fmt.Fprintf(os.Stderr, "  progress %s: %v\n", nt.Name(), err)
			}
		}(notifier)
	}
}
