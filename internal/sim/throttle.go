package sim

import (
	"sync"
	"time"

	"github.com/san-kum/odesolve/internal/multistep"
)

const DefaultThrottle = time.Second

// Throttle forwards at most one status report per interval to the wrapped
// Reporter. Error reports always pass through.
type Throttle struct {
	next     multistep.Reporter
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewThrottle(next multistep.Reporter, interval time.Duration) *Throttle {
	if interval <= 0 {
		interval = DefaultThrottle
	}
	return &Throttle{next: next, interval: interval, now: time.Now}
}

func (t *Throttle) ReportError(kind multistep.Kind, ctx multistep.ErrorContext) {
	t.next.ReportError(kind, ctx)
}

func (t *Throttle) ReportStatus(tn float64) {
	t.mu.Lock()
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		t.mu.Unlock()
		return
	}
	t.last = now
	t.mu.Unlock()

	t.next.ReportStatus(tn)
}
