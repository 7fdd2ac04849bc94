package challenges

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/jonboulle/clockwork"
)

type entry struct {
	challenge []byte
	issuedAt  time.Time
}

// MemoryLedger keeps challenges in process memory. Outstanding ceremonies do
// not survive a restart.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[Key]entry
	ttl     time.Duration
	clock   clockwork.Clock
}

func NewMemoryLedger(ttl time.Duration, clock clockwork.Clock) *MemoryLedger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryLedger{entries: map[Key]entry{}, ttl: ttl, clock: clock}
}

func (l *MemoryLedger) Issue(_ context.Context, key Key) ([]byte, error) {
	c, err := newChallenge()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.entries[key] = entry{challenge: c, issuedAt: l.clock.Now()}
	l.mu.Unlock()

	return c, nil
}

func (l *MemoryLedger) Consume(_ context.Context, key Key) ([]byte, error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	delete(l.entries, key)
	l.mu.Unlock()

	if !ok || l.expired(e) {
		return nil, common.ErrChallengeExpired
	}
	return e.challenge, nil
}

func (l *MemoryLedger) expired(e entry) bool {
	return l.ttl > 0 && l.clock.Since(e.issuedAt) > l.ttl
}

// Sweep drops expired entries and reports how many were removed.
func (l *MemoryLedger) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for k, e := range l.entries {
		if l.expired(e) {
			delete(l.entries, k)
			n++
		}
	}
	return n
}

// Len is the number of stored entries, fresh or not.
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// RunSweeper calls Sweep every interval until ctx is done. A non-nil report
// receives the number of entries each sweep removed.
func (l *MemoryLedger) RunSweeper(ctx context.Context, interval time.Duration, report func(n int)) {
	t := l.clock.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			if n := l.Sweep(); report != nil {
				report(n)
			}
		}
	}
}
