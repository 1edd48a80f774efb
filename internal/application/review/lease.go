package review

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultLeaseTTL is how long a lease may sit unreleased before the sweeper
// treats it as abandoned.
const DefaultLeaseTTL = 5 * time.Minute

// LeaseTable tracks which users are currently in front of a reviewer. It is
// process-local and advisory: a restart clears it, and the user store stays
// the source of truth. All access goes through one mutex; none of the
// operations block on I/O, so the critical sections stay short.
type LeaseTable struct {
	ttl time.Duration

	mu     sync.Mutex
	leases map[int64]time.Time
}

func NewLeaseTable(ttl time.Duration) *LeaseTable {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return &LeaseTable{
		ttl:    ttl,
		leases: make(map[int64]time.Time),
	}
}

// TryAcquire atomically claims the user for the caller. Returns false when
// someone else already holds a live lease; there is no check-then-act gap
// visible to other callers.
func (t *LeaseTable) TryAcquire(userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, held := t.leases[userID]; held {
		return false
	}
	t.leases[userID] = time.Now()
	return true
}

// Release drops the lease. Idempotent: releasing an absent lease (already
// swept, or never held) is a no-op.
func (t *LeaseTable) Release(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.leases, userID)
}

// Leased reports whether the user currently holds a lease.
func (t *LeaseTable) Leased(userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, held := t.leases[userID]
	return held
}

// Len returns the number of live leases.
func (t *LeaseTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.leases)
}

// sweep removes every lease older than the TTL and returns how many were
// dropped. Holds the same mutex as TryAcquire/Release, so a sweep never
// observes a half-applied operation.
func (t *LeaseTable) sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for id, acquired := range t.leases {
		if now.Sub(acquired) > t.ttl {
			delete(t.leases, id)
			n++
		}
	}
	return n
}

// Run sweeps abandoned leases on a fixed interval until ctx is done. A panic
// inside a tick means the lease state can no longer be trusted; dying beats
// handing the same candidate to two reviewers, so it is logged at fatal
// level, which terminates the process.
func (t *LeaseTable) Run(ctx context.Context, interval time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Fatal().Interface("panic", r).Msg("lease sweeper panicked, lease state unrecoverable")
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.sweep(time.Now()); n > 0 {
				log.Info().Int("reclaimed", n).Msg("swept abandoned review leases")
			}
		}
	}
}
