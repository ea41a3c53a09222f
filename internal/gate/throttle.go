// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package gate

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// notifyThrottle spaces repeated notifications per identity. It is safe for
// concurrent use.
type notifyThrottle struct {
	mu       sync.Mutex
	last     map[ulid.ULID]time.Time
	interval time.Duration
	now      func() time.Time
}

func newNotifyThrottle(interval time.Duration) *notifyThrottle {
	return &notifyThrottle{
		last:     make(map[ulid.ULID]time.Time),
		interval: interval,
		now:      time.Now,
	}
}

// allow reports whether a notification for id may fire now. The first call
// for an identity always fires; later calls fire once the interval elapsed.
func (t *notifyThrottle) allow(id ulid.ULID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.last[id]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.last[id] = now
	return true
}

// forget drops throttle state for an identity, so a reconnecting participant
// is notified immediately again.
func (t *notifyThrottle) forget(id ulid.ULID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, id)
}
