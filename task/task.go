// Package task provides a single-slot cancellable delayed callback.
// Scheduling supersedes the pending callback (last writer wins) and
// Cancel is idempotent, so teardown can always call it.
package task

import (
	"sync"
	"time"
)

type Delayed struct {
	mu    sync.Mutex
	seq   uint64
	timer *time.Timer
}

// Schedule arms fn to run once after d, replacing any pending callback.
// A superseded callback never fires, even if its timer already expired
// and is waiting on the lock. The check happens under the lock but fn
// runs after it is released, so a Schedule or Cancel landing in that
// gap cannot stop an already-validated fn; callers whose fn must not
// act stale carry their own generation and re-check it inside fn.
func (t *Delayed) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	seq := t.seq
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.seq != seq {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending callback, if any.
func (t *Delayed) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Pending reports whether a callback is armed.
func (t *Delayed) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}
