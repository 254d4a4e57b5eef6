package testutil

import (
	"sync"
	"time"
)

// FakeTimeSource is a settable wall clock for tests.
//
// Unlike engine.SystemTimeSource, FakeTimeSource only moves when a test
// advances it. This lets the hybrid clock's real-elapsed component be pinned
// exactly, so simulated timestamps in assertions are fully deterministic.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeTimeSource struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeTimeSource creates a fake source frozen at the given instant.
func NewFakeTimeSource(now time.Time) *FakeTimeSource {
	return &FakeTimeSource{now: now}
}

// Now returns the current fake instant without advancing it.
func (f *FakeTimeSource) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake clock forward by d.
//
// Monotonic by convention: tests pass non-negative durations.
func (f *FakeTimeSource) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set pins the fake clock to an exact instant.
//
// Used for test reuse. Subsequent Now() calls return t until the next
// Advance or Set.
func (f *FakeTimeSource) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}
