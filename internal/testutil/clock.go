package testutil

import (
	"sync"
	"time"
)

// Epoch is the first time a FixedClock reports.
var Epoch = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// FixedClock is a deterministic clock for tests.
//
// Each call to Now returns Epoch plus one second per previous call, so
// timestamps are distinct and strictly increasing without depending on wall
// time. Tests that need "now" to stand still use Freeze.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu     sync.Mutex
	ticks  int64
	frozen bool
}

// NewFixedClock creates a clock whose first Now() returns Epoch.
func NewFixedClock() *FixedClock {
	return &FixedClock{}
}

// Now returns the next timestamp.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.ticks) * time.Second)
	if !c.frozen {
		c.ticks++
	}
	return t
}

// Freeze stops the clock from advancing.
func (c *FixedClock) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

// Reset rewinds the clock to Epoch and unfreezes it.
func (c *FixedClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
	c.frozen = false
}
