package testutil

import (
	"sync"
	"time"
)

// Epoch is the first time a StepClock reports.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// StepClock is a clock that advances by a fixed step on every call to
// Now, starting at Epoch. Two consecutive calls are always exactly one
// step apart, so measured durations are reproducible.
//
// Thread-safety: StepClock is safe for concurrent use.
type StepClock struct {
	mu    sync.Mutex
	step  time.Duration
	calls int64
}

// NewStepClock creates a clock advancing by step per reading.
func NewStepClock(step time.Duration) *StepClock {
	return &StepClock{step: step}
}

// Now returns Epoch plus step times the number of earlier readings.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Reset returns the clock to Epoch.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
