package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/wordduel/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Scheduled callbacks run synchronously from Advance, in due-time order.
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
	timers      []*mockTimer
	seq         int
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

type mockTimer struct {
	clock  *MockClock
	at     time.Time
	seq    int
	fn     func()
	active bool
}

// Stop cancels the timer if it has not fired yet
func (t *mockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if !t.active {
		return false
	}
	t.active = false
	t.clock.remove(t)
	return true
}

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime
}

// AfterFunc registers f to run once the clock is advanced past d
func (c *MockClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &mockTimer{
		clock:  c,
		at:     c.currentTime.Add(d),
		seq:    c.seq,
		fn:     f,
		active: true,
	}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by the given duration, firing due timers.
// Timers scheduled by a firing callback also fire if they fall within the window.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.currentTime.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDue(target)
		if next == nil {
			c.currentTime = target
			c.mu.Unlock()
			return
		}
		next.active = false
		c.remove(next)
		if next.at.After(c.currentTime) {
			c.currentTime = next.at
		}
		c.mu.Unlock()

		next.fn()
	}
}

// Set sets the clock to the given time without firing timers
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = t
}

// PendingTimers returns the number of scheduled timers that have not fired or been stopped
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *MockClock) nextDue(target time.Time) *mockTimer {
	var next *mockTimer
	for _, t := range c.timers {
		if t.at.After(target) {
			continue
		}
		if next == nil || t.at.Before(next.at) || (t.at.Equal(next.at) && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

func (c *MockClock) remove(t *mockTimer) {
	for i, candidate := range c.timers {
		if candidate == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}
