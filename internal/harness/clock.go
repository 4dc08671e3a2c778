package harness

import (
	"sync"
	"time"
)

// Clock reports host time in seconds. For a simulator host this is the
// simulation's universal time, which only advances on physics ticks.
type Clock interface {
	Now() float64
}

type WallClock struct {
	start time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// ManualClock is advanced explicitly, for offline runs and tests.
type ManualClock struct {
	mu sync.Mutex
	t  float64
}

func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *ManualClock) Advance(dt float64) {
	c.mu.Lock()
	c.t += dt
	c.mu.Unlock()
}

func (c *ManualClock) Set(t float64) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// TickSource delivers the fixed-rate wakeups that drive Run.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

type Ticker struct {
	t *time.Ticker
}

func NewTicker(period time.Duration) *Ticker {
	return &Ticker{t: time.NewTicker(period)}
}

func (t *Ticker) C() <-chan time.Time { return t.t.C }
func (t *Ticker) Stop()               { t.t.Stop() }
