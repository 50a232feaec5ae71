// Package sim provides logical-time stand-ins for the bin's hardware: a virtual
// clock with its spinner and overflow counter, a GPIO bank that records every
// edge, and a display that records what was written. Nothing here sleeps; time
// only moves when the firmware spins or polls the counter.
package sim

import (
	"time"

	"sortbin/core"
)

// Clock is a logical clock advanced only by the simulated time sources
type Clock struct {
	cfg core.ClockConfig
	now time.Duration

	spinner Spinner
	counter Counter
}

// NewClock creates a clock calibrated like the real target
func NewClock(cfg core.ClockConfig) *Clock {
	c := &Clock{cfg: cfg}
	c.spinner.clock = c
	c.counter.clock = c
	return c
}

// Now returns the logical time since the clock was created
func (c *Clock) Now() time.Duration {
	return c.now
}

// Advance moves logical time forward
func (c *Clock) Advance(d time.Duration) {
	if d > 0 {
		c.now += d
	}
}

// Spinner returns the calibrated spin loop bound to this clock
func (c *Clock) Spinner() *Spinner {
	return &c.spinner
}

// Counter returns the free-running counter bound to this clock
func (c *Clock) Counter() *Counter {
	return &c.counter
}

// Spinner advances the clock by the cost of each spin iteration
type Spinner struct {
	clock      *Clock
	iterations uint64
}

// Spin accounts for iterations loop passes
func (s *Spinner) Spin(iterations uint32) {
	s.iterations += uint64(iterations)
	cfg := s.clock.cfg
	ns := uint64(iterations) * uint64(cfg.CyclesPerSpin) * uint64(time.Second) / uint64(cfg.CPUHz)
	s.clock.Advance(time.Duration(ns))
}

// Iterations returns the total number of iterations spun
func (s *Spinner) Iterations() uint64 {
	return s.iterations
}

// Counter models a free-running up-counter with an overflow flag.
// Polling a running counter that has not yet wrapped fast-forwards the clock to
// the overflow point, which is what a busy poll loop would have spent.
type Counter struct {
	clock *Clock

	running   bool
	startedAt time.Duration
	elapsed   time.Duration // time counted before the last Stop
	flag      bool

	resets    int
	overflows int
}

// Reset reloads zero and clears the overflow flag
func (c *Counter) Reset() {
	c.elapsed = 0
	c.flag = false
	c.startedAt = c.clock.now
	c.resets++
}

// Start lets the counter run
func (c *Counter) Start() {
	if c.running {
		return
	}
	c.running = true
	c.startedAt = c.clock.now
}

// Stop halts the counter, keeping the count so far
func (c *Counter) Stop() {
	if !c.running {
		return
	}
	c.elapsed += c.clock.now - c.startedAt
	c.running = false
}

// Overflowed reports the overflow flag, waiting out the remaining count if running
func (c *Counter) Overflowed() bool {
	if c.flag || !c.running {
		return c.flag
	}
	period := c.Period()
	counted := c.elapsed + (c.clock.now - c.startedAt)
	if counted < period {
		c.clock.Advance(period - counted)
	}
	c.flag = true
	c.overflows++
	return true
}

// Period returns the logical time from reset to overflow
func (c *Counter) Period() time.Duration {
	cfg := c.clock.cfg
	return time.Duration(cfg.OverflowTicks() * uint64(time.Second) / uint64(cfg.CounterHz))
}

// Overflows returns the number of overflow events observed
func (c *Counter) Overflows() int {
	return c.overflows
}

// Resets returns the number of times the counter was reloaded
func (c *Counter) Resets() int {
	return c.resets
}
