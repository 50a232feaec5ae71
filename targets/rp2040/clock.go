//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// OverflowCounter presents the free-running 1MHz system timer as a narrow
// counter with an overflow flag. Only the low word of the timer is read; the
// count is kept as a difference so the 32-bit wrap does not matter.
type OverflowCounter struct {
	limit uint64

	running bool
	start   uint32 // TIMERAWL when last started
	counted uint64 // ticks counted before the last Stop
	flag    bool
}

// NewOverflowCounter creates a counter that overflows after 1<<bits ticks.
// bits must already be validated against core.MaxCounterBits.
func NewOverflowCounter(bits uint8) *OverflowCounter {
	return &OverflowCounter{limit: uint64(1)<<bits - 1}
}

// Reset reloads zero and clears the overflow flag
func (c *OverflowCounter) Reset() {
	c.counted = 0
	c.flag = false
	c.start = timerRAWL.Get()
}

// Start lets the counter run
func (c *OverflowCounter) Start() {
	if c.running {
		return
	}
	c.start = timerRAWL.Get()
	c.running = true
}

// Stop halts the counter, keeping the count so far
func (c *OverflowCounter) Stop() {
	if !c.running {
		return
	}
	c.counted += uint64(timerRAWL.Get() - c.start)
	c.running = false
}

// Overflowed reports whether the count has passed the counter width
func (c *OverflowCounter) Overflowed() bool {
	if c.flag || !c.running {
		return c.flag
	}
	if c.counted+uint64(timerRAWL.Get()-c.start) > c.limit {
		c.flag = true
	}
	return c.flag
}
