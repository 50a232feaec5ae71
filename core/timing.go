package core

// Spinner burns CPU for a calibrated number of loop iterations.
type Spinner interface {
	Spin(iterations uint32)
}

// Counter is a free-running hardware counter used as a passive time base.
// It is polled for its overflow flag; no interrupt is involved.
type Counter interface {
	// Reset reloads the count to zero and clears the overflow flag
	Reset()

	// Start lets the counter run
	Start()

	// Stop halts the counter
	Stop()

	// Overflowed reports whether the counter has wrapped since the last Reset
	Overflowed() bool
}

// Timing is the delay primitive shared by the pulse generator and the control loop.
//
// Short, timing-critical waits (pulse widths) are calibrated spin loops. Long waits
// (the multi-second hold) accumulate counter overflows: spinning for seconds drifts,
// and overflow counting is far too coarse for a 1-2ms pulse.
//
// Every delay blocks until it has fully elapsed. Nothing can cancel it.
type Timing struct {
	clock   ClockConfig
	spinner Spinner
	counter Counter

	msIterations uint32
}

// NewTiming validates the clock configuration and binds the time sources
func NewTiming(clock ClockConfig, spinner Spinner, counter Counter) (*Timing, error) {
	if err := clock.Validate(); err != nil {
		return nil, err
	}
	if spinner == nil || counter == nil {
		return nil, ErrInvalidClock
	}

	return &Timing{
		clock:        clock,
		spinner:      spinner,
		counter:      counter,
		msIterations: clock.SpinIterations(1000),
	}, nil
}

// Clock returns the calibration this Timing was built with
func (t *Timing) Clock() ClockConfig {
	return t.clock
}

// DelayUS spins for n microseconds
func (t *Timing) DelayUS(n uint32) {
	if n == 0 {
		return
	}
	t.spinner.Spin(t.clock.SpinIterations(n))
}

// DelayMS spins for n milliseconds, one calibrated millisecond at a time
func (t *Timing) DelayMS(n uint32) {
	for i := uint32(0); i < n; i++ {
		t.spinner.Spin(t.msIterations)
	}
}

// DelaySeconds waits n seconds by accumulating counter overflow events.
// The counter is reset to zero and restarted before every event.
func (t *Timing) DelaySeconds(n uint32) {
	t.DelayOverflows(t.clock.OverflowsFor(n))
}

// DelayOverflows waits for exactly count counter overflow events
func (t *Timing) DelayOverflows(count uint32) {
	for i := uint32(0); i < count; i++ {
		t.counter.Reset()
		t.counter.Start()
		for !t.counter.Overflowed() {
		}
		t.counter.Stop()
	}
}
