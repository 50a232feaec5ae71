package core

import "errors"

var (
	// ErrInvalidClock is returned when a ClockConfig has a zero rate or an unusable counter width.
	ErrInvalidClock = errors.New("invalid clock configuration")

	// ErrHoldResolution is returned when one counter overflow is too coarse for a hold
	ErrHoldResolution = errors.New("counter overflow period too long for hold")
)

// MaxCounterBits is the widest counter supported
const MaxCounterBits = 31

// ClockConfig describes the execution clock the delays are calibrated against.
//
// These values are calibration, not constants: if the real CPU clock differs from
// CPUHz, every spun delay (and therefore every actuator pulse width) scales by the
// same ratio. The same holds for CounterHz and the multi-second hold.
type ClockConfig struct {
	// CPUHz is the execution clock rate in Hz
	CPUHz uint32 `json:"cpu_hz"`

	// CyclesPerSpin is the number of CPU cycles one Spinner iteration costs
	CyclesPerSpin uint32 `json:"cycles_per_spin"`

	// CounterHz is the tick rate of the free-running hardware counter
	CounterHz uint32 `json:"counter_hz"`

	// CounterBits is the counter width, 1..MaxCounterBits; it overflows after 1<<CounterBits ticks
	CounterBits uint8 `json:"counter_bits"`
}

// Validate checks that every rate and width is usable.
func (c ClockConfig) Validate() error {
	if c.CPUHz == 0 || c.CyclesPerSpin == 0 || c.CounterHz == 0 {
		return ErrInvalidClock
	}
	if c.CounterBits == 0 || c.CounterBits > MaxCounterBits {
		return ErrInvalidClock
	}
	return nil
}

// SpinIterations converts microseconds to Spinner iterations
func (c ClockConfig) SpinIterations(us uint32) uint32 {
	return uint32((uint64(us) * uint64(c.CPUHz)) / (1000000 * uint64(c.CyclesPerSpin)))
}

// SpinToUS converts Spinner iterations back to microseconds
func (c ClockConfig) SpinToUS(iterations uint32) uint32 {
	return uint32((uint64(iterations) * uint64(c.CyclesPerSpin) * 1000000) / uint64(c.CPUHz))
}

// OverflowTicks returns the number of counter ticks between reset and overflow
func (c ClockConfig) OverflowTicks() uint64 {
	return uint64(1) << c.CounterBits
}

// OverflowPeriodUS returns the time from counter reset to overflow in microseconds
func (c ClockConfig) OverflowPeriodUS() uint64 {
	return (c.OverflowTicks() * 1000000) / uint64(c.CounterHz)
}

// CheckHold verifies the counter can time a hold of the given seconds to within
// a tenth of it. OverflowsFor rounds to whole overflows, so a coarser counter
// would stretch or shrink the hold by up to half a period.
func (c ClockConfig) CheckHold(seconds uint32) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.OverflowPeriodUS()*10 > uint64(seconds)*1000000 {
		return ErrHoldResolution
	}
	return nil
}

// OverflowsFor returns how many overflow events accumulate to the given number
// of seconds, rounded to the nearest event and never less than one for n > 0.
func (c ClockConfig) OverflowsFor(seconds uint32) uint32 {
	if seconds == 0 {
		return 0
	}
	ticks := uint64(seconds) * uint64(c.CounterHz)
	period := c.OverflowTicks()
	n := (ticks + period/2) / period
	if n == 0 {
		n = 1
	}
	return uint32(n)
}
