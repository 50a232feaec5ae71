//go:build tinygo

package core

import "runtime/volatile"

var spinSink volatile.Register32

// BusySpinner is a calibrated instruction loop. One iteration is a volatile
// store plus the loop branch; ClockConfig.CyclesPerSpin must match the target.
type BusySpinner struct{}

// Spin burns the given number of loop iterations
func (BusySpinner) Spin(iterations uint32) {
	for i := uint32(0); i < iterations; i++ {
		spinSink.Set(i)
	}
}
