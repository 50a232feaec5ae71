//go:build !tinygo

package core

import "sync/atomic"

var spinSink uint32

// BusySpinner is a plain CPU loop (regular Go implementation).
// The atomic store keeps the compiler from eliding the loop.
type BusySpinner struct{}

// Spin burns the given number of loop iterations
func (BusySpinner) Spin(iterations uint32) {
	for i := uint32(0); i < iterations; i++ {
		atomic.StoreUint32(&spinSink, i)
	}
}
