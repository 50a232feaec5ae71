package core

import "errors"

// Valid control range of the rotary actuator, about a 120 degree sweep
const (
	MinPulseWidthUS = 1300
	MaxPulseWidthUS = 2000
)

// ErrPulseWidthRange is returned for a pulse width outside the actuator's control range
var ErrPulseWidthRange = errors.New("pulse width outside actuator control range")

// PulseWidths holds the pulse width, in microseconds, that positions the
// actuator over each bin.
type PulseWidths struct {
	PlasticUS uint32 `json:"plastic_us"`
	MetalUS   uint32 `json:"metal_us"`
	WetUS     uint32 `json:"wet_us"`
}

// DefaultPulseWidths returns the factory positions: 1.333ms, 1.666ms and 2.000ms
func DefaultPulseWidths() PulseWidths {
	return PulseWidths{PlasticUS: 1333, MetalUS: 1666, WetUS: 2000}
}

// Validate checks every width against the control range
func (w PulseWidths) Validate() error {
	for _, us := range [...]uint32{w.PlasticUS, w.MetalUS, w.WetUS} {
		if us < MinPulseWidthUS || us > MaxPulseWidthUS {
			return ErrPulseWidthRange
		}
	}
	return nil
}

// For returns the width for a sortable class. It panics on NoObject.
func (w PulseWidths) For(c WasteClass) uint32 {
	switch c {
	case Plastic:
		return w.PlasticUS
	case Metal:
		return w.MetalUS
	case Wet:
		return w.WetUS
	}
	panic("no actuator position for " + c.String())
}

// Pulser emits one pulse and returns only after it has completed
type Pulser interface {
	Pulse(widthUS uint32) error
}

// LinePulser raises the actuator line, holds it with a calibrated spin, and
// lowers it again. One discrete pulse, not a PWM train: the actuator holds
// its position between corrective pulses.
type LinePulser struct {
	port   *OutputPort
	timing *Timing
}

// NewLinePulser binds the pulser to the actuator line of port
func NewLinePulser(port *OutputPort, timing *Timing) *LinePulser {
	return &LinePulser{port: port, timing: timing}
}

// Pulse drives a single high pulse of widthUS microseconds
func (p *LinePulser) Pulse(widthUS uint32) error {
	if err := p.port.SetActuator(true); err != nil {
		return err
	}
	p.timing.DelayUS(widthUS)
	return p.port.SetActuator(false)
}

// Actuator turns a classification into an actuator pulse.
//
// Control is open loop: there is no position sensor, so an actuator that fails
// to reach the commanded position goes unnoticed.
type Actuator struct {
	pulser Pulser
	widths PulseWidths
}

// NewActuator validates the widths and binds the pulse backend
func NewActuator(pulser Pulser, widths PulseWidths) (*Actuator, error) {
	if err := widths.Validate(); err != nil {
		return nil, err
	}
	return &Actuator{pulser: pulser, widths: widths}, nil
}

// Widths returns the configured pulse widths
func (a *Actuator) Widths() PulseWidths {
	return a.widths
}

// Actuate issues the pulse for class and blocks until it has completed.
// It returns the width issued. Calling it with NoObject is a programming error.
func (a *Actuator) Actuate(c WasteClass) (uint32, error) {
	if c == NoObject {
		panic("actuate called without an object")
	}
	width := a.widths.For(c)
	if width < MinPulseWidthUS || width > MaxPulseWidthUS {
		panic("pulse width " + utoa(width) + "us outside control range")
	}
	if err := a.pulser.Pulse(width); err != nil {
		return 0, errors.New("actuator pulse: " + err.Error())
	}
	return width, nil
}
