package sim

import (
	"fmt"
	"time"

	"sortbin/config"
	"sortbin/core"
)

// Bench is a complete bin assembled on simulated hardware
type Bench struct {
	Config     *config.Config
	Clock      *Clock
	GPIO       *GPIO
	Display    *Display
	Timing     *core.Timing
	Outputs    *core.OutputPort
	Inputs     *core.InputPort
	Actuator   *core.Actuator
	Controller *core.Controller
}

// NewBench builds the firmware core on simulated collaborators. The pulse
// backend is always the spun GPIO pulse; the PIO backend only exists on RP2040.
func NewBench(cfg *config.Config) (*Bench, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	b := &Bench{Config: cfg}
	b.Clock = NewClock(cfg.Clock)
	b.GPIO = NewGPIO(b.Clock)
	b.Display = NewDisplay(int(cfg.Display.Width))

	var err error
	if b.Timing, err = core.NewTiming(cfg.Clock, b.Clock.Spinner(), b.Clock.Counter()); err != nil {
		return nil, fmt.Errorf("timing: %w", err)
	}
	if b.Outputs, err = core.NewOutputPort(b.GPIO, cfg.OutputPins()); err != nil {
		return nil, fmt.Errorf("outputs: %w", err)
	}
	if b.Inputs, err = core.NewInputPort(b.GPIO, cfg.SensorPins()); err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	if b.Actuator, err = core.NewActuator(core.NewLinePulser(b.Outputs, b.Timing), cfg.PulseWidths()); err != nil {
		return nil, fmt.Errorf("actuator: %w", err)
	}
	b.Controller, err = core.NewController(b.Inputs, b.Outputs, b.Actuator, b.Display, b.Timing, cfg.LoopConfig())
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Present drives the sensor inputs for the next cycle
func (b *Bench) Present(r core.SensorReading) {
	b.GPIO.Present(b.Config.SensorPins(), r)
}

// ActuatorPulses returns the widths of every pulse seen on the actuator line
func (b *Bench) ActuatorPulses() []time.Duration {
	return b.GPIO.Pulses(b.Config.OutputPins().Actuator)
}
