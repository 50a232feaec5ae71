//go:build rp2040

package main

import (
	_ "embed"
	"machine"
	"time"

	"tinygo.org/x/drivers/buzzer"

	"sortbin/config"
	"sortbin/core"
)

// Board configuration, overridable at build time by editing sortbin.json
//
//go:embed sortbin.json
var boardConfig []byte

var (
	// Debug counters
	cyclesRun   uint32
	cycleErrors uint32
	panics      uint32
)

func main() {
	// Disable the watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	core.SetDebugWriter(func(s string) { println(s) })

	cfg, err := config.LoadConfig(boardConfig)
	if err != nil {
		println("sortbin: bad board config, using defaults:", err.Error())
		cfg = config.DefaultConfig()
	}
	core.SetDebugEnabled(cfg.Debug)

	ctrl, outputs, err := build(cfg)
	if err != nil {
		halt("sortbin: " + err.Error())
	}
	core.DebugPrintln("sortbin: ready, pulse backend " + cfg.Pulse.Backend)

	for {
		// Recover from panics so a bad cycle never leaves the actuator or buzzer on
		func() {
			defer func() {
				if r := recover(); r != nil {
					panics++
					outputs.ClearAll()
					core.DumpEventRing()
				}
			}()

			if _, err := ctrl.Cycle(); err != nil {
				cycleErrors++
			}
			cyclesRun++
		}()
	}
}

// build wires the hardware drivers into the control loop
func build(cfg *config.Config) (*core.Controller, *core.OutputPort, error) {
	gpio := NewRPGPIODriver()

	timing, err := core.NewTiming(cfg.Clock, core.BusySpinner{}, NewOverflowCounter(cfg.Clock.CounterBits))
	if err != nil {
		return nil, nil, err
	}

	inputs, err := core.NewInputPort(gpio, cfg.SensorPins())
	if err != nil {
		return nil, nil, err
	}

	pins := cfg.OutputPins()
	outputs, err := core.NewOutputPort(gpio, pins)
	if err != nil {
		return nil, nil, err
	}
	bz := buzzer.New(machine.Pin(pins.Buzzer))
	outputs.UseBuzzer(&bz)

	var pulser core.Pulser = core.NewLinePulser(outputs, timing)
	if cfg.Pulse.Backend == config.BackendPIO {
		// The state machine takes the actuator pin over from the GPIO block
		pulser, err = NewPIOPulser(pins.Actuator, cfg.Clock)
		if err != nil {
			return nil, nil, err
		}
	}

	actuator, err := core.NewActuator(pulser, cfg.PulseWidths())
	if err != nil {
		return nil, nil, err
	}

	lcd, err := NewLCD(cfg.Display)
	if err != nil {
		return nil, nil, err
	}

	ctrl, err := core.NewController(inputs, outputs, actuator, lcd, timing, cfg.LoopConfig())
	if err != nil {
		return nil, nil, err
	}
	return ctrl, outputs, nil
}

// halt reports a fatal startup error forever
func halt(msg string) {
	for {
		println(msg)
		time.Sleep(time.Second)
	}
}
