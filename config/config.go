package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sortbin/core"
)

var (
	// ErrDuplicatePin is returned when two signals are mapped to the same pin
	ErrDuplicatePin = errors.New("pin assigned twice")

	// ErrLabelClipped is returned when the longest label does not fit the row
	ErrLabelClipped = errors.New("label does not fit display row")
)

const defaultLabelColumn = 3

// LoadConfig parses a JSON configuration string and returns a validated Config
func LoadConfig(jsonData []byte) (*Config, error) {
	var config Config

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply defaults
	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *Config) {
	def := DefaultConfig()

	// Clock calibration: RP2040 core at 125MHz, 1MHz timer seen as a 16-bit counter
	if config.Clock.CPUHz == 0 {
		config.Clock.CPUHz = def.Clock.CPUHz
	}
	if config.Clock.CyclesPerSpin == 0 {
		config.Clock.CyclesPerSpin = def.Clock.CyclesPerSpin
	}
	if config.Clock.CounterHz == 0 {
		config.Clock.CounterHz = def.Clock.CounterHz
	}
	if config.Clock.CounterBits == 0 {
		config.Clock.CounterBits = def.Clock.CounterBits
	}

	// Pins
	defaultSensor(&config.Pins.Presence, def.Pins.Presence)
	defaultSensor(&config.Pins.Moisture, def.Pins.Moisture)
	defaultSensor(&config.Pins.Metallic, def.Pins.Metallic)
	if config.Pins.Buzzer == "" {
		config.Pins.Buzzer = def.Pins.Buzzer
	}
	for i := range config.Pins.Indicators {
		if config.Pins.Indicators[i] == "" {
			config.Pins.Indicators[i] = def.Pins.Indicators[i]
		}
	}
	if config.Pins.Actuator == "" {
		config.Pins.Actuator = def.Pins.Actuator
	}

	// Display
	for i := range config.Display.Data {
		if config.Display.Data[i] == "" {
			config.Display.Data[i] = def.Display.Data[i]
		}
	}
	if config.Display.Enable == "" {
		config.Display.Enable = def.Display.Enable
	}
	if config.Display.RS == "" {
		config.Display.RS = def.Display.RS
	}
	if config.Display.Width == 0 {
		config.Display.Width = def.Display.Width
	}
	if config.Display.Height == 0 {
		config.Display.Height = def.Display.Height
	}
	if config.Display.Column == nil {
		column := def.Display.LabelColumn()
		config.Display.Column = &column
	}

	// Pulse widths
	if config.Pulse.PlasticUS == 0 {
		config.Pulse.PlasticUS = def.Pulse.PlasticUS
	}
	if config.Pulse.MetalUS == 0 {
		config.Pulse.MetalUS = def.Pulse.MetalUS
	}
	if config.Pulse.WetUS == 0 {
		config.Pulse.WetUS = def.Pulse.WetUS
	}
	if config.Pulse.Backend == "" {
		config.Pulse.Backend = BackendGPIO
	}

	if config.HoldSeconds == 0 {
		config.HoldSeconds = def.HoldSeconds
	}
}

func defaultSensor(s *SensorConfig, def SensorConfig) {
	if s.Pin == "" {
		*s = def
	}
}

// DefaultConfig returns the configuration of the reference RP2040 build
func DefaultConfig() *Config {
	widths := core.DefaultPulseWidths()
	column := uint8(defaultLabelColumn)
	return &Config{
		Clock: core.ClockConfig{
			CPUHz:         125000000,
			CyclesPerSpin: 5,
			CounterHz:     1000000,
			CounterBits:   16,
		},
		Pins: PinsConfig{
			Presence:   SensorConfig{Pin: "gpio2"},
			Moisture:   SensorConfig{Pin: "gpio3"},
			Metallic:   SensorConfig{Pin: "gpio4"},
			Buzzer:     "gpio15",
			Indicators: [3]string{"gpio16", "gpio17", "gpio18"},
			Actuator:   "gpio22",
		},
		Display: DisplayConfig{
			Data:   [4]string{"gpio6", "gpio7", "gpio8", "gpio9"},
			Enable: "gpio10",
			RS:     "gpio11",
			Width:  16,
			Height: 2,
			Column: &column,
		},
		Pulse: PulseConfig{
			PlasticUS: widths.PlasticUS,
			MetalUS:   widths.MetalUS,
			WetUS:     widths.WetUS,
			Backend:   BackendGPIO,
		},
		HoldSeconds: 3,
	}
}

// Validate checks the configuration for values the firmware cannot run with
func (c *Config) Validate() error {
	if err := c.Clock.Validate(); err != nil {
		return fmt.Errorf("clock: %w", err)
	}
	if err := c.PulseWidths().Validate(); err != nil {
		return fmt.Errorf("pulse: %w", err)
	}
	if c.Pulse.Backend != BackendGPIO && c.Pulse.Backend != BackendPIO {
		return fmt.Errorf("pulse: unknown backend %q", c.Pulse.Backend)
	}
	if c.HoldSeconds == 0 {
		return errors.New("hold_seconds must be at least 1")
	}
	if err := c.Clock.CheckHold(c.HoldSeconds); err != nil {
		return fmt.Errorf("clock: %w: overflow every %dus, hold %ds", err, c.Clock.OverflowPeriodUS(), c.HoldSeconds)
	}
	column := c.Display.LabelColumn()
	if int(column)+core.MaxLabelLen() > int(c.Display.Width) {
		return fmt.Errorf("display: %w: column %d, width %d", ErrLabelClipped, column, c.Display.Width)
	}

	// Every named pin must parse and be used once
	seen := make(map[core.GPIOPin]string)
	for _, named := range c.namedPins() {
		if named.pin == "" {
			continue
		}
		pin, err := ParsePin(named.pin)
		if err != nil {
			return fmt.Errorf("%s: %w", named.name, err)
		}
		if other, dup := seen[pin]; dup {
			return fmt.Errorf("%s and %s: %w (%s)", other, named.name, ErrDuplicatePin, named.pin)
		}
		seen[pin] = named.name
	}
	return nil
}

type namedPin struct {
	name string
	pin  string
}

func (c *Config) namedPins() []namedPin {
	pins := []namedPin{
		{"presence", c.Pins.Presence.Pin},
		{"moisture", c.Pins.Moisture.Pin},
		{"metallic", c.Pins.Metallic.Pin},
		{"buzzer", c.Pins.Buzzer},
		{"indicator[0]", c.Pins.Indicators[0]},
		{"indicator[1]", c.Pins.Indicators[1]},
		{"indicator[2]", c.Pins.Indicators[2]},
		{"actuator", c.Pins.Actuator},
		{"display.enable", c.Display.Enable},
		{"display.rs", c.Display.RS},
		{"display.rw", c.Display.RW},
	}
	for i, p := range c.Display.Data {
		pins = append(pins, namedPin{"display.data[" + strconv.Itoa(i) + "]", p})
	}
	return pins
}

// ParsePin converts a pin name such as "gpio15", "GP15" or "15" to a GPIOPin
func ParsePin(name string) (core.GPIOPin, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasPrefix(s, "gpio"):
		s = s[len("gpio"):]
	case strings.HasPrefix(s, "gp"):
		s = s[len("gp"):]
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || s == "" {
		return 0, fmt.Errorf("invalid pin name %q", name)
	}
	return core.GPIOPin(n), nil
}

// MustPin parses a pin name that Validate has already accepted
func MustPin(name string) core.GPIOPin {
	pin, err := ParsePin(name)
	if err != nil {
		panic(err)
	}
	return pin
}

// PulseWidths returns the actuator positions as core widths
func (c *Config) PulseWidths() core.PulseWidths {
	return core.PulseWidths{
		PlasticUS: c.Pulse.PlasticUS,
		MetalUS:   c.Pulse.MetalUS,
		WetUS:     c.Pulse.WetUS,
	}
}

// SensorPins returns the input line map
func (c *Config) SensorPins() core.SensorPins {
	line := func(s SensorConfig) core.SensorLine {
		return core.SensorLine{Pin: MustPin(s.Pin), Invert: s.Invert, PullUp: s.PullUp}
	}
	return core.SensorPins{
		Presence: line(c.Pins.Presence),
		Moisture: line(c.Pins.Moisture),
		Metallic: line(c.Pins.Metallic),
	}
}

// OutputPins returns the output line map
func (c *Config) OutputPins() core.OutputPins {
	var pins core.OutputPins
	pins.Buzzer = MustPin(c.Pins.Buzzer)
	for i, name := range c.Pins.Indicators {
		pins.Indicators[i] = MustPin(name)
	}
	pins.Actuator = MustPin(c.Pins.Actuator)
	return pins
}

// LoopConfig returns the control loop parameters
func (c *Config) LoopConfig() core.LoopConfig {
	return core.LoopConfig{
		HoldSeconds:   c.HoldSeconds,
		DisplayColumn: c.Display.LabelColumn(),
	}
}
