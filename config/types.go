package config

import "sortbin/core"

// SensorConfig represents configuration for one sensor input
type SensorConfig struct {
	Pin    string `json:"pin"`     // GPIO pin, e.g. "gpio2"
	Invert bool   `json:"invert"`  // Sensor output is active-low
	PullUp bool   `json:"pull_up"` // Enable pull-up instead of pull-down
}

// PinsConfig maps every signal of the bin to a GPIO pin name
type PinsConfig struct {
	Presence SensorConfig `json:"presence"`
	Moisture SensorConfig `json:"moisture"`
	Metallic SensorConfig `json:"metallic"`

	Buzzer     string    `json:"buzzer"`
	Indicators [3]string `json:"indicators"` // plastic, metal, wet
	Actuator   string    `json:"actuator"`
}

// DisplayConfig represents configuration for the HD44780 character display
type DisplayConfig struct {
	Data   [4]string `json:"data"` // D4..D7
	Enable string    `json:"enable"`
	RS     string    `json:"rs"`
	RW     string    `json:"rw"` // optional, "" ties RW low in hardware
	Width  uint8     `json:"width"`
	Height uint8     `json:"height"`
	Column *uint8    `json:"column"` // column every result label starts at, omitted selects the default
}

// LabelColumn returns the configured label column, or the default when unset
func (d DisplayConfig) LabelColumn() uint8 {
	if d.Column == nil {
		return defaultLabelColumn
	}
	return *d.Column
}

// PulseConfig represents configuration for the actuator pulse generator
type PulseConfig struct {
	PlasticUS uint32 `json:"plastic_us"`
	MetalUS   uint32 `json:"metal_us"`
	WetUS     uint32 `json:"wet_us"`

	// Backend is "gpio" (spun pulse on the actuator line) or "pio"
	// (hardware-timed one-shot, RP2040 only)
	Backend string `json:"backend"`
}

// Config represents the complete bin configuration
type Config struct {
	Clock   core.ClockConfig `json:"clock"`
	Pins    PinsConfig       `json:"pins"`
	Display DisplayConfig    `json:"display"`
	Pulse   PulseConfig      `json:"pulse"`

	HoldSeconds uint32 `json:"hold_seconds"` // result hold after every cycle
	Debug       bool   `json:"debug"`        // enable debug output
}

// Pulse backends
const (
	BackendGPIO = "gpio"
	BackendPIO  = "pio"
)
