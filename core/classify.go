package core

// SensorReading is one sample of the three digital sensor lines.
// No debouncing is applied; a single sample is trusted.
type SensorReading struct {
	Presence bool // object detected
	Moisture bool // wet material detected
	Metallic bool // metal detected
}

// String renders the reading as three 0/1 digits in priority order,
// e.g. "100" for presence only.
func (r SensorReading) String() string {
	b := [3]byte{'0', '0', '0'}
	if r.Presence {
		b[0] = '1'
	}
	if r.Moisture {
		b[1] = '1'
	}
	if r.Metallic {
		b[2] = '1'
	}
	return string(b[:])
}

// WasteClass is the outcome of one classification cycle
type WasteClass uint8

const (
	NoObject WasteClass = iota
	Plastic
	Metal
	Wet
)

// IndicatorCount is the number of indicator lines, one per sortable class
const IndicatorCount = 3

func (c WasteClass) String() string {
	switch c {
	case Plastic:
		return "Plastic"
	case Metal:
		return "Metal"
	case Wet:
		return "Wet"
	default:
		fallthrough
	case NoObject:
		return "NoObject"
	}
}

// Label returns the text shown on the display for this class
func (c WasteClass) Label() string {
	switch c {
	case Plastic:
		return "PLASTIC"
	case Metal:
		return "METAL"
	case Wet:
		return "WET"
	default:
		return "NO OBJECT"
	}
}

// MaxLabelLen returns the length of the longest display label
func MaxLabelLen() int {
	n := 0
	for c := NoObject; c <= Wet; c++ {
		if l := len(c.Label()); l > n {
			n = l
		}
	}
	return n
}

// Indicator returns the indicator line index for a sortable class, or -1 for NoObject
func (c WasteClass) Indicator() int {
	if c == NoObject || c > Wet {
		return -1
	}
	return int(c) - 1
}

// classRule is one arm of the ordered classification table
type classRule struct {
	match  func(SensorReading) bool
	result WasteClass
}

// classRules is evaluated top to bottom; the first matching arm wins.
// Moisture is consulted before metallic, so a wet metal object sorts as Wet.
var classRules = [...]classRule{
	{func(r SensorReading) bool { return !r.Presence }, NoObject},
	{func(r SensorReading) bool { return r.Moisture }, Wet},
	{func(r SensorReading) bool { return r.Metallic }, Metal},
	{func(r SensorReading) bool { return true }, Plastic},
}

// Classify maps a sensor reading to exactly one WasteClass
func Classify(r SensorReading) WasteClass {
	for _, rule := range classRules {
		if rule.match(r) {
			return rule.result
		}
	}
	// unreachable: the last rule always matches
	return Plastic
}
