package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// CycleEvent captures one step of a classification cycle for post-mortem analysis
type CycleEvent struct {
	EventType uint8  // Event type code
	Cycle     uint32 // Cycle number the event belongs to
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtSample   = 1 // sensors sampled, Value1 = presence|moisture<<1|metallic<<2
	EvtClassify = 2 // Value1 = WasteClass
	EvtPulse    = 3 // actuator pulse issued, Value1 = width in us
	EvtDisplay  = 4 // display updated, Value1 = WasteClass
	EvtHold     = 5 // hold delay done, Value1 = overflow events
	EvtReset    = 6 // outputs cleared, back to Idle
	EvtError    = 7 // collaborator error, Value1 = state it happened in
)

const (
	EventRingSize = 32 // Keep the last 32 events
)

var (
	// debugPrintln is the global debug print function (set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	eventRing     [EventRingSize]CycleEvent
	eventRingHead uint8 // Next write position
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent appends an event to the ring buffer, overwriting the oldest
func RecordEvent(eventType uint8, cycle, value1, value2 uint32) {
	idx := eventRingHead
	eventRing[idx] = CycleEvent{
		EventType: eventType,
		Cycle:     cycle,
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// EventRingSnapshot returns the recorded events, oldest first
func EventRingSnapshot() []CycleEvent {
	out := make([]CycleEvent, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// EventName returns a short name for an event type code
func EventName(eventType uint8) string {
	switch eventType {
	case EvtSample:
		return "SAMPLE"
	case EvtClassify:
		return "CLASSIFY"
	case EvtPulse:
		return "PULSE"
	case EvtDisplay:
		return "DISPLAY"
	case EvtHold:
		return "HOLD"
	case EvtReset:
		return "RESET"
	case EvtError:
		return "ERROR!"
	default:
		return "UNKNOWN"
	}
}

// DumpEventRing writes the ring buffer through the debug writer, oldest first.
// It ignores debugEnabled so it can be used after a fault.
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENTS] === Event Ring Dump ===")
	for _, evt := range EventRingSnapshot() {
		debugPrintln("[EVENTS] " + EventName(evt.EventType) +
			" cycle=" + utoa(evt.Cycle) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = CycleEvent{}
	}
	eventRingHead = 0
}
