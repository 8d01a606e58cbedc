// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import "fmt"

// EventKind identifies the kind of an Event.
//
type EventKind int

// Event kinds.
//
const (
	EventHalfCycle  EventKind = iota // a half-cycle completed (Config.Verbose only)
	EventBusState                    // the bus sequencer entered a new state
	EventBus                         // the bus sequencer changed a pin
	EventReadReady                   // a memory read completed
	EventOutOfRange                  // a memory request was out of range
	EventFrame                       // a frame was finalized
	EventTimeout                     // a bus transaction timed out
)

var eventNames = [...]string{
	EventHalfCycle:  "half",
	EventBusState:   "bus-state",
	EventBus:        "bus",
	EventReadReady:  "read-ready",
	EventOutOfRange: "out-of-range",
	EventFrame:      "frame",
	EventTimeout:    "timeout",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// An Event describes a state transition in the simulation. Only the fields
// relevant to Kind are set.
//
type Event struct {
	Kind  EventKind
	Time  uint64 // simulation time in ps
	Level Level  // EventHalfCycle: primary clock level

	Local int      // EventBus, EventBusState: half-cycle index within the transaction
	State BusState // EventBusState
	Pin   string   // EventBus: pin name
	Value uint32   // EventBus: new pin value; EventReadReady: data

	Addr  uint32 // EventReadReady, EventOutOfRange, EventTimeout
	Write bool   // EventOutOfRange

	Frame *Frame // EventFrame
}

func (e Event) String() string {
	switch e.Kind {
	case EventHalfCycle:
		return fmt.Sprintf("%s t=%dps clk=%s", e.Kind, e.Time, e.Level)
	case EventBusState:
		return fmt.Sprintf("%s t=%dps h=%d %s", e.Kind, e.Time, e.Local, e.State)
	case EventBus:
		return fmt.Sprintf("%s t=%dps h=%d %s=%#x", e.Kind, e.Time, e.Local, e.Pin, e.Value)
	case EventReadReady:
		return fmt.Sprintf("%s t=%dps addr=%05x data=%08x", e.Kind, e.Time, e.Addr, e.Value)
	case EventOutOfRange:
		return fmt.Sprintf("%s t=%dps addr=%05x write=%v", e.Kind, e.Time, e.Addr, e.Write)
	case EventFrame:
		b := e.Frame.Image.Bounds()
		return fmt.Sprintf("%s t=%dps #%d %dx%d", e.Kind, e.Time, e.Frame.Number, b.Dx(), b.Dy())
	case EventTimeout:
		return fmt.Sprintf("%s t=%dps addr=%02x", e.Kind, e.Time, e.Addr)
	}
	return fmt.Sprintf("%s t=%dps", e.Kind, e.Time)
}

// An Observer is called synchronously after each state transition.
//
type Observer func(e Event)

// TraceSink receives signal snapshots. The simulation calls Dump at most once
// per distinct time value.
//
type TraceSink interface {
	Dump(timePS uint64, s *Signals) error
}
