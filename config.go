// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import "strconv"

// MemoryMode selects how the memory model is connected to the DUT.
//
type MemoryMode int

// Memory modes.
//
const (
	// MemoryDrive drives read data and the read valid pulse back into the DUT.
	MemoryDrive MemoryMode = iota
	// MemoryMonitor only mirrors DUT writes into the backing store. Reads are
	// still timed through the pipeline but never drive DUT pins.
	MemoryMonitor
)

func (m MemoryMode) String() string {
	switch m {
	case MemoryDrive:
		return "drive"
	case MemoryMonitor:
		return "monitor"
	}
	return "MemoryMode(" + strconv.Itoa(int(m)) + ")"
}

// Defaults. The primary clock targets the 85.90908 MHz internal VDP clock,
// 11.64 ns per period.
//
const (
	DefaultHalfPS         = 5820
	DefaultSlotDivisor    = 12
	DefaultWaitLimit      = 100000
	DefaultMemoryWords    = 1 << 17
	DefaultMemoryLatency  = 2
	DefaultCaptureDivisor = 4
	DefaultResetCycles    = 8
)

// Config holds the simulation parameters. It is passed once to NewSim and
// never changes for the lifetime of a simulation.
//
type Config struct {
	// Primary clock half period in ps.
	HalfPS uint64
	// Primary half-cycles per derived clock half period.
	SlotDivisor int

	// Bus timing.
	Timing Timing
	// Poll the DUT wait signal after the strobes are released.
	WaitForAck bool
	// Maximum number of half-cycles spent polling the wait signal.
	WaitLimit int

	// Backing store size in 32 bits words.
	MemoryWords int
	// Read latency in half-cycles.
	MemoryLatency int
	// Smallest read latency the DUT read window accepts.
	MinReadLatency int
	MemoryMode     MemoryMode

	// Frame capture processes one out of CaptureDivisor full cycles.
	CaptureDivisor int
	// Name of the DUT pin whose falling edge ends a frame.
	FrameSyncPin string

	// Emit an EventHalfCycle for every half-cycle.
	Verbose bool
}

// DefaultConfig returns the default configuration.
//
func DefaultConfig() Config {
	return Config{
		HalfPS:         DefaultHalfPS,
		SlotDivisor:    DefaultSlotDivisor,
		Timing:         DefaultTiming(),
		WaitForAck:     true,
		WaitLimit:      DefaultWaitLimit,
		MemoryWords:    DefaultMemoryWords,
		MemoryLatency:  DefaultMemoryLatency,
		MinReadLatency: 1,
		MemoryMode:     MemoryDrive,
		CaptureDivisor: DefaultCaptureDivisor,
		FrameSyncPin:   PinVSync,
	}
}

// Validate checks the configuration. The returned error, if any, is a
// *ConfigError.
//
func (c *Config) Validate() error {
	if c.HalfPS == 0 {
		return &ConfigError{"HalfPS", "must be positive"}
	}
	if c.SlotDivisor < 1 {
		return &ConfigError{"SlotDivisor", "must be at least 1"}
	}
	if _, err := c.Timing.Schedule(c.HalfPS); err != nil {
		return err
	}
	if c.WaitLimit < 1 {
		return &ConfigError{"WaitLimit", "must be at least 1"}
	}
	if c.MemoryWords < 1 {
		return &ConfigError{"MemoryWords", "must be at least 1"}
	}
	if c.MemoryLatency < 1 {
		return &ConfigError{"MemoryLatency", "must be at least 1"}
	}
	if c.MemoryLatency < c.MinReadLatency {
		return &ConfigError{"MemoryLatency", "smaller than the DUT read window (" + strconv.Itoa(c.MinReadLatency) + " half-cycles)"}
	}
	switch c.MemoryMode {
	case MemoryDrive, MemoryMonitor:
	default:
		return &ConfigError{"MemoryMode", "unknown mode " + c.MemoryMode.String()}
	}
	if c.CaptureDivisor < 1 {
		return &ConfigError{"CaptureDivisor", "must be at least 1"}
	}
	if c.FrameSyncPin == "" {
		return &ConfigError{"FrameSyncPin", "empty pin name"}
	}
	for _, p := range HarnessPins {
		if p == c.FrameSyncPin {
			return &ConfigError{"FrameSyncPin", p + " is driven by the harness"}
		}
	}
	return nil
}
