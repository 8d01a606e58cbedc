// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

// Level is the level of a clock signal.
//
type Level bool

// Clock levels.
//
const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// Phase records which half of the primary clock period was last entered.
//
type Phase int

// Clock phases.
//
const (
	PhaseUninit Phase = iota
	PhaseHigh
	PhaseLow
)

func (p Phase) String() string {
	switch p {
	case PhaseHigh:
		return "high"
	case PhaseLow:
		return "low"
	}
	return "uninitialized"
}

// Clock is a two phase primary clock with a derived, slower clock.
//
// Time only moves forward through HalfCycle. Each call advances the time by
// exactly one half period and counts one primary half-cycle towards the
// derived clock divisor. With a divisor D, the derived clock toggles every D
// primary half-cycles, i.e. its frequency is the primary frequency / (2*D).
//
type Clock struct {
	half    uint64 // half period in ps
	time    uint64 // elapsed time in ps
	halves  uint64 // elapsed half-cycles
	level   Level
	phase   Phase
	div     int
	cnt     int
	derived bool
}

// NewClock returns a new clock with the given half period in picoseconds and
// derived clock divisor. Both must be strictly positive; Config.Validate
// checks this before a Sim builds its clock.
//
func NewClock(halfPS uint64, divisor int) *Clock {
	if halfPS == 0 || divisor < 1 {
		panic("invalid clock parameters")
	}
	return &Clock{half: halfPS, div: divisor}
}

// HalfCycle sets the primary clock to level l, updates the derived clock and
// advances the time by one half period. It returns the new time in ps.
//
func (c *Clock) HalfCycle(l Level) uint64 {
	c.level = l
	if l {
		c.phase = PhaseHigh
	} else {
		c.phase = PhaseLow
	}
	c.cnt++
	if c.cnt >= c.div {
		c.cnt = 0
		c.derived = !c.derived
	}
	c.halves++
	c.time += c.half
	return c.time
}

// Time returns the elapsed simulation time in ps.
//
func (c *Clock) Time() uint64 { return c.time }

// Halves returns the number of half-cycles elapsed since the clock was created.
//
func (c *Clock) Halves() uint64 { return c.halves }

// Level returns the current primary clock level.
//
func (c *Clock) Level() Level { return c.level }

// Phase returns the current phase.
//
func (c *Clock) Phase() Phase { return c.phase }

// Derived returns the current derived clock level.
//
func (c *Clock) Derived() bool { return c.derived }

// Divisor returns the derived clock divisor.
//
func (c *Clock) Divisor() int { return c.div }

// HalfPS returns the duration of a half period in ps.
//
func (c *Clock) HalfPS() uint64 { return c.half }

// PeriodPS returns the primary clock period in ps.
//
func (c *Clock) PeriodPS() uint64 { return 2 * c.half }

// DerivedPeriodPS returns the period of the derived clock in ps.
//
func (c *Clock) DerivedPeriodPS() uint64 { return 2 * uint64(c.div) * c.half }
