// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"strconv"

	"github.com/pkg/errors"
)

// Direction is the direction of a bus transaction.
//
type Direction int

// Bus directions.
//
const (
	Write Direction = iota
	Read
)

func (d Direction) String() string {
	if d == Read {
		return "read"
	}
	return "write"
}

// BusState is the state of the bus sequencer.
//
type BusState int

// Bus sequencer states.
//
const (
	BusIdle BusState = iota
	BusAddressSetup
	BusStrobeAsserted
	BusStrobeDeasserted
	BusWaitForAck
)

var busStates = [...]string{"idle", "address-setup", "strobe-asserted", "strobe-deasserted", "wait-for-ack"}

func (s BusState) String() string {
	if int(s) < len(busStates) {
		return busStates[s]
	}
	return "BusState(" + strconv.Itoa(int(s)) + ")"
}

// Timing holds the bus protocol timing constraints in ns.
//
type Timing struct {
	DriveNS      uint64 // start of transaction to address/data drive
	SetupNS      uint64 // address/data drive to strobe assertion
	StrobeNS     uint64 // strobe (/WR or /RD) width
	SelectHoldNS uint64 // strobe release to /IORQ release
	RecoveryNS   uint64 // bus release to end of transaction
}

// DefaultTiming returns timings matching the reference Z80 slot testbench.
//
func DefaultTiming() Timing {
	return Timing{
		SetupNS:      350,
		StrobeNS:     466,
		SelectHoldNS: 47,
		RecoveryNS:   187,
	}
}

// HalfCycles converts a duration in ns to a number of half-cycles of halfPS
// picoseconds, rounding up so that the result never undershoots ns.
//
func HalfCycles(ns, halfPS uint64) int {
	ps := ns * 1000
	return int((ps + halfPS - 1) / halfPS)
}

// Schedule is the half-cycle offset of each signal change in a transaction,
// relative to its first half-cycle.
//
type Schedule struct {
	Drive     int // address (and data for writes) driven
	StrobeOn  int // /WR or /RD asserted
	StrobeOff int // /WR or /RD released
	SelectOn  int // /IORQ asserted
	SelectOff int // /IORQ released
	Release   int // bus drivers released
	Length    int // transaction length in half-cycles
}

// Schedule converts t into a schedule for the given half period in ps.
// Each interval is converted independently and must last at least one
// half-cycle, except for DriveNS which may be zero.
//
func (t Timing) Schedule(halfPS uint64) (Schedule, error) {
	var s Schedule
	if halfPS == 0 {
		return s, &ConfigError{"HalfPS", "must be positive"}
	}
	conv := func(field string, ns uint64) (int, error) {
		h := HalfCycles(ns, halfPS)
		if h < 1 {
			return 0, &ConfigError{"Timing." + field, strconv.FormatUint(ns, 10) + "ns converts to zero half-cycles"}
		}
		return h, nil
	}
	setup, err := conv("SetupNS", t.SetupNS)
	if err != nil {
		return s, err
	}
	strobe, err := conv("StrobeNS", t.StrobeNS)
	if err != nil {
		return s, err
	}
	hold, err := conv("SelectHoldNS", t.SelectHoldNS)
	if err != nil {
		return s, err
	}
	recovery, err := conv("RecoveryNS", t.RecoveryNS)
	if err != nil {
		return s, err
	}
	s.Drive = HalfCycles(t.DriveNS, halfPS)
	s.StrobeOn = s.Drive + setup
	s.StrobeOff = s.StrobeOn + strobe
	s.SelectOn = s.StrobeOn
	s.SelectOff = s.StrobeOff + hold
	s.Release = s.SelectOff
	s.Length = s.max() + recovery
	return s, nil
}

func (s *Schedule) max() int {
	m := s.Drive
	for _, o := range [...]int{s.StrobeOn, s.StrobeOff, s.SelectOn, s.SelectOff, s.Release} {
		if o > m {
			m = o
		}
	}
	return m
}

// Validate checks that every offset is non-negative and lies within the
// transaction, and that each release follows its assertion.
//
func (s *Schedule) Validate() error {
	if s.Drive < 0 || s.StrobeOn < 0 || s.SelectOn < 0 {
		return errors.New("negative offset in bus schedule")
	}
	if s.StrobeOff <= s.StrobeOn {
		return errors.Errorf("strobe released at %d, not after assertion at %d", s.StrobeOff, s.StrobeOn)
	}
	if s.SelectOff <= s.SelectOn {
		return errors.Errorf("select released at %d, not after assertion at %d", s.SelectOff, s.SelectOn)
	}
	if s.Drive > s.StrobeOn || s.Drive > s.SelectOn {
		return errors.New("strobes asserted before the bus is driven")
	}
	if s.Release < s.StrobeOff || s.Release < s.SelectOff {
		return errors.New("bus released before the strobes")
	}
	if s.Length <= s.max() {
		return errors.Errorf("transaction length %d does not cover offset %d", s.Length, s.max())
	}
	return nil
}

// A Transaction is one bus read or write.
//
type Transaction struct {
	Dir      Direction
	Addr     uint16
	Data     uint8 // data to write, or data read once the transaction completes
	Schedule Schedule
}

// Bus sequences I/O transactions on the slot bus of a simulation. Every signal
// change happens on the exact half-cycle its schedule says.
//
type Bus struct {
	s     *Sim
	sched Schedule
	state BusState
}

func newBus(s *Sim, sched Schedule) *Bus {
	return &Bus{s: s, sched: sched}
}

// Schedule returns the default schedule used by Read and Write.
//
func (b *Bus) Schedule() Schedule { return b.sched }

// State returns the state of the sequencer.
//
func (b *Bus) State() BusState { return b.state }

// Write writes data to I/O address addr.
//
func (b *Bus) Write(addr uint16, data uint8) error {
	return b.Run(&Transaction{Dir: Write, Addr: addr, Data: data, Schedule: b.sched})
}

// Read reads from I/O address addr.
//
func (b *Bus) Read(addr uint16) (uint8, error) {
	tx := &Transaction{Dir: Read, Addr: addr, Schedule: b.sched}
	err := b.Run(tx)
	return tx.Data, err
}

type busEvent struct {
	off   int
	state BusState
	fn    func()
	fired bool
}

// Run runs transaction tx to completion. For reads, tx.Data is set to the
// value driven by the DUT on the half-cycle the read strobe is released.
//
// If the DUT holds its wait signal for longer than the configured limit, the
// transaction is abandoned with the bus released and a *ProtocolTimeoutError
// is returned.
//
func (b *Bus) Run(tx *Transaction) error {
	s := b.s
	if s.closed {
		return ErrClosed
	}
	sc := tx.Schedule
	if err := sc.Validate(); err != nil {
		return errors.Wrapf(err, "%s 0x%02x", tx.Dir, tx.Addr)
	}
	p := &s.p
	strobe, strobeName := p.wr, PinWr
	if tx.Dir == Read {
		strobe, strobeName = p.rd, PinRd
	}

	var h int
	set := func(n int, name string, v uint32) {
		s.sig.Set(n, v)
		s.emit(Event{Kind: EventBus, Time: s.clk.Time(), Local: h, Pin: name, Value: v})
	}
	evs := []*busEvent{
		{off: sc.Drive, state: BusAddressSetup, fn: func() {
			set(p.addr, PinAddr, uint32(tx.Addr&0xff))
			if tx.Dir == Write {
				set(p.data, PinData, uint32(tx.Data))
				set(p.dataDir, PinDataDir, 0)
				set(p.driveEn, PinDriveEn, 1)
			}
		}},
		{off: sc.StrobeOn, state: BusStrobeAsserted, fn: func() { set(strobe, strobeName, 0) }},
		{off: sc.SelectOn, state: BusStrobeAsserted, fn: func() { set(p.iorq, PinIorq, 0) }},
		{off: sc.StrobeOff, state: BusStrobeDeasserted, fn: func() {
			if tx.Dir == Read {
				tx.Data = uint8(s.sig.Get(p.dataOut))
			}
			set(strobe, strobeName, 1)
		}},
		{off: sc.SelectOff, state: BusStrobeDeasserted, fn: func() { set(p.iorq, PinIorq, 1) }},
		{off: sc.Release, state: BusStrobeDeasserted, fn: func() {
			set(p.driveEn, PinDriveEn, 0)
			set(p.dataDir, PinDataDir, 1)
		}},
	}

	s.stats.Transactions++
	b.enter(BusIdle, 0)
	for h = 0; h < sc.Length; h++ {
		for _, e := range evs {
			if !e.fired && e.off == h {
				b.enter(e.state, h)
				e.fn()
				e.fired = true
			}
		}
		s.toggle()
	}

	if s.cfg.WaitForAck {
		b.enter(BusWaitForAck, h)
		for n := 0; s.sig.Bool(p.wait); n++ {
			if n >= s.cfg.WaitLimit {
				b.release()
				b.enter(BusIdle, h)
				s.stats.Timeouts++
				s.emit(Event{Kind: EventTimeout, Time: s.clk.Time(), Addr: uint32(tx.Addr)})
				return &ProtocolTimeoutError{Dir: tx.Dir, Addr: tx.Addr, Halves: n}
			}
			s.toggle()
			h++
		}
	}
	b.enter(BusIdle, h)
	return nil
}

// release stops driving the data bus.
//
func (b *Bus) release() {
	p := &b.s.p
	b.s.sig.Set(p.driveEn, 0)
	b.s.sig.Set(p.dataDir, 1)
}

func (b *Bus) enter(st BusState, h int) {
	if b.state == st {
		return
	}
	b.state = st
	b.s.emit(Event{Kind: EventBusState, Time: b.s.clk.Time(), Local: h, State: st})
}

// WaitReady runs the simulation until the DUT releases its wait signal, for at
// most limit half-cycles. It returns the number of half-cycles spent waiting.
//
func (b *Bus) WaitReady(limit int) (int, error) {
	s := b.s
	if s.closed {
		return 0, ErrClosed
	}
	n := 0
	for ; s.sig.Bool(s.p.wait); n++ {
		if n >= limit {
			s.stats.Timeouts++
			return n, &ProtocolTimeoutError{Dir: Write, Halves: n}
		}
		s.toggle()
	}
	return n, nil
}
