// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"github.com/pkg/errors"
)

// Stats holds counters of recoverable conditions met during a run.
//
type Stats struct {
	Transactions uint64 // bus transactions started
	Timeouts     uint64 // bus transactions abandoned on wait timeout
	Reads        uint64 // memory reads completed
	OutOfRange   uint64 // memory requests outside of the backing store
	Frames       int    // frames finalized
}

// An Option configures optional collaborators of a Sim.
//
type Option func(s *Sim)

// WithTrace attaches a trace sink.
//
func WithTrace(t TraceSink) Option {
	return func(s *Sim) { s.trace = t }
}

// WithObserver attaches an observer, called after each state transition.
//
func WithObserver(o Observer) Option {
	return func(s *Sim) { s.obs = o }
}

// WithFrameSink sets the destination of captured frames.
//
func WithFrameSink(fs FrameSink) Option {
	return func(s *Sim) { s.sink = fs }
}

// Sim is a simulation context. It owns the clock, the signal table shared with
// the DUT, the memory model, the bus sequencer and the frame capture. All time
// advances go through HalfCycle.
//
// A Sim is not safe for concurrent use. Independent Sim values share no state.
//
type Sim struct {
	cfg  Config
	clk  *Clock
	sig  *Signals
	sock *Socket
	p    pins
	cs   []Component

	mem *Memory
	fc  *FrameCapture
	bus *Bus

	trace    TraceSink
	traceErr error
	lastDump uint64
	dumped   bool

	sink   FrameSink
	obs    Observer
	closed bool
	stats  Stats
}

// NewSim builds a new simulation of dut. Configuration errors are returned as
// a *ConfigError.
//
func NewSim(cfg Config, dut *PartSpec, opts ...Option) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dut == nil {
		return nil, errors.New("nil DUT")
	}
	sched, _ := cfg.Timing.Schedule(cfg.HalfPS)

	s := &Sim{
		cfg: cfg,
		clk: NewClock(cfg.HalfPS, cfg.SlotDivisor),
		sig: new(Signals),
		mem: NewMemory(cfg.MemoryWords, cfg.MemoryLatency),
	}
	for _, o := range opts {
		o(s)
	}
	s.fc = NewFrameCapture(cfg.CaptureDivisor, s.sink)
	s.bus = newBus(s, sched)
	s.sock = newSocket(s.sig)

	driven := make(map[string]string)
	for _, n := range HarnessPins {
		s.sock.PinOrNew(n)
		driven[n] = "harness"
	}
	cs, err := dut.mount(s.sock, driven)
	if err != nil {
		return nil, errors.Wrap(err, "failed to mount DUT")
	}
	s.cs = cs
	s.p = resolvePins(s.sock, cfg.FrameSyncPin)

	// idle bus, reset asserted
	s.sig.Set(s.p.reset, 0)
	s.sig.Set(s.p.wr, 1)
	s.sig.Set(s.p.rd, 1)
	s.sig.Set(s.p.iorq, 1)
	s.sig.Set(s.p.dataDir, 1)
	s.eval()
	return s, nil
}

// HalfCycle sets the primary clock to level l and advances the simulation by
// one half-cycle: the derived clock and memory model are stepped, the DUT is
// evaluated and the trace is dumped. Video is sampled once per full cycle, on
// the high phase. It returns the new simulation time in ps.
//
// HalfCycle does nothing once the simulation is closed.
//
func (s *Sim) HalfCycle(l Level) uint64 {
	if s.closed {
		return s.clk.Time()
	}
	t := s.clk.HalfCycle(l)
	s.sig.SetBool(s.p.clk, bool(l))
	s.sig.SetBool(s.p.slotClk, s.clk.Derived())

	s.stepMemory()
	s.eval()
	if l == High {
		s.sampleVideo()
	}
	if s.cfg.Verbose {
		s.emit(Event{Kind: EventHalfCycle, Time: t, Level: l})
	}
	return t
}

// toggle runs the half-cycle opposite to the current clock level.
//
func (s *Sim) toggle() {
	s.HalfCycle(!s.clk.Level())
}

// Cycle runs one full clock cycle: high then low.
//
func (s *Sim) Cycle() {
	s.HalfCycle(High)
	s.HalfCycle(Low)
}

// Cycles runs n full clock cycles.
//
func (s *Sim) Cycles(n int) {
	for i := 0; i < n; i++ {
		s.Cycle()
	}
}

// Reset holds the reset signal low for n cycles, then releases it and runs n
// more cycles.
//
func (s *Sim) Reset(n int) {
	if s.closed {
		return
	}
	s.sig.Set(s.p.reset, 0)
	s.Cycles(n)
	s.sig.Set(s.p.reset, 1)
	s.Cycles(n)
}

// Eval re-evaluates the DUT at the current time, e.g. after changing input
// pins between half-cycles. The trace is not dumped twice for the same time.
//
func (s *Sim) Eval() {
	if s.closed {
		return
	}
	s.eval()
}

func (s *Sim) eval() {
	for _, c := range s.cs {
		c(s.sig)
	}
	if s.trace == nil {
		return
	}
	t := s.clk.Time()
	if s.dumped && t == s.lastDump {
		return
	}
	s.dumped, s.lastDump = true, t
	if err := s.trace.Dump(t, s.sig); err != nil && s.traceErr == nil {
		s.traceErr = errors.Wrapf(err, "trace dump at %dps", t)
	}
}

func (s *Sim) stepMemory() {
	var req *Request
	if s.sig.Bool(s.p.vramVld) {
		req = &Request{
			Addr:  s.sig.Get(s.p.vramAddr),
			Write: s.sig.Bool(s.p.vramWr),
			Data:  s.sig.Get(s.p.vramWd),
			Mask:  uint8(s.sig.Get(s.p.vramMask)),
		}
		if !s.mem.InRange(req.Addr) {
			s.stats.OutOfRange++
			s.emit(Event{Kind: EventOutOfRange, Time: s.clk.Time(), Addr: req.Addr, Write: req.Write})
		}
	}
	r := s.mem.Step(req)
	if r.Valid {
		s.stats.Reads++
		s.emit(Event{Kind: EventReadReady, Time: s.clk.Time(), Addr: r.Addr, Value: r.Data})
	}
	if s.cfg.MemoryMode == MemoryDrive {
		if r.Valid {
			s.sig.Set(s.p.vramRd, r.Data)
		}
		s.sig.SetBool(s.p.vramRdEn, r.Valid)
	}
}

func (s *Sim) sampleVideo() {
	f := s.fc.Sample(
		s.sig.Bool(s.p.sync),
		s.sig.Bool(s.p.enable),
		uint8(s.sig.Get(s.p.red)),
		uint8(s.sig.Get(s.p.green)),
		uint8(s.sig.Get(s.p.blue)))
	if f != nil {
		s.stats.Frames++
		s.emit(Event{Kind: EventFrame, Time: s.clk.Time(), Frame: f})
	}
}

func (s *Sim) emit(e Event) {
	if s.obs != nil {
		s.obs(e)
	}
}

// Write runs an I/O write transaction on the slot bus.
//
func (s *Sim) Write(addr uint16, data uint8) error { return s.bus.Write(addr, data) }

// Read runs an I/O read transaction on the slot bus.
//
func (s *Sim) Read(addr uint16) (uint8, error) { return s.bus.Read(addr) }

// WaitReady runs the simulation until the DUT releases its wait signal, for at
// most limit half-cycles.
//
func (s *Sim) WaitReady(limit int) (int, error) { return s.bus.WaitReady(limit) }

// SetButton sets the 2 bits button input.
//
func (s *Sim) SetButton(v uint8) { s.sig.Set(s.p.button, uint32(v&3)) }

// SetDipSW sets the 2 bits DIP switch input.
//
func (s *Sim) SetDipSW(v uint8) { s.sig.Set(s.p.dipsw, uint32(v&3)) }

// Wait returns the state of the DUT wait signal.
//
func (s *Sim) Wait() bool { return s.sig.Bool(s.p.wait) }

// Time returns the simulation time in ps.
//
func (s *Sim) Time() uint64 { return s.clk.Time() }

// Clock returns the simulation clock.
//
func (s *Sim) Clock() *Clock { return s.clk }

// Bus returns the bus sequencer.
//
func (s *Sim) Bus() *Bus { return s.bus }

// Memory returns the memory model.
//
func (s *Sim) Memory() *Memory { return s.mem }

// Capture returns the frame capture.
//
func (s *Sim) Capture() *FrameCapture { return s.fc }

// Signals returns the signal table shared with the DUT.
//
func (s *Sim) Signals() *Signals { return s.sig }

// Socket returns the socket mapping pin names to numbers in the signal table.
//
func (s *Sim) Socket() *Socket { return s.sock }

// Config returns the simulation configuration.
//
func (s *Sim) Config() Config { return s.cfg }

// Stats returns the run counters.
//
func (s *Sim) Stats() Stats { return s.stats }

// Closed returns true once Close has been called.
//
func (s *Sim) Closed() bool { return s.closed }

// Close detaches the DUT. Further calls to HalfCycle are no-ops and bus
// operations return ErrClosed. Close returns the first trace or frame sink
// error met during the run.
//
func (s *Sim) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.traceErr != nil {
		return s.traceErr
	}
	if err := s.fc.Err(); err != nil {
		return errors.Wrap(err, "frame sink")
	}
	return nil
}
