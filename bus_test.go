package cosim_test

import (
	"testing"

	"github.com/db47h/cosim"
	"github.com/db47h/cosim/simtest"
)

func newSim(t *testing.T, cfg cosim.Config, dut *cosim.PartSpec, opts ...cosim.Option) *cosim.Sim {
	t.Helper()
	s, err := cosim.NewSim(cfg, dut, opts...)
	if err != nil {
		t.Fatal(err)
	}
	s.Reset(cosim.DefaultResetCycles)
	return s
}

func TestTiming_schedule(t *testing.T) {
	sc, err := cosim.DefaultTiming().Schedule(cosim.DefaultHalfPS)
	if err != nil {
		t.Fatal(err)
	}
	want := cosim.Schedule{Drive: 0, StrobeOn: 61, StrobeOff: 142, SelectOn: 61, SelectOff: 151, Release: 151, Length: 184}
	if sc != want {
		t.Fatalf("expected %+v, got %+v", want, sc)
	}
	if err = sc.Validate(); err != nil {
		t.Fatal(err)
	}

	bad := cosim.DefaultTiming()
	bad.SelectHoldNS = 0
	if _, err = bad.Schedule(cosim.DefaultHalfPS); !cosim.IsConfig(err) {
		t.Fatalf("expected a config error, got %v", err)
	}
}

func TestBus_exactOffsets(t *testing.T) {
	var log []cosim.Event
	regs := simtest.NewRegisters(0x10, 2, 0)
	s := newSim(t, cosim.DefaultConfig(), regs.Spec(), cosim.WithObserver(func(e cosim.Event) {
		if e.Kind == cosim.EventBus {
			log = append(log, e)
		}
	}))
	sc := cosim.Schedule{Drive: 1, StrobeOn: 5, StrobeOff: 9, SelectOn: 5, SelectOff: 10, Release: 11, Length: 12}
	t0 := s.Time()
	if err := s.Bus().Run(&cosim.Transaction{Dir: cosim.Write, Addr: 0x11, Data: 0xa5, Schedule: sc}); err != nil {
		t.Fatal(err)
	}
	if regs.Regs[1] != 0xa5 {
		t.Fatalf("register not written: %#x", regs.Regs[1])
	}
	got := make(map[string][]int)
	for _, e := range log {
		got[e.Pin] = append(got[e.Pin], e.Local)
		if e.Time != t0+uint64(e.Local)*cosim.DefaultHalfPS {
			t.Errorf("%s changed at t=%d, local %d", e.Pin, e.Time, e.Local)
		}
	}
	if l := got[cosim.PinWr]; len(l) != 2 || l[0] != 5 || l[1] != 9 {
		t.Fatalf("write strobe changed at %v, expected [5 9]", l)
	}
	if l := got[cosim.PinIorq]; len(l) != 2 || l[0] != 5 || l[1] != 10 {
		t.Fatalf("select changed at %v", l)
	}
	if l := got[cosim.PinAddr]; len(l) != 1 || l[0] != 1 {
		t.Fatalf("address driven at %v", l)
	}
	if l := got[cosim.PinDriveEn]; len(l) != 2 || l[0] != 1 || l[1] != 11 {
		t.Fatalf("drive enable changed at %v", l)
	}
	if s.Time() != t0+12*cosim.DefaultHalfPS {
		t.Fatalf("transaction lasted %dps", s.Time()-t0)
	}
	if s.Bus().State() != cosim.BusIdle {
		t.Fatalf("bus not idle: %v", s.Bus().State())
	}
}

func TestBus_readWrite(t *testing.T) {
	regs := simtest.NewRegisters(0x88, 4, 6)
	s := newSim(t, cosim.DefaultConfig(), regs.Spec())
	for i, v := range []uint8{0x12, 0x34, 0x56, 0x78} {
		if err := s.Write(0x88+uint16(i), v); err != nil {
			t.Fatal(err)
		}
	}
	for i, v := range []uint8{0x12, 0x34, 0x56, 0x78} {
		got, err := s.Read(0x88 + uint16(i))
		if err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Fatalf("port %#x: expected %#x, got %#x", 0x88+i, v, got)
		}
	}
	if regs.Writes != 4 || regs.Reads != 4 {
		t.Fatalf("expected 4 writes and 4 reads, got %d, %d", regs.Writes, regs.Reads)
	}
	if st := s.Stats(); st.Transactions != 8 || st.Timeouts != 0 {
		t.Fatalf("bad stats %+v", st)
	}
}

func TestBus_waitForAck(t *testing.T) {
	regs := simtest.NewRegisters(0x88, 1, 300)
	var states []cosim.BusState
	s := newSim(t, cosim.DefaultConfig(), regs.Spec(), cosim.WithObserver(func(e cosim.Event) {
		if e.Kind == cosim.EventBusState {
			states = append(states, e.State)
		}
	}))
	sc := s.Bus().Schedule()
	h0 := s.Clock().Halves()
	if err := s.Write(0x88, 1); err != nil {
		t.Fatal(err)
	}
	if n := int(s.Clock().Halves() - h0); n != sc.StrobeOn+300 {
		t.Fatalf("expected %d half-cycles, got %d", sc.StrobeOn+300, n)
	}
	want := []cosim.BusState{cosim.BusAddressSetup, cosim.BusStrobeAsserted, cosim.BusStrobeDeasserted, cosim.BusWaitForAck, cosim.BusIdle}
	if len(states) != len(want) {
		t.Fatalf("expected states %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("expected states %v, got %v", want, states)
		}
	}

	// without waiting, the transaction has a fixed length
	cfg := cosim.DefaultConfig()
	cfg.WaitForAck = false
	s = newSim(t, cfg, regs.Spec())
	h0 = s.Clock().Halves()
	if err := s.Write(0x88, 2); err != nil {
		t.Fatal(err)
	}
	if n := int(s.Clock().Halves() - h0); n != sc.Length {
		t.Fatalf("expected %d half-cycles, got %d", sc.Length, n)
	}
}

func TestBus_timeout(t *testing.T) {
	cfg := cosim.DefaultConfig()
	cfg.WaitLimit = 10
	var l simtest.Log
	s := newSim(t, cfg, simtest.StuckWait(), cosim.WithObserver(l.Observer()))
	for i := 0; i < 2; i++ {
		err := s.Write(0x88, 0xff)
		if !cosim.IsTimeout(err) {
			t.Fatalf("expected a timeout, got %v", err)
		}
		if pe := err.(*cosim.ProtocolTimeoutError); pe.Halves != 10 || pe.Addr != 0x88 || pe.Dir != cosim.Write {
			t.Fatalf("bad timeout error %+v", pe)
		}
		if s.Bus().State() != cosim.BusIdle {
			t.Fatal("bus not idle after timeout")
		}
		sig := s.Signals()
		if sig.Get(s.Socket().Pin(cosim.PinDriveEn)) != 0 || sig.Get(s.Socket().Pin(cosim.PinDataDir)) != 1 {
			t.Fatal("bus not released after timeout")
		}
	}
	if st := s.Stats(); st.Timeouts != 2 || st.Transactions != 2 {
		t.Fatalf("bad stats %+v", st)
	}
	if n := l.Count("timeout"); n != 2 {
		t.Fatalf("expected 2 timeout events, got %d", n)
	}
	if _, err := s.WaitReady(5); !cosim.IsTimeout(err) {
		t.Fatalf("expected a timeout, got %v", err)
	}
}
