package cosim_test

import (
	"testing"
	"testing/quick"

	"github.com/db47h/cosim"
)

func TestClock_period(t *testing.T) {
	c := cosim.NewClock(cosim.DefaultHalfPS, cosim.DefaultSlotDivisor)
	if c.Phase() != cosim.PhaseUninit {
		t.Fatalf("expected uninitialized phase, got %v", c.Phase())
	}
	if p := c.DerivedPeriodPS(); p != 139680 {
		t.Fatalf("expected derived period 139680ps, got %d", p)
	}
	l := cosim.High
	for i := 0; i < 24; i++ {
		c.HalfCycle(l)
		l = !l
	}
	if c.Time() != 139680 {
		t.Fatalf("expected t=139680ps after 24 half-cycles, got %d", c.Time())
	}
	if c.Derived() {
		t.Fatal("derived clock should be back to its initial level")
	}
	if c.Phase() != cosim.PhaseLow {
		t.Fatalf("expected low phase, got %v", c.Phase())
	}
}

func TestClock_derived(t *testing.T) {
	f := func(d uint8, n uint16) bool {
		div := int(d%32) + 1
		c := cosim.NewClock(1000, div)
		toggles := 0
		prev := c.Derived()
		l := cosim.High
		for i := 0; i < int(n%2048); i++ {
			c.HalfCycle(l)
			l = !l
			if c.Derived() != prev {
				toggles++
				prev = c.Derived()
				// toggles happen exactly every div half-cycles
				if c.Halves()%uint64(div) != 0 {
					return false
				}
			}
		}
		return toggles == int(n%2048)/div && c.Time() == c.Halves()*1000
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestClock_monotonic(t *testing.T) {
	f := func(half uint16, levels []bool) bool {
		c := cosim.NewClock(uint64(half)+1, 3)
		prev := c.Time()
		for _, l := range levels {
			now := c.HalfCycle(cosim.Level(l))
			if now != prev+uint64(half)+1 || c.Level() != cosim.Level(l) {
				return false
			}
			prev = now
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestHalfCycles(t *testing.T) {
	f := func(ns uint16, half uint16) bool {
		h := uint64(half) + 1
		n := cosim.HalfCycles(uint64(ns), h)
		// never shorter than requested, never one half-cycle too long
		return uint64(n)*h >= uint64(ns)*1000 && (n == 0 || uint64(n-1)*h < uint64(ns)*1000)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
	for _, td := range []struct {
		ns   uint64
		want int
	}{
		{350, 61}, {466, 81}, {47, 9}, {187, 33}, {0, 0},
	} {
		if got := cosim.HalfCycles(td.ns, cosim.DefaultHalfPS); got != td.want {
			t.Errorf("HalfCycles(%d, %d) = %d, expected %d", td.ns, cosim.DefaultHalfPS, got, td.want)
		}
	}
}
