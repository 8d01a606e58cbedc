// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package simtest

import (
	"strings"
	"testing"

	"github.com/db47h/cosim"
)

// Log records the events emitted by a simulation as text, one line per event.
//
type Log struct {
	Lines []string
}

// Observer returns an observer appending to l.
//
func (l *Log) Observer() cosim.Observer {
	return func(e cosim.Event) { l.Lines = append(l.Lines, e.String()) }
}

// Count returns the number of lines starting with prefix.
//
func (l *Log) Count(prefix string) int {
	n := 0
	for _, s := range l.Lines {
		if strings.HasPrefix(s, prefix) {
			n++
		}
	}
	return n
}

// outputs records the DUT pins at each trace dump.
type outputs struct {
	t    []uint64
	vals [][]uint32
	pins []int
}

func (o *outputs) Dump(t uint64, s *cosim.Signals) error {
	if o.pins == nil {
		idx := make(map[string]int, s.Len())
		for n := 0; n < s.Len(); n++ {
			idx[s.Name(n)] = n
		}
		for _, name := range cosim.DUTPins {
			o.pins = append(o.pins, idx[name])
		}
	}
	v := make([]uint32, len(o.pins))
	for i, p := range o.pins {
		v[i] = s.Get(p)
	}
	o.t = append(o.t, t)
	o.vals = append(o.vals, v)
	return nil
}

// Run builds a simulation of dut with cfg, runs stim against it, closes it and
// returns the event log.
//
func Run(t testing.TB, cfg cosim.Config, dut *cosim.PartSpec, stim func(s *cosim.Sim)) *Log {
	t.Helper()
	l := new(Log)
	s, err := cosim.NewSim(cfg, dut, cosim.WithObserver(l.Observer()))
	if err != nil {
		t.Fatal(err)
	}
	stim(s)
	if err = s.Close(); err != nil {
		t.Fatal(err)
	}
	return l
}

// CompareRuns runs the same stimulus twice against dut and fails if the event
// logs differ.
//
func CompareRuns(t testing.TB, cfg cosim.Config, dut *cosim.PartSpec, stim func(s *cosim.Sim)) {
	t.Helper()
	l1 := Run(t, cfg, dut, stim)
	l2 := Run(t, cfg, dut, stim)
	if len(l1.Lines) != len(l2.Lines) {
		t.Fatalf("event count differs: %d != %d", len(l1.Lines), len(l2.Lines))
	}
	for i := range l1.Lines {
		if l1.Lines[i] != l2.Lines[i] {
			t.Fatalf("event %d differs:\n%s\n%s", i, l1.Lines[i], l2.Lines[i])
		}
	}
}

// ComparePart takes two parts and compares the DUT output pins they drive,
// at every simulation time, given the same stimulus.
//
func ComparePart(t testing.TB, cfg cosim.Config, part1, part2 *cosim.PartSpec, stim func(s *cosim.Sim)) {
	t.Helper()
	run := func(p *cosim.PartSpec) *outputs {
		o := new(outputs)
		s, err := cosim.NewSim(cfg, p, cosim.WithTrace(o))
		if err != nil {
			t.Fatal(err)
		}
		stim(s)
		if err = s.Close(); err != nil {
			t.Fatal(err)
		}
		return o
	}
	o1, o2 := run(part1), run(part2)
	if len(o1.t) != len(o2.t) {
		t.Fatalf("dump count differs: %d != %d", len(o1.t), len(o2.t))
	}
	for i := range o1.t {
		for j, n := range cosim.DUTPins {
			if o1.vals[i][j] != o2.vals[i][j] {
				t.Fatalf("t=%dps: %s: %s=%#x, %s=%#x", o1.t[i], n, part1.Name, o1.vals[i][j], part2.Name, o2.vals[i][j])
			}
		}
	}
}
