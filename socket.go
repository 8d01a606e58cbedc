// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"sort"

	"github.com/pkg/errors"
)

// Signals is the flat signal table shared by the harness and the DUT. Each pin
// holds an unsigned value; single bit pins use 0 and 1.
//
type Signals struct {
	v     []uint32
	names []string
}

// Get returns the value of pin n.
//
func (s *Signals) Get(n int) uint32 { return s.v[n] }

// Set sets the value of pin n.
//
func (s *Signals) Set(n int, v uint32) { s.v[n] = v }

// Bool returns true if pin n is non-zero.
//
func (s *Signals) Bool(n int) bool { return s.v[n] != 0 }

// SetBool sets pin n to 1 if b is true, 0 otherwise.
//
func (s *Signals) SetBool(n int, b bool) {
	if b {
		s.v[n] = 1
	} else {
		s.v[n] = 0
	}
}

// Len returns the number of pins in the table.
//
func (s *Signals) Len() int { return len(s.v) }

// Name returns the name of pin n.
//
func (s *Signals) Name(n int) string { return s.names[n] }

// Snapshot returns a copy of all pin values, indexed by pin number.
//
func (s *Signals) Snapshot() []uint32 {
	out := make([]uint32, len(s.v))
	copy(out, s.v)
	return out
}

func (s *Signals) alloc(name string) int {
	n := len(s.v)
	s.v = append(s.v, 0)
	s.names = append(s.names, name)
	return n
}

// A Socket maps pin names to pin numbers in a signal table.
//
type Socket struct {
	m map[string]int
	s *Signals
}

func newSocket(s *Signals) *Socket {
	return &Socket{m: make(map[string]int), s: s}
}

// Pin returns the pin number allocated to the given pin name.
// This function panics if the pin does not exist.
//
func (s *Socket) Pin(name string) int {
	n, ok := s.m[name]
	if !ok {
		panic("pin " + name + " does not exist")
	}
	return n
}

// Lookup returns the pin number allocated to the given pin name and whether it
// exists.
//
func (s *Socket) Lookup(name string) (int, bool) {
	n, ok := s.m[name]
	return n, ok
}

// PinOrNew returns the pin number allocated to the given pin name.
// If no such pin exists a new one is allocated.
//
func (s *Socket) PinOrNew(name string) int {
	n, ok := s.m[name]
	if !ok {
		n = s.s.alloc(name)
		s.m[name] = n
	}
	return n
}

// Names returns the sorted list of allocated pin names.
//
func (s *Socket) Names() []string {
	out := make([]string, 0, len(s.m))
	for k := range s.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Signals returns the signal table behind the socket.
//
func (s *Socket) Signals() *Signals { return s.s }

// A Component is a piece of DUT logic evaluated against the signal table.
//
type Component func(s *Signals)

// A MountFn mounts a part into socket s. MountFn's should query
// the socket for assigned pin numbers and return closures around
// these pin numbers.
//
// For example, an inverter can be defined like this:
//
//	not := &PartSpec{
//		Name: "Not",
//		Inputs: []string{"in"},
//		Outputs: []string{"out"},
//		Mount: func(s *Socket) []Component {
//			in, out := s.Pin("in"), s.Pin("out")
//			return []Component{
//				func(sig *Signals) { sig.SetBool(out, !sig.Bool(in)) },
//			}
//		}}
//
type MountFn func(s *Socket) []Component

// A PartSpec wraps a part specification (its blueprint). The design under test
// is a PartSpec whose inputs and outputs are the harness pins it uses.
//
type PartSpec struct {
	// Part name.
	Name string
	// Input pin names. Must be distinct pin names.
	Inputs []string
	// Output pin names. Must be distinct pin names.
	Outputs []string
	// Mount function (see MountFn).
	Mount MountFn
}

// Compose returns a PartSpec whose components are those of all given parts,
// evaluated in order. Parts exchange values through pins of the same name.
//
func Compose(name string, parts ...*PartSpec) *PartSpec {
	p := &PartSpec{Name: name}
	for _, sp := range parts {
		p.Inputs = append(p.Inputs, sp.Inputs...)
		p.Outputs = append(p.Outputs, sp.Outputs...)
	}
	p.Mount = func(s *Socket) []Component {
		var cs []Component
		for _, sp := range parts {
			cs = append(cs, sp.Mount(s)...)
		}
		return cs
	}
	return p
}

// mount allocates the part's pins in s and mounts it. An output driven by two
// parts is reported as an error.
//
func (p *PartSpec) mount(s *Socket, driven map[string]string) ([]Component, error) {
	if p.Mount == nil {
		return nil, errors.Errorf("part %s has no mount function", p.Name)
	}
	for _, o := range p.Outputs {
		if d, ok := driven[o]; ok {
			return nil, errors.Errorf("pin %s driven by both %s and %s", o, d, p.Name)
		}
		driven[o] = p.Name
		s.PinOrNew(o)
	}
	for _, i := range p.Inputs {
		s.PinOrNew(i)
	}
	return p.Mount(s), nil
}
