// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtest provides fake devices and utility functions for testing the
// harness and the parts mounted in it.
//
package simtest

import (
	"github.com/db47h/cosim"
)

// Registers is a fake DUT exposing a bank of byte registers on the slot bus.
// Each access to the bank asserts the wait signal for a fixed number of
// half-cycles.
//
type Registers struct {
	Base uint16
	Regs []uint8
	// Half-cycles the wait signal stays asserted after each access.
	Wait int

	Writes, Reads int
}

// NewRegisters returns a bank of n registers at I/O address base.
//
func NewRegisters(base uint16, n int, wait int) *Registers {
	return &Registers{Base: base, Regs: make([]uint8, n), Wait: wait}
}

// Spec returns the part specification. Mounting the part clears the registers
// and counters.
//
func (r *Registers) Spec() *cosim.PartSpec {
	return &cosim.PartSpec{
		Name:    "Registers",
		Inputs:  []string{cosim.PinClk, cosim.PinReset, cosim.PinAddr, cosim.PinData, cosim.PinWr, cosim.PinRd, cosim.PinIorq},
		Outputs: []string{cosim.PinDataOut, cosim.PinWait},
		Mount: func(s *cosim.Socket) []cosim.Component {
			clk, rst := s.Pin(cosim.PinClk), s.Pin(cosim.PinReset)
			addr, data := s.Pin(cosim.PinAddr), s.Pin(cosim.PinData)
			wr, rd, iorq := s.Pin(cosim.PinWr), s.Pin(cosim.PinRd), s.Pin(cosim.PinIorq)
			out, wait := s.Pin(cosim.PinDataOut), s.Pin(cosim.PinWait)
			for i := range r.Regs {
				r.Regs[i] = 0
			}
			r.Writes, r.Reads = 0, 0
			var (
				prevClk, prevWr, prevRd bool
				busy                    int
			)
			return []cosim.Component{
				func(sig *cosim.Signals) {
					a := uint16(sig.Get(addr))
					sel := !sig.Bool(iorq) && a >= r.Base && int(a-r.Base) < len(r.Regs)
					w, rr := sel && !sig.Bool(wr), sel && !sig.Bool(rd)
					if w && !prevWr {
						r.Regs[a-r.Base] = uint8(sig.Get(data))
						r.Writes++
						busy = r.Wait
					}
					if rr && !prevRd {
						r.Reads++
						busy = r.Wait
					}
					prevWr, prevRd = w, rr
					if rr {
						sig.Set(out, uint32(r.Regs[a-r.Base]))
					} else {
						sig.Set(out, 0)
					}
					if c := sig.Bool(clk); c != prevClk {
						prevClk = c
						if busy > 0 {
							busy--
						}
					}
					if !sig.Bool(rst) {
						busy = 0
					}
					sig.SetBool(wait, busy > 0)
				},
			}
		},
	}
}

// StuckWait returns a DUT that never releases its wait signal.
//
func StuckWait() *cosim.PartSpec {
	return &cosim.PartSpec{
		Name:    "StuckWait",
		Outputs: []string{cosim.PinWait},
		Mount: func(s *cosim.Socket) []cosim.Component {
			wait := s.Pin(cosim.PinWait)
			return []cosim.Component{
				func(sig *cosim.Signals) { sig.Set(wait, 1) },
			}
		},
	}
}

// Pattern returns a video generator. Every div rising clock edges it outputs
// one pixel of a raster of hTotal by vTotal pixels whose top left w by h area
// is active. Active pixels have red=x, green=y and blue=frame number. The
// vertical sync is asserted on the first blank line.
//
func Pattern(w, h, hTotal, vTotal, div int) *cosim.PartSpec {
	return &cosim.PartSpec{
		Name:    "Pattern",
		Inputs:  []string{cosim.PinClk, cosim.PinReset},
		Outputs: []string{cosim.PinVSync, cosim.PinEnable, cosim.PinRed, cosim.PinGreen, cosim.PinBlue},
		Mount: func(s *cosim.Socket) []cosim.Component {
			clk, rst := s.Pin(cosim.PinClk), s.Pin(cosim.PinReset)
			vs, en := s.Pin(cosim.PinVSync), s.Pin(cosim.PinEnable)
			red, green, blue := s.Pin(cosim.PinRed), s.Pin(cosim.PinGreen), s.Pin(cosim.PinBlue)
			var (
				prev           bool
				n, x, y, frame int
			)
			return []cosim.Component{
				func(sig *cosim.Signals) {
					c := sig.Bool(clk)
					rising := c && !prev
					prev = c
					if !rising {
						return
					}
					if !sig.Bool(rst) {
						n, x, y, frame = 0, 0, 0, 0
						sig.Set(vs, 0)
						sig.Set(en, 0)
						return
					}
					if n++; n < div {
						return
					}
					n = 0
					sig.SetBool(vs, y == h)
					if x < w && y < h {
						sig.Set(en, 1)
						sig.Set(red, uint32(x))
						sig.Set(green, uint32(y))
						sig.Set(blue, uint32(frame))
					} else {
						sig.Set(en, 0)
					}
					if x++; x == hTotal {
						x = 0
						if y++; y == vTotal {
							y = 0
							frame++
						}
					}
				},
			}
		},
	}
}

// Reader is a fake DUT issuing memory reads and collecting the results.
//
type Reader struct {
	// Addresses to read, one per rising clock edge once reset is released.
	Addrs []uint32
	// Data returned, in order.
	Data []uint32
	// Half-cycle count, since reset release, at which each request was issued
	// and each response was seen.
	Issued, Seen []int
}

// Spec returns the part specification.
//
func (r *Reader) Spec() *cosim.PartSpec {
	return &cosim.PartSpec{
		Name:    "Reader",
		Inputs:  []string{cosim.PinClk, cosim.PinReset, cosim.PinVRAMRd, cosim.PinVRAMRdEn},
		Outputs: []string{cosim.PinVRAMAddr, cosim.PinVRAMVld, cosim.PinVRAMWr},
		Mount: func(s *cosim.Socket) []cosim.Component {
			clk, rst := s.Pin(cosim.PinClk), s.Pin(cosim.PinReset)
			rdata, rdEn := s.Pin(cosim.PinVRAMRd), s.Pin(cosim.PinVRAMRdEn)
			addr, vld := s.Pin(cosim.PinVRAMAddr), s.Pin(cosim.PinVRAMVld)
			var (
				prev bool
				half int
				next int
			)
			return []cosim.Component{
				func(sig *cosim.Signals) {
					c := sig.Bool(clk)
					if c == prev {
						return
					}
					prev = c
					if !sig.Bool(rst) {
						return
					}
					half++
					if sig.Bool(rdEn) {
						r.Data = append(r.Data, sig.Get(rdata))
						r.Seen = append(r.Seen, half)
					}
					sig.Set(vld, 0)
					if c && next < len(r.Addrs) {
						sig.Set(addr, r.Addrs[next])
						sig.Set(vld, 1)
						r.Issued = append(r.Issued, half)
						next++
					}
				},
			}
		},
	}
}
