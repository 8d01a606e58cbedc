// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vdp

import "github.com/db47h/cosim"

// ioDecoder decodes I/O cycles addressed to the VDP ports.
//
//	Inputs: clk, slot_reset_n, slot_a, slot_d, slot_wr_n, slot_rd_n, slot_iorq_n
//	Outputs: slot_wait, io_we, io_re, io_port, io_data
//	Function: on the rising edge where /IORQ and /WR (or /RD) are first seen
//	asserted, pulse io_we (or io_re) for one cycle and assert slot_wait for
//	WaitCycles cycles.
//
func ioDecoder(cfg *Config) *cosim.PartSpec {
	return &cosim.PartSpec{
		Name:    "IODecoder",
		Inputs:  []string{cosim.PinClk, cosim.PinReset, cosim.PinAddr, cosim.PinData, cosim.PinWr, cosim.PinRd, cosim.PinIorq},
		Outputs: []string{cosim.PinWait, wIOWe, wIORe, wIOPort, wIOData},
		Mount: func(s *cosim.Socket) []cosim.Component {
			clk, rst := s.Pin(cosim.PinClk), s.Pin(cosim.PinReset)
			addr, data := s.Pin(cosim.PinAddr), s.Pin(cosim.PinData)
			wr, rd, iorq := s.Pin(cosim.PinWr), s.Pin(cosim.PinRd), s.Pin(cosim.PinIorq)
			wait := s.Pin(cosim.PinWait)
			we, re, port, wd := s.Pin(wIOWe), s.Pin(wIORe), s.Pin(wIOPort), s.Pin(wIOData)
			base := uint32(cfg.PortBase) &^ 3

			var (
				ck             edge
				busy           int
				inReset        bool
				prevWr, prevRd bool
			)
			return []cosim.Component{
				func(sig *cosim.Signals) {
					if _, rising := ck.update(sig.Bool(clk)); !rising {
						return
					}
					sig.Set(we, 0)
					sig.Set(re, 0)
					if !sig.Bool(rst) {
						inReset = true
						prevWr, prevRd = false, false
						sig.Set(wait, 1)
						return
					}
					if inReset {
						inReset = false
						busy = cfg.InitCycles
					}
					sel := !sig.Bool(iorq) && sig.Get(addr)&^3 == base
					w := sel && !sig.Bool(wr)
					r := sel && !sig.Bool(rd)
					if w && !prevWr {
						sig.Set(we, 1)
						sig.Set(port, sig.Get(addr)&3)
						sig.Set(wd, sig.Get(data)&0xff)
						if busy < cfg.WaitCycles {
							busy = cfg.WaitCycles
						}
					}
					if r && !prevRd {
						sig.Set(re, 1)
						sig.Set(port, sig.Get(addr)&3)
						if busy < cfg.WaitCycles {
							busy = cfg.WaitCycles
						}
					}
					prevWr, prevRd = w, r
					if busy > 0 {
						busy--
					}
					sig.SetBool(wait, busy > 0)
				},
			}
		},
	}
}
