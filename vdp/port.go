// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vdp

import "github.com/db47h/cosim"

// vramPort arbitrates the harness memory pins between the video generator and
// the core, video first. Clients post a request by changing their request
// sequence number and are notified of completion when the matching done pin
// takes the same value.
//
// Requests are issued on rising edges only and at most one read is in flight.
// The request pulse on vram_valid lasts one half-cycle. Byte writes become word
// writes with a single bit byte mask.
//
func vramPort() *cosim.PartSpec {
	return &cosim.PartSpec{
		Name: "VRAMPort",
		Inputs: []string{cosim.PinClk, cosim.PinVRAMRd, cosim.PinVRAMRdEn,
			wCPUReq, wCPUWe, wCPUAddr, wCPUWd, wVidReq, wVidAddr},
		Outputs: []string{cosim.PinVRAMAddr, cosim.PinVRAMWd, cosim.PinVRAMMask, cosim.PinVRAMVld, cosim.PinVRAMWr,
			wCPUDone, wCPURd, wVidDone, wVidRd},
		Mount: func(s *cosim.Socket) []cosim.Component {
			clk, rd, rdEn := s.Pin(cosim.PinClk), s.Pin(cosim.PinVRAMRd), s.Pin(cosim.PinVRAMRdEn)
			cpuReq, cpuWe, cpuAddr, cpuWd := s.Pin(wCPUReq), s.Pin(wCPUWe), s.Pin(wCPUAddr), s.Pin(wCPUWd)
			vidReq, vidAddr := s.Pin(wVidReq), s.Pin(wVidAddr)
			addr, wdata, mask := s.Pin(cosim.PinVRAMAddr), s.Pin(cosim.PinVRAMWd), s.Pin(cosim.PinVRAMMask)
			valid, write := s.Pin(cosim.PinVRAMVld), s.Pin(cosim.PinVRAMWr)
			cpuDone, cpuRd, vidDone, vidRd := s.Pin(wCPUDone), s.Pin(wCPURd), s.Pin(wVidDone), s.Pin(wVidRd)

			var (
				ck                   edge
				busy, forVideo       bool
				cpuServed, vidServed uint32
			)
			issue := func(sig *cosim.Signals, byteAddr uint32, w bool, data uint8) {
				sig.Set(addr, byteAddr>>2)
				sig.SetBool(write, w)
				sig.Set(valid, 1)
				if w {
					sh := 8 * (byteAddr & 3)
					sig.Set(mask, 1<<(byteAddr&3))
					sig.Set(wdata, uint32(data)<<sh)
				} else {
					sig.Set(mask, 0)
				}
			}
			return []cosim.Component{
				func(sig *cosim.Signals) {
					changed, rising := ck.update(sig.Bool(clk))
					if !changed {
						return
					}
					sig.Set(valid, 0)
					if busy && sig.Bool(rdEn) {
						busy = false
						if forVideo {
							sig.Set(vidRd, sig.Get(rd))
							sig.Set(vidDone, vidServed)
						} else {
							sig.Set(cpuRd, sig.Get(rd))
							sig.Set(cpuDone, cpuServed)
						}
					}
					if !rising || busy {
						return
					}
					if r := sig.Get(vidReq); r != vidServed {
						vidServed = r
						issue(sig, sig.Get(vidAddr), false, 0)
						busy, forVideo = true, true
						return
					}
					if r := sig.Get(cpuReq); r != cpuServed {
						cpuServed = r
						if sig.Bool(cpuWe) {
							issue(sig, sig.Get(cpuAddr), true, uint8(sig.Get(cpuWd)))
							sig.Set(cpuDone, r)
							return
						}
						issue(sig, sig.Get(cpuAddr), false, 0)
						busy, forVideo = true, false
					}
				},
			}
		},
	}
}
