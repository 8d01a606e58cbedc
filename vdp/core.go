// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vdp

import "github.com/db47h/cosim"

const vramMask = 1<<17 - 1 // 128KB of VRAM

type access struct {
	write bool
	addr  uint32
	data  uint8
}

// core implements the VDP ports: VRAM data (0), control and status (1),
// palette (2) and indirect register (3). VRAM accesses are queued and issued
// one at a time through the VRAM port; reads fill the read-ahead buffer.
//
func core(cfg *Config, st *state) *cosim.PartSpec {
	return &cosim.PartSpec{
		Name:    "Core",
		Inputs:  []string{cosim.PinClk, cosim.PinReset, wIOWe, wIORe, wIOPort, wIOData, wCPUDone, wCPURd},
		Outputs: []string{cosim.PinDataOut, wCPUReq, wCPUWe, wCPUAddr, wCPUWd},
		Mount: func(s *cosim.Socket) []cosim.Component {
			clk, rst := s.Pin(cosim.PinClk), s.Pin(cosim.PinReset)
			we, re, port, wd := s.Pin(wIOWe), s.Pin(wIORe), s.Pin(wIOPort), s.Pin(wIOData)
			done, rdata := s.Pin(wCPUDone), s.Pin(wCPURd)
			out := s.Pin(cosim.PinDataOut)
			req, reqWe, reqAddr, reqWd := s.Pin(wCPUReq), s.Pin(wCPUWe), s.Pin(wCPUAddr), s.Pin(wCPUWd)

			var (
				ck        edge
				latch     uint8
				latched   bool
				palLatch  uint8
				palFirst  bool
				addr      uint32
				readAhead uint8
				seq       uint32
				pending   *access
				queue     []access
			)

			writeReg := func(n, v uint8) {
				n &= 0x3f
				st.reg[n] = v
				if n == 16 {
					palFirst = false
				}
			}
			queueRead := func() {
				queue = append(queue, access{addr: addr})
				addr = (addr + 1) & vramMask
			}
			write := func(p uint32, v uint8) {
				switch p {
				case 0:
					latched = false
					queue = append(queue, access{write: true, addr: addr, data: v})
					addr = (addr + 1) & vramMask
				case 1:
					if !latched {
						latch, latched = v, true
						return
					}
					latched = false
					if v&0x80 != 0 {
						writeReg(v, latch)
						return
					}
					addr = uint32(st.reg[14]&7)<<14 | uint32(v&0x3f)<<8 | uint32(latch)
					if v&0x40 == 0 {
						queueRead()
					}
				case 2:
					if !palFirst {
						palLatch, palFirst = v, true
						return
					}
					palFirst = false
					i := st.reg[16] & 0xf
					st.pal[i] = rgb{r: palLatch >> 4 & 7, g: v & 7, b: palLatch & 7}
					st.reg[16] = (i + 1) & 0xf
				case 3:
					r := st.reg[17]
					writeReg(r, v)
					if r&0x80 == 0 {
						st.reg[17] = r&0xc0 | (r+1)&0x3f
					}
				}
			}
			read := func(p uint32) uint8 {
				switch p {
				case 0:
					latched = false
					v := readAhead
					queueRead()
					return v
				case 1:
					latched = false
					if st.reg[15]&0xf != 0 {
						return 0
					}
					v := st.s0
					st.s0 &^= 0x80
					return v
				}
				return 0xff
			}

			return []cosim.Component{
				func(sig *cosim.Signals) {
					if _, rising := ck.update(sig.Bool(clk)); !rising {
						return
					}
					if !sig.Bool(rst) {
						st.reset()
						latched, palFirst = false, false
						addr, readAhead = 0, 0
						pending, queue = nil, nil
						sig.Set(out, 0)
						return
					}
					if pending != nil && sig.Get(done) == seq {
						if !pending.write {
							readAhead = uint8(sig.Get(rdata) >> (8 * (pending.addr & 3)))
						}
						pending = nil
					}
					if sig.Bool(we) {
						write(sig.Get(port), uint8(sig.Get(wd)))
					}
					if sig.Bool(re) {
						sig.Set(out, uint32(read(sig.Get(port))))
					}
					if pending == nil && len(queue) > 0 {
						a := queue[0]
						queue = queue[1:]
						pending = &a
						seq++
						sig.SetBool(reqWe, a.write)
						sig.Set(reqAddr, a.addr)
						sig.Set(reqWd, uint32(a.data))
						sig.Set(req, seq)
					}
				},
			}
		},
	}
}
