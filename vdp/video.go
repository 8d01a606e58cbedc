// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vdp

import "github.com/db47h/cosim"

// video generates the raster signal. One pixel lasts PixelDiv full cycles.
// Pixels are fetched from VRAM one word (8 pixels) ahead of the beam: the
// first word of a line is fetched at the start of the previous horizontal
// blanking.
//
//	R#1 bit 6: display enable, when clear the active area shows the backdrop
//	R#2:       pattern name table base (bits 5-6, A15-A16)
//	R#7:       backdrop color (low nibble)
//	S#0 bit 7: set on the first blank line, cleared on read
//
func video(cfg *Config, st *state) *cosim.PartSpec {
	return &cosim.PartSpec{
		Name:   "Video",
		Inputs: []string{cosim.PinClk, cosim.PinReset, wVidDone, wVidRd},
		Outputs: []string{cosim.PinHSync, cosim.PinVSync, cosim.PinEnable,
			cosim.PinRed, cosim.PinGreen, cosim.PinBlue, wVidReq, wVidAddr},
		Mount: func(s *cosim.Socket) []cosim.Component {
			clk, rst := s.Pin(cosim.PinClk), s.Pin(cosim.PinReset)
			done, rdata := s.Pin(wVidDone), s.Pin(wVidRd)
			hs, vs, en := s.Pin(cosim.PinHSync), s.Pin(cosim.PinVSync), s.Pin(cosim.PinEnable)
			red, green, blue := s.Pin(cosim.PinRed), s.Pin(cosim.PinGreen), s.Pin(cosim.PinBlue)
			req, reqAddr := s.Pin(wVidReq), s.Pin(wVidAddr)
			g := cfg.Geometry
			groups := g.Width / 8

			var (
				ck        edge
				started   bool
				div, h, v int
				cur, next uint32
				seq       uint32
				fetching  bool
			)
			fetch := func(sig *cosim.Signals, line, group int) {
				base := uint32(st.reg[2]&0x60) << 10
				seq++
				fetching = true
				sig.Set(reqAddr, (base+uint32(line*g.Width/2+group*4))&vramMask)
				sig.Set(req, seq)
			}
			blank := func(sig *cosim.Signals) {
				sig.Set(en, 0)
				sig.Set(red, 0)
				sig.Set(green, 0)
				sig.Set(blue, 0)
			}
			return []cosim.Component{
				func(sig *cosim.Signals) {
					if _, rising := ck.update(sig.Bool(clk)); !rising {
						return
					}
					if !sig.Bool(rst) {
						started = false
						div, h, v = 0, 0, 0
						blank(sig)
						sig.Set(hs, 0)
						sig.Set(vs, 0)
						return
					}
					if fetching && sig.Get(done) == seq {
						next = sig.Get(rdata)
						fetching = false
					}
					if !started {
						started = true
						fetch(sig, 0, 0)
					}
					if div++; div < cfg.PixelDiv {
						return
					}
					div = 0

					active := h < g.Width && v < g.Height
					if active && h%8 == 0 {
						cur = next
						if n := h/8 + 1; n < groups {
							fetch(sig, v, n)
						}
					}
					if h == g.Width {
						nl := v + 1
						if nl == g.VTotal {
							nl = 0
						}
						if nl < g.Height {
							fetch(sig, nl, 0)
						}
					}
					if h == 0 && v == g.Height {
						st.s0 |= 0x80
					}

					sig.SetBool(hs, h >= g.HSyncStart && h < g.HSyncStart+g.HSyncLen)
					sig.SetBool(vs, v >= g.VSyncStart && v < g.VSyncStart+g.VSyncLen)
					if active {
						p := uint(h % 8)
						b := uint8(cur >> (8 * (p / 2)))
						c := b & 0xf
						if p%2 == 0 {
							c = b >> 4
						}
						if st.reg[1]&0x40 == 0 {
							c = st.reg[7] & 0xf
						}
						r, gr, bl := st.pal[c].expand()
						sig.Set(en, 1)
						sig.Set(red, uint32(r))
						sig.Set(green, uint32(gr))
						sig.Set(blue, uint32(bl))
					} else {
						blank(sig)
					}

					if h++; h == g.HTotal {
						h = 0
						if v++; v == g.VTotal {
							v = 0
						}
					}
				},
			}
		},
	}
}
