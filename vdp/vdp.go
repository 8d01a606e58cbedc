// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package vdp provides a behavioural model of a V9938 style video display
// processor on an MSX cartridge slot, built from cosim parts.
//
// The model is a reference DUT for the harness: it decodes I/O cycles on the
// slot bus, exposes the register, VRAM, palette and status ports, reaches VRAM
// through the harness memory pins and generates a raster video signal in
// SCREEN5 (256 pixels, 4 bits per pixel) from VRAM.
//
package vdp

import (
	"github.com/db47h/cosim"
	"github.com/pkg/errors"
)

// Default I/O port base. Ports are Base+0 (VRAM data), Base+1 (control),
// Base+2 (palette) and Base+3 (indirect register).
//
const DefaultPortBase = 0x88

// Geometry describes the video timing, in pixels and lines.
//
type Geometry struct {
	Width, Height        int // active area
	HTotal, VTotal       int // total pixels per line, lines per frame
	HSyncStart, HSyncLen int
	VSyncStart, VSyncLen int
}

// DefaultGeometry returns a 256x212 NTSC like timing.
//
func DefaultGeometry() Geometry {
	return Geometry{
		Width: 256, Height: 212,
		HTotal: 342, VTotal: 262,
		HSyncStart: 270, HSyncLen: 26,
		VSyncStart: 215, VSyncLen: 3,
	}
}

// Config configures the model.
//
type Config struct {
	PortBase uint8
	// Full cycles the wait signal stays asserted after each I/O access.
	WaitCycles int
	// Full cycles the wait signal stays asserted after reset is released.
	InitCycles int
	// Full cycles per pixel.
	PixelDiv int
	Geometry Geometry
}

// DefaultConfig returns the default configuration.
//
func DefaultConfig() Config {
	return Config{
		PortBase:   DefaultPortBase,
		WaitCycles: 4,
		InitCycles: 32,
		PixelDiv:   4,
		Geometry:   DefaultGeometry(),
	}
}

func (c *Config) validate() error {
	g := &c.Geometry
	switch {
	case c.PixelDiv < 1:
		return errors.New("PixelDiv must be at least 1")
	case c.WaitCycles < 0 || c.InitCycles < 0:
		return errors.New("negative wait cycles")
	case g.Width < 8 || g.Width%8 != 0:
		return errors.Errorf("width %d is not a positive multiple of 8", g.Width)
	case g.Height < 1:
		return errors.Errorf("invalid height %d", g.Height)
	case g.HTotal <= g.Width:
		return errors.Errorf("HTotal %d leaves no horizontal blanking", g.HTotal)
	case g.VTotal <= g.Height:
		return errors.Errorf("VTotal %d leaves no vertical blanking", g.VTotal)
	case g.VSyncLen < 1 || g.VSyncStart < g.Height || g.VSyncStart+g.VSyncLen >= g.VTotal:
		return errors.New("vertical sync must lie within vertical blanking")
	case g.HSyncLen < 1 || g.HSyncStart < g.Width || g.HSyncStart+g.HSyncLen > g.HTotal:
		return errors.New("horizontal sync must lie within horizontal blanking")
	}
	return nil
}

// internal wires
const (
	wIOWe    = "vdp_io_we"
	wIORe    = "vdp_io_re"
	wIOPort  = "vdp_io_port"
	wIOData  = "vdp_io_data"
	wCPUReq  = "vdp_cpu_req"
	wCPUWe   = "vdp_cpu_we"
	wCPUAddr = "vdp_cpu_addr"
	wCPUWd   = "vdp_cpu_wdata"
	wCPUDone = "vdp_cpu_done"
	wCPURd   = "vdp_cpu_rdata"
	wVidReq  = "vdp_vid_req"
	wVidAddr = "vdp_vid_addr"
	wVidDone = "vdp_vid_done"
	wVidRd   = "vdp_vid_rdata"
)

// New returns the VDP part.
//
func New(cfg Config) (*cosim.PartSpec, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "vdp")
	}
	parts := func(st *state) []*cosim.PartSpec {
		return []*cosim.PartSpec{
			ioDecoder(&cfg),
			core(&cfg, st),
			video(&cfg, st),
			vramPort(),
		}
	}
	p := cosim.Compose("VDP", parts(nil)...)
	// registers are allocated per mount so that a part can be shared by
	// independent simulations.
	p.Mount = func(s *cosim.Socket) []cosim.Component {
		return cosim.Compose("VDP", parts(newState())...).Mount(s)
	}
	return p, nil
}

// registers shared by the core and the video generator.
type state struct {
	reg [64]uint8
	s0  uint8 // status register 0
	pal [16]rgb
}

func newState() *state {
	st := new(state)
	st.reset()
	return st
}

func (st *state) reset() {
	st.reg = [64]uint8{}
	st.s0 = 0
	st.pal = defaultPalette
}

// edge detects clock edges. Components only act on an edge so that repeated
// evaluations at the same time have no effect.
type edge struct {
	prev bool
}

// update returns whether the clock changed and whether it is a rising edge.
func (e *edge) update(clk bool) (changed, rising bool) {
	changed = clk != e.prev
	e.prev = clk
	return changed, changed && clk
}
