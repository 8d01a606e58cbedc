// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

// Pin names driven by the harness.
//
const (
	PinClk      = "clk"          // primary clock
	PinSlotClk  = "slot_clk"     // derived clock
	PinReset    = "slot_reset_n" // active low reset
	PinAddr     = "slot_a"       // 8 bit I/O address
	PinData     = "slot_d"       // data driven by the bus master
	PinWr       = "slot_wr_n"    // active low write strobe
	PinRd       = "slot_rd_n"    // active low read strobe
	PinIorq     = "slot_iorq_n"  // active low I/O request
	PinDataDir  = "slot_data_dir"
	PinDriveEn  = "cpu_drive_en"
	PinButton   = "button"
	PinDipSW    = "dipsw"
	PinVRAMRd   = "vram_rdata"    // read data returned by the memory model
	PinVRAMRdEn = "vram_rdata_en" // one half-cycle read valid pulse
)

// Pin names driven by the DUT.
//
const (
	PinDataOut  = "slot_d_out" // data driven by the DUT during reads
	PinWait     = "slot_wait"  // busy, the bus master must wait
	PinVRAMAddr = "vram_address"
	PinVRAMWd   = "vram_wdata"
	PinVRAMMask = "vram_mask"
	PinVRAMVld  = "vram_valid"
	PinVRAMWr   = "vram_write"
	PinHSync    = "display_hs"
	PinVSync    = "display_vs"
	PinEnable   = "display_en"
	PinRed      = "display_r"
	PinGreen    = "display_g"
	PinBlue     = "display_b"
)

// HarnessPins lists the pins driven by the harness. A DUT must not declare any
// of them as outputs.
//
var HarnessPins = []string{
	PinClk, PinSlotClk, PinReset,
	PinAddr, PinData, PinWr, PinRd, PinIorq, PinDataDir, PinDriveEn,
	PinButton, PinDipSW,
	PinVRAMRd, PinVRAMRdEn,
}

// DUTPins lists the pins the harness reads from the DUT. Pins the DUT does not
// declare read as zero.
//
var DUTPins = []string{
	PinDataOut, PinWait,
	PinVRAMAddr, PinVRAMWd, PinVRAMMask, PinVRAMVld, PinVRAMWr,
	PinHSync, PinVSync, PinEnable, PinRed, PinGreen, PinBlue,
}

// harness pin numbers, resolved once in NewSim.
type pins struct {
	clk, slotClk, reset                        int
	addr, data, wr, rd, iorq, dataDir, driveEn int
	button, dipsw                              int
	vramRd, vramRdEn                           int

	dataOut, wait                         int
	vramAddr, vramWd, vramMask            int
	vramVld, vramWr                       int
	hsync, sync, enable, red, green, blue int
}

func resolvePins(s *Socket, syncPin string) pins {
	return pins{
		clk:      s.PinOrNew(PinClk),
		slotClk:  s.PinOrNew(PinSlotClk),
		reset:    s.PinOrNew(PinReset),
		addr:     s.PinOrNew(PinAddr),
		data:     s.PinOrNew(PinData),
		wr:       s.PinOrNew(PinWr),
		rd:       s.PinOrNew(PinRd),
		iorq:     s.PinOrNew(PinIorq),
		dataDir:  s.PinOrNew(PinDataDir),
		driveEn:  s.PinOrNew(PinDriveEn),
		button:   s.PinOrNew(PinButton),
		dipsw:    s.PinOrNew(PinDipSW),
		vramRd:   s.PinOrNew(PinVRAMRd),
		vramRdEn: s.PinOrNew(PinVRAMRdEn),
		dataOut:  s.PinOrNew(PinDataOut),
		wait:     s.PinOrNew(PinWait),
		vramAddr: s.PinOrNew(PinVRAMAddr),
		vramWd:   s.PinOrNew(PinVRAMWd),
		vramMask: s.PinOrNew(PinVRAMMask),
		vramVld:  s.PinOrNew(PinVRAMVld),
		vramWr:   s.PinOrNew(PinVRAMWr),
		hsync:    s.PinOrNew(PinHSync),
		sync:     s.PinOrNew(syncPin),
		enable:   s.PinOrNew(PinEnable),
		red:      s.PinOrNew(PinRed),
		green:    s.PinOrNew(PinGreen),
		blue:     s.PinOrNew(PinBlue),
	}
}

var pinWidths = map[string]int{
	PinClk: 1, PinSlotClk: 1, PinReset: 1,
	PinAddr: 8, PinData: 8, PinWr: 1, PinRd: 1, PinIorq: 1, PinDataDir: 1, PinDriveEn: 1,
	PinButton: 2, PinDipSW: 2,
	PinVRAMRd: 32, PinVRAMRdEn: 1,
	PinDataOut: 8, PinWait: 1,
	PinVRAMAddr: 32, PinVRAMWd: 32, PinVRAMMask: 4, PinVRAMVld: 1, PinVRAMWr: 1,
	PinHSync: 1, PinVSync: 1, PinEnable: 1, PinRed: 8, PinGreen: 8, PinBlue: 8,
}

// PinWidth returns the width in bits of the named standard pin, or 32 for
// unknown pins.
//
func PinWidth(name string) int {
	if w, ok := pinWidths[name]; ok {
		return w
	}
	return 32
}
