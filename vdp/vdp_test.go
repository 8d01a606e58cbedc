package vdp_test

import (
	"testing"

	"github.com/db47h/cosim"
	"github.com/db47h/cosim/vdp"
)

const (
	io0 = vdp.DefaultPortBase
	io1 = io0 + 1
	io2 = io0 + 2
	io3 = io0 + 3
)

// small raster so that a frame only lasts a few hundred cycles.
func testConfig() vdp.Config {
	c := vdp.DefaultConfig()
	c.Geometry = vdp.Geometry{
		Width: 16, Height: 4,
		HTotal: 24, VTotal: 8,
		HSyncStart: 18, HSyncLen: 2,
		VSyncStart: 5, VSyncLen: 1,
	}
	return c
}

func frameCycles(c vdp.Config) int {
	return c.Geometry.HTotal * c.Geometry.VTotal * c.PixelDiv
}

type tb struct {
	*testing.T
	s      *cosim.Sim
	frames []*cosim.Frame
}

func newTB(t *testing.T, c vdp.Config) *tb {
	dut, err := vdp.New(c)
	if err != nil {
		t.Fatal(err)
	}
	b := &tb{T: t}
	b.s, err = cosim.NewSim(cosim.DefaultConfig(), dut, cosim.WithFrameSink(cosim.FrameSinkFunc(func(f *cosim.Frame) error {
		b.frames = append(b.frames, f)
		return nil
	})))
	if err != nil {
		t.Fatal(err)
	}
	b.s.Reset(cosim.DefaultResetCycles)
	if _, err = b.s.WaitReady(1000); err != nil {
		t.Fatal(err)
	}
	return b
}

func (b *tb) write(port uint16, vs ...uint8) {
	b.Helper()
	for _, v := range vs {
		if err := b.s.Write(port, v); err != nil {
			b.Fatal(err)
		}
	}
}

func (b *tb) read(port uint16) uint8 {
	b.Helper()
	v, err := b.s.Read(port)
	if err != nil {
		b.Fatal(err)
	}
	return v
}

func (b *tb) reg(r, v uint8) { b.write(io1, v, 0x80|r) }

func TestNew_invalid(t *testing.T) {
	for _, td := range []struct {
		name string
		mod  func(c *vdp.Config)
	}{
		{"pixelDiv", func(c *vdp.Config) { c.PixelDiv = 0 }},
		{"width", func(c *vdp.Config) { c.Geometry.Width = 12 }},
		{"hblank", func(c *vdp.Config) { c.Geometry.HTotal = c.Geometry.Width }},
		{"vsync", func(c *vdp.Config) { c.Geometry.VSyncStart = 0 }},
		{"wait", func(c *vdp.Config) { c.WaitCycles = -1 }},
	} {
		t.Run(td.name, func(t *testing.T) {
			c := vdp.DefaultConfig()
			td.mod(&c)
			if _, err := vdp.New(c); err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}

func TestVDP_initWait(t *testing.T) {
	dut, err := vdp.New(vdp.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	s, err := cosim.NewSim(cosim.DefaultConfig(), dut)
	if err != nil {
		t.Fatal(err)
	}
	s.Cycles(4)
	if !s.Wait() {
		t.Fatal("wait not asserted during reset")
	}
	s.Reset(cosim.DefaultResetCycles)
	if !s.Wait() {
		t.Fatal("wait not asserted during initialization")
	}
	if _, err = s.WaitReady(1000); err != nil {
		t.Fatal(err)
	}
}

func TestVDP_vram(t *testing.T) {
	b := newTB(t, testConfig())
	// write address 0x10000: R#14 = 4, then A0-A7, A8-A13 | 0x40
	b.reg(14, 0x04)
	b.write(io1, 0x00, 0x40)
	for i := 0; i < 16; i++ {
		b.write(io0, uint8(0xf0-i))
	}
	b.s.Cycles(8)
	mem := b.s.Memory()
	for i, w := range []uint32{0xedeeeff0, 0xe9eaebec, 0xe5e6e7e8, 0xe1e2e3e4} {
		if got := mem.Peek(0x10000/4 + uint32(i)); got != w {
			t.Fatalf("word %d: expected %08x, got %08x", i, w, got)
		}
	}

	// read back
	b.reg(14, 0x04)
	b.write(io1, 0x00, 0x00)
	for i := 0; i < 16; i++ {
		if v := b.read(io0); v != uint8(0xf0-i) {
			t.Fatalf("byte %d: expected %#02x, got %#02x", i, 0xf0-i, v)
		}
	}
	if st := b.s.Stats(); st.Timeouts != 0 || st.OutOfRange != 0 {
		t.Fatalf("bad stats %+v", st)
	}
}

func TestVDP_backdrop(t *testing.T) {
	c := testConfig()
	b := newTB(t, c)
	// palette entry 3 = pure red
	b.reg(16, 3)
	b.write(io2, 0x70, 0x00)
	// R#7 = 3 through the indirect register port, no auto increment
	b.reg(17, 0x87)
	b.write(io3, 3)

	b.s.Cycles(3 * frameCycles(c))
	if len(b.frames) < 2 {
		t.Fatalf("expected at least 2 frames, got %d", len(b.frames))
	}
	f := b.frames[len(b.frames)-1]
	if bd := f.Image.Bounds(); bd.Dx() != 16 || bd.Dy() != 4 {
		t.Fatalf("expected a 16x4 frame, got %dx%d", bd.Dx(), bd.Dy())
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 16; x++ {
			if p := f.Image.NRGBAAt(x, y); p.R != 255 || p.G != 0 || p.B != 0 {
				t.Fatalf("pixel %d,%d: expected red backdrop, got %v", x, y, p)
			}
		}
	}
	if s0 := b.read(io1); s0&0x80 == 0 {
		t.Fatalf("vertical blank flag not set in S#0: %#02x", s0)
	}
}

func TestVDP_screen5(t *testing.T) {
	c := testConfig()
	b := newTB(t, c)
	// 4 lines of 8 bytes at 0, pixel x of line y has color (x+y)&15
	b.reg(14, 0)
	b.write(io1, 0x00, 0x40)
	for y := 0; y < 4; y++ {
		for i := 0; i < 8; i++ {
			hi, lo := (2*i+y)&15, (2*i+1+y)&15
			b.write(io0, uint8(hi<<4|lo))
		}
	}
	b.reg(2, 0x1f)
	b.reg(1, 0x40)
	b.s.Cycles(3 * frameCycles(c))

	pal := vdp.Palette()
	f := b.frames[len(b.frames)-1]
	for y := 0; y < 4; y++ {
		for x := 0; x < 16; x++ {
			want := pal[(x+y)&15]
			if p := f.Image.NRGBAAt(x, y); p.R != want[0] || p.G != want[1] || p.B != want[2] {
				t.Fatalf("pixel %d,%d: expected %v, got %v", x, y, want, p)
			}
		}
	}
}

func TestVDP_independent(t *testing.T) {
	dut, err := vdp.New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	var sims [2]*cosim.Sim
	for i := range sims {
		if sims[i], err = cosim.NewSim(cosim.DefaultConfig(), dut); err != nil {
			t.Fatal(err)
		}
		sims[i].Reset(cosim.DefaultResetCycles)
		sims[i].WaitReady(1000)
	}
	// set a VRAM read address in the first sim only, then check that the
	// second one still starts reading at 0
	sims[0].Memory().Poke(0, 0x11, 0)
	sims[1].Memory().Poke(0, 0x22, 0)
	for _, v := range []uint8{0x00, 0x01} {
		sims[0].Write(io1, v)
	}
	sims[1].Write(io1, 0x00)
	sims[1].Write(io1, 0x00)
	v, err := sims[1].Read(io0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x22 {
		t.Fatalf("expected 0x22, got %#02x", v)
	}
}
