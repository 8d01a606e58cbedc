package cosim_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/db47h/cosim"
)

func TestMemory_latency(t *testing.T) {
	for l := 1; l <= 8; l++ {
		m := cosim.NewMemory(64, l)
		m.Poke(7, 0xcafe0007, 0)
		// idle steps first so that the pipeline is not aligned on step 0
		for i := 0; i < 3; i++ {
			if r := m.Step(nil); r.Valid {
				t.Fatalf("L=%d: unexpected response on idle step %d", l, i)
			}
		}
		issued := m.Steps()
		m.Step(&cosim.Request{Addr: 7})
		for i := 1; i <= l+2; i++ {
			r := m.Step(nil)
			if r.Valid != (i == l) {
				t.Fatalf("L=%d: step T+%d: valid=%v", l, i, r.Valid)
			}
			if r.Valid && (r.Addr != 7 || r.Data != 0xcafe0007) {
				t.Fatalf("L=%d: bad response %+v", l, r)
			}
			if i < l && !m.Pending() {
				t.Fatalf("L=%d: read not pending at step T+%d", l, i)
			}
		}
		if m.Pending() {
			t.Fatalf("L=%d: read still pending", l)
		}
		if m.Steps() != issued+uint64(l)+3 {
			t.Fatalf("L=%d: bad step count %d", l, m.Steps())
		}
	}
}

func TestMemory_scenario(t *testing.T) {
	// latency 2, write at step 0 then read the same address at step 1
	m := cosim.NewMemory(1<<17, 2)
	var got []cosim.Response
	reqs := []*cosim.Request{
		{Addr: 0x100, Write: true, Data: 0x12345678},
		{Addr: 0x100},
		nil, nil, nil,
	}
	for _, r := range reqs {
		got = append(got, m.Step(r))
	}
	for i, r := range got {
		if r.Valid != (i == 3) {
			t.Fatalf("step %d: valid=%v", i, r.Valid)
		}
	}
	if got[3].Data != 0x12345678 || got[3].Addr != 0x100 {
		t.Fatalf("bad read data %+v", got[3])
	}
}

func TestMemory_mask(t *testing.T) {
	m := cosim.NewMemory(4, 1)
	m.Poke(1, 0x11223344, 0)
	for _, td := range []struct {
		mask uint8
		data uint32
		want uint32
	}{
		{0x1, 0x000000aa, 0x112233aa},
		{0x2, 0x0000bb00, 0x1122bbaa},
		{0xc, 0xccdd0000, 0xccddbbaa},
		{0xf, 0x01020304, 0x01020304},
		{0x0, 0xffffffff, 0xffffffff},
	} {
		m.Step(&cosim.Request{Addr: 1, Write: true, Data: td.data, Mask: td.mask})
		if got := m.Peek(1); got != td.want {
			t.Fatalf("mask %04b: expected %08x, got %08x", td.mask, td.want, got)
		}
	}
}

func TestMemory_outOfRange(t *testing.T) {
	m := cosim.NewMemory(16, 1)
	m.Step(&cosim.Request{Addr: 16, Write: true, Data: 1})
	if m.Dropped() != 1 {
		t.Fatalf("expected 1 dropped write, got %d", m.Dropped())
	}
	for i := 0; i < m.Len(); i++ {
		if m.Peek(uint32(i)) != 0 {
			t.Fatalf("word %d modified by out of range write", i)
		}
	}
	m.Step(&cosim.Request{Addr: 1000})
	r := m.Step(nil)
	if !r.Valid || r.Data != 0 || r.Addr != 1000 {
		t.Fatalf("bad out of range read response %+v", r)
	}
	if m.Clamped() != 1 {
		t.Fatalf("expected 1 clamped read, got %d", m.Clamped())
	}
	if m.Peek(1000) != 0 {
		t.Fatal("Peek out of range should return 0")
	}
	m.Poke(1000, 1, 0)
}

func TestMemory_dump(t *testing.T) {
	m := cosim.NewMemory(32, 2)
	m.Poke(0, 0x04030201, 0)
	m.Poke(1, 0xdeadbeef, 0)
	var b bytes.Buffer
	if err := m.Dump(&b, 16); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 16 {
		t.Fatalf("expected 16 lines, got %d", len(lines))
	}
	if lines[1] != "VRAM[0001]=deadbeef" {
		t.Fatalf("bad dump line %q", lines[1])
	}
	if raw := m.Bytes(); !bytes.Equal(raw[:8], []byte{1, 2, 3, 4, 0xef, 0xbe, 0xad, 0xde}) {
		t.Fatalf("bad byte order % x", raw[:8])
	}
}
