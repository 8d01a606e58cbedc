// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"encoding/binary"
	"fmt"
	"io"
)

// A Request is a memory request issued during one half-cycle.
//
type Request struct {
	Addr  uint32
	Write bool
	Data  uint32
	// Mask selects the bytes written, bit i enabling byte i. A zero mask
	// writes all four bytes.
	Mask uint8
}

// A Response is the output of the memory for one half-cycle. Valid is set for
// exactly one half-cycle per completed read.
//
type Response struct {
	Valid bool
	Addr  uint32
	Data  uint32
}

type slot struct {
	valid bool
	addr  uint32
}

// Memory is a word addressed backing store with a fixed read latency.
//
// Reads travel through a shift register of depth L: a read issued at step T
// produces a valid response at step T+L. Writes are applied immediately.
//
// At most one read may be in flight. Overlapping reads are not detected: the
// last request wins the pipeline slot.
//
type Memory struct {
	words   []uint32
	pipe    []slot
	steps   uint64
	dropped uint64
	clamped uint64
}

// NewMemory returns a new memory of the given size in words and read latency
// in half-cycles.
//
func NewMemory(words, latency int) *Memory {
	if words < 1 || latency < 1 {
		panic("invalid memory parameters")
	}
	return &Memory{
		words: make([]uint32, words),
		pipe:  make([]slot, latency),
	}
}

// Step advances the memory by one half-cycle. req may be nil if no request is
// issued during this half-cycle.
//
func (m *Memory) Step(req *Request) Response {
	var r Response
	if s := m.pipe[0]; s.valid {
		r = Response{Valid: true, Addr: s.addr, Data: m.read(s.addr)}
	}
	copy(m.pipe, m.pipe[1:])
	m.pipe[len(m.pipe)-1] = slot{}

	if req != nil {
		if req.Write {
			m.write(req.Addr, req.Data, req.Mask)
		} else {
			m.pipe[len(m.pipe)-1] = slot{valid: true, addr: req.Addr}
		}
	}
	m.steps++
	return r
}

// Pending returns true if a read is in flight.
//
func (m *Memory) Pending() bool {
	for _, s := range m.pipe {
		if s.valid {
			return true
		}
	}
	return false
}

// InRange returns true if addr is a valid word address.
//
func (m *Memory) InRange(addr uint32) bool { return uint64(addr) < uint64(len(m.words)) }

func (m *Memory) write(addr, data uint32, mask uint8) {
	if !m.InRange(addr) {
		m.dropped++
		return
	}
	if mask&0xf == 0 || mask&0xf == 0xf {
		m.words[addr] = data
		return
	}
	cur := m.words[addr]
	for i := uint(0); i < 4; i++ {
		if mask&(1<<i) != 0 {
			b := uint32(0xff) << (8 * i)
			cur = cur&^b | data&b
		}
	}
	m.words[addr] = cur
}

func (m *Memory) read(addr uint32) uint32 {
	if !m.InRange(addr) {
		m.clamped++
		return 0
	}
	return m.words[addr]
}

// Peek reads a word without going through the pipeline. Out of range addresses
// read as zero.
//
func (m *Memory) Peek(addr uint32) uint32 {
	if !m.InRange(addr) {
		return 0
	}
	return m.words[addr]
}

// Poke writes the bytes of data selected by mask at addr without going through
// the pipeline. Out of range writes are ignored.
//
func (m *Memory) Poke(addr, data uint32, mask uint8) {
	if !m.InRange(addr) {
		return
	}
	m.write(addr, data, mask)
}

// Dropped returns the number of out of range writes that were ignored.
//
func (m *Memory) Dropped() uint64 { return m.dropped }

// Clamped returns the number of out of range reads that returned zero.
//
func (m *Memory) Clamped() uint64 { return m.clamped }

// Steps returns the number of calls to Step.
//
func (m *Memory) Steps() uint64 { return m.steps }

// Latency returns the read latency in half-cycles.
//
func (m *Memory) Latency() int { return len(m.pipe) }

// Len returns the memory size in words.
//
func (m *Memory) Len() int { return len(m.words) }

// Words returns the backing store. The returned slice aliases the memory.
//
func (m *Memory) Words() []uint32 { return m.words }

// Bytes returns a little endian copy of the backing store.
//
func (m *Memory) Bytes() []byte {
	b := make([]byte, 4*len(m.words))
	for i, w := range m.words {
		binary.LittleEndian.PutUint32(b[4*i:], w)
	}
	return b
}

// Dump writes the first n words to w, one per line.
//
func (m *Memory) Dump(w io.Writer, n int) error {
	if n > len(m.words) {
		n = len(m.words)
	}
	for i := 0; i < n; i++ {
		if _, err := fmt.Fprintf(w, "VRAM[%04x]=%08x\n", i, m.words[i]); err != nil {
			return err
		}
	}
	return nil
}
