// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package vcd writes signal traces in Value Change Dump format.
//
package vcd

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/db47h/cosim"
	"github.com/pkg/errors"
)

// Writer is a cosim.TraceSink writing a VCD file with a 1ps timescale. The
// header is written on the first dump, once all pins are known. Only values
// that changed since the previous dump are written.
//
type Writer struct {
	w      *bufio.Writer
	c      io.Closer
	module string
	ids    []string
	widths []int
	prev   []uint32
	last   uint64
	header bool
	closed bool
	buf    []byte
}

// NewWriter returns a new Writer writing to w. If w is an io.Closer, it is
// closed by Close.
//
func NewWriter(w io.Writer, module string) *Writer {
	vw := &Writer{w: bufio.NewWriter(w), module: module}
	if c, ok := w.(io.Closer); ok {
		vw.c = c
	}
	return vw
}

// Create creates the named file and returns a Writer for it.
//
func Create(name, module string) (*Writer, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, errors.Wrap(err, "vcd")
	}
	return NewWriter(f, module), nil
}

// ident returns the VCD identifier for pin n.
//
func ident(n int) string {
	var b []byte
	for {
		b = append(b, byte('!'+n%94))
		n /= 94
		if n == 0 {
			return string(b)
		}
		n--
	}
}

func (w *Writer) writeHeader(s *cosim.Signals) error {
	w.ids = make([]string, s.Len())
	w.widths = make([]int, s.Len())
	w.prev = make([]uint32, s.Len())
	bw := w.w
	bw.WriteString("$timescale 1ps $end\n$scope module ")
	bw.WriteString(w.module)
	bw.WriteString(" $end\n")
	for n := 0; n < s.Len(); n++ {
		w.ids[n] = ident(n)
		w.widths[n] = cosim.PinWidth(s.Name(n))
		bw.WriteString("$var wire ")
		bw.WriteString(strconv.Itoa(w.widths[n]))
		bw.WriteByte(' ')
		bw.WriteString(w.ids[n])
		bw.WriteByte(' ')
		bw.WriteString(s.Name(n))
		bw.WriteString(" $end\n")
	}
	_, err := bw.WriteString("$upscope $end\n$enddefinitions $end\n")
	return err
}

func (w *Writer) value(n int, v uint32) {
	if w.widths[n] == 1 {
		w.buf = strconv.AppendUint(w.buf[:0], uint64(v&1), 10)
	} else {
		w.buf = append(w.buf[:0], 'b')
		w.buf = strconv.AppendUint(w.buf, uint64(v), 2)
		w.buf = append(w.buf, ' ')
	}
	w.buf = append(w.buf, w.ids[n]...)
	w.buf = append(w.buf, '\n')
	w.w.Write(w.buf)
}

// Dump implements cosim.TraceSink.
//
func (w *Writer) Dump(t uint64, s *cosim.Signals) error {
	if !w.header {
		if err := w.writeHeader(s); err != nil {
			return errors.Wrap(err, "vcd header")
		}
		w.w.WriteString("#" + strconv.FormatUint(t, 10) + "\n$dumpvars\n")
		for n := 0; n < s.Len(); n++ {
			v := s.Get(n)
			w.value(n, v)
			w.prev[n] = v
		}
		w.w.WriteString("$end\n")
		w.header, w.last = true, t
		return nil
	}
	if t <= w.last {
		return errors.Errorf("vcd: time %d not after %d", t, w.last)
	}
	if s.Len() != len(w.prev) {
		return errors.New("vcd: pin count changed after header")
	}
	w.last = t
	stamped := false
	for n := 0; n < s.Len(); n++ {
		v := s.Get(n)
		if v == w.prev[n] {
			continue
		}
		if !stamped {
			w.w.WriteString("#" + strconv.FormatUint(t, 10) + "\n")
			stamped = true
		}
		w.value(n, v)
		w.prev[n] = v
	}
	return nil
}

// Close flushes buffered data and closes the underlying writer. Subsequent
// calls do nothing.
//
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.w.Flush()
	if w.c != nil {
		if cerr := w.c.Close(); err == nil {
			err = cerr
		}
	}
	return errors.Wrap(err, "vcd")
}
