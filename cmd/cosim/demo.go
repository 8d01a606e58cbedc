// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"log"
	"math/rand"

	"github.com/db47h/cosim"
	"github.com/db47h/cosim/vdp"
)

// demo sets up SCREEN5, fills the first 4KB of VRAM with a byte ramp, with
// random delays between writes, then loads the sprite attribute table.
//
func demo(s *cosim.Sim, seed int64, cont bool) error {
	const (
		io0 = vdp.DefaultPortBase
		io1 = vdp.DefaultPortBase + 1
	)
	rnd := rand.New(rand.NewSource(seed))
	write := func(port uint16, v uint8) error {
		err := s.Write(port, v)
		if cont && cosim.IsTimeout(err) {
			log.Print(err)
			return nil
		}
		return err
	}
	reg := func(r, v uint8) error {
		if err := write(io1, v); err != nil {
			return err
		}
		return write(io1, 0x80|r)
	}

	for _, rv := range [][2]uint8{
		{0, 0x06}, {1, 0x40}, {2, 0x1f}, {5, 0xef}, {6, 0x0f},
		{8, 0x08}, {11, 0x00}, {20, 0x00}, {21, 0x00},
	} {
		if err := reg(rv[0], rv[1]); err != nil {
			return err
		}
	}

	log.Print("write VRAM")
	if err := reg(14, 0x00); err != nil {
		return err
	}
	if err := write(io1, 0x00); err != nil {
		return err
	}
	if err := write(io1, 0x40); err != nil {
		return err
	}
	for i := 0; i < 128*32; i++ {
		if err := write(io0, uint8(i)); err != nil {
			return err
		}
		s.Cycles(rnd.Intn(40))
	}

	if err := reg(14, 0x01); err != nil {
		return err
	}
	if err := write(io1, 0x00); err != nil {
		return err
	}
	if err := write(io1, 0x76); err != nil {
		return err
	}
	for _, b := range []uint8{
		0x00, 0x00, 0x04, 0x0f,
		0x00, 0x20, 0x04, 0x0f,
		0x00, 0x40, 0x04, 0x0f,
		0x00, 0x60, 0x04, 0x0f,
	} {
		if err := write(io0, b); err != nil {
			return err
		}
	}
	s.Cycles(100)
	return nil
}
