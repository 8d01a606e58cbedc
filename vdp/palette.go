// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vdp

// rgb is a palette entry with 3 bits per channel.
type rgb struct {
	r, g, b uint8
}

// expand returns the 8 bits per channel color.
func (c rgb) expand() (r, g, b uint8) {
	x := func(v uint8) uint8 { return uint8(uint16(v) * 255 / 7) }
	return x(c.r), x(c.g), x(c.b)
}

// MSX2 power-on palette.
var defaultPalette = [16]rgb{
	{0, 0, 0}, {0, 0, 0}, {1, 6, 1}, {3, 7, 3},
	{1, 1, 7}, {2, 3, 7}, {5, 1, 1}, {2, 6, 7},
	{7, 1, 1}, {7, 3, 3}, {6, 6, 1}, {6, 6, 4},
	{1, 4, 1}, {6, 2, 5}, {5, 5, 5}, {7, 7, 7},
}

// Palette returns the 8 bits per channel power-on palette.
//
func Palette() [16][3]uint8 {
	var p [16][3]uint8
	for i, c := range defaultPalette {
		p[i][0], p[i][1], p[i][2] = c.expand()
	}
	return p
}
