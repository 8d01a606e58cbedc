// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package frameio

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// SCREEN5 bitmap geometry: 4 bits per pixel, two pixels per byte, left pixel
// in the high nibble.
//
const (
	Screen5Width  = 256
	Screen5Height = 212
)

// Screen5Gray decodes a SCREEN5 bitmap starting at byte offset base of vram
// into a grey scale image, mapping color index i to grey level i*17.
//
func Screen5Gray(vram []byte, base int) (*image.Gray, error) {
	const lineBytes = Screen5Width / 2
	if base < 0 || len(vram) < base+lineBytes*Screen5Height {
		return nil, errors.Errorf("VRAM too small for a SCREEN5 bitmap at %#x: %d bytes", base, len(vram))
	}
	img := image.NewGray(image.Rect(0, 0, Screen5Width, Screen5Height))
	for y := 0; y < Screen5Height; y++ {
		line := vram[base+y*lineBytes : base+(y+1)*lineBytes]
		for i, b := range line {
			img.SetGray(2*i, y, color.Gray{Y: (b >> 4) * 17})
			img.SetGray(2*i+1, y, color.Gray{Y: (b & 0xf) * 17})
		}
	}
	return img, nil
}

// Screen5 decodes a SCREEN5 bitmap using the given 16 color palette.
//
func Screen5(vram []byte, base int, pal [16][3]uint8) (*image.NRGBA, error) {
	g, err := Screen5Gray(vram, base)
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(g.Rect)
	for i, y := range g.Pix {
		c := pal[y/17]
		img.Pix[4*i], img.Pix[4*i+1], img.Pix[4*i+2], img.Pix[4*i+3] = c[0], c[1], c[2], 0xff
	}
	return img, nil
}
