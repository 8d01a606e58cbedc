// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package frameio encodes captured frames and VRAM snapshots to image files.
//
package frameio

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Format is an image file format.
//
type Format int

// Supported formats.
//
const (
	PNG Format = iota
	BMP
	PPM // binary portable pixmap (P6)
	PGM // binary portable graymap (P5)
)

var formats = [...]string{PNG: "png", BMP: "bmp", PPM: "ppm", PGM: "pgm"}

func (f Format) String() string {
	if int(f) < len(formats) {
		return formats[f]
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the file name extension for f, including the leading dot.
//
func (f Format) Ext() string { return "." + f.String() }

// ParseFormat returns the format with the given name or file extension.
//
func ParseFormat(s string) (Format, error) {
	s = strings.TrimPrefix(strings.ToLower(s), ".")
	for i, n := range formats {
		if n == s {
			return Format(i), nil
		}
	}
	return 0, errors.Errorf("unknown image format %q", s)
}

// FormatOf returns the format matching the extension of a file name.
//
func FormatOf(name string) (Format, error) {
	return ParseFormat(filepath.Ext(name))
}

// Encode writes img to w in format f.
//
func Encode(w io.Writer, img image.Image, f Format) error {
	var err error
	switch f {
	case PNG:
		err = png.Encode(w, img)
	case BMP:
		err = bmp.Encode(w, img)
	case PPM:
		err = encodePNM(w, img, false)
	case PGM:
		err = encodePNM(w, img, true)
	default:
		return errors.Errorf("unsupported format %v", f)
	}
	return errors.Wrapf(err, "encode %v", f)
}

// encodePNM writes a binary P6 (color) or P5 (gray) image with maxval 255.
//
func encodePNM(w io.Writer, img image.Image, gray bool) error {
	b := img.Bounds()
	bw := bufio.NewWriter(w)
	magic := "P6"
	if gray {
		magic = "P5"
	}
	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n255\n", magic, b.Dx(), b.Dy()); err != nil {
		return err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if gray {
				// ITU-R 601 luma, as image/color.GrayModel
				bw.WriteByte(uint8((19595*r + 38470*g + 7471*bl + 1<<15) >> 24))
				continue
			}
			bw.WriteByte(uint8(r >> 8))
			bw.WriteByte(uint8(g >> 8))
			bw.WriteByte(uint8(bl >> 8))
		}
	}
	return bw.Flush()
}

// Scale returns img enlarged by an integer factor using nearest neighbour
// interpolation. A factor of 1 or less returns img unchanged.
//
func Scale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
