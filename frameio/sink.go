// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package frameio

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/db47h/cosim"
	"github.com/pkg/errors"
)

// DirSink is a cosim.FrameSink writing each frame to its own file in Dir,
// named Prefix_NNNN.ext.
//
type DirSink struct {
	Dir    string
	Prefix string
	Format Format
	Scale  int
	// Maximum number of frames written, 0 for no limit. Frames past the limit
	// are dropped.
	Max int

	written int
}

// Frame implements cosim.FrameSink.
//
func (s *DirSink) Frame(f *cosim.Frame) error {
	if s.Max > 0 && s.written >= s.Max {
		return nil
	}
	name := filepath.Join(s.Dir, fmt.Sprintf("%s_%04d%s", s.Prefix, f.Number, s.Format.Ext()))
	if err := WriteFile(name, Scale(f.Image, s.Scale), s.Format); err != nil {
		return errors.Wrapf(err, "frame %d", f.Number)
	}
	s.written++
	return nil
}

// Written returns the number of files written.
//
func (s *DirSink) Written() int { return s.written }

// WriteFile encodes img to the named file.
//
func WriteFile(name string, img image.Image, f Format) error {
	out, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "frameio")
	}
	if err = Encode(out, img, f); err != nil {
		out.Close()
		return err
	}
	return errors.Wrap(out.Close(), name)
}
