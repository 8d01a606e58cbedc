// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"image"
	"image/color"
)

// A Frame is a finalized video frame.
//
type Frame struct {
	Number int
	Image  *image.NRGBA
}

// A FrameSink receives finalized frames. The frame image is not reused by the
// capture once handed to the sink.
//
type FrameSink interface {
	Frame(f *Frame) error
}

// FrameSinkFunc adapts a function to the FrameSink interface.
//
type FrameSinkFunc func(f *Frame) error

// Frame calls fn(f).
//
func (fn FrameSinkFunc) Frame(f *Frame) error { return fn(f) }

type sample struct {
	x, y    int
	r, g, b uint8
}

// FrameCapture assembles frames from a stream of video samples. The frame size
// is not known in advance: the cursor advances on every active sample and
// moves to the next line on the trailing edge of the enable signal. A frame
// ends on the falling edge of the sync signal.
//
type FrameCapture struct {
	div   int
	phase int
	sink  FrameSink

	px         []sample
	x, y       int
	maxX, maxY int
	number     int

	prevSync, prevEn bool

	errs uint64
	err  error
}

// NewFrameCapture returns a capture processing one out of every divisor calls
// to Sample. sink may be nil, in which case frames are counted and dropped.
//
func NewFrameCapture(divisor int, sink FrameSink) *FrameCapture {
	if divisor < 1 {
		divisor = 1
	}
	return &FrameCapture{div: divisor, sink: sink}
}

// Sample feeds one video sample. It returns the finalized frame, if any.
//
func (fc *FrameCapture) Sample(sync, enable bool, r, g, b uint8) *Frame {
	fc.phase++
	if fc.phase < fc.div {
		return nil
	}
	fc.phase = 0

	var f *Frame
	if fc.prevSync && !sync {
		f = fc.Finalize()
	}
	fc.prevSync = sync

	if enable {
		fc.px = append(fc.px, sample{fc.x, fc.y, r, g, b})
		if fc.x > fc.maxX {
			fc.maxX = fc.x
		}
		if fc.y > fc.maxY {
			fc.maxY = fc.y
		}
		fc.x++
	} else if fc.prevEn && fc.x > 0 {
		fc.x = 0
		fc.y++
	}
	fc.prevEn = enable
	return f
}

// Finalize converts the accumulated samples into a frame and hands it to the
// sink, then resets the accumulator. It returns nil and does nothing if no
// sample was accumulated.
//
func (fc *FrameCapture) Finalize() *Frame {
	if len(fc.px) > 0 {
		img := image.NewNRGBA(image.Rect(0, 0, fc.maxX+1, fc.maxY+1))
		for _, s := range fc.px {
			img.SetNRGBA(s.x, s.y, color.NRGBA{R: s.r, G: s.g, B: s.b, A: 0xff})
		}
		f := &Frame{Number: fc.number, Image: img}
		fc.number++
		fc.reset()
		if fc.sink != nil {
			if err := fc.sink.Frame(f); err != nil {
				fc.errs++
				if fc.err == nil {
					fc.err = err
				}
			}
		}
		return f
	}
	fc.reset()
	return nil
}

func (fc *FrameCapture) reset() {
	fc.px = fc.px[:0]
	fc.x, fc.y = 0, 0
	fc.maxX, fc.maxY = 0, 0
}

// Frames returns the number of frames finalized so far.
//
func (fc *FrameCapture) Frames() int { return fc.number }

// Pending returns the number of samples accumulated for the current frame.
//
func (fc *FrameCapture) Pending() int { return len(fc.px) }

// Err returns the first error returned by the sink.
//
func (fc *FrameCapture) Err() error { return fc.err }

// SinkErrors returns the number of errors returned by the sink.
//
func (fc *FrameCapture) SinkErrors() uint64 { return fc.errs }
