// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command cosim runs the VDP model in the co-simulation harness.
//
// Without a script, it runs a built-in SCREEN5 test sequence. Scripts ending in
// .lua are run as Lua programs, all others are replayed as CSV records.
//
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/db47h/cosim"
	"github.com/db47h/cosim/frameio"
	"github.com/db47h/cosim/script"
	"github.com/db47h/cosim/vcd"
	"github.com/db47h/cosim/vdp"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

type options struct {
	script     string
	cycles     int
	seed       int64
	vcd        string
	frames     string
	format     string
	scale      int
	maxFrames  int
	dump       int
	screen5    string
	gray       bool
	monitor    bool
	latency    int
	waitLimit  int
	contOnErr  bool
	verbose    bool
	vverbose   bool
	progressIv int
}

func parseFlags() *options {
	o := new(options)
	flag.StringVar(&o.script, "script", "", "CSV or Lua `file` to run instead of the built-in sequence")
	flag.IntVar(&o.cycles, "cycles", 2*frameCycles(vdp.DefaultConfig()), "full `cycles` to run after the sequence")
	flag.Int64Var(&o.seed, "seed", 1, "random seed of the built-in sequence")
	flag.StringVar(&o.vcd, "vcd", "", "write a VCD trace to `file`")
	flag.StringVar(&o.frames, "frames", "", "write captured frames to `dir`")
	flag.StringVar(&o.format, "format", "png", "frame image `format`: png, bmp, ppm or pgm")
	flag.IntVar(&o.scale, "scale", 1, "frame scaling `factor`")
	flag.IntVar(&o.maxFrames, "max-frames", 0, "maximum number of frames written, 0 for no limit")
	flag.IntVar(&o.dump, "dump", 16, "print the first `n` VRAM words on exit")
	flag.StringVar(&o.screen5, "screen5", "", "decode VRAM as a SCREEN5 bitmap to `file` on exit")
	flag.BoolVar(&o.gray, "gray", false, "decode SCREEN5 in gray levels instead of the palette")
	flag.BoolVar(&o.monitor, "monitor", false, "monitor memory requests without driving read data")
	flag.IntVar(&o.latency, "latency", cosim.DefaultMemoryLatency, "memory read latency in half-cycles")
	flag.IntVar(&o.waitLimit, "wait-limit", cosim.DefaultWaitLimit, "maximum half-cycles spent waiting for the DUT")
	flag.BoolVar(&o.contOnErr, "k", false, "keep going on bus timeouts and read mismatches")
	flag.BoolVar(&o.verbose, "v", false, "log bus, memory and frame events")
	flag.BoolVar(&o.vverbose, "vv", false, "log every half-cycle too")
	flag.Parse()
	o.verbose = o.verbose || o.vverbose
	o.progressIv = 100000
	return o
}

func frameCycles(c vdp.Config) int {
	return c.Geometry.HTotal * c.Geometry.VTotal * c.PixelDiv
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("cosim: ")
	o := parseFlags()
	if err := run(o); err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(o *options) error {
	cfg := cosim.DefaultConfig()
	cfg.MemoryLatency = o.latency
	cfg.WaitLimit = o.waitLimit
	cfg.Verbose = o.vverbose
	if o.monitor {
		cfg.MemoryMode = cosim.MemoryMonitor
	}

	dut, err := vdp.New(vdp.DefaultConfig())
	if err != nil {
		return err
	}

	var opts []cosim.Option
	if o.verbose {
		opts = append(opts, cosim.WithObserver(func(e cosim.Event) { log.Print(e) }))
	}
	var tw *vcd.Writer
	if o.vcd != "" {
		if tw, err = vcd.Create(o.vcd, "cartridge"); err != nil {
			return err
		}
		defer tw.Close()
		opts = append(opts, cosim.WithTrace(tw))
	}
	var fs *frameio.DirSink
	if o.frames != "" {
		f, err := frameio.ParseFormat(o.format)
		if err != nil {
			return err
		}
		if err = os.MkdirAll(o.frames, 0755); err != nil {
			return errors.Wrap(err, "frames")
		}
		fs = &frameio.DirSink{Dir: o.frames, Prefix: "frame", Format: f, Scale: o.scale, Max: o.maxFrames}
		opts = append(opts, cosim.WithFrameSink(fs))
	}

	s, err := cosim.NewSim(cfg, dut, opts...)
	if err != nil {
		return err
	}
	s.SetButton(0)
	s.SetDipSW(0)
	s.Reset(cosim.DefaultResetCycles)

	log.Print("wait initialization")
	if _, err = s.WaitReady(cfg.WaitLimit); err != nil {
		return err
	}

	switch {
	case o.script == "":
		err = demo(s, o.seed, o.contOnErr)
	case strings.EqualFold(filepath.Ext(o.script), ".lua"):
		err = runLua(s, o.script)
	default:
		err = runCSV(s, o.script, o.contOnErr)
	}
	if err != nil {
		s.Close()
		return err
	}

	runCycles(s, o.cycles, o.progressIv)

	st := s.Stats()
	if err = s.Close(); err != nil {
		return err
	}
	if tw != nil {
		if err = tw.Close(); err != nil {
			return err
		}
	}
	log.Printf("done at %dps: %d transactions, %d timeouts, %d memory reads, %d out of range, %d frames",
		s.Time(), st.Transactions, st.Timeouts, st.Reads, st.OutOfRange, st.Frames)
	if fs != nil {
		log.Printf("%d frames written to %s", fs.Written(), o.frames)
	}

	if o.dump > 0 {
		if err = s.Memory().Dump(os.Stdout, o.dump); err != nil {
			return errors.Wrap(err, "dump")
		}
	}
	if o.screen5 != "" {
		return writeScreen5(s, o.screen5, o.gray)
	}
	return nil
}

// runCycles runs n full cycles, printing progress when stderr is a terminal.
//
func runCycles(s *cosim.Sim, n, every int) {
	tty := term.IsTerminal(int(os.Stderr.Fd()))
	for i := 0; i < n; i++ {
		s.Cycle()
		if tty && i%every == 0 {
			fmt.Fprintf(os.Stderr, "\r%d/%d cycles, %d frames", i, n, s.Capture().Frames())
		}
	}
	if tty && n > 0 {
		fmt.Fprintln(os.Stderr)
	}
}

func runCSV(s *cosim.Sim, name string, cont bool) error {
	f, err := os.Open(name)
	if err != nil {
		return errors.Wrap(err, "script")
	}
	defer f.Close()
	p := &script.Player{
		T:                  s,
		ContinueOnTimeout:  cont,
		ContinueOnMismatch: cont,
		Info: func(line int, t uint64, msg string) {
			log.Printf("%s:%d: [%dps] %s", name, line, t, msg)
		},
	}
	err = p.Play(f)
	st := p.Stats()
	log.Printf("%s: %d records, %d writes, %d reads, %d timeouts, %d mismatches",
		name, st.Records, st.Writes, st.Reads, st.Timeouts, st.Mismatches)
	return errors.Wrap(err, name)
}

func runLua(s *cosim.Sim, name string) error {
	l := &script.Lua{
		T:    s,
		Mem:  s.Memory(),
		Info: func(t uint64, msg string) { log.Printf("%s: [%dps] %s", name, t, msg) },
	}
	return l.RunFile(name)
}

func writeScreen5(s *cosim.Sim, name string, gray bool) error {
	f, err := frameio.FormatOf(name)
	if err != nil {
		return err
	}
	vram := s.Memory().Bytes()
	if gray {
		img, err := frameio.Screen5Gray(vram, 0)
		if err != nil {
			return err
		}
		return frameio.WriteFile(name, img, f)
	}
	img, err := frameio.Screen5(vram, 0, vdp.Palette())
	if err != nil {
		return err
	}
	return frameio.WriteFile(name, img, f)
}
