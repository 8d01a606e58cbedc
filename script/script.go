// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package script drives a simulation from recorded test scripts.
//
// Two script flavours are supported: line oriented CSV records (see Player)
// and Lua programs (see Lua).
//
package script

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/db47h/cosim"
	"github.com/pkg/errors"
)

// Target is the simulation driven by a script. *cosim.Sim implements Target.
//
type Target interface {
	Write(addr uint16, data uint8) error
	Read(addr uint16) (uint8, error)
	WaitReady(limit int) (int, error)
	Cycles(n int)
	Time() uint64
}

// Stats counts the records played.
//
type Stats struct {
	Records    int
	Writes     int
	Reads      int
	Cycles     int
	Timeouts   int
	Mismatches int
}

// Player replays CSV records against a Target. Records are:
//
//	ADDRESS,port        set the port used by IO records without a port
//	IO,port,value       write value to port
//	IO,value            write value to the current port
//	READ,port[,expect]  read port, optionally checking the value read
//	CYCLE,n             run n full clock cycles
//	WAIT,limit          wait for the DUT to release its wait signal
//	INFO,text           pass text to the Info callback
//
// Numbers are decimal or 0x prefixed hexadecimal. Empty lines and lines
// starting with '#' are ignored.
//
type Player struct {
	T Target
	// Info, if not nil, is called for INFO records and read mismatches.
	Info func(line int, timePS uint64, msg string)
	// ContinueOnTimeout makes bus timeouts count in Stats instead of ending
	// the replay.
	ContinueOnTimeout bool
	// ContinueOnMismatch makes read mismatches count in Stats instead of
	// ending the replay.
	ContinueOnMismatch bool

	port  uint16
	stats Stats
}

// Stats returns the replay counters.
//
func (p *Player) Stats() Stats { return p.stats }

// LineError reports an error at a given script line.
//
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return "line " + strconv.Itoa(e.Line) + ": " + e.Err.Error() }

// Cause returns the underlying error.
//
func (e *LineError) Cause() error { return e.Err }

// Play replays all records read from r.
//
func (p *Player) Play(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			line := 0
			if pe, ok := err.(*csv.ParseError); ok {
				line = pe.StartLine
			}
			return &LineError{line, errors.Wrap(err, "parse")}
		}
		line, _ := cr.FieldPos(0)
		if err = p.exec(line, rec); err != nil {
			return &LineError{line, err}
		}
	}
}

func (p *Player) exec(line int, rec []string) error {
	op := strings.ToUpper(strings.TrimSpace(rec[0]))
	args := rec[1:]
	if op == "" {
		return nil
	}
	p.stats.Records++
	switch op {
	case "ADDRESS":
		if err := nargs(args, 1, 1); err != nil {
			return err
		}
		v, err := number(args[0], 0xffff)
		if err != nil {
			return err
		}
		p.port = uint16(v)
	case "IO":
		if err := nargs(args, 1, 2); err != nil {
			return err
		}
		port := p.port
		if len(args) == 2 {
			v, err := number(args[0], 0xffff)
			if err != nil {
				return err
			}
			port = uint16(v)
			args = args[1:]
		}
		v, err := number(args[0], 0xff)
		if err != nil {
			return err
		}
		p.stats.Writes++
		return p.timeout(p.T.Write(port, uint8(v)))
	case "READ":
		if err := nargs(args, 1, 2); err != nil {
			return err
		}
		port, err := number(args[0], 0xffff)
		if err != nil {
			return err
		}
		p.stats.Reads++
		v, err := p.T.Read(uint16(port))
		if err = p.timeout(err); err != nil {
			return err
		}
		if len(args) == 2 {
			ex, err := number(args[1], 0xff)
			if err != nil {
				return err
			}
			if uint64(v) != ex {
				p.stats.Mismatches++
				err = errors.Errorf("read port %#02x: expected %#02x, got %#02x", port, ex, v)
				if !p.ContinueOnMismatch {
					return err
				}
				p.info(line, err.Error())
			}
		}
	case "CYCLE":
		if err := nargs(args, 1, 1); err != nil {
			return err
		}
		n, err := number(args[0], 1<<31-1)
		if err != nil {
			return err
		}
		p.stats.Cycles += int(n)
		p.T.Cycles(int(n))
	case "WAIT":
		if err := nargs(args, 1, 1); err != nil {
			return err
		}
		n, err := number(args[0], 1<<31-1)
		if err != nil {
			return err
		}
		_, err = p.T.WaitReady(int(n))
		return p.timeout(err)
	case "INFO":
		p.info(line, strings.Join(args, ","))
	default:
		return errors.Errorf("unknown opcode %q", rec[0])
	}
	return nil
}

func (p *Player) timeout(err error) error {
	if err == nil {
		return nil
	}
	if cosim.IsTimeout(err) {
		p.stats.Timeouts++
		if p.ContinueOnTimeout {
			return nil
		}
	}
	return err
}

func (p *Player) info(line int, msg string) {
	if p.Info != nil {
		p.Info(line, p.T.Time(), msg)
	}
}

func nargs(args []string, min, max int) error {
	if len(args) < min || len(args) > max {
		return errors.Errorf("wrong number of arguments: %d", len(args))
	}
	return nil
}

func number(s string, max uint64) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, errors.Wrap(err, "invalid number")
	}
	if v > max {
		return 0, errors.Errorf("value %s out of range", s)
	}
	return v, nil
}
