// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package script

import (
	"github.com/db47h/cosim"
	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"
)

// Memory gives Lua scripts access to the backing store of the memory model.
// *cosim.Memory implements Memory.
//
type Memory interface {
	Peek(addr uint32) uint32
	Poke(addr, data uint32, mask uint8)
}

// Lua runs Lua test programs against a Target. The following globals are
// available to scripts:
//
//	write_io(port, value)     write value to port; returns true, or false and
//	                          a message on bus timeout
//	read_io(port)             read port; returns the value, or nil and a
//	                          message on bus timeout
//	cycle(n)                  run n full clock cycles
//	wait_ready(limit)         wait for the DUT to release its wait signal;
//	                          returns the number of half-cycles waited
//	time()                    simulation time in ps
//	info(...)                 pass the arguments, joined by spaces, to Info
//	peek(addr)                read a word of the memory model
//	poke(addr, v[, mask])     write a word of the memory model, with an
//	                          optional byte enable mask
//
type Lua struct {
	T   Target
	Mem Memory // may be nil
	// Info, if not nil, is called by the info function.
	Info func(timePS uint64, msg string)

	stats Stats
}

// Stats returns the counters of operations run by scripts.
//
func (l *Lua) Stats() Stats { return l.stats }

// RunFile runs the named Lua file.
//
func (l *Lua) RunFile(name string) error {
	L := l.newState()
	defer L.Close()
	return errors.Wrap(L.DoFile(name), "lua")
}

// RunString runs Lua source code.
//
func (l *Lua) RunString(src string) error {
	L := l.newState()
	defer L.Close()
	return errors.Wrap(L.DoString(src), "lua")
}

func (l *Lua) newState() *lua.LState {
	L := lua.NewState()
	for name, fn := range map[string]lua.LGFunction{
		"write_io":   l.writeIO,
		"read_io":    l.readIO,
		"cycle":      l.cycle,
		"wait_ready": l.waitReady,
		"time":       l.time,
		"info":       l.info,
		"peek":       l.peek,
		"poke":       l.poke,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	return L
}

// fail returns nil (or false) and the error message to the script for
// recoverable errors and raises all others.
//
func (l *Lua) fail(L *lua.LState, err error, nilValue lua.LValue) int {
	if !cosim.IsTimeout(err) {
		L.RaiseError("%v", err)
		return 0
	}
	l.stats.Timeouts++
	L.Push(nilValue)
	L.Push(lua.LString(err.Error()))
	return 2
}

func (l *Lua) writeIO(L *lua.LState) int {
	port := L.CheckInt(1)
	v := L.CheckInt(2)
	if port < 0 || port > 0xffff || v < 0 || v > 0xff {
		L.ArgError(1, "port or value out of range")
		return 0
	}
	l.stats.Records++
	l.stats.Writes++
	if err := l.T.Write(uint16(port), uint8(v)); err != nil {
		return l.fail(L, err, lua.LFalse)
	}
	L.Push(lua.LTrue)
	return 1
}

func (l *Lua) readIO(L *lua.LState) int {
	port := L.CheckInt(1)
	if port < 0 || port > 0xffff {
		L.ArgError(1, "port out of range")
		return 0
	}
	l.stats.Records++
	l.stats.Reads++
	v, err := l.T.Read(uint16(port))
	if err != nil {
		return l.fail(L, err, lua.LNil)
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (l *Lua) cycle(L *lua.LState) int {
	n := L.OptInt(1, 1)
	if n < 0 {
		L.ArgError(1, "negative cycle count")
		return 0
	}
	l.stats.Records++
	l.stats.Cycles += n
	l.T.Cycles(n)
	return 0
}

func (l *Lua) waitReady(L *lua.LState) int {
	limit := L.CheckInt(1)
	l.stats.Records++
	n, err := l.T.WaitReady(limit)
	if err != nil {
		return l.fail(L, err, lua.LNil)
	}
	L.Push(lua.LNumber(n))
	return 1
}

func (l *Lua) time(L *lua.LState) int {
	L.Push(lua.LNumber(l.T.Time()))
	return 1
}

func (l *Lua) info(L *lua.LState) int {
	var msg string
	for i := 1; i <= L.GetTop(); i++ {
		if i > 1 {
			msg += " "
		}
		msg += L.ToStringMeta(L.Get(i)).String()
	}
	if l.Info != nil {
		l.Info(l.T.Time(), msg)
	}
	return 0
}

func (l *Lua) peek(L *lua.LState) int {
	if l.Mem == nil {
		L.RaiseError("no memory model")
		return 0
	}
	L.Push(lua.LNumber(l.Mem.Peek(uint32(L.CheckInt64(1)))))
	return 1
}

func (l *Lua) poke(L *lua.LState) int {
	if l.Mem == nil {
		L.RaiseError("no memory model")
		return 0
	}
	l.Mem.Poke(uint32(L.CheckInt64(1)), uint32(L.CheckInt64(2)), uint8(L.OptInt(3, 0)))
	return 0
}
