// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrClosed is returned by bus operations on a closed simulation.
//
var ErrClosed = errors.New("simulation closed")

// ConfigError reports an invalid configuration. It is only returned at
// startup, never while stepping.
//
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Field + ": " + e.Reason
}

// ProtocolTimeoutError is returned when the DUT keeps the wait signal asserted
// for longer than the configured limit. The transaction has been abandoned and
// the bus released; the simulation can continue.
//
type ProtocolTimeoutError struct {
	Dir    Direction
	Addr   uint16
	Halves int // half-cycles spent waiting
}

func (e *ProtocolTimeoutError) Error() string {
	return fmt.Sprintf("%s 0x%02x: wait not released after %d half-cycles", e.Dir, e.Addr, e.Halves)
}

// IsTimeout returns true if the cause of err is a *ProtocolTimeoutError.
//
func IsTimeout(err error) bool {
	_, ok := errors.Cause(err).(*ProtocolTimeoutError)
	return ok
}

// IsConfig returns true if the cause of err is a *ConfigError.
//
func IsConfig(err error) bool {
	_, ok := errors.Cause(err).(*ConfigError)
	return ok
}
