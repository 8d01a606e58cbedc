/*
Package cosim provides a deterministic co-simulation harness for clocked
hardware designs.

The design under test (DUT) is seen as a flat table of named pins. It is
described by a PartSpec whose Mount function resolves pin numbers through a
Socket and returns Components, closures evaluated against the signal table every
time the harness settles the design:

	dut := &cosim.PartSpec{
		Name:    "Echo",
		Inputs:  []string{cosim.PinData},
		Outputs: []string{cosim.PinDataOut},
		Mount: func(s *cosim.Socket) []cosim.Component {
			in, out := s.Pin(cosim.PinData), s.Pin(cosim.PinDataOut)
			return []cosim.Component{
				func(sig *cosim.Signals) { sig.Set(out, sig.Get(in)) },
			}
		}}

	sim, err := cosim.NewSim(cosim.DefaultConfig(), dut)

Time only advances through Sim.HalfCycle. Each half-cycle toggles the primary
clock, steps the derived clock and the latency pipelined memory model, evaluates
the DUT, dumps the trace and, once per full cycle, samples the video outputs
into the frame capture. Bus transactions (Sim.Write, Sim.Read) are sequenced in
half-cycle offsets computed from nanosecond timing constraints.

Replaying the same sequence of calls reproduces the same signal changes, memory
contents and frames.
*/
package cosim
