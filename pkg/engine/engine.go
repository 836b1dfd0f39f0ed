// Package engine compiles a netlist into a fixed set of named unknowns and
// equations, then advances simulation time in fixed steps, producing a
// named time series per unknown.
package engine

import (
	"fmt"
	"math"

	"tspice/internal/consts"
	"tspice/pkg/linsys"
	"tspice/pkg/netlist"
)

// State is the engine's lifecycle position.
type State int

const (
	// Constructed is the state immediately after Compile, before any
	// simulate call.
	Constructed State = iota
	// Running means the most recent simulate call succeeded; Time reports
	// the clock position it left behind.
	Running
	// Failed means a simulate call hit a singular system; the engine
	// will not step further.
	Failed
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "Constructed"
	case Running:
		return "Running"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// SingularSystemError reports that LU factorization failed at a given
// simulation time. It is the only error Simulate returns on an Engine
// that has not already Failed; a Simulate call on a Failed engine returns
// a plain error instead.
type SingularSystemError struct {
	Time float64
}

func (e *SingularSystemError) Error() string {
	return fmt.Sprintf("engine: singular system at t=%g", e.Time)
}

// Engine owns the compiled equation list and variable table derived from a
// netlist, plus the mutable simulation clock. It is not safe for
// concurrent use; independent Engines share nothing and may run on
// separate goroutines freely.
type Engine struct {
	solver    *linsys.Solver
	equations []equation

	state State
	time  float64
}

// Compile lowers a netlist into unknowns and equations, in the order fixed
// by the data model: ground reference, then one KCL row per non-ground
// node, then one constitutive-equation row per device in netlist order.
// This ordering guarantees unknown_count == equation_count by
// construction.
func Compile(nl *netlist.Netlist) (*Engine, error) {
	b := linsys.NewBuilder()
	nodes := nl.Nodes()
	gnd := nodes[0]

	gndIdx := b.Intern("V_" + gnd)
	var equations []equation

	b.ReserveRow()
	equations = append(equations, &groundRefEq{gndIdx: gndIdx})

	// nodeCurrents collects each non-ground node's signed device-current
	// terms before a KCL row is reserved for it.
	nodeCurrents := make(map[string][]currentSign, len(nodes))
	for _, n := range nodes[1:] {
		nodeCurrents[n] = nil
	}

	for _, d := range nl.Devices() {
		terms := d.Terminals()
		if len(terms) < 2 {
			continue
		}
		currentIdx := b.Intern("I_" + d.DeviceName())

		// Sign convention: the first-listed terminal contributes +1, the
		// second -1, regardless of which electrical polarity that terminal
		// represents for this device kind (see Device.Terminals doc).
		first, second := terms[0], terms[1]
		if first != gnd {
			nodeCurrents[first] = append(nodeCurrents[first], currentSign{currentIdx, +1})
		}
		if second != gnd {
			nodeCurrents[second] = append(nodeCurrents[second], currentSign{currentIdx, -1})
		}
	}

	for _, n := range nodes[1:] {
		b.ReserveRow()
		equations = append(equations, &nodeKCLEq{terms: nodeCurrents[n]})
	}

	for _, d := range nl.Devices() {
		switch dev := d.(type) {
		case *netlist.VoltageSource:
			plusIdx := b.Intern("V_" + dev.Plus)
			minusIdx := b.Intern("V_" + dev.Minus)
			b.ReserveRow()
			equations = append(equations, &sourceVEq{plusIdx: plusIdx, minusIdx: minusIdx, voltage: dev.Voltage})

		case *netlist.Resistor:
			currentIdx := b.Intern("I_" + dev.Name)
			plusIdx := b.Intern("V_" + dev.Plus)
			minusIdx := b.Intern("V_" + dev.Minus)
			b.ReserveRow()
			equations = append(equations, &resistorGEq{
				currentIdx: currentIdx, plusIdx: plusIdx, minusIdx: minusIdx,
				conductance: 1 / dev.Resistance,
			})

		case *netlist.Capacitor:
			currentIdx := b.Intern("I_" + dev.Name)
			plusIdx := b.Intern("V_" + dev.Plus)
			minusIdx := b.Intern("V_" + dev.Minus)
			b.ReserveRow()
			equations = append(equations, &capacitorCEq{
				currentIdx: currentIdx, plusIdx: plusIdx, minusIdx: minusIdx,
				capacitance: dev.Capacitance, stateVoltage: 0,
			})

		case *netlist.Diode:
			currentIdx := b.Intern("I_" + dev.Name)
			plusIdx := b.Intern("V_" + dev.Plus)
			minusIdx := b.Intern("V_" + dev.Minus)
			b.ReserveRow()
			equations = append(equations, &diodeDEq{
				currentIdx: currentIdx, plusIdx: plusIdx, minusIdx: minusIdx,
				stateG: consts.DiodeGmin, stateVoff: 0,
			})

		case *netlist.VCVS:
			plusIdx := b.Intern("V_" + dev.Plus)
			minusIdx := b.Intern("V_" + dev.Minus)
			ctrlPlusIdx := b.Intern("V_" + dev.CtrlPlus)
			ctrlMinusIdx := b.Intern("V_" + dev.CtrlMinus)
			b.ReserveRow()
			equations = append(equations, &vcvsEq{
				plusIdx: plusIdx, minusIdx: minusIdx,
				ctrlPlusIdx: ctrlPlusIdx, ctrlMinusIdx: ctrlMinusIdx,
				gain: dev.Gain,
			})

		default:
			return nil, fmt.Errorf("engine: unknown device type %T", dev)
		}
	}

	return &Engine{solver: b.Build(), equations: equations, state: Constructed}, nil
}

// State reports the engine's current lifecycle position.
func (e *Engine) State() State { return e.state }

// Time reports the engine's internal clock.
func (e *Engine) Time() float64 { return e.time }

// DebugSystem assembles every equation's row at time t and renders the
// resulting system without solving it or mutating any device state, for
// diagnostics.
func (e *Engine) DebugSystem(t float64) string {
	for row, eq := range e.equations {
		eq.fill(e.solver, row, t)
	}
	return e.solver.DebugString()
}

// Simulate advances the engine by steps fixed-size timesteps of size dt,
// assembling and solving the system once per step and then running each
// equation's post-solve state update. On success it returns a mapping from
// unknown name to its steps-long value series and advances the internal
// clock by steps*dt. On a singular solve it transitions to Failed and
// returns a SingularSystemError carrying the failing time; the clock is
// left at the position it had when the call began.
func (e *Engine) Simulate(dt float64, steps int) (map[string][]float64, error) {
	if e.state == Failed {
		return nil, fmt.Errorf("engine: cannot simulate: engine has failed")
	}

	names := e.solver.Names()
	series := make(map[string][]float64, len(names))
	for _, name := range names {
		series[name] = make([]float64, 0, steps)
	}

	t0 := e.time
	// When the clock sits exactly on a multiple of dt, step times are
	// computed as (n0+k)*dt, so consecutive calls with the same dt produce
	// bit for bit the step times of one longer call.
	n0 := math.Round(t0 / dt)
	onGrid := n0*dt == t0
	stepTime := func(k int) float64 {
		if onGrid {
			return (n0 + float64(k)) * dt
		}
		return t0 + float64(k)*dt
	}
	for k := 0; k < steps; k++ {
		t := stepTime(k)

		for row, eq := range e.equations {
			eq.fill(e.solver, row, t)
		}

		x, ok := e.solver.Solve()
		if !ok {
			e.state = Failed
			return nil, &SingularSystemError{Time: t}
		}

		for _, eq := range e.equations {
			eq.update(x, dt)
		}

		for i, name := range names {
			series[name] = append(series[name], x[i])
		}
	}

	e.time = stepTime(steps)
	e.state = Running
	return series, nil
}
