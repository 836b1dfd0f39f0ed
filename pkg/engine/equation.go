package engine

import (
	"math"

	"tspice/internal/consts"
	"tspice/pkg/expr"
	"tspice/pkg/linsys"
)

// equation is the shared shape of the seven closed device/topology
// equation kinds: fill writes one row of the assembled system at time t;
// update runs after the solve to advance any per-device integrator state.
// Variants with no state (everything but the capacitor and diode) leave
// update empty.
type equation interface {
	fill(s *linsys.Solver, row int, t float64)
	update(x []float64, dt float64)
}

// groundRefEq fixes the ground node's voltage to zero.
type groundRefEq struct {
	gndIdx int
}

func (e *groundRefEq) fill(s *linsys.Solver, row int, t float64) {
	s.SetCoef(row, e.gndIdx, 1)
	s.SetConstant(row, 0)
}
func (e *groundRefEq) update([]float64, float64) {}

// currentSign is one signed device-current term in a node's KCL row.
type currentSign struct {
	currentIdx int
	sign       float64
}

// nodeKCLEq enforces that the signed sum of device currents into a
// non-ground node is zero.
type nodeKCLEq struct {
	terms []currentSign
}

func (e *nodeKCLEq) fill(s *linsys.Solver, row int, t float64) {
	for _, term := range e.terms {
		s.SetCoef(row, term.currentIdx, term.sign)
	}
	s.SetConstant(row, 0)
}
func (e *nodeKCLEq) update([]float64, float64) {}

// sourceVEq pins V+ - V- to an expression evaluated at the current time.
type sourceVEq struct {
	plusIdx, minusIdx int
	voltage           expr.Expression
}

func (e *sourceVEq) fill(s *linsys.Solver, row int, t float64) {
	s.SetCoef(row, e.plusIdx, 1)
	s.SetCoef(row, e.minusIdx, -1)
	s.SetConstant(row, e.voltage.Eval(t))
}
func (e *sourceVEq) update([]float64, float64) {}

// resistorGEq is Ohm's law written as I - (V+ - V-)*G = 0.
type resistorGEq struct {
	currentIdx, plusIdx, minusIdx int
	conductance                   float64
}

func (e *resistorGEq) fill(s *linsys.Solver, row int, t float64) {
	s.SetCoef(row, e.currentIdx, 1)
	s.SetCoef(row, e.plusIdx, -e.conductance)
	s.SetCoef(row, e.minusIdx, e.conductance)
	s.SetConstant(row, 0)
}
func (e *resistorGEq) update([]float64, float64) {}

// capacitorCEq behaves, within a timestep, as a voltage source whose value
// is the voltage integrated from prior steps (backward-Euler companion
// model). stateVoltage advances after each solve using the just-solved
// branch current (forward-Euler on dV/dt = I/C).
type capacitorCEq struct {
	currentIdx, plusIdx, minusIdx int
	capacitance                   float64
	stateVoltage                  float64
}

func (e *capacitorCEq) fill(s *linsys.Solver, row int, t float64) {
	s.SetCoef(row, e.plusIdx, 1)
	s.SetCoef(row, e.minusIdx, -1)
	s.SetConstant(row, e.stateVoltage)
}

func (e *capacitorCEq) update(x []float64, dt float64) {
	i := x[e.currentIdx]
	e.stateVoltage += i * dt / e.capacitance
}

// diodeDEq behaves, within a timestep, as a resistor-plus-offset:
// I - G*(V+ - V-) = -G*Voff. G and Voff are re-linearized after each solve
// around the diode's just-solved terminal voltage (between-step
// linearization — there is deliberately no Newton iteration within a
// step).
type diodeDEq struct {
	currentIdx, plusIdx, minusIdx int
	stateG, stateVoff            float64
}

func (e *diodeDEq) fill(s *linsys.Solver, row int, t float64) {
	s.SetCoef(row, e.currentIdx, 1)
	s.SetCoef(row, e.plusIdx, -e.stateG)
	s.SetCoef(row, e.minusIdx, e.stateG)
	s.SetConstant(row, -e.stateVoff*e.stateG)
}

func (e *diodeDEq) update(x []float64, dt float64) {
	vd := x[e.plusIdx] - x[e.minusIdx]
	if vd <= 0 {
		e.stateG = consts.DiodeGmin
		e.stateVoff = 0
		return
	}

	vClamped := vd
	if vClamped > consts.DiodeForwardClamp {
		vClamped = consts.DiodeForwardClamp
	}

	expTerm := math.Exp(vClamped / consts.DiodeNVt)
	id := consts.DiodeIs * (expTerm - 1)
	didv := consts.DiodeIs / consts.DiodeNVt * expTerm

	e.stateG = didv
	e.stateVoff = vClamped - id/didv
}

// vcvsEq is an ideal voltage-controlled voltage source:
// (V+ - V-) - gain*(Vctrl+ - Vctrl-) = 0.
type vcvsEq struct {
	plusIdx, minusIdx, ctrlPlusIdx, ctrlMinusIdx int
	gain                                         float64
}

func (e *vcvsEq) fill(s *linsys.Solver, row int, t float64) {
	s.SetCoef(row, e.plusIdx, 1)
	s.SetCoef(row, e.minusIdx, -1)
	s.SetCoef(row, e.ctrlPlusIdx, -e.gain)
	s.SetCoef(row, e.ctrlMinusIdx, e.gain)
	s.SetConstant(row, 0)
}
func (e *vcvsEq) update([]float64, float64) {}
