package netlist

import "tspice/pkg/expr"

// Device is the closed set of circuit elements a Netlist can contain. Each
// concrete type carries its own name and terminals; Terminals reports them
// in the order the engine uses to derive both the node set and the sign of
// the device's current unknown in node KCL rows (the first entry gets +1,
// the second -1 — see pkg/engine).
type Device interface {
	DeviceName() string
	Terminals() []string
}

// TypeLetter returns the canonical first-character type tag a device's name
// must carry (§3 invariant v).
func TypeLetter(d Device) byte {
	switch d.(type) {
	case *VoltageSource:
		return 'V'
	case *Resistor:
		return 'R'
	case *Capacitor:
		return 'C'
	case *Diode:
		return 'D'
	case *VCVS:
		return 'E'
	default:
		return 0
	}
}

// VoltageSource drives Plus - Minus to Voltage(t).
type VoltageSource struct {
	Name         string
	Plus, Minus  string
	Voltage      expr.Expression
}

func (v *VoltageSource) DeviceName() string { return v.Name }
func (v *VoltageSource) Terminals() []string { return []string{v.Plus, v.Minus} }

// Resistor relates Plus/Minus voltage and current by Ohm's law.
type Resistor struct {
	Name        string
	Plus, Minus string
	Resistance  float64
}

func (r *Resistor) DeviceName() string { return r.Name }

// Terminals orders minus before plus: this is the order the node set and
// the KCL sign rule use, independent of the (plus, minus) order the
// constitutive equation itself uses.
func (r *Resistor) Terminals() []string { return []string{r.Minus, r.Plus} }

// Capacitor is driven as a companion voltage source during transient
// stepping; see pkg/engine's capacitorCEq.
type Capacitor struct {
	Name        string
	Plus, Minus string
	Capacitance float64
}

func (c *Capacitor) DeviceName() string  { return c.Name }
func (c *Capacitor) Terminals() []string { return []string{c.Minus, c.Plus} }

// Diode is anode (Plus) to cathode (Minus), linearized between timesteps.
type Diode struct {
	Name        string
	Plus, Minus string
}

func (d *Diode) DeviceName() string  { return d.Name }
func (d *Diode) Terminals() []string { return []string{d.Minus, d.Plus} }

// VCVS is an ideal voltage-controlled voltage source: Plus - Minus =
// Gain * (CtrlPlus - CtrlMinus). Its control terminals draw no current, so
// they never appear in a KCL sign entry (only Terminals()[0] and
// Terminals()[1] do).
type VCVS struct {
	Name                           string
	Plus, Minus                    string
	CtrlPlus, CtrlMinus            string
	Gain                           float64
}

func (e *VCVS) DeviceName() string { return e.Name }
func (e *VCVS) Terminals() []string {
	return []string{e.Plus, e.Minus, e.CtrlPlus, e.CtrlMinus}
}
