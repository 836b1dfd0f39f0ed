// Package consts collects the physical and tuning constants shared by the
// device equations in pkg/engine.
package consts

const (
	CHARGE    = 1.6021918e-19 // Elementary charge (C)
	BOLTZMANN = 1.3806226e-23 // Boltzmann constant (J/K)
	KELVIN    = 273.15        // Kelvin temperature (K)
)

// Diode model constants, pinned to the values the circuits in this package
// were characterized against rather than derived per-temperature from
// CHARGE/BOLTZMANN. ThermalVoltage is kT/q at room temperature.
const (
	DiodeIs             = 1e-12   // Saturation current (A)
	DiodeIdealityFactor = 1.5     // n
	ThermalVoltage      = 0.025852
	DiodeNVt            = DiodeIdealityFactor * ThermalVoltage // n * Vt

	// DiodeGmin is the numerical floor placed on the linearized conductance
	// so the matrix stays well-conditioned when every diode in a netlist is
	// reverse-biased or off. It is a tunable, not a physical quantity.
	DiodeGmin = 1e-8

	// DiodeForwardClamp bounds the voltage used to evaluate the Shockley
	// exponential during the forward-bias linearization update, avoiding
	// IEEE overflow for large excursions between timesteps.
	DiodeForwardClamp = 0.8
)
