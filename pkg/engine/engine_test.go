package engine

import (
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tspice/pkg/netlist"
)

func compileSrc(t *testing.T, src string) *Engine {
	t.Helper()
	nl, err := netlist.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e, err := Compile(nl)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return e
}

func TestVoltageDivider(t *testing.T) {
	e := compileSrc(t, "V1 1 GND 1\nR1 1 2 1000\nR2 2 GND 1000\nR3 2 GND 500\n")
	series, err := e.Simulate(1e-3, 3)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k < 3; k++ {
		if got := series["V_1"][k]; math.Abs(got-1.0) > 1e-9 {
			t.Fatalf("V_1[%d] = %v, want 1.0", k, got)
		}
		if got := series["V_2"][k]; math.Abs(got-0.25) > 1e-9 {
			t.Fatalf("V_2[%d] = %v, want 0.25", k, got)
		}
	}
}

func TestVCVSGain(t *testing.T) {
	e := compileSrc(t, "V1 1 GND 2\nR1 1 GND 1000\nE1 3 GND 1 GND 5\nR2 3 GND 1000\n")
	series, err := e.Simulate(1e-3, 2)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k < 2; k++ {
		if got := series["V_3"][k]; math.Abs(got-10.0) > 1e-9 {
			t.Fatalf("V_3[%d] = %v, want 10.0", k, got)
		}
	}
}

func TestGroundVoltageAlwaysZero(t *testing.T) {
	e := compileSrc(t, "V1 1 GND 1\nR1 1 GND 1000\n")
	series, err := e.Simulate(1e-3, 5)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range series["V_"+netlist.GroundName] {
		if v != 0 {
			t.Fatalf("V_%s[%d] = %v, want exactly 0", netlist.GroundName, k, v)
		}
	}
}

func TestResistorOhmsLawHoldsExactly(t *testing.T) {
	e := compileSrc(t, "V1 1 GND 2\nR1 1 GND 500\n")
	series, err := e.Simulate(1e-3, 4)
	if err != nil {
		t.Fatal(err)
	}
	for k := range series["I_R1"] {
		v1 := series["V_1"][k]
		i := series["I_R1"][k]
		want := v1 / 500
		if math.Abs(i-want) > 1e-12 {
			t.Fatalf("I_R1[%d] = %v, want %v", k, i, want)
		}
	}
}

func TestNodeKCLSumsToZero(t *testing.T) {
	e := compileSrc(t, "V1 1 GND 1\nR1 1 2 1000\nR2 2 GND 1000\nR3 2 GND 500\n")
	series, err := e.Simulate(1e-3, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Node 2 has R1's current flowing in and R2/R3's flowing out.
	sum := series["I_R1"][0] - series["I_R2"][0] - series["I_R3"][0]
	if math.Abs(sum) > 1e-9 {
		t.Fatalf("KCL residual at node 2 = %v, want ~0", sum)
	}
}

func TestRCLowPassStepResponse(t *testing.T) {
	e := compileSrc(t, "V1 1 GND 1\nR1 1 2 1000\nC3 2 GND 5e-5\n")
	dt := 1.0 / 48000.0
	steps := 1000
	series, err := e.Simulate(dt, steps)
	if err != nil {
		t.Fatal(err)
	}
	tau := 1000.0 * 5e-5
	n := float64(steps)
	want := 1 - math.Exp(-n*dt/tau)
	got := series["V_2"][steps-1]
	if math.Abs(got-want) > 0.01 {
		t.Fatalf("V_2 final = %v, want ~%v", got, want)
	}
}

func TestDiodeClampSettlesNearForwardVoltage(t *testing.T) {
	e := compileSrc(t, "V1 1 GND 2\nR1 1 2 1000\nD1 2 GND\n")
	series, err := e.Simulate(1e-4, 2000)
	if err != nil {
		t.Fatal(err)
	}
	final := series["V_2"][len(series["V_2"])-1]
	if final < 0.75 || final > 0.85 {
		t.Fatalf("V_2 final = %v, want within [0.75, 0.85]", final)
	}
}

func TestDiodeOffRegionInvariant(t *testing.T) {
	e := compileSrc(t, "V1 GND 1 2\nR1 1 2 1000\nD1 2 GND\n")
	_, err := e.Simulate(1e-4, 5)
	if err != nil {
		t.Fatal(err)
	}
	d := e.equations[len(e.equations)-1].(*diodeDEq)
	if d.stateG != 1e-8 || d.stateVoff != 0 {
		t.Fatalf("reverse-biased diode state = (%v, %v), want (1e-8, 0)", d.stateG, d.stateVoff)
	}
}

func TestSineSourceScalingConvention(t *testing.T) {
	e := compileSrc(t, "V1 1 GND sin(48000)\nR1 1 GND 1000\n")
	dt := 1.0 / 48000.0
	steps := 10
	series, err := e.Simulate(dt, steps)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k < steps; k++ {
		want := math.Sin(float64(k) * (1.0 / (2 * math.Pi)))
		if got := series["V_1"][k]; math.Abs(got-want) > 1e-9 {
			t.Fatalf("V_1[%d] = %v, want %v", k, got, want)
		}
	}
}

func TestUnknownSetMatchesDeviceAndNodeNames(t *testing.T) {
	e := compileSrc(t, "V1 1 GND 1\nR1 1 2 1000\nR2 2 GND 1000\n")
	got := e.solver.Names()
	sort.Strings(got)
	want := []string{"I_R1", "I_R2", "I_V1", "V_0", "V_1", "V_2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unknown set mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownCountEqualsEquationCount(t *testing.T) {
	e := compileSrc(t, "V1 1 GND 1\nR1 1 2 1000\nR2 2 GND 1000\nC3 2 GND 1e-5\nD1 2 GND\n")
	if e.solver.N() != len(e.equations) {
		t.Fatalf("N() = %d, equations = %d", e.solver.N(), len(e.equations))
	}
}

func TestDeterminism(t *testing.T) {
	src := "V1 1 GND sin(100)\nR1 1 2 1000\nC3 2 GND 1e-5\n"
	e1 := compileSrc(t, src)
	e2 := compileSrc(t, src)
	s1, err := e1.Simulate(1e-4, 50)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := e2.Simulate(1e-4, 50)
	if err != nil {
		t.Fatal(err)
	}
	for name, vs := range s1 {
		for k, v := range vs {
			if v != s2[name][k] {
				t.Fatalf("%s[%d] diverged: %v vs %v", name, k, v, s2[name][k])
			}
		}
	}
}

func TestContinuationLaw(t *testing.T) {
	src := "V1 1 GND sin(100)\nR1 1 2 1000\nC3 2 GND 1e-5\n"
	dt := 1e-4

	whole := compileSrc(t, src)
	wholeSeries, err := whole.Simulate(dt, 10)
	if err != nil {
		t.Fatal(err)
	}

	split := compileSrc(t, src)
	first, err := split.Simulate(dt, 4)
	if err != nil {
		t.Fatal(err)
	}
	second, err := split.Simulate(dt, 6)
	if err != nil {
		t.Fatal(err)
	}

	for name, vs := range wholeSeries {
		for k := 0; k < 4; k++ {
			if vs[k] != first[name][k] {
				t.Fatalf("%s[%d]: whole %v != split-first %v", name, k, vs[k], first[name][k])
			}
		}
		for k := 0; k < 6; k++ {
			if vs[4+k] != second[name][k] {
				t.Fatalf("%s[%d]: whole %v != split-second %v", name, 4+k, vs[4+k], second[name][k])
			}
		}
	}
}

func TestScalingLaw(t *testing.T) {
	base := compileSrc(t, "V1 1 GND 1\nR1 1 2 1000\nR2 2 GND 1000\n")
	scaled := compileSrc(t, "V1 1 GND 3\nR1 1 2 3000\nR2 2 GND 3000\n")

	baseSeries, err := base.Simulate(1e-3, 3)
	if err != nil {
		t.Fatal(err)
	}
	scaledSeries, err := scaled.Simulate(1e-3, 3)
	if err != nil {
		t.Fatal(err)
	}

	for k := 0; k < 3; k++ {
		if math.Abs(scaledSeries["V_2"][k]-3*baseSeries["V_2"][k]) > 1e-9 {
			t.Fatalf("voltage did not scale by alpha at step %d", k)
		}
		if math.Abs(scaledSeries["I_R1"][k]-baseSeries["I_R1"][k]) > 1e-9 {
			t.Fatalf("current should be scale-invariant at step %d", k)
		}
	}
}

func TestSingularSystemTransitionsToFailed(t *testing.T) {
	// Two VCVS rows pinning the same node pair to contradictory voltages
	// makes the assembled system singular.
	e := compileSrc(t, "V1 1 GND 1\nE1 2 GND 1 GND 1\nE2 2 GND 1 GND 2\nR1 2 GND 1000\n")
	_, err := e.Simulate(1e-3, 1)
	if err == nil {
		t.Fatal("expected singular system error")
	}
	if _, ok := err.(*SingularSystemError); !ok {
		t.Fatalf("got %T, want *SingularSystemError", err)
	}
	if e.State() != Failed {
		t.Fatalf("State() = %v, want Failed", e.State())
	}
}
