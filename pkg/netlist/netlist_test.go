package netlist

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for empty device list")
	}
}

func TestNewRequiresGround(t *testing.T) {
	devices := []Device{
		&Resistor{Name: "R1", Plus: "1", Minus: "2", Resistance: 1000},
	}
	if _, err := New(devices); err == nil {
		t.Fatal("expected error when no device touches ground")
	}
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	devices := []Device{
		&Resistor{Name: "R1", Plus: "1", Minus: GroundName, Resistance: 1000},
		&Resistor{Name: "R1", Plus: "1", Minus: GroundName, Resistance: 500},
	}
	if _, err := New(devices); err == nil {
		t.Fatal("expected error for duplicate device name")
	}
}

func TestNewRejectsNameNodeCollision(t *testing.T) {
	devices := []Device{
		&Resistor{Name: "R1", Plus: "R1", Minus: GroundName, Resistance: 1000},
	}
	if _, err := New(devices); err == nil {
		t.Fatal("expected error when a node name collides with a device name")
	}
}

func TestNewRejectsWrongTypeLetter(t *testing.T) {
	devices := []Device{
		&Resistor{Name: "X1", Plus: "1", Minus: GroundName, Resistance: 1000},
	}
	if _, err := New(devices); err == nil {
		t.Fatal("expected error when device name does not start with its type letter")
	}
}

func TestNodesOrderIsGroundFirstThenFirstSeen(t *testing.T) {
	devices := []Device{
		&VoltageSource{Name: "V1", Plus: "1", Minus: GroundName, Voltage: nil},
		&Resistor{Name: "R1", Plus: "1", Minus: "2", Resistance: 1000},
		&Resistor{Name: "R2", Plus: "2", Minus: GroundName, Resistance: 1000},
	}
	nl, err := New(devices)
	if err != nil {
		t.Fatal(err)
	}
	got := nl.Nodes()
	want := []string{GroundName, "1", "2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Nodes() mismatch (-want +got):\n%s", diff)
	}
}
