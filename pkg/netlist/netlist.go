package netlist

import "fmt"

// GroundName is the one node name guaranteed to exist and to be pinned to
// zero volts. "GND" in source text is accepted as an alias and normalized
// to this name during parsing.
const GroundName = "0"

// Netlist is a validated, immutable circuit description: a list of devices
// plus the node set they induce. Construct one with New, which enforces
// every structural invariant up front so later stages (pkg/engine) never
// have to re-check them.
type Netlist struct {
	devices []Device
	nodes   []string // first-seen order, ground first
}

// New validates devices and builds their induced node set. Node order is
// the order nodes are first mentioned while walking devices in the given
// order, except that the ground node is always listed first — this makes
// node iteration (and therefore unknown ordering) a pure function of
// textual order, never of Go map iteration.
func New(devices []Device) (*Netlist, error) {
	if len(devices) == 0 {
		return nil, fmt.Errorf("netlist: must contain at least one device")
	}

	seenNames := make(map[string]Device, len(devices))
	seenNodes := make(map[string]bool)
	nodes := []string{GroundName}
	seenNodes[GroundName] = true
	groundPresent := false

	addNode := func(n string) {
		if !seenNodes[n] {
			seenNodes[n] = true
			nodes = append(nodes, n)
		}
	}

	for _, d := range devices {
		name := d.DeviceName()
		if name == "" {
			return nil, fmt.Errorf("netlist: device has empty name")
		}
		if want := TypeLetter(d); want != 0 && (len(name) == 0 || name[0] != want) {
			return nil, fmt.Errorf("netlist: device %q must begin with %q", name, want)
		}
		if prev, dup := seenNames[name]; dup {
			return nil, fmt.Errorf("netlist: duplicate device name %q (also used by %T)", name, prev)
		}
		seenNames[name] = d

		for _, term := range d.Terminals() {
			if term == GroundName {
				groundPresent = true
			}
			addNode(term)
		}
	}

	if !groundPresent {
		return nil, fmt.Errorf("netlist: must reference the ground node %q", GroundName)
	}

	for node := range seenNodes {
		if _, collide := seenNames[node]; collide {
			return nil, fmt.Errorf("netlist: node name %q collides with a device name", node)
		}
	}

	return &Netlist{devices: devices, nodes: nodes}, nil
}

// Devices returns the devices in the order they were declared.
func (n *Netlist) Devices() []Device { return n.devices }

// Nodes returns every node name, ground first, then first-seen order.
func (n *Netlist) Nodes() []string { return n.nodes }
