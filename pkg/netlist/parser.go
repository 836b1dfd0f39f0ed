package netlist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tspice/pkg/expr"
)

// ParseError reports a malformed netlist line, pinned to a source location
// the way the rest of the corpus's line-oriented text parsers do.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("netlist: line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func errAt(line, column int, format string, args ...interface{}) *ParseError {
	return &ParseError{Line: line, Column: column, Message: fmt.Sprintf(format, args...)}
}

// Parse reads a line-oriented netlist description from r and returns a
// validated Netlist. Blank lines and comment lines (starting with '*' or
// '#') are skipped; every other line declares exactly one device; the
// first token's leading byte selects the type (V/R/C/D/E) per the syntax
// table in the external interfaces section.
func Parse(r io.Reader) (*Netlist, error) {
	scanner := bufio.NewScanner(r)
	var devices []Device

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		d, err := parseDeviceLine(lineNo, fields)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("netlist: reading input: %w", err)
	}

	return New(devices)
}

func parseDeviceLine(line int, fields []string) (Device, error) {
	if len(fields) == 0 {
		return nil, errAt(line, 1, "empty device line")
	}
	name := fields[0]
	if name == "" {
		return nil, errAt(line, 1, "empty device name")
	}
	args := fields[1:]

	switch name[0] {
	case 'V':
		if len(args) < 3 {
			return nil, errAt(line, 1, "%s: expected <plus> <minus> <expression>", name)
		}
		plus, err := parseNode(line, fieldColumn(fields, 1), name, args[0])
		if err != nil {
			return nil, err
		}
		minus, err := parseNode(line, fieldColumn(fields, 2), name, args[1])
		if err != nil {
			return nil, err
		}
		e, err := expr.Parse(strings.Join(args[2:], " "))
		if err != nil {
			return nil, errAt(line, fieldColumn(fields, 3), "%s: %v", name, err)
		}
		return &VoltageSource{Name: name, Plus: plus, Minus: minus, Voltage: e}, nil

	case 'R':
		if len(args) != 3 {
			return nil, errAt(line, 1, "%s: expected <plus> <minus> <resistance>", name)
		}
		plus, minus, err := parseNodePair(line, fields, name, args)
		if err != nil {
			return nil, err
		}
		r, err := parseValue(line, fieldColumn(fields, 3), name, args[2])
		if err != nil {
			return nil, err
		}
		if r <= 0 {
			return nil, errAt(line, fieldColumn(fields, 3), "%s: resistance must be positive, got %v", name, r)
		}
		return &Resistor{Name: name, Plus: plus, Minus: minus, Resistance: r}, nil

	case 'C':
		if len(args) != 3 {
			return nil, errAt(line, 1, "%s: expected <plus> <minus> <capacitance>", name)
		}
		plus, minus, err := parseNodePair(line, fields, name, args)
		if err != nil {
			return nil, err
		}
		c, err := parseValue(line, fieldColumn(fields, 3), name, args[2])
		if err != nil {
			return nil, err
		}
		if c <= 0 {
			return nil, errAt(line, fieldColumn(fields, 3), "%s: capacitance must be positive, got %v", name, c)
		}
		return &Capacitor{Name: name, Plus: plus, Minus: minus, Capacitance: c}, nil

	case 'D':
		if len(args) != 2 {
			return nil, errAt(line, 1, "%s: expected <plus> <minus>", name)
		}
		plus, minus, err := parseNodePair(line, fields, name, args)
		if err != nil {
			return nil, err
		}
		return &Diode{Name: name, Plus: plus, Minus: minus}, nil

	case 'E':
		if len(args) != 5 {
			return nil, errAt(line, 1, "%s: expected <plus> <minus> <ctrl-plus> <ctrl-minus> <gain>", name)
		}
		plus, err := parseNode(line, fieldColumn(fields, 1), name, args[0])
		if err != nil {
			return nil, err
		}
		minus, err := parseNode(line, fieldColumn(fields, 2), name, args[1])
		if err != nil {
			return nil, err
		}
		ctrlPlus, err := parseNode(line, fieldColumn(fields, 3), name, args[2])
		if err != nil {
			return nil, err
		}
		ctrlMinus, err := parseNode(line, fieldColumn(fields, 4), name, args[3])
		if err != nil {
			return nil, err
		}
		g, err := parseValue(line, fieldColumn(fields, 5), name, args[4])
		if err != nil {
			return nil, err
		}
		return &VCVS{
			Name:      name,
			Plus:      plus,
			Minus:     minus,
			CtrlPlus:  ctrlPlus,
			CtrlMinus: ctrlMinus,
			Gain:      g,
		}, nil

	default:
		return nil, errAt(line, 1, "%s: unknown device type letter %q", name, string(name[0]))
	}
}

func parseNodePair(line int, fields []string, device string, args []string) (plus, minus string, err error) {
	plus, err = parseNode(line, fieldColumn(fields, 1), device, args[0])
	if err != nil {
		return "", "", err
	}
	minus, err = parseNode(line, fieldColumn(fields, 2), device, args[1])
	if err != nil {
		return "", "", err
	}
	return plus, minus, nil
}

func parseValue(line, column int, device, token string) (float64, error) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, errAt(line, column, "%s: invalid numeric value %q", device, token)
	}
	return v, nil
}

// parseNode accepts the literal GND alias or an integer-literal node name,
// per the chosen canonical form (older bare-identifier node names are
// rejected — see the Open Questions resolution on ground naming).
func parseNode(line, column int, device, tok string) (string, error) {
	if tok == "GND" {
		return GroundName, nil
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return "", errAt(line, column, "%s: node %q is not GND or an integer literal", device, tok)
	}
	return strconv.Itoa(n), nil
}

// fieldColumn estimates a 1-based column for the nth whitespace-separated
// field, for error messages only; it does not need to be exact when the
// source line contained repeated whitespace.
func fieldColumn(fields []string, n int) int {
	col := 1
	for i := 0; i < n && i < len(fields); i++ {
		col += len(fields[i]) + 1
	}
	return col
}
