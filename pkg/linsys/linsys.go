// Package linsys provides a dense, string-keyed linear system: callers
// intern named unknowns into column indices, reserve rows, write
// coefficients and constants, and solve A x = b by LU factorization with
// partial pivoting over gonum's dense matrix type.
package linsys

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Builder accumulates the unknown and row namespaces before a Solver is
// sized. It exists as its own type so compilation (interning unknowns,
// reserving rows) is a visibly separate phase from per-step assembly.
type Builder struct {
	names []string
	index map[string]int
	rows  int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// Intern returns name's stable column index, allocating one on first sight.
func (b *Builder) Intern(name string) int {
	if i, ok := b.index[name]; ok {
		return i
	}
	i := len(b.names)
	b.names = append(b.names, name)
	b.index[name] = i
	return i
}

// ReserveRow allocates and returns the next row index.
func (b *Builder) ReserveRow() int {
	r := b.rows
	b.rows++
	return r
}

// Build sizes a Solver from the interned unknowns and reserved rows. The
// caller must have reserved exactly as many rows as unknowns; mismatch is a
// programming error in the caller, so Build panics rather than returning an
// error for it.
func (b *Builder) Build() *Solver {
	n := len(b.names)
	if b.rows != n {
		panic(fmt.Sprintf("linsys: reserved %d rows for %d unknowns", b.rows, n))
	}
	names := make([]string, n)
	copy(names, b.names)
	return &Solver{
		names: names,
		index: b.index,
		a:     mat.NewDense(n, n, nil),
		b:     mat.NewVecDense(n, nil),
	}
}

// Solver owns a dense N×N system keyed by the unknown names fixed at
// Build time. Coefficients not explicitly written are zero; SetCoef/SetConstant
// may be called repeatedly across timesteps to overwrite the same cells.
type Solver struct {
	names []string
	index map[string]int
	a     *mat.Dense
	b     *mat.VecDense
}

// N returns the system size.
func (s *Solver) N() int { return len(s.names) }

// Names returns the unknowns in interned (column) order.
func (s *Solver) Names() []string { return s.names }

// Index returns the column/row index previously assigned to name by the
// Builder, or (-1, false) if name was never interned.
func (s *Solver) Index(name string) (int, bool) {
	i, ok := s.index[name]
	if !ok {
		return -1, false
	}
	return i, true
}

// SetCoef writes A[row, col] = value.
func (s *Solver) SetCoef(row, col int, value float64) { s.a.Set(row, col, value) }

// SetConstant writes b[row] = value.
func (s *Solver) SetConstant(row int, value float64) { s.b.SetVec(row, value) }

// Solve computes the LU factorization of A and returns x such that A x = b,
// or ok=false if A is numerically singular.
func (s *Solver) Solve() (x []float64, ok bool) {
	var lu mat.LU
	lu.Factorize(s.a)
	if math.IsInf(lu.Cond(), 1) || lu.Cond() > singularCondThreshold {
		return nil, false
	}

	var xVec mat.VecDense
	if err := lu.SolveVecTo(&xVec, false, s.b); err != nil {
		return nil, false
	}

	out := make([]float64, s.N())
	for i := range out {
		out[i] = xVec.AtVec(i)
	}
	return out, true
}

// singularCondThreshold flags a pivot as numerically singular once the
// factorization's condition number estimate crosses it; gonum's LU.Cond
// reports +Inf for an exactly singular matrix and very large finite values
// for ill-conditioned ones, so both are checked.
const singularCondThreshold = 1e14

// NameSolution maps a solved vector back to unknown names using the
// interning order fixed at Build time.
func (s *Solver) NameSolution(x []float64) map[string]float64 {
	out := make(map[string]float64, len(s.names))
	for i, name := range s.names {
		out[name] = x[i]
	}
	return out
}

// DebugString renders the assembled system for diagnostics, in the style
// of a symbolic equation-system printer: one row per equation, one column
// per named unknown.
func (s *Solver) DebugString() string {
	var sb strings.Builder
	for r := 0; r < s.N(); r++ {
		first := true
		for c, name := range s.names {
			v := s.a.At(r, c)
			if v == 0 {
				continue
			}
			if !first {
				sb.WriteString(" + ")
			}
			first = false
			fmt.Fprintf(&sb, "%g*%s", v, name)
		}
		fmt.Fprintf(&sb, " = %g\n", s.b.AtVec(r))
	}
	return sb.String()
}
