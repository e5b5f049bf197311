// Package statevec is a brute force state-vector quantum simulator.
//
// It serves as an exact reference for checking tensor network results and
// is practical only for small qubit counts.
package statevec

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

var (
	Identity = [][]complex128{
		{1, 0},
		{0, 1},
	}
	PauliX = [][]complex128{
		{0, 1},
		{1, 0},
	}
	PauliY = [][]complex128{
		{0, -1i},
		{1i, 0},
	}
	PauliZ = [][]complex128{
		{1, 0},
		{0, -1},
	}
	Hadamard = [][]complex128{
		{1 / math.Sqrt2, 1 / math.Sqrt2},
		{1 / math.Sqrt2, -1 / math.Sqrt2},
	}
	// CNOT acts on (control, target), the control being the more
	// significant input bit.
	CNOT = [][]complex128{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 1, 0},
	}
	Swap = [][]complex128{
		{1, 0, 0, 0},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
	}
)

// State is a wave function over n qubits, stored as a 2^n column vector.
// Site 0 is the most significant bit of the basis-state indices.
type State struct {
	n   int
	vec *mat.CDense
}

// New returns the product state |00...0>.
func New(n int) *State {
	if n < 1 {
		panic(fmt.Sprintf("%d", n))
	}
	st := &State{n: n, vec: mat.NewCDense(1<<n, 1, nil)}
	st.vec.Set(0, 0, 1)
	return st
}

// Size returns the number of qubits.
func (st *State) Size() int { return st.n }

// ApplyOne applies the 2x2 gate g to the given qubit.
func (st *State) ApplyOne(site int, g [][]complex128) {
	full := mat.NewCDense(1, 1, []complex128{1})
	for i := range st.n {
		gi := Identity
		if i == site {
			gi = g
		}
		full = kron(full, toCDense(gi))
	}

	out := mat.NewCDense(1<<st.n, 1, nil)
	cmatmul(out, full, st.vec)
	st.vec = out
}

// ApplyTwo applies the 4x4 gate g to qubits (site1, site2), site1 being the
// more significant input bit. The sites need not be adjacent: the gate is
// embedded by relabeling basis states rather than by a full Kronecker
// product.
func (st *State) ApplyTwo(site1, site2 int, g [][]complex128) {
	if site1 == site2 {
		panic(fmt.Sprintf("%d %d", site1, site2))
	}
	dim := 1 << st.n
	out := mat.NewCDense(dim, 1, nil)
	for b := range dim {
		v := st.vec.At(b, 0)
		if v == 0 {
			continue
		}
		col := st.bit(b, site1)<<1 | st.bit(b, site2)
		for row := range 4 {
			if g[row][col] == 0 {
				continue
			}
			bn := st.withBit(st.withBit(b, site1, row>>1), site2, row&1)
			out.Set(bn, 0, out.At(bn, 0)+g[row][col]*v)
		}
	}
	st.vec = out
}

// Amplitude returns the coefficient of the given basis state.
func (st *State) Amplitude(bits []int) complex128 {
	if len(bits) != st.n {
		panic(fmt.Sprintf("%d %d", len(bits), st.n))
	}
	idx := 0
	for i, bit := range bits {
		switch bit {
		case 0:
		case 1:
			idx |= 1 << (st.n - 1 - i)
		default:
			panic(fmt.Sprintf("%d", bit))
		}
	}
	return st.vec.At(idx, 0)
}

// InnerProduct computes <x|y>.
func InnerProduct(x, y *State) complex128 {
	if x.n != y.n {
		panic(fmt.Sprintf("%d %d", x.n, y.n))
	}
	var sum complex128
	for b := range 1 << x.n {
		xv := x.vec.At(b, 0)
		sum += complex(real(xv), -imag(xv)) * y.vec.At(b, 0)
	}
	return sum
}

func (st *State) bit(b, site int) int {
	return (b >> (st.n - 1 - site)) & 1
}

func (st *State) withBit(b, site, v int) int {
	mask := 1 << (st.n - 1 - site)
	if v == 0 {
		return b &^ mask
	}
	return b | mask
}

func toCDense(g [][]complex128) *mat.CDense {
	m := mat.NewCDense(len(g), len(g[0]), nil)
	for i, row := range g {
		for j, v := range row {
			m.Set(i, j, v)
		}
	}
	return m
}

// cmatmul computes dst = a*b using the underlying BLAS routine, since this
// version of gonum's CDense does not expose a Mul method.
func cmatmul(dst, a, b *mat.CDense) {
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, a.RawCMatrix(), b.RawCMatrix(), 0, dst.RawCMatrix())
}

func kron(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	k := mat.NewCDense(ar*br, ac*bc, nil)
	for i := range ar {
		for j := range ac {
			av := a.At(i, j)
			if av == 0 {
				continue
			}
			for y := range br {
				for x := range bc {
					k.Set(i*br+y, j*bc+x, av*b.At(y, x))
				}
			}
		}
	}
	return k
}
