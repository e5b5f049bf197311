// Package itensor implements tensors whose axes are identified by named
// indices instead of positions, on top of the dense tensor library
// github.com/fumin/tensor.
//
// Contractions match indices by identity: a binary product sums over every
// index shared between its operands, however the axes are ordered.
package itensor

import (
	"fmt"
	"math"
	"strings"

	"github.com/fumin/tensor"
)

// ITensor is a tensor over a list of indices.
// The i-th axis of the underlying dense storage corresponds to inds[i].
// A tensor with no indices is a scalar.
type ITensor struct {
	inds []Index
	data *tensor.Dense
}

// New returns a zero tensor over the given indices.
func New(inds ...Index) ITensor {
	for i := range inds {
		for j := range i {
			if inds[i] == inds[j] {
				panic(fmt.Sprintf("%v", inds[i]))
			}
		}
	}
	return ITensor{inds: cloneInds(inds), data: tensor.Zeros(dims(inds)...)}
}

// Inds returns the indices of the tensor.
func (t ITensor) Inds() []Index {
	return cloneInds(t.inds)
}

// Rank returns the number of indices.
func (t ITensor) Rank() int { return len(t.inds) }

// HasIndex reports whether ix is an index of the tensor.
func (t ITensor) HasIndex(ix Index) bool {
	for _, jx := range t.inds {
		if jx == ix {
			return true
		}
	}
	return false
}

// Set stores v at the element named by the index values.
// Every index of the tensor must appear exactly once.
func (t ITensor) Set(v complex64, ivals ...IndexVal) {
	t.data.SetAt(t.digits(ivals), v)
}

// At returns the element named by the index values.
func (t ITensor) At(ivals ...IndexVal) complex64 {
	return t.data.At(t.digits(ivals)...)
}

// Cplx returns the value of a rank-0 tensor.
func (t ITensor) Cplx() complex64 {
	if len(t.inds) != 0 {
		panic(fmt.Sprintf("%d", len(t.inds)))
	}
	return t.data.At(0)
}

// Clone returns a deep copy of the tensor.
func (t ITensor) Clone() ITensor {
	return ITensor{inds: cloneInds(t.inds), data: cloneDense(t.data)}
}

// Mul returns the tensor scaled by c.
func (t ITensor) Mul(c complex64) ITensor {
	out := t.Clone()
	for ijk, v := range out.data.All() {
		out.data.SetAt(ijk, c*v)
	}
	return out
}

func (t ITensor) String() string {
	ss := make([]string, 0, len(t.inds))
	for _, ix := range t.inds {
		ss = append(ss, ix.String())
	}
	vs := make([]string, 0)
	for _, v := range t.data.All() {
		vs = append(vs, fmt.Sprintf("%v", v))
	}
	return fmt.Sprintf("[%s][%s]", strings.Join(ss, ","), strings.Join(vs, ","))
}

// Add returns a + b. The tensors must carry the same index set.
func Add(a, b ITensor) ITensor {
	perm := axisMap(b, a)
	out := a.Clone()
	dg := make([]int, max(len(a.inds), 1))
	for ijk, v := range b.data.All() {
		if v == 0 {
			continue
		}
		for bi, ai := range perm {
			dg[ai] = ijk[bi]
		}
		out.data.SetAt(dg, out.data.At(dg...)+v)
	}
	return out
}

// Sub returns a - b.
func Sub(a, b ITensor) ITensor {
	return Add(a, b.Mul(-1))
}

// Product contracts all indices shared between a and b.
// With no shared index the result is the outer product; with every index
// shared the result is a scalar.
func Product(a, b ITensor) ITensor {
	switch {
	case len(a.inds) == 0:
		return b.Mul(a.Cplx())
	case len(b.inds) == 0:
		return a.Mul(b.Cplx())
	}

	axes := make([][2]int, 0, 2)
	for i, ia := range a.inds {
		for j, jb := range b.inds {
			if ia == jb {
				axes = append(axes, [2]int{i, j})
			}
		}
	}

	outInds := make([]Index, 0, len(a.inds)+len(b.inds)-2*len(axes))
	outInds = appendRemaining(outInds, a.inds, axes, 0)
	outInds = appendRemaining(outInds, b.inds, axes, 1)
	switch {
	case len(outInds) == 0:
		return scalarProduct(a, b, axes)
	case len(axes) == 0:
		return outerProduct(a, b, outInds)
	}

	dst := tensor.Zeros(1)
	tensor.Contract(dst, a.data, b.data, axes)
	return ITensor{inds: outInds, data: dst}
}

// Dag returns the elementwise complex conjugate.
func Dag(t ITensor) ITensor {
	out := t.Clone()
	for ijk, v := range out.data.All() {
		out.data.SetAt(ijk, complex(real(v), -imag(v)))
	}
	return out
}

// Prime returns t with the given indices primed one level up, or with every
// index primed when none is given. The storage is shared with t.
func Prime(t ITensor, subset ...Index) ITensor {
	inds := cloneInds(t.inds)
	if len(subset) == 0 {
		for i := range inds {
			inds[i] = inds[i].Prime()
		}
	} else {
		for _, ix := range subset {
			ax := t.axisOf(ix)
			inds[ax] = inds[ax].Prime()
		}
	}
	return ITensor{inds: inds, data: t.data}
}

// Norm returns the Frobenius norm.
func Norm(t ITensor) float64 {
	var sum float64
	for _, v := range t.data.All() {
		sum += float64(real(v))*float64(real(v)) + float64(imag(v))*float64(imag(v))
	}
	return math.Sqrt(sum)
}

// CommonIndex returns the unique index shared between a and b.
func CommonIndex(a, b ITensor) Index {
	var common []Index
	for _, ia := range a.inds {
		for _, jb := range b.inds {
			if ia == jb {
				common = append(common, ia)
			}
		}
	}
	if len(common) != 1 {
		panic(fmt.Sprintf("%d", len(common)))
	}
	return common[0]
}

func (t ITensor) axisOf(ix Index) int {
	for i, jx := range t.inds {
		if jx == ix {
			return i
		}
	}
	panic(fmt.Sprintf("%v %v", ix, t.inds))
}

func (t ITensor) digits(ivals []IndexVal) []int {
	if len(ivals) != len(t.inds) {
		panic(fmt.Sprintf("%d %d", len(ivals), len(t.inds)))
	}
	dg := make([]int, max(len(t.inds), 1))
	seen := make([]bool, len(t.inds))
	for _, iv := range ivals {
		ax := t.axisOf(iv.Index)
		if seen[ax] {
			panic(fmt.Sprintf("%v", iv.Index))
		}
		seen[ax] = true
		dg[ax] = iv.Val - 1
	}
	return dg
}

func outerProduct(a, b ITensor, outInds []Index) ITensor {
	ad, bd := cloneDense(a.data), cloneDense(b.data)
	as, bs := len(ad.Shape()), len(bd.Shape())
	ad = ad.Reshape(append(append([]int{}, ad.Shape()...), 1)...)
	bd = bd.Reshape(append(append([]int{}, bd.Shape()...), 1)...)

	dst := tensor.Zeros(1)
	tensor.Contract(dst, ad, bd, [][2]int{{as, bs}})
	return ITensor{inds: outInds, data: dst}
}

// scalarProduct handles full contractions, since the dense backend keeps at
// least one axis on every tensor.
func scalarProduct(a, b ITensor, axes [][2]int) ITensor {
	bdg := make([]int, max(len(b.inds), 1))
	var sum complex128
	for ijk, v := range a.data.All() {
		if v == 0 {
			continue
		}
		for _, ax := range axes {
			bdg[ax[1]] = ijk[ax[0]]
		}
		sum += complex128(v) * complex128(b.data.At(bdg...))
	}
	out := New()
	out.data.SetAt([]int{0}, complex64(sum))
	return out
}

// axisMap returns, for each axis of `from`, the matching axis of `to`.
func axisMap(from, to ITensor) []int {
	if len(from.inds) != len(to.inds) {
		panic(fmt.Sprintf("%d %d", len(from.inds), len(to.inds)))
	}
	perm := make([]int, 0, len(from.inds))
	for _, ix := range from.inds {
		perm = append(perm, to.axisOf(ix))
	}
	return perm
}

func appendRemaining(out, inds []Index, axes [][2]int, side int) []Index {
Loop:
	for i, ix := range inds {
		for _, ax := range axes {
			if ax[side] == i {
				continue Loop
			}
		}
		out = append(out, ix)
	}
	return out
}

func dims(inds []Index) []int {
	if len(inds) == 0 {
		return []int{1}
	}
	ds := make([]int, 0, len(inds))
	for _, ix := range inds {
		ds = append(ds, ix.dim)
	}
	return ds
}

func cloneInds(inds []Index) []Index {
	return append([]Index{}, inds...)
}

func cloneDense(src *tensor.Dense) *tensor.Dense {
	return resetCopy(tensor.Zeros(1), src)
}

func resetCopy(dst, src *tensor.Dense) *tensor.Dense {
	shape := src.Shape()
	zeroDigit := make([]int, len(shape))
	dst.Reset(shape...).Set(zeroDigit, src)
	return dst
}
