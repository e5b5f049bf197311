package itensor

import (
	"fmt"
	"math"
	"math/cmplx"
	"slices"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

// Machine precision of the complex64 storage.
const epsilon = 0x1p-23

// Args control SVD truncation.
type Args struct {
	// Cutoff is the largest fraction of squared singular value weight that
	// may be discarded.
	Cutoff float64
	// MaxDim caps the number of kept singular values.
	// Zero or negative means unlimited.
	MaxDim int
}

// Spectrum reports the outcome of a truncated SVD.
type Spectrum struct {
	// Truncerr is the discarded squared weight divided by the total
	// squared weight.
	Truncerr float64
	// Svals are the kept singular values, largest first.
	Svals []float64
}

// SVD factorizes t into u*s*v, where u receives the indices in uInds, v the
// remaining indices of t, and s is diagonal over two fresh bond indices tying
// u and v together. Singular values are truncated according to args; values
// below maxSV*2^-23 are always dropped, being below the resolution of the
// complex64 storage. At least one singular value is kept.
func SVD(u, s, v *ITensor, t ITensor, uInds []Index, args Args) (Spectrum, error) {
	uAxes := make([]int, 0, len(uInds))
	for _, ix := range uInds {
		uAxes = append(uAxes, t.axisOf(ix))
	}
	if len(uInds) == 0 || len(uInds) >= len(t.inds) {
		panic(fmt.Sprintf("%d %d", len(uInds), len(t.inds)))
	}
	vInds := make([]Index, 0, len(t.inds)-len(uInds))
	vAxes := make([]int, 0, len(t.inds)-len(uInds))
	for i, ix := range t.inds {
		if !slices.Contains(uAxes, i) {
			vInds = append(vInds, ix)
			vAxes = append(vAxes, i)
		}
	}
	if len(uAxes)+len(vAxes) != len(t.inds) {
		panic(fmt.Sprintf("%v", uInds))
	}

	// Lay t out as a matrix with the u side as rows.
	td := resetCopy(tensor.Zeros(1), t.data.Transpose(append(slices.Clone(uAxes), vAxes...)...))
	uDims, vDims := dims(uInds), dims(vInds)
	m, n := prodInts(uDims), prodInts(vDims)
	td = td.Reshape(m, n)
	a := make([][]complex128, m)
	for r := range m {
		a[r] = make([]complex128, n)
		for c := range n {
			a[r][c] = complex128(td.At(r, c))
		}
	}

	um, sigma, vm, err := jacobiSVD(a, m, n)
	if err != nil {
		return Spectrum{}, errors.Wrap(err, "")
	}

	var total float64
	for _, sv := range sigma {
		total += sv * sv
	}
	if total == 0 {
		return Spectrum{}, errors.Errorf("zero tensor")
	}
	kept := min(m, n)
	if args.MaxDim > 0 && args.MaxDim < kept {
		kept = args.MaxDim
	}
	floor := sigma[0] * epsilon
	for kept > 1 && sigma[kept-1] <= floor {
		kept--
	}
	var discarded float64
	for _, sv := range sigma[kept:] {
		discarded += sv * sv
	}
	for kept > 1 && discarded+sigma[kept-1]*sigma[kept-1] <= args.Cutoff*total {
		discarded += sigma[kept-1] * sigma[kept-1]
		kept--
	}

	ul := NewIndex(kept, "Link")
	vl := NewIndex(kept, "Link")

	ud := tensor.Zeros(append(slices.Clone(uDims), kept)...)
	dg := make([]int, len(uDims)+1)
	for r := range m {
		unflatten(dg[:len(uDims)], r, uDims)
		for j := range kept {
			if um[r][j] == 0 {
				continue
			}
			dg[len(uDims)] = j
			ud.SetAt(dg, complex64(um[r][j]))
		}
	}

	sd := tensor.Zeros(kept, kept)
	for j := range kept {
		sd.SetAt([]int{j, j}, complex64(complex(sigma[j], 0)))
	}

	vd := tensor.Zeros(append([]int{kept}, vDims...)...)
	dg = make([]int, len(vDims)+1)
	for c := range n {
		unflatten(dg[1:], c, vDims)
		for j := range kept {
			if vm[c][j] == 0 {
				continue
			}
			dg[0] = j
			vd.SetAt(dg, complex64(cmplx.Conj(vm[c][j])))
		}
	}

	*u = ITensor{inds: append(cloneInds(uInds), ul), data: ud}
	*s = ITensor{inds: []Index{ul, vl}, data: sd}
	*v = ITensor{inds: append([]Index{vl}, vInds...), data: vd}
	return Spectrum{Truncerr: discarded / total, Svals: slices.Clone(sigma[:kept])}, nil
}

// jacobiSVD computes the singular value decomposition of the m by n matrix a
// by one-sided Jacobi rotations, accumulating in float64. It returns the left
// singular vectors as columns of u (zero columns for zero singular values),
// the singular values sorted largest first, and the right singular vectors as
// columns of v.
//
// Neither gonum nor the dense backend provides a complex-valued SVD, hence
// this kernel.
func jacobiSVD(a [][]complex128, m, n int) ([][]complex128, []float64, [][]complex128, error) {
	g := make([][]complex128, m)
	for i := range m {
		g[i] = slices.Clone(a[i])
	}
	v := make([][]complex128, n)
	for i := range n {
		v[i] = make([]complex128, n)
		v[i][i] = 1
	}

	var fro2 float64
	for i := range m {
		for j := range n {
			gj := g[i][j]
			fro2 += real(gj)*real(gj) + imag(gj)*imag(gj)
		}
	}

	const maxSweeps = 64
	const tol = 1e-12
	// Columns this small relative to the matrix are numerically zero;
	// rotating them against each other never terminates.
	nullCol := fro2 * 1e-28
	converged := false
	for range maxSweeps {
		converged = true
		for p := range n - 1 {
			for q := p + 1; q < n; q++ {
				var app, aqq float64
				var apq complex128
				for i := range m {
					gp, gq := g[i][p], g[i][q]
					app += real(gp)*real(gp) + imag(gp)*imag(gp)
					aqq += real(gq)*real(gq) + imag(gq)*imag(gq)
					apq += cmplx.Conj(gp) * gq
				}
				if app <= nullCol || aqq <= nullCol || cmplx.Abs(apq) <= tol*math.Sqrt(app*aqq) {
					continue
				}
				converged = false

				gamma := cmplx.Abs(apq)
				phase := apq / complex(gamma, 0)
				zeta := (aqq - app) / (2 * gamma)
				tt := math.Copysign(1, zeta) / (math.Abs(zeta) + math.Sqrt(1+zeta*zeta))
				c := 1 / math.Sqrt(1+tt*tt)
				sn := c * tt

				rotate(g, p, q, c, sn, phase)
				rotate(v, p, q, c, sn, phase)
			}
		}
		if converged {
			break
		}
	}
	if !converged {
		return nil, nil, nil, errors.Errorf("no convergence in %d sweeps", maxSweeps)
	}

	// Sort columns by singular value.
	sigma := make([]float64, n)
	for j := range n {
		var sum float64
		for i := range m {
			gj := g[i][j]
			sum += real(gj)*real(gj) + imag(gj)*imag(gj)
		}
		sigma[j] = math.Sqrt(sum)
	}
	order := make([]int, n)
	for j := range n {
		order[j] = j
	}
	slices.SortStableFunc(order, func(x, y int) int {
		switch {
		case sigma[x] > sigma[y]:
			return -1
		case sigma[x] < sigma[y]:
			return 1
		}
		return 0
	})

	u := make([][]complex128, m)
	for i := range m {
		u[i] = make([]complex128, n)
	}
	vs := make([][]complex128, n)
	for i := range n {
		vs[i] = make([]complex128, n)
	}
	sorted := make([]float64, n)
	for jn, j := range order {
		sorted[jn] = sigma[j]
		for i := range m {
			if sigma[j] > 0 {
				u[i][jn] = g[i][j] / complex(sigma[j], 0)
			}
		}
		for i := range n {
			vs[i][jn] = v[i][j]
		}
	}
	return u, sorted, vs, nil
}

// rotate multiplies columns p and q from the right by the unitary Jacobi
// rotation [[c, sn*phase], [-sn*conj(phase), c]].
func rotate(g [][]complex128, p, q int, c, sn float64, phase complex128) {
	for i := range g {
		gp, gq := g[i][p], g[i][q]
		g[i][p] = complex(c, 0)*gp - complex(sn, 0)*cmplx.Conj(phase)*gq
		g[i][q] = complex(sn, 0)*phase*gp + complex(c, 0)*gq
	}
}

func unflatten(dg []int, r int, dims []int) {
	for i := len(dims) - 1; i >= 0; i-- {
		dg[i] = r % dims[i]
		r /= dims[i]
	}
}

func prodInts(xs []int) int {
	p := 1
	for _, x := range xs {
		p *= x
	}
	return p
}
