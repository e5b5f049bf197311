package qtps

import (
	"math"
	"math/cmplx"
	"testing"

	"qtps/itensor"
	"qtps/statevec"
	"qtps/topology"
)

func TestNew(t *testing.T) {
	t.Parallel()
	topo := topology.Chain(4)
	c := New(topo, zeros(4), nil)

	// Site tensors carry the site index plus one link index per edge.
	for i, wantRank := range []int{2, 3, 3, 2} {
		if got := c.M(i).Rank(); got != wantRank {
			t.Fatalf("%d %d %d", i, got, wantRank)
		}
		if !c.M(i).HasIndex(c.Site(i)) {
			t.Fatalf("%d %v", i, c.M(i).Inds())
		}
	}
	if first, second := c.Cursor(); first != 0 || second != 1 {
		t.Fatalf("%d %d", first, second)
	}
	// Psi holds the two cursor site indices and the outward link.
	psi := c.Psi()
	if psi.Rank() != 3 || !psi.HasIndex(c.Site(0)) || !psi.HasIndex(c.Site(1)) {
		t.Fatalf("%v", psi.Inds())
	}
}

func TestNewPanics(t *testing.T) {
	t.Parallel()
	tests := []struct {
		build func()
	}{
		// Wrong amplitude count.
		{build: func() { New(topology.Chain(4), zeros(3), nil) }},
		// Sites 0 and 1 not adjacent.
		{build: func() {
			topo := topology.New(3)
			topo.GenerateLink(0, 2)
			topo.GenerateLink(2, 1)
			New(topo, zeros(3), nil)
		}},
		// Disconnected graph.
		{build: func() {
			topo := topology.New(4)
			topo.GenerateLink(0, 1)
			topo.GenerateLink(0, 2)
			New(topo, zeros(4), nil)
		}},
		// Wrong site index count.
		{build: func() {
			New(topology.Chain(2), zeros(2), []itensor.Index{itensor.NewIndex(2, "Site")})
		}},
	}
	for i, test := range tests {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("%d", i)
				}
			}()
			test.build()
		}()
	}
}

func TestBell(t *testing.T) {
	t.Parallel()
	topo := topology.Chain(2)
	c := New(topo, zeros(2), nil)
	c.Apply(itensor.Product(H(c.Site(0)), Id(c.Site(1))))
	c.Apply(CNOT(c.Site(0), c.Site(1)))

	tests := []struct {
		ops  []itensor.ITensor
		want complex64
	}{
		{ops: idOps(c), want: 1},
		{ops: opsAt(c, Z, Z), want: 1},
		{ops: opsAt(c, X, X), want: 1},
		{ops: opsAt(c, Z, Id), want: 0},
		{ops: opsAt(c, Id, Z), want: 0},
	}
	for i, test := range tests {
		got := overlapMust(t, c, test.ops, c)
		if !approx(got, test.want, 1e-5) {
			t.Fatalf("%d %v %v", i, got, test.want)
		}
	}

	// Cross-check the |00> amplitude against the exact simulator.
	sv := statevec.New(2)
	sv.ApplyOne(0, statevec.Hadamard)
	sv.ApplyTwo(0, 1, statevec.CNOT)
	c00 := New(topo, zeros(2), c.Sites())
	amp := overlapMust(t, c00, idOps(c), c)
	if got, want := complex128(amp), sv.Amplitude([]int{0, 0}); cmplx.Abs(got-want) > 1e-5 {
		t.Fatalf("%v %v", got, want)
	}
}

func TestXFlip(t *testing.T) {
	t.Parallel()
	topo := topology.Chain(2)
	c := New(topo, zeros(2), nil)
	c.Apply(itensor.Product(X(c.Site(0)), Id(c.Site(1))))

	tests := []struct {
		ops  []itensor.ITensor
		want complex64
	}{
		{ops: opsAt(c, Z, Id), want: -1},
		{ops: opsAt(c, Id, Z), want: 1},
		{ops: opsAt(c, Z, Z), want: -1},
	}
	for i, test := range tests {
		got := overlapMust(t, c, test.ops, c)
		if !approx(got, test.want, 1e-5) {
			t.Fatalf("%d %v %v", i, got, test.want)
		}
	}

	// The exact simulator agrees on <Z Z>.
	sv := statevec.New(2)
	sv.ApplyOne(0, statevec.PauliX)
	zz := statevec.New(2)
	zz.ApplyOne(0, statevec.PauliX)
	zz.ApplyOne(0, statevec.PauliZ)
	zz.ApplyOne(1, statevec.PauliZ)
	if got := statevec.InnerProduct(sv, zz); cmplx.Abs(got-(-1)) > 1e-12 {
		t.Fatalf("%v", got)
	}
}

func TestChainTraversal(t *testing.T) {
	t.Parallel()
	topo := topology.Chain(4)
	amps := make([][2]complex64, 4)
	for i := range amps {
		amps[i] = [2]complex64{0.6, 0.8}
	}
	c := New(topo, amps, nil)
	before := c.Clone()

	cursors := [][2]int{{1, 2}, {2, 3}, {1, 2}, {0, 1}}
	for i, ind := range []int{2, 3, 1, 0} {
		if _, err := c.ShiftTo(ind, itensor.Args{}); err != nil {
			t.Fatalf("%+v", err)
		}
		if first, second := c.Cursor(); [2]int{first, second} != cursors[i] {
			t.Fatalf("%d %d %d", i, first, second)
		}
	}

	if got := overlapMust(t, c, idOps(c), c); !approx(got, 1, 1e-5) {
		t.Fatalf("%v", got)
	}
	// Walking an unentangled state is lossless.
	if got := overlapMust(t, c, idOps(c), before); !approx(got, 1, 1e-5) {
		t.Fatalf("%v", got)
	}
}

func TestYTree(t *testing.T) {
	t.Parallel()
	topo := topology.New(4)
	topo.GenerateLink(0, 1)
	topo.GenerateLink(0, 2)
	topo.GenerateLink(0, 3)
	c := New(topo, zeros(4), nil)

	if got := c.M(0).Rank(); got != 4 {
		t.Fatalf("%d", got)
	}
	for i := 1; i < 4; i++ {
		if got := c.M(i).Rank(); got != 2 {
			t.Fatalf("%d %d", i, got)
		}
	}

	// Walk the cursor around the junction and back.
	for _, ind := range []int{2, 3, 1} {
		if _, err := c.ShiftTo(ind, itensor.Args{}); err != nil {
			t.Fatalf("%d %+v", ind, err)
		}
	}
	if got := overlapMust(t, c, idOps(c), c); !approx(got, 1, 1e-5) {
		t.Fatalf("%v", got)
	}
}

func TestApplyXTwice(t *testing.T) {
	t.Parallel()
	c := bellState(t)
	before := c.Clone()

	xi := itensor.Product(X(c.Site(0)), Id(c.Site(1)))
	c.Apply(xi)
	c.Apply(xi)
	if got := overlapMust(t, c, idOps(c), before); !approx(got, 1, 1e-5) {
		t.Fatalf("%v", got)
	}
}

func TestShiftRoundtrip(t *testing.T) {
	t.Parallel()
	topo := topology.Chain(4)
	c := New(topo, zeros(4), nil)
	c.Apply(itensor.Product(H(c.Site(0)), Id(c.Site(1))))
	c.Apply(CNOT(c.Site(0), c.Site(1)))
	before := c.Clone()

	if _, err := c.MoveCursorAlong([]int{2, 3}, itensor.Args{}); err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := c.MoveCursorAlong([]int{1, 0}, itensor.Args{}); err != nil {
		t.Fatalf("%+v", err)
	}
	if got := overlapMust(t, c, idOps(c), before); !approx(got, 1, 1e-4) {
		t.Fatalf("%v", got)
	}
}

func TestCNOTSpectrum(t *testing.T) {
	t.Parallel()
	c := bellState(t)

	// An entangling gate on a product state doubles the bond:
	// exactly two equal singular values.
	spec, err := c.DecomposePsi(itensor.Args{})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(spec.Svals) != 2 {
		t.Fatalf("%v", spec.Svals)
	}
	for _, sv := range spec.Svals {
		if math.Abs(sv-1/math.Sqrt2) > 1e-5 {
			t.Fatalf("%v", spec.Svals)
		}
	}
	if spec.Truncerr > 1e-9 {
		t.Fatalf("%f", spec.Truncerr)
	}

	// After decomposition the factored tensors are valid again.
	if got := c.M(0).Rank(); got != 2 {
		t.Fatalf("%d", got)
	}
}

func TestGateUnitarity(t *testing.T) {
	t.Parallel()
	c := bellState(t)
	gates := []itensor.ITensor{
		itensor.Product(H(c.Site(0)), H(c.Site(1))),
		CNOT(c.Site(0), c.Site(1)),
		CZ(c.Site(0), c.Site(1)),
		CY(c.Site(0), c.Site(1)),
		Swap(c.Site(0), c.Site(1)),
	}
	for i, g := range gates {
		d := c.Clone()
		d.Apply(g)
		if got := overlapMust(t, d, idOps(c), d); !approx(got, 1, 1e-5) {
			t.Fatalf("%d %v", i, got)
		}
	}
}

func TestOverlapHermiticity(t *testing.T) {
	t.Parallel()
	c1 := bellState(t)
	c2 := New(c1.Topology(), zeros(2), c1.Sites())
	c2.Apply(itensor.Product(X(c2.Site(0)), Id(c2.Site(1))))

	// Y and H are Hermitian, so <c1|O|c2> = conj(<c2|O|c1>).
	ops := []itensor.ITensor{Y(c1.Site(0)), H(c1.Site(1))}
	v12 := overlapMust(t, c1, ops, c2)
	v21 := overlapMust(t, c2, ops, c1)
	if !approx(v12, complex(real(v21), -imag(v21)), 1e-5) {
		t.Fatalf("%v %v", v12, v21)
	}
}

func TestOverlapLinearity(t *testing.T) {
	t.Parallel()
	c := bellState(t)

	zOps := opsAt(c, Z, Id)
	xOps := opsAt(c, X, Id)
	sumOps := []itensor.ITensor{itensor.Add(Z(c.Site(0)), X(c.Site(0))), Id(c.Site(1))}

	want := overlapMust(t, c, zOps, c) + overlapMust(t, c, xOps, c)
	if got := overlapMust(t, c, sumOps, c); !approx(got, want, 1e-5) {
		t.Fatalf("%v %v", got, want)
	}
}

func TestGHZChain(t *testing.T) {
	t.Parallel()
	const n = 8
	topo := topology.Chain(n)
	c := New(topo, zeros(n), nil)
	c.Apply(itensor.Product(H(c.Site(0)), Id(c.Site(1))))
	c.Apply(CNOT(c.Site(0), c.Site(1)))
	for i := 2; i < n; i++ {
		if _, err := c.ShiftTo(i, itensor.Args{Cutoff: 1e-10}); err != nil {
			t.Fatalf("%d %+v", i, err)
		}
		c.Apply(CNOT(c.Site(i-1), c.Site(i)))
	}

	ones := make([][2]complex64, n)
	for i := range ones {
		ones[i] = [2]complex64{0, 1}
	}
	c0 := New(topo, zeros(n), c.Sites())
	c1 := New(topo, ones, c.Sites())

	invSqrt2 := 1 / math.Sqrt2
	if got := overlapMust(t, c, idOps(c), c); !approx(got, 1, 1e-4) {
		t.Fatalf("%v", got)
	}
	for i, cb := range []*QCircuit{c0, c1} {
		got := overlapMust(t, c, idOps(c), cb)
		if math.Abs(cmplx.Abs(complex128(got))-invSqrt2) > 1e-4 {
			t.Fatalf("%d %v", i, got)
		}
	}

	// The exact simulator agrees on the |00...0> amplitude.
	sv := statevec.New(n)
	sv.ApplyOne(0, statevec.Hadamard)
	for i := 1; i < n; i++ {
		sv.ApplyTwo(i-1, i, statevec.CNOT)
	}
	want := sv.Amplitude(make([]int, n))
	got := complex128(overlapMust(t, c0, idOps(c), c))
	if cmplx.Abs(got-want) > 1e-4 {
		t.Fatalf("%v %v", got, want)
	}
}

func TestMoveCursorTo(t *testing.T) {
	t.Parallel()
	topo := topology.New(5)
	topo.GenerateLink(0, 1)
	topo.GenerateLink(0, 2)
	topo.GenerateLink(2, 3)
	topo.GenerateLink(2, 4)
	c := New(topo, zeros(5), nil)

	if _, err := c.MoveCursorTo(2, 4, itensor.Args{}); err != nil {
		t.Fatalf("%+v", err)
	}
	first, second := c.Cursor()
	if !(first == 2 && second == 4) && !(first == 4 && second == 2) {
		t.Fatalf("%d %d", first, second)
	}

	if _, err := c.MoveCursorTo(0, 1, itensor.Args{}); err != nil {
		t.Fatalf("%+v", err)
	}
	first, second = c.Cursor()
	if !(first == 0 && second == 1) && !(first == 1 && second == 0) {
		t.Fatalf("%d %d", first, second)
	}
	if got := overlapMust(t, c, idOps(c), c); !approx(got, 1, 1e-5) {
		t.Fatalf("%v", got)
	}
}

func bellState(t *testing.T) *QCircuit {
	t.Helper()
	c := New(topology.Chain(2), zeros(2), nil)
	c.Apply(itensor.Product(H(c.Site(0)), Id(c.Site(1))))
	c.Apply(CNOT(c.Site(0), c.Site(1)))
	return c
}

func zeros(n int) [][2]complex64 {
	amps := make([][2]complex64, n)
	for i := range amps {
		amps[i] = [2]complex64{1, 0}
	}
	return amps
}

func idOps(c *QCircuit) []itensor.ITensor {
	ops := make([]itensor.ITensor, 0, c.Size())
	for i := range c.Size() {
		ops = append(ops, Id(c.Site(i)))
	}
	return ops
}

// opsAt builds a per-site operator list from gate constructors.
func opsAt(c *QCircuit, gs ...func(itensor.Index) itensor.ITensor) []itensor.ITensor {
	if len(gs) != c.Size() {
		panic(len(gs))
	}
	ops := make([]itensor.ITensor, 0, len(gs))
	for i, g := range gs {
		ops = append(ops, g(c.Site(i)))
	}
	return ops
}

func overlapMust(t *testing.T, c1 *QCircuit, ops []itensor.ITensor, c2 *QCircuit) complex64 {
	t.Helper()
	v, err := Overlap(c1, ops, c2, itensor.Args{})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return v
}

func approx(got, want complex64, tol float64) bool {
	return cmplx.Abs(complex128(got-want)) <= tol
}
