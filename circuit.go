// Package qtps simulates quantum circuits on tree tensor product states.
//
// The wave function is stored as one tensor per qubit over a tree shaped
// circuit topology with at most three neighbors per site. Gates are applied
// through a two-site cursor: the tensors of two adjacent sites are kept
// contracted into a single tensor Psi, and moving the cursor to a
// neighboring site re-factorizes Psi by a truncating singular value
// decomposition.
//
// References:
//   - The density-matrix renormalization group in the age of matrix product states, Ulrich Schollwock
package qtps

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"qtps/itensor"
	"qtps/topology"
)

// QCircuit stores and modifies a wave function in tree tensor product form.
//
// The circuit is always in one of two states: CONTRACTED, where Psi holds
// the two cursor sites and their factored tensors are stale, or FACTORED,
// where every site tensor is valid and Psi is stale. Construction and
// ShiftTo leave it CONTRACTED; DecomposePsi leaves it FACTORED. Operations
// that need Psi re-contract it from the site tensors on entry.
//
// A QCircuit is not safe for concurrent use.
type QCircuit struct {
	topo *topology.Topology

	a []itensor.Index   // link indices, rebound after every SVD on their edge
	s []itensor.Index   // site indices, dimension 2
	m []itensor.ITensor // site tensors, rank 1+degree

	psi        itensor.ITensor // two-site tensor under the cursor
	cursor     [2]int
	contracted bool
}

// New initializes a tree tensor product wave function over topo in the
// product state given by the per-site amplitudes (alpha, beta). The cursor
// is set at (0, 1), which must be an edge of topo.
//
// physicalIndices, when non-nil, supplies the site indices instead of fresh
// ones. It is used to share site indices among replica wave functions of
// the same circuit, as Overlap requires.
func New(topo *topology.Topology, initQbits [][2]complex64, physicalIndices []itensor.Index) *QCircuit {
	n := topo.NumberOfBits()
	if n < 2 {
		panic(fmt.Sprintf("%d", n))
	}
	if len(initQbits) != n {
		panic(fmt.Sprintf("%d %d", len(initQbits), n))
	}
	// A connected graph with numBits-1 links is a tree.
	if topo.NumberOfLinks() != n-1 {
		panic(fmt.Sprintf("%d %d", topo.NumberOfLinks(), n-1))
	}
	if len(topo.BFSOrder()) != n {
		panic(fmt.Sprintf("%d %d", len(topo.BFSOrder()), n))
	}
	if !topo.Adjacent(0, 1) {
		panic(fmt.Sprintf("%v", [2]int{0, 1}))
	}

	c := &QCircuit{topo: topo}
	c.a = make([]itensor.Index, 0, topo.NumberOfLinks())
	for range topo.NumberOfLinks() {
		c.a = append(c.a, itensor.NewIndex(1, "Link"))
	}

	if physicalIndices == nil {
		c.s = make([]itensor.Index, 0, n)
		for range n {
			c.s = append(c.s, itensor.NewIndex(2, "Site"))
		}
	} else {
		if len(physicalIndices) != n {
			panic(fmt.Sprintf("%d %d", len(physicalIndices), n))
		}
		c.s = slices.Clone(physicalIndices)
	}

	c.m = make([]itensor.ITensor, 0, n)
	for i := range n {
		neighbors := topo.NeighborsOf(i)
		if len(neighbors) < 1 || len(neighbors) > 3 {
			panic(fmt.Sprintf("%d %d", i, len(neighbors)))
		}

		inds := []itensor.Index{c.s[i]}
		ivals := []itensor.IndexVal{c.s[i].V(1)}
		for _, nb := range neighbors {
			inds = append(inds, c.a[nb.Link])
			ivals = append(ivals, c.a[nb.Link].V(1))
		}
		mi := itensor.New(inds...)
		mi.Set(initQbits[i][0], ivals...)
		ivals[0] = c.s[i].V(2)
		mi.Set(initQbits[i][1], ivals...)
		c.m = append(c.m, mi)
	}

	c.cursor = [2]int{0, 1}
	c.contract()
	return c
}

// Size returns the number of qubits.
func (c *QCircuit) Size() int {
	return c.topo.NumberOfBits()
}

// DecomposePsi re-factorizes Psi into the two cursor site tensors by a
// truncated SVD, leaving the cursor position unchanged and the circuit
// FACTORED. The singular value tensor is renormalized, restoring unit norm
// on the kept part.
func (c *QCircuit) DecomposePsi(args itensor.Args) (itensor.Spectrum, error) {
	c.contractPsi()
	first, second := c.cursor[0], c.cursor[1]

	var u, sv, v itensor.ITensor
	spec, err := itensor.SVD(&u, &sv, &v, c.psi, c.sideInds(first, second), args)
	if err != nil {
		return itensor.Spectrum{}, errors.Wrap(err, "")
	}

	c.a[c.topo.Link(first, second)] = itensor.CommonIndex(u, sv)
	sv = sv.Mul(complex(float32(1/itensor.Norm(sv)), 0))
	c.m[first] = u
	c.m[second] = itensor.Product(sv, v)
	c.contracted = false
	return spec, nil
}

// ShiftTo moves the cursor to the neighboring site ind. The site left
// behind is resolved into a factored tensor, and the new Psi contracts the
// tensor of ind with the mass kept at the cursor. ind must be a neighbor of
// exactly one of the two cursor sites.
func (c *QCircuit) ShiftTo(ind int, args itensor.Args) (itensor.Spectrum, error) {
	first, second := c.cursor[0], c.cursor[1]
	if ind == first || ind == second {
		panic(fmt.Sprintf("%d %v", ind, c.cursor))
	}
	if !c.topo.Adjacent(first, ind) && !c.topo.Adjacent(second, ind) {
		panic(fmt.Sprintf("%d %v", ind, c.cursor))
	}
	c.contractPsi()
	link := c.topo.Link(first, second)

	var u, sv, v itensor.ITensor
	spec, err := itensor.SVD(&u, &sv, &v, c.psi, c.sideInds(first, second), args)
	if err != nil {
		return itensor.Spectrum{}, errors.Wrap(err, "")
	}

	switch {
	case c.topo.Adjacent(first, ind):
		// Advance through first: the second side becomes a factored
		// tensor, and the shared mass folds onto the new cursor pair.
		c.a[link] = itensor.CommonIndex(sv, v)
		sv = sv.Mul(complex(float32(1/itensor.Norm(sv)), 0))
		c.m[second] = v
		c.psi = itensor.Product(itensor.Product(c.m[ind], u), sv)
		c.cursor = [2]int{ind, first}
	case c.topo.Adjacent(second, ind):
		c.a[link] = itensor.CommonIndex(u, sv)
		sv = sv.Mul(complex(float32(1/itensor.Norm(sv)), 0))
		c.m[first] = u
		c.psi = itensor.Product(itensor.Product(sv, v), c.m[ind])
		c.cursor = [2]int{second, ind}
	}
	c.contracted = true
	return spec, nil
}

// Apply applies op at the cursor position. op must be a rank-4 tensor over
// the two cursor site indices and their primes. Bond dimensions are not
// truncated here; they are re-truncated on the next shift or decompose.
func (c *QCircuit) Apply(op itensor.ITensor) {
	c.contractPsi()
	first, second := c.cursor[0], c.cursor[1]

	if op.Rank() != 4 {
		panic(fmt.Sprintf("%d", op.Rank()))
	}
	for _, ix := range []itensor.Index{c.s[first], c.s[second], c.s[first].Prime(), c.s[second].Prime()} {
		if !op.HasIndex(ix) {
			panic(fmt.Sprintf("%v %v", ix, op.Inds()))
		}
	}

	c.psi = itensor.Product(op, itensor.Prime(c.psi, c.s[first], c.s[second]))
}

// Normalize scales Psi to unit Frobenius norm.
func (c *QCircuit) Normalize() error {
	c.contractPsi()
	nrm := itensor.Norm(c.psi)
	if nrm == 0 {
		return errors.Errorf("zero norm")
	}
	c.psi = c.psi.Mul(complex(float32(1/nrm), 0))
	return nil
}

// PrimeAll primes every site index, link index and tensor of the circuit.
// It is used by Overlap to distinguish the bra and ket copies of a state.
func (c *QCircuit) PrimeAll() {
	for i := range c.s {
		c.s[i] = c.s[i].Prime()
	}
	for i := range c.a {
		c.a[i] = c.a[i].Prime()
	}
	for i := range c.m {
		c.m[i] = itensor.Prime(c.m[i])
	}
	c.psi = itensor.Prime(c.psi)
}

// MoveCursorAlong shifts the cursor through the given sites in order.
// It returns the accumulated truncation error.
func (c *QCircuit) MoveCursorAlong(sites []int, args itensor.Args) (float64, error) {
	var truncerr float64
	for _, v := range sites {
		spec, err := c.ShiftTo(v, args)
		if err != nil {
			return truncerr, errors.Wrap(err, fmt.Sprintf("%d", v))
		}
		truncerr += spec.Truncerr
	}
	return truncerr, nil
}

// MoveCursorTo walks the cursor along the tree to the edge (site1, site2),
// which must exist. It returns the accumulated truncation error.
func (c *QCircuit) MoveCursorTo(site1, site2 int, args itensor.Args) (float64, error) {
	if !c.topo.Adjacent(site1, site2) {
		panic(fmt.Sprintf("%d %d", site1, site2))
	}

	var truncerr float64
	for {
		first, second := c.cursor[0], c.cursor[1]
		if (first == site1 && second == site2) || (first == site2 && second == site1) {
			return truncerr, nil
		}

		spec, err := c.ShiftTo(c.nextToward(site1, site2), args)
		if err != nil {
			return truncerr, errors.Wrap(err, "")
		}
		truncerr += spec.Truncerr
	}
}

// nextToward returns the site to shift to next on the way to edge (t1, t2).
func (c *QCircuit) nextToward(t1, t2 int) int {
	first, second := c.cursor[0], c.cursor[1]
	if first == t1 || second == t1 {
		return t2
	}
	if first == t2 || second == t2 {
		return t1
	}

	p := c.topo.Path(first, t1)
	if p[1] != second {
		return p[1]
	}
	return c.topo.Path(second, t1)[1]
}

// Clone returns a deep copy sharing the topology and the index identities.
func (c *QCircuit) Clone() *QCircuit {
	d := &QCircuit{topo: c.topo, cursor: c.cursor, contracted: c.contracted}
	d.a = slices.Clone(c.a)
	d.s = slices.Clone(c.s)
	d.m = make([]itensor.ITensor, 0, len(c.m))
	for _, mi := range c.m {
		d.m = append(d.m, mi.Clone())
	}
	d.psi = c.psi.Clone()
	return d
}

// M returns the site tensor of site i.
func (c *QCircuit) M(i int) itensor.ITensor {
	if i < 0 || i >= c.Size() {
		panic(fmt.Sprintf("%d", i))
	}
	return c.m[i]
}

// MList returns all site tensors.
func (c *QCircuit) MList() []itensor.ITensor {
	return slices.Clone(c.m)
}

// Psi returns the contracted two-site tensor under the cursor.
// It is stale after DecomposePsi.
func (c *QCircuit) Psi() itensor.ITensor {
	return c.psi
}

// Site returns the site index of qubit i.
func (c *QCircuit) Site(i int) itensor.Index {
	if i < 0 || i >= c.Size() {
		panic(fmt.Sprintf("%d", i))
	}
	return c.s[i]
}

// Sites returns all site indices.
func (c *QCircuit) Sites() []itensor.Index {
	return slices.Clone(c.s)
}

// Cursor returns the cursor position.
func (c *QCircuit) Cursor() (int, int) {
	return c.cursor[0], c.cursor[1]
}

// Topology returns the circuit topology.
func (c *QCircuit) Topology() *topology.Topology {
	return c.topo
}

func (c *QCircuit) String() string {
	ss := make([]string, 0, c.Size()+2)
	for i, mi := range c.m {
		ss = append(ss, fmt.Sprintf("M[%d] = %v", i, mi))
	}
	ss = append(ss, fmt.Sprintf("Psi = %v", c.psi))
	ss = append(ss, fmt.Sprintf("cursor (%d,%d) contracted %t", c.cursor[0], c.cursor[1], c.contracted))
	return strings.Join(ss, "\n")
}

func (c *QCircuit) contract() {
	c.psi = itensor.Product(c.m[c.cursor[0]], c.m[c.cursor[1]])
	c.contracted = true
}

func (c *QCircuit) contractPsi() {
	if !c.contracted {
		c.contract()
	}
}

// sideInds returns the SVD template for `site`: its site index plus the
// link indices of all its edges except the one to `exclude`.
func (c *QCircuit) sideInds(site, exclude int) []itensor.Index {
	inds := []itensor.Index{c.s[site]}
	for _, nb := range c.topo.NeighborsOf(site) {
		if nb.Site == exclude {
			continue
		}
		inds = append(inds, c.a[nb.Link])
	}
	return inds
}
