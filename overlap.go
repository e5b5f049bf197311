package qtps

import (
	"fmt"

	"github.com/pkg/errors"

	"qtps/itensor"
)

// Overlap computes <c1|op|c2>, where op is a per-site operator list and
// op[i] is a rank-2 tensor over site index i and its prime. The circuits
// must share topology and site indices; both are cloned internally, so the
// callers' states are not perturbed.
//
// Both states are flushed to factored form, the ket copy is primed, and the
// per-site chain dag(M1[i]) * op[i] * M2[i] is accumulated over the sites
// in breadth-first order, so that every step shares at least one link index
// with the tensors contracted before it.
func Overlap(c1 *QCircuit, op []itensor.ITensor, c2 *QCircuit, args itensor.Args) (complex64, error) {
	if len(op) != c1.Size() || len(op) != c2.Size() {
		panic(fmt.Sprintf("%d %d %d", len(op), c1.Size(), c2.Size()))
	}
	for i := range c1.s {
		if c1.s[i] != c2.s[i] {
			panic(fmt.Sprintf("%d %v %v", i, c1.s[i], c2.s[i]))
		}
		if op[i].Rank() != 2 || !op[i].HasIndex(c1.s[i]) || !op[i].HasIndex(c1.s[i].Prime()) {
			panic(fmt.Sprintf("%d %v", i, op[i].Inds()))
		}
	}

	bra, ket := c1.Clone(), c2.Clone()
	if _, err := bra.DecomposePsi(args); err != nil {
		return 0, errors.Wrap(err, "")
	}
	if _, err := ket.DecomposePsi(args); err != nil {
		return 0, errors.Wrap(err, "")
	}
	ket.PrimeAll()

	var t itensor.ITensor
	for step, i := range c1.topo.BFSOrder() {
		bo := itensor.Product(itensor.Dag(bra.m[i]), op[i])
		if step > 0 {
			bo = itensor.Product(bo, t)
		}
		t = itensor.Product(bo, ket.m[i])
	}
	return t.Cplx(), nil
}
