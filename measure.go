package qtps

import (
	"fmt"
	"math/rand/v2"

	"github.com/pkg/errors"

	"qtps/itensor"
)

// ProbabilityOfZero returns the probability of observing qubit `site` in
// state |0>. The cursor is moved to cover the site.
//
// The cursor walk keeps every tensor away from the cursor isometric toward
// it, so the norm of Psi equals the norm of the whole state and the
// probability can be read off locally.
func (c *QCircuit) ProbabilityOfZero(site int, args itensor.Args) (float64, error) {
	if site < 0 || site >= c.Size() {
		panic(fmt.Sprintf("%d", site))
	}
	if err := c.cursorOver(site, args); err != nil {
		return 0, errors.Wrap(err, "")
	}
	c.contractPsi()
	partner := c.cursorPartner(site)

	proj := itensor.Product(Proj0(c.s[site]), Id(c.s[partner]))
	projected := itensor.Product(proj, itensor.Prime(c.psi, c.s[site], c.s[partner]))

	nrm := itensor.Norm(c.psi)
	if nrm == 0 {
		return 0, errors.Errorf("zero norm")
	}
	r := itensor.Norm(projected) / nrm
	return r * r, nil
}

// ObserveQubit performs a projective measurement on qubit `site`, collapses
// the state accordingly, and returns the observed bit.
func (c *QCircuit) ObserveQubit(site int, args itensor.Args) (int, error) {
	p0, err := c.ProbabilityOfZero(site, args)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}

	bit := 0
	proj := Proj0(c.s[site])
	if rand.Float64() >= p0 {
		bit = 1
		proj = Proj1(c.s[site])
	}

	partner := c.cursorPartner(site)
	c.Apply(itensor.Product(proj, Id(c.s[partner])))
	if err := c.Normalize(); err != nil {
		return 0, errors.Wrap(err, "")
	}
	return bit, nil
}

func (c *QCircuit) cursorOver(site int, args itensor.Args) error {
	if site == c.cursor[0] || site == c.cursor[1] {
		return nil
	}
	nb := c.topo.NeighborsOf(site)[0].Site
	_, err := c.MoveCursorTo(site, nb, args)
	return err
}

func (c *QCircuit) cursorPartner(site int) int {
	switch site {
	case c.cursor[0]:
		return c.cursor[1]
	case c.cursor[1]:
		return c.cursor[0]
	}
	panic(fmt.Sprintf("%d %v", site, c.cursor))
}
