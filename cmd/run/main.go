// Command run sweeps GHZ state preparation on open chains over truncation
// settings, records the fidelities in a sqlite database, and prints a CSV
// summary.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/cmplx"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"qtps"
	"qtps/itensor"
	"qtps/runs"
	"qtps/topology"
)

var (
	runDir = flag.String("d", filepath.Join("runs", "ghz"), "run directory")
)

type Config struct {
	l      int
	cutoff float64
	maxDim int
}

func newConfigs() []Config {
	configs := make([]Config, 0)
	for _, l := range []int{4, 8, 16} {
		for _, cutoff := range []float64{1e-5, 1e-8} {
			for _, maxDim := range []int{2, 4, 8} {
				configs = append(configs, Config{l: l, cutoff: cutoff, maxDim: maxDim})
			}
		}
	}
	return configs
}

// solve prepares the GHZ state (|00...0> + |11...1>)/sqrt(2) on an open
// chain of length cfg.l by a Hadamard followed by a ladder of CNOTs walked
// along the chain, and measures its fidelity against the two basis
// product states.
func solve(cfg Config) (runs.Result, error) {
	topo := topology.Chain(cfg.l)
	args := itensor.Args{Cutoff: cfg.cutoff, MaxDim: cfg.maxDim}

	zeros := make([][2]complex64, cfg.l)
	ones := make([][2]complex64, cfg.l)
	for i := range zeros {
		zeros[i] = [2]complex64{1, 0}
		ones[i] = [2]complex64{0, 1}
	}

	c := qtps.New(topo, zeros, nil)
	c.Apply(itensor.Product(qtps.H(c.Site(0)), qtps.Id(c.Site(1))))
	c.Apply(qtps.CNOT(c.Site(0), c.Site(1)))
	var truncerr float64
	for i := 2; i < cfg.l; i++ {
		spec, err := c.ShiftTo(i, args)
		if err != nil {
			return runs.Result{}, errors.Wrap(err, fmt.Sprintf("%d", i))
		}
		truncerr += spec.Truncerr
		c.Apply(qtps.CNOT(c.Site(i-1), c.Site(i)))
	}

	c0 := qtps.New(topo, zeros, c.Sites())
	c1 := qtps.New(topo, ones, c.Sites())
	ops := make([]itensor.ITensor, 0, cfg.l)
	for i := range cfg.l {
		ops = append(ops, qtps.Id(c.Site(i)))
	}

	f0, err := qtps.Overlap(c, ops, c0, args)
	if err != nil {
		return runs.Result{}, errors.Wrap(err, "")
	}
	f1, err := qtps.Overlap(c, ops, c1, args)
	if err != nil {
		return runs.Result{}, errors.Wrap(err, "")
	}

	return runs.Result{
		L:         cfg.l,
		MaxDim:    cfg.maxDim,
		Cutoff:    cfg.cutoff,
		Fidelity0: cmplx.Abs(complex128(f0)),
		Fidelity1: cmplx.Abs(complex128(f1)),
		Truncerr:  truncerr,
	}, nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	if err := os.MkdirAll(*runDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}
	db, err := runs.Open(filepath.Join(*runDir, "ghz.db"))
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()

	for _, cfg := range newConfigs() {
		r, err := solve(cfg)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("%#v", cfg))
		}
		if err := db.Insert(r); err != nil {
			return errors.Wrap(err, "")
		}
		log.Printf("%#v", r)
	}

	// Gather results and print them.
	rs, err := db.List()
	if err != nil {
		return errors.Wrap(err, "")
	}
	fmt.Printf("l,maxdim,cutoff,fid0,fid1,truncerr\n")
	for _, r := range rs {
		fmt.Printf("%d,%d,%g,%f,%f,%g\n", r.L, r.MaxDim, r.Cutoff, r.Fidelity0, r.Fidelity1, r.Truncerr)
	}
	return nil
}
