package itensor

import (
	"fmt"
	"sync/atomic"
)

var indexID atomic.Uint64

// Index identifies one axis of a tensor.
// Two indices compare equal only when they share identity and prime level,
// so indices act as global names when matching contractions.
type Index struct {
	id    uint64
	dim   int
	tag   string
	level int
}

// NewIndex returns a fresh index with a unique identity.
func NewIndex(dim int, tag string) Index {
	if dim <= 0 {
		panic(fmt.Sprintf("%d", dim))
	}
	return Index{id: indexID.Add(1), dim: dim, tag: tag}
}

// Dim returns the dimension of the index.
func (ix Index) Dim() int { return ix.dim }

// Tag returns the textual tag of the index.
func (ix Index) Tag() string { return ix.tag }

// Level returns the prime level of the index.
func (ix Index) Level() int { return ix.level }

// Prime returns the index one prime level up.
// Priming is deterministic: s.Prime() always names the same index,
// and s.Prime().Prime() is yet another distinct index.
func (ix Index) Prime() Index {
	ix.level++
	return ix
}

func (ix Index) String() string {
	if ix.level == 0 {
		return fmt.Sprintf("(%s,%d)", ix.tag, ix.dim)
	}
	return fmt.Sprintf("(%s,%d)'%d", ix.tag, ix.dim, ix.level)
}

// IndexVal pairs an index with a basis value.
type IndexVal struct {
	Index Index
	Val   int
}

// V returns the index paired with basis value v. Values are 1-based.
func (ix Index) V(v int) IndexVal {
	if v < 1 || v > ix.dim {
		panic(fmt.Sprintf("%d %d", v, ix.dim))
	}
	return IndexVal{Index: ix, Val: v}
}
