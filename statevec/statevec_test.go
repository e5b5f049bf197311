package statevec

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestBell(t *testing.T) {
	t.Parallel()
	st := New(2)
	st.ApplyOne(0, Hadamard)
	st.ApplyTwo(0, 1, CNOT)

	invSqrt2 := complex(1/math.Sqrt2, 0)
	tests := []struct {
		bits []int
		want complex128
	}{
		{bits: []int{0, 0}, want: invSqrt2},
		{bits: []int{1, 1}, want: invSqrt2},
		{bits: []int{0, 1}, want: 0},
		{bits: []int{1, 0}, want: 0},
	}
	for _, test := range tests {
		if got := st.Amplitude(test.bits); cmplx.Abs(got-test.want) > 1e-12 {
			t.Fatalf("%v %v %v", test.bits, got, test.want)
		}
	}

	if got := InnerProduct(st, st); cmplx.Abs(got-1) > 1e-12 {
		t.Fatalf("%v", got)
	}
}

func TestApplyTwoNonAdjacent(t *testing.T) {
	t.Parallel()
	st := New(3)
	st.ApplyOne(0, PauliX) // |100>
	st.ApplyTwo(0, 2, CNOT)

	if got := st.Amplitude([]int{1, 0, 1}); cmplx.Abs(got-1) > 1e-12 {
		t.Fatalf("%v", got)
	}
	if got := st.Amplitude([]int{1, 0, 0}); cmplx.Abs(got) > 1e-12 {
		t.Fatalf("%v", got)
	}
}

func TestPauliAlgebra(t *testing.T) {
	t.Parallel()

	// <1|Z|1> = -1.
	x := New(1)
	x.ApplyOne(0, PauliX)
	z := New(1)
	z.ApplyOne(0, PauliX)
	z.ApplyOne(0, PauliZ)
	if got := InnerProduct(x, z); cmplx.Abs(got-(-1)) > 1e-12 {
		t.Fatalf("%v", got)
	}

	// Y = iXZ.
	yz := New(1)
	yz.ApplyOne(0, PauliZ)
	yz.ApplyOne(0, PauliX)
	y := New(1)
	y.ApplyOne(0, PauliY)
	if got, want := y.Amplitude([]int{1}), complex(0, 1)*yz.Amplitude([]int{1}); cmplx.Abs(got-want) > 1e-12 {
		t.Fatalf("%v %v", got, want)
	}
}
