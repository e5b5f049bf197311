package qtps

import (
	"math"

	"qtps/itensor"
)

// Gate constructors return operators over the given site indices and their
// primes. The primed index is the output leg, the unprimed one the input
// leg; basis value 1 is |0> and 2 is |1>. Two-site gates are rank-4 and are
// the valid arguments of QCircuit.Apply.

// Id returns the identity gate.
func Id(s itensor.Index) itensor.ITensor {
	ret := itensor.New(s, s.Prime())
	ret.Set(1, s.V(1), s.Prime().V(1))
	ret.Set(1, s.V(2), s.Prime().V(2))
	return ret
}

// X returns the Pauli X gate.
func X(s itensor.Index) itensor.ITensor {
	ret := itensor.New(s, s.Prime())
	ret.Set(1, s.V(1), s.Prime().V(2))
	ret.Set(1, s.V(2), s.Prime().V(1))
	return ret
}

// Y returns the Pauli Y gate.
func Y(s itensor.Index) itensor.ITensor {
	ret := itensor.New(s, s.Prime())
	ret.Set(complex(0, 1), s.V(1), s.Prime().V(2))
	ret.Set(complex(0, -1), s.V(2), s.Prime().V(1))
	return ret
}

// Z returns the Pauli Z gate.
func Z(s itensor.Index) itensor.ITensor {
	ret := itensor.New(s, s.Prime())
	ret.Set(1, s.V(1), s.Prime().V(1))
	ret.Set(-1, s.V(2), s.Prime().V(2))
	return ret
}

// Proj0 returns the projection |0><0|.
func Proj0(s itensor.Index) itensor.ITensor {
	ret := itensor.New(s, s.Prime())
	ret.Set(1, s.V(1), s.Prime().V(1))
	return ret
}

// Proj1 returns the projection |1><1|.
func Proj1(s itensor.Index) itensor.ITensor {
	ret := itensor.New(s, s.Prime())
	ret.Set(1, s.V(2), s.Prime().V(2))
	return ret
}

// Proj0To1 returns |1><0|.
func Proj0To1(s itensor.Index) itensor.ITensor {
	ret := itensor.New(s, s.Prime())
	ret.Set(1, s.V(1), s.Prime().V(2))
	return ret
}

// Proj1To0 returns |0><1|.
func Proj1To0(s itensor.Index) itensor.ITensor {
	ret := itensor.New(s, s.Prime())
	ret.Set(1, s.V(2), s.Prime().V(1))
	return ret
}

// H returns the Hadamard gate.
func H(s itensor.Index) itensor.ITensor {
	invSqrt2 := complex(float32(1/math.Sqrt2), 0)
	return itensor.Add(
		itensor.Add(Proj0(s), Proj0To1(s)).Mul(invSqrt2),
		itensor.Sub(Proj1To0(s), Proj1(s)).Mul(invSqrt2))
}

// CNOT returns the controlled NOT gate with control s1 and target s2.
func CNOT(s1, s2 itensor.Index) itensor.ITensor {
	return itensor.Add(
		itensor.Product(Proj0(s1), Id(s2)),
		itensor.Product(Proj1(s1), X(s2)))
}

// CY returns the controlled Y gate.
func CY(s1, s2 itensor.Index) itensor.ITensor {
	return itensor.Add(
		itensor.Product(Proj0(s1), Id(s2)),
		itensor.Product(Proj1(s1), Y(s2)))
}

// CZ returns the controlled Z gate.
func CZ(s1, s2 itensor.Index) itensor.ITensor {
	return itensor.Add(
		itensor.Product(Proj0(s1), Id(s2)),
		itensor.Product(Proj1(s1), Z(s2)))
}

// Swap returns the swap gate.
func Swap(s1, s2 itensor.Index) itensor.ITensor {
	ret := itensor.New(s1, s1.Prime(), s2, s2.Prime())
	ret.Set(1, s1.V(1), s1.Prime().V(1), s2.V(1), s2.Prime().V(1))
	ret.Set(1, s1.V(2), s1.Prime().V(2), s2.V(2), s2.Prime().V(2))
	ret.Set(1, s1.V(1), s1.Prime().V(2), s2.V(2), s2.Prime().V(1))
	ret.Set(1, s1.V(2), s1.Prime().V(1), s2.V(1), s2.Prime().V(2))
	return ret
}
