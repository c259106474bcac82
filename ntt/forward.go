package ntt

import (
	"fmt"
	"math/big"

	"github.com/polyzk/cairogen/circuit"
)

// ntt traces the recursive forward transform. Splitting is a
// compile-time operation on the coefficient slice; only the butterfly
// arithmetic reaches the trace. Results are left unreduced.
func (g *Generator) ntt(c *circuit.Circuit, f []*circuit.Variable) []*circuit.Variable {
	if len(f) == 2 {
		return g.nttBaseCase(c, f[0], f[1])
	}
	f0, f1 := splitEvenOdd(f)
	return g.mergeNTT(c, g.ntt(c, f0), g.ntt(c, f1), len(f))
}

// nttBaseCase computes, for n=2:
//
//	r0 = f0 + sqr1 * f1
//	r1 = f0 - sqr1 * f1
func (g *Generator) nttBaseCase(c *circuit.Circuit, f0, f1 *circuit.Variable) []*circuit.Variable {
	sqr1 := c.Constant(big.NewInt(SQR1), "sqr1")
	t := c.Mul(f1, sqr1)
	return []*circuit.Variable{
		c.Add(f0, t),
		c.Sub(f0, t),
	}
}

// mergeNTT combines two half-size transforms with one twiddle multiply
// and one add/subtract per pair:
//
//	result[2i]   = f0Ntt[i] + w[2i] * f1Ntt[i]
//	result[2i+1] = f0Ntt[i] - w[2i] * f1Ntt[i]
//
// Each merge level only ever needs every other root, so twiddles come
// from the even-indexed entries of the size-specific table.
func (g *Generator) mergeNTT(c *circuit.Circuit, f0Ntt, f1Ntt []*circuit.Variable, size int) []*circuit.Variable {
	roots := Roots(size)
	result := make([]*circuit.Variable, 0, size)
	for i := range f0Ntt {
		twiddle := c.Constant(big.NewInt(roots[2*i]), fmt.Sprintf("w%d_%d", size, i))
		prod := c.Mul(f1Ntt[i], twiddle)
		result = append(result, c.Add(f0Ntt[i], prod))
		result = append(result, c.Sub(f0Ntt[i], prod))
	}
	return result
}

func splitEvenOdd(f []*circuit.Variable) ([]*circuit.Variable, []*circuit.Variable) {
	even := make([]*circuit.Variable, 0, len(f)/2)
	odd := make([]*circuit.Variable, 0, len(f)/2)
	for i, v := range f {
		if i%2 == 0 {
			even = append(even, v)
		} else {
			odd = append(odd, v)
		}
	}
	return even, odd
}
